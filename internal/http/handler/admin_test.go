package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"shopapi/internal/model"
	"shopapi/internal/service"
	serviceMocks "shopapi/internal/service/mocks"
)

func imageForm(t *testing.T, field, filename, contentType string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := writer.CreatePart(h)
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte("\x89PNG fake"))
	writer.Close()
	return body, writer.FormDataContentType()
}

func TestUploadProductImage(t *testing.T) {
	mockSvc := new(serviceMocks.MockAdminService)
	app := fiber.New()
	app.Post("/products/:id/images", UploadProductImage(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.NewString()
		body, ct := imageForm(t, "image", "kanga.png", "image/png")

		expected := &model.Product{ID: id, ImageURLs: []string{"https://cdn.example.com/products/" + id + "/a.png"}}
		mockSvc.On("UploadProductImage", mock.Anything, id, mock.MatchedBy(func(img service.ImageUpload) bool {
			return img.Filename == "kanga.png" && img.ContentType == "image/png" && img.Size > 0 && img.Reader != nil
		})).Return(expected, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/products/"+id+"/images", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var result model.Product
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, expected.ImageURLs, result.ImageURLs)
		mockSvc.AssertExpectations(t)
	})

	t.Run("no file", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/products/"+uuid.NewString()+"/images", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "FILE_REQUIRED", decodeError(t, resp).Error.Code)
	})

	t.Run("not an image", func(t *testing.T) {
		body, ct := imageForm(t, "image", "notes.txt", "text/plain")
		req := httptest.NewRequest(http.MethodPost, "/products/"+uuid.NewString()+"/images", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
	})

	t.Run("storage not configured", func(t *testing.T) {
		id := uuid.NewString()
		body, ct := imageForm(t, "image", "kanga.png", "image/png")
		mockSvc.On("UploadProductImage", mock.Anything, id, mock.Anything).Return(nil, service.ErrStorageDisabled).Once()

		req := httptest.NewRequest(http.MethodPost, "/products/"+id+"/images", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestCreateProduct(t *testing.T) {
	mockSvc := new(serviceMocks.MockAdminService)
	app := fiber.New()
	app.Post("/products", CreateProduct(mockSvc))

	t.Run("created", func(t *testing.T) {
		mockSvc.On("CreateProduct", mock.Anything, mock.MatchedBy(func(in service.ProductInput) bool {
			return in.Name == "Red Kanga" && in.Price.Equal(decimal.NewFromInt(15000)) && in.Stock == 4
		})).Return(&model.Product{ID: uuid.NewString(), Slug: "red-kanga"}, nil).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/products", `{"name":"Red Kanga","price":"15000","stock":4}`))

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("price must be positive", func(t *testing.T) {
		resp, _ := app.Test(jsonRequest(http.MethodPost, "/products", `{"name":"Free Kanga","price":0}`))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeError(t, resp)
		assert.Equal(t, "VALIDATION_FAILED", body.Error.Code)
		assert.Equal(t, "price", body.Error.Errors[0].Field)
	})
}

func TestDeleteCategory(t *testing.T) {
	mockSvc := new(serviceMocks.MockAdminService)
	app := fiber.New()
	app.Delete("/categories/:id", DeleteCategory(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("DeleteCategory", mock.Anything, id).Return(nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodDelete, "/categories/"+id, nil))

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("DeleteCategory", mock.Anything, id).Return(service.ErrCategoryNotFound).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodDelete, "/categories/"+id, nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "CATEGORY_NOT_FOUND", decodeError(t, resp).Error.Code)
		mockSvc.AssertExpectations(t)
	})
}
