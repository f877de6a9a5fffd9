package mailer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopapi/internal/config"
	"shopapi/internal/model"
)

type recordingSender struct {
	sent []Message
	err  error
}

func (r *recordingSender) Send(_ context.Context, m Message) error {
	r.sent = append(r.sent, m)
	return r.err
}

func testOrder() *model.Order {
	return &model.Order{
		ID:          "o-1",
		OrderNumber: "ORD-20261015-ABC123",
		Currency:    "TZS",
		BuyerName:   "Amina Juma",
		BuyerEmail:  "amina@example.com",
		ShippingFee: decimal.Zero,
		Total:       decimal.NewFromInt(30000),
		ShippingAddress: model.ShippingAddress{
			FullName: "Amina Juma", Line1: "Plot 4", City: "Dar es Salaam",
		},
		Items: []model.OrderItem{
			{ProductName: "Kitenge <Blue>", Quantity: 2, UnitPrice: decimal.NewFromInt(15000), LineTotal: decimal.NewFromInt(30000)},
		},
	}
}

func testMailConfig() config.MailConfig {
	return config.MailConfig{
		FromName:          "Shop",
		FromAddress:       "orders@shop.test",
		AdminAddress:      "owner@shop.test",
		StorefrontBaseURL: "https://shop.test",
	}
}

func TestSendOrderConfirmation(t *testing.T) {
	rec := &recordingSender{}
	m := New(rec, testMailConfig(), zerolog.Nop())

	require.NoError(t, m.SendOrderConfirmation(context.Background(), testOrder()))
	require.Len(t, rec.sent, 1)

	msg := rec.sent[0]
	assert.Equal(t, "amina@example.com", msg.To[0].Email)
	assert.Equal(t, "orders@shop.test", msg.From.Email)
	assert.Contains(t, msg.Subject, "ORD-20261015-ABC123")
	assert.Contains(t, msg.HTML, "TZS 30000")
	assert.Contains(t, msg.HTML, "Kitenge &lt;Blue&gt;")
	assert.Contains(t, msg.HTML, "https://shop.test/orders/o-1")
}

func TestSendOrderConfirmation_NoBuyerEmail(t *testing.T) {
	rec := &recordingSender{}
	m := New(rec, testMailConfig(), zerolog.Nop())

	o := testOrder()
	o.BuyerEmail = ""
	require.NoError(t, m.SendOrderConfirmation(context.Background(), o))
	assert.Empty(t, rec.sent)
}

func TestSendAdminNewOrder(t *testing.T) {
	rec := &recordingSender{}
	m := New(rec, testMailConfig(), zerolog.Nop())

	require.NoError(t, m.SendAdminNewOrder(context.Background(), testOrder()))
	require.Len(t, rec.sent, 1)
	assert.Equal(t, "owner@shop.test", rec.sent[0].To[0].Email)
	assert.Contains(t, rec.sent[0].Subject, "TZS 30000")

	cfg := testMailConfig()
	cfg.AdminAddress = ""
	rec = &recordingSender{}
	require.NoError(t, New(rec, cfg, zerolog.Nop()).SendAdminNewOrder(context.Background(), testOrder()))
	assert.Empty(t, rec.sent)
}

func TestSend_WrapsSenderError(t *testing.T) {
	rec := &recordingSender{err: errors.New("boom")}
	m := New(rec, testMailConfig(), zerolog.Nop())

	err := m.SendOrderConfirmation(context.Background(), testOrder())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "order_confirmation")
	assert.Contains(t, err.Error(), "boom")
}

func TestNewSender(t *testing.T) {
	s, err := NewSender(config.MailConfig{Provider: "log"}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &LogSender{}, s)

	s, err = NewSender(config.MailConfig{Provider: "sendpulse", SendPulseBaseURL: "https://api.sendpulse.com"}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &SendPulse{}, s)

	s, err = NewSender(config.MailConfig{Provider: "resend", ResendAPIKey: "re_123"}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &Resend{}, s)

	_, err = NewSender(config.MailConfig{Provider: "fax"}, zerolog.Nop())
	assert.Error(t, err)
}

func TestLogSender(t *testing.T) {
	var buf bytes.Buffer
	s := NewLogSender(zerolog.New(&buf))

	require.NoError(t, s.Send(context.Background(), Message{To: []Address{{Email: "a@b.c"}}, Subject: "hi", HTML: "<p>x</p>"}))
	assert.Contains(t, buf.String(), `"subject":"hi"`)
	assert.Contains(t, buf.String(), "a@b.c")
}

func TestSendPulse_Send(t *testing.T) {
	var tokenCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/access_token":
			atomic.AddInt32(&tokenCalls, 1)
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "client_credentials", body["grant_type"])
			assert.Equal(t, "id", body["client_id"])
			_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"Bearer","expires_in":3600}`))
		case "/smtp/emails":
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			var body struct {
				Email sendPulseEmail `json:"email"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			html, err := base64.StdEncoding.DecodeString(body.Email.HTML)
			require.NoError(t, err)
			assert.Equal(t, "<p>hello</p>", string(html))
			assert.Equal(t, "a@b.c", body.Email.To[0].Email)
			_, _ = w.Write([]byte(`{"result":true}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	s := NewSendPulse(srv.URL, "id", "secret")
	msg := Message{From: Address{Email: "shop@b.c"}, To: []Address{{Email: "a@b.c"}}, Subject: "s", HTML: "<p>hello</p>"}
	require.NoError(t, s.Send(context.Background(), msg))
	require.NoError(t, s.Send(context.Background(), msg))
	assert.EqualValues(t, 1, atomic.LoadInt32(&tokenCalls), "token is cached")
}

func TestSendPulse_RefreshesRevokedToken(t *testing.T) {
	var tokenCalls, sendCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/access_token":
			n := atomic.AddInt32(&tokenCalls, 1)
			_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok" + string(rune('0'+n)), "expires_in": 3600})
		case "/smtp/emails":
			atomic.AddInt32(&sendCalls, 1)
			if r.Header.Get("Authorization") == "Bearer tok1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	s := NewSendPulse(srv.URL, "id", "secret")
	require.NoError(t, s.Send(context.Background(), Message{To: []Address{{Email: "a@b.c"}}}))
	assert.EqualValues(t, 2, atomic.LoadInt32(&tokenCalls))
	assert.EqualValues(t, 2, atomic.LoadInt32(&sendCalls))
}

func TestSendPulse_TokenExpiry(t *testing.T) {
	var tokenCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/access_token" {
			atomic.AddInt32(&tokenCalls, 1)
			_, _ = w.Write([]byte(`{"access_token":"tok","expires_in":3600}`))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	now := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)
	s := NewSendPulse(srv.URL, "id", "secret")
	s.now = func() time.Time { return now }

	require.NoError(t, s.Send(context.Background(), Message{}))
	now = now.Add(2 * time.Hour)
	require.NoError(t, s.Send(context.Background(), Message{}))
	assert.EqualValues(t, 2, atomic.LoadInt32(&tokenCalls))
}

func TestSendPulse_SendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/access_token" {
			_, _ = w.Write([]byte(`{"access_token":"tok","expires_in":3600}`))
			return
		}
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	err := NewSendPulse(srv.URL, "id", "secret").Send(context.Background(), Message{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
}

func TestSendPulse_TokenRejected(t *testing.T) {
	var sendCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/access_token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		atomic.AddInt32(&sendCalls, 1)
	}))
	defer srv.Close()

	err := NewSendPulse(srv.URL, "id", "wrong").Send(context.Background(), Message{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sendpulse: request token: http 401")
	assert.Contains(t, fmt.Sprintf("%+v", err), "sendpulse.go", "error carries a stack trace")
	assert.Zero(t, atomic.LoadInt32(&sendCalls))
}

func TestResend_Send(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Shop <orders@shop.test>", body["from"])
		assert.Equal(t, "subject", body["subject"])
		_, _ = w.Write([]byte(`{"id":"email-1"}`))
	}))
	defer srv.Close()

	r := NewResend("re_test")
	u, err := r.client.BaseURL.Parse(srv.URL + "/")
	require.NoError(t, err)
	r.client.BaseURL = u

	err = r.Send(context.Background(), Message{
		From:    Address{Name: "Shop", Email: "orders@shop.test"},
		To:      []Address{{Email: "a@b.c"}},
		Subject: "subject",
		HTML:    "<p>x</p>",
	})
	require.NoError(t, err)
}
