package handler

import (
	"database/sql"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"shopapi/docs"
	"shopapi/internal/http/middleware"
	"shopapi/internal/service"
)

// Deps are the collaborators the routes are built from.
type Deps struct {
	Auth       *middleware.Auth
	Identities IdentityProvider
	// Gatherer serves /metrics when set.
	Gatherer prometheus.Gatherer

	Catalog       service.CatalogService
	Cart          service.CartService
	Reviews       service.ReviewService
	Users         service.UserService
	Addresses     service.AddressService
	Orders        service.OrderService
	Payments      service.PaymentService
	Notifications service.NotificationService
	Admin         service.AdminService
}

// RegisterRoutes attaches every HTTP route to app.
func RegisterRoutes(app *fiber.App, db *sql.DB, d Deps) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())
	if d.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}
	app.Get("/swagger/*", swaggerUI)

	v1 := app.Group("/api/v1")

	v1.Get("/products", ListProducts(d.Catalog))
	v1.Get("/products/:idOrSlug", GetProduct(d.Catalog))
	v1.Get("/categories", ListCategories(d.Catalog))
	v1.Get("/products/:id/reviews", ListReviews(d.Reviews))

	// The gateway authenticates with its api key, checked by the payment service.
	v1.Post("/payments/webhook", PaymentWebhook(d.Payments))

	authn := d.Auth.RequireAuth()

	v1.Post("/products/:id/reviews", authn, CreateReview(d.Reviews))

	v1.Get("/cart", authn, GetCart(d.Cart))
	v1.Delete("/cart", authn, ClearCart(d.Cart))
	v1.Post("/cart/items", authn, AddCartItem(d.Cart))
	v1.Patch("/cart/items/:id", authn, UpdateCartItem(d.Cart))
	v1.Delete("/cart/items/:id", authn, RemoveCartItem(d.Cart))
	v1.Post("/cart/sync", authn, SyncCart(d.Cart))

	v1.Post("/users/sync", authn, SyncUser(d.Users, d.Identities))
	v1.Get("/me", authn, GetMe(d.Users))

	v1.Get("/addresses", authn, ListAddresses(d.Addresses))
	v1.Post("/addresses", authn, CreateAddress(d.Addresses))
	v1.Put("/addresses/:id", authn, UpdateAddress(d.Addresses))
	v1.Delete("/addresses/:id", authn, DeleteAddress(d.Addresses))
	v1.Post("/addresses/:id/default", authn, SetDefaultAddress(d.Addresses))

	v1.Get("/orders", authn, ListMyOrders(d.Orders))
	v1.Get("/orders/:id", authn, GetMyOrder(d.Orders))

	v1.Post("/payments/initiate", authn, InitiatePayment(d.Payments))
	v1.Get("/payments/:id/status", authn, GetPaymentStatus(d.Payments))

	admin := v1.Group("/admin", authn, d.Auth.RequireAdmin())

	admin.Get("/products", AdminListProducts(d.Admin))
	admin.Post("/products", CreateProduct(d.Admin))
	admin.Get("/products/:id", AdminGetProduct(d.Admin))
	admin.Patch("/products/:id", UpdateProduct(d.Admin))
	admin.Delete("/products/:id", DeleteProduct(d.Admin))
	admin.Post("/products/:id/images", UploadProductImage(d.Admin))

	admin.Post("/categories", CreateCategory(d.Admin))
	admin.Put("/categories/:id", UpdateCategory(d.Admin))
	admin.Delete("/categories/:id", DeleteCategory(d.Admin))

	admin.Get("/orders", ListOrders(d.Orders))
	admin.Get("/orders/:id", GetOrder(d.Orders))
	admin.Patch("/orders/:id/status", UpdateOrderStatus(d.Orders))
	admin.Post("/orders/:id/resend-confirmation", ResendConfirmation(d.Notifications))

	admin.Get("/payments", ListPaymentSessions(d.Payments))
	admin.Post("/payments/recover", RecoverPayments(d.Payments))
	admin.Get("/payments/:id", GetPaymentSession(d.Payments))
	admin.Get("/payments/:id/logs", ListPaymentLogs(d.Payments))
	admin.Post("/payments/:id/reconcile", ReconcilePayment(d.Payments))

	admin.Get("/reviews", ListAllReviews(d.Reviews))
	admin.Delete("/reviews/:id", DeleteReview(d.Reviews))

	admin.Get("/users", ListUsers(d.Users))
	admin.Get("/stats", DashboardStats(d.Admin))
}

// swaggerUI serves the docs with the host and scheme the caller used.
func swaggerUI(c *fiber.Ctx) error {
	scheme := c.Protocol()
	if proto := c.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
	}
	docs.SwaggerInfo.Host = c.Get("Host")
	docs.SwaggerInfo.Schemes = []string{scheme}
	return swagger.HandlerDefault(c)
}
