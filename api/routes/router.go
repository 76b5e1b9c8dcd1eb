package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okelo-dev/sokowear-backend/api/controllers"
	"github.com/okelo-dev/sokowear-backend/api/middleware"
	authsvc "github.com/okelo-dev/sokowear-backend/internal/auth"
	"github.com/okelo-dev/sokowear-backend/internal/cart"
	checkoutsvc "github.com/okelo-dev/sokowear-backend/internal/checkout"
	mediasvc "github.com/okelo-dev/sokowear-backend/internal/media"
	ordersvc "github.com/okelo-dev/sokowear-backend/internal/orders"
	paymentsvc "github.com/okelo-dev/sokowear-backend/internal/payments"
	productsvc "github.com/okelo-dev/sokowear-backend/internal/products"
	usersvc "github.com/okelo-dev/sokowear-backend/internal/users"
	"github.com/okelo-dev/sokowear-backend/pkg/auth/session"
	"github.com/okelo-dev/sokowear-backend/pkg/config"
	"github.com/okelo-dev/sokowear-backend/pkg/enums"
	"github.com/okelo-dev/sokowear-backend/pkg/logger"
	"github.com/okelo-dev/sokowear-backend/pkg/metrics"
	"github.com/okelo-dev/sokowear-backend/pkg/redis"
)

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	Redis       *redis.Client
	Session     session.AccessSessionChecker
	HTTPMetrics *metrics.HTTPMetrics
	Registry    prometheus.Gatherer

	ReadyChecks map[string]controllers.Pinger

	Auth     authsvc.Service
	Products productsvc.Service
	Carts    *cart.Manager
	Checkout checkoutsvc.Service
	Orders   ordersvc.Service
	Payments paymentsvc.Service
	Users    usersvc.Service
	Media    mediasvc.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(cfg.CORS),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.ReadyChecks))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)).Post("/register", controllers.AuthRegister(deps.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ListProducts(deps.Products, logg))
		r.Get("/{productId}", controllers.GetProduct(deps.Products, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Session, logg))

		r.Post("/auth/logout", controllers.AuthLogout(deps.Auth, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.GetCart(deps.Carts, logg))
			r.Post("/items", controllers.CartAddItem(deps.Carts, deps.Products, logg))
			r.Patch("/items/{productId}", controllers.CartUpdateQuantity(deps.Carts, logg))
			r.Delete("/items/{productId}", controllers.CartRemoveItem(deps.Carts, logg))
			r.Delete("/", controllers.CartClear(deps.Carts, logg))
		})

		r.Post("/checkout", controllers.PlaceOrder(deps.Checkout, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListMyOrders(deps.Orders, logg))
			r.Get("/{orderId}", controllers.GetOrder(deps.Orders, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))

			r.Route("/products", func(r chi.Router) {
				r.Post("/", controllers.AdminCreateProduct(deps.Products, logg))
				r.Patch("/{productId}", controllers.AdminUpdateProduct(deps.Products, logg))
				r.Delete("/{productId}", controllers.AdminDeleteProduct(deps.Products, logg))
				if deps.Media != nil {
					r.Post("/{productId}/image/presign", controllers.AdminPresignProductImage(deps.Media, logg))
					r.Post("/{productId}/image/attach", controllers.AdminAttachProductImage(deps.Media, logg))
				}
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminListOrders(deps.Orders, logg))
				r.Patch("/{orderId}/status", controllers.AdminUpdateOrderStatus(deps.Orders, logg))
			})

			r.Route("/payments", func(r chi.Router) {
				r.Get("/", controllers.AdminListPayments(deps.Payments, logg))
				r.Post("/{paymentId}/confirm", controllers.AdminConfirmPayment(deps.Payments, logg))
				r.Post("/{paymentId}/reject", controllers.AdminRejectPayment(deps.Payments, logg))
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/", controllers.AdminListUsers(deps.Users, logg))
				r.Patch("/{userId}/role", controllers.AdminSetUserRole(deps.Users, logg))
				r.Delete("/{userId}", controllers.AdminDeleteUser(deps.Users, logg))
			})
		})
	})

	return r
}
