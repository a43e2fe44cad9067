package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweetcrumb/bakeshop-backend/api/controllers"
	"github.com/sweetcrumb/bakeshop-backend/api/middleware"
	authsvc "github.com/sweetcrumb/bakeshop-backend/internal/auth"
	cartsvc "github.com/sweetcrumb/bakeshop-backend/internal/cart"
	checkoutsvc "github.com/sweetcrumb/bakeshop-backend/internal/checkout"
	ordersvc "github.com/sweetcrumb/bakeshop-backend/internal/orders"
	productsvc "github.com/sweetcrumb/bakeshop-backend/internal/products"
	recipesvc "github.com/sweetcrumb/bakeshop-backend/internal/recipes"
	"github.com/sweetcrumb/bakeshop-backend/pkg/auth/session"
	"github.com/sweetcrumb/bakeshop-backend/pkg/config"
	"github.com/sweetcrumb/bakeshop-backend/pkg/db"
	"github.com/sweetcrumb/bakeshop-backend/pkg/enums"
	"github.com/sweetcrumb/bakeshop-backend/pkg/logger"
	"github.com/sweetcrumb/bakeshop-backend/pkg/metrics"
	pkgredis "github.com/sweetcrumb/bakeshop-backend/pkg/redis"
)

// Deps carries everything the router wires together.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DBPinger    db.Pinger
	RedisClient *pkgredis.Client
	Sessions    session.AccessSessionChecker
	Metrics     *metrics.HTTPMetrics
	Registry    *prometheus.Registry

	Auth     authsvc.Service
	Products productsvc.Service
	Recipes  recipesvc.Service
	Cart     cartsvc.Service
	Checkout checkoutsvc.Service
	Orders   ordersvc.Service
}

// NewRouter builds the full HTTP surface.
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	var idemStore pkgredis.IdempotencyStore
	var rateStore interface {
		IncrWithTTL(context.Context, string, time.Duration) (int64, error)
	}
	if deps.RedisClient != nil {
		idemStore = deps.RedisClient
		rateStore = deps.RedisClient
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	signupPolicy := middleware.NewAuthRateLimitPolicy(
		"signup",
		cfg.AuthRateLimit.SignupWindow,
		cfg.AuthRateLimit.SignupIPLimit,
		cfg.AuthRateLimit.SignupEmailLimit,
	)

	readiness := []db.Pinger{deps.DBPinger}
	if deps.RedisClient != nil {
		readiness = append(readiness, deps.RedisClient)
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness...))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		// public surface
		r.Route("/auth", func(r chi.Router) {
			r.With(
				middleware.AuthRateLimit(signupPolicy, rateStore, logg),
				middleware.Idempotency(idemStore, logg),
			).Post("/signup", controllers.AuthSignup(deps.Auth, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, rateStore, logg)).
				Post("/login", controllers.AuthLogin(deps.Auth, logg))
			r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))
			r.Post("/logout", controllers.AuthLogout(deps.Auth, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(deps.Products, logg))
			r.Get("/{productId}", controllers.ProductDetail(deps.Products, logg))
		})

		r.Route("/recipes", func(r chi.Router) {
			r.Get("/search", controllers.RecipeSearch(deps.Recipes, logg))
			r.Get("/{recipeId}", controllers.RecipeDetail(deps.Recipes, logg))
		})

		// authenticated surface
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
			r.Use(middleware.Idempotency(idemStore, logg))

			r.Get("/auth/me", controllers.AuthMe(deps.Auth, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(deps.Cart, logg))
				r.Post("/items", controllers.CartUpsertItem(deps.Cart, logg))
				r.Delete("/items/{productId}", controllers.CartRemoveItem(deps.Cart, logg))
			})

			r.Post("/checkout", controllers.Checkout(deps.Checkout, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrderList(deps.Orders, logg))
				r.Get("/{orderId}", controllers.OrderDetail(deps.Orders, logg))
			})

			// admin surface
			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))

				r.Route("/products", func(r chi.Router) {
					r.Get("/", controllers.AdminProductList(deps.Products, logg))
					r.Post("/", controllers.AdminProductCreate(deps.Products, logg))
					r.Patch("/{productId}", controllers.AdminProductUpdate(deps.Products, logg))
				})

				r.Post("/recipes/{recipeId}/ingest", controllers.AdminRecipeIngest(deps.Recipes, logg))

				r.Route("/orders", func(r chi.Router) {
					r.Get("/", controllers.OrderList(deps.Orders, logg))
					r.Patch("/{orderId}/status", controllers.AdminOrderUpdateStatus(deps.Orders, logg))
				})
			})
		})
	})

	return r
}
