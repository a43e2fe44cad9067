package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sweetcrumb/bakeshop-backend/api/routes"
	authsvc "github.com/sweetcrumb/bakeshop-backend/internal/auth"
	cartsvc "github.com/sweetcrumb/bakeshop-backend/internal/cart"
	checkoutsvc "github.com/sweetcrumb/bakeshop-backend/internal/checkout"
	ordersvc "github.com/sweetcrumb/bakeshop-backend/internal/orders"
	productsvc "github.com/sweetcrumb/bakeshop-backend/internal/products"
	recipesvc "github.com/sweetcrumb/bakeshop-backend/internal/recipes"
	"github.com/sweetcrumb/bakeshop-backend/internal/users"
	"github.com/sweetcrumb/bakeshop-backend/pkg/auth/session"
	"github.com/sweetcrumb/bakeshop-backend/pkg/config"
	"github.com/sweetcrumb/bakeshop-backend/pkg/db"
	"github.com/sweetcrumb/bakeshop-backend/pkg/logger"
	"github.com/sweetcrumb/bakeshop-backend/pkg/metrics"
	"github.com/sweetcrumb/bakeshop-backend/pkg/migrate"
	"github.com/sweetcrumb/bakeshop-backend/pkg/redis"
	"github.com/sweetcrumb/bakeshop-backend/pkg/spoonacular"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	userRepo := users.NewRepository(dbClient.DB())
	productRepo := productsvc.NewRepository(dbClient.DB())
	cartRepo := cartsvc.NewRepository(dbClient.DB())
	orderRepo := ordersvc.NewRepository(dbClient.DB())

	authService, err := authsvc.NewService(userRepo, sessionManager, cfg.JWT, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	productService, err := productsvc.NewService(productRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	spoonClient, err := spoonacular.NewClient(cfg.Spoonacular.APIKey,
		spoonacular.WithBaseURL(cfg.Spoonacular.BaseURL),
		spoonacular.WithHTTPClient(&http.Client{Timeout: cfg.Spoonacular.Timeout}),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create recipe client", err)
		os.Exit(1)
	}

	recipeService, err := recipesvc.NewService(spoonClient, productRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create recipe service", err)
		os.Exit(1)
	}

	cartService, err := cartsvc.NewService(cartRepo, productRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(dbClient, cartRepo, orderRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	orderService, err := ordersvc.NewService(orderRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)

	handler := routes.NewRouter(routes.Deps{
		Config:      cfg,
		Logger:      logg,
		DBPinger:    dbClient,
		RedisClient: redisClient,
		Sessions:    sessionManager,
		Metrics:     httpMetrics,
		Registry:    registry,
		Auth:        authService,
		Products:    productService,
		Recipes:     recipeService,
		Cart:        cartService,
		Checkout:    checkoutService,
		Orders:      orderService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	errs := make(chan error, 1)
	go func() {
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-shutdown:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
