package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/okelo-dev/sokowear-backend/api/controllers"
	"github.com/okelo-dev/sokowear-backend/api/routes"
	"github.com/okelo-dev/sokowear-backend/internal/auth"
	"github.com/okelo-dev/sokowear-backend/internal/cart"
	"github.com/okelo-dev/sokowear-backend/internal/checkout"
	"github.com/okelo-dev/sokowear-backend/internal/media"
	"github.com/okelo-dev/sokowear-backend/internal/orders"
	"github.com/okelo-dev/sokowear-backend/internal/payments"
	"github.com/okelo-dev/sokowear-backend/internal/products"
	"github.com/okelo-dev/sokowear-backend/internal/users"
	"github.com/okelo-dev/sokowear-backend/pkg/auth/session"
	"github.com/okelo-dev/sokowear-backend/pkg/config"
	"github.com/okelo-dev/sokowear-backend/pkg/db"
	"github.com/okelo-dev/sokowear-backend/pkg/logger"
	"github.com/okelo-dev/sokowear-backend/pkg/metrics"
	"github.com/okelo-dev/sokowear-backend/pkg/migrate"
	"github.com/okelo-dev/sokowear-backend/pkg/notify"
	"github.com/okelo-dev/sokowear-backend/pkg/redis"
	"github.com/okelo-dev/sokowear-backend/pkg/storage/gcs"
)

const (
	mediaUploadTTL  = 15 * time.Minute
	shutdownTimeout = 10 * time.Second
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

	redisClient, err := redis.New(context.Background(), cfg.Redis)
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
	productRepo := products.NewRepository(dbClient.DB())
	orderRepo := orders.NewRepository(dbClient.DB())
	paymentRepo := payments.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	productService, err := products.NewService(productRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(orderRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	paymentService, err := payments.NewService(paymentRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment service", err)
		os.Exit(1)
	}

	userService, err := users.NewService(userRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create user service", err)
		os.Exit(1)
	}

	cartManager := cart.NewManager()

	checkoutService, err := checkout.NewService(cartManager, orderRepo, paymentRepo, notify.NewLogSink(logg), cfg.Checkout)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	readyChecks := map[string]controllers.Pinger{
		"database": dbClient,
		"redis":    redisClient,
	}

	// Product image uploads stay off unless a bucket is configured, so local
	// setups do not need GCS credentials to run the store.
	var mediaService media.Service
	if cfg.GCS.BucketName != "" {
		gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap gcs", err)
			os.Exit(1)
		}
		mediaService, err = media.NewService(gcsClient, productService, cfg.GCS.BucketName, mediaUploadTTL, cfg.GCS.MaxUploadMB)
		if err != nil {
			logg.Error(context.Background(), "failed to create media service", err)
			os.Exit(1)
		}
		readyChecks["gcs"] = gcsClient
	}

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)

	router := routes.NewRouter(routes.Deps{
		Config:      cfg,
		Logger:      logg,
		Redis:       redisClient,
		Session:     sessionManager,
		HTTPMetrics: httpMetrics,
		Registry:    registry,
		ReadyChecks: readyChecks,
		Auth:        authService,
		Products:    productService,
		Carts:       cartManager,
		Checkout:    checkoutService,
		Orders:      orderService,
		Payments:    paymentService,
		Users:       userService,
		Media:       mediaService,
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
		Addr:    addr,
		Handler: router,
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		logg.Info(ctx, "shutdown signal received, draining connections")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
