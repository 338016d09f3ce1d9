package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/craftkart/craftkart-backend/api/routes"
	"github.com/craftkart/craftkart-backend/internal/events"
	"github.com/craftkart/craftkart-backend/internal/payments"
	"github.com/craftkart/craftkart-backend/internal/settings"
	"github.com/craftkart/craftkart-backend/internal/urlresolver"
	cashfreewebhook "github.com/craftkart/craftkart-backend/internal/webhooks/cashfree"
	"github.com/craftkart/craftkart-backend/pkg/cashfree"
	"github.com/craftkart/craftkart-backend/pkg/config"
	"github.com/craftkart/craftkart-backend/pkg/db"
	"github.com/craftkart/craftkart-backend/pkg/logger"
	"github.com/craftkart/craftkart-backend/pkg/metrics"
	"github.com/craftkart/craftkart-backend/pkg/migrate"
	"github.com/craftkart/craftkart-backend/pkg/redis"
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

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	gatewayMetrics := metrics.NewGatewayCallMetrics(registry)
	callbackMetrics := metrics.NewCallbackMetrics(registry)
	webhookMetrics := metrics.NewWebhookMetrics(registry)

	settingsService, err := settings.NewService(settings.NewRepository(dbClient.DB()), cfg.Cashfree, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create settings service", err)
		os.Exit(1)
	}

	gatewayClient, err := cashfree.NewClient(cfg.Cashfree, logg, gatewayMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create cashfree client", err)
		os.Exit(1)
	}

	eventsRepo := events.NewRepository(dbClient.DB())
	urls := urlresolver.New(cfg.URLs)

	builder, err := payments.NewBuilder(cfg.Payments)
	if err != nil {
		logg.Error(context.Background(), "failed to create payload builder", err)
		os.Exit(1)
	}

	reconciler := payments.NewReconciler(gatewayClient, settingsService, cfg.Payments, logg, callbackMetrics)
	paymentsService, err := payments.NewService(builder, gatewayClient, settingsService, urls, reconciler, eventsRepo, logg, callbackMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	webhookService, err := cashfreewebhook.NewService(cashfreewebhook.ServiceParams{
		Events:      eventsRepo,
		Gateway:     gatewayClient,
		Credentials: settingsService,
		Logger:      logg,
		Metrics:     webhookMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	webhookGuard, err := cashfreewebhook.NewIdempotencyGuard(redisClient, cfg.Eventing.WebhookIdempotencyTTL, "cashfree:webhook")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook idempotency guard", err)
		os.Exit(1)
	}

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
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			Registry:      registry,
			Payments:      paymentsService,
			Settings:      settingsService,
			Events:        eventsRepo,
			Webhooks:      webhookService,
			WebhookGuard:  webhookGuard,
			WebhookSecret: cfg.Cashfree.WebhookSecret,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
