package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/agrimarket/inventory-engine/api/routes"
	"github.com/agrimarket/inventory-engine/internal/alerts"
	"github.com/agrimarket/inventory-engine/internal/audit"
	"github.com/agrimarket/inventory-engine/internal/forecast"
	"github.com/agrimarket/inventory-engine/internal/inventory"
	"github.com/agrimarket/inventory-engine/internal/inventory/reservation"
	"github.com/agrimarket/inventory-engine/internal/notifications"
	"github.com/agrimarket/inventory-engine/pkg/config"
	"github.com/agrimarket/inventory-engine/pkg/db"
	"github.com/agrimarket/inventory-engine/pkg/logger"
	"github.com/agrimarket/inventory-engine/pkg/metrics"
	"github.com/agrimarket/inventory-engine/pkg/migrate"
	"github.com/agrimarket/inventory-engine/pkg/outbox"
	"github.com/agrimarket/inventory-engine/pkg/redis"
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

	inventoryMetrics := metrics.NewInventoryMetrics(prometheus.DefaultRegisterer)

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	alertService, err := alerts.NewService(alerts.NewRepository(dbClient.DB()), outboxService, logg, inventoryMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create alert service", err)
		os.Exit(1)
	}

	auditService, err := audit.NewService(audit.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create audit service", err)
		os.Exit(1)
	}

	inventoryService, err := inventory.NewService(inventory.Deps{
		Tx:      dbClient,
		Repo:    inventory.NewRepository(dbClient.DB()),
		Alerts:  alertService,
		Audit:   auditService,
		Outbox:  outboxService,
		Logger:  logg,
		Metrics: inventoryMetrics,
		Config:  cfg.Inventory,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	reservationService, err := reservation.NewService(reservation.Deps{
		Tx:        dbClient,
		Repo:      reservation.NewRepository(dbClient.DB()),
		Inventory: inventory.NewRepository(dbClient.DB()),
		Alerts:    alertService,
		Outbox:    outboxService,
		Logger:    logg,
		Metrics:   inventoryMetrics,
		Config:    cfg.Inventory,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reservation service", err)
		os.Exit(1)
	}

	forecastService, err := forecast.NewService(forecast.Deps{
		Tx:        dbClient,
		Repo:      forecast.NewRepository(dbClient.DB()),
		Inventory: inventory.NewRepository(dbClient.DB()),
		Logger:    logg,
		Config:    cfg.Forecast,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create forecast service", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notifications.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			prometheus.DefaultGatherer,
			inventoryService,
			reservationService,
			alertService,
			forecastService,
			notificationsService,
			auditService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
