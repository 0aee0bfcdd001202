package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/agrimarket/inventory-engine/internal/alerts"
	"github.com/agrimarket/inventory-engine/internal/cron"
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

const lockKeyFormat = "am:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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
	outboxRepo := outbox.NewRepository(dbClient.DB())
	outboxService := outbox.NewService(outboxRepo, logg)

	alertService, err := alerts.NewService(alerts.NewRepository(dbClient.DB()), outboxService, logg, inventoryMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create alert service", err)
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

	reservationTTLJob, err := cron.NewReservationTTLJob(cron.ReservationTTLJobParams{
		Logger:       logg,
		Reservations: reservationService,
		BatchSize:    cfg.Cron.ExpiryBatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reservation ttl job", err)
		os.Exit(1)
	}

	forecastJob, err := cron.NewForecastJob(cron.ForecastJobParams{
		Logger:   logg,
		Forecast: forecastService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create forecast job", err)
		os.Exit(1)
	}

	outboxRetentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		Repository: outboxRepo,
		Retention:  cfg.Cron.OutboxRetentionDays,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox retention job", err)
		os.Exit(1)
	}

	notificationCleanupJob, err := cron.NewNotificationCleanupJob(cron.NotificationCleanupJobParams{
		Logger:     logg,
		Repository: notifications.NewRepository(dbClient.DB()),
		Retention:  cfg.Cron.NotificationRetentionDays,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notification cleanup job", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry(reservationTTLJob, forecastJob, outboxRetentionJob, notificationCleanupJob)
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
