package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agrimarket/inventory-engine/api/controllers"
	"github.com/agrimarket/inventory-engine/api/middleware"
	"github.com/agrimarket/inventory-engine/internal/alerts"
	"github.com/agrimarket/inventory-engine/internal/audit"
	"github.com/agrimarket/inventory-engine/internal/forecast"
	"github.com/agrimarket/inventory-engine/internal/inventory"
	"github.com/agrimarket/inventory-engine/internal/inventory/reservation"
	"github.com/agrimarket/inventory-engine/internal/notifications"
	"github.com/agrimarket/inventory-engine/pkg/config"
	"github.com/agrimarket/inventory-engine/pkg/db"
	"github.com/agrimarket/inventory-engine/pkg/logger"
	"github.com/agrimarket/inventory-engine/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	gatherer prometheus.Gatherer,
	inventoryService inventory.Service,
	reservationService reservation.Service,
	alertService alerts.Service,
	forecastService forecast.Service,
	notificationsService notifications.Service,
	auditService audit.Service,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	var redisPinger redis.Pinger
	if redisClient != nil {
		redisPinger = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisPinger))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	// A typed nil would defeat the middleware's own nil check.
	var idempotencyStore redis.IdempotencyStore
	if redisClient != nil {
		idempotencyStore = redisClient
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.ActorContext(logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Route("/inventory", func(r chi.Router) {
			r.Post("/", controllers.InventoryInitialize(inventoryService, logg))
			r.Route("/{productId}", func(r chi.Router) {
				r.Get("/", controllers.InventoryGet(inventoryService, logg))
				r.Delete("/", controllers.InventoryRetire(inventoryService, logg))
				r.Post("/adjust", controllers.InventoryAdjust(inventoryService, logg))
				r.Put("/thresholds", controllers.InventoryThresholds(inventoryService, logg))
				r.Get("/transactions", controllers.InventoryTransactions(inventoryService, logg))
				r.Get("/verify", controllers.InventoryVerify(inventoryService, logg))
				r.Get("/audit", controllers.InventoryAuditTrail(auditService, logg))
				r.Get("/forecast", controllers.ForecastList(forecastService, logg))
				r.Post("/forecast/refresh", controllers.ForecastRefresh(forecastService, logg))
			})
		})

		r.Route("/reservations", func(r chi.Router) {
			r.Post("/", controllers.ReservationCreate(reservationService, logg))
			r.Route("/{reservationId}", func(r chi.Router) {
				r.Get("/", controllers.ReservationGet(reservationService, logg))
				r.Post("/release", controllers.ReservationRelease(reservationService, logg))
				r.Post("/commit", controllers.ReservationCommit(reservationService, logg))
			})
		})

		r.Route("/orders/{orderId}", func(r chi.Router) {
			r.Get("/reservations", controllers.ReservationsByOrder(reservationService, logg))
		})

		r.Route("/alerts/{alertId}", func(r chi.Router) {
			r.Post("/ack", controllers.AlertAcknowledge(alertService, logg))
		})

		r.Route("/sellers/{sellerId}", func(r chi.Router) {
			r.Get("/inventory", controllers.InventoryList(inventoryService, logg))
			r.Get("/alerts", controllers.AlertList(alertService, logg))
			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.ListNotifications(notificationsService, logg))
				r.Post("/{notificationId}/read", controllers.MarkNotificationRead(notificationsService, logg))
				r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationsService, logg))
			})
		})
	})

	return r
}
