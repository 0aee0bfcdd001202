package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/agrimarket/inventory-engine/internal/alerts"
	"github.com/agrimarket/inventory-engine/internal/audit"
	"github.com/agrimarket/inventory-engine/internal/forecast"
	"github.com/agrimarket/inventory-engine/internal/inventory"
	"github.com/agrimarket/inventory-engine/internal/inventory/reservation"
	"github.com/agrimarket/inventory-engine/internal/notifications"
	"github.com/agrimarket/inventory-engine/pkg/config"
	"github.com/agrimarket/inventory-engine/pkg/db/models"
	"github.com/agrimarket/inventory-engine/pkg/outbox"
	"github.com/agrimarket/inventory-engine/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type gormRunner struct {
	db *gorm.DB
}

func (r gormRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	dsn := "file:routes_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.StockLedgerEntry{},
		&models.StockTransaction{},
		&models.StockReservation{},
		&models.LowStockAlert{},
		&models.InventoryAuditLog{},
		&models.InventoryForecast{},
		&models.Notification{},
		&models.OutboxEvent{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	runner := gormRunner{db: db}
	outboxSvc := outbox.NewService(outbox.NewRepository(db), nil)

	alertSvc, err := alerts.NewService(alerts.NewRepository(db), outboxSvc, nil, nil)
	if err != nil {
		t.Fatalf("alert service: %v", err)
	}
	auditSvc, err := audit.NewService(audit.NewRepository(db))
	if err != nil {
		t.Fatalf("audit service: %v", err)
	}
	inventorySvc, err := inventory.NewService(inventory.Deps{
		Tx:     runner,
		Repo:   inventory.NewRepository(db),
		Alerts: alertSvc,
		Audit:  auditSvc,
		Outbox: outboxSvc,
		Config: config.InventoryConfig{ConflictRetries: 3, ReservationTTL: time.Hour},
	})
	if err != nil {
		t.Fatalf("inventory service: %v", err)
	}
	reservationSvc, err := reservation.NewService(reservation.Deps{
		Tx:        runner,
		Repo:      reservation.NewRepository(db),
		Inventory: inventory.NewRepository(db),
		Alerts:    alertSvc,
		Outbox:    outboxSvc,
		Config:    config.InventoryConfig{ConflictRetries: 3, ReservationTTL: time.Hour},
	})
	if err != nil {
		t.Fatalf("reservation service: %v", err)
	}
	forecastSvc, err := forecast.NewService(forecast.Deps{
		Tx:        runner,
		Repo:      forecast.NewRepository(db),
		Inventory: inventory.NewRepository(db),
		Config:    config.ForecastConfig{WindowDays: 30, HorizonDays: 14},
	})
	if err != nil {
		t.Fatalf("forecast service: %v", err)
	}
	notificationsSvc, err := notifications.NewService(notifications.NewRepository(db))
	if err != nil {
		t.Fatalf("notifications service: %v", err)
	}

	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	return NewRouter(
		cfg,
		nil,
		stubPinger{},
		(*redis.Client)(nil),
		nil,
		inventorySvc,
		reservationSvc,
		alertSvc,
		forecastSvc,
		notificationsSvc,
		auditSvc,
	)
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
	}
	return envelope.Data
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/health/live", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("live returned %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodGet, "/health/ready", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("ready returned %d", rec.Code)
	}
}

func TestInventoryLifecycleOverHTTP(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	productID := uuid.New()
	sellerID := uuid.New()

	rec := doJSON(t, router, http.MethodPost, "/api/v1/inventory", map[string]any{
		"product_id":        productID.String(),
		"seller_id":         sellerID.String(),
		"sku":               "CARROT-5KG",
		"initial_stock":     20,
		"minimum_threshold": 5,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("initialize returned %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/inventory/%s/adjust", productID), map[string]any{
		"delta": 10,
		"type":  "restock",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("adjust returned %d: %s", rec.Code, rec.Body.String())
	}
	data := decodeData(t, rec)
	if got := data["current_stock"].(float64); got != 30 {
		t.Fatalf("expected stock 30 after restock, got %v", got)
	}

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/inventory/%s", productID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get returned %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/inventory/%s/verify", productID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("verify returned %d", rec.Code)
	}
	data = decodeData(t, rec)
	if consistent := data["consistent"].(bool); !consistent {
		t.Fatalf("ledger should fold consistently: %v", data)
	}

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/sellers/%s/inventory", sellerID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("seller list returned %d", rec.Code)
	}
}

func TestReservationFlowOverHTTP(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	productID := uuid.New()
	sellerID := uuid.New()
	orderID := uuid.New()

	rec := doJSON(t, router, http.MethodPost, "/api/v1/inventory", map[string]any{
		"product_id":    productID.String(),
		"seller_id":     sellerID.String(),
		"sku":           "APPLE-CRATE",
		"initial_stock": 10,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("initialize returned %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, "/api/v1/reservations", map[string]any{
		"product_id": productID.String(),
		"order_id":   orderID.String(),
		"quantity":   4,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("reserve returned %d: %s", rec.Code, rec.Body.String())
	}
	reservationID := decodeData(t, rec)["id"].(string)

	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/reservations/%s/commit", reservationID), map[string]any{
		"actual_quantity": 4,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("commit returned %d: %s", rec.Code, rec.Body.String())
	}
	if status := decodeData(t, rec)["status"].(string); status != "committed" {
		t.Fatalf("expected committed status, got %s", status)
	}

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/orders/%s/reservations", orderID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("order reservations returned %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/v1/reservations", map[string]any{
		"product_id": productID.String(),
		"order_id":   uuid.New().String(),
		"quantity":   50,
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("oversized reserve should conflict, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestValidationErrorsOverHTTP(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/inventory", map[string]any{
		"product_id": "not-a-uuid",
		"seller_id":  uuid.New().String(),
		"sku":        "X",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad product id, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/v1/inventory/not-a-uuid", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad path id, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/inventory/%s", uuid.New()), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown product, got %d", rec.Code)
	}
}
