package alerts

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/agrimarket/inventory-engine/pkg/db/models"
	"github.com/agrimarket/inventory-engine/pkg/enums"
	apperrors "github.com/agrimarket/inventory-engine/pkg/errors"
	"github.com/agrimarket/inventory-engine/pkg/outbox"
	"github.com/agrimarket/inventory-engine/pkg/pagination"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:alerts_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.LowStockAlert{}, &models.OutboxEvent{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), outbox.NewService(outbox.NewRepository(db), nil), nil, nil)
	if err != nil {
		t.Fatalf("alert service: %v", err)
	}
	return svc
}

func entryWith(available, reserved, threshold int) *models.StockLedgerEntry {
	return &models.StockLedgerEntry{
		ProductID:           uuid.New(),
		SellerID:            uuid.New(),
		SKU:                 "KALE-1KG",
		CurrentStock:        available + reserved,
		ReservedStock:       reserved,
		MinimumThreshold:    threshold,
		AlertFrequencyHours: 24,
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		available int
		threshold int
		want      enums.AlertType
		triggered bool
	}{
		{"above threshold", 15, 10, "", false},
		{"at threshold", 10, 10, "", false},
		{"below threshold", 9, 10, enums.AlertTypeLowStock, true},
		{"at half threshold", 5, 10, enums.AlertTypeCritical, true},
		{"below half threshold", 3, 10, enums.AlertTypeCritical, true},
		{"zero available", 0, 10, enums.AlertTypeOutOfStock, true},
		{"negative available", -1, 10, enums.AlertTypeOutOfStock, true},
		{"zero threshold never alerts", 0, 0, "", false},
	}
	for _, tc := range cases {
		got, triggered := Classify(tc.available, tc.threshold)
		if got != tc.want || triggered != tc.triggered {
			t.Fatalf("%s: got (%s, %v), want (%s, %v)", tc.name, got, triggered, tc.want, tc.triggered)
		}
	}
}

func TestEvaluateRaisesFirstAlert(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	entry := entryWith(4, 2, 10)

	if err := db.Transaction(func(tx *gorm.DB) error {
		return svc.EvaluateTx(ctx, tx, entry, time.Now())
	}); err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	var alert models.LowStockAlert
	if err := db.First(&alert, "product_id = ?", entry.ProductID).Error; err != nil {
		t.Fatalf("load alert: %v", err)
	}
	if alert.Type != enums.AlertTypeCritical {
		t.Fatalf("expected critical, got %s", alert.Type)
	}
	if alert.AvailableStock != 4 || alert.ReservedStock != 2 || alert.Threshold != 10 {
		t.Fatalf("unexpected snapshot: %+v", alert)
	}
	if alert.Acknowledged {
		t.Fatal("new alerts start unacknowledged")
	}

	var event models.OutboxEvent
	if err := db.First(&event, "event_type = ?", enums.EventAlertRaised).Error; err != nil {
		t.Fatalf("load outbox event: %v", err)
	}
	if event.AggregateID != alert.ID {
		t.Fatalf("event aggregate %s does not match alert %s", event.AggregateID, alert.ID)
	}
}

func TestEvaluateAboveThresholdWritesNothing(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	entry := entryWith(20, 0, 10)

	if err := db.Transaction(func(tx *gorm.DB) error {
		return svc.EvaluateTx(ctx, tx, entry, time.Now())
	}); err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	var count int64
	if err := db.Model(&models.LowStockAlert{}).Count(&count).Error; err != nil {
		t.Fatalf("count alerts: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no alerts, got %d", count)
	}
}

func TestEvaluateRefreshesOpenAlertInCooldown(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	entry := entryWith(9, 0, 10)
	now := time.Now()

	if err := db.Transaction(func(tx *gorm.DB) error {
		return svc.EvaluateTx(ctx, tx, entry, now)
	}); err != nil {
		t.Fatalf("first evaluate: %v", err)
	}

	// Stock keeps draining inside the cooldown window.
	entry.CurrentStock = 3
	later := now.Add(time.Hour)
	if err := db.Transaction(func(tx *gorm.DB) error {
		return svc.EvaluateTx(ctx, tx, entry, later)
	}); err != nil {
		t.Fatalf("second evaluate: %v", err)
	}

	var alerts []models.LowStockAlert
	if err := db.Where("product_id = ?", entry.ProductID).Find(&alerts).Error; err != nil {
		t.Fatalf("load alerts: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("expected the open alert to refresh in place, got %d rows", len(alerts))
	}
	if alerts[0].Type != enums.AlertTypeCritical || alerts[0].AvailableStock != 3 {
		t.Fatalf("refresh did not update snapshot: %+v", alerts[0])
	}

	// The escalation publishes a refreshed event alongside the original.
	var refreshed int64
	if err := db.Model(&models.OutboxEvent{}).Where("event_type = ?", enums.EventAlertRefreshed).Count(&refreshed).Error; err != nil {
		t.Fatalf("count refreshed events: %v", err)
	}
	if refreshed != 1 {
		t.Fatalf("expected 1 refreshed event, got %d", refreshed)
	}
}

func TestEvaluateSuppressesAcknowledgedAlertInCooldown(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	entry := entryWith(9, 0, 10)
	now := time.Now()

	if err := db.Transaction(func(tx *gorm.DB) error {
		return svc.EvaluateTx(ctx, tx, entry, now)
	}); err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	var alert models.LowStockAlert
	if err := db.First(&alert, "product_id = ?", entry.ProductID).Error; err != nil {
		t.Fatalf("load alert: %v", err)
	}
	if _, err := svc.Acknowledge(ctx, alert.ID, uuid.New()); err != nil {
		t.Fatalf("acknowledge: %v", err)
	}

	// Crossing the threshold again inside the window must not spawn a
	// second row.
	entry.CurrentStock = 2
	if err := db.Transaction(func(tx *gorm.DB) error {
		return svc.EvaluateTx(ctx, tx, entry, now.Add(2*time.Hour))
	}); err != nil {
		t.Fatalf("re-evaluate: %v", err)
	}

	var count int64
	if err := db.Model(&models.LowStockAlert{}).Where("product_id = ?", entry.ProductID).Count(&count).Error; err != nil {
		t.Fatalf("count alerts: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected suppression, got %d rows", count)
	}
}

func TestEvaluateRaisesAgainAfterCooldown(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	entry := entryWith(9, 0, 10)
	now := time.Now()

	if err := db.Transaction(func(tx *gorm.DB) error {
		return svc.EvaluateTx(ctx, tx, entry, now)
	}); err != nil {
		t.Fatalf("first evaluate: %v", err)
	}

	afterCooldown := now.Add(25 * time.Hour)
	if err := db.Transaction(func(tx *gorm.DB) error {
		return svc.EvaluateTx(ctx, tx, entry, afterCooldown)
	}); err != nil {
		t.Fatalf("second evaluate: %v", err)
	}

	var count int64
	if err := db.Model(&models.LowStockAlert{}).Where("product_id = ?", entry.ProductID).Count(&count).Error; err != nil {
		t.Fatalf("count alerts: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected a fresh alert after the cooldown, got %d rows", count)
	}
}

func TestAcknowledge(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	entry := entryWith(9, 0, 10)

	if err := db.Transaction(func(tx *gorm.DB) error {
		return svc.EvaluateTx(ctx, tx, entry, time.Now())
	}); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	var alert models.LowStockAlert
	if err := db.First(&alert, "product_id = ?", entry.ProductID).Error; err != nil {
		t.Fatalf("load alert: %v", err)
	}

	userID := uuid.New()
	acked, err := svc.Acknowledge(ctx, alert.ID, userID)
	if err != nil {
		t.Fatalf("acknowledge: %v", err)
	}
	if !acked.Acknowledged || acked.AcknowledgedBy == nil || *acked.AcknowledgedBy != userID {
		t.Fatalf("unexpected ack state: %+v", acked)
	}

	_, err = svc.Acknowledge(ctx, alert.ID, userID)
	if typed := apperrors.As(err); typed == nil || typed.Code() != apperrors.CodeStateConflict {
		t.Fatalf("expected state conflict on double ack, got %v", err)
	}

	_, err = svc.Acknowledge(ctx, uuid.New(), userID)
	if typed := apperrors.As(err); typed == nil || typed.Code() != apperrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListBySellerFiltersOpen(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	sellerID := uuid.New()
	now := time.Now()

	for i, acked := range []bool{false, true, false} {
		alert := models.LowStockAlert{
			ID:              uuid.New(),
			ProductID:       uuid.New(),
			SellerID:        sellerID,
			Type:            enums.AlertTypeLowStock,
			AvailableStock:  i,
			Threshold:       10,
			Acknowledged:    acked,
			LastTriggeredAt: now,
		}
		if err := db.Create(&alert).Error; err != nil {
			t.Fatalf("seed alert: %v", err)
		}
	}

	open, err := svc.ListBySeller(ctx, sellerID, true, pagination.Params{Limit: 10})
	if err != nil {
		t.Fatalf("list open: %v", err)
	}
	if len(open) != 2 {
		t.Fatalf("expected 2 open alerts, got %d", len(open))
	}

	all, err := svc.ListBySeller(ctx, sellerID, false, pagination.Params{Limit: 10})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 alerts, got %d", len(all))
	}
}
