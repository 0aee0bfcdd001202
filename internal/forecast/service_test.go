package forecast

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/agrimarket/inventory-engine/internal/inventory"
	"github.com/agrimarket/inventory-engine/pkg/config"
	"github.com/agrimarket/inventory-engine/pkg/db/models"
	"github.com/agrimarket/inventory-engine/pkg/enums"
)

type gormRunner struct {
	db *gorm.DB
}

func (r gormRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type fixture struct {
	db      *gorm.DB
	svc     Service
	product uuid.UUID
}

func newFixture(t *testing.T, availableStock int, method enums.ForecastMethod) *fixture {
	t.Helper()
	dsn := "file:forecast_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.StockLedgerEntry{},
		&models.StockTransaction{},
		&models.InventoryForecast{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	f := &fixture{db: db, product: uuid.New()}
	entry := models.StockLedgerEntry{
		ProductID:           f.product,
		SellerID:            uuid.New(),
		SKU:                 "HONEY-500G",
		CurrentStock:        availableStock,
		AlertFrequencyHours: 24,
		ForecastMethod:      method,
	}
	if err := db.Create(&entry).Error; err != nil {
		t.Fatalf("seed ledger: %v", err)
	}

	svc, err := NewService(Deps{
		Tx:        gormRunner{db: db},
		Repo:      NewRepository(db),
		Inventory: inventory.NewRepository(db),
		Config:    config.ForecastConfig{WindowDays: 30, HorizonDays: 7},
	})
	if err != nil {
		t.Fatalf("forecast service: %v", err)
	}
	f.svc = svc
	return f
}

// seedSales writes one sale of qty units per day for the trailing days.
func (f *fixture) seedSales(t *testing.T, qtyPerDay, days int, now time.Time) {
	t.Helper()
	for i := 1; i <= days; i++ {
		record := models.StockTransaction{
			ID:        uuid.New(),
			ProductID: f.product,
			Type:      enums.TransactionTypeSale,
			Quantity:  -qtyPerDay,
			CreatedAt: now.AddDate(0, 0, -i),
		}
		if err := f.db.Create(&record).Error; err != nil {
			t.Fatalf("seed sale: %v", err)
		}
	}
}

func TestGenerateMovingAverageProjectsDepletion(t *testing.T) {
	t.Parallel()

	now := time.Now()
	f := newFixture(t, 100, enums.ForecastMethodMovingAverage)
	// 2 units a day for the full 30-day window.
	f.seedSales(t, 2, 30, now)

	written, err := f.svc.GenerateForProduct(context.Background(), f.product, now)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if written != 7 {
		t.Fatalf("expected 7 rows, got %d", written)
	}

	rows, err := f.svc.ListByProduct(context.Background(), f.product, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 7 {
		t.Fatalf("expected 7 rows, got %d", len(rows))
	}

	two := decimal.NewFromInt(2)
	if !rows[0].ProjectedSales.Equal(two) {
		t.Fatalf("expected 2 projected daily sales, got %s", rows[0].ProjectedSales)
	}
	// 100 on hand minus 2 a day leaves 86 after the 7-day horizon.
	if !rows[6].ProjectedStock.Equal(decimal.NewFromInt(86)) {
		t.Fatalf("expected 86 remaining, got %s", rows[6].ProjectedStock)
	}
	// Dates ascend from tomorrow.
	if !rows[0].ForecastDate.Before(rows[6].ForecastDate) {
		t.Fatalf("rows out of order")
	}

	// Steady full-window velocity earns high confidence.
	if rows[0].Confidence.LessThan(decimal.NewFromInt(90)) {
		t.Fatalf("expected high confidence, got %s", rows[0].Confidence)
	}
}

func TestGenerateZeroHistoryWritesNothing(t *testing.T) {
	t.Parallel()

	now := time.Now()
	f := newFixture(t, 50, enums.ForecastMethodMovingAverage)

	written, err := f.svc.GenerateForProduct(context.Background(), f.product, now)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if written != 0 {
		t.Fatalf("expected no rows without history, got %d", written)
	}

	var count int64
	if err := f.db.Model(&models.InventoryForecast{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty table, got %d", count)
	}
}

func TestGenerateSparseHistoryCapsConfidence(t *testing.T) {
	t.Parallel()

	now := time.Now()
	f := newFixture(t, 50, enums.ForecastMethodMovingAverage)
	// Only three sale days in the window.
	f.seedSales(t, 5, 3, now)

	if _, err := f.svc.GenerateForProduct(context.Background(), f.product, now); err != nil {
		t.Fatalf("generate: %v", err)
	}
	rows, err := f.svc.ListByProduct(context.Background(), f.product, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) == 0 {
		t.Fatal("expected rows")
	}
	if rows[0].Confidence.GreaterThan(decimal.NewFromInt(30)) {
		t.Fatalf("sparse history must cap confidence, got %s", rows[0].Confidence)
	}
}

func TestGenerateSupersedesPriorRun(t *testing.T) {
	t.Parallel()

	now := time.Now()
	f := newFixture(t, 100, enums.ForecastMethodMovingAverage)
	f.seedSales(t, 2, 30, now)

	if _, err := f.svc.GenerateForProduct(context.Background(), f.product, now); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, err := f.svc.GenerateForProduct(context.Background(), f.product, now); err != nil {
		t.Fatalf("second run: %v", err)
	}

	var count int64
	if err := f.db.Model(&models.InventoryForecast{}).Where("product_id = ?", f.product).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 7 {
		t.Fatalf("second run must replace the first, got %d rows", count)
	}
}

func TestGenerateTrendFollowsSlope(t *testing.T) {
	t.Parallel()

	now := time.Now()
	f := newFixture(t, 1000, enums.ForecastMethodTrend)
	// Velocity ramps up: older days sold less than recent days.
	for i := 1; i <= 30; i++ {
		qty := 31 - i // yesterday sold 30, thirty days ago sold 1
		record := models.StockTransaction{
			ID:        uuid.New(),
			ProductID: f.product,
			Type:      enums.TransactionTypeSale,
			Quantity:  -qty,
			CreatedAt: now.AddDate(0, 0, -i),
		}
		if err := f.db.Create(&record).Error; err != nil {
			t.Fatalf("seed sale: %v", err)
		}
	}

	if _, err := f.svc.GenerateForProduct(context.Background(), f.product, now); err != nil {
		t.Fatalf("generate: %v", err)
	}
	rows, err := f.svc.ListByProduct(context.Background(), f.product, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 7 {
		t.Fatalf("expected 7 rows, got %d", len(rows))
	}
	// An upward trend projects above the 15.5 window mean.
	if rows[0].ProjectedSales.LessThanOrEqual(decimal.NewFromFloat(15.5)) {
		t.Fatalf("trend projection should exceed window mean, got %s", rows[0].ProjectedSales)
	}
	if rows[6].ProjectedSales.LessThan(rows[0].ProjectedSales) {
		t.Fatalf("upward trend must not decay: %s then %s", rows[0].ProjectedSales, rows[6].ProjectedSales)
	}
}

func TestGenerateAllSkipsFailures(t *testing.T) {
	t.Parallel()

	now := time.Now()
	f := newFixture(t, 100, enums.ForecastMethodMovingAverage)
	f.seedSales(t, 2, 30, now)

	// A second product with no history: silently contributes zero rows.
	other := models.StockLedgerEntry{
		ProductID:           uuid.New(),
		SellerID:            uuid.New(),
		SKU:                 "EGGS-DOZEN",
		CurrentStock:        10,
		AlertFrequencyHours: 24,
		ForecastMethod:      enums.ForecastMethodMovingAverage,
	}
	if err := f.db.Create(&other).Error; err != nil {
		t.Fatalf("seed other: %v", err)
	}

	written, err := f.svc.GenerateAll(context.Background(), now)
	if err != nil {
		t.Fatalf("generate all: %v", err)
	}
	if written != 7 {
		t.Fatalf("expected 7 rows total, got %d", written)
	}
}
