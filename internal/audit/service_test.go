package audit

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/agrimarket/inventory-engine/pkg/db/models"
	"github.com/agrimarket/inventory-engine/pkg/enums"
	apperrors "github.com/agrimarket/inventory-engine/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:audit_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.InventoryAuditLog{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestRecordTxWritesEntry(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	ctx := context.Background()
	productID := uuid.New()
	userID := uuid.New()
	reason := "cycle count correction"

	err = db.Transaction(func(tx *gorm.DB) error {
		_, terr := svc.RecordTx(ctx, tx, RecordEntryInput{
			ProductID: productID,
			UserID:    userID,
			Action:    enums.AuditActionStockAdjusted,
			OldValue:  "12",
			NewValue:  "9",
			Reason:    &reason,
		})
		return terr
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	var entry models.InventoryAuditLog
	if err := db.First(&entry, "product_id = ?", productID).Error; err != nil {
		t.Fatalf("load entry: %v", err)
	}
	if entry.UserID != userID || entry.OldValue != "12" || entry.NewValue != "9" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if entry.Reason == nil || *entry.Reason != reason {
		t.Fatalf("reason not persisted: %+v", entry)
	}
}

func TestRecordTxValidates(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	ctx := context.Background()

	cases := []struct {
		name  string
		input RecordEntryInput
	}{
		{"missing product", RecordEntryInput{UserID: uuid.New(), Action: enums.AuditActionRetire}},
		{"missing user", RecordEntryInput{ProductID: uuid.New(), Action: enums.AuditActionRetire}},
		{"bad action", RecordEntryInput{ProductID: uuid.New(), UserID: uuid.New(), Action: "bogus"}},
	}
	for _, tc := range cases {
		err := db.Transaction(func(tx *gorm.DB) error {
			_, terr := svc.RecordTx(ctx, tx, tc.input)
			return terr
		})
		if typed := apperrors.As(err); typed == nil || typed.Code() != apperrors.CodeValidation {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestListByProductOrdersNewestFirst(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	ctx := context.Background()
	productID := uuid.New()
	userID := uuid.New()

	for _, values := range [][2]string{{"0", "10"}, {"10", "8"}, {"8", "5"}} {
		err := db.Transaction(func(tx *gorm.DB) error {
			_, terr := svc.RecordTx(ctx, tx, RecordEntryInput{
				ProductID: productID,
				UserID:    userID,
				Action:    enums.AuditActionStockAdjusted,
				OldValue:  values[0],
				NewValue:  values[1],
			})
			return terr
		})
		if err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	entries, err := svc.ListByProduct(ctx, productID, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
}
