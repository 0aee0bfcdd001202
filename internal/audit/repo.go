package audit

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agrimarket/inventory-engine/pkg/db/models"
)

// Repository manages persistence for audit log entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.InventoryAuditLog) error
	ListByProductID(ctx context.Context, productID uuid.UUID, limit int) ([]models.InventoryAuditLog, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an audit repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.InventoryAuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListByProductID(ctx context.Context, productID uuid.UUID, limit int) ([]models.InventoryAuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []models.InventoryAuditLog
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
