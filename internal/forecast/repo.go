package forecast

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agrimarket/inventory-engine/pkg/db/models"
)

// Repository persists forecast projections.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Replace(ctx context.Context, productID uuid.UUID, from time.Time, rows []models.InventoryForecast) error
	ListByProduct(ctx context.Context, productID uuid.UUID, from, to time.Time) ([]models.InventoryForecast, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a forecast repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Replace supersedes the product's projections from the given date onward
// with a fresh run. Deletion and insert share the caller's transaction.
func (r *repository) Replace(ctx context.Context, productID uuid.UUID, from time.Time, rows []models.InventoryForecast) error {
	query := r.db.WithContext(ctx)
	if err := query.
		Where("product_id = ? AND forecast_date >= ?", productID, from).
		Delete(&models.InventoryForecast{}).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return query.Create(&rows).Error
}

func (r *repository) ListByProduct(ctx context.Context, productID uuid.UUID, from, to time.Time) ([]models.InventoryForecast, error) {
	query := r.db.WithContext(ctx).Where("product_id = ?", productID)
	if !from.IsZero() {
		query = query.Where("forecast_date >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("forecast_date < ?", to)
	}
	var rows []models.InventoryForecast
	err := query.Order("forecast_date ASC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
