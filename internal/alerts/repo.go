package alerts

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agrimarket/inventory-engine/pkg/db/models"
	"github.com/agrimarket/inventory-engine/pkg/pagination"
)

// Repository manages persistence for low stock alerts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, alert *models.LowStockAlert) error
	Save(ctx context.Context, alert *models.LowStockAlert) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.LowStockAlert, error)
	LatestByProductID(ctx context.Context, productID uuid.UUID) (*models.LowStockAlert, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID, onlyOpen bool, params pagination.Params) ([]models.LowStockAlert, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an alert repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, alert *models.LowStockAlert) error {
	return r.db.WithContext(ctx).Create(alert).Error
}

func (r *repository) Save(ctx context.Context, alert *models.LowStockAlert) error {
	return r.db.WithContext(ctx).Save(alert).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.LowStockAlert, error) {
	var alert models.LowStockAlert
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&alert).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &alert, nil
}

func (r *repository) LatestByProductID(ctx context.Context, productID uuid.UUID) (*models.LowStockAlert, error) {
	var alert models.LowStockAlert
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Order("id DESC").
		First(&alert).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &alert, nil
}

func (r *repository) ListBySeller(ctx context.Context, sellerID uuid.UUID, onlyOpen bool, params pagination.Params) ([]models.LowStockAlert, error) {
	query := r.db.WithContext(ctx).Where("seller_id = ?", sellerID)
	if onlyOpen {
		query = query.Where("acknowledged = ?", false)
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}
	var alerts []models.LowStockAlert
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&alerts).Error
	return alerts, err
}
