package reservation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/agrimarket/inventory-engine/pkg/db"
	"github.com/agrimarket/inventory-engine/pkg/db/models"
	"github.com/agrimarket/inventory-engine/pkg/enums"
)

// Repository persists stock reservations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, reservation *models.StockReservation) error
	Save(ctx context.Context, reservation *models.StockReservation) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.StockReservation, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.StockReservation, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*models.StockReservation, error)
	FindActiveExpiredBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.StockReservation, error)
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.StockReservation, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a reservation repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, reservation *models.StockReservation) error {
	return r.db.WithContext(ctx).Create(reservation).Error
}

func (r *repository) Save(ctx context.Context, reservation *models.StockReservation) error {
	return r.db.WithContext(ctx).Save(reservation).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.StockReservation, error) {
	return r.find(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate takes a row lock. Must run inside a transaction.
func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.StockReservation, error) {
	return r.find(dbpkg.ForUpdate(r.db.WithContext(ctx)), id)
}

func (r *repository) find(tx *gorm.DB, id uuid.UUID) (*models.StockReservation, error) {
	var reservation models.StockReservation
	err := tx.Where("id = ?", id).First(&reservation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (r *repository) FindByIdempotencyKey(ctx context.Context, key string) (*models.StockReservation, error) {
	var reservation models.StockReservation
	err := r.db.WithContext(ctx).Where("idempotency_key = ?", key).First(&reservation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (r *repository) FindActiveExpiredBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.StockReservation, error) {
	var reservations []models.StockReservation
	err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", enums.ReservationStatusActive, cutoff).
		Order("expires_at ASC").
		Limit(limit).
		Find(&reservations).Error
	if err != nil {
		return nil, err
	}
	return reservations, nil
}

func (r *repository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.StockReservation, error) {
	var reservations []models.StockReservation
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		Find(&reservations).Error
	if err != nil {
		return nil, err
	}
	return reservations, nil
}
