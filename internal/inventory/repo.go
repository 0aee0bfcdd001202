package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/agrimarket/inventory-engine/pkg/db"
	"github.com/agrimarket/inventory-engine/pkg/db/models"
	"github.com/agrimarket/inventory-engine/pkg/enums"
	"github.com/agrimarket/inventory-engine/pkg/pagination"
)

// Repository manages persistence for ledger entries and the transaction log.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.StockLedgerEntry) error
	FindByID(ctx context.Context, productID uuid.UUID) (*models.StockLedgerEntry, error)
	FindByIDForUpdate(ctx context.Context, productID uuid.UUID) (*models.StockLedgerEntry, error)
	Save(ctx context.Context, entry *models.StockLedgerEntry) error
	Delete(ctx context.Context, productID uuid.UUID) error
	ListBySeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) ([]models.StockLedgerEntry, error)
	InsertTransaction(ctx context.Context, record *models.StockTransaction) error
	ListTransactions(ctx context.Context, input ListTransactionsInput) ([]models.StockTransaction, error)
	SumTransactions(ctx context.Context, productID uuid.UUID) (int, error)
	ListSales(ctx context.Context, productID uuid.UUID, since time.Time) ([]models.StockTransaction, error)
	ListProductIDs(ctx context.Context) ([]uuid.UUID, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.StockLedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) FindByID(ctx context.Context, productID uuid.UUID) (*models.StockLedgerEntry, error) {
	return r.find(r.db.WithContext(ctx), productID)
}

// FindByIDForUpdate takes a row lock so concurrent mutations of the same
// product serialize. Must run inside a transaction.
func (r *repository) FindByIDForUpdate(ctx context.Context, productID uuid.UUID) (*models.StockLedgerEntry, error) {
	return r.find(dbpkg.ForUpdate(r.db.WithContext(ctx)), productID)
}

func (r *repository) find(query *gorm.DB, productID uuid.UUID) (*models.StockLedgerEntry, error) {
	var entry models.StockLedgerEntry
	err := query.Where("product_id = ?", productID).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *repository) Save(ctx context.Context, entry *models.StockLedgerEntry) error {
	return r.db.WithContext(ctx).Save(entry).Error
}

func (r *repository) Delete(ctx context.Context, productID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Delete(&models.StockLedgerEntry{}).Error
}

func (r *repository) ListBySeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) ([]models.StockLedgerEntry, error) {
	query := r.db.WithContext(ctx).Where("seller_id = ?", sellerID)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND product_id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}
	var entries []models.StockLedgerEntry
	err = query.
		Order("created_at DESC").
		Order("product_id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&entries).Error
	return entries, err
}

func (r *repository) InsertTransaction(ctx context.Context, record *models.StockTransaction) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repository) ListTransactions(ctx context.Context, input ListTransactionsInput) ([]models.StockTransaction, error) {
	query := r.db.WithContext(ctx).Where("product_id = ?", input.ProductID)
	if input.From != nil {
		query = query.Where("created_at >= ?", *input.From)
	}
	if input.To != nil {
		query = query.Where("created_at < ?", *input.To)
	}
	cursor, err := pagination.ParseCursor(input.Params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}
	var records []models.StockTransaction
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(input.Params.Limit)).
		Find(&records).Error
	return records, err
}

// SumTransactions folds quantities of all stock-moving records for a product.
// Reservation holds are informational and excluded.
func (r *repository) SumTransactions(ctx context.Context, productID uuid.UUID) (int, error) {
	var total *int
	err := r.db.WithContext(ctx).
		Model(&models.StockTransaction{}).
		Select("SUM(quantity)").
		Where("product_id = ? AND type <> ?", productID, enums.TransactionTypeReservationHold).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

func (r *repository) ListSales(ctx context.Context, productID uuid.UUID, since time.Time) ([]models.StockTransaction, error) {
	var records []models.StockTransaction
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND type = ? AND created_at >= ?", productID, enums.TransactionTypeSale, since).
		Order("created_at ASC").
		Find(&records).Error
	return records, err
}

func (r *repository) ListProductIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.StockLedgerEntry{}).
		Order("created_at ASC").
		Pluck("product_id", &ids).Error
	return ids, err
}
