package audit

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agrimarket/inventory-engine/pkg/db/models"
	"github.com/agrimarket/inventory-engine/pkg/enums"
	apperrors "github.com/agrimarket/inventory-engine/pkg/errors"
)

// Service defines operations that record administrative inventory changes.
type Service interface {
	RecordTx(ctx context.Context, tx *gorm.DB, input RecordEntryInput) (*models.InventoryAuditLog, error)
	ListByProduct(ctx context.Context, productID uuid.UUID, limit int) ([]models.InventoryAuditLog, error)
}

type service struct {
	repo Repository
}

// RecordEntryInput captures the immutable data an audit entry requires.
// Old and new values are strings so the log can hold thresholds, stock
// counts, and configuration changes uniformly.
type RecordEntryInput struct {
	ProductID uuid.UUID
	UserID    uuid.UUID
	Action    enums.AuditAction
	OldValue  string
	NewValue  string
	Reason    *string
}

// NewService wires an audit service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "audit repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) RecordTx(ctx context.Context, tx *gorm.DB, input RecordEntryInput) (*models.InventoryAuditLog, error) {
	if tx == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "transaction required")
	}
	if input.ProductID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "product id is required")
	}
	if input.UserID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	if !input.Action.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, "invalid audit action")
	}

	entry := &models.InventoryAuditLog{
		ProductID: input.ProductID,
		UserID:    input.UserID,
		Action:    input.Action,
		OldValue:  input.OldValue,
		NewValue:  input.NewValue,
		Reason:    input.Reason,
	}

	if err := s.repo.WithTx(tx).Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) ListByProduct(ctx context.Context, productID uuid.UUID, limit int) ([]models.InventoryAuditLog, error) {
	if productID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "product id is required")
	}
	return s.repo.ListByProductID(ctx, productID, limit)
}
