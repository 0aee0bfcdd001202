package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/agrimarket/inventory-engine/pkg/db/models"
	apperrors "github.com/agrimarket/inventory-engine/pkg/errors"
	"github.com/agrimarket/inventory-engine/pkg/pagination"
)

// Service defines notification list/read operations.
type Service interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	MarkRead(ctx context.Context, sellerID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, sellerID uuid.UUID) (int64, error)
}

type service struct {
	repo Repository
}

// ListParams configures pagination for notifications.
type ListParams struct {
	SellerID   uuid.UUID
	Limit      int
	Cursor     string
	UnreadOnly bool
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult struct {
	Items  []models.Notification `json:"items"`
	Cursor string                `json:"cursor"`
}

// NewService wires notifications dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, apperrors.New(apperrors.CodeDependency, "notifications repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.SellerID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "seller id required")
	}

	query := listNotificationsParams{
		SellerID:   params.SellerID,
		Limit:      params.Limit,
		UnreadOnly: params.UnreadOnly,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "list notifications")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}

	return &ListResult{
		Items:  rows,
		Cursor: cursor,
	}, nil
}

func (s *service) MarkRead(ctx context.Context, sellerID, notificationID uuid.UUID) error {
	if sellerID == uuid.Nil {
		return apperrors.New(apperrors.CodeValidation, "seller id required")
	}
	if notificationID == uuid.Nil {
		return apperrors.New(apperrors.CodeValidation, "notification id required")
	}

	result, err := s.repo.MarkRead(ctx, sellerID, notificationID, time.Now().UTC())
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "mark notification read")
	}
	if !result.Found {
		return apperrors.New(apperrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, sellerID uuid.UUID) (int64, error) {
	if sellerID == uuid.Nil {
		return 0, apperrors.New(apperrors.CodeValidation, "seller id required")
	}

	count, err := s.repo.MarkAllRead(ctx, sellerID, time.Now().UTC())
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}
