package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/agrimarket/inventory-engine/api/responses"
	"github.com/agrimarket/inventory-engine/api/validators"
	"github.com/agrimarket/inventory-engine/internal/inventory/reservation"
	pkgerrors "github.com/agrimarket/inventory-engine/pkg/errors"
	"github.com/agrimarket/inventory-engine/pkg/logger"
)

type reservationCreateRequest struct {
	ProductID      string `json:"product_id" validate:"required"`
	OrderID        string `json:"order_id" validate:"required"`
	Quantity       int    `json:"quantity" validate:"required,gt=0"`
	IdempotencyKey string `json:"idempotency_key"`
}

// ReservationCreate places a hold against available stock for an order line.
func ReservationCreate(svc reservation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reservation service unavailable"))
			return
		}

		var payload reservationCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := uuid.Parse(strings.TrimSpace(payload.ProductID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product_id"))
			return
		}
		orderID, err := uuid.Parse(strings.TrimSpace(payload.OrderID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order_id"))
			return
		}

		input := reservation.ReserveInput{
			ProductID: productID,
			OrderID:   orderID,
			Quantity:  payload.Quantity,
			ActorID:   actorFromContext(r),
		}
		if key := validators.SanitizeString(payload.IdempotencyKey, 200); key != "" {
			input.IdempotencyKey = &key
		}

		held, err := svc.Reserve(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toReservationResponse(*held))
	}
}

// ReservationGet returns one reservation by id.
func ReservationGet(svc reservation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reservation service unavailable"))
			return
		}

		reservationID, err := pathUUID(r, "reservationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		held, err := svc.Get(r.Context(), reservationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toReservationResponse(*held))
	}
}

// ReservationRelease returns a hold's quantity to available stock.
func ReservationRelease(svc reservation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reservation service unavailable"))
			return
		}

		reservationID, err := pathUUID(r, "reservationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		held, err := svc.Release(r.Context(), reservationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toReservationResponse(*held))
	}
}

type reservationCommitRequest struct {
	ActualQuantity int  `json:"actual_quantity" validate:"gte=0"`
	Override       bool `json:"override"`
}

// ReservationCommit converts a hold into a sale. When the fulfilled quantity
// differs from the held quantity the caller must set override.
func ReservationCommit(svc reservation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reservation service unavailable"))
			return
		}

		reservationID, err := pathUUID(r, "reservationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload reservationCommitRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		held, err := svc.Commit(r.Context(), reservation.CommitInput{
			ReservationID:  reservationID,
			ActualQuantity: payload.ActualQuantity,
			Override:       payload.Override,
			ActorID:        actorFromContext(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toReservationResponse(*held))
	}
}

// ReservationsByOrder lists every hold placed for an order.
func ReservationsByOrder(svc reservation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reservation service unavailable"))
			return
		}

		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		holds, err := svc.ListByOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]reservationResponse, 0, len(holds))
		for _, held := range holds {
			items = append(items, toReservationResponse(held))
		}
		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}
