package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/agrimarket/inventory-engine/api/responses"
	"github.com/agrimarket/inventory-engine/internal/alerts"
	pkgerrors "github.com/agrimarket/inventory-engine/pkg/errors"
	"github.com/agrimarket/inventory-engine/pkg/logger"
	"github.com/agrimarket/inventory-engine/pkg/pagination"
)

type alertListResponse struct {
	Items  []alertResponse `json:"items"`
	Cursor string          `json:"cursor,omitempty"`
}

// AlertList returns a seller's low stock alerts, newest first. Pass open=true
// to hide acknowledged alerts.
func AlertList(svc alerts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "alert service unavailable"))
			return
		}

		sellerID, err := pathUUID(r, "sellerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		onlyOpen := false
		if raw := strings.TrimSpace(r.URL.Query().Get("open")); raw != "" {
			onlyOpen, err = strconv.ParseBool(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid open value"))
				return
			}
		}

		rows, err := svc.ListBySeller(r.Context(), sellerID, onlyOpen, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit := pagination.NormalizeLimit(params.Limit)
		resp := alertListResponse{Items: make([]alertResponse, 0, len(rows))}
		if len(rows) > limit {
			rows = rows[:limit]
			last := rows[len(rows)-1]
			resp.Cursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		}
		for _, row := range rows {
			resp.Items = append(resp.Items, toAlertResponse(row))
		}
		responses.WriteSuccess(w, resp)
	}
}

// AlertAcknowledge marks an alert as seen, which suppresses refreshes until
// stock recovers and dips again.
func AlertAcknowledge(svc alerts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "alert service unavailable"))
			return
		}

		alertID, err := pathUUID(r, "alertId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actorID, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		alert, err := svc.Acknowledge(r.Context(), alertID, actorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toAlertResponse(*alert))
	}
}
