package controllers

import (
	"net/http"
	"time"

	"github.com/agrimarket/inventory-engine/api/responses"
	"github.com/agrimarket/inventory-engine/internal/forecast"
	pkgerrors "github.com/agrimarket/inventory-engine/pkg/errors"
	"github.com/agrimarket/inventory-engine/pkg/logger"
)

// ForecastList returns projection rows for a product. Defaults to the next
// 14 days when no from/to window is given.
func ForecastList(svc forecast.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "forecast service unavailable"))
			return
		}

		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		fromPtr, err := queryTime(r, "from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		toPtr, err := queryTime(r, "to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		now := time.Now().UTC()
		from := now.Truncate(24 * time.Hour)
		to := from.AddDate(0, 0, 14)
		if fromPtr != nil {
			from = *fromPtr
		}
		if toPtr != nil {
			to = *toPtr
		}

		rows, err := svc.ListByProduct(r.Context(), productID, from, to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]forecastResponse, 0, len(rows))
		for _, row := range rows {
			items = append(items, toForecastResponse(row))
		}
		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}

// ForecastRefresh regenerates the projection horizon for one product on
// demand, outside the nightly cron cycle.
func ForecastRefresh(svc forecast.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "forecast service unavailable"))
			return
		}

		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		written, err := svc.GenerateForProduct(r.Context(), productID, time.Now().UTC())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int{"rows": written})
	}
}
