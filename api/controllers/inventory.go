package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agrimarket/inventory-engine/api/responses"
	"github.com/agrimarket/inventory-engine/api/validators"
	"github.com/agrimarket/inventory-engine/internal/audit"
	"github.com/agrimarket/inventory-engine/internal/inventory"
	"github.com/agrimarket/inventory-engine/pkg/enums"
	pkgerrors "github.com/agrimarket/inventory-engine/pkg/errors"
	"github.com/agrimarket/inventory-engine/pkg/logger"
	"github.com/agrimarket/inventory-engine/pkg/pagination"
)

type inventoryInitializeRequest struct {
	ProductID           string `json:"product_id" validate:"required"`
	SellerID            string `json:"seller_id" validate:"required"`
	SKU                 string `json:"sku" validate:"required"`
	InitialStock        int    `json:"initial_stock" validate:"gte=0"`
	MinimumThreshold    int    `json:"minimum_threshold" validate:"gte=0"`
	ReorderQuantity     int    `json:"reorder_quantity" validate:"gte=0"`
	AlertFrequencyHours int    `json:"alert_frequency_hours" validate:"gte=0"`
	ForecastMethod      string `json:"forecast_method"`
}

func (req inventoryInitializeRequest) toInput(actorID *uuid.UUID) (inventory.InitializeInput, error) {
	productID, err := uuid.Parse(strings.TrimSpace(req.ProductID))
	if err != nil {
		return inventory.InitializeInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product_id")
	}
	sellerID, err := uuid.Parse(strings.TrimSpace(req.SellerID))
	if err != nil {
		return inventory.InitializeInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid seller_id")
	}

	input := inventory.InitializeInput{
		ProductID:           productID,
		SellerID:            sellerID,
		SKU:                 validators.SanitizeString(req.SKU, 120),
		InitialStock:        req.InitialStock,
		MinimumThreshold:    req.MinimumThreshold,
		ReorderQuantity:     req.ReorderQuantity,
		AlertFrequencyHours: req.AlertFrequencyHours,
		ActorID:             actorID,
	}
	if raw := strings.TrimSpace(req.ForecastMethod); raw != "" {
		method, err := enums.ParseForecastMethod(raw)
		if err != nil {
			return inventory.InitializeInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid forecast method")
		}
		input.ForecastMethod = method
	}
	return input, nil
}

// InventoryInitialize creates the ledger row for a newly listed product.
func InventoryInitialize(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		var payload inventoryInitializeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput(actorFromContext(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry, err := svc.Initialize(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toLedgerEntryResponse(*entry))
	}
}

// InventoryGet returns the ledger entry for one product.
func InventoryGet(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry, err := svc.GetStock(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toLedgerEntryResponse(*entry))
	}
}

type inventoryAdjustRequest struct {
	Delta  int    `json:"delta" validate:"required"`
	Type   string `json:"type" validate:"required"`
	Reason string `json:"reason"`
}

// InventoryAdjust applies a manual stock movement to the ledger.
func InventoryAdjust(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload inventoryAdjustRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txType, err := enums.ParseTransactionType(strings.TrimSpace(payload.Type))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid transaction type"))
			return
		}

		input := inventory.AdjustStockInput{
			ProductID: productID,
			Delta:     payload.Delta,
			Type:      txType,
			ActorID:   actorFromContext(r),
		}
		if reason := validators.SanitizeString(payload.Reason, 500); reason != "" {
			input.Reason = &reason
		}

		entry, err := svc.AdjustStock(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toLedgerEntryResponse(*entry))
	}
}

type inventoryThresholdsRequest struct {
	MinimumThreshold    *int   `json:"minimum_threshold" validate:"omitempty,gte=0"`
	ReorderQuantity     *int   `json:"reorder_quantity" validate:"omitempty,gte=0"`
	AlertFrequencyHours *int   `json:"alert_frequency_hours" validate:"omitempty,gte=1"`
	ForecastMethod      string `json:"forecast_method"`
	Reason              string `json:"reason"`
}

// InventoryThresholds updates a product's alerting configuration. Threshold
// changes are always attributed, so the actor header is mandatory here.
func InventoryThresholds(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actorID, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload inventoryThresholdsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := inventory.UpdateThresholdsInput{
			ProductID:           productID,
			MinimumThreshold:    payload.MinimumThreshold,
			ReorderQuantity:     payload.ReorderQuantity,
			AlertFrequencyHours: payload.AlertFrequencyHours,
			ActorID:             actorID,
		}
		if raw := strings.TrimSpace(payload.ForecastMethod); raw != "" {
			method, err := enums.ParseForecastMethod(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid forecast method"))
				return
			}
			input.ForecastMethod = &method
		}
		if reason := validators.SanitizeString(payload.Reason, 500); reason != "" {
			input.Reason = &reason
		}

		entry, err := svc.UpdateThresholds(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toLedgerEntryResponse(*entry))
	}
}

// InventoryRetire removes a product's ledger entry when the product is
// delisted. Refused while reservations are outstanding.
func InventoryRetire(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var reason *string
		if raw := validators.SanitizeString(r.URL.Query().Get("reason"), 500); raw != "" {
			reason = &raw
		}

		if err := svc.Retire(r.Context(), productID, actorFromContext(r), reason); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "retired"})
	}
}

type inventoryListResponse struct {
	Items  []ledgerEntryResponse `json:"items"`
	Cursor string                `json:"cursor,omitempty"`
}

// InventoryList returns a seller's ledger entries, cursor paginated.
func InventoryList(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
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

		entries, err := svc.ListBySeller(r.Context(), sellerID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit := pagination.NormalizeLimit(params.Limit)
		resp := inventoryListResponse{Items: make([]ledgerEntryResponse, 0, len(entries))}
		if len(entries) > limit {
			entries = entries[:limit]
			last := entries[len(entries)-1]
			resp.Cursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ProductID})
		}
		for _, entry := range entries {
			resp.Items = append(resp.Items, toLedgerEntryResponse(entry))
		}
		responses.WriteSuccess(w, resp)
	}
}

type transactionListResponse struct {
	Items  []transactionResponse `json:"items"`
	Cursor string                `json:"cursor,omitempty"`
}

// InventoryTransactions exposes the append-only movement log for reporting.
// Optional from/to query bounds are RFC 3339 timestamps.
func InventoryTransactions(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := inventory.ListTransactionsInput{ProductID: productID, Params: params}
		if input.From, err = queryTime(r, "from"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if input.To, err = queryTime(r, "to"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		records, err := svc.ListTransactions(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit := pagination.NormalizeLimit(params.Limit)
		resp := transactionListResponse{Items: make([]transactionResponse, 0, len(records))}
		if len(records) > limit {
			records = records[:limit]
			last := records[len(records)-1]
			resp.Cursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		}
		for _, record := range records {
			resp.Items = append(resp.Items, toTransactionResponse(record))
		}
		responses.WriteSuccess(w, resp)
	}
}

// InventoryVerify folds the transaction log and compares it to the ledger.
func InventoryVerify(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.VerifyLedger(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// InventoryAuditTrail returns recent administrative changes for a product.
func InventoryAuditTrail(svc audit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "audit service unavailable"))
			return
		}

		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := svc.ListByProduct(r.Context(), productID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]auditEntryResponse, 0, len(entries))
		for _, entry := range entries {
			items = append(items, toAuditEntryResponse(entry))
		}
		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}

func queryTime(r *http.Request, key string) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid timestamp").WithDetails(map[string]any{"field": key})
	}
	return &value, nil
}
