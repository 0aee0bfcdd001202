package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/agrimarket/inventory-engine/api/middleware"
	"github.com/agrimarket/inventory-engine/api/validators"
	pkgerrors "github.com/agrimarket/inventory-engine/pkg/errors"
	"github.com/agrimarket/inventory-engine/pkg/pagination"
)

func pathUUID(r *http.Request, key string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "missing path parameter").WithDetails(map[string]any{"field": key})
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid path parameter").WithDetails(map[string]any{"field": key})
	}
	return id, nil
}

func actorFromContext(r *http.Request) *uuid.UUID {
	raw := middleware.ActorIDFromContext(r.Context())
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}

func requireActor(r *http.Request) (uuid.UUID, error) {
	actor := actorFromContext(r)
	if actor == nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "X-Actor-Id header required")
	}
	return *actor, nil
}

func pageParams(r *http.Request) (pagination.Params, error) {
	params := pagination.Params{
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}
	limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	params.Limit = limit
	return params, nil
}
