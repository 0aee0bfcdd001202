package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/agrimarket/inventory-engine/api/responses"
	pkgerrors "github.com/agrimarket/inventory-engine/pkg/errors"
	"github.com/agrimarket/inventory-engine/pkg/logger"
)

const actorHeader = "X-Actor-Id"

// ActorContext lifts the caller-supplied actor id into the request context.
// The header is optional; callers that omit it simply produce unattributed
// mutations, which the services reject where an actor is mandatory.
func ActorContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(actorHeader))
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			actorID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid actor id"))
				return
			}

			ctx := WithActorID(r.Context(), actorID.String())
			if logg != nil {
				ctx = logg.WithField(ctx, "actor_id", actorID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
