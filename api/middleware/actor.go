package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/agribazaar/agribazaar-backend/api/responses"
	pkgerrors "github.com/agribazaar/agribazaar-backend/pkg/errors"
	"github.com/agribazaar/agribazaar-backend/pkg/logger"
)

const actorHeader = "X-User-Id"

// Actor extracts the caller identity from the X-User-Id header, set by the
// gateway in front of this service, and attaches it to the request context.
// Requests without a valid user id are rejected.
func Actor(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(actorHeader))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "X-User-Id header required"))
				return
			}
			userID, err := uuid.Parse(raw)
			if err != nil || userID == uuid.Nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "X-User-Id must be a valid uuid"))
				return
			}

			ctx := WithUserID(r.Context(), userID.String())
			if logg != nil {
				ctx = logg.WithUserID(ctx, userID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
