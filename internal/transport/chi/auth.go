package chi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/textset/internal/domain"
	"github.com/kailas-cloud/textset/internal/logger"
)

// IdentityResolver maps a bearer credential to the registered user it belongs to.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, credential string) (uuid.UUID, error)
}

type userKey struct{}

// ContextWithUser stores the authenticated user id in ctx.
func ContextWithUser(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// UserFromContext returns the authenticated user id set by BearerAuthMiddleware.
func UserFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userKey{}).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// BearerAuthMiddleware resolves the Bearer token to a user and stores it in the
// request context. Requests without a valid token get 401.
func BearerAuthMiddleware(resolver IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" {
				writeError(w, http.StatusUnauthorized, ErrorResponseCodeUnauthorized, "missing authorization header")
				return
			}

			const bearerPrefix = "Bearer "
			if len(auth) < len(bearerPrefix) || !strings.EqualFold(auth[:len(bearerPrefix)], bearerPrefix) {
				writeError(w, http.StatusUnauthorized,
					ErrorResponseCodeUnauthorized, "authorization header must use Bearer scheme")
				return
			}

			token := strings.TrimSpace(auth[len(bearerPrefix):])
			userID, err := resolver.ResolveIdentity(r.Context(), token)
			switch {
			case errors.Is(err, domain.ErrUnauthorized):
				writeError(w, http.StatusUnauthorized, ErrorResponseCodeUnauthorized, "invalid or expired token")
				return
			case err != nil:
				logger.FromContext(r.Context()).Error("resolve identity", zap.Error(err))
				writeError(w, http.StatusInternalServerError, ErrorResponseCodeInternalError, "internal error")
				return
			}

			ctx := logger.WithUser(ContextWithUser(r.Context(), userID), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
