package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/atinyakov/clickshort/internal/app/handler"
	"github.com/atinyakov/clickshort/internal/app/service"
)

// ContextKey is a custom type used for keys in the context.
type ContextKey string

// AdminKey holds the verified *service.Claims of the caller.
const AdminKey ContextKey = "admin"

// AdminFromContext returns the claims stored by WithAdmin.
func AdminFromContext(ctx context.Context) (*service.Claims, bool) {
	claims, ok := ctx.Value(AdminKey).(*service.Claims)
	return claims, ok
}

// WithAdmin requires an "Authorization: Bearer <token>" header carrying a
// valid admin token. Requests without one get 401.
func WithAdmin(auth service.AuthIface, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, found := strings.CutPrefix(header, "Bearer ")
			token = strings.TrimSpace(token)
			if !found || token == "" {
				handler.WriteError(w, http.StatusUnauthorized, "Access denied")
				return
			}

			claims, err := auth.ParseToken(token)
			if err != nil {
				logger.Info("admin token rejected", zap.Error(err))
				handler.WriteError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), AdminKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
