package provider

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/servicehub/servicehub-api/internal/middleware"
	"github.com/servicehub/servicehub-api/internal/pkg/errorhandler"
	"github.com/servicehub/servicehub-api/internal/pkg/response"
)

type contextKey string

const providerKey contextKey = "provider"

// WithContext stores the acting provider in ctx
func WithContext(ctx context.Context, p *Provider) context.Context {
	return context.WithValue(ctx, providerKey, p)
}

// FromContext returns the acting provider resolved by Resolve, or nil
func FromContext(ctx context.Context) *Provider {
	p, _ := ctx.Value(providerKey).(*Provider)
	return p
}

// Resolve loads the provider account of the authenticated user.
// Must run after middleware.Auth.
func Resolve(repo Repository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := middleware.GetUserID(r.Context())
			if userID == uuid.Nil {
				response.Unauthorized(w, "Unauthorized")
				return
			}

			p, err := repo.GetByUserID(r.Context(), userID)
			if err != nil {
				errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "PROVIDER_LOOKUP_FAILED", "Failed to load provider account", err)
				return
			}
			if p == nil {
				response.Forbidden(w, "Provider account required")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), p)))
		})
	}
}
