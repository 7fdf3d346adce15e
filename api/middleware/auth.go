package middleware

import (
	"net/http"
	"strings"

	"github.com/tanvirhb/crm-backend/api/responses"
	"github.com/tanvirhb/crm-backend/internal/identity"
	pkgerrors "github.com/tanvirhb/crm-backend/pkg/errors"
	"github.com/tanvirhb/crm-backend/pkg/logger"
)

// Auth verifies the bearer credential with the identity provider, enriches it
// against the stored user record, and seeds the request context with the
// resolved identity.
func Auth(verifier identity.Verifier, resolver *identity.Resolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := verifier.Verify(r.Context(), token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ident, err := resolver.Resolve(r.Context(), claims)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithIdentity(r.Context(), ident)
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":    ident.Subject,
					"actor_role": string(ident.Role),
					"tenant_id":  ident.TenantID,
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
