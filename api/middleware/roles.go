package middleware

import (
	"net/http"

	"github.com/tanvirhb/crm-backend/api/responses"
	"github.com/tanvirhb/crm-backend/internal/roles"
	pkgerrors "github.com/tanvirhb/crm-backend/pkg/errors"
	"github.com/tanvirhb/crm-backend/pkg/logger"
)

// RequireRoles gates a route on an allow-set of roles.
func RequireRoles(logg *logger.Logger, allowed ...roles.Role) func(http.Handler) http.Handler {
	allowSet := make(map[roles.Role]bool, len(allowed))
	for _, role := range allowed {
		allowSet[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !allowSet[IdentityFromContext(r.Context()).Role] {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "role required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission gates a route on the role permission matrix.
func RequirePermission(logg *logger.Logger, resource, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident := IdentityFromContext(r.Context())
			if !roles.HasPermission(ident.Role, resource, action) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "permission denied"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
