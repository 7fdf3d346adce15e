package controllers

import (
	"net/http"
	"strings"

	"github.com/tanvirhb/crm-backend/api/middleware"
	"github.com/tanvirhb/crm-backend/api/responses"
	"github.com/tanvirhb/crm-backend/api/validators"
	"github.com/tanvirhb/crm-backend/internal/search"
	"github.com/tanvirhb/crm-backend/pkg/logger"
)

// Search runs the global tenant-scoped search across record types.
func Search(svc search.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 10, 1, 50)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		q := r.URL.Query()
		raw := strings.TrimSpace(q.Get("type"))
		if raw == "" {
			raw = strings.TrimSpace(q.Get("scopes"))
		}
		var scopes []string
		if raw != "" {
			for _, s := range strings.Split(raw, ",") {
				if s = strings.TrimSpace(s); s != "" {
					scopes = append(scopes, s)
				}
			}
		}

		res, err := svc.Search(r.Context(), middleware.IdentityFromContext(r.Context()), search.Params{
			Term:   validators.SanitizeString(q.Get("q"), 100),
			Scopes: scopes,
			Limit:  limit,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, res)
	}
}
