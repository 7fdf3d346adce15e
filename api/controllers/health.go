package controllers

import (
	"net/http"

	"github.com/tanvirhb/crm-backend/api/responses"
	"github.com/tanvirhb/crm-backend/internal/store"
	"github.com/tanvirhb/crm-backend/pkg/config"
	pkgerrors "github.com/tanvirhb/crm-backend/pkg/errors"
	"github.com/tanvirhb/crm-backend/pkg/logger"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-CRM-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness only when the document store answers.
func HealthReady(cfg *config.Config, st store.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-CRM-Env", cfg.App.Env)
		if st != nil {
			if err := st.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store unavailable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
