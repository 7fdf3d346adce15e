package controllers

import (
	"net/http"

	"github.com/tanvirhb/crm-backend/api/middleware"
	"github.com/tanvirhb/crm-backend/api/responses"
	"github.com/tanvirhb/crm-backend/internal/metrics"
	"github.com/tanvirhb/crm-backend/pkg/logger"
)

// MetricsSummary returns the dashboard counters. Always 200; a storage
// failure degrades to zeroed counters flagged as degraded.
func MetricsSummary(svc metrics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, svc.Summary(r.Context(), middleware.IdentityFromContext(r.Context())))
	}
}
