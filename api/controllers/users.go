package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tanvirhb/crm-backend/api/middleware"
	"github.com/tanvirhb/crm-backend/api/responses"
	"github.com/tanvirhb/crm-backend/api/validators"
	"github.com/tanvirhb/crm-backend/internal/users"
	"github.com/tanvirhb/crm-backend/pkg/logger"
)

// UsersList returns the caller's tenant roster.
func UsersList(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident := middleware.IdentityFromContext(r.Context())
		rows, err := svc.List(r.Context(), ident.TenantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

type inviteRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role"`
}

// UsersInvite creates a pending user in the caller's tenant.
func UsersInvite(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload inviteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ident := middleware.IdentityFromContext(r.Context())
		user, err := svc.Invite(r.Context(), ident.TenantID, payload.Email, payload.Role, ident.Subject)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, user)
	}
}

type roleRequest struct {
	Role string `json:"role" validate:"required"`
}

// UsersChangeRole sets a user's role, tenant-checked against the actor.
func UsersChangeRole(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload roleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ident := middleware.IdentityFromContext(r.Context())
		subjectID := chi.URLParam(r, "id")
		if err := svc.ChangeRole(r.Context(), ident.TenantID, string(ident.Role), subjectID, payload.Role); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"id": subjectID, "role": payload.Role})
	}
}

// UsersDeactivate flips a user inactive. The document stays.
func UsersDeactivate(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident := middleware.IdentityFromContext(r.Context())
		subjectID := chi.URLParam(r, "id")
		if err := svc.Deactivate(r.Context(), ident.TenantID, string(ident.Role), subjectID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"id": subjectID, "status": "deactivated"})
	}
}
