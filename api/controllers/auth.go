package controllers

import (
	"net/http"

	"github.com/tanvirhb/crm-backend/api/middleware"
	"github.com/tanvirhb/crm-backend/api/responses"
	"github.com/tanvirhb/crm-backend/api/validators"
	"github.com/tanvirhb/crm-backend/internal/identity"
	"github.com/tanvirhb/crm-backend/internal/users"
	pkgerrors "github.com/tanvirhb/crm-backend/pkg/errors"
	"github.com/tanvirhb/crm-backend/pkg/logger"
)

type verifyRequest struct {
	Token string `json:"token" validate:"required"`
}

// AuthVerify validates a raw credential and returns the enriched identity plus
// the stored user record. First-time callers get a minimal record created as a
// side effect of resolution.
func AuthVerify(verifier identity.Verifier, resolver *identity.Resolver, svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload verifyRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		claims, err := verifier.Verify(r.Context(), payload.Token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
			return
		}

		// A first-sight caller gets a record created during resolution; the
		// status code tells the client which case it hit.
		_, seenErr := svc.Profile(r.Context(), claims.Subject)
		firstSight := pkgerrors.As(seenErr) != nil && pkgerrors.As(seenErr).Code() == pkgerrors.CodeNotFound

		ident, err := resolver.Resolve(r.Context(), claims)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.Profile(r.Context(), ident.Subject)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := http.StatusOK
		if firstSight {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, map[string]any{
			"user":      user,
			"role":      string(ident.Role),
			"tenant_id": ident.TenantID,
		})
	}
}

type registerRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	DisplayName string `json:"display_name"`
}

// AuthRegister creates a provider account and its backing user document.
// Self-registration always lands as viewer in the default tenant; elevation is
// an admin operation.
func AuthRegister(accounts identity.AccountManager, svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload registerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		subjectID, err := accounts.CreateAccount(r.Context(), payload.Email, payload.Password, payload.DisplayName)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "account creation failed"))
			return
		}

		user, err := svc.Register(r.Context(), subjectID, payload.Email, payload.DisplayName)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// Best effort; the stored record is authoritative either way.
		if err := accounts.SetCustomClaims(r.Context(), subjectID, map[string]any{
			"role":      user.Role,
			"tenant_id": user.TenantID,
		}); err != nil && logg != nil {
			logg.Warn(logg.WithUserID(r.Context(), subjectID), "auth.set_claims_failed")
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, user)
	}
}

// AuthProfile returns the caller's stored user record.
func AuthProfile(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident := middleware.IdentityFromContext(r.Context())
		user, err := svc.Profile(r.Context(), ident.Subject)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}

// AuthProfileUpdate merges allow-listed profile fields into the caller's
// record. Role and tenant never move through this path.
func AuthProfileUpdate(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var fields map[string]any
		if err := validators.DecodeJSONBody(r, &fields); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ident := middleware.IdentityFromContext(r.Context())
		user, err := svc.UpdateProfile(r.Context(), ident.Subject, fields)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}
