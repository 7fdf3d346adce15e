package identity

import (
	"context"

	"github.com/tanvirhb/crm-backend/internal/roles"
	"github.com/tanvirhb/crm-backend/internal/users"
	pkgerrors "github.com/tanvirhb/crm-backend/pkg/errors"
	"github.com/tanvirhb/crm-backend/pkg/logger"
)

// Resolver enriches provider claims with the stored user record.
type Resolver struct {
	users users.Repository
	logg  *logger.Logger
}

func NewResolver(repo users.Repository, logg *logger.Logger) (*Resolver, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	return &Resolver{users: repo, logg: logg}, nil
}

// Resolve produces the identity context for a verified claims set. A caller
// never seen before gets a minimal stored record (viewer, default tenant) so
// every subsequent request has a deterministic role and tenant. When the
// store cannot be read the request is failed closed onto the weakest
// interpretation; a claim can never restore elevated access on its own.
func (r *Resolver) Resolve(ctx context.Context, claims *Claims) (Identity, error) {
	if claims == nil || claims.Subject == "" {
		return Identity{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing subject")
	}

	weakest := Identity{
		Subject:  claims.Subject,
		Email:    claims.Email,
		Role:     roles.Viewer,
		TenantID: DefaultTenant,
	}

	stored, err := r.users.Get(ctx, claims.Subject)
	if err != nil {
		if r.logg != nil {
			r.logg.Error(ctx, "identity.enrichment_failed", err)
		}
		return weakest, nil
	}

	if stored == nil {
		stored, err = r.users.CreateMinimal(ctx, claims.Subject, claims.Email, claims.Name)
		if err != nil || stored == nil {
			if r.logg != nil {
				r.logg.Error(ctx, "identity.auto_create_failed", err)
			}
			return weakest, nil
		}
		return Identity{
			Subject:  stored.ID,
			Email:    stored.Email,
			Role:     roles.Normalize(stored.Role),
			TenantID: stored.TenantID,
		}, nil
	}

	return Identity{
		Subject:  claims.Subject,
		Email:    Precedence(stored.Email, claims.Email, ""),
		Role:     roles.Normalize(Precedence(stored.Role, claims.Role, string(roles.Viewer))),
		TenantID: Precedence(stored.TenantID, claims.TenantID, DefaultTenant),
	}, nil
}

// Precedence picks the stored value, else the claim, else the hard default.
// Kept as an explicit function so the ordering stays auditable.
func Precedence(stored, claim, fallback string) string {
	if stored != "" {
		return stored
	}
	if claim != "" {
		return claim
	}
	return fallback
}
