// Package identity resolves a bearer credential into the per-request identity
// context: who is calling, with what role, inside which tenant. Trust in the
// credential itself is delegated to the external provider; this package only
// enriches the provider's claims with the stored user record.
package identity

import (
	"context"

	"github.com/tanvirhb/crm-backend/internal/roles"
)

// DefaultTenant is the tenant assigned to first-time callers that were never
// invited into one.
const DefaultTenant = "default"

// Claims is what the provider attests to after verifying a credential. Role
// and TenantID come from custom claims and are only a fallback; the stored
// user record is authoritative.
type Claims struct {
	Subject  string
	Email    string
	Name     string
	Role     string
	TenantID string
}

// Identity is the resolved authorization context for one request. It is never
// persisted.
type Identity struct {
	Subject  string
	Email    string
	Role     roles.Role
	TenantID string
}

// Verifier validates an opaque bearer credential against the provider.
// Stateless; no side effects per call.
type Verifier interface {
	Verify(ctx context.Context, credential string) (*Claims, error)
}

// AccountManager exposes the provider's account primitives used by
// registration and invitation flows.
type AccountManager interface {
	CreateAccount(ctx context.Context, email, password, displayName string) (string, error)
	SetCustomClaims(ctx context.Context, subjectID string, claims map[string]any) error
	LookupByEmail(ctx context.Context, email string) (string, error)
}
