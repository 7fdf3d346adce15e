package users

import (
	"context"
	"strings"

	"github.com/tanvirhb/crm-backend/internal/roles"
	pkgerrors "github.com/tanvirhb/crm-backend/pkg/errors"
)

// profileFields is the allow-list for self-service profile updates. Identity
// and tenancy fields are never writable through this path.
var profileFields = map[string]bool{
	"display_name": true,
	"first_name":   true,
	"last_name":    true,
	"phone":        true,
	"department":   true,
	"position":     true,
	"preferences":  true,
}

// Service covers profile access and tenant user administration.
type Service interface {
	Register(ctx context.Context, subjectID, email, displayName string) (*User, error)
	Profile(ctx context.Context, subjectID string) (*User, error)
	UpdateProfile(ctx context.Context, subjectID string, fields map[string]any) (*User, error)
	List(ctx context.Context, tenantID string) ([]User, error)
	Invite(ctx context.Context, tenantID, email, role, invitedBy string) (*User, error)
	ChangeRole(ctx context.Context, actorTenant, actorRole, subjectID, role string) error
	Deactivate(ctx context.Context, actorTenant, actorRole, subjectID string) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	return &service{repo: repo}, nil
}

// Register stores the user document backing a freshly created provider
// account. Self-registration never grants more than the weakest role.
func (s *service) Register(ctx context.Context, subjectID, email, displayName string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if subjectID == "" || email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subject and email required")
	}
	if displayName == "" {
		displayName = email
	}
	u := &User{
		ID:          subjectID,
		Email:       email,
		DisplayName: displayName,
		Role:        string(roles.Viewer),
		TenantID:    "default",
		IsActive:    true,
		IsVerified:  true,
		Source:      "registration",
	}
	if err := s.repo.Put(ctx, u); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store user")
	}
	return s.Profile(ctx, subjectID)
}

func (s *service) Profile(ctx context.Context, subjectID string) (*User, error) {
	u, err := s.repo.Get(ctx, subjectID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if u == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return u, nil
}

func (s *service) UpdateProfile(ctx context.Context, subjectID string, fields map[string]any) (*User, error) {
	if _, err := s.Profile(ctx, subjectID); err != nil {
		return nil, err
	}

	delta := make(map[string]any)
	for k, v := range fields {
		if profileFields[k] {
			delta[k] = v
		}
	}
	if len(delta) == 0 {
		return s.Profile(ctx, subjectID)
	}

	if err := s.repo.MergeFields(ctx, subjectID, delta); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user")
	}
	return s.Profile(ctx, subjectID)
}

func (s *service) List(ctx context.Context, tenantID string) ([]User, error) {
	rows, err := s.repo.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	return rows, nil
}

func (s *service) Invite(ctx context.Context, tenantID, email, role, invitedBy string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}
	if role == "" {
		role = string(roles.Viewer)
	}
	if !roles.Valid(roles.Normalize(role)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}

	u, err := s.repo.Invite(ctx, tenantID, email, string(roles.Normalize(role)), invitedBy)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "invite user")
	}
	return u, nil
}

func (s *service) ChangeRole(ctx context.Context, actorTenant, actorRole, subjectID, role string) error {
	if !roles.Valid(roles.Normalize(role)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	if err := s.checkTenant(ctx, actorTenant, actorRole, subjectID); err != nil {
		return err
	}
	if err := s.repo.MergeFields(ctx, subjectID, map[string]any{"role": string(roles.Normalize(role))}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "change role")
	}
	return nil
}

// Deactivate flips is_active off; user documents are never hard-deleted.
func (s *service) Deactivate(ctx context.Context, actorTenant, actorRole, subjectID string) error {
	if err := s.checkTenant(ctx, actorTenant, actorRole, subjectID); err != nil {
		return err
	}
	if err := s.repo.MergeFields(ctx, subjectID, map[string]any{"is_active": false}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate user")
	}
	return nil
}

func (s *service) checkTenant(ctx context.Context, actorTenant, actorRole, subjectID string) error {
	target, err := s.repo.Get(ctx, subjectID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if target == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	if roles.Normalize(actorRole) == roles.SuperAdmin {
		return nil
	}
	if target.TenantID != actorTenant {
		return pkgerrors.New(pkgerrors.CodeForbidden, "cross-tenant access")
	}
	return nil
}
