package users

import (
	"context"
	"testing"

	"github.com/tanvirhb/crm-backend/internal/store/memstore"
	pkgerrors "github.com/tanvirhb/crm-backend/pkg/errors"
)

func testService(t *testing.T) (Service, Repository) {
	t.Helper()
	repo := NewRepository(memstore.New())
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	return svc, repo
}

func TestProfileNotFound(t *testing.T) {
	svc, _ := testService(t)

	_, err := svc.Profile(context.Background(), "ghost")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestUpdateProfileAllowList(t *testing.T) {
	svc, repo := testService(t)
	ctx := context.Background()

	if _, err := repo.CreateMinimal(ctx, "u1", "u1@acme.io", "U One"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := svc.UpdateProfile(ctx, "u1", map[string]any{
		"display_name": "New Name",
		"role":         "super_admin",
		"tenant_id":    "t-evil",
		"is_active":    false,
	})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if got.DisplayName != "New Name" {
		t.Fatalf("display name not updated: %q", got.DisplayName)
	}
	if got.Role != "viewer" || got.TenantID != "default" || !got.IsActive {
		t.Fatalf("privileged fields changed through profile update: %+v", got)
	}
}

func TestInviteValidatesRole(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	_, err := svc.Invite(ctx, "t1", "", "manager", "admin-1")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for empty email, got %v", err)
	}

	_, err = svc.Invite(ctx, "t1", "new@acme.io", "overlord", "admin-1")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for bad role, got %v", err)
	}

	u, err := svc.Invite(ctx, "t1", "New@Acme.IO", "", "admin-1")
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	if u.Email != "new@acme.io" {
		t.Fatalf("email not normalized: %q", u.Email)
	}
	if u.Role != "viewer" {
		t.Fatalf("missing role must default to viewer, got %q", u.Role)
	}
	if u.IsVerified {
		t.Fatal("invited users start unverified")
	}
	if u.InvitedBy != "admin-1" {
		t.Fatalf("invited_by not recorded: %q", u.InvitedBy)
	}
}

func TestChangeRoleTenantCheck(t *testing.T) {
	svc, repo := testService(t)
	ctx := context.Background()

	target, err := svc.Invite(ctx, "t1", "rep@acme.io", "sales_rep", "admin-1")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	err = svc.ChangeRole(ctx, "t2", "tenant_admin", target.ID, "manager")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected FORBIDDEN cross-tenant, got %v", err)
	}

	if err := svc.ChangeRole(ctx, "t2", "super_admin", target.ID, "manager"); err != nil {
		t.Fatalf("super_admin must cross tenants: %v", err)
	}
	got, err := repo.Get(ctx, target.ID)
	if err != nil || got == nil {
		t.Fatalf("re-read: %v", err)
	}
	if got.Role != "manager" {
		t.Fatalf("role not changed: %q", got.Role)
	}

	err = svc.ChangeRole(ctx, "t1", "tenant_admin", target.ID, "emperor")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeactivateKeepsDocument(t *testing.T) {
	svc, repo := testService(t)
	ctx := context.Background()

	target, err := svc.Invite(ctx, "t1", "rep@acme.io", "sales_rep", "admin-1")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := svc.Deactivate(ctx, "t1", "tenant_admin", target.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	got, err := repo.Get(ctx, target.ID)
	if err != nil || got == nil {
		t.Fatalf("document must survive deactivation: %v", err)
	}
	if got.IsActive {
		t.Fatal("is_active should be false")
	}
	if got.Email != "rep@acme.io" {
		t.Fatalf("other fields must be preserved: %q", got.Email)
	}
}
