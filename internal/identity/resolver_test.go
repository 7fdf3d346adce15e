package identity

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/tanvirhb/crm-backend/internal/roles"
	"github.com/tanvirhb/crm-backend/internal/users"
	"github.com/tanvirhb/crm-backend/pkg/logger"
)

type fakeUserRepo struct {
	users.Repository

	getFn           func(ctx context.Context, subjectID string) (*users.User, error)
	createMinimalFn func(ctx context.Context, subjectID, email, displayName string) (*users.User, error)
	created         int
}

func (f *fakeUserRepo) Get(ctx context.Context, subjectID string) (*users.User, error) {
	return f.getFn(ctx, subjectID)
}

func (f *fakeUserRepo) CreateMinimal(ctx context.Context, subjectID, email, displayName string) (*users.User, error) {
	f.created++
	return f.createMinimalFn(ctx, subjectID, email, displayName)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func TestResolveStoredRecordOverridesClaims(t *testing.T) {
	repo := &fakeUserRepo{
		getFn: func(context.Context, string) (*users.User, error) {
			return &users.User{ID: "u1", Role: "tenant_admin", TenantID: "t1", Email: "a@b.c"}, nil
		},
	}
	r, err := NewResolver(repo, testLogger())
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}

	ident, err := r.Resolve(context.Background(), &Claims{
		Subject:  "u1",
		Role:     "super_admin",
		TenantID: "t-forged",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ident.Role != roles.TenantAdmin {
		t.Fatalf("stored role must win, got %s", ident.Role)
	}
	if ident.TenantID != "t1" {
		t.Fatalf("stored tenant must win, got %s", ident.TenantID)
	}
}

func TestResolveFirstSightCreatesMinimalUser(t *testing.T) {
	repo := &fakeUserRepo{
		getFn: func(context.Context, string) (*users.User, error) { return nil, nil },
		createMinimalFn: func(_ context.Context, subjectID, email, _ string) (*users.User, error) {
			return &users.User{ID: subjectID, Email: email, Role: "viewer", TenantID: DefaultTenant}, nil
		},
	}
	r, _ := NewResolver(repo, testLogger())

	ident, err := r.Resolve(context.Background(), &Claims{Subject: "new-user", Email: "n@x.y"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if repo.created != 1 {
		t.Fatalf("expected one minimal create, got %d", repo.created)
	}
	if ident.Role != roles.Viewer || ident.TenantID != DefaultTenant {
		t.Fatalf("unexpected identity %+v", ident)
	}
}

func TestResolveEnrichmentErrorFailsClosed(t *testing.T) {
	repo := &fakeUserRepo{
		getFn: func(context.Context, string) (*users.User, error) {
			return nil, errors.New("store down")
		},
	}
	r, _ := NewResolver(repo, testLogger())

	ident, err := r.Resolve(context.Background(), &Claims{
		Subject:  "u1",
		Role:     "tenant_admin",
		TenantID: "t1",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ident.Role != roles.Viewer {
		t.Fatalf("claimed role must not survive an enrichment failure, got %s", ident.Role)
	}
	if ident.TenantID != DefaultTenant {
		t.Fatalf("tenant must fall to default on failure, got %s", ident.TenantID)
	}
}

func TestResolveMissingSubjectRejected(t *testing.T) {
	repo := &fakeUserRepo{getFn: func(context.Context, string) (*users.User, error) { return nil, nil }}
	r, _ := NewResolver(repo, testLogger())
	if _, err := r.Resolve(context.Background(), &Claims{}); err == nil {
		t.Fatal("expected error for missing subject")
	}
}

func TestPrecedence(t *testing.T) {
	if got := Precedence("stored", "claim", "fallback"); got != "stored" {
		t.Fatalf("got %q", got)
	}
	if got := Precedence("", "claim", "fallback"); got != "claim" {
		t.Fatalf("got %q", got)
	}
	if got := Precedence("", "", "fallback"); got != "fallback" {
		t.Fatalf("got %q", got)
	}
}
