package search

import (
	"context"
	"io"
	"testing"

	"github.com/tanvirhb/crm-backend/internal/identity"
	"github.com/tanvirhb/crm-backend/internal/records"
	"github.com/tanvirhb/crm-backend/internal/roles"
	"github.com/tanvirhb/crm-backend/internal/store/memstore"
	pkgerrors "github.com/tanvirhb/crm-backend/pkg/errors"
	"github.com/tanvirhb/crm-backend/pkg/logger"
)

func testService(t *testing.T) (Service, *records.Accessor) {
	t.Helper()
	acc, err := records.NewAccessor(memstore.New(), logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	if err != nil {
		t.Fatalf("accessor: %v", err)
	}
	svc, err := NewService(acc)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	return svc, acc
}

func actor(tenant string) identity.Identity {
	return identity.Identity{Subject: "u-" + tenant, Role: roles.Viewer, TenantID: tenant}
}

func TestSearchSpansScopes(t *testing.T) {
	svc, acc := testService(t)
	ctx := context.Background()

	seeds := []struct {
		collection string
		fields     map[string]any
	}{
		{"customers", map[string]any{"name": "Delta Shipping", "email": "ops@delta.io"}},
		{"customers", map[string]any{"name": "Echo Foods", "email": "hi@echo.io"}},
		{"logs", map[string]any{"title": "Delta onboarding call", "type": "call"}},
		{"complaints", map[string]any{"title": "Late delivery", "description": "delta order missing"}},
	}
	for _, s := range seeds {
		if _, err := acc.Create(ctx, s.collection, actor("t1"), s.fields); err != nil {
			t.Fatalf("seed %s: %v", s.collection, err)
		}
	}
	if _, err := acc.Create(ctx, "customers", actor("t2"), map[string]any{"name": "Delta Rival"}); err != nil {
		t.Fatalf("seed foreign: %v", err)
	}

	res, err := svc.Search(ctx, actor("t1"), Params{Term: "delta"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(res[ScopeCustomers]) != 1 || res[ScopeCustomers][0]["name"] != "Delta Shipping" {
		t.Fatalf("unexpected customer hits: %v", res[ScopeCustomers])
	}
	if len(res[ScopeLogs]) != 1 {
		t.Fatalf("unexpected log hits: %v", res[ScopeLogs])
	}
	if len(res[ScopeComplaints]) != 1 {
		t.Fatalf("unexpected complaint hits: %v", res[ScopeComplaints])
	}
}

func TestSearchValidation(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	_, err := svc.Search(ctx, actor("t1"), Params{Term: "  "})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for empty term, got %v", err)
	}

	_, err = svc.Search(ctx, actor("t1"), Params{Term: "x", Scopes: []string{"invoices"}})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for unknown scope, got %v", err)
	}
}

func TestSearchScopeLimit(t *testing.T) {
	svc, acc := testService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := acc.Create(ctx, "customers", actor("t1"), map[string]any{"name": "Repeat Co", "email": "r@r.io"}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	res, err := svc.Search(ctx, actor("t1"), Params{Term: "repeat", Scopes: []string{ScopeCustomers}, Limit: 2})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(res[ScopeCustomers]) != 2 {
		t.Fatalf("scope limit not applied: %d", len(res[ScopeCustomers]))
	}
}
