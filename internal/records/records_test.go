package records

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/tanvirhb/crm-backend/internal/identity"
	"github.com/tanvirhb/crm-backend/internal/roles"
	"github.com/tanvirhb/crm-backend/internal/store/memstore"
	pkgerrors "github.com/tanvirhb/crm-backend/pkg/errors"
	"github.com/tanvirhb/crm-backend/pkg/logger"
)

func testAccessor(t *testing.T) (*Accessor, *memstore.Store) {
	t.Helper()
	st := memstore.New()
	acc, err := NewAccessor(st, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	if err != nil {
		t.Fatalf("new accessor: %v", err)
	}
	return acc, st
}

func ident(tenant string) identity.Identity {
	return identity.Identity{Subject: "actor-" + tenant, Role: roles.Manager, TenantID: tenant}
}

func TestCreateStampsOwnership(t *testing.T) {
	acc, _ := testAccessor(t)
	ctx := context.Background()

	rec, err := acc.Create(ctx, "customers", ident("t1"), map[string]any{
		"name":      "Acme",
		"tenant_id": "t-evil", // client-supplied tenant must be ignored
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec["tenant_id"] != "t1" {
		t.Fatalf("tenant must come from identity, got %v", rec["tenant_id"])
	}
	if rec["created_by"] != "actor-t1" {
		t.Fatalf("created_by must be the acting subject, got %v", rec["created_by"])
	}
	if _, ok := rec["created_at"].(time.Time); !ok {
		t.Fatalf("expected server timestamp, got %T", rec["created_at"])
	}
	if rec["id"] == "" {
		t.Fatal("expected store-assigned id")
	}
}

func TestGetCrossTenantForbidden(t *testing.T) {
	acc, _ := testAccessor(t)
	ctx := context.Background()

	rec, err := acc.Create(ctx, "customers", ident("t1"), map[string]any{"name": "Acme"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	id := rec["id"].(string)

	_, err = acc.Get(ctx, "customers", id, ident("t2"))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}

	_, err = acc.Get(ctx, "customers", "missing-id", ident("t1"))
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestUpdateRespectsAllowList(t *testing.T) {
	acc, _ := testAccessor(t)
	ctx := context.Background()

	rec, _ := acc.Create(ctx, "customers", ident("t1"), map[string]any{"name": "Acme", "status": "active"})
	id := rec["id"].(string)

	updated, err := acc.Update(ctx, "customers", id, ident("t1"), []string{"name"}, map[string]any{
		"name":       "Acme Corp",
		"tenant_id":  "t-evil",
		"created_by": "someone-else",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated["name"] != "Acme Corp" {
		t.Fatalf("allow-listed field not applied: %v", updated["name"])
	}
	if updated["tenant_id"] != "t1" {
		t.Fatal("tenant_id must be immutable")
	}
	if updated["created_by"] != "actor-t1" {
		t.Fatal("created_by must be immutable")
	}
	if updated["status"] != "active" {
		t.Fatal("omitted fields must be preserved")
	}
}

func TestUpdateCrossTenantForbidden(t *testing.T) {
	acc, _ := testAccessor(t)
	ctx := context.Background()

	rec, _ := acc.Create(ctx, "logs", ident("t1"), map[string]any{"title": "call"})
	id := rec["id"].(string)

	_, err := acc.Update(ctx, "logs", id, ident("t2"), []string{"title"}, map[string]any{"title": "x"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}

	if err := acc.Delete(ctx, "logs", id, ident("t2")); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected FORBIDDEN delete, got %v", err)
	}

	// Owner can still delete.
	if err := acc.Delete(ctx, "logs", id, ident("t1")); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if _, err := acc.Get(ctx, "logs", id, ident("t1")); pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatal("expected record gone")
	}
}

func TestListScopedToTenant(t *testing.T) {
	acc, _ := testAccessor(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := acc.Create(ctx, "customers", ident("t1"), map[string]any{"name": "c1", "status": "active"}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	if _, err := acc.Create(ctx, "customers", ident("t2"), map[string]any{"name": "other", "status": "active"}); err != nil {
		t.Fatalf("seed other: %v", err)
	}

	res, err := acc.List(ctx, "customers", ident("t1"), ListParams{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(res.Items) != 3 {
		t.Fatalf("expected 3 tenant rows, got %d", len(res.Items))
	}
	for _, rec := range res.Items {
		if rec["tenant_id"] != "t1" {
			t.Fatalf("foreign row leaked: %v", rec)
		}
	}
}

func TestListPaginationDisjointPages(t *testing.T) {
	acc, _ := testAccessor(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := acc.Create(ctx, "logs", ident("t1"), map[string]any{"title": "call", "type": "call"}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	page1, err := acc.List(ctx, "logs", ident("t1"), ListParams{Page: 1, Limit: 2})
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	page2, err := acc.List(ctx, "logs", ident("t1"), ListParams{Page: 2, Limit: 2})
	if err != nil {
		t.Fatalf("page 2: %v", err)
	}

	if !page1.HasMore {
		t.Fatal("full first page should report more")
	}
	seen := map[any]bool{}
	for _, rec := range page1.Items {
		seen[rec["id"]] = true
	}
	for _, rec := range page2.Items {
		if seen[rec["id"]] {
			t.Fatalf("pages overlap on %v", rec["id"])
		}
	}
	if len(page1.Items)+len(page2.Items) != 4 {
		t.Fatalf("expected 4 rows across pages, got %d", len(page1.Items)+len(page2.Items))
	}
}

func TestListOrderFallbackTiers(t *testing.T) {
	acc, st := testAccessor(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := acc.Create(ctx, "logs", ident("t1"), map[string]any{"title": "call", "type": "call"}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	// Tier 2: unsupported requested field degrades to created_at.
	st.FailOrderField("log_date")
	res, err := acc.List(ctx, "logs", ident("t1"), ListParams{OrderBy: "log_date", Descending: true})
	if err != nil {
		t.Fatalf("tier 2: %v", err)
	}
	if len(res.Items) != 2 {
		t.Fatalf("tier 2 expected rows, got %d", len(res.Items))
	}

	// Tier 3: missing composite index degrades to unordered.
	st.RequireIndexFor("created_at")
	res, err = acc.List(ctx, "logs", ident("t1"), ListParams{
		Filters: []Equality{{Field: "type", Value: "call"}},
	})
	if err != nil {
		t.Fatalf("tier 3: %v", err)
	}
	if len(res.Items) != 2 {
		t.Fatalf("tier 3 expected rows, got %d", len(res.Items))
	}
}

func TestListSearchPostFilter(t *testing.T) {
	acc, _ := testAccessor(t)
	ctx := context.Background()

	_, _ = acc.Create(ctx, "customers", ident("t1"), map[string]any{"name": "Acme Industries", "email": "hello@acme.io"})
	_, _ = acc.Create(ctx, "customers", ident("t1"), map[string]any{"name": "Bravo Ltd", "email": "ops@bravo.io"})

	res, err := acc.List(ctx, "customers", ident("t1"), ListParams{
		Search:       "ACME",
		SearchFields: []string{"name", "email"},
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0]["name"] != "Acme Industries" {
		t.Fatalf("unexpected search result: %v", res.Items)
	}
}

func TestListTimeRange(t *testing.T) {
	acc, _ := testAccessor(t)
	ctx := context.Background()

	first, _ := acc.Create(ctx, "logs", ident("t1"), map[string]any{"title": "old"})
	cutoff := first["created_at"].(time.Time).Add(time.Nanosecond)
	_, _ = acc.Create(ctx, "logs", ident("t1"), map[string]any{"title": "new"})

	res, err := acc.List(ctx, "logs", ident("t1"), ListParams{
		TimeRange: &TimeRange{From: cutoff},
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0]["title"] != "new" {
		t.Fatalf("unexpected range result: %v", res.Items)
	}
}
