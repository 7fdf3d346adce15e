package records

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tanvirhb/crm-backend/internal/identity"
	"github.com/tanvirhb/crm-backend/internal/store"
	"github.com/tanvirhb/crm-backend/pkg/pagination"
)

// DefaultOrderField is the ordering used when the caller asks for nothing or
// for a field the store cannot order by.
const DefaultOrderField = "created_at"

// Equality is a single equality filter applied after the tenant predicate.
type Equality struct {
	Field string
	Value any
}

// TimeRange is an inclusive bound on a timestamp field. Zero bounds are
// skipped.
type TimeRange struct {
	Field string
	From  time.Time
	To    time.Time
}

// ListParams configures one tenant-scoped list query.
type ListParams struct {
	Filters   []Equality
	TimeRange *TimeRange

	OrderBy    string
	Descending bool

	Page  int
	Limit int

	// Search is matched case-insensitively, as a substring, over
	// SearchFields after the store-level query. Matches beyond the fetched
	// page are invisible; an accepted limitation.
	Search       string
	SearchFields []string
}

// ListResult carries one page plus the pagination echo the dashboard needs.
type ListResult struct {
	Items   []Record `json:"items"`
	Page    int      `json:"page"`
	Limit   int      `json:"limit"`
	HasMore bool     `json:"hasMore"`
	Total   int      `json:"total"`
}

// List executes the query with a degrading strategy chain: requested order,
// then default creation-time order, then no order at all. Storage failures
// are logged, never surfaced; the dashboard prefers a thin page over a 500.
func (a *Accessor) List(ctx context.Context, collection string, ident identity.Identity, p ListParams) (*ListResult, error) {
	page := pagination.NormalizePage(p.Page)
	limit := pagination.NormalizeLimit(p.Limit)
	offset := (page - 1) * limit

	orderField := strings.TrimSpace(p.OrderBy)
	if orderField == "" {
		orderField = DefaultOrderField
		p.Descending = true
	}

	base := func() store.Query {
		q := a.store.Collection(collection).Query().Where("tenant_id", "==", ident.TenantID)
		for _, f := range p.Filters {
			q = q.Where(f.Field, "==", f.Value)
		}
		if tr := p.TimeRange; tr != nil {
			field := tr.Field
			if field == "" {
				field = DefaultOrderField
			}
			if !tr.From.IsZero() {
				q = q.Where(field, ">=", tr.From)
			}
			if !tr.To.IsZero() {
				q = q.Where(field, "<=", tr.To)
			}
		}
		return q.Offset(offset).Limit(limit)
	}

	dir := store.Ascending
	if p.Descending {
		dir = store.Descending
	}

	snaps, err := base().OrderBy(orderField, dir).Documents(ctx)
	if err != nil && errors.Is(err, store.ErrUnsupportedOrderField) && orderField != DefaultOrderField {
		a.warn(ctx, "query.order_field_fallback", err)
		snaps, err = base().OrderBy(DefaultOrderField, dir).Documents(ctx)
	}
	if err != nil && errors.Is(err, store.ErrMissingIndex) {
		a.warn(ctx, "query.unordered_fallback", err)
		snaps, err = base().Documents(ctx)
	}
	if err != nil {
		a.warn(ctx, "query.degraded_to_empty", err)
		snaps = nil
	}

	items := make([]Record, 0, len(snaps))
	for _, snap := range snaps {
		// The base filter already scopes the query; kept as a guard.
		if tenant, _ := snap.Data()["tenant_id"].(string); tenant != ident.TenantID {
			continue
		}
		items = append(items, asRecord(snap))
	}

	if term := strings.ToLower(strings.TrimSpace(p.Search)); term != "" && len(p.SearchFields) > 0 {
		items = searchFilter(items, term, p.SearchFields)
	}

	return &ListResult{
		Items:   items,
		Page:    page,
		Limit:   limit,
		HasMore: pagination.HasMore(len(items), limit),
		Total:   len(items),
	}, nil
}

func searchFilter(items []Record, term string, fields []string) []Record {
	out := items[:0]
	for _, rec := range items {
		var hay strings.Builder
		for _, f := range fields {
			if v, ok := rec[f].(string); ok {
				hay.WriteString(strings.ToLower(v))
				hay.WriteByte(' ')
			}
		}
		if strings.Contains(hay.String(), term) {
			out = append(out, rec)
		}
	}
	return out
}

func (a *Accessor) warn(ctx context.Context, msg string, err error) {
	if a.logg == nil {
		return
	}
	a.logg.Warn(a.logg.WithField(ctx, "cause", err.Error()), msg)
}
