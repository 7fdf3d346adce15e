// Package search runs the global dashboard search: one term matched over a
// fixed field set per scope, tenant-scoped like every other read.
package search

import (
	"context"
	"strings"

	"github.com/tanvirhb/crm-backend/internal/identity"
	"github.com/tanvirhb/crm-backend/internal/records"
	pkgerrors "github.com/tanvirhb/crm-backend/pkg/errors"
)

const (
	ScopeCustomers  = "customers"
	ScopeLogs       = "logs"
	ScopeComplaints = "complaints"

	// fetchLimit caps how many rows each scope scans; the match is a
	// client-side substring filter, so scanning everything is off the table.
	fetchLimit = 100

	defaultScopeLimit = 10
)

var scopeFields = map[string][]string{
	ScopeCustomers:  {"name", "email", "phone", "company"},
	ScopeLogs:       {"title", "description", "content", "type"},
	ScopeComplaints: {"title", "description", "category", "ticket_number"},
}

// Params selects the scopes to search and the per-scope result cap.
type Params struct {
	Term   string
	Scopes []string
	Limit  int
}

// Result maps scope name to its matches.
type Result map[string][]records.Record

type Service interface {
	Search(ctx context.Context, ident identity.Identity, p Params) (Result, error)
}

type service struct {
	access *records.Accessor
}

func NewService(access *records.Accessor) (Service, error) {
	if access == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "records accessor required")
	}
	return &service{access: access}, nil
}

func (s *service) Search(ctx context.Context, ident identity.Identity, p Params) (Result, error) {
	term := strings.TrimSpace(p.Term)
	if term == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "search term is required")
	}

	scopes := p.Scopes
	if len(scopes) == 0 {
		scopes = []string{ScopeCustomers, ScopeLogs, ScopeComplaints}
	}
	limit := p.Limit
	if limit <= 0 || limit > defaultScopeLimit {
		limit = defaultScopeLimit
	}

	out := make(Result, len(scopes))
	for _, scope := range scopes {
		fields, ok := scopeFields[scope]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown search scope").
				WithDetails(map[string]any{"scope": scope})
		}
		res, err := s.access.List(ctx, scope, ident, records.ListParams{
			Descending:   true,
			Limit:        fetchLimit,
			Search:       term,
			SearchFields: fields,
		})
		if err != nil {
			return nil, err
		}
		items := res.Items
		if len(items) > limit {
			items = items[:limit]
		}
		out[scope] = items
	}
	return out, nil
}
