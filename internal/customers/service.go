package customers

import (
	"context"
	"strings"

	"github.com/tanvirhb/crm-backend/internal/identity"
	"github.com/tanvirhb/crm-backend/internal/records"
	pkgerrors "github.com/tanvirhb/crm-backend/pkg/errors"
)

const (
	collectionName           = "customers"
	logsCollectionName       = "logs"
	complaintsCollectionName = "complaints"

	StatusArchived = "archived"
)

// mutableFields is the update allow-list. id, tenant_id, created_at and
// created_by are immutable by construction.
var mutableFields = []string{
	"name", "email", "phone", "company", "address", "city", "state",
	"country", "postal_code", "industry", "type", "status", "tags",
	"secondary_phone", "secondary_email", "website", "notes",
	"last_contact_date",
}

var searchFields = []string{"name", "email", "phone"}

type Service interface {
	Create(ctx context.Context, ident identity.Identity, in CreateInput) (records.Record, error)
	Get(ctx context.Context, ident identity.Identity, id string) (records.Record, error)
	Update(ctx context.Context, ident identity.Identity, id string, patch map[string]any) (records.Record, error)
	Archive(ctx context.Context, ident identity.Identity, id string) error
	List(ctx context.Context, ident identity.Identity, p ListParams) (*records.ListResult, error)
	Logs(ctx context.Context, ident identity.Identity, customerID string, page, limit int) (*records.ListResult, error)
	Complaints(ctx context.Context, ident identity.Identity, customerID string, page, limit int) (*records.ListResult, error)
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

func (s *service) Create(ctx context.Context, ident identity.Identity, in CreateInput) (records.Record, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if strings.TrimSpace(in.Email) == "" && strings.TrimSpace(in.Phone) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email or phone is required")
	}

	fields := map[string]any{
		"name":            in.Name,
		"email":           in.Email,
		"phone":           in.Phone,
		"company":         in.Company,
		"address":         in.Address,
		"city":            in.City,
		"state":           in.State,
		"country":         defaulted(in.Country, "Bangladesh"),
		"postal_code":     in.PostalCode,
		"industry":        in.Industry,
		"type":            defaulted(in.Type, "customer"),
		"status":          defaulted(in.Status, "active"),
		"tags":            toAny(in.Tags),
		"secondary_phone": in.SecondaryPhone,
		"secondary_email": in.SecondaryEmail,
		"website":         in.Website,
		"notes":           in.Notes,
	}
	return s.access.Create(ctx, collectionName, ident, fields)
}

func (s *service) Get(ctx context.Context, ident identity.Identity, id string) (records.Record, error) {
	return s.access.Get(ctx, collectionName, id, ident)
}

func (s *service) Update(ctx context.Context, ident identity.Identity, id string, patch map[string]any) (records.Record, error) {
	return s.access.Update(ctx, collectionName, id, ident, mutableFields, patch)
}

// Archive is the customer's "delete": a status flip, never a removal.
func (s *service) Archive(ctx context.Context, ident identity.Identity, id string) error {
	_, err := s.access.Apply(ctx, collectionName, id, ident, map[string]any{
		"status": StatusArchived,
	})
	return err
}

func (s *service) List(ctx context.Context, ident identity.Identity, p ListParams) (*records.ListResult, error) {
	params := records.ListParams{
		OrderBy:      "name",
		Page:         p.Page,
		Limit:        p.Limit,
		Search:       p.Search,
		SearchFields: searchFields,
	}
	if p.Status != "" {
		params.Filters = append(params.Filters, records.Equality{Field: "status", Value: p.Status})
	}
	if p.Type != "" {
		params.Filters = append(params.Filters, records.Equality{Field: "type", Value: p.Type})
	}
	return s.access.List(ctx, collectionName, ident, params)
}

func (s *service) Logs(ctx context.Context, ident identity.Identity, customerID string, page, limit int) (*records.ListResult, error) {
	if customerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	return s.access.List(ctx, logsCollectionName, ident, records.ListParams{
		Filters:    []records.Equality{{Field: "customer_id", Value: customerID}},
		OrderBy:    "log_date",
		Descending: true,
		Page:       page,
		Limit:      limit,
	})
}

func (s *service) Complaints(ctx context.Context, ident identity.Identity, customerID string, page, limit int) (*records.ListResult, error) {
	if customerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	return s.access.List(ctx, complaintsCollectionName, ident, records.ListParams{
		Filters:    []records.Equality{{Field: "customer_id", Value: customerID}},
		Descending: true,
		Page:       page,
		Limit:      limit,
	})
}

func defaulted(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
