// Package logs manages interaction history entries. Unlike customers and
// complaints these are operational data and delete really deletes.
package logs

import (
	"context"
	"strings"

	"github.com/tanvirhb/crm-backend/internal/identity"
	"github.com/tanvirhb/crm-backend/internal/records"
	"github.com/tanvirhb/crm-backend/internal/store"
	pkgerrors "github.com/tanvirhb/crm-backend/pkg/errors"
	"github.com/tanvirhb/crm-backend/pkg/logger"
)

const (
	collectionName         = "logs"
	customerCollectionName = "customers"
)

var mutableFields = []string{
	"type", "title", "subject", "description", "content", "thread_id",
	"attachments", "tags", "customer_id", "duration", "log_date",
}

var searchFields = []string{"title", "subject", "description", "type"}

type Service interface {
	Create(ctx context.Context, ident identity.Identity, in CreateInput) (records.Record, error)
	Get(ctx context.Context, ident identity.Identity, id string) (records.Record, error)
	Update(ctx context.Context, ident identity.Identity, id string, patch map[string]any) (records.Record, error)
	Delete(ctx context.Context, ident identity.Identity, id string) error
	List(ctx context.Context, ident identity.Identity, p ListParams) (*records.ListResult, error)
}

type service struct {
	access *records.Accessor
	logg   *logger.Logger
}

func NewService(access *records.Accessor, logg *logger.Logger) (Service, error) {
	if access == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "records accessor required")
	}
	return &service{access: access, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, ident identity.Identity, in CreateInput) (records.Record, error) {
	if strings.TrimSpace(in.Type) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "type is required")
	}
	if strings.TrimSpace(in.CustomerID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer_id is required")
	}

	fields := map[string]any{
		"type":        in.Type,
		"customer_id": in.CustomerID,
		"title":       in.Title,
		"subject":     in.Subject,
		"description": in.Description,
		"content":     in.Content,
		"thread_id":   in.ThreadID,
		"attachments": toAny(in.Attachments),
		"tags":        toAny(in.Tags),
		"duration":    in.Duration,
		"log_date":    store.ServerTimestamp,
	}
	rec, err := s.access.Create(ctx, collectionName, ident, fields)
	if err != nil {
		return nil, err
	}

	// Best effort: advance the customer's last contact time. A failure here
	// must not fail the log write.
	touchErr := s.access.Touch(ctx, customerCollectionName, in.CustomerID, map[string]any{
		"last_contact_date": store.ServerTimestamp,
		"updated_at":        store.ServerTimestamp,
	})
	if touchErr != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "customer_id", in.CustomerID), "logs.touch_customer_failed")
	}
	return rec, nil
}

func (s *service) Get(ctx context.Context, ident identity.Identity, id string) (records.Record, error) {
	return s.access.Get(ctx, collectionName, id, ident)
}

func (s *service) Update(ctx context.Context, ident identity.Identity, id string, patch map[string]any) (records.Record, error) {
	return s.access.Update(ctx, collectionName, id, ident, mutableFields, patch)
}

// Delete is a hard delete. Interaction logs carry no soft-delete state.
func (s *service) Delete(ctx context.Context, ident identity.Identity, id string) error {
	return s.access.Delete(ctx, collectionName, id, ident)
}

func (s *service) List(ctx context.Context, ident identity.Identity, p ListParams) (*records.ListResult, error) {
	params := records.ListParams{
		OrderBy:      p.OrderBy,
		Descending:   p.Descending,
		Page:         p.Page,
		Limit:        p.Limit,
		Search:       p.Search,
		SearchFields: searchFields,
	}
	if p.OrderBy == "" {
		params.OrderBy = records.DefaultOrderField
		params.Descending = true
	}
	if p.CustomerID != "" {
		params.Filters = append(params.Filters, records.Equality{Field: "customer_id", Value: p.CustomerID})
	}
	if p.Type != "" {
		params.Filters = append(params.Filters, records.Equality{Field: "type", Value: p.Type})
	}
	if !p.From.IsZero() || !p.To.IsZero() {
		params.TimeRange = &records.TimeRange{From: p.From, To: p.To}
	}
	return s.access.List(ctx, collectionName, ident, params)
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
