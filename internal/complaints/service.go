// Package complaints manages support tickets: creation with generated ticket
// numbers, a status state machine with transition-specific date stamps, and
// append-only comment and timeline trails.
package complaints

import (
	"context"
	"strings"
	"time"

	"github.com/tanvirhb/crm-backend/internal/identity"
	"github.com/tanvirhb/crm-backend/internal/records"
	"github.com/tanvirhb/crm-backend/internal/store"
	pkgerrors "github.com/tanvirhb/crm-backend/pkg/errors"
)

const (
	collectionName = "complaints"

	StatusNew          = "new"
	StatusAcknowledged = "acknowledged"
	StatusInProgress   = "in_progress"
	StatusResolved     = "resolved"
	StatusClosed       = "closed"

	ticketPrefix = "COMP-"

	// timelineDetailMax bounds timeline entry details so one verbose comment
	// cannot bloat the document.
	timelineDetailMax = 140
)

var validStatuses = map[string]bool{
	StatusNew:          true,
	StatusAcknowledged: true,
	StatusInProgress:   true,
	StatusResolved:     true,
	StatusClosed:       true,
}

var mutableFields = []string{
	"title", "description", "category", "severity", "priority",
	"assigned_to", "attachments", "customer_id",
}

var searchFields = []string{"title", "description", "category", "ticket_number"}

type Service interface {
	Create(ctx context.Context, ident identity.Identity, in CreateInput) (records.Record, error)
	Get(ctx context.Context, ident identity.Identity, id string) (records.Record, error)
	Update(ctx context.Context, ident identity.Identity, id string, patch map[string]any) (records.Record, error)
	UpdateStatus(ctx context.Context, ident identity.Identity, id string, in StatusInput) (records.Record, error)
	AddInternalComment(ctx context.Context, ident identity.Identity, id, comment string) (records.Record, error)
	AddCustomerUpdate(ctx context.Context, ident identity.Identity, id, message string) (records.Record, error)
	Assign(ctx context.Context, ident identity.Identity, id, assignee string) (records.Record, error)
	Close(ctx context.Context, ident identity.Identity, id string) error
	List(ctx context.Context, ident identity.Identity, p ListParams) (*records.ListResult, error)
}

type service struct {
	access *records.Accessor
	now    func() time.Time
}

func NewService(access *records.Accessor) (Service, error) {
	if access == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "records accessor required")
	}
	return &service{access: access, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *service) Create(ctx context.Context, ident identity.Identity, in CreateInput) (records.Record, error) {
	if strings.TrimSpace(in.CustomerID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer_id is required")
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}

	fields := map[string]any{
		"customer_id":       in.CustomerID,
		"title":             in.Title,
		"description":       in.Description,
		"category":          defaulted(in.Category, "other"),
		"severity":          defaulted(in.Severity, "low"),
		"priority":          in.Priority,
		"assigned_to":       in.AssignedTo,
		"attachments":       toAny(in.Attachments),
		"status":            StatusNew,
		"timeline":          []any{},
		"internal_comments": []any{},
		"customer_updates":  []any{},
	}
	rec, err := s.access.Create(ctx, collectionName, ident, fields)
	if err != nil {
		return nil, err
	}

	// The ticket number derives from the store-assigned id, so it lands in a
	// follow-up write.
	id, _ := rec["id"].(string)
	return s.access.Apply(ctx, collectionName, id, ident, map[string]any{
		"ticket_number": ticketNumber(id),
	})
}

func (s *service) Get(ctx context.Context, ident identity.Identity, id string) (records.Record, error) {
	return s.access.Get(ctx, collectionName, id, ident)
}

func (s *service) Update(ctx context.Context, ident identity.Identity, id string, patch map[string]any) (records.Record, error) {
	return s.access.Update(ctx, collectionName, id, ident, mutableFields, patch)
}

// UpdateStatus runs one state-machine transition. Each target status stamps
// its own dates: acknowledged only on the first hop out of new, resolved
// snapshots a resolution block, closed always stamps the closing date.
func (s *service) UpdateStatus(ctx context.Context, ident identity.Identity, id string, in StatusInput) (records.Record, error) {
	status := strings.ToLower(strings.TrimSpace(in.Status))
	if !validStatuses[status] {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status").
			WithDetails(map[string]any{"status": in.Status})
	}

	current, err := s.access.Get(ctx, collectionName, id, ident)
	if err != nil {
		return nil, err
	}
	prior, _ := current["status"].(string)

	update := map[string]any{
		"status":     status,
		"updated_at": store.ServerTimestamp,
		"timeline": store.ArrayUnion(
			s.timelineEntry(ident, "status_changed", prior+" -> "+status),
		),
	}
	switch status {
	case StatusAcknowledged:
		if prior == StatusNew {
			update["acknowledged_date"] = store.ServerTimestamp
		}
	case StatusResolved:
		update["resolved_date"] = store.ServerTimestamp
		update["resolution"] = map[string]any{
			"notes":                 in.ResolutionNotes,
			"customer_satisfaction": in.CustomerSatisfaction,
			"resolved_at":           store.ServerTimestamp,
			"resolved_by":           ident.Subject,
		}
	case StatusClosed:
		update["closed_date"] = store.ServerTimestamp
	}

	return s.access.Apply(ctx, collectionName, id, ident, update)
}

// AddInternalComment appends a staff-only note plus a timeline entry. Entries
// carry concrete timestamps; the backend rejects server-timestamp sentinels
// inside array elements.
func (s *service) AddInternalComment(ctx context.Context, ident identity.Identity, id, comment string) (records.Record, error) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "comment is required")
	}
	at := s.now()
	return s.access.Apply(ctx, collectionName, id, ident, map[string]any{
		"updated_at": store.ServerTimestamp,
		"internal_comments": store.ArrayUnion(map[string]any{
			"user_id":   ident.Subject,
			"comment":   comment,
			"timestamp": at,
		}),
		"timeline": store.ArrayUnion(s.timelineEntryAt(ident, "internal_comment", comment, at)),
	})
}

// AddCustomerUpdate appends a customer-visible message plus a timeline entry.
func (s *service) AddCustomerUpdate(ctx context.Context, ident identity.Identity, id, message string) (records.Record, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message is required")
	}
	at := s.now()
	return s.access.Apply(ctx, collectionName, id, ident, map[string]any{
		"updated_at": store.ServerTimestamp,
		"customer_updates": store.ArrayUnion(map[string]any{
			"user_id":   ident.Subject,
			"message":   message,
			"timestamp": at,
		}),
		"timeline": store.ArrayUnion(s.timelineEntryAt(ident, "customer_update", message, at)),
	})
}

func (s *service) Assign(ctx context.Context, ident identity.Identity, id, assignee string) (records.Record, error) {
	if strings.TrimSpace(assignee) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignee is required")
	}
	return s.access.Apply(ctx, collectionName, id, ident, map[string]any{
		"assigned_to": assignee,
		"updated_at":  store.ServerTimestamp,
		"timeline":    store.ArrayUnion(s.timelineEntry(ident, "assigned", assignee)),
	})
}

// Close is the complaint's "delete": tickets are never removed, only closed.
func (s *service) Close(ctx context.Context, ident identity.Identity, id string) error {
	_, err := s.UpdateStatus(ctx, ident, id, StatusInput{Status: StatusClosed})
	return err
}

func (s *service) List(ctx context.Context, ident identity.Identity, p ListParams) (*records.ListResult, error) {
	params := records.ListParams{
		Descending:   true,
		Page:         p.Page,
		Limit:        p.Limit,
		Search:       p.Search,
		SearchFields: searchFields,
	}
	if p.CustomerID != "" {
		params.Filters = append(params.Filters, records.Equality{Field: "customer_id", Value: p.CustomerID})
	}
	if p.Status != "" {
		params.Filters = append(params.Filters, records.Equality{Field: "status", Value: p.Status})
	}
	if p.AssignedTo != "" {
		params.Filters = append(params.Filters, records.Equality{Field: "assigned_to", Value: p.AssignedTo})
	}
	return s.access.List(ctx, collectionName, ident, params)
}

func (s *service) timelineEntry(ident identity.Identity, action, detail string) map[string]any {
	return s.timelineEntryAt(ident, action, detail, s.now())
}

func (s *service) timelineEntryAt(ident identity.Identity, action, detail string, at time.Time) map[string]any {
	return map[string]any{
		"timestamp": at,
		"action":    action,
		"user_id":   ident.Subject,
		"details":   truncate(detail, timelineDetailMax),
	}
}

func ticketNumber(id string) string {
	short := id
	if len(short) > 4 {
		short = short[:4]
	}
	return ticketPrefix + strings.ToUpper(short)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
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
