// Package metrics computes the dashboard summary counters. Every counter is
// tenant-scoped, and a storage failure yields a zeroed summary flagged as
// degraded rather than an error; the dashboard renders zeros, not a 500.
package metrics

import (
	"context"
	"time"

	"github.com/tanvirhb/crm-backend/internal/complaints"
	"github.com/tanvirhb/crm-backend/internal/identity"
	"github.com/tanvirhb/crm-backend/internal/records"
	pkgerrors "github.com/tanvirhb/crm-backend/pkg/errors"
	"github.com/tanvirhb/crm-backend/pkg/logger"
)

const recentWindow = 7 * 24 * time.Hour

// Summary is the dashboard counter block.
type Summary struct {
	TotalCustomers  int  `json:"total_customers"`
	ActiveCustomers int  `json:"active_customers"`
	OpenComplaints  int  `json:"open_complaints"`
	RecentLogs      int  `json:"recent_logs"`
	MonthlyLogs     int  `json:"monthly_logs"`
	Degraded        bool `json:"degraded,omitempty"`
}

var countedCustomerStatuses = []any{"active", "prospect", "inactive"}

var openComplaintStatuses = []any{
	complaints.StatusNew,
	complaints.StatusAcknowledged,
	complaints.StatusInProgress,
}

type Service interface {
	Summary(ctx context.Context, ident identity.Identity) Summary
}

type service struct {
	access *records.Accessor
	logg   *logger.Logger
	now    func() time.Time
}

func NewService(access *records.Accessor, logg *logger.Logger) (Service, error) {
	if access == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "records accessor required")
	}
	return &service{access: access, logg: logg, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *service) Summary(ctx context.Context, ident identity.Identity) Summary {
	now := s.now()
	weekAgo := now.Add(-recentWindow)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	var out Summary
	counts := []struct {
		dest       *int
		collection string
		conds      []records.Condition
	}{
		{&out.TotalCustomers, "customers", []records.Condition{
			{Field: "status", Op: "in", Value: countedCustomerStatuses},
		}},
		{&out.ActiveCustomers, "customers", []records.Condition{
			{Field: "status", Op: "==", Value: "active"},
		}},
		{&out.OpenComplaints, "complaints", []records.Condition{
			{Field: "status", Op: "in", Value: openComplaintStatuses},
		}},
		{&out.RecentLogs, "logs", []records.Condition{
			{Field: "created_at", Op: ">=", Value: weekAgo},
		}},
		{&out.MonthlyLogs, "logs", []records.Condition{
			{Field: "created_at", Op: ">=", Value: monthStart},
		}},
	}

	for _, c := range counts {
		n, err := s.access.Count(ctx, c.collection, ident, c.conds)
		if err != nil {
			if s.logg != nil {
				s.logg.Warn(s.logg.WithField(ctx, "collection", c.collection), "metrics.count_failed")
			}
			return Summary{Degraded: true}
		}
		*c.dest = n
	}
	return out
}
