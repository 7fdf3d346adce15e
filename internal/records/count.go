package records

import (
	"context"

	"github.com/tanvirhb/crm-backend/internal/identity"
	pkgerrors "github.com/tanvirhb/crm-backend/pkg/errors"
)

// Condition is a raw store predicate for aggregate counts, where the set
// membership and range operators matter and equality alone is not enough.
type Condition struct {
	Field string
	Op    string
	Value any
}

// Count returns the number of tenant documents matching the conditions. The
// tenant predicate still comes first; unlike List, errors surface so callers
// can decide how to degrade.
func (a *Accessor) Count(ctx context.Context, collection string, ident identity.Identity, conds []Condition) (int, error) {
	q := a.store.Collection(collection).Query().Where("tenant_id", "==", ident.TenantID)
	for _, c := range conds {
		q = q.Where(c.Field, c.Op, c.Value)
	}
	snaps, err := q.Documents(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count records")
	}
	n := 0
	for _, snap := range snaps {
		if tenant, _ := snap.Data()["tenant_id"].(string); tenant == ident.TenantID {
			n++
		}
	}
	return n, nil
}
