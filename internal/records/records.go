// Package records is the single choke point for tenant-scoped collection
// access. Every list query gets the tenant predicate first; every by-id
// operation is fetch-then-check. No handler touches a collection directly.
package records

import (
	"context"

	"github.com/tanvirhb/crm-backend/internal/identity"
	"github.com/tanvirhb/crm-backend/internal/store"
	pkgerrors "github.com/tanvirhb/crm-backend/pkg/errors"
	"github.com/tanvirhb/crm-backend/pkg/logger"
)

// Record is a document with its id folded in, the shape handlers serialize.
type Record map[string]any

// Accessor wraps the injected store handle with tenant enforcement.
type Accessor struct {
	store store.Store
	logg  *logger.Logger
}

func NewAccessor(st store.Store, logg *logger.Logger) (*Accessor, error) {
	if st == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "store handle required")
	}
	return &Accessor{store: st, logg: logg}, nil
}

// Create writes a new document with a store-assigned id, server timestamps,
// and ownership fields taken from the acting identity. Caller-supplied
// tenant or audit fields never survive.
func (a *Accessor) Create(ctx context.Context, collection string, ident identity.Identity, fields map[string]any) (Record, error) {
	doc := a.store.Collection(collection).NewDoc()

	data := make(map[string]any, len(fields)+4)
	for k, v := range fields {
		data[k] = v
	}
	data["tenant_id"] = ident.TenantID
	data["created_by"] = ident.Subject
	data["created_at"] = store.ServerTimestamp
	data["updated_at"] = store.ServerTimestamp

	if err := doc.Set(ctx, data); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create record")
	}

	// Re-read so resolved server timestamps come back to the caller.
	snap, err := doc.Get(ctx)
	if err != nil || !snap.Exists() {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read back created record")
	}
	return asRecord(snap), nil
}

// Get fetches by id and only then verifies tenant ownership. A mismatch is
// Forbidden, not NotFound: cross-tenant probes stay detectable.
func (a *Accessor) Get(ctx context.Context, collection, id string, ident identity.Identity) (Record, error) {
	snap, err := a.fetchOwned(ctx, collection, id, ident)
	if err != nil {
		return nil, err
	}
	return asRecord(snap), nil
}

// Update merges only the allow-listed fields and refreshes the update
// timestamp. Omitted fields are preserved.
func (a *Accessor) Update(ctx context.Context, collection, id string, ident identity.Identity, allowed []string, patch map[string]any) (Record, error) {
	if _, err := a.fetchOwned(ctx, collection, id, ident); err != nil {
		return nil, err
	}

	allowedSet := make(map[string]bool, len(allowed))
	for _, f := range allowed {
		allowedSet[f] = true
	}

	delta := make(map[string]any)
	for k, v := range patch {
		if allowedSet[k] {
			delta[k] = v
		}
	}
	if len(delta) > 0 {
		delta["updated_at"] = store.ServerTimestamp
		if err := a.store.Collection(collection).Doc(id).Merge(ctx, delta); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update record")
		}
	}
	return a.Get(ctx, collection, id, ident)
}

// Apply runs a raw field update (status flips, array unions) after the
// ownership check. The caller owns the update's contents.
func (a *Accessor) Apply(ctx context.Context, collection, id string, ident identity.Identity, update map[string]any) (Record, error) {
	if _, err := a.fetchOwned(ctx, collection, id, ident); err != nil {
		return nil, err
	}
	if err := a.store.Collection(collection).Doc(id).Update(ctx, update); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply update")
	}
	return a.Get(ctx, collection, id, ident)
}

// Delete removes the document after the ownership check.
func (a *Accessor) Delete(ctx context.Context, collection, id string, ident identity.Identity) error {
	if _, err := a.fetchOwned(ctx, collection, id, ident); err != nil {
		return err
	}
	if err := a.store.Collection(collection).Doc(id).Delete(ctx); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete record")
	}
	return nil
}

// Touch merges fields into a document without the ownership check. Reserved
// for best-effort side writes (e.g. advancing a customer's last contact
// time); callers must swallow the error.
func (a *Accessor) Touch(ctx context.Context, collection, id string, fields map[string]any) error {
	return a.store.Collection(collection).Doc(id).Update(ctx, fields)
}

func (a *Accessor) fetchOwned(ctx context.Context, collection, id string, ident identity.Identity) (store.Snapshot, error) {
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "document id required")
	}
	snap, err := a.store.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch record")
	}
	if !snap.Exists() {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "record not found")
	}
	if tenant, _ := snap.Data()["tenant_id"].(string); tenant != ident.TenantID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cross-tenant access")
	}
	return snap, nil
}

func asRecord(snap store.Snapshot) Record {
	data := snap.Data()
	rec := make(Record, len(data)+1)
	for k, v := range data {
		rec[k] = v
	}
	rec["id"] = snap.ID()
	return rec
}
