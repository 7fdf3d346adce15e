// Package firestorestore adapts a Firestore client to the store interfaces.
package firestorestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tanvirhb/crm-backend/internal/store"
)

type Store struct {
	client *firestore.Client
}

func New(client *firestore.Client) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("firestore client required")
	}
	return &Store{client: client}, nil
}

func (s *Store) Collection(name string) store.Collection {
	return collection{ref: s.client.Collection(name)}
}

// Ping issues a cheap single-document read to confirm connectivity.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.Collection("users").Limit(1).Documents(ctx).GetAll()
	return err
}

func (s *Store) Close() error {
	return s.client.Close()
}

type collection struct {
	ref *firestore.CollectionRef
}

func (c collection) Doc(id string) store.Doc {
	return doc{ref: c.ref.Doc(id)}
}

func (c collection) NewDoc() store.Doc {
	return doc{ref: c.ref.NewDoc()}
}

func (c collection) Query() store.Query {
	return query{q: c.ref.Query}
}

type doc struct {
	ref *firestore.DocumentRef
}

func (d doc) ID() string {
	return d.ref.ID
}

func (d doc) Get(ctx context.Context) (store.Snapshot, error) {
	snap, err := d.ref.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return snapshot{id: d.ref.ID}, nil
		}
		return nil, err
	}
	return snapshot{id: snap.Ref.ID, exists: snap.Exists(), data: snap.Data()}, nil
}

func (d doc) Set(ctx context.Context, data map[string]any) error {
	_, err := d.ref.Set(ctx, translate(data))
	return err
}

func (d doc) Merge(ctx context.Context, data map[string]any) error {
	_, err := d.ref.Set(ctx, translate(data), firestore.MergeAll)
	return err
}

func (d doc) Update(ctx context.Context, data map[string]any) error {
	updates := make([]firestore.Update, 0, len(data))
	for field, value := range data {
		updates = append(updates, firestore.Update{Path: field, Value: translateValue(value)})
	}
	_, err := d.ref.Update(ctx, updates)
	return err
}

func (d doc) Delete(ctx context.Context) error {
	_, err := d.ref.Delete(ctx)
	return err
}

type snapshot struct {
	id     string
	exists bool
	data   map[string]any
}

func (s snapshot) ID() string           { return s.id }
func (s snapshot) Exists() bool         { return s.exists }
func (s snapshot) Data() map[string]any { return s.data }

type query struct {
	q firestore.Query
}

func (q query) Where(field, op string, value any) store.Query {
	return query{q: q.q.Where(field, op, value)}
}

func (q query) OrderBy(field string, dir store.Direction) store.Query {
	d := firestore.Asc
	if dir == store.Descending {
		d = firestore.Desc
	}
	return query{q: q.q.OrderBy(field, d)}
}

func (q query) Offset(n int) store.Query {
	return query{q: q.q.Offset(n)}
}

func (q query) Limit(n int) store.Query {
	return query{q: q.q.Limit(n)}
}

func (q query) Documents(ctx context.Context) ([]store.Snapshot, error) {
	snaps, err := q.q.Documents(ctx).GetAll()
	if err != nil {
		return nil, classify(err)
	}
	out := make([]store.Snapshot, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, snapshot{id: s.Ref.ID, exists: s.Exists(), data: s.Data()})
	}
	return out, nil
}

// classify maps Firestore's gRPC failures onto the typed query errors the
// resilient executor falls back on.
func classify(err error) error {
	switch status.Code(err) {
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %v", store.ErrUnsupportedOrderField, err)
	case codes.FailedPrecondition:
		return fmt.Errorf("%w: %v", store.ErrMissingIndex, err)
	default:
		return err
	}
}

// translate rewrites sentinel values into their Firestore equivalents,
// walking nested maps.
func translate(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = translateValue(v)
	}
	return out
}

func translateValue(v any) any {
	switch val := v.(type) {
	case store.Union:
		return firestore.ArrayUnion(val.Values...)
	case map[string]any:
		return translate(val)
	default:
		if v == store.ServerTimestamp {
			return firestore.ServerTimestamp
		}
		return v
	}
}
