// Package memstore is an in-memory store.Store used by tests. It mirrors the
// production backend's semantics where the access layer depends on them:
// server-assigned timestamps, set-union array appends with duplicate
// collapse, equality/range filters, ordering, and offset pagination. Query
// failures can be injected per order field to force each fallback tier.
package memstore

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tanvirhb/crm-backend/internal/store"
)

type Store struct {
	mu          sync.Mutex
	collections map[string]map[string]map[string]any

	unsupportedOrder map[string]bool
	missingIndex     map[string]bool
	failQueries      map[string]bool

	lastStamp time.Time
}

func New() *Store {
	return &Store{
		collections:      make(map[string]map[string]map[string]any),
		unsupportedOrder: make(map[string]bool),
		missingIndex:     make(map[string]bool),
		failQueries:      make(map[string]bool),
	}
}

// FailOrderField makes any query ordered by the given field fail with
// ErrUnsupportedOrderField.
func (s *Store) FailOrderField(field string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unsupportedOrder[field] = true
}

// RequireIndexFor makes queries that order by the given field while carrying
// more than one filter fail with ErrMissingIndex, imitating a missing
// composite index.
func (s *Store) RequireIndexFor(field string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.missingIndex[field] = true
}

// FailCollection makes every query against the named collection fail with a
// generic storage error.
func (s *Store) FailCollection(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failQueries[name] = true
}

func (s *Store) Collection(name string) store.Collection {
	return collection{store: s, name: name}
}

func (s *Store) Ping(context.Context) error { return nil }

// stamp returns a strictly increasing server timestamp so that documents
// written back to back still order deterministically.
func (s *Store) stamp() time.Time {
	now := time.Now().UTC()
	if !now.After(s.lastStamp) {
		now = s.lastStamp.Add(time.Microsecond)
	}
	s.lastStamp = now
	return now
}

func (s *Store) docs(name string) map[string]map[string]any {
	col, ok := s.collections[name]
	if !ok {
		col = make(map[string]map[string]any)
		s.collections[name] = col
	}
	return col
}

type collection struct {
	store *Store
	name  string
}

func (c collection) Doc(id string) store.Doc {
	return doc{store: c.store, collection: c.name, id: id}
}

func (c collection) NewDoc() store.Doc {
	return doc{store: c.store, collection: c.name, id: strings.ReplaceAll(uuid.NewString(), "-", "")[:20]}
}

func (c collection) Query() store.Query {
	return query{store: c.store, collection: c.name}
}

type doc struct {
	store      *Store
	collection string
	id         string
}

func (d doc) ID() string { return d.id }

func (d doc) Get(context.Context) (store.Snapshot, error) {
	d.store.mu.Lock()
	defer d.store.mu.Unlock()

	data, ok := d.store.docs(d.collection)[d.id]
	if !ok {
		return snapshot{id: d.id}, nil
	}
	return snapshot{id: d.id, exists: true, data: deepCopy(data)}, nil
}

func (d doc) Set(_ context.Context, data map[string]any) error {
	d.store.mu.Lock()
	defer d.store.mu.Unlock()

	d.store.docs(d.collection)[d.id] = d.store.resolve(data, nil)
	return nil
}

func (d doc) Merge(_ context.Context, data map[string]any) error {
	d.store.mu.Lock()
	defer d.store.mu.Unlock()

	existing := d.store.docs(d.collection)[d.id]
	if existing == nil {
		existing = make(map[string]any)
	}
	for k, v := range d.store.resolve(data, existing) {
		existing[k] = v
	}
	d.store.docs(d.collection)[d.id] = existing
	return nil
}

func (d doc) Update(_ context.Context, data map[string]any) error {
	d.store.mu.Lock()
	defer d.store.mu.Unlock()

	existing, ok := d.store.docs(d.collection)[d.id]
	if !ok {
		return fmt.Errorf("memstore: update of missing document %s/%s", d.collection, d.id)
	}
	for k, v := range d.store.resolve(data, existing) {
		existing[k] = v
	}
	return nil
}

func (d doc) Delete(context.Context) error {
	d.store.mu.Lock()
	defer d.store.mu.Unlock()

	delete(d.store.docs(d.collection), d.id)
	return nil
}

// resolve materializes sentinel values against the current document state.
// Union appends merge into the existing slice with exact duplicates dropped.
func (s *Store) resolve(data map[string]any, existing map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		switch val := v.(type) {
		case store.Union:
			var current []any
			if existing != nil {
				if slice, ok := existing[k].([]any); ok {
					current = append(current, slice...)
				}
			}
			for _, item := range val.Values {
				item = s.resolveValue(item)
				if !containsValue(current, item) {
					current = append(current, item)
				}
			}
			out[k] = current
		default:
			out[k] = s.resolveValue(v)
		}
	}
	return out
}

func (s *Store) resolveValue(v any) any {
	if v == store.ServerTimestamp {
		return s.stamp()
	}
	if m, ok := v.(map[string]any); ok {
		return s.resolve(m, nil)
	}
	return deepCopyValue(v)
}

func containsValue(slice []any, v any) bool {
	for _, item := range slice {
		if reflect.DeepEqual(item, v) {
			return true
		}
	}
	return false
}

type snapshot struct {
	id     string
	exists bool
	data   map[string]any
}

func (s snapshot) ID() string           { return s.id }
func (s snapshot) Exists() bool         { return s.exists }
func (s snapshot) Data() map[string]any { return s.data }

type filter struct {
	field string
	op    string
	value any
}

type query struct {
	store      *Store
	collection string
	filters    []filter
	orderField string
	orderDir   store.Direction
	offset     int
	limit      int
}

func (q query) Where(field, op string, value any) store.Query {
	q.filters = append(append([]filter(nil), q.filters...), filter{field: field, op: op, value: value})
	return q
}

func (q query) OrderBy(field string, dir store.Direction) store.Query {
	q.orderField = field
	q.orderDir = dir
	return q
}

func (q query) Offset(n int) store.Query {
	q.offset = n
	return q
}

func (q query) Limit(n int) store.Query {
	q.limit = n
	return q
}

func (q query) Documents(context.Context) ([]store.Snapshot, error) {
	q.store.mu.Lock()
	defer q.store.mu.Unlock()

	if q.store.failQueries[q.collection] {
		return nil, fmt.Errorf("memstore: query failure injected for %s", q.collection)
	}
	if q.orderField != "" {
		if q.store.unsupportedOrder[q.orderField] {
			return nil, fmt.Errorf("%w: %s", store.ErrUnsupportedOrderField, q.orderField)
		}
		if q.store.missingIndex[q.orderField] && len(q.filters) > 1 {
			return nil, fmt.Errorf("%w: order by %s with %d filters", store.ErrMissingIndex, q.orderField, len(q.filters))
		}
	}

	type row struct {
		id   string
		data map[string]any
	}
	var rows []row
	for id, data := range q.store.docs(q.collection) {
		if matches(data, q.filters) {
			rows = append(rows, row{id: id, data: data})
		}
	}

	if q.orderField != "" {
		// Documents missing the order field are excluded, as the backend does.
		kept := rows[:0]
		for _, r := range rows {
			if _, ok := r.data[q.orderField]; ok {
				kept = append(kept, r)
			}
		}
		rows = kept
		sort.SliceStable(rows, func(i, j int) bool {
			c, _ := compareValues(rows[i].data[q.orderField], rows[j].data[q.orderField])
			if q.orderDir == store.Descending {
				return c > 0
			}
			return c < 0
		})
	} else {
		// Store-default order: stable by document id.
		sort.Slice(rows, func(i, j int) bool { return rows[i].id < rows[j].id })
	}

	if q.offset > 0 {
		if q.offset >= len(rows) {
			rows = nil
		} else {
			rows = rows[q.offset:]
		}
	}
	if q.limit > 0 && len(rows) > q.limit {
		rows = rows[:q.limit]
	}

	out := make([]store.Snapshot, 0, len(rows))
	for _, r := range rows {
		out = append(out, snapshot{id: r.id, exists: true, data: deepCopy(r.data)})
	}
	return out, nil
}

func matches(data map[string]any, filters []filter) bool {
	for _, f := range filters {
		value, ok := data[f.field]
		if !ok {
			return false
		}
		switch f.op {
		case "==":
			if !reflect.DeepEqual(value, f.value) {
				return false
			}
		case ">=":
			c, ok := compareValues(value, f.value)
			if !ok || c < 0 {
				return false
			}
		case "<=":
			c, ok := compareValues(value, f.value)
			if !ok || c > 0 {
				return false
			}
		case "in":
			if !inSet(value, f.value) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func inSet(value, set any) bool {
	rv := reflect.ValueOf(set)
	if rv.Kind() != reflect.Slice {
		return false
	}
	for i := 0; i < rv.Len(); i++ {
		if reflect.DeepEqual(value, rv.Index(i).Interface()) {
			return true
		}
	}
	return false
}

func compareValues(a, b any) (int, bool) {
	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			return at.Compare(bt), true
		}
		return 0, false
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return strings.Compare(as, bs), true
		}
		return 0, false
	}
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}

func deepCopy(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopy(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = deepCopyValue(item)
		}
		return out
	default:
		return v
	}
}
