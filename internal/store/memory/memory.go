// Package memory provides an in-memory store.Store used by tests and
// local development. Query and subscription semantics mirror the mongo
// adapter: every mutation re-runs the affected subscriptions and
// delivers the full result set.
package memory

import (
	"context"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"gymsocial/internal/store"

	"github.com/google/uuid"
)

type subscription struct {
	id      int
	query   store.Query
	handler store.Handler
	done    <-chan struct{}
}

// Store keeps documents per collection path, guarded by one mutex.
type Store struct {
	mu     sync.Mutex
	colls  map[string]map[string]store.Document
	subs   map[int]*subscription
	nextID int
}

func New() *Store {
	return &Store{
		colls: map[string]map[string]store.Document{},
		subs:  map[int]*subscription{},
	}
}

var _ store.Store = (*Store)(nil)

func (s *Store) Get(ctx context.Context, collection, id string) (store.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.colls[collection][id]
	if !ok {
		return store.Snapshot{}, store.ErrNotFound
	}
	return store.Snapshot{ID: id, Data: copyDoc(doc)}, nil
}

func (s *Store) Query(ctx context.Context, q store.Query) ([]store.Snapshot, error) {
	if len(q.InValues) > store.MaxInValues {
		return nil, store.ErrTooManyInValues
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runQuery(q), nil
}

func (s *Store) Insert(ctx context.Context, collection string, doc store.Document) (string, error) {
	id := uuid.NewString()
	s.mu.Lock()
	if s.colls[collection] == nil {
		s.colls[collection] = map[string]store.Document{}
	}
	s.colls[collection][id] = resolveTimestamps(copyDoc(doc))
	notify := s.pendingDeliveries(collection)
	s.mu.Unlock()

	deliver(notify)
	return id, nil
}

func (s *Store) Set(ctx context.Context, collection, id string, doc store.Document, merge bool) error {
	s.mu.Lock()
	if s.colls[collection] == nil {
		s.colls[collection] = map[string]store.Document{}
	}
	next := resolveTimestamps(copyDoc(doc))
	if existing, ok := s.colls[collection][id]; ok && merge {
		merged := copyDoc(existing)
		for k, v := range next {
			merged[k] = v
		}
		next = merged
	}
	s.colls[collection][id] = next
	notify := s.pendingDeliveries(collection)
	s.mu.Unlock()

	deliver(notify)
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	if _, ok := s.colls[collection][id]; !ok {
		s.mu.Unlock()
		return store.ErrNotFound
	}
	delete(s.colls[collection], id)
	notify := s.pendingDeliveries(collection)
	s.mu.Unlock()

	deliver(notify)
	return nil
}

func (s *Store) Subscribe(ctx context.Context, q store.Query, h store.Handler) (store.CancelFunc, error) {
	if len(q.InValues) > store.MaxInValues {
		return nil, store.ErrTooManyInValues
	}
	s.mu.Lock()
	s.nextID++
	sub := &subscription{id: s.nextID, query: q, handler: h, done: ctx.Done()}
	s.subs[sub.id] = sub
	initial := s.runQuery(q)
	s.mu.Unlock()

	// Initial delivery on attach, like a snapshot listener.
	h(initial)

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, sub.id)
			s.mu.Unlock()
		})
	}
	if ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			cancel()
		}()
	}
	return cancel, nil
}

type delivery struct {
	handler store.Handler
	result  []store.Snapshot
}

// pendingDeliveries collects the refreshed result set of every
// subscription on the mutated collection. Called with the lock held;
// handlers run after release so they may call back into the store.
func (s *Store) pendingDeliveries(collection string) []delivery {
	var out []delivery
	for _, sub := range s.subs {
		if sub.query.Collection != collection {
			continue
		}
		select {
		case <-sub.done:
			continue
		default:
		}
		out = append(out, delivery{handler: sub.handler, result: s.runQuery(sub.query)})
	}
	return out
}

func deliver(ds []delivery) {
	for _, d := range ds {
		d.handler(d.result)
	}
}

func (s *Store) runQuery(q store.Query) []store.Snapshot {
	var out []store.Snapshot
	for id, doc := range s.colls[q.Collection] {
		if matches(q, doc) {
			out = append(out, store.Snapshot{ID: id, Data: copyDoc(doc)})
		}
	}
	if q.OrderBy != "" {
		sort.SliceStable(out, func(i, j int) bool {
			ti, iok := out[i].Data[q.OrderBy].(time.Time)
			tj, jok := out[j].Data[q.OrderBy].(time.Time)
			if !iok || !jok {
				return jok // missing order fields sort last
			}
			if q.Descending {
				return ti.After(tj)
			}
			return ti.Before(tj)
		})
	} else {
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

func matches(q store.Query, doc store.Document) bool {
	for field, want := range q.Eq {
		if !reflect.DeepEqual(doc[field], want) {
			return false
		}
	}
	if q.InField != "" {
		got, _ := doc[q.InField].(string)
		found := false
		for _, v := range q.InValues {
			if v == got {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q.PrefixField != "" {
		got, ok := doc[q.PrefixField].(string)
		if !ok || !strings.HasPrefix(got, q.Prefix) {
			return false
		}
	}
	return true
}

func resolveTimestamps(doc store.Document) store.Document {
	for k, v := range doc {
		if v == store.ServerTimestamp {
			doc[k] = store.Now()
		}
	}
	return doc
}

func copyDoc(doc store.Document) store.Document {
	out := make(store.Document, len(doc))
	for k, v := range doc {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch tv := v.(type) {
	case store.Document:
		return copyDoc(tv)
	case []any:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = copyValue(e)
		}
		return out
	default:
		return v
	}
}
