// Package memory implements store.Store in process memory. It exists for
// tests and dry runs: increments and transactions behave like the real
// store, minus the network.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cthucoin/indexer/internal/store"
)

// Store is an in-memory store.Store. Transactions are serialized under a
// single mutex, which trivially satisfies the optimistic-retry contract:
// no conflicting interleaving can occur, so fn never needs re-running.
type Store struct {
	mu   sync.Mutex
	docs map[string]map[string]any
	seq  int64
	now  func() time.Time
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		docs: make(map[string]map[string]any),
		now:  time.Now,
	}
}

// SetClock overrides the timestamp source used for ServerTimestamp
// sentinels.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Store) Close() error { return nil }

func (s *Store) Get(_ context.Context, path string) (*store.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(path), nil
}

func (s *Store) Set(_ context.Context, path string, data map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[path] = s.resolve(path, data, false)
	return nil
}

func (s *Store) Merge(_ context.Context, path string, data map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[path] = s.resolve(path, data, true)
	return nil
}

func (s *Store) Update(_ context.Context, path string, data map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[path]; !ok {
		return store.ErrNotFound
	}
	s.docs[path] = s.resolve(path, data, true)
	return nil
}

func (s *Store) Add(_ context.Context, collection string, data map[string]any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	id := fmt.Sprintf("doc%08d", s.seq)
	s.docs[collection+"/"+id] = s.resolve(collection+"/"+id, data, false)
	return id, nil
}

func (s *Store) RunTransaction(_ context.Context, fn func(tx store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &tx{store: s, staged: make(map[string]map[string]any)}
	if err := fn(t); err != nil {
		return err
	}
	if t.err != nil {
		return t.err
	}

	// commit staged writes in order
	for _, path := range t.order {
		s.docs[path] = t.staged[path]
	}
	return nil
}

// Doc returns a copy of a document's fields for test assertions, or nil
// when absent.
func (s *Store) Doc(path string) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[path]
	if !ok {
		return nil
	}
	return copyDoc(doc)
}

// Collection returns the documents of a flat collection, ordered by
// insertion.
func (s *Store) Collection(path string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefix := path + "/"
	var ids []string
	for p := range s.docs {
		if len(p) > len(prefix) && p[:len(prefix)] == prefix {
			ids = append(ids, p)
		}
	}
	sort.Strings(ids)

	out := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		out = append(out, copyDoc(s.docs[id]))
	}
	return out
}

// snapshot must be called with the lock held.
func (s *Store) snapshot(path string) *store.Document {
	doc, ok := s.docs[path]
	if !ok {
		return store.NewDocument(path, nil, false)
	}
	return store.NewDocument(path, copyDoc(doc), true)
}

// resolve materializes sentinel values against the document's current
// state. Must be called with the lock held.
func (s *Store) resolve(path string, data map[string]any, merge bool) map[string]any {
	var out map[string]any
	if merge {
		out = copyDoc(s.docs[path])
	}
	if out == nil {
		out = make(map[string]any, len(data))
	}

	for k, v := range data {
		switch val := v.(type) {
		case store.Increment:
			cur, _ := out[k].(float64)
			out[k] = cur + float64(val)
		default:
			if v == store.ServerTimestamp {
				out[k] = s.now().UTC()
			} else {
				out[k] = v
			}
		}
	}
	return out
}

func copyDoc(doc map[string]any) map[string]any {
	if doc == nil {
		return nil
	}
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}

// tx collects staged writes while the store lock is held.
type tx struct {
	store  *Store
	staged map[string]map[string]any
	order  []string
	err    error
}

func (t *tx) Get(path string) (*store.Document, error) {
	// staged writes are visible to later reads within the transaction
	if doc, ok := t.staged[path]; ok {
		return store.NewDocument(path, copyDoc(doc), true), nil
	}
	return t.store.snapshot(path), nil
}

func (t *tx) Set(path string, data map[string]any) {
	t.stage(path, t.resolveStaged(path, data, false))
}

func (t *tx) Update(path string, data map[string]any) {
	_, stagedExists := t.staged[path]
	_, baseExists := t.store.docs[path]
	if !stagedExists && !baseExists {
		if t.err == nil {
			t.err = fmt.Errorf("update %s: %w", path, store.ErrNotFound)
		}
		return
	}
	t.stage(path, t.resolveStaged(path, data, true))
}

func (t *tx) stage(path string, doc map[string]any) {
	if _, ok := t.staged[path]; !ok {
		t.order = append(t.order, path)
	}
	t.staged[path] = doc
}

// resolveStaged is like Store.resolve but layers staged writes over the
// base document.
func (t *tx) resolveStaged(path string, data map[string]any, merge bool) map[string]any {
	var out map[string]any
	if merge {
		if doc, ok := t.staged[path]; ok {
			out = copyDoc(doc)
		} else {
			out = copyDoc(t.store.docs[path])
		}
	}
	if out == nil {
		out = make(map[string]any, len(data))
	}

	for k, v := range data {
		switch val := v.(type) {
		case store.Increment:
			cur, _ := out[k].(float64)
			out[k] = cur + float64(val)
		default:
			if v == store.ServerTimestamp {
				out[k] = t.store.now().UTC()
			} else {
				out[k] = v
			}
		}
	}
	return out
}
