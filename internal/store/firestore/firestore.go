// Package firestore implements store.Store on Google Cloud Firestore,
// the document database the rest of the platform reads from.
package firestore

import (
	"context"
	"fmt"

	cf "cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/cthucoin/indexer/internal/store"
)

// Store is a Firestore-backed store.Store. Atomic increments map to
// Firestore field transforms and RunTransaction maps to Firestore's
// optimistic transactions, which retry the closure on contention.
type Store struct {
	client *cf.Client
}

var _ store.Store = (*Store)(nil)

// New connects to Firestore. When credentialsFile is empty, application
// default credentials are used (same resolution as the admin SDK).
func New(ctx context.Context, projectID, credentialsFile string) (*Store, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := cf.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) Get(ctx context.Context, path string) (*store.Document, error) {
	snap, err := s.client.Doc(path).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return store.NewDocument(path, nil, false), nil
	}
	if err != nil {
		return nil, err
	}
	return store.NewDocument(path, snap.Data(), true), nil
}

func (s *Store) Set(ctx context.Context, path string, data map[string]any) error {
	_, err := s.client.Doc(path).Set(ctx, translate(data))
	return err
}

func (s *Store) Merge(ctx context.Context, path string, data map[string]any) error {
	_, err := s.client.Doc(path).Set(ctx, translate(data), cf.MergeAll)
	return err
}

func (s *Store) Update(ctx context.Context, path string, data map[string]any) error {
	_, err := s.client.Doc(path).Update(ctx, toUpdates(data))
	if status.Code(err) == codes.NotFound {
		return store.ErrNotFound
	}
	return err
}

func (s *Store) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	ref, _, err := s.client.Collection(collection).Add(ctx, translate(data))
	if err != nil {
		return "", err
	}
	return ref.ID, nil
}

func (s *Store) RunTransaction(ctx context.Context, fn func(tx store.Tx) error) error {
	return s.client.RunTransaction(ctx, func(_ context.Context, ftx *cf.Transaction) error {
		wrapped := &tx{store: s, ftx: ftx}
		if err := fn(wrapped); err != nil {
			return err
		}
		return wrapped.err
	})
}

// tx adapts a Firestore transaction to store.Tx. Firestore stages writes
// until commit, matching the interface contract; staging errors surface
// when the closure returns.
type tx struct {
	store *Store
	ftx   *cf.Transaction
	err   error
}

func (t *tx) Get(path string) (*store.Document, error) {
	snap, err := t.ftx.Get(t.store.client.Doc(path))
	if status.Code(err) == codes.NotFound {
		return store.NewDocument(path, nil, false), nil
	}
	if err != nil {
		return nil, err
	}
	return store.NewDocument(path, snap.Data(), true), nil
}

func (t *tx) Set(path string, data map[string]any) {
	if err := t.ftx.Set(t.store.client.Doc(path), translate(data)); err != nil && t.err == nil {
		t.err = err
	}
}

func (t *tx) Update(path string, data map[string]any) {
	if err := t.ftx.Update(t.store.client.Doc(path), toUpdates(data)); err != nil && t.err == nil {
		t.err = err
	}
}

// translate converts store sentinel values to Firestore sentinels.
func translate(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = translateValue(v)
	}
	return out
}

func toUpdates(data map[string]any) []cf.Update {
	updates := make([]cf.Update, 0, len(data))
	for k, v := range data {
		updates = append(updates, cf.Update{Path: k, Value: translateValue(v)})
	}
	return updates
}

func translateValue(v any) any {
	switch val := v.(type) {
	case store.Increment:
		return cf.Increment(float64(val))
	default:
		if v == store.ServerTimestamp {
			return cf.ServerTimestamp
		}
		return v
	}
}
