package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cthucoin/indexer/internal/store"
)

func TestSetGet(t *testing.T) {
	s := New()
	ctx := context.Background()

	doc, err := s.Get(ctx, "tokens/0xaaa")
	require.NoError(t, err)
	assert.False(t, doc.Exists())

	require.NoError(t, s.Set(ctx, "tokens/0xaaa", map[string]any{
		"name":        "Elder Token",
		"totalBought": "0",
	}))

	doc, err = s.Get(ctx, "tokens/0xaaa")
	require.NoError(t, err)
	require.True(t, doc.Exists())
	assert.Equal(t, "Elder Token", doc.String("name"))
	assert.Equal(t, "0", doc.String("totalBought"))
}

func TestSet_Overwrites(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "d/1", map[string]any{"a": 1, "b": 2}))
	require.NoError(t, s.Set(ctx, "d/1", map[string]any{"a": 3}))

	doc := s.Doc("d/1")
	assert.Equal(t, int64(3), store.NewDocument("d/1", doc, true).Int64("a"))
	_, hasB := doc["b"]
	assert.False(t, hasB, "Set must replace the whole document")
}

func TestMerge_PreservesOtherFields(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "d/1", map[string]any{"a": 1, "b": 2}))
	require.NoError(t, s.Merge(ctx, "d/1", map[string]any{"a": 9}))

	doc := s.Doc("d/1")
	assert.Equal(t, 9, doc["a"])
	assert.Equal(t, 2, doc["b"])
}

func TestUpdate_MissingDoc(t *testing.T) {
	s := New()
	err := s.Update(context.Background(), "tokens/0xmissing", map[string]any{"graduated": true})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestServerTimestamp(t *testing.T) {
	s := New()
	fixed := time.Date(2026, time.February, 2, 12, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return fixed })

	require.NoError(t, s.Set(context.Background(), "d/1", map[string]any{
		"createdAt": store.ServerTimestamp,
	}))

	assert.Equal(t, fixed, s.Doc("d/1")["createdAt"])
}

func TestIncrement_Commutative(t *testing.T) {
	s := New()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Merge(ctx, "stats/farm", map[string]any{
				"totalStaked": store.Increment(2),
			})
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Merge(ctx, "stats/farm", map[string]any{
				"totalStaked": store.Increment(-1),
			})
		}()
	}
	wg.Wait()

	assert.InDelta(t, 50.0, s.Doc("stats/farm")["totalStaked"], 1e-9)
}

func TestAdd_OrderedIDs(t *testing.T) {
	s := New()
	ctx := context.Background()

	id1, err := s.Add(ctx, "burns", map[string]any{"n": 1})
	require.NoError(t, err)
	id2, err := s.Add(ctx, "burns", map[string]any{"n": 2})
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	docs := s.Collection("burns")
	require.Len(t, docs, 2)
	assert.Equal(t, 1, docs[0]["n"])
	assert.Equal(t, 2, docs[1]["n"])
}

func TestRunTransaction_CommitAndAbort(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "d/1", map[string]any{"count": int64(1)}))

	err := s.RunTransaction(ctx, func(tx store.Tx) error {
		doc, err := tx.Get("d/1")
		require.NoError(t, err)
		tx.Update("d/1", map[string]any{"count": doc.Int64("count") + 1})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), s.Doc("d/1")["count"])

	// a failed transaction leaves nothing behind
	err = s.RunTransaction(ctx, func(tx store.Tx) error {
		tx.Set("d/2", map[string]any{"x": 1})
		return assert.AnError
	})
	require.Error(t, err)
	assert.Nil(t, s.Doc("d/2"))
}

func TestRunTransaction_UpdateAfterStagedSet(t *testing.T) {
	s := New()

	// the leaderboard projector stages a create and then an update of the
	// same document inside one transaction
	err := s.RunTransaction(context.Background(), func(tx store.Tx) error {
		doc, err := tx.Get("leaderboards/2026-W05")
		require.NoError(t, err)
		require.False(t, doc.Exists())

		tx.Set("leaderboards/2026-W05", map[string]any{"totalBurned": "0"})
		tx.Update("leaderboards/2026-W05", map[string]any{"totalBurned": "30"})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "30", s.Doc("leaderboards/2026-W05")["totalBurned"])
}

func TestRunTransaction_UpdateMissingDoc(t *testing.T) {
	s := New()
	err := s.RunTransaction(context.Background(), func(tx store.Tx) error {
		tx.Update("d/none", map[string]any{"x": 1})
		return nil
	})
	require.ErrorIs(t, err, store.ErrNotFound)
}
