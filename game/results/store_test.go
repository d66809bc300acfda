package results

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/puzzlebox/game/engine"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()

	sqlite, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "data", "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close(context.Background()) })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func TestStore_RecordAndList(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			records := []*Result{
				{SessionID: "a1b2", Kind: engine.KindMerge, ConfigID: "classic", Outcome: OutcomeOver, Score: 512, MaxTile: 128, Moves: 210, Duration: 90 * time.Second, FinishedAt: base},
				{SessionID: "c3d4", Kind: engine.KindMerge, ConfigID: "classic", Outcome: OutcomeWon, Score: 2300, MaxTile: 2048, Moves: 900, Duration: 20 * time.Minute, FinishedAt: base.Add(time.Minute)},
				{SessionID: "e5f6", Kind: engine.KindMatch, ConfigID: "peek-a-chu", Outcome: OutcomeWon, Score: 8, Moves: 14, Duration: 40 * time.Second, FinishedAt: base.Add(2 * time.Minute)},
				{SessionID: "0a0b", Kind: engine.KindMatch, ConfigID: "peek-a-chu", Outcome: OutcomeWon, Score: 8, Moves: 11, Duration: 35 * time.Second, FinishedAt: base.Add(3 * time.Minute)},
			}
			for _, r := range records {
				require.NoError(t, store.Record(ctx, r))
				assert.NotZero(t, r.ID)
			}

			all, err := store.List(ctx, Query{})
			require.NoError(t, err)
			require.Len(t, all, 4)
			assert.Equal(t, "c3d4", all[0].SessionID)
			assert.Equal(t, "a1b2", all[1].SessionID)

			match, err := store.List(ctx, Query{Kind: engine.KindMatch})
			require.NoError(t, err)
			require.Len(t, match, 2)
			// equal score, fewer attempts first
			assert.Equal(t, "0a0b", match[0].SessionID)
			assert.Equal(t, 35*time.Second, match[0].Duration)
			assert.True(t, base.Add(3*time.Minute).Equal(match[0].FinishedAt))

			limited, err := store.List(ctx, Query{Kind: engine.KindMerge, Limit: 1})
			require.NoError(t, err)
			require.Len(t, limited, 1)
			assert.Equal(t, 2048, limited[0].MaxTile)

			byConfig, err := store.List(ctx, Query{ConfigID: "peek-a-chu"})
			require.NoError(t, err)
			assert.Len(t, byConfig, 2)
		})
	}
}

func TestStore_RejectsInvalidResult(t *testing.T) {
	ctx := context.Background()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, store.Record(ctx, nil), ErrInvalidResult)
			assert.ErrorIs(t, store.Record(ctx, &Result{Kind: engine.KindMerge, Outcome: OutcomeWon}), ErrInvalidResult)
			assert.ErrorIs(t, store.Record(ctx, &Result{SessionID: "x", Kind: engine.KindMerge, Outcome: "quit"}), ErrInvalidResult)

			list, err := store.List(ctx, Query{})
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

func TestStore_DefaultsFinishedAt(t *testing.T) {
	ctx := context.Background()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			r := &Result{SessionID: "abcd", Kind: engine.KindMerge, Outcome: OutcomeOver, Score: 40, Moves: 12}
			require.NoError(t, store.Record(ctx, r))
			assert.WithinDuration(t, time.Now(), r.FinishedAt, time.Minute)
		})
	}
}

func TestQueryLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, Query{}.limit())
	assert.Equal(t, 5, Query{Limit: 5}.limit())
	assert.Equal(t, MaxLimit, Query{Limit: 1000}.limit())
}

func TestSQLiteStore_ReopenKeepsResults(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "results.db")

	store, err := NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.Record(ctx, &Result{SessionID: "beef", Kind: engine.KindMatch, Outcome: OutcomeWon, Score: 2, Moves: 3}))
	require.NoError(t, store.Close(ctx))

	store, err = NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	defer store.Close(ctx)

	list, err := store.List(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "beef", list[0].SessionID)
	assert.Equal(t, engine.KindMatch, list[0].Kind)
}
