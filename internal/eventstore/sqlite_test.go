package eventstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newMemoryStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_AppendAndGetByProject(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "website", TypeTriggerFired, []byte(`{"source":"cadence"}`), map[string]string{"trigger": "cadence"}))
	require.NoError(t, store.Append(ctx, "website", TypeBuildCompleted, []byte(`{}`), nil))
	require.NoError(t, store.Append(ctx, "docs", TypeTriggerFired, []byte(`{}`), nil))

	events, err := store.GetByProject(ctx, "website")
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, TypeTriggerFired, events[0].Type())
	require.Equal(t, TypeBuildCompleted, events[1].Type())
	require.Equal(t, "cadence", events[0].Metadata()["trigger"])
}

func TestSQLiteStore_GetRange(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "", TypeConfigReloaded, []byte(`{}`), nil))

	now := time.Now()
	events, err := store.GetRange(ctx, now.Add(-time.Minute), now.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, events, 1)

	events, err = store.GetRange(ctx, now.Add(time.Hour), now.Add(2*time.Hour))
	require.NoError(t, err)
	require.Empty(t, events)
}

func TestSQLiteStore_EmptyProjectHasNoEvents(t *testing.T) {
	store := newMemoryStore(t)

	events, err := store.GetByProject(context.Background(), "nothing")
	require.NoError(t, err)
	require.Empty(t, events)
}
