package identity

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()

	sqlite, err := OpenSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func TestStore(t *testing.T) {
	ctx := context.Background()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := store.Get(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, store.Set(ctx, "k", "v1"))
			require.NoError(t, store.Set(ctx, "k", "v2"))

			v, ok, err := store.Get(ctx, "k")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "v2", v)

			require.NoError(t, store.Delete(ctx, "k"))
			require.NoError(t, store.Delete(ctx, "k"))

			_, ok, err = store.Get(ctx, "k")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	first, err := OpenSQLiteStore(ctx, path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, KeyUserName, "Alice"))
	require.NoError(t, first.Close())

	second, err := OpenSQLiteStore(ctx, path)
	require.NoError(t, err)
	defer second.Close()

	v, ok, err := second.Get(ctx, KeyUserName)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Alice", v)
}

func TestKeeper(t *testing.T) {
	ctx := context.Background()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			keeper := NewKeeper(store)

			empty, err := keeper.Load(ctx)
			require.NoError(t, err)
			assert.False(t, empty.Complete())

			_, ok, err := keeper.SavedSession(ctx)
			require.NoError(t, err)
			assert.False(t, ok)

			id := Identity{SessionID: uuid.New(), ParticipantID: uuid.New(), Name: "Alice"}
			require.NoError(t, keeper.Save(ctx, id))

			got, err := keeper.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, id, got)
			assert.True(t, got.Complete())

			sessionID, ok, err := keeper.SavedSession(ctx)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, id.SessionID, sessionID)

			require.NoError(t, keeper.Clear(ctx))
			for _, key := range []string{KeySessionID, KeyUserID, KeyUserName} {
				_, ok, err := store.Get(ctx, key)
				require.NoError(t, err)
				assert.False(t, ok, key)
			}
		})
	}
}

func TestKeeperIgnoresGarbledIDs(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Set(ctx, KeySessionID, "not-a-uuid"))
	require.NoError(t, store.Set(ctx, KeyUserID, uuid.NewString()))
	require.NoError(t, store.Set(ctx, KeyUserName, "Alice"))

	id, err := NewKeeper(store).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, id.SessionID)
	assert.False(t, id.Complete())
}
