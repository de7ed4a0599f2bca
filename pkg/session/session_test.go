package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/moneta-finance/moneta/internal/test_utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storeFactory func(t *testing.T) Store

var storeFactories = map[string]storeFactory{
	"memory": func(t *testing.T) Store {
		return NewMemoryStore()
	},
	"file": func(t *testing.T) Store {
		store, err := NewFileStore(filepath.Join(t.TempDir(), "nested", "session.json"))
		require.NoError(t, err)
		return store
	},
	"sqlite in memory": func(t *testing.T) Store {
		store, err := NewSQLiteStore(test_utils.NewInMemoryDB(t))
		require.NoError(t, err)
		return store
	},
	"sqlite": func(t *testing.T) Store {
		store, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "session.db"))
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })
		return store
	},
}

func TestSession_TokenRoundTrip(t *testing.T) {
	tokens := []string{"abc", "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJhQHguY29tIn0.sig", "ünïcødé token", " spaced "}

	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := New(factory(t))

			_, ok := s.Token()
			assert.False(t, ok)

			for _, token := range tokens {
				require.NoError(t, s.SetToken(ctx, token))
				got, ok := s.Token()
				assert.True(t, ok)
				assert.Equal(t, token, got)
			}

			require.NoError(t, s.ClearToken(ctx))
			got, ok := s.Token()
			assert.False(t, ok)
			assert.Empty(t, got)
		})
	}
}

func TestSession_LoadPersistedToken(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := factory(t)
			require.NoError(t, New(store).SetToken(ctx, "persisted"))

			restored := New(store)
			require.NoError(t, restored.Load(ctx))

			token, ok := restored.Token()
			assert.True(t, ok)
			assert.Equal(t, "persisted", token)

			require.NoError(t, restored.ClearToken(ctx))
			again := New(store)
			require.NoError(t, again.Load(ctx))
			_, ok = again.Token()
			assert.False(t, ok)
		})
	}
}

func TestSession_SetEmptyTokenClears(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryStore())
	require.NoError(t, s.SetToken(ctx, "abc"))

	require.NoError(t, s.SetToken(ctx, ""))

	_, ok := s.Token()
	assert.False(t, ok)
}

type failingStore struct {
	*MemoryStore
}

func (f *failingStore) Delete(context.Context, string) error {
	return errors.New("disk full")
}

func TestSession_ClearTokenDropsMemoryEvenWhenStoreFails(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{MemoryStore: NewMemoryStore()}
	s := New(store)
	require.NoError(t, s.SetToken(ctx, "abc"))

	err := s.ClearToken(ctx)

	assert.Error(t, err)
	_, ok := s.Token()
	assert.False(t, ok)
}

func TestFileStore_CorruptedFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	store, err := NewFileStore(path)
	require.NoError(t, err)

	_, ok, err := store.Get(context.Background(), TokenKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(context.Background(), TokenKey, "fresh"))
	v, ok, err := store.Get(context.Background(), TokenKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "fresh", v)
}

func TestFileStore_WritesPrivateFileAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, TokenKey, "first"))
	require.NoError(t, store.Set(ctx, TokenKey, "second"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp files left behind")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"jwt":"second"}`, string(data))
}

func TestSQLiteStore_InMemory(t *testing.T) {
	store, err := NewSQLiteStore(test_utils.NewInMemoryDB(t))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a", "1"))
	require.NoError(t, store.Set(ctx, "a", "2"))
	v, ok, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2", v)

	require.NoError(t, store.Delete(ctx, "a"))
	require.NoError(t, store.Delete(ctx, "a"))
	_, ok, err = store.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
}
