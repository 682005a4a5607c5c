package kv

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "access_token")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "access_token", "a1"))
	require.NoError(t, s.Set(ctx, "access_token", "a2"))
	require.NoError(t, s.Set(ctx, "refresh_token", "r1"))

	v, err := s.Get(ctx, "access_token")
	require.NoError(t, err)
	assert.Equal(t, "a2", v)

	require.NoError(t, s.Delete(ctx, "access_token", "missing"))
	v, err = Lookup(ctx, s, "access_token")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, s.Clear(ctx))
	_, err = s.Get(ctx, "refresh_token")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestSQLite(t *testing.T) {
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	exerciseStore(t, s)
}

func TestSQLitePersistsAcrossOpens(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "refresh_token", "r1"))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	v, err := s.Get(ctx, "refresh_token")
	require.NoError(t, err)
	assert.Equal(t, "r1", v)
}
