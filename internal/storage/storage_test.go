package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drivers(t *testing.T) map[string]Store {
	t.Helper()
	f, err := NewFile(t.TempDir())
	require.NoError(t, err)
	return map[string]Store{
		"file":   f,
		"memory": NewMemory(0),
	}
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(ctx, KeyCart)
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Set(ctx, KeyCart, []byte(`[{"quantity":1}]`)))
			got, err := s.Get(ctx, KeyCart)
			require.NoError(t, err)
			assert.JSONEq(t, `[{"quantity":1}]`, string(got))

			require.NoError(t, s.Delete(ctx, KeyCart))
			_, err = s.Get(ctx, KeyCart)
			assert.ErrorIs(t, err, ErrNotFound)

			// deleting twice is fine
			assert.NoError(t, s.Delete(ctx, KeyCart))
		})
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(0)

	var ids []string
	found, err := GetJSON(ctx, s, KeyWishlist, &ids)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, SetJSON(ctx, s, KeyWishlist, []string{"1", "2"}))
	found, err = GetJSON(ctx, s, KeyWishlist, &ids)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"1", "2"}, ids)

	require.NoError(t, s.Set(ctx, KeyUser, []byte("{not json")))
	var v map[string]interface{}
	_, err = GetJSON(ctx, s, KeyUser, &v)
	assert.Error(t, err)
}

func TestGetString(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(0)

	tok, err := GetString(ctx, s, KeyClientToken)
	require.NoError(t, err)
	assert.Empty(t, tok)

	require.NoError(t, s.Set(ctx, KeyClientToken, []byte("abc")))
	tok, err = GetString(ctx, s, KeyClientToken)
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)
}

func TestFile_RejectsPathKeys(t *testing.T) {
	f, err := NewFile(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../cart", "a/b", ".hidden"} {
		assert.Error(t, f.Set(context.Background(), key, []byte("x")), key)
	}
}

func TestFile_NoTempLeftovers(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFile(dir)
	require.NoError(t, err)
	require.NoError(t, f.Set(context.Background(), KeyCart, []byte("[]")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "cart.json", entries[0].Name())
	assert.FileExists(t, filepath.Join(dir, "cart.json"))
}

func TestOpen(t *testing.T) {
	s, err := Open(Options{Driver: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = Open(Options{Driver: "file", Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &File{}, s)

	_, err = Open(Options{Driver: "redis"})
	assert.Error(t, err)

	_, err = Open(Options{Driver: "etcd"})
	assert.Error(t, err)
}
