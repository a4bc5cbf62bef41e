package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store, err := NewFileStore(context.Background(), t.TempDir())
	require.NoError(t, err)

	c := context.Background()
	require.NoError(t, store.Set(c, "storefront:cart", []byte(`{"lines":[]}`)))

	value, err := store.Get(c, "storefront:cart")
	require.NoError(t, err)
	assert.JSONEq(t, `{"lines":[]}`, string(value))
}

func TestFileStoreMissingKey(t *testing.T) {
	t.Parallel()

	store, err := NewFileStore(context.Background(), t.TempDir())
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "storefront:cart")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestFileStoreDelete(t *testing.T) {
	t.Parallel()

	store, err := NewFileStore(context.Background(), t.TempDir())
	require.NoError(t, err)

	c := context.Background()
	require.NoError(t, store.Set(c, "storefront:cart", []byte(`{}`)))
	require.NoError(t, store.Delete(c, "storefront:cart"))

	_, err = store.Get(c, "storefront:cart")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestFileStoreDeleteMissingKeyIsNoOp(t *testing.T) {
	t.Parallel()

	store, err := NewFileStore(context.Background(), t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, store.Delete(context.Background(), "storefront:cart"))
}

func TestFileStoreCreatesDirectory(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "state", "storefront")
	store, err := NewFileStore(context.Background(), dir)
	require.NoError(t, err)

	require.NoError(t, store.Set(context.Background(), "storefront:cart", []byte(`{}`)))
}
