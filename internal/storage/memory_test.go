package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	c := context.Background()

	require.NoError(t, store.Set(c, "storefront:cart", []byte(`{"lines":[]}`)))

	value, err := store.Get(c, "storefront:cart")
	require.NoError(t, err)
	assert.JSONEq(t, `{"lines":[]}`, string(value))
}

func TestMemoryStoreMissingKey(t *testing.T) {
	t.Parallel()

	_, err := NewMemoryStore().Get(context.Background(), "storefront:cart")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	c := context.Background()

	value := []byte(`{"lines":[]}`)
	require.NoError(t, store.Set(c, "storefront:cart", value))
	value[0] = 'x'

	got, err := store.Get(c, "storefront:cart")
	require.NoError(t, err)
	assert.JSONEq(t, `{"lines":[]}`, string(got))
}

func TestMemoryStoreDelete(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	c := context.Background()

	require.NoError(t, store.Set(c, "storefront:cart", []byte(`{}`)))
	require.NoError(t, store.Delete(c, "storefront:cart"))

	_, err := store.Get(c, "storefront:cart")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}
