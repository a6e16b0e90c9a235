package kv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	values, err := store.Get(ctx, "a", "b")
	require.NoError(t, err)
	require.Empty(t, values)

	require.NoError(t, store.PutAll(ctx, map[string]string{"a": "1", "b": "2"}))
	values, err = store.Get(ctx, "a", "b", "c")
	require.NoError(t, err)
	require.Equal(t, map[string]string{"a": "1", "b": "2"}, values)

	require.NoError(t, store.DeleteAll(ctx, "a", "c"))
	values, err = store.Get(ctx, "a", "b")
	require.NoError(t, err)
	require.Equal(t, map[string]string{"b": "2"}, values)
}
