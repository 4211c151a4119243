package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/ftsearch/internal/db"
)

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Ping(ctx))

	_, err := s.Get(ctx, "a")
	assert.ErrorIs(t, err, db.ErrKeyNotFound)

	v := []byte("one")
	require.NoError(t, s.Set(ctx, "doc:1", v))
	v[0] = 'X'
	got, err := s.Get(ctx, "doc:1")
	require.NoError(t, err)
	assert.Equal(t, "one", string(got), "store keeps its own copy")

	require.NoError(t, s.Set(ctx, "doc:2", []byte("two")))
	require.NoError(t, s.Set(ctx, "other", []byte("x")))

	vals, err := s.MGet(ctx, []string{"doc:2", "nope", "doc:1"})
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("two"), nil, []byte("one")}, vals)

	keys, err := s.Scan(ctx, "doc:")
	require.NoError(t, err)
	assert.Equal(t, []string{"doc:1", "doc:2"}, keys)

	require.NoError(t, s.Del(ctx, "doc:1"))
	ok, err := s.Exists(ctx, "doc:1")
	require.NoError(t, err)
	assert.False(t, ok)
}
