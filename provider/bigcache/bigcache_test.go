package bigcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	p, err := New(ctx, Config{LifeWindow: time.Minute, Shards: 16, MaxEntriesInWindow: 100})
	require.NoError(t, err)
	defer p.Close(ctx)

	_, found, err := p.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	ok, err := p.Set(ctx, "k", []byte("v"), 1, time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	b, found, err := p.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("v"), b)

	require.NoError(t, p.Del(ctx, "k"))
	require.NoError(t, p.Del(ctx, "k"))
}
