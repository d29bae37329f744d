package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestGetSetDel(t *testing.T) {
	ctx := context.Background()
	p := New(Config{})

	ok, err := p.Set(ctx, "k", []byte("v"), 1, 0)
	require.NoError(t, err)
	assert.True(t, ok)

	b, found, err := p.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("v"), b)

	require.NoError(t, p.Del(ctx, "k"))
	_, found, _ = p.Get(ctx, "k")
	assert.False(t, found)
}

func TestExpiry(t *testing.T) {
	ctx := context.Background()
	clk := &clock{t: time.Unix(1000, 0)}
	p := New(Config{Now: clk.now})

	_, _ = p.Set(ctx, "short", []byte("a"), 1, time.Second)
	_, _ = p.Set(ctx, "forever", []byte("b"), 1, 0)

	clk.t = clk.t.Add(2 * time.Second)
	_, found, _ := p.Get(ctx, "short")
	assert.False(t, found)
	_, found, _ = p.Get(ctx, "forever")
	assert.True(t, found)
	assert.Equal(t, 1, p.Len())
}
