package local

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pr "github.com/unkn0wn-root/cacheaspect/provider"
	"github.com/unkn0wn-root/cacheaspect/provider/memory"
)

// gatedProvider parks the first Get after arm() until release is closed,
// holding a read-modify-write between its read and its write.
type gatedProvider struct {
	pr.Provider
	armed   atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func newGated() *gatedProvider {
	return &gatedProvider{
		Provider: memory.New(memory.Config{}),
		entered:  make(chan struct{}),
		release:  make(chan struct{}),
	}
}

func (g *gatedProvider) arm() { g.armed.Store(true) }

func (g *gatedProvider) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, ok, err := g.Provider.Get(ctx, key)
	if g.armed.CompareAndSwap(true, false) {
		close(g.entered)
		<-g.release
	}
	return b, ok, err
}

// waitBlocked fails the test if done fires while the gate is held.
func waitBlocked(t *testing.T, done <-chan error) {
	t.Helper()
	select {
	case err := <-done:
		t.Fatalf("write completed while a merge held the key: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRemoveValueWaitsForMerge(t *testing.T) {
	ctx := context.Background()
	g := newGated()
	c, err := New(Config{Provider: g})
	require.NoError(t, err)
	require.NoError(t, c.SetList(ctx, "k", []string{"old"}, 0))

	g.arm()
	merged := make(chan error, 1)
	go func() { merged <- c.SetList(ctx, "k", []string{"new"}, 0) }()
	<-g.entered

	removed := make(chan error, 1)
	go func() { removed <- c.RemoveValue(ctx, "k") }()
	waitBlocked(t, removed)

	close(g.release)
	require.NoError(t, <-merged)
	require.NoError(t, <-removed)

	var got []string
	found, err := c.GetList(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found, "evicted list came back: %v", got)
}

func TestSetValueWaitsForIncrement(t *testing.T) {
	ctx := context.Background()
	g := newGated()
	c, err := New(Config{Provider: g})
	require.NoError(t, err)
	_, err = c.IncrementValue(ctx, "n", 1)
	require.NoError(t, err)

	g.arm()
	incr := make(chan error, 1)
	go func() {
		_, err := c.IncrementValue(ctx, "n", 1)
		incr <- err
	}()
	<-g.entered

	set := make(chan error, 1)
	go func() { set <- c.SetValue(ctx, "n", 100, 0) }()
	waitBlocked(t, set)

	close(g.release)
	require.NoError(t, <-incr)
	require.NoError(t, <-set)

	var n int
	found, err := c.GetValue(ctx, "n", &n)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 100, n)
}

// rejectingProvider refuses writes once full is set.
type rejectingProvider struct {
	pr.Provider
	full atomic.Bool
}

func (r *rejectingProvider) Set(ctx context.Context, key string, value []byte, cost int64, ttl time.Duration) (bool, error) {
	if r.full.Load() {
		return false, nil
	}
	return r.Provider.Set(ctx, key, value, cost, ttl)
}

func TestBloomAddReportsFalseWhenWriteFails(t *testing.T) {
	ctx := context.Background()
	p := &rejectingProvider{Provider: memory.New(memory.Config{})}
	c, err := New(Config{Provider: p})
	require.NoError(t, err)
	bf, err := c.CreateBloomFilter(ctx, "bf", 100, 0.01)
	require.NoError(t, err)

	p.full.Store(true)
	added, err := bf.Add(ctx, "a")
	require.ErrorIs(t, err, pr.ErrRejected)
	assert.False(t, added)

	var se *pr.StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "bloom.add", se.Op)
}
