package local

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/cacheaspect/codec"
	"github.com/unkn0wn-root/cacheaspect/internal/wire"
	pr "github.com/unkn0wn-root/cacheaspect/provider"
	"github.com/unkn0wn-root/cacheaspect/provider/memory"
	"github.com/unkn0wn-root/cacheaspect/provider/ristretto"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

type order struct {
	ID    int     `json:"id"`
	Total float64 `json:"total"`
}

func newCache(t *testing.T) (*Cache, *clock) {
	t.Helper()
	clk := &clock{t: time.Unix(1_700_000_000, 0)}
	c, err := New(Config{Provider: memory.New(memory.Config{Now: clk.now})})
	require.NoError(t, err)
	return c, clk
}

func TestNewRequiresProvider(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrNilProvider)
}

func TestValueRoundTripAndTTL(t *testing.T) {
	ctx := context.Background()
	c, clk := newCache(t)

	require.NoError(t, c.SetValue(ctx, "o:1", order{ID: 1, Total: 9.5}, time.Minute))
	var got order
	found, err := c.GetValue(ctx, "o:1", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, order{ID: 1, Total: 9.5}, got)

	clk.t = clk.t.Add(2 * time.Minute)
	found, err = c.GetValue(ctx, "o:1", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCounters(t *testing.T) {
	ctx := context.Background()
	c, _ := newCache(t)

	n, err := c.IncrementValue(ctx, "n", 3)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	n, err = c.DecrementValue(ctx, "n", 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	var v int
	found, err := c.GetValue(ctx, "n", &v)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 2, v)

	require.NoError(t, c.SetValue(ctx, "s", "text", 0))
	_, err = c.IncrementValue(ctx, "s", 1)
	assert.ErrorIs(t, err, pr.ErrNotInteger)
}

func TestRemoveValue(t *testing.T) {
	ctx := context.Background()
	c, _ := newCache(t)
	require.NoError(t, c.SetValue(ctx, "k", 1, 0))
	require.NoError(t, c.RemoveValue(ctx, "k"))
	found, err := c.GetValue(ctx, "k", new(int))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMapMerge(t *testing.T) {
	ctx := context.Background()
	c, _ := newCache(t)
	require.NoError(t, c.SetMap(ctx, "m", map[string]int{"a": 1, "b": 2}, 0))
	require.NoError(t, c.SetMap(ctx, "m", map[string]int{"b": 20, "c": 3}, 0))

	var got map[string]int
	found, err := c.GetMap(ctx, "m", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, map[string]int{"a": 1, "b": 20, "c": 3}, got)

	var b int
	found, err = c.GetMapValue(ctx, "m", "b", &b)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 20, b)

	found, err = c.GetMapValue(ctx, "m", "missing", &b)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestListSetSortedSet(t *testing.T) {
	ctx := context.Background()
	c, _ := newCache(t)

	require.NoError(t, c.SetList(ctx, "l", []string{"x", "y"}, 0))
	require.NoError(t, c.SetList(ctx, "l", []string{"x"}, 0))
	var list []string
	found, err := c.GetList(ctx, "l", &list)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"x", "y", "x"}, list)

	require.NoError(t, c.SetSet(ctx, "s", []string{"x", "y"}, 0))
	require.NoError(t, c.SetSet(ctx, "s", map[string]bool{"y": true, "z": true, "no": false}, 0))
	var set []string
	found, err = c.GetSet(ctx, "s", &set)
	require.NoError(t, err)
	assert.True(t, found)
	sort.Strings(set)
	assert.Equal(t, []string{"x", "y", "z"}, set)

	require.NoError(t, c.SetSortedSet(ctx, "z", []pr.Z{{Score: 2, Member: "b"}, {Score: 1, Member: "a"}}, 0))
	require.NoError(t, c.SetSortedSet(ctx, "z", []pr.Z{{Score: 3, Member: "a"}}, 0))
	var ranked []string
	found, err = c.GetSortedSet(ctx, "z", &ranked)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"b", "a"}, ranked)

	var scored []pr.Z
	found, err = c.GetSortedSet(ctx, "z", &scored)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []pr.Z{{Score: 2, Member: "b"}, {Score: 3, Member: "a"}}, scored)
}

func TestEmptyCollectionsAreMisses(t *testing.T) {
	ctx := context.Background()
	c, _ := newCache(t)
	require.NoError(t, c.SetList(ctx, "l", []int{}, 0))

	dst := []int{42}
	found, err := c.GetList(ctx, "l", &dst)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, []int{42}, dst)
}

func TestWrongType(t *testing.T) {
	ctx := context.Background()
	c, _ := newCache(t)
	require.NoError(t, c.SetList(ctx, "l", []int{1}, 0))

	_, err := c.GetValue(ctx, "l", new(int))
	var se *pr.StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "get", se.Op)
	assert.ErrorIs(t, err, pr.ErrWrongType)

	err = c.SetMap(ctx, "l", map[string]int{"a": 1}, 0)
	assert.ErrorIs(t, err, pr.ErrWrongType)
}

func TestForeignBytesAreDropped(t *testing.T) {
	ctx := context.Background()
	mem := memory.New(memory.Config{})
	c, err := New(Config{Provider: mem})
	require.NoError(t, err)

	_, _ = mem.Set(ctx, "k", []byte("not framed"), 1, 0)
	found, err := c.GetValue(ctx, "k", new(string))
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 0, mem.Len())
}

func TestBloomFilter(t *testing.T) {
	ctx := context.Background()
	c, _ := newCache(t)

	bf, err := c.CreateBloomFilter(ctx, "bf", 500, 0.01)
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		_, err := bf.Add(ctx, i)
		require.NoError(t, err)
	}
	for i := 0; i < 100; i++ {
		ok, err := bf.Contains(ctx, i)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	again, err := c.CreateBloomFilter(ctx, "bf", 10, 0.3)
	require.NoError(t, err)
	assert.Equal(t, bf.Size(), again.Size())
	ok, err := again.Contains(ctx, 7)
	require.NoError(t, err)
	assert.True(t, ok)

	added, err := again.Add(ctx, 7)
	require.NoError(t, err)
	assert.False(t, added)
}

func TestFramingOnStore(t *testing.T) {
	ctx := context.Background()
	mem := memory.New(memory.Config{})
	c, err := New(Config{Provider: mem, Codec: codec.String{}})
	require.NoError(t, err)
	require.NoError(t, c.SetValue(ctx, "k", "v", 0))

	b, ok, err := mem.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	e, err := wire.Decode(b)
	require.NoError(t, err)
	assert.Equal(t, wire.KindValue, e.Kind)
	assert.Equal(t, []byte("v"), e.Items[0].Payload)
}

func TestOverRistretto(t *testing.T) {
	ctx := context.Background()
	rp, err := ristretto.New(ristretto.Config{NumCounters: 1000, MaxCost: 1 << 20, BufferItems: 64})
	require.NoError(t, err)
	c, err := New(Config{Provider: rp})
	require.NoError(t, err)
	defer c.Close(ctx)

	require.NoError(t, c.SetMap(ctx, "m", map[string]string{"a": "1"}, time.Hour))
	require.NoError(t, c.SetMap(ctx, "m", map[string]string{"b": "2"}, time.Hour))
	var got map[string]string
	found, err := c.GetMap(ctx, "m", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, got)
}
