// Package local implements provider.Cache over any provider.Provider byte
// store (memory, ristretto, bigcache) for single-process use and tests.
//
// Every entry is framed with internal/wire so the shape survives the trip
// through a plain []byte. Every write (set, delete, collection merge, counter)
// holds one mutex, so writes to a key are atomic within the process only.
package local

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/unkn0wn-root/cacheaspect/codec"
	"github.com/unkn0wn-root/cacheaspect/internal/shape"
	"github.com/unkn0wn-root/cacheaspect/internal/wire"
	pr "github.com/unkn0wn-root/cacheaspect/provider"
)

var ErrNilProvider = errors.New("local cache: nil provider")

type Cache struct {
	mu    sync.Mutex
	store pr.Provider
	codec codec.Codec
}

var _ pr.Cache = (*Cache)(nil)

type Config struct {
	Provider pr.Provider
	Codec    codec.Codec // defaults to codec.JSON
}

func New(cfg Config) (*Cache, error) {
	if cfg.Provider == nil {
		return nil, ErrNilProvider
	}
	c := cfg.Codec
	if c == nil {
		c = codec.JSON{}
	}
	return &Cache{store: cfg.Provider, codec: c}, nil
}

func (c *Cache) SetValue(ctx context.Context, key string, value any, ttl time.Duration) error {
	b, err := c.codec.Marshal(value)
	if err != nil {
		return pr.Wrap("set", key, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return pr.Wrap("set", key, c.write(ctx, key, wire.Entry{Kind: wire.KindValue, Items: []wire.Item{{Payload: b}}}, ttl))
}

func (c *Cache) GetValue(ctx context.Context, key string, dst any) (bool, error) {
	e, found, err := c.read(ctx, key, wire.KindValue)
	if err != nil || !found {
		return false, pr.Wrap("get", key, err)
	}
	if err := c.codec.Unmarshal(e.Items[0].Payload, dst); err != nil {
		return false, pr.Wrap("get", key, err)
	}
	return true, nil
}

func (c *Cache) IncrementValue(ctx context.Context, key string, delta int64) (int64, error) {
	n, err := c.add(ctx, key, delta)
	return n, pr.Wrap("incr", key, err)
}

func (c *Cache) DecrementValue(ctx context.Context, key string, delta int64) (int64, error) {
	n, err := c.add(ctx, key, -delta)
	return n, pr.Wrap("decr", key, err)
}

// add stores counters as decimal text, the same bytes a JSON or string codec
// would read back as a number.
func (c *Cache) add(ctx context.Context, key string, delta int64) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, found, err := c.read(ctx, key, wire.KindValue)
	if err != nil {
		return 0, err
	}
	var n int64
	if found {
		n, err = strconv.ParseInt(string(e.Items[0].Payload), 10, 64)
		if err != nil {
			return 0, pr.ErrNotInteger
		}
	}
	n += delta
	out := wire.Entry{Kind: wire.KindValue, Items: []wire.Item{{Payload: strconv.AppendInt(nil, n, 10)}}}
	return n, c.write(ctx, key, out, 0)
}

func (c *Cache) RemoveValue(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return pr.Wrap("del", key, c.store.Del(ctx, key))
}

func (c *Cache) SetMap(ctx context.Context, key string, m any, ttl time.Duration) error {
	fields, err := shape.Fields(m)
	if err != nil {
		return pr.Wrap("hset", key, err)
	}
	if len(fields) == 0 {
		return nil
	}
	incoming := make([]wire.Item, len(fields))
	for i, f := range fields {
		b, err := c.codec.Marshal(f.Value)
		if err != nil {
			return pr.Wrap("hset", key, fmt.Errorf("field %q: %w", f.Name, err))
		}
		incoming[i] = wire.Item{Key: f.Name, Payload: b}
	}
	return pr.Wrap("hset", key, c.merge(ctx, key, wire.KindMap, ttl, func(cur []wire.Item) []wire.Item {
		byName := make(map[string]int, len(cur))
		for i, it := range cur {
			byName[it.Key] = i
		}
		for _, it := range incoming {
			if i, ok := byName[it.Key]; ok {
				cur[i] = it
				continue
			}
			byName[it.Key] = len(cur)
			cur = append(cur, it)
		}
		return cur
	}))
}

func (c *Cache) GetMap(ctx context.Context, key string, dst any) (bool, error) {
	e, found, err := c.read(ctx, key, wire.KindMap)
	if err != nil || !found {
		return false, pr.Wrap("hgetall", key, err)
	}
	fields := make(map[string][]byte, len(e.Items))
	for _, it := range e.Items {
		fields[it.Key] = it.Payload
	}
	if err := shape.FillMap(dst, fields, c.codec.Unmarshal); err != nil {
		return false, pr.Wrap("hgetall", key, err)
	}
	return true, nil
}

func (c *Cache) GetMapValue(ctx context.Context, key string, field string, dst any) (bool, error) {
	e, found, err := c.read(ctx, key, wire.KindMap)
	if err != nil || !found {
		return false, pr.Wrap("hget", key, err)
	}
	for _, it := range e.Items {
		if it.Key != field {
			continue
		}
		if err := c.codec.Unmarshal(it.Payload, dst); err != nil {
			return false, pr.Wrap("hget", key, err)
		}
		return true, nil
	}
	return false, nil
}

func (c *Cache) SetList(ctx context.Context, key string, list any, ttl time.Duration) error {
	incoming, err := c.encodeAll(list, shape.Elements)
	if err != nil {
		return pr.Wrap("rpush", key, err)
	}
	if len(incoming) == 0 {
		return nil
	}
	return pr.Wrap("rpush", key, c.merge(ctx, key, wire.KindList, ttl, func(cur []wire.Item) []wire.Item {
		return append(cur, incoming...)
	}))
}

func (c *Cache) GetList(ctx context.Context, key string, dst any) (bool, error) {
	return c.fillSlice(ctx, "lrange", key, wire.KindList, dst)
}

func (c *Cache) SetSet(ctx context.Context, key string, set any, ttl time.Duration) error {
	incoming, err := c.encodeAll(set, shape.Members)
	if err != nil {
		return pr.Wrap("sadd", key, err)
	}
	if len(incoming) == 0 {
		return nil
	}
	return pr.Wrap("sadd", key, c.merge(ctx, key, wire.KindSet, ttl, func(cur []wire.Item) []wire.Item {
		seen := make(map[string]struct{}, len(cur)+len(incoming))
		for _, it := range cur {
			seen[string(it.Payload)] = struct{}{}
		}
		for _, it := range incoming {
			if _, dup := seen[string(it.Payload)]; dup {
				continue
			}
			seen[string(it.Payload)] = struct{}{}
			cur = append(cur, it)
		}
		return cur
	}))
}

func (c *Cache) GetSet(ctx context.Context, key string, dst any) (bool, error) {
	return c.fillSlice(ctx, "smembers", key, wire.KindSet, dst)
}

func (c *Cache) SetSortedSet(ctx context.Context, key string, members []pr.Z, ttl time.Duration) error {
	if len(members) == 0 {
		return nil
	}
	incoming := make([]wire.Item, len(members))
	for i, m := range members {
		b, err := c.codec.Marshal(m.Member)
		if err != nil {
			return pr.Wrap("zadd", key, fmt.Errorf("member %d: %w", i, err))
		}
		incoming[i] = wire.Item{Score: m.Score, Payload: b}
	}
	return pr.Wrap("zadd", key, c.merge(ctx, key, wire.KindSortedSet, ttl, func(cur []wire.Item) []wire.Item {
		at := make(map[string]int, len(cur))
		for i, it := range cur {
			at[string(it.Payload)] = i
		}
		for _, it := range incoming {
			if i, ok := at[string(it.Payload)]; ok {
				cur[i].Score = it.Score
				continue
			}
			at[string(it.Payload)] = len(cur)
			cur = append(cur, it)
		}
		// score ascending, ties by member bytes like ZRANGE
		sort.SliceStable(cur, func(i, j int) bool {
			if cur[i].Score != cur[j].Score {
				return cur[i].Score < cur[j].Score
			}
			return string(cur[i].Payload) < string(cur[j].Payload)
		})
		return cur
	}))
}

func (c *Cache) GetSortedSet(ctx context.Context, key string, dst any) (bool, error) {
	zs, ok := dst.(*[]pr.Z)
	if !ok {
		return c.fillSlice(ctx, "zrange", key, wire.KindSortedSet, dst)
	}
	e, found, err := c.read(ctx, key, wire.KindSortedSet)
	if err != nil || !found {
		return false, pr.Wrap("zrange", key, err)
	}
	out := make([]pr.Z, len(e.Items))
	for i, it := range e.Items {
		var m any
		if err := c.codec.Unmarshal(it.Payload, &m); err != nil {
			return false, pr.Wrap("zrange", key, fmt.Errorf("member %d: %w", i, err))
		}
		out[i] = pr.Z{Score: it.Score, Member: m}
	}
	*zs = out
	return true, nil
}

func (c *Cache) Close(ctx context.Context) error {
	return pr.Wrap("close", "", c.store.Close(ctx))
}

// read loads key and checks its kind. A foreign or corrupt entry is dropped
// and reported as a miss.
func (c *Cache) read(ctx context.Context, key string, want wire.Kind) (wire.Entry, bool, error) {
	b, ok, err := c.store.Get(ctx, key)
	if err != nil || !ok {
		return wire.Entry{}, false, err
	}
	e, err := wire.Decode(b)
	if err != nil {
		_ = c.store.Del(ctx, key)
		return wire.Entry{}, false, nil
	}
	if e.Kind != want {
		return wire.Entry{}, false, fmt.Errorf("%w: holds a %s, want a %s", pr.ErrWrongType, e.Kind, want)
	}
	if len(e.Items) == 0 {
		return wire.Entry{}, false, nil
	}
	return e, true, nil
}

func (c *Cache) write(ctx context.Context, key string, e wire.Entry, ttl time.Duration) error {
	b, err := wire.Encode(e)
	if err != nil {
		return err
	}
	if ttl < 0 {
		ttl = 0
	}
	ok, err := c.store.Set(ctx, key, b, int64(len(b)), ttl)
	if err != nil {
		return err
	}
	if !ok {
		return pr.ErrRejected
	}
	return nil
}

func (c *Cache) merge(ctx context.Context, key string, kind wire.Kind, ttl time.Duration, fn func([]wire.Item) []wire.Item) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur, _, err := c.read(ctx, key, kind)
	if err != nil {
		return err
	}
	return c.write(ctx, key, wire.Entry{Kind: kind, Items: fn(cur.Items)}, ttl)
}

func (c *Cache) encodeAll(v any, walk func(any) ([]any, error)) ([]wire.Item, error) {
	items, err := walk(v)
	if err != nil {
		return nil, err
	}
	out := make([]wire.Item, len(items))
	for i, it := range items {
		b, err := c.codec.Marshal(it)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out[i] = wire.Item{Payload: b}
	}
	return out, nil
}

func (c *Cache) fillSlice(ctx context.Context, op, key string, kind wire.Kind, dst any) (bool, error) {
	e, found, err := c.read(ctx, key, kind)
	if err != nil || !found {
		return false, pr.Wrap(op, key, err)
	}
	payloads := make([][]byte, len(e.Items))
	for i, it := range e.Items {
		payloads[i] = it.Payload
	}
	if err := shape.FillSlice(dst, payloads, c.codec.Unmarshal); err != nil {
		return false, pr.Wrap(op, key, err)
	}
	return true, nil
}
