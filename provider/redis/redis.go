// Package redis implements provider.Cache on top of go-redis.
//
// Scalars are plain strings, counters are native Redis integers, and
// collections map onto hashes, lists, sets and sorted sets. Bloom filters
// keep their bits in a bitmap under key and their configuration in the hash
// "{key}:config".
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/cacheaspect/codec"
	"github.com/unkn0wn-root/cacheaspect/internal/shape"
	pr "github.com/unkn0wn-root/cacheaspect/provider"
)

var ErrNilClient = errors.New("redis provider: nil client")

type Cache struct {
	rdb         goredis.UniversalClient
	codec       codec.Codec
	closeClient bool
}

var _ pr.Cache = (*Cache)(nil)

type Config struct {
	Client      goredis.UniversalClient
	Codec       codec.Codec // defaults to codec.JSON
	CloseClient bool        // set true only if this cache exclusively owns the client
}

func New(cfg Config) (*Cache, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	c := cfg.Codec
	if c == nil {
		c = codec.JSON{}
	}
	return &Cache{rdb: cfg.Client, codec: c, closeClient: cfg.CloseClient}, nil
}

func (c *Cache) SetValue(ctx context.Context, key string, value any, ttl time.Duration) error {
	b, err := c.codec.Marshal(value)
	if err != nil {
		return pr.Wrap("set", key, err)
	}
	return pr.Wrap("set", key, classify(c.rdb.Set(ctx, key, b, expiry(ttl)).Err()))
}

func (c *Cache) GetValue(ctx context.Context, key string, dst any) (bool, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return false, nil // miss
	}
	if err != nil {
		return false, pr.Wrap("get", key, classify(err))
	}
	if err := c.codec.Unmarshal(b, dst); err != nil {
		return false, pr.Wrap("get", key, err)
	}
	return true, nil
}

func (c *Cache) IncrementValue(ctx context.Context, key string, delta int64) (int64, error) {
	n, err := c.rdb.IncrBy(ctx, key, delta).Result()
	return n, pr.Wrap("incr", key, classify(err))
}

func (c *Cache) DecrementValue(ctx context.Context, key string, delta int64) (int64, error) {
	n, err := c.rdb.DecrBy(ctx, key, delta).Result()
	return n, pr.Wrap("decr", key, classify(err))
}

func (c *Cache) RemoveValue(ctx context.Context, key string) error {
	return pr.Wrap("del", key, classify(c.rdb.Del(ctx, key).Err()))
}

func (c *Cache) SetMap(ctx context.Context, key string, m any, ttl time.Duration) error {
	fields, err := shape.Fields(m)
	if err != nil {
		return pr.Wrap("hset", key, err)
	}
	if len(fields) == 0 {
		return nil
	}
	args := make([]any, 0, 2*len(fields))
	for _, f := range fields {
		b, err := c.codec.Marshal(f.Value)
		if err != nil {
			return pr.Wrap("hset", key, fmt.Errorf("field %q: %w", f.Name, err))
		}
		args = append(args, f.Name, b)
	}
	return c.populate(ctx, "hset", key, ttl, func(pipe goredis.Pipeliner) {
		pipe.HSet(ctx, key, args...)
	})
}

func (c *Cache) GetMap(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := c.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return false, pr.Wrap("hgetall", key, classify(err))
	}
	if len(raw) == 0 {
		return false, nil
	}
	fields := make(map[string][]byte, len(raw))
	for k, v := range raw {
		fields[k] = []byte(v)
	}
	if err := shape.FillMap(dst, fields, c.codec.Unmarshal); err != nil {
		return false, pr.Wrap("hgetall", key, err)
	}
	return true, nil
}

func (c *Cache) GetMapValue(ctx context.Context, key string, field string, dst any) (bool, error) {
	b, err := c.rdb.HGet(ctx, key, field).Bytes()
	if err == goredis.Nil {
		return false, nil
	}
	if err != nil {
		return false, pr.Wrap("hget", key, classify(err))
	}
	if err := c.codec.Unmarshal(b, dst); err != nil {
		return false, pr.Wrap("hget", key, err)
	}
	return true, nil
}

func (c *Cache) SetList(ctx context.Context, key string, list any, ttl time.Duration) error {
	payloads, err := c.encodeAll(list, shape.Elements)
	if err != nil {
		return pr.Wrap("rpush", key, err)
	}
	if len(payloads) == 0 {
		return nil
	}
	return c.populate(ctx, "rpush", key, ttl, func(pipe goredis.Pipeliner) {
		pipe.RPush(ctx, key, payloads...)
	})
}

func (c *Cache) GetList(ctx context.Context, key string, dst any) (bool, error) {
	items, err := c.rdb.LRange(ctx, key, 0, -1).Result()
	return c.fillSlice("lrange", key, items, err, dst)
}

func (c *Cache) SetSet(ctx context.Context, key string, set any, ttl time.Duration) error {
	payloads, err := c.encodeAll(set, shape.Members)
	if err != nil {
		return pr.Wrap("sadd", key, err)
	}
	if len(payloads) == 0 {
		return nil
	}
	return c.populate(ctx, "sadd", key, ttl, func(pipe goredis.Pipeliner) {
		pipe.SAdd(ctx, key, payloads...)
	})
}

func (c *Cache) GetSet(ctx context.Context, key string, dst any) (bool, error) {
	items, err := c.rdb.SMembers(ctx, key).Result()
	return c.fillSlice("smembers", key, items, err, dst)
}

func (c *Cache) SetSortedSet(ctx context.Context, key string, members []pr.Z, ttl time.Duration) error {
	if len(members) == 0 {
		return nil
	}
	zs := make([]goredis.Z, len(members))
	for i, m := range members {
		b, err := c.codec.Marshal(m.Member)
		if err != nil {
			return pr.Wrap("zadd", key, fmt.Errorf("member %d: %w", i, err))
		}
		zs[i] = goredis.Z{Score: m.Score, Member: b}
	}
	return c.populate(ctx, "zadd", key, ttl, func(pipe goredis.Pipeliner) {
		pipe.ZAdd(ctx, key, zs...)
	})
}

func (c *Cache) GetSortedSet(ctx context.Context, key string, dst any) (bool, error) {
	if zs, ok := dst.(*[]pr.Z); ok {
		return c.fillScored(ctx, key, zs)
	}
	items, err := c.rdb.ZRange(ctx, key, 0, -1).Result()
	return c.fillSlice("zrange", key, items, err, dst)
}

func (c *Cache) fillScored(ctx context.Context, key string, dst *[]pr.Z) (bool, error) {
	items, err := c.rdb.ZRangeWithScores(ctx, key, 0, -1).Result()
	if err != nil {
		return false, pr.Wrap("zrange", key, classify(err))
	}
	if len(items) == 0 {
		return false, nil
	}
	out := make([]pr.Z, len(items))
	for i, it := range items {
		s, _ := it.Member.(string)
		var m any
		if err := c.codec.Unmarshal([]byte(s), &m); err != nil {
			return false, pr.Wrap("zrange", key, fmt.Errorf("member %d: %w", i, err))
		}
		out[i] = pr.Z{Score: it.Score, Member: m}
	}
	*dst = out
	return true, nil
}

// Close releases the underlying redis client only when this cache owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (c *Cache) Close(context.Context) error {
	if c.closeClient {
		if err := c.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return pr.Wrap("close", "", err)
		}
	}
	return nil
}

// populate writes a collection and applies ttl in one MULTI/EXEC so the
// expiry never lands on a half-written key.
func (c *Cache) populate(ctx context.Context, op, key string, ttl time.Duration, fill func(goredis.Pipeliner)) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		fill(pipe)
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		return nil
	})
	return pr.Wrap(op, key, classify(err))
}

func (c *Cache) encodeAll(v any, walk func(any) ([]any, error)) ([]any, error) {
	items, err := walk(v)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(items))
	for i, it := range items {
		b, err := c.codec.Marshal(it)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out[i] = b
	}
	return out, nil
}

func (c *Cache) fillSlice(op, key string, items []string, err error, dst any) (bool, error) {
	if err != nil {
		return false, pr.Wrap(op, key, classify(err))
	}
	if len(items) == 0 {
		return false, nil
	}
	payloads := make([][]byte, len(items))
	for i, s := range items {
		payloads[i] = []byte(s)
	}
	if err := shape.FillSlice(dst, payloads, c.codec.Unmarshal); err != nil {
		return false, pr.Wrap(op, key, err)
	}
	return true, nil
}

func expiry(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0 // no expiry
	}
	return ttl
}

// classify maps server replies that mean "wrong shape" onto pr.ErrWrongType.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if strings.HasPrefix(err.Error(), "WRONGTYPE") {
		return fmt.Errorf("%w: %v", pr.ErrWrongType, err)
	}
	if strings.Contains(err.Error(), "not an integer") {
		return fmt.Errorf("%w: %v", pr.ErrNotInteger, err)
	}
	return err
}
