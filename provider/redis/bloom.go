package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/cacheaspect/codec"
	"github.com/unkn0wn-root/cacheaspect/internal/bloom"
	pr "github.com/unkn0wn-root/cacheaspect/provider"
)

// tryInit writes the config hash only if it does not exist yet.
var tryInit = goredis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return 0
end
redis.call('HSET', KEYS[1], 'size', ARGV[1], 'hashIterations', ARGV[2],
  'expectedInsertions', ARGV[3], 'falseProbability', ARGV[4])
return 1
`)

type storedConfig struct {
	Size               uint64  `redis:"size"`
	HashIterations     int     `redis:"hashIterations"`
	ExpectedInsertions int64   `redis:"expectedInsertions"`
	FalseProbability   float64 `redis:"falseProbability"`
}

type filter struct {
	rdb   goredis.UniversalClient
	codec codec.Codec
	key   string
	cfg   bloom.Config
}

var _ pr.BloomFilter = (*filter)(nil)

func configKey(key string) string { return "{" + key + "}:config" }

func (c *Cache) CreateBloomFilter(ctx context.Context, key string, expectedInsertions int64, falsePositiveRate float64) (pr.BloomFilter, error) {
	want, err := bloom.NewConfig(expectedInsertions, falsePositiveRate)
	if err != nil {
		return nil, pr.Wrap("bloom.init", key, err)
	}
	ck := configKey(key)
	err = tryInit.Run(ctx, c.rdb, []string{ck},
		want.Size, want.HashIterations, want.ExpectedInsertions, want.FalseProbability).Err()
	if err != nil {
		return nil, pr.Wrap("bloom.init", key, classify(err))
	}

	var sc storedConfig
	if err := c.rdb.HGetAll(ctx, ck).Scan(&sc); err != nil {
		return nil, pr.Wrap("bloom.init", key, classify(err))
	}
	if sc.Size == 0 || sc.HashIterations < 1 {
		return nil, pr.Wrap("bloom.init", key, fmt.Errorf("invalid stored config %+v", sc))
	}
	return &filter{
		rdb:   c.rdb,
		codec: c.codec,
		key:   key,
		cfg: bloom.Config{
			Size:               sc.Size,
			HashIterations:     sc.HashIterations,
			ExpectedInsertions: sc.ExpectedInsertions,
			FalseProbability:   sc.FalseProbability,
		},
	}, nil
}

func (f *filter) Size() uint64        { return f.cfg.Size }
func (f *filter) HashIterations() int { return f.cfg.HashIterations }

func (f *filter) Add(ctx context.Context, member any) (bool, error) {
	pos, err := f.positions(member)
	if err != nil {
		return false, pr.Wrap("bloom.add", f.key, err)
	}
	cmds, err := f.rdb.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		for _, p := range pos {
			pipe.SetBit(ctx, f.key, int64(p), 1)
		}
		return nil
	})
	if err != nil {
		return false, pr.Wrap("bloom.add", f.key, classify(err))
	}
	added := false
	for _, cmd := range cmds {
		if cmd.(*goredis.IntCmd).Val() == 0 {
			added = true
		}
	}
	return added, nil
}

func (f *filter) Contains(ctx context.Context, member any) (bool, error) {
	pos, err := f.positions(member)
	if err != nil {
		return false, pr.Wrap("bloom.contains", f.key, err)
	}
	cmds, err := f.rdb.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		for _, p := range pos {
			pipe.GetBit(ctx, f.key, int64(p))
		}
		return nil
	})
	if err != nil {
		return false, pr.Wrap("bloom.contains", f.key, classify(err))
	}
	for _, cmd := range cmds {
		if cmd.(*goredis.IntCmd).Val() == 0 {
			return false, nil
		}
	}
	return true, nil
}

func (f *filter) positions(member any) ([]uint64, error) {
	b, err := f.codec.Marshal(member)
	if err != nil {
		return nil, err
	}
	return f.cfg.Positions(b), nil
}
