package local

import (
	"context"
	"fmt"

	"github.com/unkn0wn-root/cacheaspect/internal/bloom"
	"github.com/unkn0wn-root/cacheaspect/internal/wire"
	pr "github.com/unkn0wn-root/cacheaspect/provider"
)

// Bloom entries carry their config in scored items, then the bitmap.
const (
	itemSize        = "size"
	itemHashes      = "hashIterations"
	itemInsertions  = "expectedInsertions"
	itemProbability = "falseProbability"
	itemBits        = "bits"
)

type filter struct {
	c   *Cache
	key string
	cfg bloom.Config
}

var _ pr.BloomFilter = (*filter)(nil)

func (c *Cache) CreateBloomFilter(ctx context.Context, key string, expectedInsertions int64, falsePositiveRate float64) (pr.BloomFilter, error) {
	want, err := bloom.NewConfig(expectedInsertions, falsePositiveRate)
	if err != nil {
		return nil, pr.Wrap("bloom.init", key, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, found, err := c.read(ctx, key, wire.KindBloom)
	if err != nil {
		return nil, pr.Wrap("bloom.init", key, err)
	}
	if found {
		cfg, _, err := decodeFilter(e)
		if err != nil {
			return nil, pr.Wrap("bloom.init", key, err)
		}
		return &filter{c: c, key: key, cfg: cfg}, nil
	}
	if err := c.write(ctx, key, encodeFilter(want, make([]byte, (want.Size+7)/8)), 0); err != nil {
		return nil, pr.Wrap("bloom.init", key, err)
	}
	return &filter{c: c, key: key, cfg: want}, nil
}

func (f *filter) Size() uint64        { return f.cfg.Size }
func (f *filter) HashIterations() int { return f.cfg.HashIterations }

func (f *filter) Add(ctx context.Context, member any) (bool, error) {
	pos, err := f.positions(member)
	if err != nil {
		return false, pr.Wrap("bloom.add", f.key, err)
	}

	f.c.mu.Lock()
	defer f.c.mu.Unlock()

	bits, err := f.bits(ctx)
	if err != nil {
		return false, pr.Wrap("bloom.add", f.key, err)
	}
	added := false
	for _, p := range pos {
		mask := byte(1) << (7 - p%8)
		if bits[p/8]&mask == 0 {
			bits[p/8] |= mask
			added = true
		}
	}
	if !added {
		return false, nil
	}
	if err := f.c.write(ctx, f.key, encodeFilter(f.cfg, bits), 0); err != nil {
		return false, pr.Wrap("bloom.add", f.key, err)
	}
	return true, nil
}

func (f *filter) Contains(ctx context.Context, member any) (bool, error) {
	pos, err := f.positions(member)
	if err != nil {
		return false, pr.Wrap("bloom.contains", f.key, err)
	}

	f.c.mu.Lock()
	defer f.c.mu.Unlock()

	bits, err := f.bits(ctx)
	if err != nil {
		return false, pr.Wrap("bloom.contains", f.key, err)
	}
	for _, p := range pos {
		if bits[p/8]&(byte(1)<<(7-p%8)) == 0 {
			return false, nil
		}
	}
	return true, nil
}

// bits returns the current bitmap; an evicted filter starts over empty.
func (f *filter) bits(ctx context.Context) ([]byte, error) {
	e, found, err := f.c.read(ctx, f.key, wire.KindBloom)
	if err != nil {
		return nil, err
	}
	if !found {
		return make([]byte, (f.cfg.Size+7)/8), nil
	}
	_, bits, err := decodeFilter(e)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), bits...), nil
}

func (f *filter) positions(member any) ([]uint64, error) {
	b, err := f.c.codec.Marshal(member)
	if err != nil {
		return nil, err
	}
	return f.cfg.Positions(b), nil
}

func encodeFilter(cfg bloom.Config, bits []byte) wire.Entry {
	return wire.Entry{Kind: wire.KindBloom, Items: []wire.Item{
		{Key: itemSize, Score: float64(cfg.Size)},
		{Key: itemHashes, Score: float64(cfg.HashIterations)},
		{Key: itemInsertions, Score: float64(cfg.ExpectedInsertions)},
		{Key: itemProbability, Score: cfg.FalseProbability},
		{Key: itemBits, Payload: bits},
	}}
}

func decodeFilter(e wire.Entry) (bloom.Config, []byte, error) {
	var (
		cfg  bloom.Config
		bits []byte
	)
	for _, it := range e.Items {
		switch it.Key {
		case itemSize:
			cfg.Size = uint64(it.Score)
		case itemHashes:
			cfg.HashIterations = int(it.Score)
		case itemInsertions:
			cfg.ExpectedInsertions = int64(it.Score)
		case itemProbability:
			cfg.FalseProbability = it.Score
		case itemBits:
			bits = it.Payload
		}
	}
	if cfg.Size == 0 || cfg.HashIterations < 1 || uint64(len(bits)) != (cfg.Size+7)/8 {
		return bloom.Config{}, nil, fmt.Errorf("%w: bad bloom entry", wire.ErrCorrupt)
	}
	return cfg, bits, nil
}
