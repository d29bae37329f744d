package config

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/cacheaspect"
	"github.com/unkn0wn-root/cacheaspect/codec"
	pr "github.com/unkn0wn-root/cacheaspect/provider"
	"github.com/unkn0wn-root/cacheaspect/provider/bigcache"
	"github.com/unkn0wn-root/cacheaspect/provider/local"
	"github.com/unkn0wn-root/cacheaspect/provider/memory"
	redisprov "github.com/unkn0wn-root/cacheaspect/provider/redis"
	"github.com/unkn0wn-root/cacheaspect/provider/ristretto"
)

// NewCodec returns the configured codec, size-limited when MaxDecodeBytes is set.
func (c *Config) NewCodec() (codec.Codec, error) {
	cd, err := codec.ByName(c.Codec)
	if err != nil {
		return nil, err
	}
	if c.MaxDecodeBytes > 0 {
		return codec.Limit{Inner: cd, MaxDecode: c.MaxDecodeBytes}, nil
	}
	return cd, nil
}

// OpenCache builds the configured cache. The returned cache owns every
// client it created; Close releases them.
func (c *Config) OpenCache(ctx context.Context) (pr.Cache, error) {
	cd, err := c.NewCodec()
	if err != nil {
		return nil, err
	}
	switch c.Backend {
	case BackendRedis:
		client := c.Redis.NewClient()
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("config: redis ping: %w", err)
		}
		cache, err := redisprov.New(redisprov.Config{Client: client, Codec: cd, CloseClient: true})
		if err != nil {
			return nil, err
		}
		return cache, nil
	case BackendLocal:
		store, err := c.Local.NewProvider(ctx)
		if err != nil {
			return nil, err
		}
		cache, err := local.New(local.Config{Provider: store, Codec: cd})
		if err != nil {
			return nil, err
		}
		return cache, nil
	default:
		return nil, fmt.Errorf("config: invalid backend %q", c.Backend)
	}
}

// NewClient returns a standalone or cluster client.
func (c *RedisConfig) NewClient() goredis.UniversalClient {
	opts := &goredis.UniversalOptions{
		Addrs:        c.Addrs,
		Password:     c.Password,
		DB:           c.DB,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.MinIdleConns,
		MaxRetries:   c.MaxRetries,
		DialTimeout:  c.DialTimeout,
		ReadTimeout:  c.ReadTimeout,
		WriteTimeout: c.WriteTimeout,
	}
	if c.Mode == "cluster" {
		return goredis.NewClusterClient(opts.Cluster())
	}
	return goredis.NewClient(opts.Simple())
}

func (c *LocalConfig) NewProvider(ctx context.Context) (pr.Provider, error) {
	switch c.Engine {
	case EngineMemory:
		return memory.New(memory.Config{}), nil
	case EngineRistretto:
		p, err := ristretto.New(ristretto.Config{
			NumCounters: c.Ristretto.NumCounters,
			MaxCost:     c.Ristretto.MaxCost,
			BufferItems: c.Ristretto.BufferItems,
			Metrics:     c.Ristretto.Metrics,
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	case EngineBigCache:
		p, err := bigcache.New(ctx, bigcache.Config{
			LifeWindow:         c.BigCache.LifeWindow,
			CleanWindow:        c.BigCache.CleanWindow,
			Shards:             c.BigCache.Shards,
			MaxEntriesInWindow: c.BigCache.MaxEntriesInWindow,
			MaxEntrySize:       c.BigCache.MaxEntrySize,
			HardMaxCacheSizeMB: c.BigCache.HardMaxCacheSizeMB,
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("config: invalid local engine %q", c.Engine)
	}
}

// NewAspect opens the cache and wraps it in an Aspect using CachePrefix.
func (c *Config) NewAspect(ctx context.Context, log cacheaspect.Logger, hooks cacheaspect.Hooks) (*cacheaspect.Aspect, error) {
	cache, err := c.OpenCache(ctx)
	if err != nil {
		return nil, err
	}
	a, err := cacheaspect.New(cacheaspect.Options{
		Cache:       cache,
		CachePrefix: c.CachePrefix,
		Logger:      log,
		Hooks:       hooks,
	})
	if err != nil {
		_ = cache.Close(ctx)
		return nil, err
	}
	return a, nil
}
