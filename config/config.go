// Package config loads cacheaspect settings from a file and CACHEASPECT_*
// environment variables, and builds the configured cache from them.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/unkn0wn-root/cacheaspect/codec"
)

// EnvPrefix is prepended to environment overrides:
// redis.addrs -> CACHEASPECT_REDIS_ADDRS.
const EnvPrefix = "CACHEASPECT"

const (
	BackendRedis = "redis"
	BackendLocal = "local"

	EngineMemory    = "memory"
	EngineRistretto = "ristretto"
	EngineBigCache  = "bigcache"
)

type Config struct {
	// Global key prefix; blank keys start at the local prefix.
	CachePrefix string `mapstructure:"cache_prefix"`

	// Backend: "redis" (default) or "local"
	Backend string `mapstructure:"backend"`

	// Codec: json (default), msgpack, cbor, cbor-det or string
	Codec string `mapstructure:"codec"`

	// MaxDecodeBytes rejects larger cached payloads; 0 = unlimited
	MaxDecodeBytes int `mapstructure:"max_decode_bytes"`

	Redis RedisConfig `mapstructure:"redis"`
	Local LocalConfig `mapstructure:"local"`
}

type RedisConfig struct {
	// Mode: "standalone" (single machine) or "cluster"
	Mode string `mapstructure:"mode"`

	// Address list; standalone uses the first one
	Addrs []string `mapstructure:"addrs"`

	// Addr single address, folded into Addrs
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`

	// Database number (0-15, standalone only)
	DB int `mapstructure:"db"`

	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	MaxRetries   int           `mapstructure:"max_retries"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type LocalConfig struct {
	// Engine: "memory" (default), "ristretto" or "bigcache"
	Engine    string          `mapstructure:"engine"`
	Ristretto RistrettoConfig `mapstructure:"ristretto"`
	BigCache  BigCacheConfig  `mapstructure:"bigcache"`
}

type RistrettoConfig struct {
	NumCounters int64 `mapstructure:"num_counters"`
	MaxCost     int64 `mapstructure:"max_cost"`
	BufferItems int64 `mapstructure:"buffer_items"`
	Metrics     bool  `mapstructure:"metrics"`
}

type BigCacheConfig struct {
	LifeWindow         time.Duration `mapstructure:"life_window"`
	CleanWindow        time.Duration `mapstructure:"clean_window"`
	Shards             int           `mapstructure:"shards"`
	MaxEntriesInWindow int           `mapstructure:"max_entries_in_window"`
	MaxEntrySize       int           `mapstructure:"max_entry_size"`
	HardMaxCacheSizeMB int           `mapstructure:"hard_max_cache_size_mb"`
}

// keys lists every setting so environment variables are seen even when the
// file does not mention them.
var keys = []string{
	"cache_prefix", "backend", "codec", "max_decode_bytes",
	"redis.mode", "redis.addrs", "redis.addr", "redis.password", "redis.db",
	"redis.pool_size", "redis.min_idle_conns", "redis.max_retries",
	"redis.dial_timeout", "redis.read_timeout", "redis.write_timeout",
	"local.engine",
	"local.ristretto.num_counters", "local.ristretto.max_cost",
	"local.ristretto.buffer_items", "local.ristretto.metrics",
	"local.bigcache.life_window", "local.bigcache.clean_window",
	"local.bigcache.shards", "local.bigcache.max_entries_in_window",
	"local.bigcache.max_entry_size", "local.bigcache.hard_max_cache_size_mb",
}

// Load reads path (YAML, JSON or TOML by extension; empty path skips the
// file), applies CACHEASPECT_* overrides, fills defaults and validates.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return nil, fmt.Errorf("config: bind %s: %w", k, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills every unset field.
func (c *Config) ApplyDefaults() {
	if c.Backend == "" {
		c.Backend = BackendRedis
	}
	if c.Codec == "" {
		c.Codec = "json"
	}
	c.Redis.ApplyDefaults()
	c.Local.ApplyDefaults()
}

func (c *RedisConfig) ApplyDefaults() {
	if c.Mode == "" {
		c.Mode = "standalone"
	}
	if c.Addr != "" && len(c.Addrs) == 0 {
		c.Addrs = []string{c.Addr}
	}
	if len(c.Addrs) == 0 {
		c.Addrs = []string{"localhost:6379"}
	}
	if c.PoolSize == 0 {
		c.PoolSize = 10
	}
	if c.MinIdleConns == 0 {
		c.MinIdleConns = 2
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = 5 * time.Second
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 3 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 3 * time.Second
	}
}

func (c *LocalConfig) ApplyDefaults() {
	if c.Engine == "" {
		c.Engine = EngineMemory
	}
	r := &c.Ristretto
	if r.NumCounters == 0 {
		r.NumCounters = 1e6
	}
	if r.MaxCost == 0 {
		r.MaxCost = 64 << 20
	}
	if r.BufferItems == 0 {
		r.BufferItems = 64
	}
	b := &c.BigCache
	if b.LifeWindow == 0 {
		b.LifeWindow = 10 * time.Minute
	}
	if b.Shards == 0 {
		b.Shards = 64
	}
	if b.MaxEntriesInWindow == 0 {
		b.MaxEntriesInWindow = 10_000
	}
	if b.MaxEntrySize == 0 {
		b.MaxEntrySize = 512
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendRedis:
		if err := c.Redis.Validate(); err != nil {
			return err
		}
	case BackendLocal:
		if err := c.Local.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("config: invalid backend %q (must be redis or local)", c.Backend)
	}
	if _, err := codec.ByName(c.Codec); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.MaxDecodeBytes < 0 {
		return fmt.Errorf("config: max_decode_bytes must be >= 0, got: %d", c.MaxDecodeBytes)
	}
	return nil
}

func (c *RedisConfig) Validate() error {
	if c.Mode != "standalone" && c.Mode != "cluster" {
		return fmt.Errorf("config: invalid redis mode %q (must be standalone or cluster)", c.Mode)
	}
	if len(c.Addrs) == 0 {
		return fmt.Errorf("config: redis addrs cannot be empty")
	}
	if c.Mode == "standalone" && (c.DB < 0 || c.DB > 15) {
		return fmt.Errorf("config: redis db must be between 0 and 15, got: %d", c.DB)
	}
	if c.PoolSize < 0 {
		return fmt.Errorf("config: redis pool_size must be >= 0, got: %d", c.PoolSize)
	}
	if c.MinIdleConns < 0 {
		return fmt.Errorf("config: redis min_idle_conns must be >= 0, got: %d", c.MinIdleConns)
	}
	return nil
}

func (c *LocalConfig) Validate() error {
	switch c.Engine {
	case EngineMemory, EngineRistretto, EngineBigCache:
		return nil
	default:
		return fmt.Errorf("config: invalid local engine %q (must be memory, ristretto or bigcache)", c.Engine)
	}
}
