// Package provider defines the storage contracts used by cacheaspect.
//
// Cache is the typed facade the advice talks to: scalar values, counters,
// maps, lists, sets, sorted sets and bloom filters, all keyed by a resolved
// cache key. Implementations live in subpackages: provider/redis for a
// Redis server, provider/local for an in-process Provider.
//
// Provider is the minimal byte store with TTLs that provider/local builds on
// (memory, ristretto, bigcache).
package provider

import (
	"context"
	"time"
)

// Cache is the facade over a distributed key/value store.
//
// ttl <= 0 means "no expiry" everywhere. Collection setters merge into what
// is already stored (maps merge fields, lists append, sets and sorted sets
// add members) and apply ttl after population. Getters return found=false
// for a missing or empty entry and leave dst untouched in that case.
//
// Every failure is a *StoreError.
type Cache interface {
	SetValue(ctx context.Context, key string, value any, ttl time.Duration) error
	GetValue(ctx context.Context, key string, dst any) (found bool, err error)
	IncrementValue(ctx context.Context, key string, delta int64) (int64, error)
	DecrementValue(ctx context.Context, key string, delta int64) (int64, error)
	RemoveValue(ctx context.Context, key string) error

	// SetMap takes any map; keys are stored in their string form.
	SetMap(ctx context.Context, key string, m any, ttl time.Duration) error
	// GetMap fills a *map[K]V (or *any).
	GetMap(ctx context.Context, key string, dst any) (bool, error)
	GetMapValue(ctx context.Context, key string, field string, dst any) (bool, error)

	// SetList appends the elements of a slice.
	SetList(ctx context.Context, key string, list any, ttl time.Duration) error
	// GetList fills a *[]T (or *any) in insertion order.
	GetList(ctx context.Context, key string, dst any) (bool, error)

	// SetSet adds the members of a slice or set-like map.
	SetSet(ctx context.Context, key string, set any, ttl time.Duration) error
	// GetSet fills a *[]T, *map[T]struct{}, *map[T]bool or *any.
	GetSet(ctx context.Context, key string, dst any) (bool, error)

	SetSortedSet(ctx context.Context, key string, members []Z, ttl time.Duration) error
	// GetSortedSet fills a *[]T (or *any) in ascending score order. A
	// *[]Z target also receives each member's stored score.
	GetSortedSet(ctx context.Context, key string, dst any) (bool, error)

	// CreateBloomFilter initialises a filter sized for expectedInsertions at
	// falsePositiveRate. If a filter already exists under key its stored
	// configuration wins.
	CreateBloomFilter(ctx context.Context, key string, expectedInsertions int64, falsePositiveRate float64) (BloomFilter, error)

	Close(ctx context.Context) error
}

// Z is a sorted-set member with its score.
type Z struct {
	Score  float64
	Member any
}

// BloomFilter is a probabilistic set: Contains never reports false for an
// added member, and may report true for one that was never added.
type BloomFilter interface {
	// Add reports whether the member was (probably) new.
	Add(ctx context.Context, member any) (bool, error)
	Contains(ctx context.Context, member any) (bool, error)
	Size() uint64
	HashIterations() int
}

// Provider is a minimal byte store with TTLs.
// Must be safe for concurrent use and must be byte-for-byte
// transparent: Get must return exactly the []byte previously passed to Set for
// the same key. Implementations must not prepend/append metadata, transcode, or
// otherwise mutate values.
type Provider interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value with the given TTL. May ignore cost if unsupported.
	// Returns ok=false when the store rejected the write under pressure.
	Set(ctx context.Context, key string, value []byte, cost int64, ttl time.Duration) (ok bool, err error)

	// Del removes a key (best-effort).
	Del(ctx context.Context, key string) error

	// Close releases resources.
	Close(ctx context.Context) error
}
