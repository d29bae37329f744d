package cacheaspect

// Stage names where a wrapped call can fail, as passed to Hooks.Failed.
const (
	StageKey   = "key"
	StageLoad  = "load"
	StageStore = "store"
	StageEvict = "evict"
)

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The advice calls them on every wrapped call.
type Hooks interface {
	// A blank expression result stopped key assembly; at is the index of
	// the blank expression and key the (shortened) key that was used.
	KeyTruncated(method, key string, at int)

	CacheHit(method, key string)
	CacheMiss(method, key string)

	// A result was written under key.
	Stored(method, key string, dt DataType)

	// key was removed before the call proceeded.
	Evicted(method, key string)

	// A call failed before or after the wrapped function ran.
	// stage ∈ {"key", "load", "store", "evict"}
	Failed(method, stage string, err error)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) KeyTruncated(string, string, int) {}
func (NopHooks) CacheHit(string, string)          {}
func (NopHooks) CacheMiss(string, string)         {}
func (NopHooks) Stored(string, string, DataType)  {}
func (NopHooks) Evicted(string, string)           {}
func (NopHooks) Failed(string, string, error)     {}
