package cacheaspect

import (
	"time"

	pr "github.com/unkn0wn-root/cacheaspect/provider"
)

// DataType selects the store shape a result is written as.
type DataType int

const (
	DataTypeDefault   DataType = iota // scalar value
	DataTypeMap                       // hash; result must be a map
	DataTypeList                      // list; result must be a slice
	DataTypeSet                       // set; result must be a slice or set-like map
	DataTypeSortedSet                 // sorted set; result is []provider.Z or a slice ranked by index
)

func (d DataType) String() string {
	switch d {
	case DataTypeDefault:
		return "default"
	case DataTypeMap:
		return "map"
	case DataTypeList:
		return "list"
	case DataTypeSet:
		return "set"
	case DataTypeSortedSet:
		return "sortedset"
	default:
		return "unknown"
	}
}

// TimeUnit qualifies a spec Timeout. The zero value means minutes.
type TimeUnit = pr.TimeUnit

const (
	UnitDefault  = pr.UnitDefault
	Nanoseconds  = pr.Nanoseconds
	Microseconds = pr.Microseconds
	Milliseconds = pr.Milliseconds
	Seconds      = pr.Seconds
	Minutes      = pr.Minutes
	Hours        = pr.Hours
	Days         = pr.Days
)

// Expiration converts Timeout/TimeUnit into a TTL; see provider.Expiration.
func Expiration(timeout int64, unit TimeUnit) time.Duration {
	return pr.Expiration(timeout, unit)
}

// PutSpec stores a call's result after it returns successfully.
//
// The key is CachePrefix + ":" + Prefix + the value of Key. Timeout <= 0
// stores without expiry.
type PutSpec struct {
	Prefix   string
	Key      string
	Type     DataType
	Timeout  int64
	TimeUnit TimeUnit
}

func (s PutSpec) ttl() time.Duration { return Expiration(s.Timeout, s.TimeUnit) }

// CacheableSpec serves a call from the cache when the key is present and
// stores the result otherwise. Fields mean the same as in PutSpec.
type CacheableSpec PutSpec

// EvictSpec removes an entry before the call proceeds.
//
// Each of Keys is evaluated in order and appended as "_<value>"; the first
// blank value ends the key.
type EvictSpec struct {
	Prefix string
	Keys   []string
}
