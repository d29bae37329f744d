// Package otelhook counts cacheaspect events with OpenTelemetry metrics.
// Keys are never recorded; series are split by method (and stage or data
// type where it applies).
package otelhook

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/unkn0wn-root/cacheaspect"
)

type Hooks struct {
	hits        metric.Int64Counter
	misses      metric.Int64Counter
	stores      metric.Int64Counter
	evictions   metric.Int64Counter
	truncations metric.Int64Counter
	failures    metric.Int64Counter
}

var _ cacheaspect.Hooks = (*Hooks)(nil)

// New registers the counters on meter.
func New(meter metric.Meter) (*Hooks, error) {
	h := &Hooks{}
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
		unit string
	}{
		{&h.hits, "cacheaspect.hits", "Cacheable calls served from the cache", "{hit}"},
		{&h.misses, "cacheaspect.misses", "Cacheable calls that ran the wrapped function", "{miss}"},
		{&h.stores, "cacheaspect.stores", "Results written to the cache", "{store}"},
		{&h.evictions, "cacheaspect.evictions", "Entries removed before a call", "{eviction}"},
		{&h.truncations, "cacheaspect.key_truncations", "Keys cut short by a blank segment", "{key}"},
		{&h.failures, "cacheaspect.failures", "Calls failed by a cache step", "{error}"},
	}
	for _, c := range counters {
		ctr, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit(c.unit))
		if err != nil {
			return nil, err
		}
		*c.dst = ctr
	}
	return h, nil
}

func add(c metric.Int64Counter, attrs ...attribute.KeyValue) {
	c.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}

func (h *Hooks) KeyTruncated(method, _ string, _ int) {
	add(h.truncations, attribute.String("method", method))
}

func (h *Hooks) CacheHit(method, _ string) { add(h.hits, attribute.String("method", method)) }

func (h *Hooks) CacheMiss(method, _ string) { add(h.misses, attribute.String("method", method)) }

func (h *Hooks) Stored(method, _ string, dt cacheaspect.DataType) {
	add(h.stores, attribute.String("method", method), attribute.String("type", dt.String()))
}

func (h *Hooks) Evicted(method, _ string) { add(h.evictions, attribute.String("method", method)) }

func (h *Hooks) Failed(method, stage string, _ error) {
	add(h.failures, attribute.String("method", method), attribute.String("stage", stage))
}
