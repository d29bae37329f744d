// Package asynchook moves hook delivery off the call path: events are queued
// to a fixed pool of workers and dropped when the queue is full.
//
// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{HitEvery: 100})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	aspect, _ := cacheaspect.New(cacheaspect.Options{
//	    Cache:       cache,
//	    CachePrefix: "app",
//	    Hooks:       hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/cacheaspect"
)

type Hooks struct {
	inner   cacheaspect.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
}

var _ cacheaspect.Hooks = (*Hooks)(nil)

func New(inner cacheaspect.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Events sent after Close
// are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

// Dropped counts events lost to a full queue or a closed hook.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default: // drop
		h.dropped.Add(1)
	}
}

func (h *Hooks) KeyTruncated(m, k string, at int) { h.try(func() { h.inner.KeyTruncated(m, k, at) }) }
func (h *Hooks) CacheHit(m, k string)             { h.try(func() { h.inner.CacheHit(m, k) }) }
func (h *Hooks) CacheMiss(m, k string)            { h.try(func() { h.inner.CacheMiss(m, k) }) }
func (h *Hooks) Evicted(m, k string)              { h.try(func() { h.inner.Evicted(m, k) }) }
func (h *Hooks) Stored(m, k string, dt cacheaspect.DataType) {
	h.try(func() { h.inner.Stored(m, k, dt) })
}
func (h *Hooks) Failed(m, stage string, err error) {
	h.try(func() { h.inner.Failed(m, stage, err) })
}
