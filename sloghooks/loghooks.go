// Package sloghooks writes cacheaspect hook events to a log/slog logger,
// with sampling for the high-volume ones and redacted keys.
package sloghooks

import (
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/cacheaspect"
	"github.com/unkn0wn-root/cacheaspect/internal/util"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	HitEvery   uint64
	MissEvery  uint64
	StoreEvery uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	hitCtr   atomic.Uint64
	missCtr  atomic.Uint64
	storeCtr atomic.Uint64
}

var _ cacheaspect.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	return util.Redact(k)
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) KeyTruncated(method, key string, at int) {
	if h.l == nil {
		return
	}
	h.l.Warn("cacheaspect.key_truncated",
		"method", method,
		"key", h.redact(key),
		"expr_index", at)
}

func (h *Hooks) CacheHit(method, key string) {
	if h.l == nil || !sample(h.opts.HitEvery, &h.hitCtr) {
		return
	}
	h.l.Debug("cacheaspect.hit", "method", method, "key", h.redact(key))
}

func (h *Hooks) CacheMiss(method, key string) {
	if h.l == nil || !sample(h.opts.MissEvery, &h.missCtr) {
		return
	}
	h.l.Debug("cacheaspect.miss", "method", method, "key", h.redact(key))
}

func (h *Hooks) Stored(method, key string, dt cacheaspect.DataType) {
	if h.l == nil || !sample(h.opts.StoreEvery, &h.storeCtr) {
		return
	}
	h.l.Debug("cacheaspect.stored",
		"method", method,
		"key", h.redact(key),
		"type", dt.String())
}

func (h *Hooks) Evicted(method, key string) {
	if h.l == nil {
		return
	}
	h.l.Debug("cacheaspect.evicted", "method", method, "key", h.redact(key))
}

func (h *Hooks) Failed(method, stage string, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("cacheaspect.failed",
		"method", method,
		"stage", stage,
		"err", err)
}
