// Package memory is a map-backed provider.Provider with per-entry TTLs.
// Expired entries are dropped lazily on read.
package memory

import (
	"context"
	"sync"
	"time"

	pr "github.com/unkn0wn-root/cacheaspect/provider"
)

type entry struct {
	v   []byte
	exp time.Time
}

type Provider struct {
	mu  sync.Mutex
	m   map[string]entry
	now func() time.Time
}

var _ pr.Provider = (*Provider)(nil)

type Config struct {
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

func New(cfg Config) *Provider {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Provider{m: make(map[string]entry), now: now}
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.m[key]
	if !ok {
		return nil, false, nil
	}
	if !e.exp.IsZero() && p.now().After(e.exp) {
		delete(p.m, key)
		return nil, false, nil
	}
	return e.v, true, nil
}

func (p *Provider) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	var exp time.Time
	if ttl > 0 {
		exp = p.now().Add(ttl)
	}
	p.mu.Lock()
	p.m[key] = entry{v: value, exp: exp}
	p.mu.Unlock()
	return true, nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	p.mu.Lock()
	delete(p.m, key)
	p.mu.Unlock()
	return nil
}

// Len counts stored entries, expired ones included until they are read.
func (p *Provider) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.m)
}

func (p *Provider) Close(_ context.Context) error { return nil }
