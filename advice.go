package cacheaspect

import (
	"context"
	"fmt"
	"time"

	"github.com/unkn0wn-root/cacheaspect/keyexpr"
	pr "github.com/unkn0wn-root/cacheaspect/provider"
)

// Evict wraps fn so every call first removes the entry named by spec, then
// calls fn. The removal stands even when fn fails. A key or store failure
// fails the call without calling fn.
func Evict[T any](a *Aspect, m Method, spec EvictSpec, fn Func[T]) Func[T] {
	mustWrap(a, fn)
	return func(ctx context.Context, args ...any) (T, error) {
		var zero T
		key, err := a.resolve(Invocation{Method: m, Args: args}, spec.Prefix, spec.Keys)
		if err != nil {
			return zero, err
		}
		if err := a.cache.RemoveValue(ctx, key); err != nil {
			a.failed(m.Name, StageEvict, key, err)
			return zero, err
		}
		a.hooks.Evicted(m.Name, key)
		a.log.Debug("cacheaspect: evicted", Fields{"method": m.Name, "key": key})
		return fn(ctx, args...)
	}
}

// Put wraps fn so every successful call stores its result under the key
// named by spec. Nothing is stored when fn fails.
func Put[T any](a *Aspect, m Method, spec PutSpec, fn Func[T]) Func[T] {
	mustWrap(a, fn)
	ttl := spec.ttl()
	return func(ctx context.Context, args ...any) (T, error) {
		var zero T
		key, err := a.resolveSingle(Invocation{Method: m, Args: args}, spec.Prefix, spec.Key)
		if err != nil {
			return zero, err
		}
		v, err := fn(ctx, args...)
		if err != nil {
			return v, err
		}
		if err := a.store(ctx, m.Name, key, spec.Type, v, ttl); err != nil {
			return zero, err
		}
		return v, nil
	}
}

// Cacheable wraps fn as a read-through: a hit returns the cached value
// without calling fn; a miss calls fn and stores the result. Concurrent
// misses on one key each call fn.
func Cacheable[T any](a *Aspect, m Method, spec CacheableSpec, fn Func[T]) Func[T] {
	mustWrap(a, fn)
	ttl := PutSpec(spec).ttl()
	return func(ctx context.Context, args ...any) (T, error) {
		var zero T
		key, err := a.resolveSingle(Invocation{Method: m, Args: args}, spec.Prefix, spec.Key)
		if err != nil {
			return zero, err
		}

		var cached T
		found, err := a.load(ctx, key, spec.Type, &cached)
		if err != nil {
			a.failed(m.Name, StageLoad, key, err)
			return zero, err
		}
		if found {
			a.hooks.CacheHit(m.Name, key)
			a.log.Debug("cacheaspect: hit", Fields{"method": m.Name, "key": key})
			return cached, nil
		}
		a.hooks.CacheMiss(m.Name, key)
		a.log.Debug("cacheaspect: miss", Fields{"method": m.Name, "key": key})

		v, err := fn(ctx, args...)
		if err != nil {
			return v, err
		}
		if err := a.store(ctx, m.Name, key, spec.Type, v, ttl); err != nil {
			return zero, err
		}
		return v, nil
	}
}

// ResolveKey computes the multi-segment key an EvictSpec{prefix, exprs}
// would use for inv, without touching the cache.
func (a *Aspect) ResolveKey(inv Invocation, prefix string, exprs []string) (string, error) {
	return a.resolve(inv, prefix, exprs)
}

func (a *Aspect) resolve(inv Invocation, prefix string, exprs []string) (string, error) {
	eval, err := a.evaluator(inv)
	if err != nil {
		return "", err
	}
	key, at, err := buildKey(a.prefix, prefix, exprs, eval)
	return a.resolved(inv.Method.Name, key, at, err)
}

func (a *Aspect) resolveSingle(inv Invocation, prefix, expr string) (string, error) {
	eval, err := a.evaluator(inv)
	if err != nil {
		return "", err
	}
	key, at, err := singleKey(a.prefix, prefix, expr, eval)
	return a.resolved(inv.Method.Name, key, at, err)
}

// evaluator binds the call's arguments once and returns an eval func over
// that binding.
func (a *Aspect) evaluator(inv Invocation) (func(string) (string, error), error) {
	b, err := keyexpr.Bind(inv.Method.Params, inv.Args)
	if err != nil {
		a.failed(inv.Method.Name, StageKey, "", err)
		return nil, err
	}
	return func(expr string) (string, error) {
		return a.eval.Evaluate(inv.Method.Name, b, expr)
	}, nil
}

func (a *Aspect) resolved(method, key string, at int, err error) (string, error) {
	if err != nil {
		a.failed(method, StageKey, "", err)
		return "", err
	}
	if at >= 0 {
		a.hooks.KeyTruncated(method, key, at)
		a.log.Warn("cacheaspect: blank key segment, key truncated",
			Fields{"method": method, "key": key, "expr_index": at})
	}
	return key, nil
}

func (a *Aspect) load(ctx context.Context, key string, dt DataType, dst any) (bool, error) {
	switch dt {
	case DataTypeDefault:
		return a.cache.GetValue(ctx, key, dst)
	case DataTypeMap:
		return a.cache.GetMap(ctx, key, dst)
	case DataTypeList:
		return a.cache.GetList(ctx, key, dst)
	case DataTypeSet:
		return a.cache.GetSet(ctx, key, dst)
	case DataTypeSortedSet:
		return a.cache.GetSortedSet(ctx, key, dst)
	default:
		return false, &StoreError{Op: "load", Key: key, Err: fmt.Errorf("unknown data type %d", int(dt))}
	}
}

func (a *Aspect) store(ctx context.Context, method, key string, dt DataType, v any, ttl time.Duration) error {
	var err error
	switch dt {
	case DataTypeDefault:
		err = a.cache.SetValue(ctx, key, v, ttl)
	case DataTypeMap:
		err = a.cache.SetMap(ctx, key, v, ttl)
	case DataTypeList:
		err = a.cache.SetList(ctx, key, v, ttl)
	case DataTypeSet:
		err = a.cache.SetSet(ctx, key, v, ttl)
	case DataTypeSortedSet:
		zs, ok := v.([]pr.Z)
		if !ok {
			if zs, err = pr.Ranked(v); err != nil {
				err = &StoreError{Op: "zadd", Key: key, Err: err}
				break
			}
		}
		err = a.cache.SetSortedSet(ctx, key, zs, ttl)
	default:
		err = &StoreError{Op: "store", Key: key, Err: fmt.Errorf("unknown data type %d", int(dt))}
	}
	if err != nil {
		a.failed(method, StageStore, key, err)
		return err
	}
	a.hooks.Stored(method, key, dt)
	a.log.Debug("cacheaspect: stored", Fields{"method": method, "key": key, "type": dt.String(), "ttl": ttl.String()})
	return nil
}

func (a *Aspect) failed(method, stage, key string, err error) {
	a.hooks.Failed(method, stage, err)
	f := Fields{"method": method, "stage": stage, "err": err}
	if key != "" {
		f["key"] = key
	}
	a.log.Warn("cacheaspect: cache step failed", f)
}

func mustWrap[T any](a *Aspect, fn Func[T]) {
	if a == nil {
		panic("cacheaspect: nil aspect")
	}
	if fn == nil {
		panic("cacheaspect: nil function")
	}
}
