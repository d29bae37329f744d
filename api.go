package cacheaspect

import (
	"context"

	"github.com/unkn0wn-root/cacheaspect/keyexpr"
	pr "github.com/unkn0wn-root/cacheaspect/provider"
)

// Options configure an Aspect. Only Cache is required.
type Options struct {
	// Required
	Cache pr.Cache

	CachePrefix string             // global key prefix; blank => keys start at the local prefix
	Evaluator   *keyexpr.Evaluator // nil => a private evaluator
	Logger      Logger             // if nil, NopLogger is used
	Hooks       Hooks              // if nil, NopHooks is used
}

// Aspect carries what every wrapped function shares: the cache, the global
// prefix and the compiled-expression cache. Safe for concurrent use.
type Aspect struct {
	cache  pr.Cache
	prefix string
	eval   *keyexpr.Evaluator
	log    Logger
	hooks  Hooks
}

func New(opts Options) (*Aspect, error) {
	if opts.Cache == nil {
		return nil, ErrCacheRequired
	}
	a := &Aspect{
		cache:  opts.Cache,
		prefix: opts.CachePrefix,
		eval:   coalesce(opts.Evaluator, keyexpr.New()),
	}
	a.log = coalesce[Logger](opts.Logger, NopLogger{})
	a.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	return a, nil
}

// Cache returns the facade the aspect writes to.
func (a *Aspect) Cache() pr.Cache { return a.cache }

func (a *Aspect) CachePrefix() string { return a.prefix }

// Close closes the underlying cache.
func (a *Aspect) Close(ctx context.Context) error { return a.cache.Close(ctx) }

// Method identifies a wrapped function. Name keys the compiled expressions
// (by convention "Type.Method"); Params are the declared parameter names in
// call order. Nil Params means names are unknown: expressions can only use
// literals.
type Method struct {
	Name   string
	Params []string
}

// MethodOf builds a Method named "typeName.method".
func MethodOf(typeName, method string, params ...string) Method {
	return Method{Name: typeName + "." + method, Params: params}
}

// Invocation is one call of a wrapped function.
type Invocation struct {
	Method Method
	Args   []any
}

// Func is the shape of every wrappable function: arguments are positional
// and must line up with Method.Params.
type Func[T any] func(ctx context.Context, args ...any) (T, error)
