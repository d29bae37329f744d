// Package cacheaspect adds declarative caching to plain Go functions.
//
// A function is registered once together with its Method identity (name and
// declared parameter names) and a cache spec; the returned Func reads, writes
// or evicts a cache entry on every call. Keys are computed from the call's
// arguments with small expressions:
//
//	getUser := cacheaspect.Cacheable[User](aspect,
//	    cacheaspect.Method{Name: "UserService.Get", Params: []string{"id"}},
//	    cacheaspect.CacheableSpec{Prefix: "user:", Key: "#id", Timeout: 10},
//	    loadUser)
//
//	u, err := getUser(ctx, 42) // key "app:user:42" when CachePrefix is "app"
//
// Components:
//   - keyexpr: binds arguments to parameter names and evaluates expressions.
//   - BuildKey: assembles "<global>:<local>_<seg1>_<seg2>..." keys.
//   - Evict / Put / Cacheable: the three advice wrappers.
//   - provider.Cache: the store facade (provider/redis, provider/local).
//
// Failures are never swallowed: an expression, binding or store error fails
// the call with *EvaluationError, *BindingError or *StoreError.
package cacheaspect
