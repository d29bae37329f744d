package cacheaspect

// coalesce picks def when v is unset. New uses it for every optional field
// of Options.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
