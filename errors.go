package cacheaspect

import (
	"errors"

	"github.com/unkn0wn-root/cacheaspect/keyexpr"
	pr "github.com/unkn0wn-root/cacheaspect/provider"
)

// Error kinds surfaced by wrapped calls. Use errors.As to inspect them.
type (
	EvaluationError = keyexpr.EvaluationError
	BindingError    = keyexpr.BindingError
	StoreError      = pr.StoreError
)

var ErrCacheRequired = errors.New("cacheaspect: cache is required")
