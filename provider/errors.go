package provider

import (
	"errors"
	"fmt"
)

var (
	// ErrWrongType means key holds a different shape than the operation expects.
	ErrWrongType = errors.New("wrong kind of value stored under key")
	// ErrNotInteger means a counter operation hit a non-integer value.
	ErrNotInteger = errors.New("value is not an integer")
	// ErrRejected means a byte store refused a write under pressure.
	ErrRejected = errors.New("write rejected by store")
)

// StoreError is returned by every Cache operation that fails: transport,
// timeout, serialization or shape problems.
type StoreError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("cache %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Wrap returns nil for a nil err, otherwise a *StoreError. An err that is
// already a *StoreError is returned unchanged.
func Wrap(op, key string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Key: key, Err: err}
}
