// Package shape walks and fills the Go collections that back map, list and
// set entries. Stores only ever see field names and encoded payloads.
package shape

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"

	"github.com/spf13/cast"
)

// Decoder decodes payload into dst (a non-nil pointer).
type Decoder func(payload []byte, dst any) error

// Field is one map entry with its key rendered as a string.
type Field struct {
	Name  string
	Value any
}

// Fields lists the entries of map m sorted by field name.
func Fields(m any) ([]Field, error) {
	rv := reflect.ValueOf(m)
	if rv.Kind() != reflect.Map {
		return nil, fmt.Errorf("shape: want a map, got %T", m)
	}
	out := make([]Field, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		name, err := cast.ToStringE(iter.Key().Interface())
		if err != nil {
			return nil, fmt.Errorf("shape: map key: %w", err)
		}
		out = append(out, Field{Name: name, Value: iter.Value().Interface()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Elements lists the items of a slice or array in order.
func Elements(s any) ([]any, error) {
	rv := reflect.ValueOf(s)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
	default:
		return nil, fmt.Errorf("shape: want a slice, got %T", s)
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}

// Members is Elements that also accepts set-like maps (map[T]struct{},
// map[T]bool) and returns their keys.
func Members(s any) ([]any, error) {
	rv := reflect.ValueOf(s)
	if rv.Kind() != reflect.Map {
		return Elements(s)
	}
	out := make([]any, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		if iter.Value().Kind() == reflect.Bool && !iter.Value().Bool() {
			continue
		}
		out = append(out, iter.Key().Interface())
	}
	return out, nil
}

// FillMap decodes fields into dst, which must be a *map[K]V or *any.
// Keys are parsed back from their string form.
func FillMap(dst any, fields map[string][]byte, decode Decoder) error {
	target, err := pointee(dst)
	if err != nil {
		return err
	}
	if target.Kind() == reflect.Interface {
		m := make(map[string]any, len(fields))
		for name, payload := range fields {
			var v any
			if err := decode(payload, &v); err != nil {
				return fmt.Errorf("shape: field %q: %w", name, err)
			}
			m[name] = v
		}
		target.Set(reflect.ValueOf(m))
		return nil
	}
	if target.Kind() != reflect.Map {
		return fmt.Errorf("shape: cannot fill %s with a map", target.Type())
	}

	mt := target.Type()
	m := reflect.MakeMapWithSize(mt, len(fields))
	for name, payload := range fields {
		k, err := parseKey(name, mt.Key())
		if err != nil {
			return err
		}
		v := reflect.New(mt.Elem())
		if err := decode(payload, v.Interface()); err != nil {
			return fmt.Errorf("shape: field %q: %w", name, err)
		}
		m.SetMapIndex(k, v.Elem())
	}
	target.Set(m)
	return nil
}

// FillSlice decodes payloads into dst, which must be a *[]T, a set-like
// *map[T]struct{} / *map[T]bool, or *any.
func FillSlice(dst any, payloads [][]byte, decode Decoder) error {
	target, err := pointee(dst)
	if err != nil {
		return err
	}
	switch target.Kind() {
	case reflect.Interface:
		s := make([]any, len(payloads))
		for i, p := range payloads {
			if err := decode(p, &s[i]); err != nil {
				return fmt.Errorf("shape: item %d: %w", i, err)
			}
		}
		target.Set(reflect.ValueOf(s))
		return nil
	case reflect.Slice:
		s := reflect.MakeSlice(target.Type(), len(payloads), len(payloads))
		for i, p := range payloads {
			if err := decode(p, s.Index(i).Addr().Interface()); err != nil {
				return fmt.Errorf("shape: item %d: %w", i, err)
			}
		}
		target.Set(s)
		return nil
	case reflect.Map:
		mt := target.Type()
		var present reflect.Value
		switch {
		case mt.Elem().Kind() == reflect.Bool:
			present = reflect.ValueOf(true).Convert(mt.Elem())
		case mt.Elem().Kind() == reflect.Struct && mt.Elem().NumField() == 0:
			present = reflect.New(mt.Elem()).Elem()
		default:
			return fmt.Errorf("shape: %s is not a set type", mt)
		}
		m := reflect.MakeMapWithSize(mt, len(payloads))
		for i, p := range payloads {
			k := reflect.New(mt.Key())
			if err := decode(p, k.Interface()); err != nil {
				return fmt.Errorf("shape: item %d: %w", i, err)
			}
			m.SetMapIndex(k.Elem(), present)
		}
		target.Set(m)
		return nil
	default:
		return fmt.Errorf("shape: cannot fill %s with a list", target.Type())
	}
}

func pointee(dst any) (reflect.Value, error) {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return reflect.Value{}, fmt.Errorf("shape: destination must be a non-nil pointer, got %T", dst)
	}
	return rv.Elem(), nil
}

func parseKey(name string, t reflect.Type) (reflect.Value, error) {
	switch t.Kind() {
	case reflect.String:
		return reflect.ValueOf(name).Convert(t), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(name, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("shape: field %q: %w", name, err)
		}
		return reflect.ValueOf(n).Convert(t), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(name, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("shape: field %q: %w", name, err)
		}
		return reflect.ValueOf(n).Convert(t), nil
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(name, t.Bits())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("shape: field %q: %w", name, err)
		}
		return reflect.ValueOf(f).Convert(t), nil
	case reflect.Bool:
		b, err := strconv.ParseBool(name)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("shape: field %q: %w", name, err)
		}
		return reflect.ValueOf(b).Convert(t), nil
	default:
		return reflect.Value{}, fmt.Errorf("shape: unsupported map key type %s", t)
	}
}
