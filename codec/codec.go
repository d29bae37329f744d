// Package codec turns cached values into bytes and back.
//
// Codecs are not generic: the cache facade stores values of whatever type a
// wrapped method returns, so Unmarshal always decodes into a caller-provided
// pointer.
package codec

import (
	"fmt"
	"strings"
)

// Codec encodes values to []byte for storage and decodes them into dst.
// dst is always a non-nil pointer.
type Codec interface {
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(b []byte, dst any) error
}

// ByName returns the codec registered under name: json, msgpack, cbor or string.
// Protobuf is not selectable by name since it needs concrete message types.
func ByName(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return JSON{}, nil
	case "msgpack":
		return Msgpack{}, nil
	case "cbor":
		return NewCBOR(false)
	case "cbor-det":
		return NewCBOR(true)
	case "string":
		return String{}, nil
	default:
		return nil, fmt.Errorf("codec: unknown codec %q", name)
	}
}
