package codec

import (
	"fmt"
	"reflect"

	"google.golang.org/protobuf/proto"
)

// Protobuf encodes proto.Message values. dst may be a message or a pointer
// to a message pointer (the shape a generic wrapper hands in); in the latter
// case a fresh message is allocated.
type Protobuf struct{}

func (Protobuf) Name() string { return "protobuf" }

func (Protobuf) Marshal(v any) ([]byte, error) {
	m, ok := v.(proto.Message)
	if !ok {
		return nil, fmt.Errorf("codec/protobuf: %T is not a proto.Message", v)
	}
	return proto.Marshal(m)
}

func (Protobuf) Unmarshal(b []byte, dst any) error {
	if m, ok := dst.(proto.Message); ok {
		return proto.Unmarshal(b, m)
	}
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Pointer {
		return fmt.Errorf("codec/protobuf: cannot decode into %T", dst)
	}
	fresh := reflect.New(rv.Elem().Type().Elem())
	m, ok := fresh.Interface().(proto.Message)
	if !ok {
		return fmt.Errorf("codec/protobuf: %s is not a proto.Message", fresh.Type())
	}
	if err := proto.Unmarshal(b, m); err != nil {
		return err
	}
	rv.Elem().Set(fresh)
	return nil
}
