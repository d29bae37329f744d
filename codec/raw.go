package codec

import (
	"fmt"

	"github.com/spf13/cast"
)

// String stores values as their plain string form, which keeps entries
// readable from redis-cli. Marshal accepts anything cast.ToStringE accepts;
// Unmarshal decodes into *string, *[]byte or *any.
type String struct{}

func (String) Name() string { return "string" }

func (String) Marshal(v any) ([]byte, error) {
	if b, ok := v.([]byte); ok {
		return b, nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

func (String) Unmarshal(b []byte, dst any) error {
	switch d := dst.(type) {
	case *string:
		*d = string(b)
	case *[]byte:
		*d = append((*d)[:0], b...)
	case *any:
		*d = string(b)
	default:
		return fmt.Errorf("codec/string: cannot decode into %T", dst)
	}
	return nil
}
