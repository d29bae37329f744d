package codec

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

var stringMapType = reflect.TypeOf(map[string]any(nil))

// CBOR serializes values using fxamacker/cbor.
// The zero value is NOT ready to use. Construct with NewCBOR or MustCBOR.
//
// Use deterministic=true for canonical encoding (RFC 8949 Core Deterministic)
// when two processes must produce byte-identical entries for equal values.
// Time values are encoded as RFC3339Nano.
type CBOR struct {
	enc cbor.EncMode
	dec cbor.DecMode
	det bool
}

var _ Codec = CBOR{}

// NewCBOR constructs a CBOR codec.
//   - deterministic uses CoreDetEncOptions (RFC 8949).
//   - otherwise PreferredUnsortedEncOptions.
//
// Maps decode to map[string]any when the target is an interface.
func NewCBOR(deterministic bool) (CBOR, error) {
	var eo cbor.EncOptions
	if deterministic {
		eo = cbor.CoreDetEncOptions()
	} else {
		eo = cbor.PreferredUnsortedEncOptions()
	}
	eo.Time = cbor.TimeRFC3339Nano

	em, err := eo.EncMode()
	if err != nil {
		return CBOR{}, err
	}
	dm, err := (cbor.DecOptions{DefaultMapType: stringMapType}).DecMode()
	if err != nil {
		return CBOR{}, err
	}
	return CBOR{enc: em, dec: dm, det: deterministic}, nil
}

// MustCBOR is like NewCBOR but panics on error. Handy for tests.
func MustCBOR(deterministic bool) CBOR {
	c, err := NewCBOR(deterministic)
	if err != nil {
		panic(err)
	}
	return c
}

func (c CBOR) Name() string {
	if c.det {
		return "cbor-det"
	}
	return "cbor"
}

func (c CBOR) Marshal(v any) ([]byte, error) {
	return c.enc.Marshal(v)
}

func (c CBOR) Unmarshal(b []byte, dst any) error {
	return c.dec.Unmarshal(b, dst)
}
