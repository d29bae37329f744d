package codec

import "encoding/json"

// JSON uses encoding/json. Counters written by IncrementValue are plain
// integers and decode cleanly with JSON, which is why it is the default.
type JSON struct{}

func (JSON) Name() string                      { return "json" }
func (JSON) Marshal(v any) ([]byte, error)     { return json.Marshal(v) }
func (JSON) Unmarshal(b []byte, dst any) error { return json.Unmarshal(b, dst) }
