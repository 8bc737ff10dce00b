// Package codec defines the JSON serialization used for list and object values.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Codec encodes and decodes structured values to text.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// JSON is the default Codec.
type JSON struct {
	// Strict rejects trailing content after the first JSON value.
	Strict bool
}

func (JSON) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (c JSON) Unmarshal(data []byte, v any) error {
	if !c.Strict {
		return json.Unmarshal(data, v)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("unexpected data after top-level value")
	}
	return nil
}
