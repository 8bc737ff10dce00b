// Package kvs builds and decodes typed entries of the key-value metadata store.
//
// An entry is addressed by (table id, partition, aspect, key) and carries a
// type tag plus its value serialized as text. Getters validate the tag and
// parse the text; a nil entry is reported as absent, not as an error.
package kvs

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/maloquacious/tablekit/internal/codec"
	"github.com/maloquacious/tablekit/internal/dberrors"
	"github.com/maloquacious/tablekit/internal/logger"
	"github.com/maloquacious/tablekit/internal/metrics"
)

// ElementDataType is the type tag of an entry.
type ElementDataType string

const (
	Number  ElementDataType = "number"
	Integer ElementDataType = "integer"
	Bool    ElementDataType = "bool"
	String  ElementDataType = "string"
	Array   ElementDataType = "array"
	Object  ElementDataType = "object"
)

var elementDataTypes = []ElementDataType{Number, Integer, Bool, String, Array, Object}

// ParseElementDataType accepts one of the six tag names.
func ParseElementDataType(s string) (ElementDataType, error) {
	for _, t := range elementDataTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: unknown element data type %q", dberrors.ErrInvalidArgument, s)
}

// Entry is one row of the key-value store.
type Entry struct {
	TableID   string `json:"tableId" yaml:"tableId"`
	Partition string `json:"partition" yaml:"partition"`
	Aspect    string `json:"aspect" yaml:"aspect"`
	Key       string `json:"key" yaml:"key"`
	Type      string `json:"type" yaml:"type"`
	Value     string `json:"value" yaml:"value"`
}

// BuildEntry assembles an entry from its parts. Nothing is validated and
// the serialized value is kept as given.
func BuildEntry(tableID, partition, aspect, key string, typ ElementDataType, serializedValue string) *Entry {
	return &Entry{
		TableID:   tableID,
		Partition: partition,
		Aspect:    aspect,
		Key:       key,
		Type:      string(typ),
		Value:     serializedValue,
	}
}

func wrongType(e *Entry, what string, want ...ElementDataType) error {
	names := make([]string, len(want))
	for i, t := range want {
		names[i] = string(t)
	}
	return fmt.Errorf("%w: requested %s entry for key: %s, but the corresponding entry in the store was not of type: %s",
		dberrors.ErrInvalidArgument, what, e.Key, strings.Join(names, " or: "))
}

func unparsable(e *Entry, what string, typ ElementDataType) error {
	return fmt.Errorf("%w: requested %s entry for key: %s, but the value in the store failed to parse to type: %s",
		dberrors.ErrInvalidArgument, what, e.Key, typ)
}

// GetNumber decodes a number entry.
func GetNumber(e *Entry) (float64, bool, error) {
	if e == nil {
		return 0, false, nil
	}
	if e.Type != string(Number) {
		return 0, false, wrongType(e, "number", Number)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(e.Value), 64)
	if err != nil {
		return 0, false, unparsable(e, "number", Number)
	}
	return f, true, nil
}

// GetInteger decodes an integer entry. Values must fit in 32 bits.
func GetInteger(e *Entry) (int32, bool, error) {
	if e == nil {
		return 0, false, nil
	}
	if e.Type != string(Integer) {
		return 0, false, wrongType(e, "int", Integer)
	}
	n, err := strconv.ParseInt(e.Value, 10, 32)
	if err != nil {
		return 0, false, unparsable(e, "int", Integer)
	}
	return int32(n), true, nil
}

// GetBoolean decodes a bool entry stored either as true/false (any case) or as an integer.
func GetBoolean(e *Entry) (bool, bool, error) {
	if e == nil {
		return false, false, nil
	}
	if e.Type != string(Bool) {
		return false, false, wrongType(e, "boolean", Bool)
	}
	switch {
	case strings.EqualFold(e.Value, "true"):
		return true, true, nil
	case strings.EqualFold(e.Value, "false"):
		return false, true, nil
	}
	n, err := strconv.ParseInt(e.Value, 10, 32)
	if err != nil {
		return false, false, unparsable(e, "boolean", Bool)
	}
	return n != 0, true, nil
}

// GetString returns the stored text of any entry.
func GetString(e *Entry) (string, bool) {
	if e == nil {
		return "", false
	}
	return e.Value, true
}

// GetObject returns the raw JSON text of an object or array entry.
func GetObject(e *Entry) (string, bool, error) {
	if e == nil {
		return "", false, nil
	}
	if e.Type != string(Object) && e.Type != string(Array) {
		return "", false, wrongType(e, "object", Object, Array)
	}
	return e.Value, true, nil
}

// Reader decodes array entries with an injected codec.
type Reader struct {
	json    codec.Codec
	log     logger.Logger
	metrics *metrics.Metrics
}

// NewReader returns a Reader. A nil codec means codec.JSON, a nil log discards.
func NewReader(c codec.Codec, log logger.Logger, m *metrics.Metrics) *Reader {
	if c == nil {
		c = codec.JSON{}
	}
	if log == nil {
		log = logger.Discard
	}
	return &Reader{json: c, log: log, metrics: m}
}

// GetArray decodes an array entry into a slice of T.
// An empty or null stored value yields a nil slice with ok == false.
func GetArray[T any](r *Reader, e *Entry) ([]T, bool, error) {
	if e == nil {
		return nil, false, nil
	}
	if e.Type != string(Array) {
		return nil, false, wrongType(e, "list", Array)
	}
	if e.Value == "" {
		return nil, false, nil
	}
	var result []T
	if err := r.json.Unmarshal([]byte(e.Value), &result); err != nil {
		logger.Stack(r.log, "kvs: problem parsing json list entry", err, "table", e.TableID, "key", e.Key)
		r.metrics.DecodeFailed("kvs", string(Array))
		return nil, false, fmt.Errorf("%w (%v)", unparsable(e, "list", Array), err)
	}
	if result == nil {
		// a stored JSON null is absent too
		return nil, false, nil
	}
	return result, true, nil
}
