// Package cursor decodes cells of a tabular result set into typed values.
package cursor

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/maloquacious/tablekit/internal/codec"
	"github.com/maloquacious/tablekit/internal/dberrors"
	"github.com/maloquacious/tablekit/internal/logger"
	"github.com/maloquacious/tablekit/internal/metrics"
)

// FieldType is the storage class of a cell.
type FieldType int

const (
	FieldNull FieldType = iota
	FieldInteger
	FieldFloat
	FieldString
	FieldBlob
	FieldUnknown
)

// Cursor gives typed access to the cells of the current row.
// Column indexes are zero based; -1 means "no such column".
type Cursor interface {
	IsNull(i int) bool
	Type(i int) FieldType
	Int64(i int) int64
	Int(i int) int32
	Float64(i int) float64
	String(i int) string
}

// Decoder converts cursor cells to Values.
type Decoder struct {
	json    codec.Codec
	log     logger.Logger
	metrics *metrics.Metrics
}

// NewDecoder returns a Decoder. A nil codec means codec.JSON, a nil log discards.
func NewDecoder(c codec.Codec, log logger.Logger, m *metrics.Metrics) *Decoder {
	if c == nil {
		c = codec.JSON{}
	}
	if log == nil {
		log = logger.Discard
	}
	return &Decoder{json: c, log: log, metrics: m}
}

// Decode returns cell i as the requested kind. Null cells and i == -1 give a nil Value.
// List and Map cells must hold JSON text. Blob cells are an illegal state.
func (d *Decoder) Decode(c Cursor, i int, kind Kind) (Value, error) {
	if i == -1 || c.IsNull(i) {
		return nil, nil
	}
	switch c.Type(i) {
	case FieldBlob, FieldUnknown:
		return nil, fmt.Errorf("%w: unexpected data type in SQLite table", dberrors.ErrIllegalState)
	}
	switch kind {
	case KindInteger:
		return Integer(c.Int64(i)), nil
	case KindInt:
		return Int(c.Int(i)), nil
	case KindFloat:
		return Float(c.Float64(i)), nil
	case KindText:
		return Text(c.String(i)), nil
	case KindBool:
		// stored as integers
		return Bool(c.Int64(i) != 0), nil
	case KindList:
		var list []any
		if err := d.unmarshal(c.String(i), &list, kind); err != nil {
			return nil, err
		}
		return List(list), nil
	case KindMap:
		var m map[string]any
		if err := d.unmarshal(c.String(i), &m, kind); err != nil {
			return nil, err
		}
		return Map(m), nil
	default:
		return nil, fmt.Errorf("%w: unexpected data type %s in SQLite table", dberrors.ErrIllegalState, kind)
	}
}

func (d *Decoder) unmarshal(text string, v any, kind Kind) error {
	if err := d.json.Unmarshal([]byte(text), v); err != nil {
		logger.Stack(d.log, "cursor: json decode failed", err, "kind", kind.String())
		d.metrics.DecodeFailed("cursor", kind.String())
		return fmt.Errorf("%w: unexpected data type conversion failure %v on SQLite table", dberrors.ErrIllegalState, err)
	}
	return nil
}

// DecodeString returns cell i as display text. ok is false for a null cell or i == -1.
// Numbers are rendered in canonical form, which need not match the text originally stored.
func (d *Decoder) DecodeString(c Cursor, i int) (s string, ok bool, err error) {
	if i == -1 || c.IsNull(i) {
		return "", false, nil
	}
	switch c.Type(i) {
	case FieldString:
		return c.String(i), true, nil
	case FieldFloat:
		return FormatFloat(c.Float64(i)), true, nil
	case FieldInteger:
		return strconv.FormatInt(c.Int64(i), 10), true, nil
	default:
		return "", false, fmt.Errorf("%w: unexpected data type in SQLite table", dberrors.ErrIllegalState)
	}
}

// DataType reports the Kind a cell naturally decodes to. Null cells report KindText.
func DataType(c Cursor, i int) (Kind, error) {
	switch c.Type(i) {
	case FieldString, FieldNull:
		return KindText, nil
	case FieldFloat:
		return KindFloat, nil
	case FieldInteger:
		return KindInteger, nil
	default:
		return 0, fmt.Errorf("%w: unexpected data type in SQLite table", dberrors.ErrIllegalState)
	}
}

// FormatFloat renders f the way the mobile clients print doubles:
// plain decimal with at least one fractional digit for 1e-3 <= |f| < 1e7,
// otherwise scientific notation such as 1.0E10 or 1.5E-5.
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	abs := math.Abs(f)
	if f == 0 || (abs >= 1e-3 && abs < 1e7) {
		s := strconv.FormatFloat(f, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}
	s := strconv.FormatFloat(f, 'E', -1, 64)
	mantissa, exp, _ := strings.Cut(s, "E")
	if !strings.Contains(mantissa, ".") {
		mantissa += ".0"
	}
	neg := strings.HasPrefix(exp, "-")
	exp = strings.TrimLeft(exp, "+-")
	exp = strings.TrimLeft(exp, "0")
	if neg {
		exp = "-" + exp
	}
	return mantissa + "E" + exp
}
