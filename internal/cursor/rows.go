package cursor

import (
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Rows adapts *sql.Rows to the Cursor interface, one row at a time.
type Rows struct {
	rows  *sql.Rows
	cols  []string
	cells []any
}

// NewRows wraps rows. The caller still owns rows and must Close it (or the Rows).
func NewRows(rows *sql.Rows) (*Rows, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}
	return &Rows{rows: rows, cols: cols}, nil
}

// Next advances to the next row and loads its cells.
func (r *Rows) Next() (bool, error) {
	if !r.rows.Next() {
		return false, r.rows.Err()
	}
	cells := make([]any, len(r.cols))
	ptrs := make([]any, len(r.cols))
	for i := range cells {
		ptrs[i] = &cells[i]
	}
	if err := r.rows.Scan(ptrs...); err != nil {
		return false, fmt.Errorf("failed to scan row: %w", err)
	}
	r.cells = cells
	return true, nil
}

func (r *Rows) Close() error {
	return r.rows.Close()
}

func (r *Rows) Columns() []string {
	return r.cols
}

// ColumnIndex returns the index of the named column, or -1.
func (r *Rows) ColumnIndex(name string) int {
	for i, c := range r.cols {
		if c == name {
			return i
		}
	}
	return -1
}

func (r *Rows) IsNull(i int) bool {
	return r.cells[i] == nil
}

func (r *Rows) Type(i int) FieldType {
	switch r.cells[i].(type) {
	case nil:
		return FieldNull
	case int64, bool:
		return FieldInteger
	case float64:
		return FieldFloat
	case string, time.Time:
		return FieldString
	case []byte:
		return FieldBlob
	default:
		return FieldUnknown
	}
}

// Int64 follows SQLite's numeric coercion: text is parsed, unparsable text is 0.
func (r *Rows) Int64(i int) int64 {
	switch v := r.cells[i].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	case bool:
		if v {
			return 1
		}
		return 0
	case string:
		return parseLeadingInt(v)
	case []byte:
		return parseLeadingInt(string(v))
	default:
		return 0
	}
}

// Int truncates Int64 to 32 bits.
func (r *Rows) Int(i int) int32 {
	return int32(r.Int64(i))
}

func (r *Rows) Float64(i int) float64 {
	switch v := r.cells[i].(type) {
	case int64:
		return float64(v)
	case float64:
		return v
	case bool:
		if v {
			return 1
		}
		return 0
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func (r *Rows) String(i int) string {
	switch v := r.cells[i].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return FormatFloat(v)
	case bool:
		if v {
			return "1"
		}
		return "0"
	case time.Time:
		return v.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(v)
	}
}

func parseLeadingInt(s string) int64 {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) {
		return int64(f)
	}
	return 0
}
