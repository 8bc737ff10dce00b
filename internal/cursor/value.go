package cursor

import "fmt"

// Kind names the semantic type a caller asks a cell to be decoded as.
type Kind int

const (
	KindInteger Kind = iota // int64
	KindInt                 // int32
	KindFloat
	KindText
	KindBool
	KindList
	KindMap
)

var kindNames = [...]string{"integer", "int", "float", "text", "bool", "list", "map"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Value is a decoded cell. It is one of Integer, Int, Float, Text, Bool, List or Map;
// a nil Value is a SQL null.
type Value interface {
	Kind() Kind
}

type (
	Integer int64
	Int     int32
	Float   float64
	Text    string
	Bool    bool
	List    []any
	Map     map[string]any
)

func (Integer) Kind() Kind { return KindInteger }
func (Int) Kind() Kind     { return KindInt }
func (Float) Kind() Kind   { return KindFloat }
func (Text) Kind() Kind    { return KindText }
func (Bool) Kind() Kind    { return KindBool }
func (List) Kind() Kind    { return KindList }
func (Map) Kind() Kind     { return KindMap }

// Any unwraps v into a plain Go value, nil for a null cell.
func Any(v Value) any {
	switch x := v.(type) {
	case Integer:
		return int64(x)
	case Int:
		return int32(x)
	case Float:
		return float64(x)
	case Text:
		return string(x)
	case Bool:
		return bool(x)
	case List:
		return []any(x)
	case Map:
		return map[string]any(x)
	default:
		return nil
	}
}
