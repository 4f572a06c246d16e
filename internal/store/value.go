package store

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Kind discriminates the scalar kinds a Value can hold.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
)

// Value is a closed sum over the JSON scalar types: string, number,
// boolean, or null. Keeping the set closed keeps snapshot encoding and
// equality well-defined.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
}

// Null is the zero Value.
var Null = Value{}

func String(s string) Value  { return Value{kind: KindString, str: s} }
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }
func Bool(b bool) Value      { return Value{kind: KindBool, b: b} }

func (v Value) Kind() Kind { return v.kind }

// String renders the value the way it appears in a snapshot:
// numbers without a trailing ".0" when integral, null as "(nil)".
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	}
	return "(nil)"
}

// Equal reports whether two values hold the same kind and scalar.
func (v Value) Equal(o Value) bool {
	return v == o
}

// ParseScalar coerces a command token into a Value using JSON scalar
// rules: "true"/"false" become booleans, numeric tokens become numbers,
// "null" becomes the null value, anything else stays a string.
//
// NaN and the infinities stay strings: JSON has no encoding for them,
// and a number the snapshot cannot hold must never enter the store.
func ParseScalar(tok string) Value {
	switch tok {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	case "null":
		return Null
	}
	if n, err := strconv.ParseFloat(tok, 64); err == nil {
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return String(tok)
		}
		return Number(n)
	}
	return String(tok)
}

// MarshalJSON encodes the value as its native JSON scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	}
	return []byte("null"), nil
}

// UnmarshalJSON accepts any JSON scalar and rejects arrays and objects.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch x := raw.(type) {
	case nil:
		*v = Null
	case string:
		*v = String(x)
	case float64:
		*v = Number(x)
	case bool:
		*v = Bool(x)
	default:
		return fmt.Errorf("value must be a scalar, got %T", raw)
	}
	return nil
}
