package formula

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Kind is the variant tag of a Value
type Kind byte

const (
	KindNull Kind = iota
	KindNumber
	KindString
	KindBoolean
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "Null"
	case KindNumber:
		return "Number"
	case KindString:
		return "String"
	case KindBoolean:
		return "Boolean"
	}
	return fmt.Sprintf("Kind(%d)", byte(k))
}

// Value is both the bound input and the result of a formula.
// The zero Value is Null.
type Value struct {
	kind Kind
	num  float64
	str  string
	b    bool
}

func Num(n float64) Value  { return Value{kind: KindNumber, num: n} }
func Str(s string) Value   { return Value{kind: KindString, str: s} }
func Bool(b bool) Value    { return Value{kind: KindBoolean, b: b} }
func Null() Value          { return Value{} }
func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// Number returns the numeric payload and true if v is a Number
func (v Value) Number() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// Text returns the string payload and true if v is a String
func (v Value) Text() (string, bool) {
	return v.str, v.kind == KindString
}

// Boolean returns the boolean payload and true if v is a Boolean
func (v Value) Boolean() (bool, bool) {
	return v.b, v.kind == KindBoolean
}

// Equal is structural equality. Values of different kinds are never equal.
func (v Value) Equal(w Value) bool {
	if v.kind != w.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.num == w.num
	case KindString:
		return v.str == w.str
	case KindBoolean:
		return v.b == w.b
	}
	return true
}

// String renders the value the way a dashboard shows it without formatting options
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindString:
		return v.str
	case KindBoolean:
		return strconv.FormatBool(v.b)
	}
	return "null"
}

// GoString is used by %#v, handy in test failures
func (v Value) GoString() string {
	switch v.kind {
	case KindNumber:
		return "Num(" + v.String() + ")"
	case KindString:
		return "Str(" + strconv.Quote(v.str) + ")"
	case KindBoolean:
		return "Bool(" + v.String() + ")"
	}
	return "Null()"
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return nil, fmt.Errorf("formula: can't encode non-finite number %v as JSON", v.num)
		}
		return json.Marshal(v.num)
	case KindString:
		return json.Marshal(v.str)
	case KindBoolean:
		return json.Marshal(v.b)
	}
	return []byte("null"), nil
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ret, err := ValueOf(raw)
	if err != nil {
		return err
	}
	*v = ret
	return nil
}

// ValueOf converts a decoded scalar (JSON, TOML, YAML) into a Value
func ValueOf(x interface{}) (Value, error) {
	switch x := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case string:
		return Str(x), nil
	case float64:
		return Num(x), nil
	case float32:
		return Num(float64(x)), nil
	case int:
		return Num(float64(x)), nil
	case int64:
		return Num(float64(x)), nil
	case int32:
		return Num(float64(x)), nil
	case uint64:
		return Num(float64(x)), nil
	case uint32:
		return Num(float64(x)), nil
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return Null(), err
		}
		return Num(n), nil
	}
	return Null(), fmt.Errorf("formula: unsupported value type %T", x)
}
