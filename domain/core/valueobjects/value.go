package valueobjects

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"sort"
	"strconv"
)

// Kind enumerates the variants a Value can hold.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindSequence
	KindMap
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindSequence:
		return "sequence"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Value is an immutable, loosely-typed property value. Structural equality
// is defined over the variant, so two values decoded from different
// representations of the same JSON document compare equal.
// The zero Value is null.
//
// Numbers carry their nearest float64. When the decimal they were decoded
// from is not exactly representable as a float64 the literal is kept in num
// and used for equality and encoding.
type Value struct {
	kind Kind
	b    bool
	n    float64
	num  string
	s    string
	seq  []Value
	m    map[string]Value
}

// numberPrec is wide enough to tell apart decimals of about 300 significant digits
const numberPrec = 1024

// Null returns the null value
func Null() Value { return Value{} }

// Bool wraps a boolean
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number wraps a number
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// NumberText wraps a decimal literal without losing precision. Literals that
// are not valid JSON numbers are wrapped as strings.
func NumberText(literal string) Value {
	exact, _, err := big.ParseFloat(literal, 10, numberPrec, big.ToNearestEven)
	if err != nil || !json.Valid([]byte(literal)) {
		return String(literal)
	}

	f, _ := exact.Float64()
	if !math.IsInf(f, 0) && exact.Cmp(big.NewFloat(f)) == 0 {
		return Number(f)
	}
	return Value{kind: KindNumber, n: f, num: literal}
}

// String wraps a string
func String(s string) Value { return Value{kind: KindString, s: s} }

// Sequence wraps an ordered list of values
func Sequence(items ...Value) Value {
	seq := make([]Value, len(items))
	copy(seq, items)
	return Value{kind: KindSequence, seq: seq}
}

// Map wraps a string-keyed map of values
func Map(fields map[string]Value) Value {
	m := make(map[string]Value, len(fields))
	for k, v := range fields {
		m[k] = v
	}
	return Value{kind: KindMap, m: m}
}

// FromAny converts a plain Go value (as produced by encoding/json or built by
// hand) into a Value. Unknown types are routed through their JSON encoding.
func FromAny(v interface{}) Value {
	switch val := v.(type) {
	case nil:
		return Null()
	case Value:
		return val
	case bool:
		return Bool(val)
	case string:
		return String(val)
	case json.Number:
		return NumberText(val.String())
	case float64:
		return Number(val)
	case float32:
		return Number(float64(val))
	case int:
		return NumberText(strconv.Itoa(val))
	case int8:
		return Number(float64(val))
	case int16:
		return Number(float64(val))
	case int32:
		return Number(float64(val))
	case int64:
		return NumberText(strconv.FormatInt(val, 10))
	case uint:
		return NumberText(strconv.FormatUint(uint64(val), 10))
	case uint8:
		return Number(float64(val))
	case uint16:
		return Number(float64(val))
	case uint32:
		return Number(float64(val))
	case uint64:
		return NumberText(strconv.FormatUint(val, 10))
	case []Value:
		return Sequence(val...)
	case []interface{}:
		seq := make([]Value, len(val))
		for i, item := range val {
			seq[i] = FromAny(item)
		}
		return Value{kind: KindSequence, seq: seq}
	case map[string]Value:
		return Map(val)
	case map[string]interface{}:
		m := make(map[string]Value, len(val))
		for k, item := range val {
			m[k] = FromAny(item)
		}
		return Value{kind: KindMap, m: m}
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return Null()
	}

	data, err := json.Marshal(v)
	if err != nil {
		return String(fmt.Sprint(v))
	}
	var out Value
	if err := out.UnmarshalJSON(data); err != nil {
		return String(fmt.Sprint(v))
	}
	return out
}

// Kind returns the variant held by the value
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean payload
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsNumber returns the numeric payload, rounded to the nearest float64
func (v Value) AsNumber() (float64, bool) { return v.n, v.kind == KindNumber }

// NumberLiteral returns the decimal text of a number. Numbers that fit a
// float64 exactly render in their shortest form.
func (v Value) NumberLiteral() (string, bool) {
	if v.kind != KindNumber {
		return "", false
	}
	if v.num != "" {
		return v.num, true
	}
	return formatNumber(v.n), true
}

// AsString returns the string payload
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsSequence returns a copy of the sequence payload
func (v Value) AsSequence() ([]Value, bool) {
	if v.kind != KindSequence {
		return nil, false
	}
	out := make([]Value, len(v.seq))
	copy(out, v.seq)
	return out, true
}

// AsMap returns a copy of the map payload
func (v Value) AsMap() (map[string]Value, bool) {
	if v.kind != KindMap {
		return nil, false
	}
	out := make(map[string]Value, len(v.m))
	for k, item := range v.m {
		out[k] = item
	}
	return out, true
}

// Get looks up a key of a map value. Non-map values have no keys.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindMap {
		return Value{}, false
	}
	item, ok := v.m[key]
	return item, ok
}

// Keys returns the sorted keys of a map value
func (v Value) Keys() []string {
	if v.kind != KindMap {
		return nil
	}
	keys := make([]string, 0, len(v.m))
	for k := range v.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of elements of a sequence or entries of a map
func (v Value) Len() int {
	switch v.kind {
	case KindSequence:
		return len(v.seq)
	case KindMap:
		return len(v.m)
	default:
		return 0
	}
}

// Text renders the value as a plain string. Scalars render bare; sequences
// and maps render as canonical JSON.
func (v Value) Text() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		text, _ := v.NumberLiteral()
		return text
	case KindString:
		return v.s
	default:
		data, _ := v.MarshalJSON()
		return string(data)
	}
}

// Equal reports deep structural equality
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}

	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindNumber:
		return v.equalNumber(other)
	case KindString:
		return v.s == other.s
	case KindSequence:
		if len(v.seq) != len(other.seq) {
			return false
		}
		for i := range v.seq {
			if !v.seq[i].Equal(other.seq[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.m) != len(other.m) {
			return false
		}
		for k, item := range v.m {
			o, ok := other.m[k]
			if !ok || !item.Equal(o) {
				return false
			}
		}
		return true
	}
	return false
}

// Interface converts the value back into plain Go types
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		if v.num != "" {
			return json.Number(v.num)
		}
		return v.n
	case KindString:
		return v.s
	case KindSequence:
		out := make([]interface{}, len(v.seq))
		for i, item := range v.seq {
			out[i] = item.Interface()
		}
		return out
	case KindMap:
		out := make(map[string]interface{}, len(v.m))
		for k, item := range v.m {
			out[k] = item.Interface()
		}
		return out
	default:
		return nil
	}
}

// MarshalJSON implements json.Marshaler. Map keys are emitted in sorted order.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON implements json.Unmarshaler
func (v *Value) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var raw interface{}
	if err := decoder.Decode(&raw); err != nil {
		return err
	}
	*v = FromAny(raw)
	return nil
}

// equalNumber compares exact values. A literal is only kept when no float64
// holds it exactly, so a literal never equals a plain float.
func (v Value) equalNumber(other Value) bool {
	if v.n != other.n && !math.IsInf(v.n, 0) {
		return false
	}
	if v.num == "" || other.num == "" {
		return v.num == other.num && v.n == other.n
	}
	if v.num == other.num {
		return true
	}

	a, _, errA := big.ParseFloat(v.num, 10, numberPrec, big.ToNearestEven)
	b, _, errB := big.ParseFloat(other.num, 10, numberPrec, big.ToNearestEven)
	return errA == nil && errB == nil && a.Cmp(b) == 0
}

func formatNumber(n float64) string {
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}
