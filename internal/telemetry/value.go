// Package telemetry defines the event model consumed by the relay pipeline.
//
// Feed records carry arbitrary nested JSON attributes. Rather than passing
// interface{} values around, attributes are decoded into the tagged Value
// type and consumed through explicit switches on Value.Kind.
package telemetry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ValueKind discriminates the dynamic types a feed attribute can hold.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindString
	KindNumber
	KindBool
	KindMap
	KindList
)

// Value is a tagged representation of a loosely-typed feed attribute.
// Numbers keep their original JSON literal so integer values are not
// silently rewritten as floats on re-serialization.
type Value struct {
	kind ValueKind
	str  string
	num  json.Number
	b    bool
	m    map[string]Value
	l    []Value
}

// Null returns the null Value. The zero Value is also null.
func Null() Value { return Value{} }

// String wraps a string attribute.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number wraps a float attribute. The literal is the shortest decimal
// representation that round-trips through float64, kept float-shaped so
// IsFloat holds even for whole values.
func Number(f float64) Value {
	lit := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(lit, ".eE") {
		lit += ".0"
	}
	return Value{kind: KindNumber, num: json.Number(lit)}
}

// Int wraps an integer attribute.
func Int(i int64) Value {
	return Value{kind: KindNumber, num: json.Number(strconv.FormatInt(i, 10))}
}

// Bool wraps a boolean attribute.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Map wraps a nested attribute mapping.
func Map(m map[string]Value) Value { return Value{kind: KindMap, m: m} }

// List wraps an attribute sequence.
func List(l []Value) Value { return Value{kind: KindList, l: l} }

// Kind reports the tag of the value.
func (v Value) Kind() ValueKind { return v.kind }

// Str returns the string payload. ok is false when the value is not a string.
func (v Value) Str() (s string, ok bool) {
	return v.str, v.kind == KindString
}

// Float returns the numeric payload as a float64.
func (v Value) Float() (f float64, ok bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	f, err := v.num.Float64()
	return f, err == nil
}

// Literal returns the number's original JSON literal.
func (v Value) Literal() (lit string, ok bool) {
	return string(v.num), v.kind == KindNumber
}

// Bool returns the boolean payload.
func (v Value) Bool() (b bool, ok bool) {
	return v.b, v.kind == KindBool
}

// Map returns the nested mapping payload.
func (v Value) Map() (m map[string]Value, ok bool) {
	return v.m, v.kind == KindMap
}

// List returns the sequence payload.
func (v Value) List() (l []Value, ok bool) {
	return v.l, v.kind == KindList
}

// IsFloat reports whether the value is a number whose JSON literal has a
// fractional or exponent part. Integer literals report false.
func (v Value) IsFloat() bool {
	if v.kind != KindNumber {
		return false
	}
	return strings.ContainsAny(string(v.num), ".eE")
}

// Truthy reports whether the value would be considered set by the feed's
// loosely-typed conventions: true booleans, non-zero numbers and non-empty
// strings, maps and lists are truthy.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		f, _ := v.num.Float64()
		return f != 0
	case KindString:
		return v.str != ""
	case KindMap:
		return len(v.m) > 0
	case KindList:
		return len(v.l) > 0
	default:
		return false
	}
}

// UnmarshalJSON decodes arbitrary JSON into the tagged form, preserving
// number literals.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*v = fromInterface(raw)
	return nil
}

func fromInterface(raw interface{}) Value {
	switch t := raw.(type) {
	case nil:
		return Null()
	case string:
		return String(t)
	case bool:
		return Bool(t)
	case json.Number:
		return Value{kind: KindNumber, num: t}
	case map[string]interface{}:
		m := make(map[string]Value, len(t))
		for k, e := range t {
			m[k] = fromInterface(e)
		}
		return Map(m)
	case []interface{}:
		l := make([]Value, len(t))
		for i, e := range t {
			l[i] = fromInterface(e)
		}
		return List(l)
	default:
		// json.Decoder with UseNumber never produces other types.
		return Null()
	}
}

// MarshalJSON re-serializes the tagged form. Number literals are emitted
// verbatim.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		if v.num == "" {
			return []byte("0"), nil
		}
		return []byte(v.num), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindMap:
		// Sort keys for stable output, matching what encoding/json does
		// for ordinary maps.
		keys := make([]string, 0, len(v.m))
		for k := range v.m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			eb, err := json.Marshal(v.m[k])
			if err != nil {
				return nil, err
			}
			buf.Write(eb)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	case KindList:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, e := range v.l {
			if i > 0 {
				buf.WriteByte(',')
			}
			eb, err := json.Marshal(e)
			if err != nil {
				return nil, err
			}
			buf.Write(eb)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("telemetry: unknown value kind %d", v.kind)
	}
}
