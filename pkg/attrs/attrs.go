// Package attrs models credential attribute values as a tagged variant
// (null/bool/number/string/array/object) instead of bare interface{} values,
// so schema validation can switch on a closed kind set and hashing has a
// canonical byte representation.
package attrs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

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
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Value is one attribute value. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	num  json.Number
	str  string
	arr  []Value
	obj  map[string]Value
}

// Map is an attribute mapping with unique keys and no ordering semantics.
type Map map[string]Value

func Null() Value           { return Value{kind: KindNull} }
func Bool(b bool) Value     { return Value{kind: KindBool, b: b} }
func String(s string) Value { return Value{kind: KindString, str: s} }

func Int(i int64) Value {
	return Value{kind: KindNumber, num: json.Number(strconv.FormatInt(i, 10))}
}

func Float(f float64) Value {
	return Value{kind: KindNumber, num: json.Number(strconv.FormatFloat(f, 'g', -1, 64))}
}

func Array(vs ...Value) Value { return Value{kind: KindArray, arr: vs} }

func Object(m map[string]Value) Value { return Value{kind: KindObject, obj: m} }

// Number builds a numeric Value from an already-formatted decimal literal.
func Number(n json.Number) Value { return Value{kind: KindNumber, num: n} }

func (v Value) Kind() Kind { return v.kind }

// BoolValue returns the held bool, and whether the value is a bool.
func (v Value) BoolValue() (bool, bool) {
	return v.b, v.kind == KindBool
}

// StringValue returns the held string, and whether the value is a string.
func (v Value) StringValue() (string, bool) {
	return v.str, v.kind == KindString
}

// Items returns the held array, and whether the value is an array.
func (v Value) Items() ([]Value, bool) {
	return v.arr, v.kind == KindArray
}

// Fields returns the held object, and whether the value is an object.
func (v Value) Fields() (map[string]Value, bool) {
	return v.obj, v.kind == KindObject
}

// Int64 coerces the value to an integer. Numbers must be integral; strings
// must parse as a base-10 integer. Predicate proofs accept either a numeric
// or a numeric-string attribute through this coercion.
func (v Value) Int64() (int64, bool) {
	switch v.kind {
	case KindNumber:
		i, err := v.num.Int64()
		return i, err == nil
	case KindString:
		i, err := strconv.ParseInt(v.str, 10, 64)
		return i, err == nil
	}
	return 0, false
}

// MarshalJSON encodes the variant as plain JSON. Object keys are emitted in
// ascending order so the encoding is deterministic.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindNumber:
		if v.num == "" {
			return []byte("0"), nil
		}
		return []byte(v.num), nil
	case KindString:
		return json.Marshal(v.str)
	case KindArray:
		if v.arr == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.arr)
	case KindObject:
		keys := make([]string, 0, len(v.obj))
		for k := range v.obj {
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
			vb, err := json.Marshal(v.obj[k])
			if err != nil {
				return nil, err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			buf.Write(vb)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("attrs: cannot marshal kind %s", v.kind)
}

// UnmarshalJSON decodes arbitrary JSON into the variant, preserving number
// literals exactly as written.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	raw, err := decodeValue(dec)
	if err != nil {
		return err
	}
	*v = raw
	return nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		return Number(t), nil
	case string:
		return String(t), nil
	case json.Delim:
		switch t {
		case '[':
			var items []Value
			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Value{kind: KindArray, arr: items}, nil
		case '{':
			fields := make(map[string]Value)
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("attrs: object key is not a string")
				}
				val, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				fields[key] = val
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Object(fields), nil
		}
	}
	return Value{}, fmt.Errorf("attrs: unexpected token %v", tok)
}

// String returns the canonical JSON encoding of the value. Disclosure hashes
// are computed over this representation.
func (v Value) String() string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// Equal compares two values by canonical encoding.
func (v Value) Equal(other Value) bool {
	return v.String() == other.String()
}

// SortedKeys returns the map's keys in ascending order.
func (m Map) SortedKeys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy of the map.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
