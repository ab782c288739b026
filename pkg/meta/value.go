// Package meta models extracted image metadata as a small tagged-variant tree.
//
// Leaves are String, Number and Bytes (a length placeholder for opaque binary
// payloads); branches are *Map, which keeps keys in insertion order, and List.
// Every variant marshals to JSON deterministically.
package meta

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// Value is implemented only by the variants declared in this package.
type Value interface {
	isValue()
}

// String is a text leaf.
type String string

// Number is a numeric leaf. Integral values render without a fractional part.
type Number float64

// Bytes stands in for a binary payload of the given length.
type Bytes int

// List is an ordered sequence of values.
type List []Value

func (String) isValue() {}
func (Number) isValue() {}
func (Bytes) isValue()  {}
func (List) isValue()   {}
func (*Map) isValue()   {}

// FormatNumber renders n the way it appears in JSON and in signature tokens.
func FormatNumber(n Number) string {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "null"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	return []byte(FormatNumber(n)), nil
}

// MarshalJSON renders the placeholder record {"type":"bytes","length":N}.
func (b Bytes) MarshalJSON() ([]byte, error) {
	return []byte(`{"type":"bytes","length":` + strconv.Itoa(int(b)) + `}`), nil
}

// MarshalJSON implements json.Marshaler. A nil list renders as [].
func (l List) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, v := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		raw, err := marshalValue(v)
		if err != nil {
			return nil, err
		}
		buf.Write(raw)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// Map is a string-keyed mapping that remembers insertion order.
type Map struct {
	keys   []string
	values map[string]Value
}

// NewMap returns an empty map.
func NewMap() *Map {
	return &Map{values: make(map[string]Value)}
}

// Set stores v under key. Replacing an existing key keeps its position.
func (m *Map) Set(key string, v Value) {
	if v == nil {
		return
	}
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (Value, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// GetMap returns the nested map stored under key, if any.
func (m *Map) GetMap(key string) (*Map, bool) {
	v, ok := m.Get(key)
	if !ok {
		return nil, false
	}
	child, ok := v.(*Map)
	return child, ok
}

// Len reports the number of keys. A nil map has length zero.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns a copy of the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.keys...)
}

// Each calls fn for every entry in insertion order.
func (m *Map) Each(fn func(key string, v Value)) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		fn(k, m.values[k])
	}
}

// MarshalJSON implements json.Marshaler, preserving key order.
func (m *Map) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		raw, err := marshalValue(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(raw)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalValue(v Value) ([]byte, error) {
	switch t := v.(type) {
	case String:
		return json.Marshal(string(t))
	case Number:
		return t.MarshalJSON()
	case Bytes:
		return t.MarshalJSON()
	case List:
		return t.MarshalJSON()
	case *Map:
		return t.MarshalJSON()
	}
	return []byte("null"), nil
}
