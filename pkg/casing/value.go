// Package casing converts payload keys between the client's camelCase and the
// API's snake_case conventions.
//
// Payloads are modelled as a tagged Value so that binary content (uploaded
// files, readers, byte slices) is carried as an Opaque value which the
// converters never look inside.
package casing

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"reflect"
	"sort"
)

// Kind tags the variant held by a Value.
type Kind uint8

// Value kinds.
const (
	KindNull Kind = iota
	KindPrimitive
	KindSequence
	KindMapping
	KindOpaque
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindPrimitive:
		return "primitive"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	case KindOpaque:
		return "opaque"
	default:
		return "unknown"
	}
}

// Entry is a single key/value pair of a mapping.
type Entry struct {
	Key   string
	Value Value
}

// Value is a JSON-like tree whose leaves may also be opaque handles.
// The zero Value is Null.
type Value struct {
	kind    Kind
	prim    interface{}
	items   []Value
	entries []Entry
	opaque  interface{}
}

// Null returns the null value.
func Null() Value { return Value{} }

// Prim wraps a scalar (string, bool, number).
func Prim(v interface{}) Value {
	if v == nil {
		return Null()
	}
	return Value{kind: KindPrimitive, prim: v}
}

// Seq builds an ordered sequence.
func Seq(items ...Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindSequence, items: cp}
}

// Map builds an ordered mapping. Later duplicates replace earlier keys.
func Map(entries ...Entry) Value {
	v := Value{kind: KindMapping, entries: make([]Entry, 0, len(entries))}
	for _, e := range entries {
		v = v.With(e.Key, e.Value)
	}
	return v
}

// Field is shorthand for building mapping entries.
func Field(key string, v Value) Entry {
	return Entry{Key: key, Value: v}
}

// Opaque wraps a handle that must travel through conversions untouched.
func Opaque(v interface{}) Value {
	return Value{kind: KindOpaque, opaque: v}
}

// Kind reports the variant of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Primitive returns the wrapped scalar.
func (v Value) Primitive() (interface{}, bool) {
	if v.kind != KindPrimitive {
		return nil, false
	}
	return v.prim, true
}

// Items returns the elements of a sequence.
func (v Value) Items() []Value {
	if v.kind != KindSequence {
		return nil
	}
	return v.items
}

// Entries returns the key/value pairs of a mapping in insertion order.
func (v Value) Entries() []Entry {
	if v.kind != KindMapping {
		return nil
	}
	return v.entries
}

// Keys returns mapping keys in insertion order.
func (v Value) Keys() []string {
	keys := make([]string, 0, len(v.entries))
	for _, e := range v.Entries() {
		keys = append(keys, e.Key)
	}
	return keys
}

// Get looks a key up in a mapping.
func (v Value) Get(key string) (Value, bool) {
	for _, e := range v.Entries() {
		if e.Key == key {
			return e.Value, true
		}
	}
	return Null(), false
}

// String returns the primitive as a string when it is one.
func (v Value) String() string {
	if s, ok := v.prim.(string); ok && v.kind == KindPrimitive {
		return s
	}
	return ""
}

// OpaqueValue returns the wrapped handle of an Opaque value.
func (v Value) OpaqueValue() interface{} {
	if v.kind != KindOpaque {
		return nil
	}
	return v.opaque
}

// With returns a copy of the mapping v with key set. Non-mapping values are
// treated as an empty mapping.
func (v Value) With(key string, val Value) Value {
	entries := make([]Entry, 0, len(v.entries)+1)
	replaced := false
	for _, e := range v.Entries() {
		if e.Key == key {
			entries = append(entries, Entry{Key: key, Value: val})
			replaced = true
			continue
		}
		entries = append(entries, e)
	}
	if !replaced {
		entries = append(entries, Entry{Key: key, Value: val})
	}
	return Value{kind: KindMapping, entries: entries}
}

// Any converts v into plain Go values: map[string]interface{},
// []interface{}, scalars and nil. Opaque handles are returned as-is.
func (v Value) Any() interface{} {
	switch v.kind {
	case KindPrimitive:
		return v.prim
	case KindSequence:
		out := make([]interface{}, len(v.items))
		for i, item := range v.items {
			out[i] = item.Any()
		}
		return out
	case KindMapping:
		out := make(map[string]interface{}, len(v.entries))
		for _, e := range v.entries {
			out[e.Key] = e.Value.Any()
		}
		return out
	case KindOpaque:
		return v.opaque
	default:
		return nil
	}
}

// FromAny lifts plain Go data into a Value. Maps with string keys become
// mappings (keys sorted, since Go maps carry no order), slices become
// sequences, scalars become primitives. Binary content and anything else
// that is not plain data becomes Opaque.
func FromAny(x interface{}) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case []byte, io.Reader, *multipart.FileHeader:
		return Opaque(t)
	case json.Number, string, bool, float32, float64, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return Prim(t)
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		entries := make([]Entry, 0, len(keys))
		for _, k := range keys {
			entries = append(entries, Entry{Key: k, Value: FromAny(t[k])})
		}
		return Value{kind: KindMapping, entries: entries}
	case []interface{}:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = FromAny(item)
		}
		return Value{kind: KindSequence, items: items}
	}

	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.String:
		return Prim(rv.String())
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return Opaque(x)
		}
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		entries := make([]Entry, 0, len(keys))
		for _, k := range keys {
			entries = append(entries, Entry{Key: k, Value: FromAny(rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface())})
		}
		return Value{kind: KindMapping, entries: entries}
	case reflect.Slice, reflect.Array:
		items := make([]Value, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items[i] = FromAny(rv.Index(i).Interface())
		}
		return Value{kind: KindSequence, items: items}
	case reflect.Ptr:
		if rv.IsNil() {
			return Null()
		}
	}
	return Opaque(x)
}
