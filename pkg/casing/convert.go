package casing

import (
	"strings"
	"unicode"
)

// ToClientCase returns a deep copy of v with every mapping key converted from
// snake_case to camelCase. Null, primitive and opaque values are returned
// unchanged.
func ToClientCase(v Value) Value {
	return transform(v, ToCamel)
}

// ToTransportCase returns a deep copy of v with every mapping key converted
// from camelCase to snake_case.
func ToTransportCase(v Value) Value {
	return transform(v, ToSnake)
}

func transform(v Value, rename func(string) string) Value {
	switch v.kind {
	case KindSequence:
		items := make([]Value, len(v.items))
		for i, item := range v.items {
			items[i] = transform(item, rename)
		}
		return Value{kind: KindSequence, items: items}
	case KindMapping:
		// Keys that collide after renaming keep the first position and the
		// last value.
		entries := make([]Entry, 0, len(v.entries))
		index := make(map[string]int, len(v.entries))
		for _, e := range v.entries {
			key := rename(e.Key)
			val := transform(e.Value, rename)
			if i, ok := index[key]; ok {
				entries[i].Value = val
				continue
			}
			index[key] = len(entries)
			entries = append(entries, Entry{Key: key, Value: val})
		}
		return Value{kind: KindMapping, entries: entries}
	default:
		return v
	}
}

// ToCamel removes every underscore followed by a lowercase ASCII letter and
// uppercases that letter. Underscores before digits, uppercase letters or at
// the end of the key are kept.
func ToCamel(key string) string {
	if !strings.Contains(key, "_") {
		return key
	}
	var b strings.Builder
	b.Grow(len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		if c == '_' && i+1 < len(key) && key[i+1] >= 'a' && key[i+1] <= 'z' {
			b.WriteByte(key[i+1] - 'a' + 'A')
			i++
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// ToSnake replaces every uppercase letter with an underscore followed by its
// lowercase form. Digits are never treated as word boundaries.
func ToSnake(key string) string {
	var b strings.Builder
	b.Grow(len(key) + 4)
	for _, r := range key {
		if unicode.IsUpper(r) && r < unicode.MaxASCII {
			b.WriteByte('_')
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
