package casing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/mitchellh/mapstructure"
)

// FromJSON decodes raw JSON into a Value preserving object key order.
// Numbers are kept as json.Number.
func FromJSON(data []byte) (Value, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Null(), nil
	}
	var v Value
	if err := json.Unmarshal(data, &v); err != nil {
		return Null(), err
	}
	return v, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	parsed, err := decodeValue(dec)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Null(), err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			entries := make([]Entry, 0)
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Null(), err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Null(), fmt.Errorf("casing: unexpected object key %v", keyTok)
				}
				item, err := decodeValue(dec)
				if err != nil {
					return Null(), err
				}
				entries = append(entries, Entry{Key: key, Value: item})
			}
			if _, err := dec.Token(); err != nil {
				return Null(), err
			}
			return Value{kind: KindMapping, entries: entries}, nil
		case '[':
			items := make([]Value, 0)
			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return Null(), err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil {
				return Null(), err
			}
			return Value{kind: KindSequence, items: items}, nil
		}
		return Null(), fmt.Errorf("casing: unexpected delimiter %v", t)
	case nil:
		return Null(), nil
	default:
		return Prim(t), nil
	}
}

// MarshalJSON implements json.Marshaler. Mapping keys keep their order.
func (v Value) MarshalJSON() ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := v.encode(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) encode(w *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		w.WriteString("null")
	case KindPrimitive:
		raw, err := json.Marshal(v.prim)
		if err != nil {
			return err
		}
		w.Write(raw)
	case KindSequence:
		w.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				w.WriteByte(',')
			}
			if err := item.encode(w); err != nil {
				return err
			}
		}
		w.WriteByte(']')
	case KindMapping:
		w.WriteByte('{')
		for i, e := range v.entries {
			if i > 0 {
				w.WriteByte(',')
			}
			key, err := json.Marshal(e.Key)
			if err != nil {
				return err
			}
			w.Write(key)
			w.WriteByte(':')
			if err := e.Value.encode(w); err != nil {
				return err
			}
		}
		w.WriteByte('}')
	case KindOpaque:
		if _, ok := v.opaque.(io.Reader); ok {
			return fmt.Errorf("casing: opaque reader cannot be encoded as JSON")
		}
		raw, err := json.Marshal(v.opaque)
		if err != nil {
			return err
		}
		w.Write(raw)
	}
	return nil
}

// FromStruct converts a JSON-tagged struct (or any JSON-marshalable value)
// into a Value, keeping struct field order.
func FromStruct(x interface{}) (Value, error) {
	raw, err := json.Marshal(x)
	if err != nil {
		return Null(), fmt.Errorf("casing: marshal %T: %w", x, err)
	}
	return FromJSON(raw)
}

// Decode copies v into dst, matching mapping keys against `json` struct tags.
func Decode(v Value, dst interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           dst,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("casing: build decoder: %w", err)
	}
	if err := decoder.Decode(v.Any()); err != nil {
		return fmt.Errorf("casing: decode into %T: %w", dst, err)
	}
	return nil
}
