package calico

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

const hexDigits = "0123456789abcdef"

// MarshalJSON encodes v as compact JSON, keeping mapping order.
// Cyclic values fail with a CircularReferenceError and non-finite numbers
// fail with ErrSerialization.
func (v Value) MarshalJSON() ([]byte, error) {
	if err := CheckCycles(v); err != nil {
		return nil, err
	}
	return appendJSON(nil, v)
}

func appendJSON(buf []byte, v Value) ([]byte, error) {
	var err error
	switch v.kind {
	case KindNull:
		return append(buf, "null"...), nil
	case KindBool:
		return strconv.AppendBool(buf, v.b), nil
	case KindNumber:
		if !IsFinite(v.num) {
			return nil, newCodecError(ErrSerialization,
				fmt.Errorf("number %s is not representable in JSON", FormatNumber(v.num)))
		}
		return append(buf, FormatNumber(v.num)...), nil
	case KindString:
		return appendQuoted(buf, v.str), nil
	case KindSequence:
		buf = append(buf, '[')
		for i, item := range v.seq.items {
			if i > 0 {
				buf = append(buf, ',')
			}
			if buf, err = appendJSON(buf, item); err != nil {
				return nil, err
			}
		}
		return append(buf, ']'), nil
	case KindMapping:
		buf = append(buf, '{')
		for i, k := range v.obj.keys {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = appendQuoted(buf, k)
			buf = append(buf, ':')
			if buf, err = appendJSON(buf, v.obj.vals[i]); err != nil {
				return nil, err
			}
		}
		return append(buf, '}'), nil
	default:
		panic(unknownKind(v.kind))
	}
}

// appendQuoted writes s as a JSON string literal without HTML escaping.
func appendQuoted(buf []byte, s string) []byte {
	buf = append(buf, '"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"', '\\':
			buf = append(buf, '\\', c)
		case '\n':
			buf = append(buf, '\\', 'n')
		case '\r':
			buf = append(buf, '\\', 'r')
		case '\t':
			buf = append(buf, '\\', 't')
		case '\b':
			buf = append(buf, '\\', 'b')
		case '\f':
			buf = append(buf, '\\', 'f')
		default:
			if c < 0x20 {
				buf = append(buf, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xF])
				continue
			}
			buf = append(buf, c)
		}
	}
	return append(buf, '"')
}

// UnmarshalJSON decodes a single JSON document into v, keeping the source
// order of object keys. Numbers become float64; out-of-range magnitudes
// become infinities, matching ECMAScript.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	out, err := decodeJSON(dec)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err == nil {
			return fmt.Errorf("unexpected data after top-level value at offset %d", dec.InputOffset())
		}
		return err
	}
	*v = out
	return nil
}

func decodeJSON(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}

	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		f, err := strconv.ParseFloat(string(t), 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return Value{}, err
		}
		return Number(f), nil
	case json.Delim:
		switch t {
		case '[':
			seq := NewSequence()
			for dec.More() {
				item, err := decodeJSON(dec)
				if err != nil {
					return Value{}, err
				}
				seq.Append(item)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return seq.Value(), nil
		case '{':
			m := NewMapping()
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := kt.(string)
				if !ok {
					return Value{}, fmt.Errorf("object key at offset %d is not a string", dec.InputOffset())
				}
				val, err := decodeJSON(dec)
				if err != nil {
					return Value{}, err
				}
				m.Set(key, val)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return m.Value(), nil
		}
	}
	return Value{}, fmt.Errorf("unexpected token %v at offset %d", tok, dec.InputOffset())
}
