// Package msgpack provides a MessagePack codec for calico Values.
package msgpack

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"math"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
	"github.com/zoobzio/calico"
)

func init() {
	calico.Register(calico.FormatMsgpack, New())
}

// maxExact is the largest magnitude below which every integer is exact in
// a float64.
const maxExact = 1 << 53

// msgpackCodec implements calico.Codec for MessagePack.
type msgpackCodec struct{}

// New returns a MessagePack codec.
func New() calico.Codec {
	return &msgpackCodec{}
}

// ContentType returns the MIME type for MessagePack.
func (c *msgpackCodec) ContentType() string {
	return "application/msgpack"
}

// Marshal encodes v as MessagePack. Mappings keep their key order and
// integral numbers use the compact integer encodings.
func (c *msgpackCodec) Marshal(v calico.Value) ([]byte, error) {
	if err := calico.CheckCycles(v); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := encode(enc, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes one MessagePack object. Binary payloads become base64
// strings; extension types are rejected.
func (c *msgpackCodec) Unmarshal(data []byte) (calico.Value, error) {
	r := bytes.NewReader(data)
	dec := msgpack.NewDecoder(r)
	v, err := decode(dec)
	if err != nil {
		return calico.Value{}, err
	}
	if r.Len() > 0 {
		return calico.Value{}, syntaxError(fmt.Sprintf("%d bytes of trailing data", r.Len()))
	}
	return v, nil
}

func encode(enc *msgpack.Encoder, v calico.Value) error {
	var err error
	switch v.Kind() {
	case calico.KindNull:
		err = enc.EncodeNil()
	case calico.KindBool:
		b, _ := v.AsBool()
		err = enc.EncodeBool(b)
	case calico.KindNumber:
		f, _ := v.AsNumber()
		switch {
		case !calico.IsFinite(f):
			return calico.NewCodecError(calico.ErrSerialization, fmt.Errorf("non-finite number %v", f))
		case f == math.Trunc(f) && math.Abs(f) < maxExact:
			err = enc.EncodeInt(int64(f))
		default:
			err = enc.EncodeFloat64(f)
		}
	case calico.KindString:
		s, _ := v.AsString()
		err = enc.EncodeString(s)
	case calico.KindSequence:
		seq, _ := v.AsSequence()
		if err = enc.EncodeArrayLen(seq.Len()); err != nil {
			break
		}
		for _, item := range seq.Items() {
			if err := encode(enc, item); err != nil {
				return err
			}
		}
	case calico.KindMapping:
		m, _ := v.AsMapping()
		if err = enc.EncodeMapLen(m.Len()); err != nil {
			break
		}
		for _, e := range m.Entries() {
			if err := enc.EncodeString(e.Key); err != nil {
				return calico.NewCodecError(calico.ErrSerialization, err)
			}
			if err := encode(enc, e.Value); err != nil {
				return err
			}
		}
	default:
		panic("msgpack: unknown value kind " + v.Kind().String())
	}
	if err != nil {
		return calico.NewCodecError(calico.ErrSerialization, err)
	}
	return nil
}

func decode(dec *msgpack.Decoder) (calico.Value, error) {
	code, err := dec.PeekCode()
	if err != nil {
		return calico.Value{}, syntaxError(err.Error())
	}

	switch {
	case code == msgpcode.Nil:
		if err := dec.DecodeNil(); err != nil {
			return calico.Value{}, syntaxError(err.Error())
		}
		return calico.Null(), nil

	case code == msgpcode.False || code == msgpcode.True:
		b, err := dec.DecodeBool()
		if err != nil {
			return calico.Value{}, syntaxError(err.Error())
		}
		return calico.Bool(b), nil

	case code == msgpcode.Uint64:
		n, err := dec.DecodeUint64()
		if err != nil {
			return calico.Value{}, syntaxError(err.Error())
		}
		return calico.Number(float64(n)), nil

	case msgpcode.IsFixedNum(code), code == msgpcode.Float, code == msgpcode.Double,
		code >= msgpcode.Uint8 && code <= msgpcode.Uint32,
		code >= msgpcode.Int8 && code <= msgpcode.Int64:
		f, err := dec.DecodeFloat64()
		if err != nil {
			return calico.Value{}, syntaxError(err.Error())
		}
		if !calico.IsFinite(f) {
			return calico.Value{}, syntaxError(fmt.Sprintf("non-finite number %v", f))
		}
		return calico.Number(f), nil

	case msgpcode.IsString(code):
		s, err := dec.DecodeString()
		if err != nil {
			return calico.Value{}, syntaxError(err.Error())
		}
		return calico.String(s), nil

	case msgpcode.IsBin(code):
		b, err := dec.DecodeBytes()
		if err != nil {
			return calico.Value{}, syntaxError(err.Error())
		}
		return calico.String(base64.StdEncoding.EncodeToString(b)), nil

	case msgpcode.IsFixedArray(code), code == msgpcode.Array16, code == msgpcode.Array32:
		n, err := dec.DecodeArrayLen()
		if err != nil {
			return calico.Value{}, syntaxError(err.Error())
		}
		seq := calico.NewSequence()
		for i := 0; i < n; i++ {
			item, err := decode(dec)
			if err != nil {
				return calico.Value{}, err
			}
			seq.Append(item)
		}
		return seq.Value(), nil

	case msgpcode.IsFixedMap(code), code == msgpcode.Map16, code == msgpcode.Map32:
		n, err := dec.DecodeMapLen()
		if err != nil {
			return calico.Value{}, syntaxError(err.Error())
		}
		m := calico.NewMapping()
		for i := 0; i < n; i++ {
			kc, err := dec.PeekCode()
			if err != nil {
				return calico.Value{}, syntaxError(err.Error())
			}
			if !msgpcode.IsString(kc) {
				return calico.Value{}, syntaxError(fmt.Sprintf("map key has type code 0x%02x, want string", kc))
			}
			key, err := dec.DecodeString()
			if err != nil {
				return calico.Value{}, syntaxError(err.Error())
			}
			val, err := decode(dec)
			if err != nil {
				return calico.Value{}, err
			}
			m.Set(key, val)
		}
		return m.Value(), nil

	default:
		return calico.Value{}, syntaxError(fmt.Sprintf("unsupported type code 0x%02x", code))
	}
}

func syntaxError(msg string) error {
	return &calico.SyntaxError{Format: string(calico.FormatMsgpack), Msg: msg}
}
