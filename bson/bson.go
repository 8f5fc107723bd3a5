// Package bson provides a BSON codec for calico Values.
package bson

import (
	"encoding/base64"
	"fmt"
	"math"
	"time"

	"github.com/zoobzio/calico"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

func init() {
	calico.Register(calico.FormatBSON, New())
}

const maxExact = 1 << 53

// bsonCodec implements calico.Codec for BSON.
type bsonCodec struct{}

// New returns a BSON codec.
func New() calico.Codec {
	return &bsonCodec{}
}

// ContentType returns the MIME type for BSON.
func (c *bsonCodec) ContentType() string {
	return "application/bson"
}

// Marshal encodes v as a BSON document. v must be a mapping.
func (c *bsonCodec) Marshal(v calico.Value) ([]byte, error) {
	m, ok := v.AsMapping()
	if !ok {
		return nil, calico.NewTypeMismatch("mapping", v.Kind())
	}
	if err := calico.CheckCycles(v); err != nil {
		return nil, err
	}
	doc, err := document(m)
	if err != nil {
		return nil, err
	}
	data, err := bson.Marshal(doc)
	if err != nil {
		return nil, calico.NewCodecError(calico.ErrSerialization, err)
	}
	return data, nil
}

// Unmarshal decodes a BSON document. Int32, Int64 and Double become
// numbers. ObjectIDs, datetimes and decimals become their canonical
// strings and binary becomes base64.
func (c *bsonCodec) Unmarshal(data []byte) (calico.Value, error) {
	raw := bson.Raw(data)
	if err := raw.Validate(); err != nil {
		return calico.Value{}, syntaxError(err.Error())
	}
	return fromDocument(raw)
}

func document(m *calico.Mapping) (bson.D, error) {
	doc := make(bson.D, 0, m.Len())
	for _, e := range m.Entries() {
		v, err := native(e.Value)
		if err != nil {
			return nil, err
		}
		doc = append(doc, bson.E{Key: e.Key, Value: v})
	}
	return doc, nil
}

func native(v calico.Value) (any, error) {
	switch v.Kind() {
	case calico.KindNull:
		return nil, nil
	case calico.KindBool:
		b, _ := v.AsBool()
		return b, nil
	case calico.KindNumber:
		f, _ := v.AsNumber()
		switch {
		case !calico.IsFinite(f):
			return nil, calico.NewCodecError(calico.ErrSerialization, fmt.Errorf("non-finite number %v", f))
		case f == math.Trunc(f) && math.Abs(f) < maxExact:
			return int64(f), nil
		default:
			return f, nil
		}
	case calico.KindString:
		s, _ := v.AsString()
		return s, nil
	case calico.KindSequence:
		seq, _ := v.AsSequence()
		arr := make(bson.A, 0, seq.Len())
		for _, item := range seq.Items() {
			n, err := native(item)
			if err != nil {
				return nil, err
			}
			arr = append(arr, n)
		}
		return arr, nil
	case calico.KindMapping:
		m, _ := v.AsMapping()
		return document(m)
	default:
		panic("bson: unknown value kind " + v.Kind().String())
	}
}

func fromDocument(raw bson.Raw) (calico.Value, error) {
	elems, err := raw.Elements()
	if err != nil {
		return calico.Value{}, syntaxError(err.Error())
	}
	m := calico.NewMapping()
	for _, e := range elems {
		v, err := fromRaw(e.Value())
		if err != nil {
			return calico.Value{}, err
		}
		m.Set(e.Key(), v)
	}
	return m.Value(), nil
}

func fromRaw(rv bson.RawValue) (calico.Value, error) {
	switch rv.Type {
	case bsontype.Null, bsontype.Undefined:
		return calico.Null(), nil
	case bsontype.Boolean:
		return calico.Bool(rv.Boolean()), nil
	case bsontype.Int32:
		return calico.Number(float64(rv.Int32())), nil
	case bsontype.Int64:
		return calico.Number(float64(rv.Int64())), nil
	case bsontype.Double:
		f := rv.Double()
		if !calico.IsFinite(f) {
			return calico.Value{}, calico.NewCodecError(calico.ErrSerialization, fmt.Errorf("non-finite number %v", f))
		}
		return calico.Number(f), nil
	case bsontype.String:
		return calico.String(rv.StringValue()), nil
	case bsontype.ObjectID:
		return calico.String(rv.ObjectID().Hex()), nil
	case bsontype.DateTime:
		return calico.String(rv.Time().UTC().Format(time.RFC3339Nano)), nil
	case bsontype.Decimal128:
		return calico.String(rv.Decimal128().String()), nil
	case bsontype.Binary:
		_, data := rv.Binary()
		return calico.String(base64.StdEncoding.EncodeToString(data)), nil
	case bsontype.EmbeddedDocument:
		return fromDocument(rv.Document())
	case bsontype.Array:
		vals, err := rv.Array().Values()
		if err != nil {
			return calico.Value{}, syntaxError(err.Error())
		}
		seq := calico.NewSequence()
		for _, item := range vals {
			v, err := fromRaw(item)
			if err != nil {
				return calico.Value{}, err
			}
			seq.Append(v)
		}
		return seq.Value(), nil
	default:
		return calico.Value{}, &calico.TypeMismatchError{Index: -1, Want: "a JSON-compatible BSON type", Got: rv.Type.String()}
	}
}

func syntaxError(msg string) error {
	return &calico.SyntaxError{Format: string(calico.FormatBSON), Msg: msg}
}
