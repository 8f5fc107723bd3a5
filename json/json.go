// Package json provides an order-preserving JSON codec for calico Values.
package json

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/zoobzio/calico"
)

func init() {
	calico.Register(calico.FormatJSON, New(true))
}

// jsonCodec implements calico.Codec for JSON.
type jsonCodec struct {
	pretty bool
}

// New returns a JSON codec. Pretty output is indented by two spaces.
func New(pretty bool) calico.Codec {
	return &jsonCodec{pretty: pretty}
}

// ContentType returns the MIME type for JSON.
func (c *jsonCodec) ContentType() string {
	return "application/json"
}

// Marshal encodes v as JSON.
func (c *jsonCodec) Marshal(v calico.Value) ([]byte, error) {
	out, err := Serialize(v, c.pretty)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// Unmarshal decodes JSON data.
func (c *jsonCodec) Unmarshal(data []byte) (calico.Value, error) {
	return Deserialize(string(data))
}

// Serialize encodes v. Mapping keys keep their order, HTML characters are
// not escaped and non-finite numbers fail with ErrSerialization.
func Serialize(v calico.Value, pretty bool) (string, error) {
	if err := calico.CheckCycles(v); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		if errors.Is(err, calico.ErrSerialization) {
			return "", err
		}
		return "", calico.NewCodecError(calico.ErrSerialization, err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// Deserialize parses a single JSON document. Parse failures are reported
// as *calico.SyntaxError with the line and column of the offending byte.
func Deserialize(text string) (calico.Value, error) {
	var v calico.Value
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		var se *json.SyntaxError
		if errors.As(err, &se) {
			line, col := position(text, se.Offset)
			return calico.Value{}, &calico.SyntaxError{
				Format: string(calico.FormatJSON),
				Line:   line,
				Column: col,
				Msg:    se.Error(),
			}
		}
		return calico.Value{}, &calico.SyntaxError{Format: string(calico.FormatJSON), Msg: err.Error()}
	}
	return v, nil
}

// position converts a byte offset into a 1-based line and column.
func position(text string, offset int64) (line, col int) {
	end := int(min(max(offset, 0), int64(len(text))))
	prefix := text[:end]
	line = 1 + strings.Count(prefix, "\n")
	col = len(prefix) - (strings.LastIndexByte(prefix, '\n') + 1)
	return line, max(col, 1)
}
