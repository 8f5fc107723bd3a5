// Package csv reads and writes comma-separated rows of calico Values.
//
// Rows written are either mappings (one column per key), primitives (one
// field per line) or sequences (one field per item). Rows read back are
// always strings; type coercion is left to the caller.
package csv

import (
	"github.com/zoobzio/calico"
)

func init() {
	calico.Register(calico.FormatCSV, New())
}

// csvCodec implements calico.Codec for CSV.
type csvCodec struct {
	opts []Option
}

// New returns a CSV codec using opts for both directions.
func New(opts ...Option) calico.Codec {
	return &csvCodec{opts: opts}
}

// ContentType returns the MIME type for CSV.
func (c *csvCodec) ContentType() string {
	return "text/csv"
}

// Marshal encodes a sequence of rows as CSV.
func (c *csvCodec) Marshal(v calico.Value) ([]byte, error) {
	out, err := Serialize(v, c.opts...)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// Unmarshal decodes CSV text into a sequence of rows.
func (c *csvCodec) Unmarshal(data []byte) (calico.Value, error) {
	return Deserialize(string(data), c.opts...)
}
