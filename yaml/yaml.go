// Package yaml reads and writes a block-style subset of YAML.
//
// Supported: nested mappings and sequences, plain and double-quoted
// scalars, comments on their own line, and the compact "- key: value" form
// for mappings inside sequences. Flow collections other than the empty [] and
// {}, anchors, tags, block scalars and multiple documents are not.
package yaml

import (
	"github.com/zoobzio/calico"
)

// DefaultIndent is the indent width used by the registered codec.
const DefaultIndent = 2

func init() {
	calico.Register(calico.FormatYAML, New(DefaultIndent))
}

// yamlCodec implements calico.Codec for YAML.
type yamlCodec struct {
	indent int
}

// New returns a YAML codec that writes with the given indent width.
func New(indent int) calico.Codec {
	return &yamlCodec{indent: indent}
}

// ContentType returns the MIME type for YAML.
func (c *yamlCodec) ContentType() string {
	return "application/yaml"
}

// Marshal encodes v as YAML.
func (c *yamlCodec) Marshal(v calico.Value) ([]byte, error) {
	out, err := Serialize(v, c.indent)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// Unmarshal decodes YAML data.
func (c *yamlCodec) Unmarshal(data []byte) (calico.Value, error) {
	return Deserialize(string(data))
}
