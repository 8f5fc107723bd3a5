// Package exporter is the conversion surface of calico.
//
// Exporter runs codecs directly. Validating checks a schema before every
// serialize call. Async hands large payloads to a background worker. All
// three implement Service, so they stack:
//
//	svc := exporter.NewValidating(exporter.New(), userSchema)
//	out, err := svc.ToYAML(ctx, doc, 2)
//
// Every operation emits capitan start and complete signals carrying the
// format, payload size and duration.
package exporter

import (
	"context"
	"time"

	"github.com/zoobzio/calico"
	_ "github.com/zoobzio/calico/bson" // registers the BSON codec
	"github.com/zoobzio/calico/csv"
	"github.com/zoobzio/calico/json"
	"github.com/zoobzio/calico/markdown"
	_ "github.com/zoobzio/calico/msgpack" // registers the MessagePack codec
	"github.com/zoobzio/calico/yaml"
)

// Service converts Values to and from every supported format.
type Service interface {
	ToJSON(ctx context.Context, v calico.Value, pretty bool) (string, error)
	FromJSON(ctx context.Context, text string) (calico.Value, error)
	ToCSV(ctx context.Context, rows calico.Value, opts ...csv.Option) (string, error)
	FromCSV(ctx context.Context, text string, opts ...csv.Option) (calico.Value, error)
	ToYAML(ctx context.Context, v calico.Value, indent int) (string, error)
	FromYAML(ctx context.Context, text string) (calico.Value, error)
	ToMarkdown(ctx context.Context, v calico.Value, opts markdown.Options) (string, error)

	// Encode and Decode go through the codec registry.
	Encode(ctx context.Context, f calico.Format, v calico.Value) ([]byte, error)
	Decode(ctx context.Context, f calico.Format, data []byte) (calico.Value, error)
}

var (
	_ Service = (*Exporter)(nil)
	_ Service = (*Validating)(nil)
	_ Service = (*Async)(nil)
)

// Exporter is the stateless Service. The zero value is ready to use.
type Exporter struct{}

// New returns an Exporter.
func New() *Exporter {
	return &Exporter{}
}

// ToJSON encodes v as JSON, indented when pretty.
func (e *Exporter) ToJSON(ctx context.Context, v calico.Value, pretty bool) (string, error) {
	return encodeText(ctx, calico.FormatJSON, func() (string, error) {
		return json.Serialize(v, pretty)
	})
}

// FromJSON decodes JSON text.
func (e *Exporter) FromJSON(ctx context.Context, text string) (calico.Value, error) {
	return decodeText(ctx, calico.FormatJSON, len(text), func() (calico.Value, error) {
		return json.Deserialize(text)
	})
}

// ToCSV encodes a sequence of rows as CSV.
func (e *Exporter) ToCSV(ctx context.Context, rows calico.Value, opts ...csv.Option) (string, error) {
	return encodeText(ctx, calico.FormatCSV, func() (string, error) {
		return csv.Serialize(rows, opts...)
	})
}

// FromCSV decodes CSV text into a sequence of rows.
func (e *Exporter) FromCSV(ctx context.Context, text string, opts ...csv.Option) (calico.Value, error) {
	return decodeText(ctx, calico.FormatCSV, len(text), func() (calico.Value, error) {
		return csv.Deserialize(text, opts...)
	})
}

// ToYAML encodes v as block-style YAML.
func (e *Exporter) ToYAML(ctx context.Context, v calico.Value, indent int) (string, error) {
	return encodeText(ctx, calico.FormatYAML, func() (string, error) {
		return yaml.Serialize(v, indent)
	})
}

// FromYAML decodes YAML text.
func (e *Exporter) FromYAML(ctx context.Context, text string) (calico.Value, error) {
	return decodeText(ctx, calico.FormatYAML, len(text), func() (calico.Value, error) {
		return yaml.Deserialize(text)
	})
}

// ToMarkdown renders v as Markdown.
func (e *Exporter) ToMarkdown(ctx context.Context, v calico.Value, opts markdown.Options) (string, error) {
	return encodeText(ctx, calico.FormatMarkdown, func() (string, error) {
		return markdown.Serialize(v, opts)
	})
}

// Encode marshals v with the codec registered for f.
func (e *Exporter) Encode(ctx context.Context, f calico.Format, v calico.Value) ([]byte, error) {
	enc, err := calico.Lookup(f)
	if err != nil {
		return nil, err
	}

	emitEncodeStart(ctx, f)
	start := time.Now()
	data, err := enc.Marshal(v)
	emitEncodeComplete(ctx, f, len(data), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Decode unmarshals data with the codec registered for f.
func (e *Exporter) Decode(ctx context.Context, f calico.Format, data []byte) (calico.Value, error) {
	dec, err := calico.LookupDecoder(f)
	if err != nil {
		return calico.Value{}, err
	}

	emitDecodeStart(ctx, f, len(data))
	start := time.Now()
	v, err := dec.Unmarshal(data)
	emitDecodeComplete(ctx, f, len(data), time.Since(start), err)
	if err != nil {
		return calico.Value{}, err
	}
	return v, nil
}

func encodeText(ctx context.Context, f calico.Format, fn func() (string, error)) (string, error) {
	emitEncodeStart(ctx, f)
	start := time.Now()
	out, err := fn()
	emitEncodeComplete(ctx, f, len(out), time.Since(start), err)
	return out, err
}

func decodeText(ctx context.Context, f calico.Format, size int, fn func() (calico.Value, error)) (calico.Value, error) {
	emitDecodeStart(ctx, f, size)
	start := time.Now()
	v, err := fn()
	emitDecodeComplete(ctx, f, size, time.Since(start), err)
	return v, err
}
