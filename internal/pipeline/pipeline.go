// Package pipeline runs the decode then encode conversion shared by the CLI
// and the HTTP server, so both entry points treat every format the same way.
package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/zoobzio/calico"
	"github.com/zoobzio/calico/csv"
	"github.com/zoobzio/calico/exporter"
	"github.com/zoobzio/calico/internal/config"
	"github.com/zoobzio/calico/markdown"
	"github.com/zoobzio/calico/schema"
)

// Options carries per-format settings.
type Options struct {
	Pretty   bool
	Indent   int
	CSV      []csv.Option
	Markdown markdown.Options
}

// OptionsFromConfig copies the format settings out of cfg.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		Pretty:   cfg.Pretty,
		Indent:   cfg.Indent,
		CSV:      cfg.CSVOptions(),
		Markdown: cfg.MarkdownOptions(),
	}
}

// Runner converts payloads through an exporter.Service.
type Runner struct {
	svc  exporter.Service
	opts Options
}

// NewRunner returns a Runner using svc.
func NewRunner(svc exporter.Service, opts Options) *Runner {
	return &Runner{svc: svc, opts: opts}
}

// Decode parses data as f.
func (r *Runner) Decode(ctx context.Context, f calico.Format, data []byte) (calico.Value, error) {
	switch f {
	case calico.FormatJSON:
		return r.svc.FromJSON(ctx, string(data))
	case calico.FormatCSV:
		return r.svc.FromCSV(ctx, string(data), r.opts.CSV...)
	case calico.FormatYAML:
		return r.svc.FromYAML(ctx, string(data))
	default:
		return r.svc.Decode(ctx, f, data)
	}
}

// Encode writes v as f.
func (r *Runner) Encode(ctx context.Context, f calico.Format, v calico.Value) ([]byte, error) {
	var (
		out string
		err error
	)
	switch f {
	case calico.FormatJSON:
		out, err = r.svc.ToJSON(ctx, v, r.opts.Pretty)
	case calico.FormatCSV:
		out, err = r.svc.ToCSV(ctx, v, r.opts.CSV...)
	case calico.FormatYAML:
		out, err = r.svc.ToYAML(ctx, v, r.opts.Indent)
	case calico.FormatMarkdown:
		out, err = r.svc.ToMarkdown(ctx, v, r.opts.Markdown)
	default:
		return r.svc.Encode(ctx, f, v)
	}
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// Convert decodes data as from and encodes the result as to.
func (r *Runner) Convert(ctx context.Context, from, to calico.Format, data []byte) ([]byte, error) {
	v, err := r.Decode(ctx, from, data)
	if err != nil {
		return nil, err
	}
	return r.Encode(ctx, to, v)
}

// Service assembles the exporter stack cfg asks for: a worker when
// Threshold is positive and schema validation when Schema names a file.
// The returned closer stops the worker, if any.
func Service(cfg config.Config, logger *log.Logger) (exporter.Service, io.Closer, error) {
	var svc exporter.Service = exporter.New()
	var closer io.Closer = nopCloser{}

	if cfg.Threshold > 0 {
		a := exporter.NewAsync(svc, exporter.WithThreshold(cfg.Threshold), exporter.WithLogger(logger))
		svc, closer = a, a
		logger.Debug("worker enabled", "threshold", cfg.Threshold)
	}

	if cfg.Schema != "" {
		s, err := schema.Load(cfg.Schema)
		if err != nil {
			_ = closer.Close()
			return nil, nil, fmt.Errorf("load schema: %w", err)
		}
		svc = exporter.NewValidating(svc, s)
		logger.Debug("schema loaded", "path", cfg.Schema)
	}
	return svc, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
