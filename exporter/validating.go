package exporter

import (
	"context"
	"sync"

	"github.com/zoobzio/calico"
	"github.com/zoobzio/calico/csv"
	"github.com/zoobzio/calico/markdown"
	"github.com/zoobzio/calico/schema"
)

// Validating checks values against a schema before serializing them.
// Decoding passes straight through to the wrapped Service.
type Validating struct {
	Service

	mu       sync.RWMutex
	schema   *schema.Schema
	failFast bool
}

// ValidatingOption configures a Validating.
type ValidatingOption func(*Validating)

// WithoutFailFast reports violations through SignalValidationFailed but
// serializes anyway.
func WithoutFailFast() ValidatingOption {
	return func(v *Validating) { v.failFast = false }
}

// NewValidating wraps next. A nil schema accepts everything until
// SetSchema installs one.
func NewValidating(next Service, s *schema.Schema, opts ...ValidatingOption) *Validating {
	v := &Validating{Service: next, schema: s, failFast: true}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// SetSchema replaces the schema used by later calls.
func (v *Validating) SetSchema(s *schema.Schema) {
	v.mu.Lock()
	v.schema = s
	v.mu.Unlock()
}

// Validate checks val against the current schema.
func (v *Validating) Validate(val calico.Value) schema.Result {
	v.mu.RLock()
	s := v.schema
	v.mu.RUnlock()
	return schema.Validate(val, s)
}

// check fails with the first violation when fail-fast is on.
func (v *Validating) check(ctx context.Context, val calico.Value) error {
	r := v.Validate(val)
	if r.Valid {
		return nil
	}
	first := r.Errors[0]
	emitValidationFailed(ctx, first.Path, len(r.Errors))
	if !v.failFast {
		return nil
	}
	return &calico.ValidationError{Path: first.Path, Message: first.Message}
}

// ToJSON validates v, then encodes it as JSON.
func (v *Validating) ToJSON(ctx context.Context, val calico.Value, pretty bool) (string, error) {
	if err := v.check(ctx, val); err != nil {
		return "", err
	}
	return v.Service.ToJSON(ctx, val, pretty)
}

// ToCSV validates rows, then encodes them as CSV.
func (v *Validating) ToCSV(ctx context.Context, rows calico.Value, opts ...csv.Option) (string, error) {
	if err := v.check(ctx, rows); err != nil {
		return "", err
	}
	return v.Service.ToCSV(ctx, rows, opts...)
}

// ToYAML validates v, then encodes it as YAML.
func (v *Validating) ToYAML(ctx context.Context, val calico.Value, indent int) (string, error) {
	if err := v.check(ctx, val); err != nil {
		return "", err
	}
	return v.Service.ToYAML(ctx, val, indent)
}

// ToMarkdown validates v, then renders it as Markdown.
func (v *Validating) ToMarkdown(ctx context.Context, val calico.Value, opts markdown.Options) (string, error) {
	if err := v.check(ctx, val); err != nil {
		return "", err
	}
	return v.Service.ToMarkdown(ctx, val, opts)
}

// Encode validates v, then marshals it with the codec registered for f.
func (v *Validating) Encode(ctx context.Context, f calico.Format, val calico.Value) ([]byte, error) {
	if err := v.check(ctx, val); err != nil {
		return nil, err
	}
	return v.Service.Encode(ctx, f, val)
}
