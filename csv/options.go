package csv

import (
	"fmt"

	"github.com/zoobzio/calico"
)

// Options controls how rows are written and read.
type Options struct {
	// IncludeHeaders writes a header row and reads the first row as field
	// names. Without headers, rows read back as sequences of strings.
	IncludeHeaders bool

	// Delimiter separates fields. It may not be a quote, CR, LF or NUL.
	Delimiter rune

	// QuoteAllStrings wraps every non-null field in quotes. When false,
	// only fields containing the delimiter, a quote or a line break are quoted.
	QuoteAllStrings bool

	// StrictColumns rejects data rows whose width differs from the header.
	// The default pads short rows with empty strings and drops extra fields.
	StrictColumns bool
}

// DefaultOptions returns headers on, comma delimited, all fields quoted.
func DefaultOptions() Options {
	return Options{
		IncludeHeaders:  true,
		Delimiter:       ',',
		QuoteAllStrings: true,
	}
}

// Option adjusts Options.
type Option func(*Options)

// WithHeaders toggles the header row.
func WithHeaders(on bool) Option {
	return func(o *Options) { o.IncludeHeaders = on }
}

// WithDelimiter sets the field separator.
func WithDelimiter(d rune) Option {
	return func(o *Options) { o.Delimiter = d }
}

// WithQuoteAll toggles unconditional quoting.
func WithQuoteAll(on bool) Option {
	return func(o *Options) { o.QuoteAllStrings = on }
}

// WithStrictColumns toggles ragged-row rejection when reading.
func WithStrictColumns(on bool) Option {
	return func(o *Options) { o.StrictColumns = on }
}

// WithOptions replaces all settings at once.
func WithOptions(opts Options) Option {
	return func(o *Options) { *o = opts }
}

func buildOptions(opts []Option) (Options, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	switch o.Delimiter {
	case 0, '"', '\n', '\r':
		return o, fmt.Errorf("%w: csv delimiter %q", calico.ErrInvalidArgument, o.Delimiter)
	}
	return o, nil
}
