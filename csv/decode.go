package csv

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/zoobzio/calico"
)

// record is one parsed row and the 1-based line it started on.
type record struct {
	fields []string
	line   int
}

// Deserialize parses CSV text. With headers on, the result is a sequence of
// mappings keyed by the first row; otherwise a sequence of string sequences.
// Every field is a string. Blank input yields an empty sequence.
func Deserialize(text string, opts ...Option) (calico.Value, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return calico.Value{}, err
	}
	if strings.TrimSpace(text) == "" {
		return calico.Array(), nil
	}

	records, err := parse(text, o.Delimiter)
	if err != nil {
		return calico.Value{}, err
	}

	out := calico.NewSequence()
	if !o.IncludeHeaders {
		for _, r := range records {
			row := calico.NewSequence()
			for _, f := range r.fields {
				row.Append(calico.String(f))
			}
			out.Append(row.Value())
		}
		return out.Value(), nil
	}

	header := records[0].fields
	for _, r := range records[1:] {
		if o.StrictColumns && len(r.fields) != len(header) {
			return calico.Value{}, &calico.SyntaxError{
				Format: string(calico.FormatCSV),
				Line:   r.line,
				Msg:    fmt.Sprintf("line %d has mismatched columns: expected %d, got %d", r.line, len(header), len(r.fields)),
			}
		}
		row := calico.NewMapping()
		for i, name := range header {
			cell := ""
			if i < len(r.fields) {
				cell = r.fields[i]
			}
			row.Set(name, calico.String(cell))
		}
		out.Append(row.Value())
	}
	return out.Value(), nil
}

// parse runs the two-state scanner. Outside quotes the delimiter ends a
// field and "\n", "\r\n" or a lone "\r" ends a row. Inside quotes
// everything is literal except a doubled quote, which yields one quote,
// and a single quote, which closes the field.
func parse(text string, delim rune) ([]record, error) {
	var (
		records  []record
		row      []string
		field    strings.Builder
		inQuotes bool
		pending  bool // characters consumed since the last row break
		line     = 1
		rowLine  = 1
		quoteAt  int
	)

	endRow := func() {
		row = append(row, field.String())
		records = append(records, record{fields: row, line: rowLine})
		row = nil
		field.Reset()
		pending = false
	}

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		next := i + size

		if inQuotes {
			switch {
			case r == '"' && next < len(text) && text[next] == '"':
				field.WriteByte('"')
				next++
			case r == '"':
				inQuotes = false
			default:
				if r == '\n' {
					line++
				}
				field.WriteString(text[i:next])
			}
			i = next
			continue
		}

		switch r {
		case '"':
			inQuotes = true
			quoteAt = line
			pending = true
		case delim:
			row = append(row, field.String())
			field.Reset()
			pending = true
		case '\r':
			if next < len(text) && text[next] == '\n' {
				next++
			}
			endRow()
			line++
			rowLine = line
		case '\n':
			endRow()
			line++
			rowLine = line
		default:
			field.WriteString(text[i:next])
			pending = true
		}
		i = next
	}

	if inQuotes {
		return nil, &calico.SyntaxError{
			Format: string(calico.FormatCSV),
			Line:   quoteAt,
			Msg:    "unterminated quoted field",
		}
	}
	if pending {
		endRow()
	}
	return records, nil
}
