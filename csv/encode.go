package csv

import (
	"strings"

	"github.com/zoobzio/calico"
)

// rowShape is the uniform kind every row must share.
type rowShape uint8

const (
	shapePrimitive rowShape = iota
	shapeMapping
	shapeSequence
)

func (s rowShape) String() string {
	switch s {
	case shapeMapping:
		return "mapping"
	case shapeSequence:
		return "sequence"
	default:
		return "primitive"
	}
}

func shapeOf(v calico.Value) rowShape {
	switch v.Kind() {
	case calico.KindMapping:
		return shapeMapping
	case calico.KindSequence:
		return shapeSequence
	case calico.KindNull, calico.KindBool, calico.KindNumber, calico.KindString:
		return shapePrimitive
	default:
		panic("csv: unknown value kind " + v.Kind().String())
	}
}

// Serialize writes rows as CSV text. rows must be a sequence whose items
// are uniformly mappings, primitives or sequences. Lines are joined by
// "\n" with no trailing newline; an empty sequence yields "". A row that
// would render as an empty line is written as "".
func Serialize(rows calico.Value, opts ...Option) (string, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return "", err
	}

	seq, ok := rows.AsSequence()
	if !ok {
		return "", calico.NewTypeMismatch("sequence of rows", rows.Kind())
	}
	if seq.Len() == 0 {
		return "", nil
	}
	if err := calico.CheckCycles(rows); err != nil {
		return "", err
	}

	items := seq.Items()
	shape := shapeOf(items[0])
	for i := 1; i < len(items); i++ {
		if shapeOf(items[i]) != shape {
			return "", calico.NewElementTypeMismatch(i, shape.String()+" row", items[i].Kind())
		}
	}

	w := writer{opts: o, delim: string(o.Delimiter)}
	switch shape {
	case shapeMapping:
		w.mappings(items)
	case shapeSequence:
		for i, row := range items {
			if i > 0 {
				w.b.WriteByte('\n')
			}
			cells, _ := row.AsSequence()
			w.row(func() { w.line(cells.Items()) })
		}
	default:
		for i, row := range items {
			if i > 0 {
				w.b.WriteByte('\n')
			}
			w.row(func() { w.field(row) })
		}
	}
	return w.b.String(), nil
}

type writer struct {
	b     strings.Builder
	opts  Options
	delim string
}

// mappings writes a header from the first-seen union of keys, then one
// line per row in header order.
func (w *writer) mappings(items []calico.Value) {
	var header []string
	seen := make(map[string]struct{})
	for _, row := range items {
		m, _ := row.AsMapping()
		for _, k := range m.Keys() {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				header = append(header, k)
			}
		}
	}

	first := true
	if w.opts.IncludeHeaders {
		w.row(func() {
			for i, k := range header {
				if i > 0 {
					w.b.WriteString(w.delim)
				}
				w.text(k)
			}
		})
		first = false
	}
	for _, row := range items {
		if !first {
			w.b.WriteByte('\n')
		}
		first = false
		m, _ := row.AsMapping()
		w.row(func() {
			for i, k := range header {
				if i > 0 {
					w.b.WriteString(w.delim)
				}
				v, _ := m.Get(k)
				w.field(v)
			}
		})
	}
}

// row runs write for one line. A line that would come out empty is written
// as "" instead, so the reader keeps it as a row with one empty field.
func (w *writer) row(write func()) {
	start := w.b.Len()
	write()
	if w.b.Len() == start {
		w.b.WriteString(`""`)
	}
}

func (w *writer) line(cells []calico.Value) {
	for i, c := range cells {
		if i > 0 {
			w.b.WriteString(w.delim)
		}
		w.field(c)
	}
}

// field writes one cell. Null is always an empty field.
func (w *writer) field(v calico.Value) {
	if v.IsNull() {
		return
	}
	w.text(v.String())
}

func (w *writer) text(s string) {
	if !w.opts.QuoteAllStrings && !strings.Contains(s, w.delim) && !strings.ContainsAny(s, "\"\n\r") {
		w.b.WriteString(s)
		return
	}
	w.b.WriteByte('"')
	w.b.WriteString(strings.ReplaceAll(s, `"`, `""`))
	w.b.WriteByte('"')
}
