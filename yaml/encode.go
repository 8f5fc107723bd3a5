package yaml

import (
	"fmt"
	"math"
	"strings"

	"github.com/zoobzio/calico"
)

var (
	posInf = math.Inf(1)
	negInf = math.Inf(-1)
)

// specialChars force a string to be quoted.
const specialChars = ":#[]{},\"'\n\t\r"

// Serialize writes v as block-style YAML using indent spaces per level.
// Scalars and empty containers at the top level are written on their own.
func Serialize(v calico.Value, indent int) (string, error) {
	if indent < 1 {
		return "", fmt.Errorf("%w: yaml indent must be a positive integer, got %d", calico.ErrInvalidArgument, indent)
	}
	if err := calico.CheckCycles(v); err != nil {
		return "", err
	}

	w := writer{width: indent}
	if isBlock(v) {
		w.container(v, 0)
	} else {
		w.b.WriteString(scalar(v))
	}
	return w.b.String(), nil
}

// isBlock reports whether v is written as indented lines rather than inline.
func isBlock(v calico.Value) bool {
	return v.IsContainer() && v.Len() > 0
}

type writer struct {
	b     strings.Builder
	width int
}

func (w *writer) startLine(col int) {
	if w.b.Len() > 0 {
		w.b.WriteByte('\n')
	}
	w.b.WriteString(strings.Repeat(" ", col))
}

func (w *writer) container(v calico.Value, col int) {
	switch v.Kind() {
	case calico.KindSequence:
		s, _ := v.AsSequence()
		w.sequence(s, col)
	case calico.KindMapping:
		m, _ := v.AsMapping()
		w.mapping(m, col, false)
	default:
		panic("yaml: not a container: " + v.Kind().String())
	}
}

// mapping writes one "key: value" line per entry at col. When inline is set
// the first entry continues the current line, after a sequence dash.
func (w *writer) mapping(m *calico.Mapping, col int, inline bool) {
	for i, e := range m.Entries() {
		if !inline || i > 0 {
			w.startLine(col)
		}
		w.b.WriteString(formatKey(e.Key))
		w.b.WriteByte(':')
		if isBlock(e.Value) {
			w.container(e.Value, col+w.width)
			continue
		}
		w.b.WriteByte(' ')
		w.b.WriteString(scalar(e.Value))
	}
}

// sequence writes one dash line per item at col. A non-empty mapping item
// starts on the dash line and its keys line up in the column after the dash
// gap; a non-empty sequence item gets a bare dash and its own block.
func (w *writer) sequence(s *calico.Sequence, col int) {
	for _, item := range s.Items() {
		w.startLine(col)
		w.b.WriteByte('-')
		switch {
		case item.Kind() == calico.KindMapping && item.Len() > 0:
			gap := max(1, w.width-1)
			w.b.WriteString(strings.Repeat(" ", gap))
			m, _ := item.AsMapping()
			w.mapping(m, col+1+gap, true)
		case item.Kind() == calico.KindSequence && item.Len() > 0:
			w.container(item, col+w.width)
		default:
			w.b.WriteByte(' ')
			w.b.WriteString(scalar(item))
		}
	}
}

// scalar renders a primitive or an empty container.
func scalar(v calico.Value) string {
	switch v.Kind() {
	case calico.KindNull:
		return "null"
	case calico.KindBool:
		b, _ := v.AsBool()
		if b {
			return "true"
		}
		return "false"
	case calico.KindNumber:
		n, _ := v.AsNumber()
		return calico.FormatNumber(n)
	case calico.KindString:
		s, _ := v.AsString()
		if needsQuotes(s) {
			return quote(s)
		}
		return s
	case calico.KindSequence:
		return "[]"
	case calico.KindMapping:
		return "{}"
	default:
		panic("yaml: unknown value kind " + v.Kind().String())
	}
}

// needsQuotes reports whether s would read back as something other than
// the same plain string.
func needsQuotes(s string) bool {
	switch s {
	case "", "true", "false", "null":
		return true
	}
	if strings.ContainsAny(s, specialChars) || hasEdgeSpace(s) || s[0] == '-' {
		return true
	}
	_, isNumber := jsNumber(s)
	return isNumber
}

func formatKey(k string) string {
	if k == "" || strings.ContainsAny(k, specialChars) || hasEdgeSpace(k) || k[0] == '-' {
		return quote(k)
	}
	return k
}

func hasEdgeSpace(s string) bool {
	return s != strings.TrimSpace(s)
}

var quoteReplacer = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\t", `\t`,
	"\r", `\r`,
)

func quote(s string) string {
	return `"` + quoteReplacer.Replace(s) + `"`
}
