// Package markdown renders calico Values as GitHub-flavored Markdown.
// It is write only.
package markdown

import (
	"fmt"
	"strings"

	"github.com/zoobzio/calico"
)

func init() {
	calico.Register(calico.FormatMarkdown, New(Options{}))
}

// Options controls the document preamble.
type Options struct {
	Title           string // Rendered as a level-one heading when set
	TableOfContents bool   // Lists top-level keys of a mapping as anchor links
}

type markdownEncoder struct {
	opts Options
}

// New returns a Markdown encoder.
func New(opts Options) calico.Encoder {
	return &markdownEncoder{opts: opts}
}

// ContentType returns the MIME type for Markdown.
func (e *markdownEncoder) ContentType() string {
	return "text/markdown"
}

// Marshal renders v as Markdown.
func (e *markdownEncoder) Marshal(v calico.Value) ([]byte, error) {
	out, err := Serialize(v, e.opts)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// Serialize renders v. A sequence whose first item is a mapping becomes a
// table over the union of keys; any other sequence becomes a bullet list;
// a mapping becomes a "**key**: value" list with values as compact JSON.
// Anything else is written as its plain text.
func Serialize(v calico.Value, opts Options) (string, error) {
	if err := calico.CheckCycles(v); err != nil {
		return "", err
	}

	var parts []string
	if opts.Title != "" {
		parts = append(parts, "# "+opts.Title+"\n")
	}
	if m, ok := v.AsMapping(); ok && opts.TableOfContents {
		parts = append(parts, "## Table of Contents")
		for _, k := range m.Keys() {
			parts = append(parts, "- ["+k+"](#"+strings.ToLower(k)+")")
		}
		parts = append(parts, "")
	}

	var (
		body []string
		err  error
	)
	switch v.Kind() {
	case calico.KindSequence:
		s, _ := v.AsSequence()
		items := s.Items()
		if len(items) > 0 && items[0].Kind() == calico.KindMapping {
			body, err = table(items)
		} else {
			body, err = list(items)
		}
	case calico.KindMapping:
		m, _ := v.AsMapping()
		body, err = fields(m)
	case calico.KindNull, calico.KindBool, calico.KindNumber, calico.KindString:
		var text string
		text, err = inline(v)
		body = []string{text}
	default:
		panic("markdown: unknown value kind " + v.Kind().String())
	}
	if err != nil {
		return "", err
	}

	return strings.Join(append(parts, body...), "\n"), nil
}

func table(items []calico.Value) ([]string, error) {
	var header []string
	seen := make(map[string]struct{})
	for _, item := range items {
		m, ok := item.AsMapping()
		if !ok {
			continue
		}
		for _, k := range m.Keys() {
			if _, dup := seen[k]; !dup {
				seen[k] = struct{}{}
				header = append(header, k)
			}
		}
	}

	lines := make([]string, 0, len(items)+2)
	cells := make([]string, len(header))
	for i, h := range header {
		cells[i] = escapeCell(h)
	}
	lines = append(lines, row(cells))
	for i := range cells {
		cells[i] = "---"
	}
	lines = append(lines, row(cells))

	for _, item := range items {
		m, _ := item.AsMapping()
		for i, h := range header {
			v, ok := m.Get(h)
			if !ok || v.IsNull() {
				cells[i] = ""
				continue
			}
			text, err := inline(v)
			if err != nil {
				return nil, err
			}
			cells[i] = escapeCell(text)
		}
		lines = append(lines, row(cells))
	}
	return lines, nil
}

func row(cells []string) string {
	return "| " + strings.Join(cells, " | ") + " |"
}

var cellReplacer = strings.NewReplacer("|", `\|`, "\r\n", "<br>", "\n", "<br>", "\r", "<br>")

// escapeCell keeps text from breaking out of its table cell.
func escapeCell(s string) string {
	return cellReplacer.Replace(s)
}

func list(items []calico.Value) ([]string, error) {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		text, err := inline(item)
		if err != nil {
			return nil, err
		}
		lines = append(lines, "- "+text)
	}
	return lines, nil
}

func fields(m *calico.Mapping) ([]string, error) {
	lines := make([]string, 0, m.Len())
	for _, e := range m.Entries() {
		data, err := e.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		lines = append(lines, "- **"+e.Key+"**: "+string(data))
	}
	return lines, nil
}

// inline renders primitives as plain text and containers as compact JSON.
// Non-finite numbers fail with ErrSerialization, as they do inside JSON.
func inline(v calico.Value) (string, error) {
	if n, ok := v.AsNumber(); ok && !calico.IsFinite(n) {
		return "", calico.NewCodecError(calico.ErrSerialization,
			fmt.Errorf("number %s is not representable in Markdown", calico.FormatNumber(n)))
	}
	if v.IsPrimitive() {
		return v.String(), nil
	}
	data, err := v.MarshalJSON()
	if err != nil {
		return "", err
	}
	return string(data), nil
}
