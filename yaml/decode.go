package yaml

import (
	"strings"

	"github.com/zoobzio/calico"
)

// line is one significant source line.
type line struct {
	num    int    // 1-based source line number
	indent int    // leading whitespace width
	text   string // content with surrounding whitespace removed
}

func (l line) isItem() bool {
	return l.text == "-" || strings.HasPrefix(l.text, "- ")
}

// isEntry reports a mapping entry. Sequence items are never entries, even
// when they carry a compact mapping.
func (l line) isEntry() bool {
	if l.isItem() {
		return false
	}
	_, _, ok := splitEntry(l.text)
	return ok
}

// Deserialize parses block-style YAML. Blank input yields an empty mapping
// and a document of a single scalar line yields that scalar.
func Deserialize(text string) (calico.Value, error) {
	p := parser{lines: scanLines(text)}
	if len(p.lines) == 0 {
		return calico.Object(), nil
	}

	first := p.lines[0]
	if !first.isItem() && !first.isEntry() {
		if len(p.lines) == 1 {
			return parseScalar(first.text), nil
		}
		return calico.Value{}, syntaxError(first, "unexpected token")
	}

	v, err := p.block(first.indent)
	if err != nil {
		return calico.Value{}, err
	}
	if l, ok := p.peek(); ok {
		return calico.Value{}, syntaxError(l, "unexpected indentation")
	}
	return v, nil
}

// scanLines drops blank and comment lines, keeping source line numbers.
func scanLines(text string) []line {
	raw := strings.Split(text, "\n")
	out := make([]line, 0, len(raw))
	for i, r := range raw {
		r = strings.TrimSuffix(r, "\r")
		content := strings.TrimSpace(r)
		if content == "" || content[0] == '#' {
			continue
		}
		out = append(out, line{
			num:    i + 1,
			indent: len(r) - len(strings.TrimLeft(r, " \t")),
			text:   content,
		})
	}
	return out
}

func syntaxError(l line, msg string) error {
	return &calico.SyntaxError{Format: string(calico.FormatYAML), Line: l.num, Msg: msg}
}

// parser walks the significant lines with a single shared cursor.
type parser struct {
	lines []line
	pos   int
}

func (p *parser) peek() (line, bool) {
	if p.pos >= len(p.lines) {
		return line{}, false
	}
	return p.lines[p.pos], true
}

// block parses the container whose first line is at the cursor and sits at
// indent. The first line decides whether it is a sequence or a mapping.
func (p *parser) block(indent int) (calico.Value, error) {
	l, _ := p.peek()
	if l.isItem() {
		return p.sequence(indent, false)
	}
	m := calico.NewMapping()
	if err := p.mapping(m, indent); err != nil {
		return calico.Value{}, err
	}
	return m.Value(), nil
}

// nested parses the value of an entry whose text ended at its colon. The
// value is a block indented past owner, a sequence at owner's own indent,
// or null when neither follows.
func (p *parser) nested(owner int) (calico.Value, error) {
	next, ok := p.peek()
	switch {
	case !ok:
		return calico.Null(), nil
	case next.indent > owner:
		return p.block(next.indent)
	case next.indent == owner && next.isItem():
		return p.sequence(owner, true)
	default:
		return calico.Null(), nil
	}
}

// mapping reads entries at indent into m until the indent drops.
func (p *parser) mapping(m *calico.Mapping, indent int) error {
	for {
		l, ok := p.peek()
		if !ok || l.indent < indent {
			return nil
		}
		if l.indent > indent {
			return syntaxError(l, "unexpected indentation")
		}

		if l.isItem() {
			return syntaxError(l, "expected mapping entry, found sequence item")
		}
		key, rest, isEntry := splitEntry(l.text)
		if !isEntry {
			return syntaxError(l, "unexpected token")
		}
		p.pos++

		if rest != "" {
			m.Set(key, parseScalar(rest))
			continue
		}
		v, err := p.nested(l.indent)
		if err != nil {
			return err
		}
		m.Set(key, v)
	}
}

// sequence reads dash items at indent until the indent drops. An indentless
// sequence, one sitting at its parent key's indent, also ends at the next
// mapping entry.
func (p *parser) sequence(indent int, indentless bool) (calico.Value, error) {
	seq := calico.NewSequence()
	for {
		l, ok := p.peek()
		if !ok || l.indent < indent {
			break
		}
		if l.indent > indent {
			return calico.Value{}, syntaxError(l, "unexpected indentation")
		}
		if !l.isItem() {
			if !l.isEntry() {
				return calico.Value{}, syntaxError(l, "unexpected token")
			}
			if indentless {
				break
			}
			return calico.Value{}, syntaxError(l, "expected sequence item, found mapping entry")
		}
		p.pos++

		rest := strings.TrimLeft(l.text[1:], " \t")
		switch {
		case rest == "":
			next, ok := p.peek()
			if ok && next.indent > l.indent {
				v, err := p.block(next.indent)
				if err != nil {
					return calico.Value{}, err
				}
				seq.Append(v)
				continue
			}
			seq.Append(calico.Null())
		case rest == "-" || strings.HasPrefix(rest, "- "):
			// "- - x": re-read the remainder as the first item of a
			// sequence sitting at its own column.
			p.pos--
			p.lines[p.pos] = line{num: l.num, indent: l.indent + len(l.text) - len(rest), text: rest}
			v, err := p.sequence(p.lines[p.pos].indent, false)
			if err != nil {
				return calico.Value{}, err
			}
			seq.Append(v)
		case isEntryText(rest):
			col := l.indent + len(l.text) - len(rest)
			v, err := p.compact(l, rest, col)
			if err != nil {
				return calico.Value{}, err
			}
			seq.Append(v)
		default:
			seq.Append(parseScalar(rest))
		}
	}
	return seq.Value(), nil
}

// compact parses a mapping whose first entry shares the dash line. Its
// remaining entries are the lines indented past the dash.
func (p *parser) compact(dash line, first string, col int) (calico.Value, error) {
	m := calico.NewMapping()

	key, rest, _ := splitEntry(first)
	if rest != "" {
		m.Set(key, parseScalar(rest))
	} else {
		v, err := p.nested(col)
		if err != nil {
			return calico.Value{}, err
		}
		m.Set(key, v)
	}

	if next, ok := p.peek(); ok && next.indent > dash.indent {
		if err := p.mapping(m, next.indent); err != nil {
			return calico.Value{}, err
		}
	}
	return m.Value(), nil
}

func isEntryText(s string) bool {
	_, _, ok := splitEntry(s)
	return ok
}

// splitEntry splits "key: value" at the first colon. A double-quoted key
// may contain anything, colons included.
func splitEntry(s string) (key, rest string, ok bool) {
	if strings.HasPrefix(s, `"`) {
		end := closingQuote(s)
		if end < 0 {
			return "", "", false
		}
		after := strings.TrimLeft(s[end+1:], " \t")
		if !strings.HasPrefix(after, ":") {
			return "", "", false
		}
		return unescape(s[1:end]), strings.TrimSpace(after[1:]), true
	}

	key, rest, ok = strings.Cut(s, ":")
	if !ok {
		return "", "", false
	}
	return strings.TrimSpace(key), strings.TrimSpace(rest), true
}

// closingQuote returns the index of the quote ending the double-quoted
// string that starts s, or -1.
func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}

// parseScalar resolves a plain or quoted token.
func parseScalar(s string) calico.Value {
	switch s {
	case "true":
		return calico.Bool(true)
	case "false":
		return calico.Bool(false)
	case "null":
		return calico.Null()
	case "[]":
		return calico.Array()
	case "{}":
		return calico.Object()
	}
	if strings.HasPrefix(s, `"`) && closingQuote(s) == len(s)-1 {
		return calico.String(unescape(s[1 : len(s)-1]))
	}
	if n, ok := jsNumber(s); ok {
		return calico.Number(n)
	}
	return calico.String(s)
}

// unescape reverses quote. Unknown escapes are kept as written.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '"', '\\':
			b.WriteByte(s[i])
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
