package yaml

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/zoobzio/calico"
	yamlv3 "gopkg.in/yaml.v3"
)

func TestNew(t *testing.T) {
	c := New(DefaultIndent)
	if c.ContentType() != "application/yaml" {
		t.Errorf("ContentType() = %q, want %q", c.ContentType(), "application/yaml")
	}
	if _, err := calico.LookupDecoder(calico.FormatYAML); err != nil {
		t.Errorf("LookupDecoder() error: %v", err)
	}
}

func TestSerialize(t *testing.T) {
	tests := []struct {
		name   string
		v      calico.Value
		indent int
		want   string
	}{
		{
			name:   "nested mapping at indent 4",
			v:      calico.Object(calico.Field("nested", calico.Object(calico.Field("key", calico.String("value"))))),
			indent: 4,
			want:   "nested:\n    key: value",
		},
		{
			name:   "number-like string is quoted",
			v:      calico.String("123"),
			indent: 2,
			want:   `"123"`,
		},
		{
			name:   "number is plain",
			v:      calico.Number(123),
			indent: 2,
			want:   "123",
		},
		{
			name: "scalars",
			v: calico.Object(
				calico.Field("n", calico.Null()),
				calico.Field("b", calico.Bool(false)),
				calico.Field("f", calico.Number(-1.5)),
				calico.Field("s", calico.String("plain text")),
				calico.Field("kw", calico.String("true")),
				calico.Field("empty", calico.String("")),
				calico.Field("colon", calico.String("a: b")),
				calico.Field("quote", calico.String(`say "hi"`)),
				calico.Field("lines", calico.String("one\ntwo")),
				calico.Field("dash", calico.String("-x")),
				calico.Field("pad", calico.String(" x")),
			),
			indent: 2,
			want: strings.Join([]string{
				"n: null",
				"b: false",
				"f: -1.5",
				"s: plain text",
				`kw: "true"`,
				`empty: ""`,
				`colon: "a: b"`,
				`quote: "say \"hi\""`,
				`lines: "one\ntwo"`,
				`dash: "-x"`,
				`pad: " x"`,
			}, "\n"),
		},
		{
			name:   "empty containers inline",
			v:      calico.Object(calico.Field("a", calico.Array()), calico.Field("m", calico.Object())),
			indent: 2,
			want:   "a: []\nm: {}",
		},
		{
			name:   "top-level empty sequence",
			v:      calico.Array(),
			indent: 2,
			want:   "[]",
		},
		{
			name: "compacted mappings in a sequence",
			v: calico.Object(calico.Field("users", calico.Array(
				calico.Object(calico.Field("name", calico.String("Ann")), calico.Field("age", calico.Number(30))),
				calico.Object(calico.Field("name", calico.String("Bo")), calico.Field("tags", calico.Array(calico.String("x")))),
			))),
			indent: 2,
			want: strings.Join([]string{
				"users:",
				"  - name: Ann",
				"    age: 30",
				"  - name: Bo",
				"    tags:",
				"      - x",
			}, "\n"),
		},
		{
			name: "compaction at indent 4",
			v: calico.Array(
				calico.Object(calico.Field("a", calico.Number(1)), calico.Field("b", calico.Number(2))),
			),
			indent: 4,
			want:   "-   a: 1\n    b: 2",
		},
		{
			name: "compaction at indent 1",
			v: calico.Array(
				calico.Object(calico.Field("a", calico.Object(calico.Field("x", calico.Number(1)))), calico.Field("b", calico.Number(2))),
			),
			indent: 1,
			want:   "- a:\n   x: 1\n  b: 2",
		},
		{
			name:   "nested sequences",
			v:      calico.Array(calico.Array(calico.Number(1), calico.Number(2)), calico.String("z")),
			indent: 2,
			want:   "-\n  - 1\n  - 2\n- z",
		},
		{
			name:   "quoted keys",
			v:      calico.Object(calico.Field("", calico.Number(1)), calico.Field("a:b", calico.Number(2)), calico.Field("-k", calico.Number(3))),
			indent: 2,
			want:   "\"\": 1\n\"a:b\": 2\n\"-k\": 3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Serialize(tt.v, tt.indent)
			if err != nil {
				t.Fatalf("Serialize() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Serialize() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestSerialize_Errors(t *testing.T) {
	if _, err := Serialize(calico.Null(), 0); !errors.Is(err, calico.ErrInvalidArgument) {
		t.Errorf("Serialize(indent 0) error = %v, want ErrInvalidArgument", err)
	}
	if _, err := Serialize(calico.Null(), -2); !errors.Is(err, calico.ErrInvalidArgument) {
		t.Errorf("Serialize(indent -2) error = %v, want ErrInvalidArgument", err)
	}

	self := calico.NewMapping()
	self.Set("self", self.Value())
	_, err := Serialize(self.Value(), 2)

	var cre *calico.CircularReferenceError
	if !errors.As(err, &cre) {
		t.Fatalf("Serialize() error = %v, want *CircularReferenceError", err)
	}
	if cre.Path != "root.self" {
		t.Errorf("Path = %q, want %q", cre.Path, "root.self")
	}
}

func TestDeserialize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  calico.Value
	}{
		{
			name:  "blank",
			input: " \n\n",
			want:  calico.Object(),
		},
		{
			name:  "nested mapping",
			input: "nested:\n    key: value",
			want:  calico.Object(calico.Field("nested", calico.Object(calico.Field("key", calico.String("value"))))),
		},
		{
			name:  "comments and blank lines",
			input: "# header\nname: calico\n\n  # indented comment\nversion: 2\n",
			want:  calico.Object(calico.Field("name", calico.String("calico")), calico.Field("version", calico.Number(2))),
		},
		{
			name:  "scalar coercion",
			input: "t: true\nf: false\nn: null\nnum: 1e3\nhex: 0x1F\nq: \"42\"\ns: hello world\nurl: http://example.com\ne: []\no: {}",
			want: calico.Object(
				calico.Field("t", calico.Bool(true)),
				calico.Field("f", calico.Bool(false)),
				calico.Field("n", calico.Null()),
				calico.Field("num", calico.Number(1000)),
				calico.Field("hex", calico.Number(31)),
				calico.Field("q", calico.String("42")),
				calico.Field("s", calico.String("hello world")),
				calico.Field("url", calico.String("http://example.com")),
				calico.Field("e", calico.Array()),
				calico.Field("o", calico.Object()),
			),
		},
		{
			name:  "empty value is null",
			input: "a:\nb: 1",
			want:  calico.Object(calico.Field("a", calico.Null()), calico.Field("b", calico.Number(1))),
		},
		{
			name:  "compacted mapping with nested first value",
			input: "- a:\n    x: 1\n  b: 2\n- c: 3",
			want: calico.Array(
				calico.Object(calico.Field("a", calico.Object(calico.Field("x", calico.Number(1)))), calico.Field("b", calico.Number(2))),
				calico.Object(calico.Field("c", calico.Number(3))),
			),
		},
		{
			name:  "indentless sequence",
			input: "tags:\n- a\n- b\nnext: 1",
			want: calico.Object(
				calico.Field("tags", calico.Array(calico.String("a"), calico.String("b"))),
				calico.Field("next", calico.Number(1)),
			),
		},
		{
			name:  "bare dash with nested block",
			input: "-\n  - 1\n-\n  k: v\n-",
			want: calico.Array(
				calico.Array(calico.Number(1)),
				calico.Object(calico.Field("k", calico.String("v"))),
				calico.Null(),
			),
		},
		{
			name:  "quoted key and escapes",
			input: "\"a: b\": \"tab\\there\"\n\"\": \"back\\\\slash\"",
			want: calico.Object(
				calico.Field("a: b", calico.String("tab\there")),
				calico.Field("", calico.String(`back\slash`)),
			),
		},
		{
			name:  "single scalar document",
			input: "\"hello: world\"",
			want:  calico.String("hello: world"),
		},
		{
			name:  "single number document",
			input: "42\n",
			want:  calico.Number(42),
		},
		{
			name:  "CRLF line endings",
			input: "a: 1\r\nb:\r\n  - x\r\n",
			want:  calico.Object(calico.Field("a", calico.Number(1)), calico.Field("b", calico.Array(calico.String("x")))),
		},
		{
			name:  "colon without space",
			input: "a: 1\nb:2",
			want:  calico.Object(calico.Field("a", calico.Number(1)), calico.Field("b", calico.Number(2))),
		},
		{
			name:  "single entry without space",
			input: "key:value",
			want:  calico.Object(calico.Field("key", calico.String("value"))),
		},
		{
			name:  "compacted mapping without space",
			input: "- a:1\n  b: 2",
			want:  calico.Array(calico.Object(calico.Field("a", calico.Number(1)), calico.Field("b", calico.Number(2)))),
		},
		{
			name:  "later colons stay in the value",
			input: "time: 10:30\nurl:http://x",
			want:  calico.Object(calico.Field("time", calico.String("10:30")), calico.Field("url", calico.String("http://x"))),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Deserialize(tt.input)
			if err != nil {
				t.Fatalf("Deserialize() error: %v", err)
			}
			if !calico.Equal(got, tt.want) {
				t.Errorf("Deserialize() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDeserialize_KeepsKeyOrder(t *testing.T) {
	got, err := Deserialize("z: 1\na: 2\nm: 3")
	if err != nil {
		t.Fatalf("Deserialize() error: %v", err)
	}
	if got.String() != `{"z":1,"a":2,"m":3}` {
		t.Errorf("Deserialize() = %s, want source key order", got)
	}
}

func TestDeserialize_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantLine int
		wantMsg  string
	}{
		{"sequence then mapping", "- a\nb: 1", 2, "expected sequence item"},
		{"mapping then sequence", "a: 1\n- b", 2, "expected mapping entry"},
		{"unexpected token", "a: 1\njust text", 2, "unexpected token"},
		{"unexpected token first", "text\nmore", 1, "unexpected token"},
		{"deeper indentation", "a: 1\n    b: 2", 2, "unexpected indentation"},
		{"stray dedent", "  a: 1\nb: 2", 2, "unexpected indentation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Deserialize(tt.input)
			var se *calico.SyntaxError
			if !errors.As(err, &se) {
				t.Fatalf("Deserialize() error = %v, want *SyntaxError", err)
			}
			if se.Line != tt.wantLine {
				t.Errorf("Line = %d, want %d", se.Line, tt.wantLine)
			}
			if !strings.Contains(se.Msg, tt.wantMsg) {
				t.Errorf("Msg = %q, want it to contain %q", se.Msg, tt.wantMsg)
			}
			if !errors.Is(err, calico.ErrSyntax) {
				t.Error("error should unwrap to ErrSyntax")
			}
		})
	}
}

func roundTripFixtures() map[string]calico.Value {
	return map[string]calico.Value{
		"scalars": calico.Object(
			calico.Field("null", calico.Null()),
			calico.Field("yes", calico.Bool(true)),
			calico.Field("int", calico.Number(7)),
			calico.Field("frac", calico.Number(0.25)),
			calico.Field("big", calico.Number(1e21)),
			calico.Field("tiny", calico.Number(1e-7)),
			calico.Field("text", calico.String("plain")),
			calico.Field("numeric", calico.String("3.14")),
			calico.Field("keyword", calico.String("null")),
			calico.Field("special", calico.String(`a: "b", [c] {d} #e 'f'`)),
			calico.Field("control", calico.String("tab\tcr\rlf\n")),
			calico.Field("backslash", calico.String(`C:\path\`)),
			calico.Field("edges", calico.String("  padded  ")),
			calico.Field("dash", calico.String("- not an item")),
			calico.Field("unicode", calico.String("héllo wörld")),
			calico.Field("infinity", calico.String("Infinity")),
		),
		"deep": calico.Object(
			calico.Field("users", calico.Array(
				calico.Object(
					calico.Field("name", calico.String("Ann")),
					calico.Field("roles", calico.Array(calico.String("admin"), calico.String("dev"))),
					calico.Field("profile", calico.Object(
						calico.Field("age", calico.Number(30)),
						calico.Field("address", calico.Object(calico.Field("city", calico.String("Oslo")))),
					)),
				),
				calico.Object(
					calico.Field("meta", calico.Object(calico.Field("x", calico.Number(1)))),
					calico.Field("empty", calico.Object()),
				),
				calico.Object(),
				calico.Array(),
				calico.Array(calico.Array(calico.Number(1)), calico.Object(calico.Field("k", calico.Null()))),
			)),
			calico.Field("", calico.String("empty key")),
			calico.Field("key: with colon", calico.Number(1)),
			calico.Field(" spaced ", calico.Number(2)),
		),
		"top sequence": calico.Array(
			calico.Number(1),
			calico.String("two"),
			calico.Object(calico.Field("three", calico.Array(calico.Number(3)))),
		),
		"top string":  calico.String("just: text"),
		"top number":  calico.Number(-12.5),
		"top null":    calico.Null(),
		"empty map":   calico.Object(),
		"empty array": calico.Array(),
	}
}

func TestRoundTrip(t *testing.T) {
	for name, v := range roundTripFixtures() {
		for indent := 1; indent <= 4; indent++ {
			text, err := Serialize(v, indent)
			if err != nil {
				t.Fatalf("%s: Serialize(indent=%d) error: %v", name, indent, err)
			}
			got, err := Deserialize(text)
			if err != nil {
				t.Fatalf("%s: Deserialize(indent=%d) error: %v\n%s", name, indent, err, text)
			}
			if !calico.Equal(got, v) {
				t.Errorf("%s: round trip (indent=%d) = %v, want %v\n%s", name, indent, got, v, text)
			}
		}
	}
}

func TestIdempotence(t *testing.T) {
	for name, v := range roundTripFixtures() {
		first, err := Serialize(v, 3)
		if err != nil {
			t.Fatalf("%s: Serialize() error: %v", name, err)
		}
		parsed, err := Deserialize(first)
		if err != nil {
			t.Fatalf("%s: Deserialize() error: %v", name, err)
		}
		second, err := Serialize(parsed, 3)
		if err != nil {
			t.Fatalf("%s: Serialize() error: %v", name, err)
		}
		if first != second {
			t.Errorf("%s: not idempotent:\n%s\n---\n%s", name, first, second)
		}
	}
}

func TestJSNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"0", 0, true},
		{"  12  ", 12, true},
		{"-1.5e3", -1500, true},
		{".5", 0.5, true},
		{"5.", 5, true},
		{"+3", 3, true},
		{"0b101", 5, true},
		{"0o17", 15, true},
		{"0xff", 255, true},
		{"Infinity", math.Inf(1), true},
		{"-Infinity", math.Inf(-1), true},
		{"1e400", math.Inf(1), true},
		{"", 0, true},
		{"inf", 0, false},
		{"NaN", 0, false},
		{"1_000", 0, false},
		{"0x", 0, false},
		{"-0x1", 0, false},
		{"1.2.3", 0, false},
		{"12abc", 0, false},
	}
	for _, tt := range tests {
		got, ok := jsNumber(tt.in)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("jsNumber(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

// Documents we write must mean the same thing to a conforming YAML parser.
func TestInterop_WrittenDocumentsParseWithYAMLv3(t *testing.T) {
	v := calico.Object(
		calico.Field("name", calico.String("calico")),
		calico.Field("version", calico.Number(2)),
		calico.Field("ratio", calico.Number(0.75)),
		calico.Field("enabled", calico.Bool(true)),
		calico.Field("nothing", calico.Null()),
		calico.Field("quoted", calico.String(`a "quoted": value`)),
		calico.Field("numeric", calico.String("123")),
		calico.Field("items", calico.Array(
			calico.Object(calico.Field("id", calico.Number(1)), calico.Field("tags", calico.Array(calico.String("x"), calico.String("y")))),
			calico.Object(calico.Field("id", calico.Number(2)), calico.Field("tags", calico.Array())),
			calico.Array(calico.Number(1), calico.Number(2)),
		)),
		calico.Field("empty", calico.Object()),
	)

	for indent := 1; indent <= 4; indent++ {
		text, err := Serialize(v, indent)
		if err != nil {
			t.Fatalf("Serialize() error: %v", err)
		}

		var decoded any
		if err := yamlv3.Unmarshal([]byte(text), &decoded); err != nil {
			t.Fatalf("yaml.v3 rejected indent=%d output: %v\n%s", indent, err, text)
		}
		got, err := calico.ValueOf(decoded)
		if err != nil {
			t.Fatalf("ValueOf() error: %v", err)
		}
		if !calico.Equal(got, v) {
			t.Errorf("yaml.v3 read indent=%d output as %v, want %v\n%s", indent, got, v, text)
		}
	}
}

func TestInterop_ReadsYAMLv3Output(t *testing.T) {
	doc := map[string]any{
		"name": "calico",
		"tags": []any{"a", "b"},
		"items": []any{
			map[string]any{"id": 1, "ok": true},
			map[string]any{"id": 2, "ok": false},
		},
		"nested": map[string]any{"x": 1.5, "list": []any{[]any{"deep"}}},
	}

	for _, indent := range []int{2, 4} {
		var b strings.Builder
		enc := yamlv3.NewEncoder(&b)
		enc.SetIndent(indent)
		if err := enc.Encode(doc); err != nil {
			t.Fatalf("yaml.v3 Encode() error: %v", err)
		}
		_ = enc.Close()

		got, err := Deserialize(b.String())
		if err != nil {
			t.Fatalf("Deserialize() error: %v\n%s", err, b.String())
		}
		want, _ := calico.ValueOf(doc)
		if !calico.Equal(got, want) {
			t.Errorf("Deserialize() = %v, want %v\n%s", got, want, b.String())
		}
	}
}
