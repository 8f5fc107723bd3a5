package csv

import (
	"errors"
	"testing"

	"github.com/zoobzio/calico"
)

func TestNew(t *testing.T) {
	c := New()
	if c.ContentType() != "text/csv" {
		t.Errorf("ContentType() = %q, want %q", c.ContentType(), "text/csv")
	}
}

func TestRegistered(t *testing.T) {
	dec, err := calico.LookupDecoder(calico.FormatCSV)
	if err != nil {
		t.Fatalf("LookupDecoder() error: %v", err)
	}
	if dec == nil {
		t.Fatal("LookupDecoder() returned nil")
	}
}

func TestSerialize(t *testing.T) {
	tests := []struct {
		name string
		rows calico.Value
		opts []Option
		want string
	}{
		{
			name: "empty",
			rows: calico.Array(),
			want: "",
		},
		{
			name: "quote all by default",
			rows: calico.Array(calico.Object(
				calico.Field("name", calico.String("John")),
				calico.Field("age", calico.Number(30)),
			)),
			want: "\"name\",\"age\"\n\"John\",\"30\"",
		},
		{
			name: "header union",
			rows: calico.Array(
				calico.Object(calico.Field("a", calico.Number(1))),
				calico.Object(calico.Field("b", calico.Number(2))),
			),
			opts: []Option{WithQuoteAll(false)},
			want: "a,b\n1,\n,2",
		},
		{
			name: "null is empty even when quoting",
			rows: calico.Array(calico.Object(
				calico.Field("a", calico.Null()),
				calico.Field("b", calico.Bool(true)),
			)),
			want: "\"a\",\"b\"\n,\"true\"",
		},
		{
			name: "conditional quoting",
			rows: calico.Array(calico.Object(
				calico.Field("text", calico.String(`say "hi", then`+"\nleave")),
				calico.Field("plain", calico.String("ok")),
			)),
			opts: []Option{WithQuoteAll(false)},
			want: "text,plain\n\"say \"\"hi\"\", then\nleave\",ok",
		},
		{
			name: "primitives",
			rows: calico.Array(calico.String("a"), calico.Number(1.5), calico.Null()),
			opts: []Option{WithQuoteAll(false)},
			want: "a\n1.5\n\"\"",
		},
		{
			name: "empty single-cell row is quoted",
			rows: calico.Array(
				calico.Object(calico.Field("a", calico.String("x"))),
				calico.Object(calico.Field("a", calico.String(""))),
			),
			opts: []Option{WithQuoteAll(false)},
			want: "a\nx\n\"\"",
		},
		{
			name: "raw sequence rows",
			rows: calico.Array(
				calico.Array(calico.String("x"), calico.String("y")),
				calico.Array(calico.Number(1)),
			),
			opts: []Option{WithQuoteAll(false)},
			want: "x,y\n1",
		},
		{
			name: "no headers",
			rows: calico.Array(calico.Object(calico.Field("a", calico.Number(1)))),
			opts: []Option{WithHeaders(false), WithQuoteAll(false)},
			want: "1",
		},
		{
			name: "semicolon delimiter",
			rows: calico.Array(calico.Object(
				calico.Field("a", calico.String("1;2")),
				calico.Field("b", calico.String("3,4")),
			)),
			opts: []Option{WithDelimiter(';'), WithQuoteAll(false)},
			want: "a;b\n\"1;2\";3,4",
		},
		{
			name: "nested container as JSON",
			rows: calico.Array(calico.Object(
				calico.Field("tags", calico.Array(calico.String("x"))),
			)),
			opts: []Option{WithQuoteAll(false)},
			want: "tags\n\"[\"\"x\"\"]\"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Serialize(tt.rows, tt.opts...)
			if err != nil {
				t.Fatalf("Serialize() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Serialize() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSerialize_Errors(t *testing.T) {
	self := calico.NewMapping()
	self.Set("self", self.Value())

	tests := []struct {
		name    string
		rows    calico.Value
		opts    []Option
		wantErr error
	}{
		{"not a sequence", calico.Object(), nil, calico.ErrTypeMismatch},
		{"mixed rows", calico.Array(calico.Object(calico.Field("a", calico.Number(1))), calico.Number(2)), nil, calico.ErrTypeMismatch},
		{"cycle", calico.Array(self.Value()), nil, calico.ErrCircularReference},
		{"quote delimiter", calico.Array(calico.Number(1)), []Option{WithDelimiter('"')}, calico.ErrInvalidArgument},
		{"newline delimiter", calico.Array(calico.Number(1)), []Option{WithDelimiter('\n')}, calico.ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Serialize(tt.rows, tt.opts...)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Serialize() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSerialize_MixedRowIndex(t *testing.T) {
	rows := calico.Array(calico.Number(1), calico.Number(2), calico.Object())
	_, err := Serialize(rows)

	var tm *calico.TypeMismatchError
	if !errors.As(err, &tm) {
		t.Fatalf("Serialize() error = %v, want *TypeMismatchError", err)
	}
	if tm.Index != 2 {
		t.Errorf("Index = %d, want 2", tm.Index)
	}
}

func TestDeserialize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		opts  []Option
		want  calico.Value
	}{
		{
			name:  "blank",
			input: "  \n ",
			want:  calico.Array(),
		},
		{
			name:  "quoted header and data",
			input: "\"name\",\"age\"\n\"John\",\"30\"",
			want: calico.Array(calico.Object(
				calico.Field("name", calico.String("John")),
				calico.Field("age", calico.String("30")),
			)),
		},
		{
			name:  "embedded newline, delimiter and quotes",
			input: "a,b\r\n\"x\ny\",\"1,\"\"2\"\"\"\r\n",
			want: calico.Array(calico.Object(
				calico.Field("a", calico.String("x\ny")),
				calico.Field("b", calico.String(`1,"2"`)),
			)),
		},
		{
			name:  "lone CR ends a row",
			input: "a\rb\rc",
			want: calico.Array(
				calico.Object(calico.Field("a", calico.String("b"))),
				calico.Object(calico.Field("a", calico.String("c"))),
			),
		},
		{
			name:  "ragged rows are padded and trimmed",
			input: "a,b\n1\n1,2,3",
			want: calico.Array(
				calico.Object(calico.Field("a", calico.String("1")), calico.Field("b", calico.String(""))),
				calico.Object(calico.Field("a", calico.String("1")), calico.Field("b", calico.String("2"))),
			),
		},
		{
			name:  "trailing delimiter",
			input: "a,b\n1,",
			want: calico.Array(
				calico.Object(calico.Field("a", calico.String("1")), calico.Field("b", calico.String(""))),
			),
		},
		{
			name:  "final empty quoted field is a row",
			input: "a\n\"x\"\n\"\"",
			want: calico.Array(
				calico.Object(calico.Field("a", calico.String("x"))),
				calico.Object(calico.Field("a", calico.String(""))),
			),
		},
		{
			name:  "without headers",
			input: "1,2\n3",
			opts:  []Option{WithHeaders(false)},
			want: calico.Array(
				calico.Array(calico.String("1"), calico.String("2")),
				calico.Array(calico.String("3")),
			),
		},
		{
			name:  "tab delimiter",
			input: "a\tb\nx\ty",
			opts:  []Option{WithDelimiter('\t')},
			want: calico.Array(calico.Object(
				calico.Field("a", calico.String("x")),
				calico.Field("b", calico.String("y")),
			)),
		},
		{
			name:  "header only",
			input: "a,b\n",
			want:  calico.Array(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Deserialize(tt.input, tt.opts...)
			if err != nil {
				t.Fatalf("Deserialize() error: %v", err)
			}
			if !calico.Equal(got, tt.want) {
				t.Errorf("Deserialize() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDeserialize_UnterminatedQuote(t *testing.T) {
	_, err := Deserialize("a\n1\n\"open,2")

	var se *calico.SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("Deserialize() error = %v, want *SyntaxError", err)
	}
	if se.Line != 3 {
		t.Errorf("Line = %d, want 3", se.Line)
	}
}

func TestDeserialize_StrictColumns(t *testing.T) {
	_, err := Deserialize("a,b\n1,2\n\"x\ny\",2,3", WithStrictColumns(true))

	var se *calico.SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("Deserialize() error = %v, want *SyntaxError", err)
	}
	want := "invalid CSV at line 3: line 3 has mismatched columns: expected 2, got 3"
	if se.Error() != want {
		t.Errorf("Error() = %q, want %q", se.Error(), want)
	}
}

func TestRoundTrip(t *testing.T) {
	rows := calico.Array(
		calico.Object(
			calico.Field("id", calico.String("1")),
			calico.Field("note", calico.String("comma, \"quote\"\nnewline")),
		),
		calico.Object(
			calico.Field("id", calico.String("2")),
			calico.Field("note", calico.String("")),
		),
	)
	single := calico.Array(
		calico.Object(calico.Field("a", calico.String("x,y"))),
		calico.Object(calico.Field("a", calico.String(`"`))),
		calico.Object(calico.Field("a", calico.String(""))),
	)

	for _, quoteAll := range []bool{true, false} {
		text, err := Serialize(single, WithQuoteAll(quoteAll))
		if err != nil {
			t.Fatalf("Serialize() error: %v", err)
		}
		got, err := Deserialize(text)
		if err != nil {
			t.Fatalf("Deserialize() error: %v", err)
		}
		if !calico.Equal(got, single) {
			t.Errorf("single-column round trip (quoteAll=%v) = %v, want %v", quoteAll, got, single)
		}
	}

	for _, quoteAll := range []bool{true, false} {
		text, err := Serialize(rows, WithQuoteAll(quoteAll))
		if err != nil {
			t.Fatalf("Serialize() error: %v", err)
		}
		got, err := Deserialize(text)
		if err != nil {
			t.Fatalf("Deserialize() error: %v", err)
		}
		if !calico.Equal(got, rows) {
			t.Errorf("round trip (quoteAll=%v) = %v, want %v", quoteAll, got, rows)
		}
	}
}

func TestCodec_MarshalUnmarshal(t *testing.T) {
	c := New(WithDelimiter('|'), WithQuoteAll(false))
	rows := calico.Array(calico.Object(calico.Field("k", calico.String("v"))))

	data, err := c.Marshal(rows)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if string(data) != "k\nv" {
		t.Errorf("Marshal() = %q, want %q", data, "k\nv")
	}

	got, err := c.Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if !calico.Equal(got, rows) {
		t.Errorf("Unmarshal() = %v, want %v", got, rows)
	}
}
