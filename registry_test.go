package calico_test

import (
	"errors"
	"testing"

	"github.com/zoobzio/calico"
)

type textEncoder struct{ tag string }

func (e textEncoder) ContentType() string { return "text/plain" }

func (e textEncoder) Marshal(v calico.Value) ([]byte, error) {
	return []byte(e.tag + ":" + v.String()), nil
}

type textCodec struct{ textEncoder }

func (textCodec) Unmarshal(data []byte) (calico.Value, error) {
	return calico.String(string(data)), nil
}

func TestRegister_Lookup(t *testing.T) {
	const f = calico.Format("test-lookup")
	calico.Register(f, textCodec{textEncoder{tag: "a"}})

	enc, err := calico.Lookup(f)
	if err != nil {
		t.Fatalf("Lookup() error: %v", err)
	}
	out, _ := enc.Marshal(calico.Number(1))
	if string(out) != "a:1" {
		t.Errorf("Marshal() = %q, want %q", out, "a:1")
	}

	dec, err := calico.LookupDecoder(f)
	if err != nil {
		t.Fatalf("LookupDecoder() error: %v", err)
	}
	v, _ := dec.Unmarshal([]byte("x"))
	if s, _ := v.AsString(); s != "x" {
		t.Errorf("Unmarshal() = %v, want x", v)
	}
}

func TestLookup_Unregistered(t *testing.T) {
	_, err := calico.Lookup("nope")
	if !errors.Is(err, calico.ErrUnsupportedFormat) {
		t.Errorf("Lookup() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestLookupDecoder_WriteOnly(t *testing.T) {
	const f = calico.Format("test-write-only")
	calico.Register(f, textEncoder{tag: "w"})

	if _, err := calico.LookupDecoder(f); !errors.Is(err, calico.ErrUnsupportedFormat) {
		t.Errorf("LookupDecoder() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestReset(t *testing.T) {
	const f = calico.Format("test-reset")
	calico.Register(f, textEncoder{tag: "first"})
	calico.Register(f, textEncoder{tag: "second"})

	calico.Reset()

	enc, err := calico.Lookup(f)
	if err != nil {
		t.Fatalf("Lookup() error: %v", err)
	}
	out, _ := enc.Marshal(calico.Null())
	if string(out) != "first:null" {
		t.Errorf("Reset() should restore the first registration, got %q", out)
	}
}

func TestFormats_Sorted(t *testing.T) {
	calico.Register("test-zz", textEncoder{})
	calico.Register("test-aa", textEncoder{})

	formats := calico.Formats()
	for i := 1; i < len(formats); i++ {
		if formats[i-1] > formats[i] {
			t.Fatalf("Formats() not sorted: %v", formats)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want calico.Format
	}{
		{"json", calico.FormatJSON},
		{"YML", calico.FormatYAML},
		{" markdown ", calico.FormatMarkdown},
		{"mpk", calico.FormatMsgpack},
		{"bson", calico.FormatBSON},
	}
	for _, tt := range tests {
		got, err := calico.ParseFormat(tt.in)
		if err != nil {
			t.Errorf("ParseFormat(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if _, err := calico.ParseFormat("xml"); !errors.Is(err, calico.ErrUnsupportedFormat) {
		t.Errorf("ParseFormat(xml) error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want calico.Format
		ok   bool
	}{
		{"data/users.csv", calico.FormatCSV, true},
		{"config.yml", calico.FormatYAML, true},
		{"README.md", calico.FormatMarkdown, true},
		{"blob.bson", calico.FormatBSON, true},
		{"notes.txt", "", false},
		{"Makefile", "", false},
	}
	for _, tt := range tests {
		got, ok := calico.FormatFromPath(tt.path)
		if got != tt.want || ok != tt.ok {
			t.Errorf("FormatFromPath(%q) = %q, %v; want %q, %v", tt.path, got, ok, tt.want, tt.ok)
		}
	}
}

func TestIsValidFormat(t *testing.T) {
	if !calico.IsValidFormat(calico.FormatYAML) {
		t.Error("IsValidFormat(yaml) = false, want true")
	}
	if calico.IsValidFormat("yml") {
		t.Error("IsValidFormat(yml) = true, want false for an alias")
	}
}
