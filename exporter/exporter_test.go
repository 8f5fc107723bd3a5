package exporter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/calico"
	"github.com/zoobzio/calico/csv"
	"github.com/zoobzio/calico/markdown"
)

func users() calico.Value {
	return calico.Array(
		calico.Object(calico.Field("name", calico.String("John")), calico.Field("age", calico.Number(30))),
		calico.Object(calico.Field("name", calico.String("Jane")), calico.Field("age", calico.Number(25))),
	)
}

func cyclic() calico.Value {
	m := calico.NewMapping()
	m.Set("self", m.Value())
	return m.Value()
}

func TestExporter_JSON(t *testing.T) {
	ctx := context.Background()
	e := New()
	doc := calico.Object(calico.Field("a", calico.Number(1)))

	out, err := e.ToJSON(ctx, doc, true)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}", out)

	compact, err := e.ToJSON(ctx, doc, false)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, compact)

	v, err := e.FromJSON(ctx, out)
	require.NoError(t, err)
	assert.True(t, calico.Equal(doc, v))
}

func TestExporter_CSV(t *testing.T) {
	ctx := context.Background()
	e := New()

	out, err := e.ToCSV(ctx, users())
	require.NoError(t, err)
	assert.Equal(t, "\"name\",\"age\"\n\"John\",\"30\"\n\"Jane\",\"25\"", out)

	rows, err := e.FromCSV(ctx, out)
	require.NoError(t, err)
	want := calico.Array(
		calico.Object(calico.Field("name", calico.String("John")), calico.Field("age", calico.String("30"))),
		calico.Object(calico.Field("name", calico.String("Jane")), calico.Field("age", calico.String("25"))),
	)
	assert.True(t, calico.Equal(want, rows), "FromCSV() = %s", rows)

	semi, err := e.ToCSV(ctx, users(), csv.WithDelimiter(';'), csv.WithQuoteAll(false))
	require.NoError(t, err)
	assert.Equal(t, "name;age\nJohn;30\nJane;25", semi)
}

func TestExporter_YAML(t *testing.T) {
	ctx := context.Background()
	e := New()
	doc := calico.Object(calico.Field("nested", calico.Object(calico.Field("key", calico.String("value")))))

	out, err := e.ToYAML(ctx, doc, 4)
	require.NoError(t, err)
	assert.Equal(t, "nested:\n    key: value", out)

	v, err := e.FromYAML(ctx, out)
	require.NoError(t, err)
	assert.True(t, calico.Equal(doc, v))

	_, err = e.ToYAML(ctx, doc, 0)
	assert.ErrorIs(t, err, calico.ErrInvalidArgument)
}

func TestExporter_Markdown(t *testing.T) {
	out, err := New().ToMarkdown(context.Background(), users(), markdown.Options{Title: "Users"})
	require.NoError(t, err)
	assert.Equal(t, "# Users\n\n| name | age |\n| --- | --- |\n| John | 30 |\n| Jane | 25 |", out)
}

func TestExporter_CircularReference(t *testing.T) {
	ctx := context.Background()
	e := New()

	calls := map[string]func() error{
		"json": func() error { _, err := e.ToJSON(ctx, cyclic(), true); return err },
		"yaml": func() error { _, err := e.ToYAML(ctx, cyclic(), 2); return err },
		"md":   func() error { _, err := e.ToMarkdown(ctx, cyclic(), markdown.Options{}); return err },
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			var cre *calico.CircularReferenceError
			require.True(t, errors.As(call(), &cre))
			assert.Equal(t, "root.self", cre.Path)
		})
	}
}

func TestExporter_EncodeDecode(t *testing.T) {
	ctx := context.Background()
	e := New()
	doc := calico.Object(
		calico.Field("id", calico.Number(7)),
		calico.Field("tags", calico.Array(calico.String("a"), calico.String("b"))),
	)

	for _, f := range []calico.Format{calico.FormatJSON, calico.FormatYAML, calico.FormatMsgpack, calico.FormatBSON} {
		t.Run(string(f), func(t *testing.T) {
			data, err := e.Encode(ctx, f, doc)
			require.NoError(t, err)

			v, err := e.Decode(ctx, f, data)
			require.NoError(t, err)
			assert.True(t, calico.Equal(doc, v), "Decode() = %s", v)
		})
	}
}

func TestExporter_UnsupportedFormat(t *testing.T) {
	ctx := context.Background()
	e := New()

	_, err := e.Encode(ctx, calico.Format("xml"), calico.Null())
	assert.ErrorIs(t, err, calico.ErrUnsupportedFormat)

	_, err = e.Decode(ctx, calico.FormatMarkdown, []byte("# x"))
	assert.ErrorIs(t, err, calico.ErrUnsupportedFormat)
}
