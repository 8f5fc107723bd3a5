// Package testing provides fixtures and assertions shared by calico's
// integration tests and benchmarks.
package testing

import (
	"strconv"
	"testing"

	"github.com/zoobzio/calico"
	"github.com/zoobzio/calico/json"
)

// Users returns a small table of users with nested objects, arrays, nulls
// and numbers, suitable for every format.
func Users() calico.Value {
	return calico.Array(
		calico.Object(
			calico.Field("id", calico.Number(1)),
			calico.Field("name", calico.String("Alice")),
			calico.Field("email", calico.String("alice@example.com")),
			calico.Field("active", calico.Bool(true)),
			calico.Field("score", calico.Number(98.5)),
			calico.Field("tags", calico.Array(calico.String("admin"), calico.String("ops"))),
			calico.Field("address", calico.Object(
				calico.Field("city", calico.String("Lisbon")),
				calico.Field("zip", calico.String("1000-001")),
			)),
		),
		calico.Object(
			calico.Field("id", calico.Number(2)),
			calico.Field("name", calico.String("Bob")),
			calico.Field("email", calico.String("bob@example.com")),
			calico.Field("active", calico.Bool(false)),
			calico.Field("score", calico.Number(-3)),
			calico.Field("tags", calico.Array()),
			calico.Field("address", calico.Null()),
		),
	)
}

// Rows returns n flat rows of string fields. Flat string rows survive every
// format unchanged, CSV included.
func Rows(n int) calico.Value {
	seq := calico.NewSequence()
	for i := 0; i < n; i++ {
		id := strconv.Itoa(i)
		seq.Append(calico.Object(
			calico.Field("id", calico.String(id)),
			calico.Field("name", calico.String("user-"+id)),
			calico.Field("note", calico.String("line, with \"quotes\"")),
		))
	}
	return seq.Value()
}

// Cyclic returns a mapping whose "self" entry refers back to it.
func Cyclic() calico.Value {
	m := calico.NewMapping()
	m.Set("name", calico.String("loop"))
	m.Set("self", m.Value())
	return m.Value()
}

// SanitizedUser carries every export tag the converter understands.
type SanitizedUser struct {
	ID       string `json:"id"`
	Email    string `json:"email" export.mask:"email"`
	Password string `json:"password" export.redact:"***"`
	SSN      string `json:"ssn" export.mask:"ssn"`
	Token    string `json:"token" export.hash:"sha256"`
	Note     string `json:"note" export.redact:"[REDACTED]"`
}

// NewSanitizedUser returns a SanitizedUser with realistic field values.
func NewSanitizedUser() SanitizedUser {
	return SanitizedUser{
		ID:       "123",
		Email:    "alice@example.com",
		Password: "supersecret",
		SSN:      "123-45-6789",
		Token:    "tok_live_42",
		Note:     "internal note",
	}
}

// AssertEqual fails tb when got and want differ, printing both as JSON.
func AssertEqual(tb testing.TB, want, got calico.Value) {
	tb.Helper()
	if calico.Equal(want, got) {
		return
	}
	w, _ := json.Serialize(want, false)
	g, _ := json.Serialize(got, false)
	tb.Fatalf("values differ\nwant: %s\n got: %s", w, g)
}
