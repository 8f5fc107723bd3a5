// Package calico converts structured data between JSON, CSV, YAML and
// Markdown through a single in-memory model.
//
// # Values
//
// Every format reads into and writes from Value, a tagged union of null,
// boolean, number, string, Sequence and Mapping. Mappings keep insertion
// order, so a document round-trips with its keys where they were.
//
//	doc := calico.Object(
//	    calico.Field("name", calico.String("Alice")),
//	    calico.Field("tags", calico.Array(calico.String("admin"))),
//	)
//
// Sequences and Mappings are reference types. A Value may share a container
// between siblings but may not contain itself; CheckCycles reports the path
// where a container first refers back to one of its ancestors:
//
//	circular reference detected at path 'root.items[2].parent' - object references itself
//
// # Codecs
//
// Each format lives in its own package and registers a default codec:
//
//   - csv - tabular text with configurable delimiter and quoting (text/csv)
//   - yaml - block-style YAML subset (application/yaml)
//   - json - order-preserving JSON (application/json)
//   - markdown - tables and lists, write only (text/markdown)
//   - msgpack - MessagePack (application/msgpack)
//   - bson - BSON documents (application/bson)
//
// Import a codec package for its side effect to make it reachable through
// Lookup and LookupDecoder:
//
//	import _ "github.com/zoobzio/calico/yaml"
//
//	enc, _ := calico.Lookup(calico.FormatYAML)
//	out, _ := enc.Marshal(doc)
//
// # Native Go Values
//
// ValueOf converts Go values to Values. Struct fields are named by their json
// tag. String fields may also carry export tags that rewrite them on the way
// out:
//
//	type User struct {
//	    Email    string `json:"email" export.mask:"email"`
//	    Password string `json:"password" export.redact:"***"`
//	    APIKey   string `json:"api_key" export.hash:"sha256"`
//	}
//
// Builtin maskers: email, ssn, phone, card, ip, name.
// Builtin hashers: sha256, sha512, argon2, bcrypt.
// Register others with Converter.SetMasker and Converter.SetHasher.
//
// Register scans a struct type with sentinel ahead of time, and Convert
// does so on first use; their field plans come from the scanned metadata.
// Unregistered types are scanned reflectively on first conversion:
//
//	if err := calico.Register[User](); err != nil { ... } // bad tags fail here
//	v, err := calico.Convert(user)
//
// Types can skip reflection entirely by implementing Valuer.
//
// # Errors
//
// Failures wrap the sentinel errors in this package (ErrSyntax,
// ErrTypeMismatch, ErrCircularReference and friends), so callers can use
// errors.Is regardless of the codec involved.
package calico
