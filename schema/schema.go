// Package schema validates calico Values against a small JSON-Schema
// subset: type, required, properties, items, minimum/maximum,
// minLength/maxLength, pattern and the email format.
//
// Validation never stops early. Every violation is collected with the path
// where it occurred, rooted at "root":
//
//	root.users[3].email: invalid email
package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sync"

	"github.com/zoobzio/calico"
)

// Type names accepted by Schema.Type.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeObject  = "object"
)

// FormatEmail is the only recognized Schema.Format.
const FormatEmail = "email"

// Schema describes the expected shape of a value. Zero fields impose no
// constraint.
type Schema struct {
	Type       string             `json:"type,omitempty"`
	Required   []string           `json:"required,omitempty"`
	Properties map[string]*Schema `json:"properties,omitempty"`
	Items      *Schema            `json:"items,omitempty"`
	Minimum    *float64           `json:"minimum,omitempty"`
	Maximum    *float64           `json:"maximum,omitempty"`
	MinLength  *int               `json:"minLength,omitempty"`
	MaxLength  *int               `json:"maxLength,omitempty"`
	Pattern    string             `json:"pattern,omitempty"`
	Format     string             `json:"format,omitempty"`
}

// Violation is one failed constraint.
type Violation struct {
	Path    string       `json:"path"`
	Message string       `json:"message"`
	Value   calico.Value `json:"value"`
}

func (v Violation) String() string {
	return v.Path + ": " + v.Message
}

// Result is the outcome of Validate.
type Result struct {
	Valid  bool        `json:"valid"`
	Errors []Violation `json:"errors,omitempty"`
}

// Parse decodes a schema from JSON and checks that its types and patterns
// are usable.
func Parse(data []byte) (*Schema, error) {
	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: schema: %v", calico.ErrInvalidArgument, err)
	}
	if err := s.Check(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load reads and parses a schema file.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	return Parse(data)
}

// Check reports the first unknown type name or uncompilable pattern.
func (s *Schema) Check() error {
	return s.check("root")
}

func (s *Schema) check(path string) error {
	if s == nil {
		return nil
	}
	switch s.Type {
	case "", TypeString, TypeNumber, TypeBoolean, TypeArray, TypeObject:
	default:
		return fmt.Errorf("%w: schema %s: unknown type %q", calico.ErrInvalidArgument, path, s.Type)
	}
	if s.Pattern != "" {
		if _, err := compile(s.Pattern); err != nil {
			return fmt.Errorf("%w: schema %s: %v", calico.ErrInvalidArgument, path, err)
		}
	}
	for _, k := range sortedKeys(s.Properties) {
		if err := s.Properties[k].check(path + "." + k); err != nil {
			return err
		}
	}
	return s.Items.check(path + "[]")
}

var patterns sync.Map // string -> *regexp.Regexp

func compile(pattern string) (*regexp.Regexp, error) {
	if re, ok := patterns.Load(pattern); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	patterns.Store(pattern, re)
	return re, nil
}
