package calico

import (
	"fmt"
	"math"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindSequence
	KindMapping
)

var kindNames = [...]string{
	KindNull:     "null",
	KindBool:     "bool",
	KindNumber:   "number",
	KindString:   "string",
	KindSequence: "sequence",
	KindMapping:  "mapping",
}

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// unknownKind is the panic payload for a Kind outside the declared set.
func unknownKind(k Kind) string {
	return fmt.Sprintf("calico: unknown value kind %s", k)
}

// Value is the tagged union every codec converts to and from.
// The zero Value is Null.
//
// Sequences and mappings are held by pointer, so two Values can share the
// same container. Sharing is legal; a container reachable from itself is not
// and is rejected by CheckCycles before serialization.
type Value struct {
	kind Kind
	b    bool
	num  float64
	str  string
	seq  *Sequence
	obj  *Mapping
}

// Null returns the null Value.
func Null() Value { return Value{} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number returns a numeric Value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// String returns a string Value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Array returns a sequence Value holding items in order.
func Array(items ...Value) Value { return NewSequence(items...).Value() }

// Object returns a mapping Value built from pairs in order.
// A repeated key overwrites the earlier value and keeps its position.
func Object(pairs ...Pair) Value {
	m := NewMapping()
	for _, p := range pairs {
		m.Set(p.Key, p.Value)
	}
	return m.Value()
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsPrimitive reports whether v is null, a bool, a number or a string.
func (v Value) IsPrimitive() bool {
	switch v.kind {
	case KindNull, KindBool, KindNumber, KindString:
		return true
	case KindSequence, KindMapping:
		return false
	default:
		panic(unknownKind(v.kind))
	}
}

// IsContainer reports whether v is a sequence or a mapping.
func (v Value) IsContainer() bool { return !v.IsPrimitive() }

// AsBool returns the boolean held by v.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsNumber returns the number held by v.
func (v Value) AsNumber() (float64, bool) { return v.num, v.kind == KindNumber }

// AsString returns the string held by v.
func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

// AsSequence returns the sequence held by v.
func (v Value) AsSequence() (*Sequence, bool) { return v.seq, v.kind == KindSequence }

// AsMapping returns the mapping held by v.
func (v Value) AsMapping() (*Mapping, bool) { return v.obj, v.kind == KindMapping }

// Len returns the number of elements of a container, or 0 for primitives.
func (v Value) Len() int {
	switch v.kind {
	case KindSequence:
		return v.seq.Len()
	case KindMapping:
		return v.obj.Len()
	default:
		return 0
	}
}

// String returns the display text of v: scalars as plain text and
// containers as compact JSON.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindNumber:
		return FormatNumber(v.num)
	case KindString:
		return v.str
	case KindSequence, KindMapping:
		data, err := v.MarshalJSON()
		if err != nil {
			return fmt.Sprintf("!(%v)", err)
		}
		return string(data)
	default:
		panic(unknownKind(v.kind))
	}
}

// Equal reports whether a and b hold structurally equal data.
// Mapping comparison ignores key order; NaN equals NaN.
// Both values must be acyclic.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.num == b.num || (math.IsNaN(a.num) && math.IsNaN(b.num))
	case KindString:
		return a.str == b.str
	case KindSequence:
		if a.seq.Len() != b.seq.Len() {
			return false
		}
		for i := range a.seq.items {
			if !Equal(a.seq.items[i], b.seq.items[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		if a.obj.Len() != b.obj.Len() {
			return false
		}
		for i, k := range a.obj.keys {
			other, ok := b.obj.Get(k)
			if !ok || !Equal(a.obj.vals[i], other) {
				return false
			}
		}
		return true
	default:
		panic(unknownKind(a.kind))
	}
}

// Sequence is an ordered list of Values.
type Sequence struct {
	items []Value
}

// NewSequence returns a sequence holding items.
func NewSequence(items ...Value) *Sequence {
	s := &Sequence{items: make([]Value, 0, len(items))}
	s.items = append(s.items, items...)
	return s
}

// Value wraps s as a Value. A nil sequence becomes an empty one.
func (s *Sequence) Value() Value {
	if s == nil {
		s = NewSequence()
	}
	return Value{kind: KindSequence, seq: s}
}

// Len returns the number of items.
func (s *Sequence) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// At returns the item at index i.
func (s *Sequence) At(i int) Value { return s.items[i] }

// Set replaces the item at index i.
func (s *Sequence) Set(i int, v Value) { s.items[i] = v }

// Append adds items to the end of the sequence.
func (s *Sequence) Append(items ...Value) { s.items = append(s.items, items...) }

// Items returns the backing slice. Callers must not modify it.
func (s *Sequence) Items() []Value {
	if s == nil {
		return nil
	}
	return s.items
}

// Pair is a single mapping entry.
type Pair struct {
	Key   string
	Value Value
}

// Field returns a Pair, for use with Object.
func Field(key string, v Value) Pair { return Pair{Key: key, Value: v} }

// Mapping is an insertion-ordered set of string keys and their Values.
// The zero value is an empty mapping ready to use.
type Mapping struct {
	keys  []string
	vals  []Value
	index map[string]int
}

// NewMapping returns an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{index: make(map[string]int)}
}

// Value wraps m as a Value. A nil mapping becomes an empty one.
func (m *Mapping) Value() Value {
	if m == nil {
		m = NewMapping()
	}
	return Value{kind: KindMapping, obj: m}
}

// Len returns the number of entries.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Set stores v under key. An existing key keeps its position.
func (m *Mapping) Set(key string, v Value) {
	if m.index == nil {
		m.index = make(map[string]int)
	}
	if i, ok := m.index[key]; ok {
		m.vals[i] = v
		return
	}
	m.index[key] = len(m.keys)
	m.keys = append(m.keys, key)
	m.vals = append(m.vals, v)
}

// Get returns the value stored under key.
func (m *Mapping) Get(key string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	i, ok := m.index[key]
	if !ok {
		return Value{}, false
	}
	return m.vals[i], true
}

// Has reports whether key is present.
func (m *Mapping) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Keys returns the keys in insertion order.
func (m *Mapping) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Entries returns the entries in insertion order.
func (m *Mapping) Entries() []Pair {
	if m == nil {
		return nil
	}
	out := make([]Pair, len(m.keys))
	for i, k := range m.keys {
		out[i] = Pair{Key: k, Value: m.vals[i]}
	}
	return out
}
