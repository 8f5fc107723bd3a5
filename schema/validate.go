package schema

import (
	"regexp"
	"sort"
	"strconv"
	"unicode/utf8"

	"github.com/zoobzio/calico"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Validate checks v against s. A nil schema accepts everything.
func Validate(v calico.Value, s *Schema) Result {
	var errs []Violation
	walk(v, s, "root", &errs)
	return Result{Valid: len(errs) == 0, Errors: errs}
}

func walk(v calico.Value, s *Schema, path string, errs *[]Violation) {
	if s == nil {
		return
	}
	report := func(msg string, val calico.Value) {
		*errs = append(*errs, Violation{Path: path, Message: msg, Value: val})
	}

	if s.Type != "" && !hasType(v, s.Type) {
		report("type: "+s.Type+", got "+typeName(v), v)
	}

	if m, ok := v.AsMapping(); ok {
		for _, f := range s.Required {
			if !m.Has(f) {
				*errs = append(*errs, Violation{Path: path + "." + f, Message: "required", Value: calico.Null()})
			}
		}
		for _, k := range sortedKeys(s.Properties) {
			if child, ok := m.Get(k); ok {
				walk(child, s.Properties[k], path+"."+k, errs)
			}
		}
	}

	if seq, ok := v.AsSequence(); ok && s.Items != nil {
		for i, item := range seq.Items() {
			walk(item, s.Items, path+"["+strconv.Itoa(i)+"]", errs)
		}
	}

	if n, ok := v.AsNumber(); ok {
		if s.Minimum != nil && n < *s.Minimum {
			report(">= "+calico.FormatNumber(*s.Minimum), v)
		}
		if s.Maximum != nil && n > *s.Maximum {
			report("<= "+calico.FormatNumber(*s.Maximum), v)
		}
	}

	if str, ok := v.AsString(); ok {
		n := utf8.RuneCountInString(str)
		if s.MinLength != nil && n < *s.MinLength {
			report("minLen >= "+strconv.Itoa(*s.MinLength), v)
		}
		if s.MaxLength != nil && n > *s.MaxLength {
			report("maxLen <= "+strconv.Itoa(*s.MaxLength), v)
		}
		if s.Pattern != "" {
			re, err := compile(s.Pattern)
			switch {
			case err != nil:
				report("invalid pattern: "+s.Pattern, v)
			case !re.MatchString(str):
				report("pattern: "+s.Pattern, v)
			}
		}
		if s.Format == FormatEmail && !emailPattern.MatchString(str) {
			report("invalid email", v)
		}
	}
}

func hasType(v calico.Value, t string) bool {
	switch t {
	case TypeString:
		return v.Kind() == calico.KindString
	case TypeNumber:
		return v.Kind() == calico.KindNumber
	case TypeBoolean:
		return v.Kind() == calico.KindBool
	case TypeArray:
		return v.Kind() == calico.KindSequence
	case TypeObject:
		return v.Kind() == calico.KindMapping
	default:
		return true
	}
}

// typeName names v's kind in schema vocabulary.
func typeName(v calico.Value) string {
	switch v.Kind() {
	case calico.KindNull:
		return "null"
	case calico.KindBool:
		return TypeBoolean
	case calico.KindNumber:
		return TypeNumber
	case calico.KindString:
		return TypeString
	case calico.KindSequence:
		return TypeArray
	case calico.KindMapping:
		return TypeObject
	default:
		return v.Kind().String()
	}
}

func sortedKeys(props map[string]*Schema) []string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
