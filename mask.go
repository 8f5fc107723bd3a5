package calico

import (
	"strings"
	"unicode"
)

// MaskType names a content-aware masking rule for the export.mask tag.
type MaskType string

const (
	MaskEmail MaskType = "email" // alice@example.com -> a***@example.com
	MaskSSN   MaskType = "ssn"   // 123-45-6789 -> ***-**-6789
	MaskPhone MaskType = "phone" // (555) 123-4567 -> (***) ***-4567
	MaskCard  MaskType = "card"  // 4111 1111 1111 1111 -> **** **** **** 1111
	MaskIP    MaskType = "ip"    // 192.168.1.100 -> 192.168.xxx.xxx
	MaskName  MaskType = "name"  // John Smith -> J*** S****
)

// Masker hides part of a string while keeping it recognizable.
type Masker interface {
	Mask(value string) string
}

// MaskerFunc adapts a function to the Masker interface.
type MaskerFunc func(string) string

// Mask calls f(value).
func (f MaskerFunc) Mask(value string) string { return f(value) }

// builtinMaskers returns a fresh copy of the default masker table.
func builtinMaskers() map[MaskType]Masker {
	return map[MaskType]Masker{
		MaskEmail: MaskerFunc(maskEmail),
		MaskSSN:   MaskerFunc(maskSSN),
		MaskPhone: MaskerFunc(maskPhone),
		MaskCard:  MaskerFunc(maskCard),
		MaskIP:    MaskerFunc(maskIP),
		MaskName:  MaskerFunc(maskName),
	}
}

// stars returns a run of asterisks as long as s has runes.
func stars(s string) string {
	return strings.Repeat("*", len([]rune(s)))
}

// lastDigits returns the final n digits of s, or false if s has fewer.
func lastDigits(s string, n int) (string, int, bool) {
	var digits []rune
	for _, r := range s {
		if unicode.IsDigit(r) {
			digits = append(digits, r)
		}
	}
	if len(digits) < n {
		return "", len(digits), false
	}
	return string(digits[len(digits)-n:]), len(digits), true
}

func maskEmail(v string) string {
	at := strings.LastIndex(v, "@")
	if at < 1 {
		return stars(v)
	}
	first := []rune(v[:at])[0]
	return string(first) + "***" + v[at:]
}

func maskSSN(v string) string {
	tail, _, ok := lastDigits(v, 4)
	if !ok {
		return stars(v)
	}
	return "***-**-" + tail
}

func maskPhone(v string) string {
	tail, n, ok := lastDigits(v, 4)
	if !ok {
		return stars(v)
	}
	switch {
	case n >= 10 && strings.HasPrefix(v, "("):
		return "(***) ***-" + tail
	case n >= 10:
		return "***-***-" + tail
	default:
		return "***-" + tail
	}
}

func maskCard(v string) string {
	tail, n, ok := lastDigits(v, 4)
	if !ok {
		return stars(v)
	}
	sep := ""
	switch {
	case strings.Contains(v, " "):
		sep = " "
	case strings.Contains(v, "-"):
		sep = "-"
	}
	if sep == "" {
		return strings.Repeat("*", n-4) + tail
	}
	groups := make([]string, 0, (n-4+3)/4+1)
	for i := 0; i < (n-4+3)/4; i++ {
		groups = append(groups, "****")
	}
	return strings.Join(append(groups, tail), sep)
}

func maskIP(v string) string {
	if octets := strings.Split(v, "."); len(octets) == 4 {
		return octets[0] + "." + octets[1] + ".xxx.xxx"
	}
	if groups := strings.Split(v, ":"); len(groups) == 8 {
		return strings.Join(groups[:4], ":") + ":xxxx:xxxx:xxxx:xxxx"
	}
	return stars(v)
}

func maskName(v string) string {
	words := strings.Fields(v)
	for i, w := range words {
		r := []rune(w)
		words[i] = string(r[0]) + strings.Repeat("*", len(r)-1)
	}
	return strings.Join(words, " ")
}
