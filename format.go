package calico

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format names a serialization format.
// Use these constants with Register, Lookup and the exporter.
type Format string

const (
	// FormatJSON is JSON text.
	FormatJSON Format = "json"

	// FormatCSV is comma (or other delimiter) separated rows.
	FormatCSV Format = "csv"

	// FormatYAML is block-style YAML.
	FormatYAML Format = "yaml"

	// FormatMarkdown is GitHub-flavored Markdown. Encode only.
	FormatMarkdown Format = "md"

	// FormatMsgpack is MessagePack.
	FormatMsgpack Format = "msgpack"

	// FormatBSON is a BSON document.
	FormatBSON Format = "bson"
)

// formatAliases maps accepted spellings to their canonical format.
var formatAliases = map[string]Format{
	"json":     FormatJSON,
	"csv":      FormatCSV,
	"yaml":     FormatYAML,
	"yml":      FormatYAML,
	"md":       FormatMarkdown,
	"markdown": FormatMarkdown,
	"msgpack":  FormatMsgpack,
	"mpk":      FormatMsgpack,
	"bson":     FormatBSON,
}

// IsValidFormat returns true if f is a known canonical format.
func IsValidFormat(f Format) bool {
	canonical, ok := formatAliases[string(f)]
	return ok && canonical == f
}

// ParseFormat resolves a user-supplied name (case-insensitive, aliases
// allowed) to its canonical Format.
func ParseFormat(name string) (Format, error) {
	f, ok := formatAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
	return f, nil
}

// FormatFromPath infers a format from a file extension.
func FormatFromPath(path string) (Format, bool) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", false
	}
	f, err := ParseFormat(ext)
	if err != nil {
		return "", false
	}
	return f, true
}
