// Package config loads calico's CLI and server settings from .calico.toml
// or .calico.yaml. Command-line flags override whatever the file sets.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/zoobzio/calico"
	"github.com/zoobzio/calico/csv"
	"github.com/zoobzio/calico/markdown"
	calicoyaml "github.com/zoobzio/calico/yaml"
)

// FileNames are the config files Discover looks for, in order.
var FileNames = []string{".calico.toml", ".calico.yaml", ".calico.yml"}

// Config holds every tunable setting.
type Config struct {
	Pretty    bool   `toml:"pretty" yaml:"pretty"`
	Indent    int    `toml:"indent" yaml:"indent"`
	Schema    string `toml:"schema" yaml:"schema"`       // path to a JSON schema file
	Threshold int    `toml:"threshold" yaml:"threshold"` // worker offload size; 0 disables the worker

	CSV      CSV      `toml:"csv" yaml:"csv"`
	Markdown Markdown `toml:"markdown" yaml:"markdown"`
	Server   Server   `toml:"server" yaml:"server"`
	Log      Log      `toml:"log" yaml:"log"`
}

// CSV mirrors csv.Options with a string delimiter.
type CSV struct {
	Headers   bool   `toml:"headers" yaml:"headers"`
	Delimiter string `toml:"delimiter" yaml:"delimiter"`
	QuoteAll  bool   `toml:"quote_all" yaml:"quote_all"`
	Strict    bool   `toml:"strict" yaml:"strict"`
}

// Markdown mirrors markdown.Options.
type Markdown struct {
	Title string `toml:"title" yaml:"title"`
	TOC   bool   `toml:"toc" yaml:"toc"`
}

// Server configures the HTTP service.
type Server struct {
	Addr         string        `toml:"addr" yaml:"addr"`
	MaxBodyBytes int64         `toml:"max_body_bytes" yaml:"max_body_bytes"`
	Timeout      time.Duration `toml:"timeout" yaml:"timeout"`
}

// Log configures the logger.
type Log struct {
	Level string `toml:"level" yaml:"level"`
}

// Default returns the built-in settings.
func Default() Config {
	d := csv.DefaultOptions()
	return Config{
		Pretty: true,
		Indent: calicoyaml.DefaultIndent,
		CSV: CSV{
			Headers:   d.IncludeHeaders,
			Delimiter: string(d.Delimiter),
			QuoteAll:  d.QuoteAllStrings,
		},
		Server: Server{
			Addr:         ":8080",
			MaxBodyBytes: 10 << 20,
			Timeout:      30 * time.Second,
		},
		Log: Log{Level: "info"},
	}
}

// Load reads path over the defaults. The format follows the extension:
// .toml, .yaml or .yml. Unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return cfg, fmt.Errorf("parse %s: unknown key %q", path, undecoded[0].String())
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("%w: config file %s must be .toml or .yaml", calico.ErrUnsupportedFormat, path)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Discover returns the first config file from FileNames present in dir.
func Discover(dir string) (string, bool) {
	for _, name := range FileNames {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		}
	}
	return "", false
}

// Validate checks ranges that the decoders cannot.
func (c Config) Validate() error {
	if c.Indent < 1 {
		return fmt.Errorf("%w: indent must be a positive integer, got %d", calico.ErrInvalidArgument, c.Indent)
	}
	if utf8.RuneCountInString(c.CSV.Delimiter) != 1 {
		return fmt.Errorf("%w: csv delimiter must be a single character, got %q", calico.ErrInvalidArgument, c.CSV.Delimiter)
	}
	if c.Threshold < 0 {
		return fmt.Errorf("%w: threshold must not be negative", calico.ErrInvalidArgument)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("%w: server.max_body_bytes must be positive", calico.ErrInvalidArgument)
	}
	return nil
}

// CSVOptions converts the CSV section for the csv package.
func (c Config) CSVOptions() []csv.Option {
	d, _ := utf8.DecodeRuneInString(c.CSV.Delimiter)
	return []csv.Option{csv.WithOptions(csv.Options{
		IncludeHeaders:  c.CSV.Headers,
		Delimiter:       d,
		QuoteAllStrings: c.CSV.QuoteAll,
		StrictColumns:   c.CSV.Strict,
	})}
}

// MarkdownOptions converts the Markdown section for the markdown package.
func (c Config) MarkdownOptions() markdown.Options {
	return markdown.Options{Title: c.Markdown.Title, TableOfContents: c.Markdown.TOC}
}
