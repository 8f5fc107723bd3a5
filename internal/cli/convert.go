package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/zoobzio/calico"
	"github.com/zoobzio/calico/internal/config"
	"github.com/zoobzio/calico/internal/pipeline"
)

// convertOpts holds the flags of the root convert action.
type convertOpts struct {
	input     string
	output    string
	from      string
	format    string
	pretty    bool
	indent    int
	delimiter string
	noHeaders bool
	quoteAll  bool
	strict    bool
	title     string
	toc       bool
	schema    string
	threshold int
}

func (c *CLI) convertCommand() *cobra.Command {
	var opts convertOpts

	cmd := &cobra.Command{
		Use:          appName + " [input]",
		Short:        "Convert structured data between JSON, CSV, YAML and Markdown",
		Long:         `calico converts structured data between JSON, CSV, YAML, Markdown, MessagePack and BSON through a single ordered data model.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.input == "" && len(args) == 1 {
				opts.input = args[0]
			}
			if opts.input == "" {
				return errors.New("usage: calico -i <input-file> -o <output-file> -f <format>")
			}
			cfg, err := c.mergeFlags(cmd, &opts)
			if err != nil {
				return err
			}
			return c.runConvert(cmd, cfg, &opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.input, "input", "i", "", "input file")
	f.StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	f.StringVar(&opts.from, "from", "", "input format (default: from the input extension)")
	f.StringVarP(&opts.format, "format", "f", "", "output format: json, csv, yaml, md, msgpack, bson")
	f.BoolVarP(&opts.pretty, "pretty", "p", true, "indent JSON output")
	f.IntVar(&opts.indent, "indent", 2, "YAML indent width")
	f.StringVar(&opts.delimiter, "delimiter", ",", "CSV field delimiter")
	f.BoolVar(&opts.noHeaders, "no-headers", false, "CSV has no header row")
	f.BoolVar(&opts.quoteAll, "quote-all", true, "quote every CSV string field")
	f.BoolVar(&opts.strict, "strict", false, "reject CSV rows with the wrong number of fields")
	f.StringVar(&opts.title, "title", "", "Markdown document title")
	f.BoolVar(&opts.toc, "toc", false, "Markdown table of contents")
	f.StringVar(&opts.schema, "schema", "", "JSON schema file to validate against before writing")
	f.IntVar(&opts.threshold, "threshold", 0, "offload payloads larger than this to a worker (0 disables)")

	return cmd
}

// mergeFlags applies explicitly set flags over the loaded config.
func (c *CLI) mergeFlags(cmd *cobra.Command, opts *convertOpts) (config.Config, error) {
	cfg := c.cfg
	changed := cmd.Flags().Changed

	if changed("pretty") {
		cfg.Pretty = opts.pretty
	}
	if changed("indent") {
		cfg.Indent = opts.indent
	}
	if changed("delimiter") {
		if utf8.RuneCountInString(opts.delimiter) != 1 {
			return cfg, fmt.Errorf("%w: --delimiter must be a single character, got %q", calico.ErrInvalidArgument, opts.delimiter)
		}
		cfg.CSV.Delimiter = opts.delimiter
	}
	if changed("no-headers") {
		cfg.CSV.Headers = !opts.noHeaders
	}
	if changed("quote-all") {
		cfg.CSV.QuoteAll = opts.quoteAll
	}
	if changed("strict") {
		cfg.CSV.Strict = opts.strict
	}
	if changed("title") {
		cfg.Markdown.Title = opts.title
	}
	if changed("toc") {
		cfg.Markdown.TOC = opts.toc
	}
	if changed("schema") {
		cfg.Schema = opts.schema
	}
	if changed("threshold") {
		cfg.Threshold = opts.threshold
	}
	return cfg, cfg.Validate()
}

func (c *CLI) runConvert(cmd *cobra.Command, cfg config.Config, opts *convertOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	data, err := os.ReadFile(opts.input)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	to, err := outputFormat(opts.format, opts.output)
	if err != nil {
		return err
	}

	svc, closer, err := pipeline.Service(cfg, logger)
	if err != nil {
		return err
	}
	defer closer.Close()
	r := pipeline.NewRunner(svc, pipeline.OptionsFromConfig(cfg))

	v, err := decodeInput(ctx, r, opts.from, opts.input, data)
	if err != nil {
		return err
	}
	out, err := r.Encode(ctx, to, v)
	if err != nil {
		return err
	}

	if opts.output == "" {
		w := cmd.OutOrStdout()
		if _, err := w.Write(out); err != nil {
			return err
		}
		if to != calico.FormatMsgpack && to != calico.FormatBSON {
			fmt.Fprintln(w)
		}
		prog.done("Converted " + opts.input)
		return nil
	}

	if err := os.WriteFile(opts.output, out, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	prog.done("Converted " + opts.input)
	printSuccess(cmd.ErrOrStderr(), "Successfully exported to %s", styleName.Render(opts.output))
	logger.Debug("wrote output", "path", opts.output, "format", to, "bytes", len(out))
	return nil
}

// outputFormat resolves --format, then the output extension, then JSON.
func outputFormat(flag, output string) (calico.Format, error) {
	if flag != "" {
		return calico.ParseFormat(flag)
	}
	if output != "" {
		if f, ok := calico.FormatFromPath(output); ok {
			return f, nil
		}
	}
	return calico.FormatJSON, nil
}

// decodeInput resolves the input format from --from or the extension and
// falls back to trying JSON.
func decodeInput(ctx context.Context, r *pipeline.Runner, from, path string, data []byte) (calico.Value, error) {
	if from != "" {
		f, err := calico.ParseFormat(from)
		if err != nil {
			return calico.Value{}, err
		}
		return r.Decode(ctx, f, data)
	}
	if f, ok := calico.FormatFromPath(path); ok && f != calico.FormatMarkdown {
		return r.Decode(ctx, f, data)
	}

	v, err := r.Decode(ctx, calico.FormatJSON, data)
	if err != nil {
		return calico.Value{}, fmt.Errorf("could not auto-detect input format of %s; use --from or a .json, .csv, .yaml, .msgpack or .bson file: %w", path, err)
	}
	return v, nil
}
