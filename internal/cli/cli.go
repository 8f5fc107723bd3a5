// Package cli implements the calico command-line interface.
//
// The root command converts one file:
//
//	calico users.json -o users.yaml
//	calico -i report.csv -f md --title "Q3 report"
//
// The input format comes from --from or the input extension, falling back
// to a JSON parse attempt. The output format comes from --format, then the
// output extension, then JSON. Output goes to --output or stdout.
//
// Settings are read from .calico.toml or .calico.yaml in the working
// directory (or --config) and overridden by flags. Loggers travel through
// context.Context; --verbose enables debug output.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/zoobzio/calico/internal/config"
)

const appName = "calico"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        config.Config
}

// New creates a CLI logging to w at level.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level), cfg: config.Default()}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := c.convertCommand()
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: .calico.toml or .calico.yaml in the working directory)")
	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		if err := c.loadConfig(); err != nil {
			return err
		}
		cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		return nil
	}

	root.AddCommand(c.formatsCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.serveCommand())
	return root
}

// loadConfig reads --config, or a discovered config file, over the defaults.
func (c *CLI) loadConfig() error {
	path := c.configPath
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil
		}
		var ok bool
		if path, ok = config.Discover(wd); !ok {
			return nil
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if c.cfg.Log.Level != cfg.Log.Level {
		level, err := log.ParseLevel(cfg.Log.Level)
		if err != nil {
			return fmt.Errorf("config %s: %w", path, err)
		}
		c.SetLogLevel(level)
	}
	c.cfg = cfg
	c.Logger.Debug("loaded config", "path", path)
	return nil
}
