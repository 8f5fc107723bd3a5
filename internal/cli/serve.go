package cli

import (
	"github.com/spf13/cobra"

	"github.com/zoobzio/calico/internal/pipeline"
	"github.com/zoobzio/calico/internal/server"
)

func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:          "serve",
		Short:        "Serve conversions over HTTP",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := c.cfg
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}

			logger := loggerFromContext(cmd.Context())
			svc, closer, err := pipeline.Service(cfg, logger)
			if err != nil {
				return err
			}
			defer closer.Close()

			printInfo(cmd.ErrOrStderr(), "Listening on %s", styleName.Render(cfg.Server.Addr))
			return server.New(svc, cfg, logger).Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}
