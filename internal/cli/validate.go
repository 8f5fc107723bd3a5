package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zoobzio/calico"
	"github.com/zoobzio/calico/exporter"
	"github.com/zoobzio/calico/internal/pipeline"
	"github.com/zoobzio/calico/schema"
)

func (c *CLI) validateCommand() *cobra.Command {
	var (
		schemaPath string
		from       string
	)

	cmd := &cobra.Command{
		Use:          "validate <input>",
		Short:        "Validate a document against a JSON schema",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := schema.Load(schemaPath)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			r := pipeline.NewRunner(exporter.New(), pipeline.OptionsFromConfig(c.cfg))
			v, err := decodeInput(cmd.Context(), r, from, args[0], data)
			if err != nil {
				return err
			}

			res := schema.Validate(v, s)
			if res.Valid {
				printSuccess(cmd.OutOrStdout(), "%s is valid", styleName.Render(args[0]))
				return nil
			}
			for _, vio := range res.Errors {
				printError(cmd.OutOrStdout(), "%s", vio.String())
			}
			return fmt.Errorf("%w: %s has %d violation(s)", calico.ErrValidation, args[0], len(res.Errors))
		},
	}

	cmd.Flags().StringVar(&schemaPath, "schema", "", "JSON schema file")
	cmd.Flags().StringVar(&from, "from", "", "input format (default: from the input extension)")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}
