package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zoobzio/calico"
)

func (c *CLI) formatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List supported formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			for _, f := range calico.Formats() {
				enc, err := calico.Lookup(f)
				if err != nil {
					continue
				}
				mode := "read/write"
				if _, err := calico.LookupDecoder(f); err != nil {
					mode = "write only"
				}
				fmt.Fprintf(w, "%-8s %s %s\n",
					styleName.Render(string(f)),
					enc.ContentType(),
					styleDim.Render("("+mode+")"),
				)
			}
			return nil
		},
	}
}
