package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/castplay/internal/app"
	"github.com/MrSnakeDoc/castplay/internal/config"
)

// newDevicesCmd validates the configured device map without starting the server.
func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List the configured devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := app.LoadRegistry(config.Load())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tADDRESS")
			for _, d := range reg.Devices() {
				fmt.Fprintf(tw, "%s\t%s\n", d.Name, d.Address)
			}
			return tw.Flush()
		},
	}
}
