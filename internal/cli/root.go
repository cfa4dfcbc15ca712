package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the castplay command tree. Running it without a
// subcommand starts the server.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "castplay",
		Short:         "Play local MP3 files on Chromecast and Google Home devices",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}

	root.AddCommand(
		newServeCmd(),
		newDiscoverCmd(),
		newDevicesCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fail(os.Stderr, err)
	}
}

func fail(w io.Writer, err error) {
	fmt.Fprintf(w, "❌ castplay: %v\n", err)
	os.Exit(1)
}
