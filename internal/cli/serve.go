package cli

import (
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/castplay/internal/app"
	"github.com/MrSnakeDoc/castplay/internal/config"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service (default command)",
		Long: `Serve the media directory, accept play requests and record playback telemetry.
Configuration comes from CASTPLAY_* environment variables and an optional .env file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}
}

func runServe(cmd *cobra.Command) error {
	a, err := app.New(config.Load())
	if err != nil {
		return err
	}
	return a.Run(cmd.Context())
}
