package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/castplay/internal/discovery"
	"github.com/MrSnakeDoc/castplay/internal/domain"
	"github.com/MrSnakeDoc/castplay/internal/sources/devices"
)

func newDiscoverCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Find cast devices on the LAN and print a devices.yaml",
		Long: `Browse mDNS for _googlecast._tcp services and print the devices found in
the devices.yaml format expected by CASTPLAY_DEVICES_FILE.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			found, err := discovery.Discover(cmd.Context(), timeout)
			if err != nil {
				return err
			}
			if len(found) == 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "no cast device answered within %s\n", timeout)
				return nil
			}
			return writeDevicesYAML(cmd, found)
		},
	}
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", discovery.DefaultTimeout, "how long to listen for answers")
	return cmd
}

func writeDevicesYAML(cmd *cobra.Command, found []domain.Device) error {
	file := devices.File{Devices: make([]devices.DeviceProps, 0, len(found))}
	for _, d := range found {
		file.Devices = append(file.Devices, devices.DeviceProps{Name: d.Name, Address: d.Address})
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(file); err != nil {
		return fmt.Errorf("failed to encode devices: %w", err)
	}
	return enc.Close()
}
