package stop

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tinyland-inc/bridgeclaw/cmd/bridgeclaw/internal"
	"github.com/tinyland-inc/bridgeclaw/pkg/pidfile"
)

func NewStopCommand() *cobra.Command {
	var configVersion string

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Signal a running bridge to shut down",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			path := pidfile.PathFor(internal.AppName(configVersion))
			pid, err := pidfile.SignalStop(path)
			if err != nil {
				return err
			}
			fmt.Printf("sent SIGINT to pid %d\n", pid)
			return nil
		},
	}

	cmd.Flags().StringVar(&configVersion, "config-version", "", "Named configuration version (loads config-<version>.yml)")

	return cmd
}
