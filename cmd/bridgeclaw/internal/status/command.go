package status

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tinyland-inc/bridgeclaw/cmd/bridgeclaw/internal"
	"github.com/tinyland-inc/bridgeclaw/pkg/pidfile"
)

func NewStatusCommand() *cobra.Command {
	var configVersion string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report whether the bridge is running",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			path := pidfile.PathFor(internal.AppName(configVersion))
			state, pid := pidfile.Check(path)
			if state == pidfile.StateRunning {
				fmt.Printf("running (pid %d)\n", pid)
			} else {
				fmt.Println("stopped")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configVersion, "config-version", "", "Named configuration version (loads config-<version>.yml)")

	return cmd
}
