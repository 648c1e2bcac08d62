package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tinyland-inc/bridgeclaw/cmd/bridgeclaw/internal"
	"github.com/tinyland-inc/bridgeclaw/cmd/bridgeclaw/internal/start"
	"github.com/tinyland-inc/bridgeclaw/cmd/bridgeclaw/internal/status"
	"github.com/tinyland-inc/bridgeclaw/cmd/bridgeclaw/internal/stop"
	"github.com/tinyland-inc/bridgeclaw/cmd/bridgeclaw/internal/validate"
	"github.com/tinyland-inc/bridgeclaw/cmd/bridgeclaw/internal/version"
)

func NewBridgeclawCommand() *cobra.Command {
	short := fmt.Sprintf("%s bridgeclaw - Telegram to Discord bridge v%s\n\n", internal.Logo, internal.FormatVersion())

	cmd := &cobra.Command{
		Use:     "bridgeclaw",
		Short:   short,
		Example: "bridgeclaw start",
	}

	cmd.AddCommand(
		start.NewStartCommand(),
		stop.NewStopCommand(),
		status.NewStatusCommand(),
		validate.NewValidateCommand(),
		version.NewVersionCommand(),
	)

	return cmd
}

func main() {
	cmd := NewBridgeclawCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
