package validate

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tinyland-inc/bridgeclaw/cmd/bridgeclaw/internal"
	"github.com/tinyland-inc/bridgeclaw/pkg/config"
)

func NewValidateCommand() *cobra.Command {
	var configVersion string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration document and report every violation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			_ = godotenv.Load()

			cfg, err := config.LoadVersion(configVersion)
			if err != nil {
				if internal.PrintConfigError(err) {
					os.Exit(1)
				}
				return err
			}

			fmt.Printf("configuration OK: %d forwarders\n", cfg.Rules().Len())
			return nil
		},
	}

	cmd.Flags().StringVar(&configVersion, "config-version", "", "Named configuration version (loads config-<version>.yml)")

	return cmd
}
