package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sg-semilla/semilla-auth/internal/config"
)

func init() { //nolint: gochecknoinits
	configCmd.Flags().BoolVar(&dumpJSON, "json", false, "Print the configuration as JSON instead of TOML")
	configCmd.Flags().BoolVar(&devMode, "dev", false, "Read the configuration in dev mode")

	rootCmd.AddCommand(configCmd)
}

var (
	dumpJSON bool

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration with secrets redacted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.ReadConfig(configPath, config.WithDevMode(devMode))
			if err != nil {
				return err
			}

			redacted := cfg.Redacted()

			var out string
			if dumpJSON {
				out, err = config.DumpConfigJSON(&redacted)
			} else {
				out, err = config.DumpConfig(&redacted)
			}

			if err != nil {
				return err
			}

			_, err = fmt.Fprint(cmd.OutOrStdout(), out)

			return err
		},
	}
)
