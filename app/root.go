// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var configPath string // Path to the configuration directory

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the config directory (default ./etc/)")
}

var rootCmd = &cobra.Command{
	Use:   "semilla-auth",
	Short: "semilla-auth is an authentication and authorization API",
	Long: `semilla-auth authenticates users against a local credential store or an
LDAP directory and issues JWTs that carry the permissions of the user's role.`,
	Args:          cobra.OnlyValidArgs,
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
