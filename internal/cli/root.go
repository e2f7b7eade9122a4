// Package cli implements the surefi command line client.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// defaultServer is used when no flag, environment or config file names one.
const defaultServer = "http://localhost:8080"

// serverEnv overrides the config files but not the --server flag.
const serverEnv = "SUREFI_SERVER"

var (
	server     string
	jsonOutput bool
)

// Execute runs the CLI
func Execute(version string) error {
	return newRootCmd(version).Execute()
}

func newRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "surefi",
		Short:         "SureFi gateway CLI",
		Long:          `surefi queries a SureFi gateway for the contract owner and account verification status.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&server, "server", "", "gateway URL (default from $SUREFI_SERVER or config)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	// Add subcommands
	rootCmd.AddCommand(createOwnerCmd())
	rootCmd.AddCommand(createVerifiedCmd())
	rootCmd.AddCommand(createStatusCmd())
	rootCmd.AddCommand(createConfigCmd())

	return rootCmd
}

// getServer returns the gateway URL from flag, env, project config, global
// config or the default, in that order.
func getServer() string {
	// 1. Command line flag
	if server != "" {
		return server
	}

	// 2. Environment variable
	if env := os.Getenv(serverEnv); env != "" {
		return env
	}

	// 3. Project config file (TOML)
	if cfg := loadProjectConfigSilent(); cfg != nil && cfg.Server != "" {
		return cfg.Server
	}

	// 4. Global config file (YAML)
	if cfg := loadGlobalConfigSilent(); cfg != nil && cfg.Server != "" {
		return cfg.Server
	}

	// 5. Default
	return defaultServer
}
