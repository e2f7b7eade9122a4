package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// projectConfigFile is looked up in the working directory
const projectConfigFile = "surefi.toml"

// ProjectConfig is the project-level TOML configuration
type ProjectConfig struct {
	Server string `toml:"server"`
}

// GlobalConfig is the per-user configuration (stored in ~/.surefi/config.yaml)
type GlobalConfig struct {
	Server string `yaml:"server"`
}

func createConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration commands",
	}

	cmd.AddCommand(createConfigInitCmd())
	cmd.AddCommand(createConfigShowCmd())

	return cmd
}

func createConfigInitCmd() *cobra.Command {
	var serverURL string
	var global bool
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create config file",
		Long: `Write the gateway URL to surefi.toml in the current directory, or to
~/.surefi/config.yaml with --global.

EXAMPLES:
  surefi config init --server https://gateway.example.com
  surefi config init --global --server https://gateway.example.com
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := runConfigInit(serverURL, global, force)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", defaultServer, "gateway URL")
	cmd.Flags().BoolVar(&global, "global", false, "write the per-user config instead of the project config")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing config")

	return cmd
}

func createConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current config",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Server: %s\n", getServer())

			if cfg := loadProjectConfigSilent(); cfg != nil {
				fmt.Fprintf(out, "Project config (%s): server = %s\n", projectConfigFile, cfg.Server)
			}
			if cfg := loadGlobalConfigSilent(); cfg != nil {
				fmt.Fprintf(out, "Global config (%s): server = %s\n", globalConfigPath(), cfg.Server)
			}
			return nil
		},
	}
}

func runConfigInit(serverURL string, global, force bool) (string, error) {
	path := projectConfigFile
	if global {
		path = globalConfigPath()
		if path == "" {
			return "", errors.New("cannot determine home directory")
		}
	}

	if _, err := os.Stat(path); err == nil && !force {
		return "", fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
	}

	var data []byte
	var err error
	if global {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return "", fmt.Errorf("creating config directory: %w", err)
		}
		data, err = yaml.Marshal(GlobalConfig{Server: serverURL})
	} else {
		data, err = toml.Marshal(ProjectConfig{Server: serverURL})
	}
	if err != nil {
		return "", fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing config: %w", err)
	}
	return path, nil
}

// loadProjectConfigSilent returns nil when the project config is missing or
// unreadable.
func loadProjectConfigSilent() *ProjectConfig {
	var cfg ProjectConfig
	if _, err := toml.DecodeFile(projectConfigFile, &cfg); err != nil {
		return nil
	}
	return &cfg
}

func globalConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".surefi", "config.yaml")
}

// loadGlobalConfigSilent returns nil when the global config is missing or
// unreadable.
func loadGlobalConfigSilent() *GlobalConfig {
	path := globalConfigPath()
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "warning: reading %s: %v\n", path, err)
		}
		return nil
	}
	var cfg GlobalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil
	}
	return &cfg
}
