package main

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/harunnryd/pgpt/internal/config"
	"github.com/harunnryd/pgpt/internal/model/auth"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

//go:embed templates/config.yaml
var embeddedDefaultConfig []byte

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Manage the pgpt configuration file.`,
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Dump fully resolved configuration",
	Long:  `Display current configuration with defaults applied and environment variables resolved. Keys and codes are masked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		loadedCfg, err := loadConfigForCommand(cmd)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(redactConfigSecrets(loadedCfg)); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}

		if err := loadedCfg.Validate(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "\nconfiguration problems:\n%v\n", err)
		}
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize default configuration",
	Long:  `Create a default configuration file at $HOME/.pgpt/config.yaml if it doesn't exist.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := config.DefaultPath()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		out := cmd.OutOrStdout()
		created, err := writeDefaultConfig(configPath)
		if err != nil {
			return err
		}
		if !created {
			fmt.Fprintf(out, "Config already exists at %s\n", configPath)
			fmt.Fprintln(out, "Use 'pgpt config view' to see current configuration.")
			fmt.Fprintln(out, "To reinitialize, remove the existing config file first.")
			return nil
		}

		fmt.Fprintf(out, "✓ Initialized config at %s\n", configPath)
		fmt.Fprintln(out, "\nNext steps:")
		fmt.Fprintf(out, "1. Set %s and %s, or %s (recommended)\n", config.EnvGPTAPIKey, config.EnvGPTAPIURL, config.EnvAnthropicAPIKey)
		fmt.Fprintln(out, "2. Or edit config.yaml to add keys and endpoints directly")
		fmt.Fprintln(out, "3. Run 'pgpt provider list' to verify your providers")
		return nil
	},
}

// writeDefaultConfig writes the embedded template unless a file exists.
func writeDefaultConfig(configPath string) (bool, error) {
	if _, err := os.Stat(configPath); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to check config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o700); err != nil {
		return false, fmt.Errorf("failed to create config directory %s: %w", filepath.Dir(configPath), err)
	}

	defaultConfig := strings.TrimSpace(string(embeddedDefaultConfig)) + "\n"
	if err := atomic.WriteFile(configPath, bytes.NewReader([]byte(defaultConfig))); err != nil {
		return false, fmt.Errorf("failed to write config to %s: %w", configPath, err)
	}
	if err := os.Chmod(configPath, 0o600); err != nil {
		return false, fmt.Errorf("failed to restrict %s: %w", configPath, err)
	}
	return true, nil
}

func loadConfigForCommand(cmd *cobra.Command) (*config.Config, error) {
	if cfg != nil {
		return cfg, nil
	}
	return config.Load(cmd)
}

func redactConfigSecrets(in *config.Config) *config.Config {
	if in == nil {
		return nil
	}

	out := *in
	if len(in.Models.Registry) > 0 {
		out.Models.Registry = make([]config.ModelRegistry, len(in.Models.Registry))
		copy(out.Models.Registry, in.Models.Registry)
		for i := range out.Models.Registry {
			entry := &out.Models.Registry[i]
			entry.APIKey = auth.Mask(entry.APIKey)
			entry.SystemCode = auth.Mask(entry.SystemCode)
			entry.CompanyCode = auth.Mask(entry.CompanyCode)
		}
	}
	return &out
}

func init() {
	configCmd.AddCommand(configViewCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
