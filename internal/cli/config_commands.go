// Package cli provides configuration management commands.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/chatsweep/chatsweep/internal/config"
	"github.com/chatsweep/chatsweep/internal/constants"
)

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage chatsweep configuration",
		Long: `Configuration management commands for chatsweep.

Commands:
  init  - Interactive configuration setup
  show  - Display current configuration
  test  - Test API connection
  path  - Show configuration file path`,
	}

	configCmd.AddCommand(newConfigInitCmd())
	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigTestCmd())
	configCmd.AddCommand(newConfigPathCmd())

	return configCmd
}

// newConfigInitCmd creates the 'config init' command.
func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration interactively",
		Long: `Interactive configuration setup for chatsweep.

The configuration is saved to ~/.config/chatsweep/config.

Use --force to overwrite an existing configuration.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := resolveConfigPath()
			if err != nil {
				return err
			}

			if _, err := os.Stat(configPath); err == nil && !force {
				return fmt.Errorf("configuration already exists at %s (use --force to overwrite)", configPath)
			}

			cfg := config.New()

			cfg.PlatformURL, err = promptLine("Chat platform URL", cfg.PlatformURL)
			if err != nil {
				return err
			}

			token, err := promptSecret("Access token (leave empty to use " + config.EnvAccessToken + " or a token file)")
			if err != nil {
				return err
			}
			if token == "" {
				cfg.TokenFile, err = promptLine("Token file path", "")
				if err != nil {
					return err
				}
			}
			cfg.AccessToken = token

			batchStr, err := promptLine("Batch size", strconv.Itoa(cfg.List.BatchSize))
			if err != nil {
				return err
			}
			batch, err := strconv.Atoi(batchStr)
			if err != nil || batch < 1 || batch > constants.MaxPageLimit {
				return fmt.Errorf("invalid batch size %q (want 1-%d)", batchStr, constants.MaxPageLimit)
			}
			cfg.List.BatchSize = batch

			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := cfg.Save(configPath); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			fmt.Printf("Configuration saved to %s\n", configPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")
	return cmd
}

// newConfigShowCmd creates the 'config show' command.
func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			fmt.Printf("Platform URL:     %s\n", cfg.PlatformURL)
			fmt.Printf("Access token:     %s\n", maskToken(cfg.AccessToken))
			if cfg.TokenFile != "" {
				fmt.Printf("Token file:       %s\n", cfg.TokenFile)
			}
			fmt.Printf("Batch size:       %d\n", cfg.List.BatchSize)
			fmt.Printf("Sort:             %s %s\n", orDefault(cfg.List.SortBy, "(backend order)"), cfg.List.SortDirection)
			fmt.Printf("Refresh debounce: %dms\n", cfg.List.RefreshDebounceMs)
			fmt.Printf("Notifications:    %t\n", cfg.Notifications.Enabled)
			if cfg.Proxy.Mode != "" && cfg.Proxy.Mode != "no-proxy" {
				fmt.Printf("Proxy:            %s %s:%s\n", cfg.Proxy.Mode, cfg.Proxy.Host, cfg.Proxy.Port)
			}
			return nil
		},
	}
}

// newConfigTestCmd creates the 'config test' command.
func newConfigTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Test API connection",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := getAPIClient()
			if err != nil {
				return err
			}

			fmt.Println("Testing connection...")
			if _, err := client.ListConversations(GetContext(), 0, 1); err != nil {
				return fmt.Errorf("connection test failed: %w", err)
			}

			fmt.Println("Connection OK")
			return nil
		},
	}
}

// newConfigPathCmd creates the 'config path' command.
func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveConfigPath()
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}
}

func resolveConfigPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	path, err := config.DefaultConfigPath()
	if err != nil {
		return "", fmt.Errorf("failed to determine config path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return path, nil
}

func maskToken(token string) string {
	if token == "" {
		return "(not set)"
	}
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
