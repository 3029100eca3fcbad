// Package config provides configuration management for chatsweep.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/chatsweep/chatsweep/internal/constants"
)

// Config is the on-disk configuration for chatsweep.
//
// Config file location:
//   - Windows: %USERPROFILE%\.config\chatsweep\config
//   - Unix: ~/.config/chatsweep/config
//
// INI format:
//
//	[chatsweep]
//	platform_url = https://chat.example.com
//	access_token = <bearer-token>
//	token_file = /path/to/token
//
//	[chatsweep.list]
//	batch_size = 20
//	sort_by = updated
//	sort_direction = desc
//	refresh_debounce_ms = 500
//
//	[chatsweep.notifications]
//	enabled = true
//	show_bulk_complete = true
//	show_bulk_failed = true
//
//	[chatsweep.proxy]
//	mode = no-proxy
type Config struct {
	// PlatformURL is the base URL of the chat platform.
	PlatformURL string `ini:"platform_url"`

	// AccessToken is the bearer token for the backend API. Prefer token_file
	// or the CHATSWEEP_ACCESS_TOKEN environment variable over storing the
	// token in the config file.
	AccessToken string `ini:"access_token"`

	// TokenFile is a path to a file whose trimmed contents are the token.
	TokenFile string `ini:"token_file"`

	// List holds conversation listing defaults.
	List ListConfig `ini:"-"`

	// Notifications holds desktop notification settings.
	Notifications NotificationConfig `ini:"-"`

	// Proxy holds outbound proxy settings.
	Proxy ProxyConfig `ini:"-"`
}

// ListConfig contains conversation listing defaults.
type ListConfig struct {
	// BatchSize is the number of conversations fetched per load-more batch.
	// Minimum: 1, Maximum: 100, Default: 20
	BatchSize int `ini:"batch_size"`

	// SortBy is the default sort key: "", "created", "updated" or "title".
	SortBy string `ini:"sort_by"`

	// SortDirection is "asc" or "desc". Default: desc
	SortDirection string `ini:"sort_direction"`

	// RefreshDebounceMs is the refresh coalescing window in milliseconds.
	// Default: 500
	RefreshDebounceMs int `ini:"refresh_debounce_ms"`
}

// NotificationConfig contains settings for desktop notifications.
type NotificationConfig struct {
	// Enabled indicates whether notifications are shown. Default: true
	Enabled bool `ini:"enabled"`

	// ShowBulkComplete shows a notification when a bulk action completes.
	// Default: true
	ShowBulkComplete bool `ini:"show_bulk_complete"`

	// ShowBulkFailed shows a notification when a bulk action fails, fully or
	// partially. Default: true
	ShowBulkFailed bool `ini:"show_bulk_failed"`
}

// ProxyConfig contains outbound proxy settings.
type ProxyConfig struct {
	// Mode is one of "no-proxy", "system", "basic" or "ntlm".
	Mode string `ini:"mode"`

	// Host is the proxy host, required for basic/ntlm modes.
	Host string `ini:"host"`

	// Port is the proxy port, required for basic/ntlm modes.
	Port string `ini:"port"`

	// User and Password authenticate against the proxy in basic/ntlm modes.
	User     string `ini:"user"`
	Password string `ini:"password"`

	// NoProxy is a comma-separated bypass list (hosts, domains, CIDRs).
	NoProxy string `ini:"no_proxy"`
}

// EnvAccessToken is the environment variable consulted for the bearer token.
const EnvAccessToken = "CHATSWEEP_ACCESS_TOKEN"

// Validation errors
var (
	ErrMissingPlatformURL = errors.New("platform_url is required")
	ErrInvalidBatchSize   = errors.New("batch_size must be between 1 and 100")
	ErrInvalidSortKey     = errors.New("sort_by must be one of: created, updated, title (or empty)")
	ErrInvalidProxyMode   = errors.New("proxy mode must be one of: no-proxy, system, basic, ntlm")
	ErrNoAccessToken      = errors.New("no access token found (flag, environment, config or token file)")
)

// DefaultConfigPath returns the default path for the config file.
func DefaultConfigPath() (string, error) {
	var configDir string

	if runtime.GOOS == "windows" {
		userProfile := os.Getenv("USERPROFILE")
		if userProfile == "" {
			return "", errors.New("USERPROFILE environment variable not set")
		}
		configDir = filepath.Join(userProfile, ".config", "chatsweep")
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config", "chatsweep")
	}

	return filepath.Join(configDir, "config"), nil
}

// New creates a Config with default values.
func New() *Config {
	return &Config{
		List: ListConfig{
			BatchSize:         constants.DefaultBatchSize,
			SortDirection:     "desc",
			RefreshDebounceMs: int(constants.DefaultRefreshDebounce.Milliseconds()),
		},
		Notifications: NotificationConfig{
			Enabled:          true,
			ShowBulkComplete: true,
			ShowBulkFailed:   true,
		},
		Proxy: ProxyConfig{
			Mode: "no-proxy",
		},
	}
}

// Load reads the config file at path, applying defaults for absent keys.
// A missing file yields defaults without error; callers that require an
// explicit file should stat it themselves.
func Load(path string) (*Config, error) {
	cfg := New()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
	}

	if err := file.Section("chatsweep").MapTo(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse [chatsweep] section: %w", err)
	}
	if err := file.Section("chatsweep.list").MapTo(&cfg.List); err != nil {
		return nil, fmt.Errorf("failed to parse [chatsweep.list] section: %w", err)
	}
	if err := file.Section("chatsweep.notifications").MapTo(&cfg.Notifications); err != nil {
		return nil, fmt.Errorf("failed to parse [chatsweep.notifications] section: %w", err)
	}
	if err := file.Section("chatsweep.proxy").MapTo(&cfg.Proxy); err != nil {
		return nil, fmt.Errorf("failed to parse [chatsweep.proxy] section: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the config to path, creating parent directories as needed.
// The file is written 0600 since it may hold a credential.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file := ini.Empty()
	if err := file.Section("chatsweep").ReflectFrom(c); err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	if err := file.Section("chatsweep.list").ReflectFrom(&c.List); err != nil {
		return fmt.Errorf("failed to serialize list config: %w", err)
	}
	if err := file.Section("chatsweep.notifications").ReflectFrom(&c.Notifications); err != nil {
		return fmt.Errorf("failed to serialize notification config: %w", err)
	}
	if err := file.Section("chatsweep.proxy").ReflectFrom(&c.Proxy); err != nil {
		return fmt.Errorf("failed to serialize proxy config: %w", err)
	}

	if err := file.SaveTo(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return os.Chmod(path, 0o600)
}

// Validate checks the configuration for internally inconsistent values.
func (c *Config) Validate() error {
	if c.List.BatchSize < 1 || c.List.BatchSize > constants.MaxPageLimit {
		return ErrInvalidBatchSize
	}

	switch strings.ToLower(c.List.SortBy) {
	case "", "created", "updated", "title":
	default:
		return ErrInvalidSortKey
	}

	switch strings.ToLower(c.Proxy.Mode) {
	case "", "no-proxy", "system", "basic", "ntlm":
	default:
		return ErrInvalidProxyMode
	}

	return nil
}

// ResolveAccessToken determines the bearer token with the precedence:
// explicit flag > environment > config access_token > token file.
func (c *Config) ResolveAccessToken(flagToken, flagTokenFile string) (string, error) {
	if flagToken != "" {
		return flagToken, nil
	}

	if env := os.Getenv(EnvAccessToken); env != "" {
		return env, nil
	}

	if c.AccessToken != "" {
		return c.AccessToken, nil
	}

	tokenFile := flagTokenFile
	if tokenFile == "" {
		tokenFile = c.TokenFile
	}
	if tokenFile != "" {
		data, err := os.ReadFile(tokenFile)
		if err != nil {
			return "", fmt.Errorf("failed to read token file %s: %w", tokenFile, err)
		}
		token := strings.TrimSpace(string(data))
		if token == "" {
			return "", fmt.Errorf("token file %s is empty", tokenFile)
		}
		return token, nil
	}

	return "", ErrNoAccessToken
}
