// Package cli provides API client helper functions.
package cli

import (
	"fmt"
	"time"

	"github.com/chatsweep/chatsweep/internal/api"
	"github.com/chatsweep/chatsweep/internal/config"
	"github.com/chatsweep/chatsweep/internal/events"
	"github.com/chatsweep/chatsweep/internal/fetch"
	"github.com/chatsweep/chatsweep/internal/httpx"
	"github.com/chatsweep/chatsweep/internal/models"
	"github.com/chatsweep/chatsweep/internal/notify"
	"github.com/chatsweep/chatsweep/internal/state"
)

// loadConfig loads the configuration from --config or the default path and
// applies flag overrides.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		var err error
		path, err = config.DefaultConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to determine config path: %w", err)
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if platformURL != "" {
		cfg.PlatformURL = platformURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// getAPIClient loads configuration and creates an API client.
// This is the standard way to get an API client in CLI commands.
func getAPIClient() (*api.Client, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	token, err := cfg.ResolveAccessToken(accessToken, tokenFile)
	if err != nil {
		return nil, nil, err
	}

	httpClient, err := httpx.NewClient(cfg.Proxy)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	client := api.NewClient(cfg.PlatformURL, api.StaticToken(token), httpClient, GetLogger())
	return client, cfg, nil
}

// newListState builds a ConversationListState wired to the API client,
// using the configured defaults overridden by the given settings.
func newListState(client *api.Client, cfg *config.Config, bus *events.Bus, settings state.Settings) *state.ConversationListState {
	if settings.BatchSize < 1 {
		settings.BatchSize = cfg.List.BatchSize
	}
	if settings.SortBy == models.SortNone && cfg.List.SortBy != "" {
		if key, ok := models.ParseSortKey(cfg.List.SortBy); ok {
			settings.SortBy = key
		}
	}
	if settings.SortDirection == "" {
		settings.SortDirection = models.SortDirection(cfg.List.SortDirection)
	}

	var notifier notify.Notifier = notify.NewLog(GetLogger())
	if cfg.Notifications.Enabled && !noNotify {
		notifier = notify.NewDesktop(&notify.Config{
			Enabled:          true,
			ShowBulkComplete: cfg.Notifications.ShowBulkComplete,
			ShowBulkFailed:   cfg.Notifications.ShowBulkFailed,
		}, GetLogger())
	}

	return state.NewConversationListState(
		fetch.NewAggregator(client, settings.BatchSize),
		client,
		bus,
		notifier,
		GetLogger(),
		state.Options{
			Settings:        settings,
			RefreshDebounce: time.Duration(cfg.List.RefreshDebounceMs) * time.Millisecond,
		},
	)
}
