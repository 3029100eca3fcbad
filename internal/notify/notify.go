// Package notify surfaces user-facing outcome messages for chatsweep.
// It uses github.com/gen2brain/beeep for cross-platform desktop
// notifications, with a logger-only fallback for headless use.
package notify

import (
	"sync"

	"github.com/gen2brain/beeep"

	"github.com/chatsweep/chatsweep/internal/logging"
)

const appTitle = "chatsweep"

// Notifier receives human-readable outcome summaries. The list state reports
// every remote failure here; nothing is silently swallowed.
type Notifier interface {
	Success(msg string)
	Warning(msg string)
	Error(msg string)
}

// Config holds notification configuration.
type Config struct {
	// Enabled determines if desktop notifications are sent.
	Enabled bool

	// ShowBulkComplete shows notifications for successful bulk actions.
	ShowBulkComplete bool

	// ShowBulkFailed shows notifications for failed or partially failed
	// bulk actions.
	ShowBulkFailed bool
}

// DefaultConfig returns the default notification configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:          true,
		ShowBulkComplete: true,
		ShowBulkFailed:   true,
	}
}

// Desktop sends desktop notifications and mirrors everything to the log.
type Desktop struct {
	logger       *logging.Logger
	enabled      bool
	showComplete bool
	showFailed   bool
	mu           sync.RWMutex
}

// NewDesktop creates a desktop notifier with the given configuration.
func NewDesktop(cfg *Config, logger *logging.Logger) *Desktop {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	return &Desktop{
		logger:       logger,
		enabled:      cfg.Enabled,
		showComplete: cfg.ShowBulkComplete,
		showFailed:   cfg.ShowBulkFailed,
	}
}

// SetEnabled enables or disables desktop notifications.
func (n *Desktop) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// IsEnabled returns whether desktop notifications are enabled.
func (n *Desktop) IsEnabled() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.enabled
}

// Success reports a completed action.
func (n *Desktop) Success(msg string) {
	n.logger.Info().Msg(msg)
	if !n.IsEnabled() || !n.showComplete {
		return
	}
	if err := beeep.Notify(appTitle, truncate(msg, 200), ""); err != nil {
		n.logger.Warn().Err(err).Msg("Failed to send notification")
	}
}

// Warning reports a partially failed action.
func (n *Desktop) Warning(msg string) {
	n.logger.Warn().Msg(msg)
	if !n.IsEnabled() || !n.showFailed {
		return
	}
	if err := beeep.Notify(appTitle, truncate(msg, 200), ""); err != nil {
		n.logger.Warn().Err(err).Msg("Failed to send notification")
	}
}

// Error reports a failed action. Uses beeep.Alert for a more prominent
// notification on platforms that distinguish them.
func (n *Desktop) Error(msg string) {
	n.logger.Error().Msg(msg)
	if !n.IsEnabled() || !n.showFailed {
		return
	}
	if err := beeep.Alert(appTitle, truncate(msg, 200), ""); err != nil {
		if err := beeep.Notify(appTitle, truncate(msg, 200), ""); err != nil {
			n.logger.Warn().Err(err).Msg("Failed to send alert notification")
		}
	}
}

// Log is a Notifier that only writes to the log. Used in headless contexts
// and as the default when no notifier is injected.
type Log struct {
	logger *logging.Logger
}

// NewLog creates a logger-only notifier.
func NewLog(logger *logging.Logger) *Log {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Log{logger: logger}
}

func (n *Log) Success(msg string) { n.logger.Info().Msg(msg) }
func (n *Log) Warning(msg string) { n.logger.Warn().Msg(msg) }
func (n *Log) Error(msg string)   { n.logger.Error().Msg(msg) }

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
