package notify

import (
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.Enabled {
		t.Error("Expected Enabled to be true by default")
	}
	if !cfg.ShowBulkComplete {
		t.Error("Expected ShowBulkComplete to be true by default")
	}
	if !cfg.ShowBulkFailed {
		t.Error("Expected ShowBulkFailed to be true by default")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly-10", 10, "exactly-10"},
		{"this is too long", 10, "this is..."},
		{"", 5, ""},
	}

	for _, tt := range tests {
		if got := truncate(tt.input, tt.maxLen); got != tt.expected {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.expected)
		}
	}
}

func TestDesktopSetEnabled(t *testing.T) {
	n := NewDesktop(DefaultConfig(), nil)

	if !n.IsEnabled() {
		t.Error("Expected notifier enabled with default config")
	}
	n.SetEnabled(false)
	if n.IsEnabled() {
		t.Error("Expected notifier disabled after SetEnabled(false)")
	}

	// Disabled notifier must not attempt a desktop notification.
	n.Success("should only log")
}

func TestNewDesktopNilConfig(t *testing.T) {
	n := NewDesktop(nil, nil)
	if !n.IsEnabled() {
		t.Error("Expected nil config to fall back to defaults")
	}
}
