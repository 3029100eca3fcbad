package models

import (
	"testing"
	"time"
)

func TestConversationFromWire(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		wire       WireConversation
		wantNew    bool
		wantRecent bool
	}{
		{
			name: "fresh conversation",
			wire: WireConversation{
				ID:         "c1",
				Title:      "Fresh",
				CreateTime: "2026-08-30T10:00:00.123456Z",
				UpdateTime: "2026-08-30T11:00:00.123456Z",
			},
			wantNew:    true,
			wantRecent: true,
		},
		{
			name: "old but recently updated",
			wire: WireConversation{
				ID:         "c2",
				CreateTime: "2026-08-01T10:00:00Z",
				UpdateTime: "2026-08-30T11:00:00Z",
			},
			wantNew:    false,
			wantRecent: true,
		},
		{
			name: "stale",
			wire: WireConversation{
				ID:         "c3",
				CreateTime: "2026-08-01T10:00:00Z",
				UpdateTime: "2026-08-01T10:00:00Z",
			},
			wantNew:    false,
			wantRecent: false,
		},
		{
			name: "exactly at the window boundary",
			wire: WireConversation{
				ID:         "c4",
				CreateTime: "2026-08-29T12:00:00Z",
				UpdateTime: "2026-08-29T12:00:00Z",
			},
			wantNew:    true,
			wantRecent: true,
		},
		{
			name: "slightly future timestamp counts as recent",
			wire: WireConversation{
				ID:         "c5",
				CreateTime: "2026-08-30T12:00:05Z",
				UpdateTime: "2026-08-30T12:00:05Z",
			},
			wantNew:    true,
			wantRecent: true,
		},
		{
			name: "unparseable timestamps never count as recent",
			wire: WireConversation{
				ID:         "c6",
				CreateTime: "not-a-time",
				UpdateTime: "",
			},
			wantNew:    false,
			wantRecent: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ConversationFromWire(tt.wire, now)
			if c.ID != tt.wire.ID {
				t.Errorf("ID = %s, want %s", c.ID, tt.wire.ID)
			}
			if c.IsNew != tt.wantNew {
				t.Errorf("IsNew = %t, want %t", c.IsNew, tt.wantNew)
			}
			if c.RecentlyModified != tt.wantRecent {
				t.Errorf("RecentlyModified = %t, want %t", c.RecentlyModified, tt.wantRecent)
			}
		})
	}
}

func TestConversationFromWireArchived(t *testing.T) {
	c := ConversationFromWire(WireConversation{ID: "c1", IsArchived: true}, time.Now())
	if !c.Archived {
		t.Error("Archived = false, want true")
	}
}

func TestMatchesSearch(t *testing.T) {
	c := Conversation{ID: "67cfd9f4-0bbe", Title: "Kubernetes Debugging"}

	tests := []struct {
		term string
		want bool
	}{
		{"", true},
		{"kubernetes", true},
		{"KUBERNETES", true},
		{"debug", true},
		{"67cfd9f4", true},
		{"0BBE", true},
		{"postgres", false},
	}

	for _, tt := range tests {
		if got := c.MatchesSearch(tt.term); got != tt.want {
			t.Errorf("MatchesSearch(%q) = %t, want %t", tt.term, got, tt.want)
		}
	}
}
