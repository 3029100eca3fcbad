package models

import (
	"strings"
	"time"

	"github.com/chatsweep/chatsweep/internal/constants"
)

// Conversation is one conversation record as held in memory. The ID is the
// sole identity: it is stable, opaque, and unique within the backend.
type Conversation struct {
	ID        string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
	Archived  bool

	// Derived flags, recomputed whenever the record is built from the wire.
	IsNew            bool
	RecentlyModified bool
}

// WireConversation is the backend's JSON shape for a single conversation.
type WireConversation struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	CreateTime string `json:"create_time"`
	UpdateTime string `json:"update_time"`
	IsArchived bool   `json:"is_archived"`
}

// WireConversationPage is the backend's paginated listing response.
type WireConversationPage struct {
	Items  []WireConversation `json:"items"`
	Total  int                `json:"total"`
	Offset int                `json:"offset"`
	Limit  int                `json:"limit"`
}

// ConversationFromWire maps a wire record to the domain representation,
// computing recency flags relative to now. Unparseable timestamps come out as
// zero times, which never count as recent.
func ConversationFromWire(w WireConversation, now time.Time) Conversation {
	created := parseWireTime(w.CreateTime)
	updated := parseWireTime(w.UpdateTime)

	return Conversation{
		ID:               w.ID,
		Title:            w.Title,
		CreatedAt:        created,
		UpdatedAt:        updated,
		Archived:         w.IsArchived,
		IsNew:            withinRecentWindow(created, now),
		RecentlyModified: withinRecentWindow(updated, now),
	}
}

// parseWireTime parses the backend's timestamp format. The backend emits
// RFC3339 with fractional seconds; plain RFC3339 is accepted as a fallback.
func parseWireTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}

func withinRecentWindow(t, now time.Time) bool {
	if t.IsZero() {
		return false
	}
	// Slightly-future timestamps (clock skew) count as recent.
	return now.Sub(t) <= constants.RecentWindow
}

// MatchesSearch reports whether the conversation matches a case-insensitive
// substring search against title and id. An empty term matches everything.
func (c Conversation) MatchesSearch(term string) bool {
	if term == "" {
		return true
	}
	needle := strings.ToLower(term)
	return strings.Contains(strings.ToLower(c.Title), needle) ||
		strings.Contains(strings.ToLower(c.ID), needle)
}
