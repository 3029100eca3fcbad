package models

import "strings"

// RecencyFilter narrows fetched conversations by activity recency.
type RecencyFilter string

const (
	// FilterNew keeps conversations created within the recent window.
	FilterNew RecencyFilter = "new"
	// FilterRecentlyModified keeps conversations updated within the recent window.
	FilterRecentlyModified RecencyFilter = "modified"
	// FilterStale keeps conversations that are neither new nor recently modified.
	FilterStale RecencyFilter = "stale"
)

// ParseRecencyFilter maps a user-supplied string to a RecencyFilter.
func ParseRecencyFilter(s string) (RecencyFilter, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "new":
		return FilterNew, true
	case "modified", "recent", "recently-modified":
		return FilterRecentlyModified, true
	case "stale", "neither", "old":
		return FilterStale, true
	default:
		return "", false
	}
}

// Predicate returns the filter's predicate over a conversation.
func (f RecencyFilter) Predicate() func(Conversation) bool {
	switch f {
	case FilterNew:
		return func(c Conversation) bool { return c.IsNew }
	case FilterRecentlyModified:
		return func(c Conversation) bool { return c.RecentlyModified }
	case FilterStale:
		return func(c Conversation) bool { return !c.IsNew && !c.RecentlyModified }
	default:
		return func(Conversation) bool { return true }
	}
}

// Predicates converts a filter set to its predicate list. A conversation must
// pass every predicate to be admitted; the empty set admits everything.
func Predicates(filters []RecencyFilter) []func(Conversation) bool {
	if len(filters) == 0 {
		return nil
	}
	preds := make([]func(Conversation) bool, 0, len(filters))
	for _, f := range filters {
		preds = append(preds, f.Predicate())
	}
	return preds
}
