// Package state provides the observable conversation list container for
// chatsweep. It owns the fetched collection, selection, search/sort/filter
// configuration and bulk actions, and publishes events on every change so
// any frontend can subscribe and render.
package state

import (
	"github.com/chatsweep/chatsweep/internal/events"
	"github.com/chatsweep/chatsweep/internal/models"
)

// List state event types
const (
	EventListChanged      events.EventType = "conversation_list_changed"
	EventListLoading      events.EventType = "conversation_list_loading"
	EventListError        events.EventType = "conversation_list_error"
	EventSelectionChanged events.EventType = "selection_changed"
	EventSortChanged      events.EventType = "sort_changed"
	EventSearchCompleted  events.EventType = "search_completed"
)

// ListChangedEvent is published whenever the visible conversation list
// changes: fetch applied, search narrowed, records deleted or flagged.
type ListChangedEvent struct {
	events.BaseEvent
	// Items is the current view projection: search-filtered, sorted,
	// truncated to the display cap.
	Items []models.Conversation
	// Total is the size of the full fetched collection.
	Total int
}

// ListLoadingEvent is published when a fetch orchestration starts or ends.
type ListLoadingEvent struct {
	events.BaseEvent
	Loading bool
}

// ListErrorEvent is published when a fetch orchestration fails.
type ListErrorEvent struct {
	events.BaseEvent
	Err error
}

// SelectionChangedEvent is published when the selection changes.
type SelectionChangedEvent struct {
	events.BaseEvent
	SelectedIDs []string
}

// SortChangedEvent is published when the sort configuration changes.
type SortChangedEvent struct {
	events.BaseEvent
	SortBy    models.SortKey
	Direction models.SortDirection
}

// SearchCompletedEvent is published after a search is applied. Generation
// increases monotonically; consumers that render asynchronously should keep
// only the highest generation they have seen (last write wins).
type SearchCompletedEvent struct {
	events.BaseEvent
	Generation uint64
	Term       string
	Matches    int
}

// NewListChangedEvent creates a ListChangedEvent.
func NewListChangedEvent(items []models.Conversation, total int) *ListChangedEvent {
	return &ListChangedEvent{
		BaseEvent: events.NewBase(EventListChanged),
		Items:     items,
		Total:     total,
	}
}

// NewListLoadingEvent creates a ListLoadingEvent.
func NewListLoadingEvent(loading bool) *ListLoadingEvent {
	return &ListLoadingEvent{
		BaseEvent: events.NewBase(EventListLoading),
		Loading:   loading,
	}
}

// NewListErrorEvent creates a ListErrorEvent.
func NewListErrorEvent(err error) *ListErrorEvent {
	return &ListErrorEvent{
		BaseEvent: events.NewBase(EventListError),
		Err:       err,
	}
}

// NewSelectionChangedEvent creates a SelectionChangedEvent.
func NewSelectionChangedEvent(selectedIDs []string) *SelectionChangedEvent {
	return &SelectionChangedEvent{
		BaseEvent:   events.NewBase(EventSelectionChanged),
		SelectedIDs: selectedIDs,
	}
}

// NewSortChangedEvent creates a SortChangedEvent.
func NewSortChangedEvent(sortBy models.SortKey, dir models.SortDirection) *SortChangedEvent {
	return &SortChangedEvent{
		BaseEvent: events.NewBase(EventSortChanged),
		SortBy:    sortBy,
		Direction: dir,
	}
}

// NewSearchCompletedEvent creates a SearchCompletedEvent.
func NewSearchCompletedEvent(generation uint64, term string, matches int) *SearchCompletedEvent {
	return &SearchCompletedEvent{
		BaseEvent:  events.NewBase(EventSearchCompleted),
		Generation: generation,
		Term:       term,
		Matches:    matches,
	}
}
