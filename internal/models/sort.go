package models

import (
	"strings"
	"time"
)

// SortKey selects the field conversations are ordered by.
type SortKey string

const (
	// SortNone leaves conversations in backend (insertion) order.
	SortNone SortKey = ""
	// SortByCreated orders by creation time.
	SortByCreated SortKey = "created"
	// SortByUpdated orders by last update time.
	SortByUpdated SortKey = "updated"
	// SortByTitle orders by title, case-insensitive.
	SortByTitle SortKey = "title"
)

// ParseSortKey maps a user-supplied string to a SortKey.
func ParseSortKey(s string) (SortKey, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return SortNone, true
	case "created", "created_at", "createdat":
		return SortByCreated, true
	case "updated", "updated_at", "updatedat":
		return SortByUpdated, true
	case "title", "name":
		return SortByTitle, true
	default:
		return SortNone, false
	}
}

// SortDirection is ascending or descending.
type SortDirection string

const (
	SortAscending  SortDirection = "asc"
	SortDescending SortDirection = "desc"
)

// Comparator compares two conversations: negative when a orders before b,
// zero when equal under this key, positive otherwise.
type Comparator func(a, b Conversation) int

// CompareChain applies comparators in order; the first non-zero result wins,
// ties fall through to the next comparator.
func CompareChain(chain []Comparator, a, b Conversation) int {
	for _, cmp := range chain {
		if r := cmp(a, b); r != 0 {
			return r
		}
	}
	return 0
}

// ComparatorFor builds the comparator for a sort key and direction.
// SortNone yields nil: no ordering requested.
func ComparatorFor(key SortKey, dir SortDirection) Comparator {
	var cmp Comparator
	switch key {
	case SortByCreated:
		cmp = func(a, b Conversation) int { return compareTimes(a.CreatedAt, b.CreatedAt) }
	case SortByUpdated:
		cmp = func(a, b Conversation) int { return compareTimes(a.UpdatedAt, b.UpdatedAt) }
	case SortByTitle:
		cmp = func(a, b Conversation) int {
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		}
	default:
		return nil
	}
	if dir == SortDescending {
		inner := cmp
		cmp = func(a, b Conversation) int { return -inner(a, b) }
	}
	return cmp
}

// ComparatorChainFor builds the full ordered tie-break chain for a sort key:
// the requested key first, falling back to conversation id so that equal keys
// still order deterministically across page boundaries.
func ComparatorChainFor(key SortKey, dir SortDirection) []Comparator {
	primary := ComparatorFor(key, dir)
	if primary == nil {
		return nil
	}
	byID := func(a, b Conversation) int { return strings.Compare(a.ID, b.ID) }
	return []Comparator{primary, byID}
}

func compareTimes(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}
