package fetch

import (
	"context"
	"sort"
	"sync"

	"github.com/chatsweep/chatsweep/internal/models"
)

// Lister retrieves one page of conversations from the backend.
// A returned page shorter than limit signals the end of the data.
type Lister interface {
	ListConversations(ctx context.Context, offset, limit int) ([]models.Conversation, error)
}

// Aggregator turns page fetches into batches of new, filter-passing
// conversations. With no comparators it streams incrementally, stopping as
// soon as the batch target is met; with comparators it collects the entire
// remaining result set first, because sorting a partial window would
// misorder results across page boundaries.
//
// The aggregator is safe for concurrent use; FetchBatch holds an internal
// lock for its full duration, so overlapping calls serialize.
type Aggregator struct {
	mu       sync.Mutex
	lister   Lister
	dedup    *Deduplicator
	pageSize int
	offset   int
	hasMore  bool
}

// NewAggregator creates an aggregator reading pages of pageSize from lister.
func NewAggregator(lister Lister, pageSize int) *Aggregator {
	if pageSize < 1 {
		pageSize = 1
	}
	return &Aggregator{
		lister:   lister,
		dedup:    NewDeduplicator(),
		pageSize: pageSize,
		hasMore:  true,
	}
}

// NewSession creates a fresh aggregator over the same source: empty seen
// set, rewound cursor, re-armed exhaustion tracking. The receiver is left
// untouched, so a fetch still running against it keeps mutating only its own
// retired session and cannot leak offsets or seen ids into the new one.
func (a *Aggregator) NewSession() *Aggregator {
	return NewAggregator(a.lister, a.pageSize)
}

// Reset starts a fresh fetch session: clears the seen set, rewinds the page
// cursor and re-arms exhaustion tracking.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.dedup.Reset()
	a.offset = 0
	a.hasMore = true
}

// HasMore reports whether the backend may still hold conversations that have
// not been surfaced. False once a fetch observed source exhaustion with no
// admissible records left over.
func (a *Aggregator) HasMore() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.hasMore
}

// FetchBatch produces up to target new (never-before-admitted) conversations
// that pass every filter predicate. An empty comparator chain selects
// incremental mode; a non-empty chain selects collect-all mode with the
// chain as ordered tie-break.
//
// In incremental mode a page error returns the records admitted from earlier
// pages alongside the error, so callers can keep partial progress. In
// collect-all mode nothing is admitted before the full set is sorted, so an
// error returns no records.
func (a *Aggregator) FetchBatch(ctx context.Context, target int, filters []func(models.Conversation) bool, comparators []models.Comparator) ([]models.Conversation, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if target <= 0 {
		return nil, nil
	}

	if len(comparators) == 0 {
		return a.fetchIncremental(ctx, target, filters)
	}
	return a.fetchCollectAll(ctx, target, filters, comparators)
}

// fetchIncremental pages through the backend in offset order, admitting and
// filtering each record immediately.
func (a *Aggregator) fetchIncremental(ctx context.Context, target int, filters []func(models.Conversation) bool) ([]models.Conversation, error) {
	var out []models.Conversation

	for a.hasMore && len(out) < target {
		page, err := a.lister.ListConversations(ctx, a.offset, a.pageSize)
		if err != nil {
			return out, err
		}

		short := len(page) < a.pageSize
		truncated := false
		for _, c := range page {
			if len(out) == target {
				truncated = true
				break
			}
			if !a.dedup.Admit(c) {
				continue
			}
			if passesAll(filters, c) {
				out = append(out, c)
			}
		}

		if truncated {
			// The rest of this page stays unseen; the next call refetches
			// the page and the deduplicator drops the admitted prefix.
			break
		}

		a.offset += len(page)
		if short {
			a.hasMore = false
		}
	}

	return out, nil
}

// fetchCollectAll fetches every remaining page, sorts the whole collected
// set with the comparator chain, then admits in sorted order up to target.
func (a *Aggregator) fetchCollectAll(ctx context.Context, target int, filters []func(models.Conversation) bool, comparators []models.Comparator) ([]models.Conversation, error) {
	var collected []models.Conversation
	offset := a.offset
	for {
		page, err := a.lister.ListConversations(ctx, offset, a.pageSize)
		if err != nil {
			return nil, err
		}
		collected = append(collected, page...)
		if len(page) < a.pageSize {
			break
		}
		offset += len(page)
	}

	sort.SliceStable(collected, func(i, j int) bool {
		return models.CompareChain(comparators, collected[i], collected[j]) < 0
	})

	out := make([]models.Conversation, 0, min(target, len(collected)))
	a.hasMore = false
	for _, c := range collected {
		if len(out) == target {
			// Target met: probe the remainder for anything still admissible
			// without admitting it, so the next call can pick it up.
			if !a.dedup.Seen(c.ID) && passesAll(filters, c) {
				a.hasMore = true
				break
			}
			continue
		}
		if a.dedup.Admit(c) && passesAll(filters, c) {
			out = append(out, c)
		}
	}

	return out, nil
}

func passesAll(filters []func(models.Conversation) bool, c models.Conversation) bool {
	for _, pass := range filters {
		if !pass(c) {
			return false
		}
	}
	return true
}
