// Package fetch implements the paginated, deduplicated, incremental
// conversation fetching that backs the list manager: one-page retrieval
// through a Lister, a seen-set deduplicator, and an aggregator that turns
// page fetches into filtered, optionally globally-sorted batches.
package fetch

import (
	"sync"

	"github.com/chatsweep/chatsweep/internal/models"
)

// Deduplicator tracks which conversation ids have already been surfaced
// during the current fetch session. It only ever grows until Reset.
type Deduplicator struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewDeduplicator creates an empty deduplicator.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{
		seen: make(map[string]struct{}),
	}
}

// Admit returns true and marks the conversation seen if its id is unseen;
// returns false without mutation if already seen. Idempotent per id: the
// first call wins, every later call reports false until Reset.
func (d *Deduplicator) Admit(c models.Conversation) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[c.ID]; ok {
		return false
	}
	d.seen[c.ID] = struct{}{}
	return true
}

// Seen reports whether an id has been admitted, without admitting it.
func (d *Deduplicator) Seen(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, ok := d.seen[id]
	return ok
}

// Reset clears the seen set; every id becomes admittable again.
func (d *Deduplicator) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seen = make(map[string]struct{})
}

// Len returns the number of ids seen this session.
func (d *Deduplicator) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.seen)
}
