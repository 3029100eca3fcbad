package state

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chatsweep/chatsweep/internal/constants"
	"github.com/chatsweep/chatsweep/internal/events"
	"github.com/chatsweep/chatsweep/internal/fetch"
	"github.com/chatsweep/chatsweep/internal/logging"
	"github.com/chatsweep/chatsweep/internal/models"
	"github.com/chatsweep/chatsweep/internal/notify"
)

// Mutator performs single-id remote mutations. Implemented by api.Client.
type Mutator interface {
	DeleteConversation(ctx context.Context, id string) error
	SetConversationArchived(ctx context.Context, id string, archived bool) error
}

// Settings holds the fetch configuration mutated by user action.
type Settings struct {
	// BatchSize is the number of new conversations each load-more targets.
	BatchSize int

	// SortBy and SortDirection select the ordering. SortNone keeps backend
	// order and allows incremental fetching; any other key forces the
	// collect-all strategy.
	SortBy        models.SortKey
	SortDirection models.SortDirection

	// Filters narrow which conversations are ever admitted. Changing them
	// requires a refresh, since records already admitted may no longer pass.
	Filters []models.RecencyFilter
}

// Options configures a ConversationListState.
type Options struct {
	Settings Settings

	// RefreshDebounce is the coalescing window for refresh bursts.
	// Zero selects the default (500ms).
	RefreshDebounce time.Duration
}

// ConversationListState is the observable conversation list container.
//
// It owns the fetched collection, selection and view configuration
// exclusively; all mutation goes through its methods. At most one fetch
// orchestration runs at a time (single-flight), and every orchestration
// carries a session token: results are applied only if their token is still
// current, so the most recently issued fetch always wins and stale results
// are discarded on arrival. Each fetch also runs against the aggregator
// session that was current when it was issued; superseding swaps in a fresh
// session, so a stale fetch can only advance the cursor and seen set of its
// own retired session. In-flight backend calls of superseded sessions are
// not aborted, only ignored.
type ConversationListState struct {
	aggregator *fetch.Aggregator
	mutator    Mutator
	bus        *events.Bus
	notifier   notify.Notifier
	logger     *logging.Logger

	mu           sync.Mutex
	items        []models.Conversation
	index        map[string]int
	selected     map[string]bool
	searchTerm   string
	displayCap   int
	loading      bool
	settings     Settings
	debounce     time.Duration
	refreshTimer *time.Timer
	refreshGen   uint64

	session   atomic.Uint64
	searchGen atomic.Uint64
}

// NewConversationListState creates a list state. aggregator and mutator are
// required; bus, notifier and logger fall back to inert defaults.
func NewConversationListState(aggregator *fetch.Aggregator, mutator Mutator, bus *events.Bus, notifier notify.Notifier, logger *logging.Logger, opts Options) *ConversationListState {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	if notifier == nil {
		notifier = notify.NewLog(logger)
	}
	if bus == nil {
		bus = events.NewBus(0)
	}
	settings := opts.Settings
	if settings.BatchSize < 1 {
		settings.BatchSize = constants.DefaultBatchSize
	}
	debounce := opts.RefreshDebounce
	if debounce <= 0 {
		debounce = constants.DefaultRefreshDebounce
	}

	return &ConversationListState{
		aggregator: aggregator,
		mutator:    mutator,
		bus:        bus,
		notifier:   notifier,
		logger:     logger,
		index:      make(map[string]int),
		selected:   make(map[string]bool),
		settings:   settings,
		debounce:   debounce,
	}
}

// Start resets the collection, selection and deduplication session and
// issues the first load. Non-blocking; completion is signalled on the bus.
func (s *ConversationListState) Start(ctx context.Context) {
	s.mu.Lock()
	s.resetLocked()
	s.searchTerm = ""
	s.aggregator = s.aggregator.NewSession()
	agg := s.aggregator
	token := s.session.Add(1)
	s.loading = true
	target := s.settings.BatchSize
	filters, comparators := s.fetchPlanLocked()
	s.mu.Unlock()

	s.bus.Publish(NewListLoadingEvent(true))
	go s.runFetch(ctx, agg, token, target, filters, comparators)
}

// LoadMore fetches the next batch. No-op while a fetch is in flight
// (single-flight). When the source is exhausted but the display cap still
// hides fetched records, the cap is expanded without any network call.
func (s *ConversationListState) LoadMore(ctx context.Context) {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		s.logger.Debug().Msg("load more ignored: fetch already in flight")
		return
	}

	if !s.aggregator.HasMore() {
		if s.displayCap < len(s.items) {
			s.displayCap = min(s.displayCap+s.settings.BatchSize, len(s.items))
			view, total := s.viewLocked(), len(s.items)
			s.mu.Unlock()
			s.bus.Publish(NewListChangedEvent(view, total))
			return
		}
		s.mu.Unlock()
		return
	}

	agg := s.aggregator
	token := s.session.Add(1)
	s.loading = true
	target := s.settings.BatchSize
	filters, comparators := s.fetchPlanLocked()
	s.mu.Unlock()

	s.bus.Publish(NewListLoadingEvent(true))
	go s.runFetch(ctx, agg, token, target, filters, comparators)
}

// Refresh rebuilds the collection from scratch. Calls are debounced: within
// the coalescing window only the last call of a burst executes, with the
// settings active at that moment. Any in-flight fetch is superseded
// immediately, so its results are discarded on arrival even while the
// debounce timer is still pending.
func (s *ConversationListState) Refresh(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session.Add(1)
	s.refreshGen++
	gen := s.refreshGen

	// Stop-and-recreate rather than Reset: a timer whose function already
	// fired but has not run yet cannot be disarmed, so the generation check
	// in doRefresh is what actually invalidates it.
	if s.refreshTimer != nil {
		s.refreshTimer.Stop()
	}
	s.refreshTimer = time.AfterFunc(s.debounce, func() {
		s.doRefresh(ctx, gen)
	})
}

func (s *ConversationListState) doRefresh(ctx context.Context, gen uint64) {
	s.mu.Lock()
	if gen != s.refreshGen {
		// A newer Refresh re-armed the window after this timer fired.
		s.mu.Unlock()
		return
	}
	s.refreshTimer = nil
	s.resetLocked()
	s.aggregator = s.aggregator.NewSession()
	agg := s.aggregator
	token := s.session.Add(1)
	s.loading = true
	target := s.settings.BatchSize
	filters, comparators := s.fetchPlanLocked()
	view, total := s.viewLocked(), len(s.items)
	s.mu.Unlock()

	s.bus.Publish(NewSelectionChangedEvent(nil))
	s.bus.Publish(NewListChangedEvent(view, total))
	s.bus.Publish(NewListLoadingEvent(true))

	go s.runFetch(ctx, agg, token, target, filters, comparators)
}

// runFetch executes one fetch orchestration against the aggregator session
// bound at issuance and applies its result if the token is still current.
func (s *ConversationListState) runFetch(ctx context.Context, agg *fetch.Aggregator, token uint64, target int, filters []func(models.Conversation) bool, comparators []models.Comparator) {
	batch, err := agg.FetchBatch(ctx, target, filters, comparators)
	s.applyFetch(token, batch, err)
}

// applyFetch is the single point where fetch results meet state. The token
// comparison happens here and nowhere else.
func (s *ConversationListState) applyFetch(token uint64, batch []models.Conversation, err error) {
	s.mu.Lock()
	if token != s.session.Load() {
		s.mu.Unlock()
		s.logger.Debug().Uint64("token", token).Msg("discarding superseded fetch result")
		return
	}

	s.loading = false
	for _, c := range batch {
		if i, ok := s.index[c.ID]; ok {
			s.items[i] = c
			continue
		}
		s.index[c.ID] = len(s.items)
		s.items = append(s.items, c)
	}
	if len(batch) > 0 {
		s.sortItemsLocked()
		s.displayCap = min(s.displayCap+len(batch), len(s.items))
	}
	view, total := s.viewLocked(), len(s.items)
	s.mu.Unlock()

	s.bus.Publish(NewListLoadingEvent(false))
	if err != nil {
		s.bus.Publish(NewListErrorEvent(err))
		s.notifier.Error(fmt.Sprintf("Failed to load conversations: %v", err))
	}
	s.bus.Publish(NewListChangedEvent(view, total))
}

// Search applies a case-insensitive substring match against title and id of
// already-fetched conversations. Purely local and synchronous; no network.
func (s *ConversationListState) Search(term string) {
	s.mu.Lock()
	s.searchTerm = term
	generation := s.searchGen.Add(1)
	view, total := s.viewLocked(), len(s.items)
	s.mu.Unlock()

	s.bus.Publish(NewSearchCompletedEvent(generation, term, len(view)))
	s.bus.Publish(NewListChangedEvent(view, total))
}

// SearchTerm returns the active search term.
func (s *ConversationListState) SearchTerm() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searchTerm
}

// SetSortBy changes the sort key and triggers a debounced refresh: a partial
// collection cannot be re-sorted locally without misordering against rows
// that were never fetched.
func (s *ConversationListState) SetSortBy(ctx context.Context, key models.SortKey) {
	s.mu.Lock()
	s.settings.SortBy = key
	sortBy, dir := s.settings.SortBy, s.settings.SortDirection
	s.mu.Unlock()

	s.bus.Publish(NewSortChangedEvent(sortBy, dir))
	s.Refresh(ctx)
}

// SetSortDirection changes the sort direction and triggers a debounced
// refresh.
func (s *ConversationListState) SetSortDirection(ctx context.Context, dir models.SortDirection) {
	s.mu.Lock()
	s.settings.SortDirection = dir
	sortBy := s.settings.SortBy
	s.mu.Unlock()

	s.bus.Publish(NewSortChangedEvent(sortBy, dir))
	s.Refresh(ctx)
}

// SetFilters changes the recency filters and triggers a debounced refresh:
// records admitted under the old filters may no longer qualify, so the
// session starts over.
func (s *ConversationListState) SetFilters(ctx context.Context, filters []models.RecencyFilter) {
	s.mu.Lock()
	s.settings.Filters = append([]models.RecencyFilter(nil), filters...)
	s.mu.Unlock()

	s.Refresh(ctx)
}

// SetBatchSize changes the load-more batch size for subsequent fetches.
func (s *ConversationListState) SetBatchSize(n int) {
	if n < 1 {
		return
	}
	s.mu.Lock()
	s.settings.BatchSize = n
	s.mu.Unlock()
}

// Settings returns a copy of the current fetch settings.
func (s *ConversationListState) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	settings := s.settings
	settings.Filters = append([]models.RecencyFilter(nil), s.settings.Filters...)
	return settings
}

// HasMore reports whether the backend may still hold unfetched records.
func (s *ConversationListState) HasMore() bool {
	s.mu.Lock()
	agg := s.aggregator
	s.mu.Unlock()
	return agg.HasMore()
}

// IsLoading reports whether a fetch orchestration is in flight.
func (s *ConversationListState) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// View returns the current view projection: search-filtered, sorted,
// truncated to the display cap.
func (s *ConversationListState) View() []models.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Count returns the size of the full fetched collection.
func (s *ConversationListState) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// FindByID returns the conversation with the given id, if fetched.
func (s *ConversationListState) FindByID(id string) (models.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.index[id]; ok {
		return s.items[i], true
	}
	return models.Conversation{}, false
}

// ToggleSelect toggles selection of a fetched conversation. Unknown ids are
// ignored.
func (s *ConversationListState) ToggleSelect(id string) {
	s.mu.Lock()
	if _, ok := s.index[id]; !ok {
		s.mu.Unlock()
		return
	}
	if s.selected[id] {
		delete(s.selected, id)
	} else {
		s.selected[id] = true
	}
	selectedIDs := s.selectedIDsLocked()
	s.mu.Unlock()

	s.bus.Publish(NewSelectionChangedEvent(selectedIDs))
}

// SelectAll selects every id in the current view: the searched, filtered,
// cap-truncated projection, not the full collection. Archived rows in the
// view are included.
func (s *ConversationListState) SelectAll() {
	s.mu.Lock()
	for _, c := range s.viewLocked() {
		s.selected[c.ID] = true
	}
	selectedIDs := s.selectedIDsLocked()
	s.mu.Unlock()

	s.bus.Publish(NewSelectionChangedEvent(selectedIDs))
}

// ClearSelection deselects everything.
func (s *ConversationListState) ClearSelection() {
	s.mu.Lock()
	s.selected = make(map[string]bool)
	s.mu.Unlock()

	s.bus.Publish(NewSelectionChangedEvent(nil))
}

// IsSelected reports whether a conversation is selected.
func (s *ConversationListState) IsSelected(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected[id]
}

// IsAllSelected reports whether the current view is non-empty and every id
// in it is selected.
func (s *ConversationListState) IsAllSelected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := s.viewLocked()
	if len(view) == 0 {
		return false
	}
	for _, c := range view {
		if !s.selected[c.ID] {
			return false
		}
	}
	return true
}

// SelectedIDs returns the selected ids in collection order.
func (s *ConversationListState) SelectedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedIDsLocked()
}

// Delete removes conversations remotely and locally. Per-id calls are
// issued concurrently; on partial failure the succeeded ids stay applied
// and a PartialBulkError names the failures.
func (s *ConversationListState) Delete(ctx context.Context, ids []string) error {
	return s.bulk(ctx, BulkDelete, ids, func(ctx context.Context, id string) error {
		return s.mutator.DeleteConversation(ctx, id)
	})
}

// Archive flags conversations archived remotely and locally. Archived
// records stay in the collection.
func (s *ConversationListState) Archive(ctx context.Context, ids []string) error {
	return s.bulk(ctx, BulkArchive, ids, func(ctx context.Context, id string) error {
		return s.mutator.SetConversationArchived(ctx, id, true)
	})
}

// Unarchive clears the archived flag remotely and locally.
func (s *ConversationListState) Unarchive(ctx context.Context, ids []string) error {
	return s.bulk(ctx, BulkUnarchive, ids, func(ctx context.Context, id string) error {
		return s.mutator.SetConversationArchived(ctx, id, false)
	})
}

func (s *ConversationListState) bulk(ctx context.Context, action BulkAction, ids []string, op func(context.Context, string) error) error {
	if len(ids) == 0 {
		return nil
	}

	// Fire all per-id calls concurrently and await joint completion.
	// One failure does not cancel the others.
	results := make([]error, len(ids))
	var wg sync.WaitGroup
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = op(ctx, ids[i])
		}(i)
	}
	wg.Wait()

	var succeeded []string
	failed := make(map[string]error)
	for i, id := range ids {
		if results[i] != nil {
			failed[id] = results[i]
			continue
		}
		succeeded = append(succeeded, id)
	}

	s.mu.Lock()
	for _, id := range succeeded {
		switch action {
		case BulkDelete:
			s.removeLocked(id)
		case BulkArchive:
			if i, ok := s.index[id]; ok {
				s.items[i].Archived = true
			}
		case BulkUnarchive:
			if i, ok := s.index[id]; ok {
				s.items[i].Archived = false
			}
		}
		delete(s.selected, id)
	}
	view, total := s.viewLocked(), len(s.items)
	selectedIDs := s.selectedIDsLocked()
	s.mu.Unlock()

	s.bus.Publish(NewListChangedEvent(view, total))
	s.bus.Publish(NewSelectionChangedEvent(selectedIDs))

	if len(failed) > 0 {
		err := &PartialBulkError{Action: action, Succeeded: succeeded, Failed: failed}
		s.notifier.Warning(fmt.Sprintf("%d of %d conversations failed to %s", len(failed), len(ids), action))
		return err
	}

	s.notifier.Success(fmt.Sprintf("%d conversation(s) %sd", len(succeeded), action))
	return nil
}

// resetLocked clears the collection, selection and display cap. Callers
// swap in a fresh aggregator session alongside.
func (s *ConversationListState) resetLocked() {
	s.items = nil
	s.index = make(map[string]int)
	s.selected = make(map[string]bool)
	s.displayCap = 0
}

func (s *ConversationListState) fetchPlanLocked() ([]func(models.Conversation) bool, []models.Comparator) {
	return models.Predicates(s.settings.Filters),
		models.ComparatorChainFor(s.settings.SortBy, s.settings.SortDirection)
}

func (s *ConversationListState) sortItemsLocked() {
	comparators := models.ComparatorChainFor(s.settings.SortBy, s.settings.SortDirection)
	if comparators == nil {
		return
	}
	sort.SliceStable(s.items, func(i, j int) bool {
		return models.CompareChain(comparators, s.items[i], s.items[j]) < 0
	})
	for i, c := range s.items {
		s.index[c.ID] = i
	}
}

// viewLocked computes the view projection (must hold lock).
func (s *ConversationListState) viewLocked() []models.Conversation {
	view := make([]models.Conversation, 0, min(s.displayCap, len(s.items)))
	for _, c := range s.items {
		if len(view) == s.displayCap {
			break
		}
		if c.MatchesSearch(s.searchTerm) {
			view = append(view, c)
		}
	}
	return view
}

// selectedIDsLocked returns selected ids in collection order (must hold lock).
func (s *ConversationListState) selectedIDsLocked() []string {
	ids := make([]string, 0, len(s.selected))
	for _, c := range s.items {
		if s.selected[c.ID] {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// removeLocked deletes a conversation from the collection (must hold lock).
func (s *ConversationListState) removeLocked(id string) {
	i, ok := s.index[id]
	if !ok {
		return
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.items); j++ {
		s.index[s.items[j].ID] = j
	}
	if s.displayCap > len(s.items) {
		s.displayCap = len(s.items)
	}
}
