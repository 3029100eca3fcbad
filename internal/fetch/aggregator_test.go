package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/chatsweep/chatsweep/internal/models"
)

// pagedLister serves a fixed backing slice page by page and records every
// call it receives.
type pagedLister struct {
	mu    sync.Mutex
	items []models.Conversation
	calls [][2]int
	errAt int // fail the nth call (1-based), 0 = never
}

func (p *pagedLister) ListConversations(ctx context.Context, offset, limit int) ([]models.Conversation, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls = append(p.calls, [2]int{offset, limit})
	if p.errAt > 0 && len(p.calls) == p.errAt {
		return nil, errors.New("backend unavailable")
	}
	if offset >= len(p.items) {
		return nil, nil
	}
	end := min(offset+limit, len(p.items))
	page := make([]models.Conversation, end-offset)
	copy(page, p.items[offset:end])
	return page, nil
}

func (p *pagedLister) callLog() [][2]int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][2]int(nil), p.calls...)
}

func makeConversations(n int) []models.Conversation {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	items := make([]models.Conversation, n)
	for i := range items {
		items[i] = models.Conversation{
			ID:        fmt.Sprintf("conv-%03d", i),
			Title:     fmt.Sprintf("Conversation %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
			UpdatedAt: base.Add(time.Duration(i) * time.Hour),
		}
	}
	return items
}

func ids(batch []models.Conversation) []string {
	out := make([]string, len(batch))
	for i, c := range batch {
		out[i] = c.ID
	}
	return out
}

func TestFetchBatchIncremental(t *testing.T) {
	lister := &pagedLister{items: makeConversations(45)}
	a := NewAggregator(lister, 20)
	ctx := context.Background()

	// Three consecutive batches walk the whole history.
	wantSizes := []int{20, 20, 5}
	total := 0
	for i, want := range wantSizes {
		batch, err := a.FetchBatch(ctx, 20, nil, nil)
		if err != nil {
			t.Fatalf("batch %d: FetchBatch() error = %v", i+1, err)
		}
		if len(batch) != want {
			t.Fatalf("batch %d: len = %d, want %d", i+1, len(batch), want)
		}
		total += len(batch)
	}
	if a.HasMore() {
		t.Error("HasMore() = true after final short page")
	}
	if total != 45 {
		t.Errorf("total fetched = %d, want 45", total)
	}

	calls := lister.callLog()
	wantCalls := [][2]int{{0, 20}, {20, 20}, {40, 20}}
	if len(calls) != len(wantCalls) {
		t.Fatalf("lister calls = %v, want %v", calls, wantCalls)
	}
	for i := range wantCalls {
		if calls[i] != wantCalls[i] {
			t.Errorf("call %d = %v, want %v", i+1, calls[i], wantCalls[i])
		}
	}
}

func TestFetchBatchMidPageTruncationRefetches(t *testing.T) {
	lister := &pagedLister{items: makeConversations(20)}
	a := NewAggregator(lister, 20)
	ctx := context.Background()

	// Target below page size: the page is cut mid-way and the cursor does
	// not advance.
	first, err := a.FetchBatch(ctx, 10, nil, nil)
	if err != nil {
		t.Fatalf("FetchBatch() error = %v", err)
	}
	if len(first) != 10 || first[0].ID != "conv-000" || first[9].ID != "conv-009" {
		t.Fatalf("first batch = %v", ids(first))
	}
	if !a.HasMore() {
		t.Fatal("HasMore() = false with half the page unconsumed")
	}

	// The second call refetches the same page; the deduplicator drops the
	// already-admitted prefix and the remainder comes through.
	second, err := a.FetchBatch(ctx, 10, nil, nil)
	if err != nil {
		t.Fatalf("second FetchBatch() error = %v", err)
	}
	if len(second) != 10 || second[0].ID != "conv-010" || second[9].ID != "conv-019" {
		t.Fatalf("second batch = %v", ids(second))
	}

	calls := lister.callLog()
	if calls[0] != calls[1] {
		t.Errorf("second call %v, want refetch of %v", calls[1], calls[0])
	}
}

func TestFetchBatchFilters(t *testing.T) {
	now := time.Now()
	lister := &pagedLister{items: []models.Conversation{
		{ID: "old", CreatedAt: now.Add(-48 * time.Hour), IsNew: false},
		{ID: "fresh", CreatedAt: now.Add(-1 * time.Hour), IsNew: true},
		{ID: "stale", CreatedAt: now.Add(-72 * time.Hour), IsNew: false},
	}}
	a := NewAggregator(lister, 20)

	onlyNew := func(c models.Conversation) bool { return c.IsNew }
	batch, err := a.FetchBatch(context.Background(), 20, []func(models.Conversation) bool{onlyNew}, nil)
	if err != nil {
		t.Fatalf("FetchBatch() error = %v", err)
	}
	if len(batch) != 1 || batch[0].ID != "fresh" {
		t.Errorf("batch = %v, want [fresh]", ids(batch))
	}

	// Filtered-out records were consumed, not deferred: a later call with
	// no filters does not resurface them.
	batch, err = a.FetchBatch(context.Background(), 20, nil, nil)
	if err != nil {
		t.Fatalf("FetchBatch() error = %v", err)
	}
	if len(batch) != 0 {
		t.Errorf("second batch = %v, want empty", ids(batch))
	}
}

func TestFetchBatchIncrementalPartialOnError(t *testing.T) {
	lister := &pagedLister{items: makeConversations(45), errAt: 2}
	a := NewAggregator(lister, 20)

	batch, err := a.FetchBatch(context.Background(), 30, nil, nil)
	if err == nil {
		t.Fatal("FetchBatch() error = nil, want backend error")
	}
	if len(batch) != 20 {
		t.Errorf("partial batch len = %d, want the 20 admitted before the failure", len(batch))
	}
	if !a.HasMore() {
		t.Error("HasMore() = false after a failed page")
	}
}

func TestFetchBatchCollectAllSortsGlobally(t *testing.T) {
	// Page size 1 forces sorting across page boundaries: backend order is
	// 3,1,2 by title but the sorted batch must be globally ordered.
	lister := &pagedLister{items: []models.Conversation{
		{ID: "c", Title: "gamma"},
		{ID: "a", Title: "alpha"},
		{ID: "b", Title: "beta"},
	}}
	a := NewAggregator(lister, 1)

	comparators := models.ComparatorChainFor(models.SortByTitle, models.SortDescending)
	batch, err := a.FetchBatch(context.Background(), 3, nil, comparators)
	if err != nil {
		t.Fatalf("FetchBatch() error = %v", err)
	}
	want := []string{"c", "b", "a"}
	got := ids(batch)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sorted batch = %v, want %v", got, want)
		}
	}
	if a.HasMore() {
		t.Error("HasMore() = true after admitting the full set")
	}
}

func TestFetchBatchCollectAllKeepsRemainderUnseen(t *testing.T) {
	lister := &pagedLister{items: makeConversations(5)}
	a := NewAggregator(lister, 20)

	comparators := models.ComparatorChainFor(models.SortByCreated, models.SortAscending)
	batch, err := a.FetchBatch(context.Background(), 3, nil, comparators)
	if err != nil {
		t.Fatalf("FetchBatch() error = %v", err)
	}
	if len(batch) != 3 {
		t.Fatalf("batch len = %d, want 3", len(batch))
	}
	if !a.HasMore() {
		t.Fatal("HasMore() = false with two admissible records remaining")
	}

	rest, err := a.FetchBatch(context.Background(), 3, nil, comparators)
	if err != nil {
		t.Fatalf("second FetchBatch() error = %v", err)
	}
	if got := ids(rest); len(got) != 2 || got[0] != "conv-003" || got[1] != "conv-004" {
		t.Errorf("remainder = %v, want [conv-003 conv-004]", got)
	}
	if a.HasMore() {
		t.Error("HasMore() = true after the remainder was admitted")
	}
}

func TestFetchBatchCollectAllErrorAdmitsNothing(t *testing.T) {
	lister := &pagedLister{items: makeConversations(3), errAt: 1}
	a := NewAggregator(lister, 1)

	comparators := models.ComparatorChainFor(models.SortByTitle, models.SortAscending)
	batch, err := a.FetchBatch(context.Background(), 3, nil, comparators)
	if err == nil {
		t.Fatal("FetchBatch() error = nil, want backend error")
	}
	if len(batch) != 0 {
		t.Errorf("batch = %v, want empty on collect-all error", ids(batch))
	}

	// Nothing was admitted, so a retry surfaces everything.
	batch, err = a.FetchBatch(context.Background(), 3, nil, comparators)
	if err != nil {
		t.Fatalf("retry FetchBatch() error = %v", err)
	}
	if len(batch) != 3 {
		t.Errorf("retry batch len = %d, want 3", len(batch))
	}
}

func TestFetchBatchNonPositiveTarget(t *testing.T) {
	lister := &pagedLister{items: makeConversations(3)}
	a := NewAggregator(lister, 20)

	batch, err := a.FetchBatch(context.Background(), 0, nil, nil)
	if err != nil || batch != nil {
		t.Errorf("FetchBatch(0) = (%v, %v), want (nil, nil)", batch, err)
	}
	if got := len(lister.callLog()); got != 0 {
		t.Errorf("lister calls = %d, want 0", got)
	}
}

func TestFetchBatchEmptyHistory(t *testing.T) {
	lister := &pagedLister{}
	a := NewAggregator(lister, 20)

	batch, err := a.FetchBatch(context.Background(), 20, nil, nil)
	if err != nil {
		t.Fatalf("FetchBatch() error = %v", err)
	}
	if len(batch) != 0 {
		t.Errorf("batch len = %d, want 0", len(batch))
	}
	if a.HasMore() {
		t.Error("HasMore() = true on empty history")
	}
}

func TestResetStartsFreshSession(t *testing.T) {
	lister := &pagedLister{items: makeConversations(5)}
	a := NewAggregator(lister, 20)
	ctx := context.Background()

	first, _ := a.FetchBatch(ctx, 20, nil, nil)
	if len(first) != 5 {
		t.Fatalf("first batch len = %d, want 5", len(first))
	}

	a.Reset()
	if !a.HasMore() {
		t.Error("HasMore() = false after Reset")
	}
	again, err := a.FetchBatch(ctx, 20, nil, nil)
	if err != nil {
		t.Fatalf("FetchBatch() after Reset error = %v", err)
	}
	if len(again) != 5 {
		t.Errorf("post-reset batch len = %d, want 5 (seen set must be cleared)", len(again))
	}
}
