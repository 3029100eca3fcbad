package models

import "testing"

func TestParseRecencyFilter(t *testing.T) {
	tests := []struct {
		input string
		want  RecencyFilter
		ok    bool
	}{
		{"new", FilterNew, true},
		{"Modified", FilterRecentlyModified, true},
		{"recent", FilterRecentlyModified, true},
		{"stale", FilterStale, true},
		{"old", FilterStale, true},
		{"archived", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseRecencyFilter(tt.input)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseRecencyFilter(%q) = (%q, %t), want (%q, %t)", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestPredicates(t *testing.T) {
	fresh := Conversation{ID: "f", IsNew: true, RecentlyModified: true}
	touched := Conversation{ID: "t", IsNew: false, RecentlyModified: true}
	stale := Conversation{ID: "s"}

	passesAll := func(preds []func(Conversation) bool, c Conversation) bool {
		for _, p := range preds {
			if !p(c) {
				return false
			}
		}
		return true
	}

	// Empty set admits everything.
	if preds := Predicates(nil); preds != nil {
		t.Errorf("Predicates(nil) = %v, want nil", preds)
	}

	newOnly := Predicates([]RecencyFilter{FilterNew})
	if !passesAll(newOnly, fresh) || passesAll(newOnly, touched) || passesAll(newOnly, stale) {
		t.Error("FilterNew admitted the wrong set")
	}

	staleOnly := Predicates([]RecencyFilter{FilterStale})
	if passesAll(staleOnly, fresh) || passesAll(staleOnly, touched) || !passesAll(staleOnly, stale) {
		t.Error("FilterStale admitted the wrong set")
	}

	// AND semantics: new AND modified excludes the merely-touched.
	both := Predicates([]RecencyFilter{FilterNew, FilterRecentlyModified})
	if !passesAll(both, fresh) || passesAll(both, touched) {
		t.Error("combined filters must AND")
	}
}
