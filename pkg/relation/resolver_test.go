package relation

import "testing"

type mergeableSet struct {
	items map[string]bool
}

func (m mergeableSet) EqualValue(other Value) bool {
	o, ok := other.(mergeableSet)
	if !ok || len(o.items) != len(m.items) {
		return false
	}
	for k := range m.items {
		if !o.items[k] {
			return false
		}
	}
	return true
}

func (m mergeableSet) MergeWith(base, theirs Value) (Value, bool) {
	b, ok1 := base.(mergeableSet)
	t, ok2 := theirs.(mergeableSet)
	if !ok1 || !ok2 {
		return nil, false
	}
	// Mergeable unless both sides added the same item.
	mineAdded := diff(m.items, b.items)
	theirAdded := diff(t.items, b.items)
	for k := range mineAdded {
		if theirAdded[k] {
			return nil, false
		}
	}
	merged := map[string]bool{}
	for k := range b.items {
		merged[k] = true
	}
	for k := range mineAdded {
		merged[k] = true
	}
	for k := range theirAdded {
		merged[k] = true
	}
	return mergeableSet{items: merged}, true
}

func diff(a, b map[string]bool) map[string]bool {
	out := map[string]bool{}
	for k := range a {
		if !b[k] {
			out[k] = true
		}
	}
	return out
}

func TestSmartMergeReconcilesDisjointAdditions(t *testing.T) {
	base := mergeableSet{items: map[string]bool{"a": true}}
	mine := mergeableSet{items: map[string]bool{"a": true, "b": true}}
	theirs := mergeableSet{items: map[string]bool{"a": true, "c": true}}

	res := SmartMerge{}.Resolve(&Conflict{}, base, theirs, mine)
	if res.Decision != DecisionAccept {
		t.Fatalf("expected merge to succeed, got abort")
	}
	merged := res.Resolved.(mergeableSet)
	for _, want := range []string{"a", "b", "c"} {
		if !merged.items[want] {
			t.Fatalf("merged set missing %q", want)
		}
	}
}

func TestSmartMergeAbortsOnOverlappingAdditions(t *testing.T) {
	base := mergeableSet{items: map[string]bool{"a": true}}
	mine := mergeableSet{items: map[string]bool{"a": true, "b": true}}
	theirs := mergeableSet{items: map[string]bool{"a": true, "b": true, "c": true}}

	res := SmartMerge{}.Resolve(&Conflict{}, base, theirs, mine)
	if res.Decision != DecisionAbort {
		t.Fatalf("expected abort, merge should not reconcile overlapping additions silently")
	}
}
