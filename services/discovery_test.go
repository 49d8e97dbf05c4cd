package services

import (
	"reflect"
	"testing"
)

func TestDiffFirstRun(t *testing.T) {
	newIDs, known := DiscoveryDiffer{}.Diff([]string{"b", "a", "a"}, nil)
	if !reflect.DeepEqual(newIDs, []string{"a", "b"}) {
		t.Errorf("newIDs: got %v, want [a b]", newIDs)
	}
	if !reflect.DeepEqual(known, []string{"a", "b"}) {
		t.Errorf("known: got %v, want [a b]", known)
	}
}

func TestDiffKeepsVanishedIDs(t *testing.T) {
	newIDs, known := DiscoveryDiffer{}.Diff([]string{"c"}, []string{"a", "b"})
	if !reflect.DeepEqual(newIDs, []string{"c"}) {
		t.Errorf("newIDs: got %v, want [c]", newIDs)
	}
	if !reflect.DeepEqual(known, []string{"a", "b", "c"}) {
		t.Errorf("known set must never shrink, got %v", known)
	}
}

func TestDiffIdempotent(t *testing.T) {
	current := []string{"1", "2", "3"}
	_, known := DiscoveryDiffer{}.Diff(current, []string{"0"})

	newIDs, known2 := DiscoveryDiffer{}.Diff(current, known)
	if len(newIDs) != 0 {
		t.Errorf("second diff should find nothing new, got %v", newIDs)
	}
	if !reflect.DeepEqual(known, known2) {
		t.Errorf("known set changed on rerun: %v -> %v", known, known2)
	}
}

func TestDiffMonotonic(t *testing.T) {
	cases := []struct{ current, known []string }{
		{nil, []string{"x"}},
		{[]string{"y"}, []string{"x"}},
		{[]string{"x", "y"}, []string{"x", "z"}},
		{nil, nil},
	}
	for _, c := range cases {
		_, updated := DiscoveryDiffer{}.Diff(c.current, c.known)
		set := make(map[string]bool, len(updated))
		for _, id := range updated {
			set[id] = true
		}
		for _, id := range c.known {
			if !set[id] {
				t.Errorf("Diff(%v, %v): known id %q dropped", c.current, c.known, id)
			}
		}
	}
}
