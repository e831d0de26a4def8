package auction

import (
	"math/rand"
	"slices"
	"testing"
)

func TestRotation_TurnOrder(t *testing.T) {
	r := newRotation([]string{"a", "b", "c"}, rand.New(rand.NewSource(1)))

	if got := len(r.Active()); got != 3 {
		t.Fatalf("active count = %d, want 3", got)
	}
	for _, id := range []string{"a", "b", "c"} {
		if !slices.Contains(r.TeamIDs, id) {
			t.Fatalf("rotation %v missing team %q", r.TeamIDs, id)
		}
	}

	// The turn pointer cycles through admission order.
	seen := make([]string, 0, 4)
	for range 4 {
		seen = append(seen, r.CurrentTeamID())
		r = r.advanced()
	}
	if seen[3] != seen[0] {
		t.Errorf("turn order %v, want wrap-around after three teams", seen)
	}
	if seen[0] == seen[1] || seen[1] == seen[2] {
		t.Errorf("turn order %v, want distinct consecutive teams", seen)
	}
}

func TestRotation_DroppingKeepsPositions(t *testing.T) {
	r := Rotation{TeamIDs: []string{"a", "b", "c"}}

	r = r.dropping("b")
	if got := r.Active(); !slices.Equal(got, []string{"a", "c"}) {
		t.Errorf("active after drop = %v, want [a c]", got)
	}
	if !slices.Equal(r.TeamIDs, []string{"a", "b", "c"}) {
		t.Errorf("admission order = %v, want unchanged", r.TeamIDs)
	}
	if !r.HasDropped("b") || r.HasDropped("a") {
		t.Error("dropped set does not track b alone")
	}
}

func TestRotation_TurnClampAfterDrop(t *testing.T) {
	// Turn points at the last active slot; dropping that team must wrap
	// the pointer instead of indexing past the shrunken list.
	r := Rotation{TeamIDs: []string{"a", "b", "c"}, Turn: 2}
	if got := r.CurrentTeamID(); got != "c" {
		t.Fatalf("current = %q, want c", got)
	}
	r = r.dropping("c")
	if got := r.CurrentTeamID(); got != "a" {
		t.Errorf("current after dropping c = %q, want a", got)
	}
}

func TestRotation_AllDropped(t *testing.T) {
	r := Rotation{TeamIDs: []string{"a"}}
	r = r.dropping("a")
	if got := r.CurrentTeamID(); got != "" {
		t.Errorf("current with no active teams = %q, want empty", got)
	}
	r = r.advanced()
	if got := r.CurrentTeamID(); got != "" {
		t.Errorf("current after advance with no active teams = %q, want empty", got)
	}
}
