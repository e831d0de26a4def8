package auction

import (
	"math/rand"
	"slices"
)

// Rotation is the ordered set of teams admitted to the current round and
// the subset that has dropped out. Dropped teams are tracked by
// subtraction rather than removal so original positions stay stable and
// the board can render "in" vs "out" membership.
type Rotation struct {
	TeamIDs []string `json:"team_ids"`
	Dropped []string `json:"dropped"`
	Turn    int      `json:"turn"`
}

// newRotation admits the given team ids in uniformly shuffled order.
func newRotation(teamIDs []string, rng *rand.Rand) Rotation {
	ids := slices.Clone(teamIDs)
	rng.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
	return Rotation{TeamIDs: ids}
}

// Active returns the ids still able to act, in admission order.
func (r Rotation) Active() []string {
	active := make([]string, 0, len(r.TeamIDs))
	for _, id := range r.TeamIDs {
		if !slices.Contains(r.Dropped, id) {
			active = append(active, id)
		}
	}
	return active
}

// HasDropped reports whether the team has dropped out of the round.
func (r Rotation) HasDropped(id string) bool {
	return slices.Contains(r.Dropped, id)
}

// CurrentTeamID returns the id of the team whose turn it is, or "" when
// no team remains active.
func (r Rotation) CurrentTeamID() string {
	active := r.Active()
	if len(active) == 0 {
		return ""
	}
	return active[r.Turn%len(active)]
}

// advanced moves the turn pointer to the next active team.
func (r Rotation) advanced() Rotation {
	if n := len(r.Active()); n > 0 {
		r.Turn = (r.Turn + 1) % n
	}
	return r
}

// dropping adds id to the dropped set and renormalizes the turn pointer
// against the shrunken active count.
func (r Rotation) dropping(id string) Rotation {
	r.Dropped = append(slices.Clone(r.Dropped), id)
	r.Turn = r.Turn % max(len(r.Active()), 1)
	return r
}
