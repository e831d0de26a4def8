// Package roster holds the player and team entities the auction drafts
// over, plus their invariant helpers. It has no behavior of its own:
// all mutation happens through the auction engine and the roster manager.
package roster

import "fmt"

// Role classifies a player in the pool.
type Role string

const (
	RoleBatsman      Role = "Batsman"
	RoleBowler       Role = "Bowler"
	RoleAllRounder   Role = "All-Rounder"
	RoleWicketKeeper Role = "Wicket-Keeper"
)

// Roles lists every valid role.
var Roles = []Role{RoleBatsman, RoleBowler, RoleAllRounder, RoleWicketKeeper}

// ParseRole validates a role string.
func ParseRole(s string) (Role, error) {
	for _, r := range Roles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Status is a player's auction status.
type Status string

const (
	StatusAvailable Status = "available"
	StatusSold      Status = "sold"
	StatusUnsold    Status = "unsold"
)

// Player is one entry in the auction pool. SoldPrice and SoldTo are set
// iff Status == StatusSold. UnsoldRound marks a player pulled during a
// re-auction pass; it is a display hint, not a status.
type Player struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Role        Role   `json:"role"`
	Status      Status `json:"status"`
	SoldPrice   int    `json:"sold_price,omitempty"`
	SoldTo      string `json:"sold_to,omitempty"`
	UnsoldRound bool   `json:"unsold_round,omitempty"`
}

// Team is a franchise bidding in the auction. Players holds acquired
// players in acquisition order.
type Team struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Captain         string   `json:"captain"`
	Color           string   `json:"color"`
	Budget          int      `json:"budget"`
	RemainingBudget int      `json:"remaining_budget"`
	MaxSize         int      `json:"max_size"`
	Players         []Player `json:"players"`
}

// IsFull reports whether the roster has no open slots.
func (t *Team) IsFull() bool { return len(t.Players) >= t.MaxSize }

// SlotsRemaining returns the number of open roster slots.
func (t *Team) SlotsRemaining() int {
	if n := t.MaxSize - len(t.Players); n > 0 {
		return n
	}
	return 0
}

// MaxBid returns the advisory bid ceiling for the team: enough budget is
// reserved to fill every other open slot at the base price. It is display
// guidance only, never enforced on a single bid.
func (t *Team) MaxBid(basePrice int) int {
	if t.IsFull() {
		return 0
	}
	reserve := (t.SlotsRemaining() - 1) * basePrice
	if max := t.RemainingBudget - reserve; max > 0 {
		return max
	}
	return 0
}

// Colors is the fixed palette assigned to teams round-robin at creation.
var Colors = []string{
	"#3b82f6", "#ef4444", "#22c55e", "#f59e0b",
	"#8b5cf6", "#ec4899", "#06b6d4", "#f97316",
}

// ColorFor returns the palette color for the nth registered team.
func ColorFor(n int) string { return Colors[n%len(Colors)] }
