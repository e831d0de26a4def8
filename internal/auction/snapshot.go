package auction

import (
	"github.com/jensholdgaard/discord-auction-bot/internal/roster"
)

// TeamView is a team's derived state for display: budget position,
// advisory bid ceiling and rotation membership for the current round.
type TeamView struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Captain         string          `json:"captain"`
	Color           string          `json:"color"`
	Budget          int             `json:"budget"`
	RemainingBudget int             `json:"remaining_budget"`
	MaxSize         int             `json:"max_size"`
	Size            int             `json:"size"`
	MaxBid          int             `json:"max_bid"`
	InRotation      bool            `json:"in_rotation"`
	Dropped         bool            `json:"dropped"`
	Players         []roster.Player `json:"players"`
}

// Snapshot is the read-only view of the whole auction, safe to hand to
// viewers and renderers. It is a deep copy: holders never observe later
// engine transitions through it.
type Snapshot struct {
	Mode        Mode `json:"mode"`
	BasePrice   int  `json:"base_price"`
	Increment   int  `json:"increment"`
	Started     bool `json:"started"`
	Active      bool `json:"active"`
	Complete    bool `json:"complete"`
	PlayerSold  bool `json:"player_sold"`
	Resolved    bool `json:"resolved"`
	UnsoldRound bool `json:"unsold_round"`

	CurrentPlayer *roster.Player `json:"current_player,omitempty"`
	CurrentPrice  int            `json:"current_price"`
	LeaderID      string         `json:"leader_id,omitempty"`
	LeaderName    string         `json:"leader_name,omitempty"`
	// TurnTeamID is the team on turn (rotation mode only).
	TurnTeamID string   `json:"turn_team_id,omitempty"`
	Rotation   []string `json:"rotation,omitempty"`
	Dropped    []string `json:"dropped,omitempty"`

	Teams []TeamView `json:"teams"`

	AvailableCount int `json:"available_count"`
	SoldCount      int `json:"sold_count"`
	UnsoldCount    int `json:"unsold_count"`

	Version int `json:"version"`
}

// Snapshot captures the current derived state under the engine lock.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := Snapshot{
		Mode:      e.mode,
		BasePrice: e.basePrice,
		Increment: e.increment,
		Started:   e.started,
		Active:    e.active,
		Version:   e.version,
	}

	for _, p := range e.players {
		switch p.Status {
		case roster.StatusAvailable:
			snap.AvailableCount++
		case roster.StatusSold:
			snap.SoldCount++
		case roster.StatusUnsold:
			snap.UnsoldCount++
		}
	}
	snap.Complete = e.started && !e.active && e.round == nil && snap.AvailableCount == 0

	if e.round != nil {
		player := *e.round.Player
		snap.CurrentPlayer = &player
		snap.CurrentPrice = e.round.Price
		snap.PlayerSold = e.round.PlayerSold
		snap.Resolved = e.round.Resolved
		snap.UnsoldRound = e.round.UnsoldRound
		snap.Rotation = append([]string(nil), e.round.Rotation.TeamIDs...)
		snap.Dropped = append([]string(nil), e.round.Rotation.Dropped...)
		if e.mode == ModeRotation {
			snap.TurnTeamID = e.round.Rotation.CurrentTeamID()
		}
		if leader := e.leader(); leader != nil {
			snap.LeaderID = leader.ID
			snap.LeaderName = leader.Name
		}
	}

	snap.Teams = make([]TeamView, 0, len(e.teams))
	for _, t := range e.teams {
		view := TeamView{
			ID:              t.ID,
			Name:            t.Name,
			Captain:         t.Captain,
			Color:           t.Color,
			Budget:          t.Budget,
			RemainingBudget: t.RemainingBudget,
			MaxSize:         t.MaxSize,
			Size:            len(t.Players),
			MaxBid:          t.MaxBid(e.basePrice),
			Players:         append([]roster.Player(nil), t.Players...),
		}
		if e.round != nil {
			for _, id := range e.round.Rotation.TeamIDs {
				if id == t.ID {
					view.InRotation = true
					break
				}
			}
			view.Dropped = e.round.Rotation.HasDropped(t.ID)
		}
		snap.Teams = append(snap.Teams, view)
	}

	return snap
}
