package auction

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jensholdgaard/discord-auction-bot/internal/event"
)

// roundOpenLocked checks that a player is up for bidding and not yet sold.
func (e *Engine) roundOpenLocked() error {
	if !e.started {
		return ErrNotStarted
	}
	if e.round == nil {
		return ErrNoActiveRound
	}
	if e.round.PlayerSold {
		return ErrPlayerSold
	}
	if e.round.Resolved {
		return ErrRoundResolved
	}
	return nil
}

// PlaceBid applies a bid by the team whose turn it is (rotation mode).
// The first accepted bid commits at the opening price; later bids raise
// by the increment in effect. A team that cannot afford the next price
// is dropped automatically, which may cascade into an automatic sale or
// unsold outcome.
func (e *Engine) PlaceBid(ctx context.Context) (Outcome, error) {
	_, span := tracer.Start(ctx, "Engine.PlaceBid")
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.mode != ModeRotation {
		return Outcome{}, ErrWrongMode
	}
	if err := e.roundOpenLocked(); err != nil {
		return Outcome{}, err
	}

	teamID := e.round.Rotation.CurrentTeamID()
	if teamID == "" {
		return Outcome{}, ErrNoEligibleTeams
	}
	team := e.teamByID(teamID)
	if team == nil {
		return Outcome{}, ErrUnknownTeam
	}
	span.SetAttributes(attribute.String("team.id", teamID))

	price := e.nextPrice()
	if team.RemainingBudget < price {
		// Affordability is not an error in rotation mode: the team is
		// dropped in place of its bid.
		return e.dropCurrentLocked(true)
	}

	e.round.LeaderID = team.ID
	e.round.Price = price
	e.round.Rotation = e.round.Rotation.advanced()

	data, _ := json.Marshal(event.BidPlacedData{TeamID: team.ID, Price: price})
	e.recordEvent(event.BidPlaced, data)

	return Outcome{
		Kind:       OutcomeBidPlaced,
		PlayerID:   e.round.Player.ID,
		PlayerName: e.round.Player.Name,
		TeamID:     team.ID,
		TeamName:   team.Name,
		Price:      price,
	}, nil
}

// Drop removes the team whose turn it is from the rotation (rotation
// mode).
func (e *Engine) Drop(ctx context.Context) (Outcome, error) {
	_, span := tracer.Start(ctx, "Engine.Drop")
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.mode != ModeRotation {
		return Outcome{}, ErrWrongMode
	}
	if err := e.roundOpenLocked(); err != nil {
		return Outcome{}, err
	}
	return e.dropCurrentLocked(false)
}

// dropCurrentLocked drops the team on turn and resolves the special
// cases: one active team left with a standing bid sells automatically;
// no active teams left with no bid marks the player unsold.
func (e *Engine) dropCurrentLocked(auto bool) (Outcome, error) {
	teamID := e.round.Rotation.CurrentTeamID()
	if teamID == "" {
		return Outcome{}, ErrNoEligibleTeams
	}
	team := e.teamByID(teamID)

	e.round.Rotation = e.round.Rotation.dropping(teamID)
	data, _ := json.Marshal(event.TeamDroppedData{TeamID: teamID, Auto: auto})
	e.recordEvent(event.TeamDropped, data)

	active := e.round.Rotation.Active()
	leader := e.leader()

	if len(active) == 1 && leader != nil {
		out := e.sellLocked(true)
		out.DroppedTeamID = teamID
		out.DroppedTeamName = team.Name
		return out, nil
	}
	if len(active) == 0 && leader == nil {
		out := e.unsoldLocked(true)
		out.DroppedTeamID = teamID
		out.DroppedTeamName = team.Name
		return out, nil
	}

	kind := OutcomeDropped
	if auto {
		kind = OutcomeAutoDropped
	}
	return Outcome{
		Kind:            kind,
		PlayerID:        e.round.Player.ID,
		PlayerName:      e.round.Player.Name,
		Price:           e.round.Price,
		DroppedTeamID:   teamID,
		DroppedTeamName: team.Name,
	}, nil
}

// BidByTeam applies a direct bid by the named team (direct mode). The
// bid is rejected without any state change when the team's roster is
// full or the next price exceeds its remaining budget.
func (e *Engine) BidByTeam(ctx context.Context, teamID string) (Outcome, error) {
	_, span := tracer.Start(ctx, "Engine.BidByTeam",
		trace.WithAttributes(attribute.String("team.id", teamID)),
	)
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.mode != ModeDirect {
		return Outcome{}, ErrWrongMode
	}
	if err := e.roundOpenLocked(); err != nil {
		return Outcome{}, err
	}

	team := e.teamByID(teamID)
	if team == nil {
		return Outcome{}, ErrUnknownTeam
	}
	if team.IsFull() {
		return Outcome{}, ErrTeamFull
	}

	price := e.nextPrice()
	if team.RemainingBudget < price {
		return Outcome{}, ErrCannotAfford
	}

	e.round.LeaderID = team.ID
	e.round.Price = price

	data, _ := json.Marshal(event.BidPlacedData{TeamID: team.ID, Price: price})
	e.recordEvent(event.BidPlaced, data)

	return Outcome{
		Kind:       OutcomeBidPlaced,
		PlayerID:   e.round.Player.ID,
		PlayerName: e.round.Player.Name,
		TeamID:     team.ID,
		TeamName:   team.Name,
		Price:      price,
	}, nil
}
