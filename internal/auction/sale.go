package auction

import (
	"context"
	"encoding/json"
	"slices"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jensholdgaard/discord-auction-bot/internal/event"
	"github.com/jensholdgaard/discord-auction-bot/internal/roster"
)

// undoRecord snapshots everything the most recent terminal action
// touched: the player, the buying team (sales only) and the full round
// state including rotation membership. Exactly one level is kept.
type undoRecord struct {
	player roster.Player
	teamID string
	team   roster.Team
	round  Round
	active bool
}

// UndoInfo reports what Undo restored so callers can mirror the
// reversal to external stores.
type UndoInfo struct {
	Player roster.Player
	// TeamID and TeamRemaining are set when a sale was reversed.
	TeamID        string
	TeamRemaining int
}

func cloneTeam(t roster.Team) roster.Team {
	t.Players = slices.Clone(t.Players)
	return t
}

func cloneRound(r Round) Round {
	r.Rotation.TeamIDs = slices.Clone(r.Rotation.TeamIDs)
	r.Rotation.Dropped = slices.Clone(r.Rotation.Dropped)
	return r
}

// Sell resolves the round in favor of the current leader: the player is
// stamped sold at the current price, the leader pays and gains the
// player, and the round stays visible in its sold state until the next
// player is pulled.
func (e *Engine) Sell(ctx context.Context) (Outcome, error) {
	_, span := tracer.Start(ctx, "Engine.Sell")
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.roundOpenLocked(); err != nil {
		return Outcome{}, err
	}
	if e.leader() == nil {
		return Outcome{}, ErrNoLeader
	}

	out := e.sellLocked(false)
	span.SetAttributes(
		attribute.String("team.id", out.TeamID),
		attribute.Int("price", out.Price),
	)
	return out, nil
}

// sellLocked applies the sale. Preconditions (open round, leader set)
// are the caller's responsibility.
func (e *Engine) sellLocked(auto bool) Outcome {
	leader := e.leader()
	player := e.round.Player
	price := e.round.Price

	e.undo = &undoRecord{
		player: *player,
		teamID: leader.ID,
		team:   cloneTeam(*leader),
		round:  cloneRound(*e.round),
		active: e.active,
	}

	player.Status = roster.StatusSold
	player.SoldPrice = price
	player.SoldTo = leader.ID

	leader.RemainingBudget -= price
	leader.Players = append(leader.Players, *player)

	e.round.PlayerSold = true
	e.round.Resolved = true

	data, _ := json.Marshal(event.PlayerSoldData{
		PlayerID: player.ID,
		TeamID:   leader.ID,
		Price:    price,
		Auto:     auto,
	})
	e.recordEvent(event.PlayerSold, data)

	kind := OutcomeSold
	if auto {
		kind = OutcomeAutoSold
	}
	return Outcome{
		Kind:          kind,
		PlayerID:      player.ID,
		PlayerName:    player.Name,
		TeamID:        leader.ID,
		TeamName:      leader.Name,
		Price:         price,
		TeamRemaining: leader.RemainingBudget,
		UnsoldRound:   player.UnsoldRound,
	}
}

// MarkUnsold resolves the round with no buyer. The player keeps an
// unsold record until re-auctioned; budgets and rosters are untouched.
// Pulling the next player is left to the caller so any display pause
// stays a cancelable scheduled action, never a wait inside the engine.
func (e *Engine) MarkUnsold(ctx context.Context) (Outcome, error) {
	_, span := tracer.Start(ctx, "Engine.MarkUnsold")
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.roundOpenLocked(); err != nil {
		return Outcome{}, err
	}
	return e.unsoldLocked(false), nil
}

func (e *Engine) unsoldLocked(auto bool) Outcome {
	player := e.round.Player

	e.undo = &undoRecord{
		player: *player,
		round:  cloneRound(*e.round),
		active: e.active,
	}

	player.Status = roster.StatusUnsold
	e.round.Resolved = true

	data, _ := json.Marshal(event.PlayerUnsoldData{PlayerID: player.ID, Auto: auto})
	e.recordEvent(event.PlayerUnsold, data)

	kind := OutcomeUnsold
	if auto {
		kind = OutcomeAutoUnsold
	}
	return Outcome{
		Kind:        kind,
		PlayerID:    player.ID,
		PlayerName:  player.Name,
		Price:       e.round.Price,
		UnsoldRound: player.UnsoldRound,
	}
}

// Undo reverses the most recent sale or unsold resolution, restoring the
// player, the buying team's budget and roster, and the exact round state
// in effect immediately before the action. Only one level is tracked.
func (e *Engine) Undo(ctx context.Context) (UndoInfo, error) {
	_, span := tracer.Start(ctx, "Engine.Undo")
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	u := e.undo
	if u == nil {
		return UndoInfo{}, ErrNothingToUndo
	}
	e.undo = nil

	player := e.playerByID(u.player.ID)
	if player != nil {
		*player = u.player
	}

	info := UndoInfo{Player: u.player}
	if u.teamID != "" {
		if team := e.teamByID(u.teamID); team != nil {
			*team = cloneTeam(u.team)
			info.TeamID = team.ID
			info.TeamRemaining = team.RemainingBudget
		}
	}

	restored := cloneRound(u.round)
	restored.Player = player
	e.round = &restored
	e.active = u.active

	data, _ := json.Marshal(event.SaleUndoneData{PlayerID: u.player.ID})
	e.recordEvent(event.SaleUndone, data)

	return info, nil
}
