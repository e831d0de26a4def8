package auction

import (
	"context"
	"encoding/json"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jensholdgaard/discord-auction-bot/internal/event"
	"github.com/jensholdgaard/discord-auction-bot/internal/roster"
)

// ErrNoAvailablePlayers signals an exhausted available pool.
var ErrNoAvailablePlayers = errors.New("no available players")

// StartAuction begins the session with the first player from the
// available pool. It is callable only while no player is up for bidding,
// and locks roster setup for the rest of the session.
func (e *Engine) StartAuction(ctx context.Context) (*roster.Player, error) {
	_, span := tracer.Start(ctx, "Engine.StartAuction")
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.round != nil {
		return nil, ErrRoundInProgress
	}

	// A failed start must leave the engine unstarted, so the setup
	// commands stay usable. Check the round preconditions before
	// committing to the started state.
	if len(e.poolByStatus(roster.StatusAvailable)) == 0 {
		return nil, ErrNoAvailablePlayers
	}
	if len(e.eligibleTeamIDs()) == 0 {
		return nil, ErrNoEligibleTeams
	}

	if !e.started {
		data, _ := json.Marshal(event.AuctionStartedData{
			BasePrice: e.basePrice,
			Increment: e.increment,
			Mode:      string(e.mode),
			TeamCount: len(e.teams),
			PoolCount: len(e.players),
		})
		e.recordEvent(event.AuctionStarted, data)
		e.started = true
	}

	p, err := e.beginRoundLocked(false)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("player.id", p.ID))
	return p, nil
}

// NextPlayer abandons any current round and pulls the next player: from
// the available pool first, then from the unsold pool, and once both are
// empty the auction goes inactive. A nil player with a nil error means
// the auction is complete.
func (e *Engine) NextPlayer(ctx context.Context) (*roster.Player, error) {
	_, span := tracer.Start(ctx, "Engine.NextPlayer")
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started {
		return nil, ErrNotStarted
	}

	p, err := e.beginRoundLocked(false)
	if errors.Is(err, ErrNoAvailablePlayers) {
		p, err = e.beginRoundLocked(true)
		if errors.Is(err, ErrNoUnsoldPlayers) {
			e.completeLocked()
			return nil, nil
		}
	}
	if errors.Is(err, ErrNoEligibleTeams) {
		// Nobody can bid anymore: equally terminal.
		e.completeLocked()
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// StartUnsoldRound explicitly opens a re-auction pass over the unsold
// players, callable once the available pool is exhausted. Every unsold
// player is admitted to the pass, including players already passed over
// in an earlier unsold round; within one pass each player comes up at
// most once.
func (e *Engine) StartUnsoldRound(ctx context.Context) (*roster.Player, error) {
	_, span := tracer.Start(ctx, "Engine.StartUnsoldRound")
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started {
		return nil, ErrNotStarted
	}
	if len(e.poolByStatus(roster.StatusAvailable)) > 0 {
		return nil, ErrPoolNotExhausted
	}

	unsold := e.poolByStatus(roster.StatusUnsold)
	if len(unsold) == 0 {
		return nil, ErrNoUnsoldPlayers
	}
	// Re-admit everyone; the marker is re-stamped as each player is
	// picked, which is what makes the pass terminate.
	for _, p := range unsold {
		p.UnsoldRound = false
	}

	data, _ := json.Marshal(event.UnsoldRoundStartedData{PlayerCount: len(unsold)})
	e.recordEvent(event.UnsoldRoundStarted, data)

	return e.beginRoundLocked(true)
}

// poolByStatus returns the pool players with the given status.
func (e *Engine) poolByStatus(s roster.Status) []*roster.Player {
	var out []*roster.Player
	for _, p := range e.players {
		if p.Status == s {
			out = append(out, p)
		}
	}
	return out
}

// reauctionPool returns unsold players not yet drawn in the current
// re-auction pass.
func (e *Engine) reauctionPool() []*roster.Player {
	var out []*roster.Player
	for _, p := range e.players {
		if p.Status == roster.StatusUnsold && !p.UnsoldRound {
			out = append(out, p)
		}
	}
	return out
}

// beginRoundLocked selects a player uniformly at random from the
// requested pool and opens a fresh round for it over all teams with
// roster room, in shuffled order.
func (e *Engine) beginRoundLocked(unsoldPool bool) (*roster.Player, error) {
	pool := e.poolByStatus(roster.StatusAvailable)
	if unsoldPool {
		pool = e.reauctionPool()
	}
	if len(pool) == 0 {
		if unsoldPool {
			return nil, ErrNoUnsoldPlayers
		}
		return nil, ErrNoAvailablePlayers
	}

	eligible := e.eligibleTeamIDs()
	if len(eligible) == 0 {
		return nil, ErrNoEligibleTeams
	}

	player := pool[e.rng.Intn(len(pool))]
	if unsoldPool {
		player.UnsoldRound = true
	}

	rotation := newRotation(eligible, e.rng)
	e.round = &Round{
		Player:      player,
		Price:       e.basePrice,
		Rotation:    rotation,
		UnsoldRound: unsoldPool,
	}
	e.active = true

	data, _ := json.Marshal(event.RoundStartedData{
		PlayerID:     player.ID,
		PlayerName:   player.Name,
		OpeningPrice: e.basePrice,
		UnsoldRound:  unsoldPool,
		Rotation:     rotation.TeamIDs,
	})
	e.recordEvent(event.RoundStarted, data)

	return player, nil
}

// completeLocked parks the engine in its terminal informational state.
func (e *Engine) completeLocked() {
	e.round = nil
	e.active = false
	e.recordEvent(event.AuctionCompleted, json.RawMessage(`{}`))
}
