// Package auction implements the live bidding engine: turn rotation,
// bid resolution, sale/unsold outcomes and player sequencing for a
// single auction session.
package auction

import (
	"encoding/json"
	"errors"
	"math/rand"
	"sync"

	"go.opentelemetry.io/otel"

	"github.com/jensholdgaard/discord-auction-bot/internal/event"
	"github.com/jensholdgaard/discord-auction-bot/internal/roster"
)

var tracer = otel.Tracer("github.com/jensholdgaard/discord-auction-bot/internal/auction")

// Errors returned by engine operations. All of them leave state untouched.
var (
	ErrNotStarted       = errors.New("auction has not started")
	ErrRoundInProgress  = errors.New("a player is already up for bidding")
	ErrNoActiveRound    = errors.New("no player is up for bidding")
	ErrPlayerSold       = errors.New("current player is sold; pull the next player")
	ErrRoundResolved    = errors.New("bidding on this player has closed")
	ErrNoLeader         = errors.New("no leading bid")
	ErrWrongMode        = errors.New("action not available in this bidding mode")
	ErrNoEligibleTeams  = errors.New("no teams are eligible to bid")
	ErrUnknownTeam      = errors.New("unknown team")
	ErrTeamFull         = errors.New("team roster is full")
	ErrCannotAfford     = errors.New("not enough budget for the next bid")
	ErrNothingToUndo    = errors.New("nothing to undo")
	ErrPoolNotExhausted = errors.New("available players remain")
	ErrNoUnsoldPlayers  = errors.New("no unsold players to re-auction")
	ErrInvalidIncrement = errors.New("increment must be positive")
)

// Mode selects the bidding protocol for the session.
type Mode string

const (
	// ModeRotation rotates turns among admitted teams; the team on turn
	// bids or drops.
	ModeRotation Mode = "rotation"
	// ModeDirect lets any eligible team bid at any moment; the last
	// accepted bid leads.
	ModeDirect Mode = "direct"
)

// ParseMode validates a bid mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeRotation, ModeDirect:
		return Mode(s), nil
	}
	return "", errors.New("bid mode must be \"rotation\" or \"direct\"")
}

// Round is the transient state for the player currently under the hammer.
// It is created when a player is put up and replaced when the next player
// is pulled.
type Round struct {
	Player      *roster.Player
	Price       int
	LeaderID    string
	Rotation    Rotation
	PlayerSold  bool
	Resolved    bool
	UnsoldRound bool
}

// Engine owns all mutable auction state: the team list, the player pool
// and the current round. Every operation is applied atomically under one
// mutex; no caller can observe a partially applied transition. Randomness
// is injected so rotation order and player selection are reproducible.
type Engine struct {
	mu sync.Mutex

	id        string
	mode      Mode
	basePrice int
	increment int

	teams   []*roster.Team
	players []*roster.Player

	round   *Round
	started bool
	active  bool

	undo    *undoRecord
	version int
	pending []event.Event

	rng *rand.Rand
}

// Config carries the session parameters for a new Engine.
type Config struct {
	Mode      Mode
	BasePrice int
	Increment int
}

// NewEngine creates an engine for one auction session.
func NewEngine(id string, cfg Config, rng *rand.Rand) *Engine {
	return &Engine{
		id:        id,
		mode:      cfg.Mode,
		basePrice: cfg.BasePrice,
		increment: cfg.Increment,
		rng:       rng,
	}
}

// ID returns the session id used as the event aggregate id.
func (e *Engine) ID() string { return e.id }

// Mode returns the configured bidding protocol.
func (e *Engine) Mode() Mode { return e.mode }

// Started reports whether the auction has started, which locks roster
// setup edits for the rest of the session.
func (e *Engine) Started() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.started
}

// SetPool replaces the team list and player pool. Rejected once the
// auction has started.
func (e *Engine) SetPool(teams []*roster.Team, players []*roster.Player) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return ErrRoundInProgress
	}
	e.teams = teams
	e.players = players
	return nil
}

// SetIncrement changes the bid increment. It takes effect on the next
// bid. A zero increment would let bids repeat at the same price, so
// only positive values are accepted.
func (e *Engine) SetIncrement(n int) error {
	if n <= 0 {
		return ErrInvalidIncrement
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.increment = n
	data, _ := json.Marshal(event.IncrementChangedData{Increment: n})
	e.recordEvent(event.IncrementChanged, data)
	return nil
}

// Increment returns the increment currently in effect.
func (e *Engine) Increment() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.increment
}

// Version returns the count of recorded transitions. A scheduled
// follow-up action captured at version v must be discarded when the
// engine has moved past v.
func (e *Engine) Version() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.version
}

// PendingEvents returns uncommitted events and clears the buffer.
func (e *Engine) PendingEvents() []event.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	events := e.pending
	e.pending = nil
	return events
}

func (e *Engine) recordEvent(t event.Type, data json.RawMessage) {
	e.version++
	e.pending = append(e.pending, event.Event{
		AggregateID: e.id,
		Type:        t,
		Data:        data,
		Version:     e.version,
	})
}

// teamByID returns the team with the given id, or nil.
func (e *Engine) teamByID(id string) *roster.Team {
	for _, t := range e.teams {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// playerByID returns the pool player with the given id, or nil.
func (e *Engine) playerByID(id string) *roster.Player {
	for _, p := range e.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// eligibleTeamIDs returns ids of teams with open roster slots.
func (e *Engine) eligibleTeamIDs() []string {
	var ids []string
	for _, t := range e.teams {
		if !t.IsFull() {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// leader returns the leading team of the current round, or nil.
func (e *Engine) leader() *roster.Team {
	if e.round == nil || e.round.LeaderID == "" {
		return nil
	}
	return e.teamByID(e.round.LeaderID)
}

// nextPrice computes the price the next accepted bid would commit to:
// the opening price while nobody leads, current price plus increment
// afterwards.
func (e *Engine) nextPrice() int {
	if e.round.LeaderID == "" {
		return e.round.Price
	}
	return e.round.Price + e.increment
}
