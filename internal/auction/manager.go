package auction

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jensholdgaard/discord-auction-bot/internal/clock"
	"github.com/jensholdgaard/discord-auction-bot/internal/event"
	"github.com/jensholdgaard/discord-auction-bot/internal/roster"
	"github.com/jensholdgaard/discord-auction-bot/internal/store"
)

// Broadcaster receives a fresh snapshot after every applied transition.
// Consumers only ever read derived state; they never feed actions back.
type Broadcaster interface {
	Publish(Snapshot)
}

// ManagerConfig carries the session parameters for a Manager.
type ManagerConfig struct {
	Mode      Mode
	BasePrice int
	Increment int
	// UnsoldAdvanceDelay is the display pause before the next player is
	// pulled automatically after an unsold outcome. Zero disables the
	// automatic advance.
	UnsoldAdvanceDelay time.Duration
	// Seed fixes the random source; zero seeds from the clock.
	Seed int64
}

// Manager coordinates the engine with persistence, telemetry and
// broadcasting. The engine stays authoritative: store writes are a
// best-effort mirror and never gate a transition.
type Manager struct {
	engine    *Engine
	teams     store.TeamRepository
	players   store.PlayerRepository
	events    event.Store
	logger    *slog.Logger
	tracer    trace.Tracer
	clock     clock.Clock
	broadcast Broadcaster

	unsoldDelay time.Duration

	mu      sync.Mutex
	advance clock.Timer
}

// NewManager creates a Manager and its engine for one auction session.
func NewManager(cfg ManagerConfig, teams store.TeamRepository, players store.PlayerRepository, events event.Store, logger *slog.Logger, tp trace.TracerProvider, clk clock.Clock, b Broadcaster) *Manager {
	seed := cfg.Seed
	if seed == 0 {
		seed = clk.Now().UnixNano()
	}
	id := fmt.Sprintf("auction-%d", clk.Now().UnixNano())

	return &Manager{
		engine: NewEngine(id, Config{
			Mode:      cfg.Mode,
			BasePrice: cfg.BasePrice,
			Increment: cfg.Increment,
		}, rand.New(rand.NewSource(seed))),
		teams:       teams,
		players:     players,
		events:      events,
		logger:      logger,
		tracer:      tp.Tracer("github.com/jensholdgaard/discord-auction-bot/internal/auction"),
		clock:       clk,
		broadcast:   b,
		unsoldDelay: cfg.UnsoldAdvanceDelay,
	}
}

// Started reports whether the auction session has started. Roster setup
// is locked from that point on.
func (m *Manager) Started() bool { return m.engine.Started() }

// Snapshot returns the current derived state.
func (m *Manager) Snapshot() Snapshot { return m.engine.Snapshot() }

// StartAuction loads the pool from the store (first start only) and
// puts the first player up for bidding.
func (m *Manager) StartAuction(ctx context.Context) (*roster.Player, error) {
	ctx, span := m.tracer.Start(ctx, "Manager.StartAuction")
	defer span.End()

	m.cancelAdvance()

	if !m.engine.Started() {
		if err := m.loadPool(ctx); err != nil {
			return nil, fmt.Errorf("loading auction pool: %w", err)
		}
	}

	p, err := m.engine.StartAuction(ctx)
	if err != nil {
		return nil, err
	}
	m.commit(ctx)

	m.logger.InfoContext(ctx, "auction started",
		slog.String("auction_id", m.engine.ID()),
		slog.String("player", p.Name),
	)
	return p, nil
}

// NextPlayer abandons the current round and pulls the next player. A
// nil player with nil error means the auction is complete.
func (m *Manager) NextPlayer(ctx context.Context) (*roster.Player, error) {
	ctx, span := m.tracer.Start(ctx, "Manager.NextPlayer")
	defer span.End()

	m.cancelAdvance()

	p, err := m.engine.NextPlayer(ctx)
	m.commit(ctx)
	if err != nil {
		return nil, err
	}
	if p == nil {
		m.logger.InfoContext(ctx, "auction complete", slog.String("auction_id", m.engine.ID()))
		return nil, nil
	}
	return p, nil
}

// StartUnsoldRound opens the re-auction pass over unsold players.
func (m *Manager) StartUnsoldRound(ctx context.Context) (*roster.Player, error) {
	ctx, span := m.tracer.Start(ctx, "Manager.StartUnsoldRound")
	defer span.End()

	m.cancelAdvance()

	p, err := m.engine.StartUnsoldRound(ctx)
	if err != nil {
		return nil, err
	}
	m.commit(ctx)

	m.logger.InfoContext(ctx, "unsold round started", slog.String("player", p.Name))
	return p, nil
}

// PlaceBid applies a turn bid (rotation mode).
func (m *Manager) PlaceBid(ctx context.Context) (Outcome, error) {
	ctx, span := m.tracer.Start(ctx, "Manager.PlaceBid")
	defer span.End()

	out, err := m.engine.PlaceBid(ctx)
	if err != nil {
		return Outcome{}, err
	}
	m.applyOutcome(ctx, out)
	return out, nil
}

// Drop drops the team on turn (rotation mode).
func (m *Manager) Drop(ctx context.Context) (Outcome, error) {
	ctx, span := m.tracer.Start(ctx, "Manager.Drop")
	defer span.End()

	out, err := m.engine.Drop(ctx)
	if err != nil {
		return Outcome{}, err
	}
	m.applyOutcome(ctx, out)
	return out, nil
}

// BidByTeam applies a direct bid for the named team (direct mode).
func (m *Manager) BidByTeam(ctx context.Context, teamID string) (Outcome, error) {
	ctx, span := m.tracer.Start(ctx, "Manager.BidByTeam",
		trace.WithAttributes(attribute.String("team.id", teamID)),
	)
	defer span.End()

	out, err := m.engine.BidByTeam(ctx, teamID)
	if err != nil {
		return Outcome{}, err
	}
	m.applyOutcome(ctx, out)
	return out, nil
}

// Sell resolves the round in favor of the leader.
func (m *Manager) Sell(ctx context.Context) (Outcome, error) {
	ctx, span := m.tracer.Start(ctx, "Manager.Sell")
	defer span.End()

	out, err := m.engine.Sell(ctx)
	if err != nil {
		return Outcome{}, err
	}
	m.applyOutcome(ctx, out)
	return out, nil
}

// MarkUnsold resolves the round with no buyer and schedules the
// automatic advance to the next player.
func (m *Manager) MarkUnsold(ctx context.Context) (Outcome, error) {
	ctx, span := m.tracer.Start(ctx, "Manager.MarkUnsold")
	defer span.End()

	out, err := m.engine.MarkUnsold(ctx)
	if err != nil {
		return Outcome{}, err
	}
	m.applyOutcome(ctx, out)
	return out, nil
}

// Undo reverses the most recent sale or unsold resolution.
func (m *Manager) Undo(ctx context.Context) (UndoInfo, error) {
	ctx, span := m.tracer.Start(ctx, "Manager.Undo")
	defer span.End()

	m.cancelAdvance()

	info, err := m.engine.Undo(ctx)
	if err != nil {
		return UndoInfo{}, err
	}

	restored := toPlayerRecord(info.Player, m.clock.Now().UTC())
	if mirrorErr := m.players.UpdateAuctionState(ctx, restored); mirrorErr != nil {
		m.logger.ErrorContext(ctx, "failed to mirror undo", slog.Any("error", mirrorErr))
	}
	if info.TeamID != "" {
		if mirrorErr := m.teams.UpdateBudget(ctx, info.TeamID, info.TeamRemaining); mirrorErr != nil {
			m.logger.ErrorContext(ctx, "failed to mirror undo budget", slog.Any("error", mirrorErr))
		}
	}
	m.commit(ctx)

	m.logger.InfoContext(ctx, "sale undone", slog.String("player", info.Player.Name))
	return info, nil
}

// SetIncrement changes the bid increment, effective on the next bid.
func (m *Manager) SetIncrement(ctx context.Context, n int) error {
	ctx, span := m.tracer.Start(ctx, "Manager.SetIncrement",
		trace.WithAttributes(attribute.Int("increment", n)),
	)
	defer span.End()

	if err := m.engine.SetIncrement(n); err != nil {
		return err
	}
	m.commit(ctx)
	return nil
}

// applyOutcome mirrors a bidding outcome to the store, persists pending
// events, broadcasts and schedules follow-up actions.
func (m *Manager) applyOutcome(ctx context.Context, out Outcome) {
	switch out.Kind {
	case OutcomeSold, OutcomeAutoSold:
		now := m.clock.Now().UTC()
		rec := &store.Player{
			ID:          out.PlayerID,
			Status:      string(roster.StatusSold),
			SoldPrice:   &out.Price,
			SoldTo:      &out.TeamID,
			UnsoldRound: out.UnsoldRound,
			SoldAt:      &now,
		}
		if err := m.players.UpdateAuctionState(ctx, rec); err != nil {
			m.logger.ErrorContext(ctx, "failed to mirror sale", slog.Any("error", err))
		}
		if err := m.teams.UpdateBudget(ctx, out.TeamID, out.TeamRemaining); err != nil {
			m.logger.ErrorContext(ctx, "failed to mirror budget", slog.Any("error", err))
		}
		m.logger.InfoContext(ctx, "player sold",
			slog.String("player", out.PlayerName),
			slog.String("team", out.TeamName),
			slog.Int("price", out.Price),
			slog.Bool("auto", out.Kind == OutcomeAutoSold),
		)

	case OutcomeUnsold, OutcomeAutoUnsold:
		rec := &store.Player{
			ID:          out.PlayerID,
			Status:      string(roster.StatusUnsold),
			UnsoldRound: out.UnsoldRound,
		}
		if err := m.players.UpdateAuctionState(ctx, rec); err != nil {
			m.logger.ErrorContext(ctx, "failed to mirror unsold", slog.Any("error", err))
		}
		m.logger.InfoContext(ctx, "player unsold", slog.String("player", out.PlayerName))
		m.scheduleAdvance()
	}

	m.commit(ctx)
}

// commit persists pending events best-effort and pushes a snapshot to
// the broadcaster.
func (m *Manager) commit(ctx context.Context) {
	if evts := m.engine.PendingEvents(); len(evts) > 0 {
		if err := m.events.Append(ctx, evts...); err != nil {
			m.logger.ErrorContext(ctx, "failed to persist auction events", slog.Any("error", err))
		}
	}
	if m.broadcast != nil {
		m.broadcast.Publish(m.engine.Snapshot())
	}
}

// scheduleAdvance arms the post-unsold advance timer. The engine version
// captured here invalidates the advance if any other action lands first.
func (m *Manager) scheduleAdvance() {
	if m.unsoldDelay <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.advance != nil {
		m.advance.Stop()
	}
	version := m.engine.Version()
	m.advance = m.clock.AfterFunc(m.unsoldDelay, func() {
		if m.engine.Version() != version {
			return
		}
		if _, err := m.NextPlayer(context.Background()); err != nil {
			m.logger.Error("scheduled advance failed", slog.Any("error", err))
		}
	})
}

func (m *Manager) cancelAdvance() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.advance != nil {
		m.advance.Stop()
		m.advance = nil
	}
}

// loadPool reads teams and players from the store into the engine.
// Sold players are attached to their teams in acquisition order, so a
// restarted process resumes a half-finished auction.
func (m *Manager) loadPool(ctx context.Context) error {
	teamRecs, err := m.teams.List(ctx)
	if err != nil {
		return fmt.Errorf("listing teams: %w", err)
	}
	playerRecs, err := m.players.List(ctx)
	if err != nil {
		return fmt.Errorf("listing players: %w", err)
	}

	teams := make([]*roster.Team, 0, len(teamRecs))
	byID := make(map[string]*roster.Team, len(teamRecs))
	for _, rec := range teamRecs {
		t := &roster.Team{
			ID:              rec.ID,
			Name:            rec.Name,
			Captain:         rec.Captain,
			Color:           rec.Color,
			Budget:          rec.Budget,
			RemainingBudget: rec.RemainingBudget,
			MaxSize:         rec.MaxSize,
		}
		teams = append(teams, t)
		byID[t.ID] = t
	}

	players := make([]*roster.Player, 0, len(playerRecs))
	var sold []store.Player
	for _, rec := range playerRecs {
		players = append(players, toDomainPlayer(rec))
		if rec.Status == string(roster.StatusSold) {
			sold = append(sold, rec)
		}
	}

	sort.Slice(sold, func(i, j int) bool {
		if sold[i].SoldAt == nil || sold[j].SoldAt == nil {
			return sold[j].SoldAt != nil
		}
		return sold[i].SoldAt.Before(*sold[j].SoldAt)
	})
	for _, rec := range sold {
		if rec.SoldTo == nil {
			continue
		}
		if t, ok := byID[*rec.SoldTo]; ok {
			t.Players = append(t.Players, *toDomainPlayer(rec))
		}
	}

	return m.engine.SetPool(teams, players)
}

func toDomainPlayer(rec store.Player) *roster.Player {
	p := &roster.Player{
		ID:          rec.ID,
		Name:        rec.Name,
		Role:        roster.Role(rec.Role),
		Status:      roster.Status(rec.Status),
		UnsoldRound: rec.UnsoldRound,
	}
	if rec.SoldPrice != nil {
		p.SoldPrice = *rec.SoldPrice
	}
	if rec.SoldTo != nil {
		p.SoldTo = *rec.SoldTo
	}
	return p
}

func toPlayerRecord(p roster.Player, now time.Time) *store.Player {
	rec := &store.Player{
		ID:          p.ID,
		Name:        p.Name,
		Role:        string(p.Role),
		Status:      string(p.Status),
		UnsoldRound: p.UnsoldRound,
	}
	if p.Status == roster.StatusSold {
		rec.SoldPrice = &p.SoldPrice
		rec.SoldTo = &p.SoldTo
		rec.SoldAt = &now
	}
	return rec
}
