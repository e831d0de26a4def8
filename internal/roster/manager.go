package roster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jensholdgaard/discord-auction-bot/internal/event"
	"github.com/jensholdgaard/discord-auction-bot/internal/store"
)

// ErrSetupLocked is returned for roster edits after the auction started.
var ErrSetupLocked = errors.New("setup is locked once the auction has started")

// Guard reports whether the auction session has started. Once it has,
// all roster setup operations are rejected.
type Guard interface {
	Started() bool
}

// Defaults are applied when a registration omits budget or roster size.
type Defaults struct {
	Budget  int
	MaxSize int
}

// Manager handles setup-phase roster operations: registering and
// removing teams and pool players before the auction starts.
type Manager struct {
	teams    store.TeamRepository
	players  store.PlayerRepository
	events   event.Store
	logger   *slog.Logger
	tracer   trace.Tracer
	guard    Guard
	defaults Defaults
}

// NewManager returns a new roster Manager.
func NewManager(teams store.TeamRepository, players store.PlayerRepository, events event.Store, logger *slog.Logger, tp trace.TracerProvider, guard Guard, defaults Defaults) *Manager {
	return &Manager{
		teams:    teams,
		players:  players,
		events:   events,
		logger:   logger,
		tracer:   tp.Tracer("github.com/jensholdgaard/discord-auction-bot/internal/roster"),
		guard:    guard,
		defaults: defaults,
	}
}

// RegisterTeam creates a team. Zero budget or size fall back to the
// configured defaults; the display color comes from the fixed palette.
func (m *Manager) RegisterTeam(ctx context.Context, name, captain string, budget, maxSize int) (*store.Team, error) {
	ctx, span := m.tracer.Start(ctx, "Manager.RegisterTeam",
		trace.WithAttributes(attribute.String("team.name", name)),
	)
	defer span.End()

	if m.guard.Started() {
		return nil, ErrSetupLocked
	}
	if name == "" || captain == "" {
		return nil, fmt.Errorf("team name and captain are required")
	}
	if budget <= 0 {
		budget = m.defaults.Budget
	}
	if maxSize <= 0 {
		maxSize = m.defaults.MaxSize
	}

	existing, err := m.teams.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing teams: %w", err)
	}

	t := &store.Team{
		ID:              uuid.NewString(),
		Name:            name,
		Captain:         captain,
		Color:           ColorFor(len(existing)),
		Budget:          budget,
		RemainingBudget: budget,
		MaxSize:         maxSize,
	}
	if err := m.teams.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("creating team: %w", err)
	}

	data, _ := json.Marshal(event.TeamRegisteredData{
		Name:    name,
		Captain: captain,
		Budget:  budget,
		MaxSize: maxSize,
	})
	evt := event.Event{
		AggregateID: t.ID,
		Type:        event.TeamRegistered,
		Data:        data,
		Version:     1,
	}
	if err := m.events.Append(ctx, evt); err != nil {
		m.logger.ErrorContext(ctx, "failed to append team registered event", slog.Any("error", err))
	}

	m.logger.InfoContext(ctx, "team registered",
		slog.String("team_id", t.ID),
		slog.String("name", name),
		slog.Int("budget", budget),
	)
	return t, nil
}

// RemoveTeam deletes a team before the auction starts.
func (m *Manager) RemoveTeam(ctx context.Context, id string) error {
	ctx, span := m.tracer.Start(ctx, "Manager.RemoveTeam",
		trace.WithAttributes(attribute.String("team.id", id)),
	)
	defer span.End()

	if m.guard.Started() {
		return ErrSetupLocked
	}
	if err := m.teams.Remove(ctx, id); err != nil {
		return fmt.Errorf("removing team: %w", err)
	}

	evt := event.Event{
		AggregateID: id,
		Type:        event.TeamRemoved,
		Data:        json.RawMessage(`{}`),
		Version:     2,
	}
	if err := m.events.Append(ctx, evt); err != nil {
		m.logger.ErrorContext(ctx, "failed to append team removed event", slog.Any("error", err))
	}
	return nil
}

// RegisterPlayer adds a player to the pool.
func (m *Manager) RegisterPlayer(ctx context.Context, name, role string) (*store.Player, error) {
	ctx, span := m.tracer.Start(ctx, "Manager.RegisterPlayer",
		trace.WithAttributes(attribute.String("player.name", name)),
	)
	defer span.End()

	if m.guard.Started() {
		return nil, ErrSetupLocked
	}
	if name == "" {
		return nil, fmt.Errorf("player name is required")
	}
	parsed, err := ParseRole(role)
	if err != nil {
		return nil, err
	}

	p := &store.Player{
		ID:     uuid.NewString(),
		Name:   name,
		Role:   string(parsed),
		Status: string(StatusAvailable),
	}
	if err := m.players.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("creating player: %w", err)
	}

	data, _ := json.Marshal(event.PlayerRegisteredData{Name: name, Role: string(parsed)})
	evt := event.Event{
		AggregateID: p.ID,
		Type:        event.PlayerRegistered,
		Data:        data,
		Version:     1,
	}
	if err := m.events.Append(ctx, evt); err != nil {
		m.logger.ErrorContext(ctx, "failed to append player registered event", slog.Any("error", err))
	}

	m.logger.InfoContext(ctx, "player registered",
		slog.String("player_id", p.ID),
		slog.String("name", name),
		slog.String("role", string(parsed)),
	)
	return p, nil
}

// RemovePlayer deletes a pool player before the auction starts.
func (m *Manager) RemovePlayer(ctx context.Context, id string) error {
	ctx, span := m.tracer.Start(ctx, "Manager.RemovePlayer",
		trace.WithAttributes(attribute.String("player.id", id)),
	)
	defer span.End()

	if m.guard.Started() {
		return ErrSetupLocked
	}
	if err := m.players.Remove(ctx, id); err != nil {
		return fmt.Errorf("removing player: %w", err)
	}

	evt := event.Event{
		AggregateID: id,
		Type:        event.PlayerRemoved,
		Data:        json.RawMessage(`{}`),
		Version:     2,
	}
	if err := m.events.Append(ctx, evt); err != nil {
		m.logger.ErrorContext(ctx, "failed to append player removed event", slog.Any("error", err))
	}
	return nil
}

// ListTeams returns all registered teams.
func (m *Manager) ListTeams(ctx context.Context) ([]store.Team, error) {
	ctx, span := m.tracer.Start(ctx, "Manager.ListTeams")
	defer span.End()
	return m.teams.List(ctx)
}

// ListPlayers returns the whole pool.
func (m *Manager) ListPlayers(ctx context.Context) ([]store.Player, error) {
	ctx, span := m.tracer.Start(ctx, "Manager.ListPlayers")
	defer span.End()
	return m.players.List(ctx)
}
