package auction

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace/noop"

	"github.com/jensholdgaard/discord-auction-bot/internal/clock"
	"github.com/jensholdgaard/discord-auction-bot/internal/event"
	"github.com/jensholdgaard/discord-auction-bot/internal/roster"
	"github.com/jensholdgaard/discord-auction-bot/internal/store"
)

type mockTeamRepo struct {
	teams   []store.Team
	budgets map[string]int
}

func (m *mockTeamRepo) Create(_ context.Context, t *store.Team) error {
	m.teams = append(m.teams, *t)
	return nil
}

func (m *mockTeamRepo) GetByID(_ context.Context, id string) (*store.Team, error) {
	for i := range m.teams {
		if m.teams[i].ID == id {
			t := m.teams[i]
			return &t, nil
		}
	}
	return nil, nil
}

func (m *mockTeamRepo) List(_ context.Context) ([]store.Team, error) {
	return append([]store.Team(nil), m.teams...), nil
}

func (m *mockTeamRepo) Remove(_ context.Context, id string) error {
	for i := range m.teams {
		if m.teams[i].ID == id {
			m.teams = append(m.teams[:i], m.teams[i+1:]...)
			break
		}
	}
	return nil
}

func (m *mockTeamRepo) UpdateBudget(_ context.Context, id string, remaining int) error {
	if m.budgets == nil {
		m.budgets = make(map[string]int)
	}
	m.budgets[id] = remaining
	return nil
}

type mockPlayerRepo struct {
	players []store.Player
	updates []store.Player
}

func (m *mockPlayerRepo) Create(_ context.Context, p *store.Player) error {
	m.players = append(m.players, *p)
	return nil
}

func (m *mockPlayerRepo) GetByID(_ context.Context, id string) (*store.Player, error) {
	for i := range m.players {
		if m.players[i].ID == id {
			p := m.players[i]
			return &p, nil
		}
	}
	return nil, nil
}

func (m *mockPlayerRepo) List(_ context.Context) ([]store.Player, error) {
	return append([]store.Player(nil), m.players...), nil
}

func (m *mockPlayerRepo) Remove(_ context.Context, id string) error {
	for i := range m.players {
		if m.players[i].ID == id {
			m.players = append(m.players[:i], m.players[i+1:]...)
			break
		}
	}
	return nil
}

func (m *mockPlayerRepo) UpdateAuctionState(_ context.Context, p *store.Player) error {
	m.updates = append(m.updates, *p)
	return nil
}

type mockEventStore struct {
	events []event.Event
}

func (m *mockEventStore) Append(_ context.Context, events ...event.Event) error {
	m.events = append(m.events, events...)
	return nil
}

func (m *mockEventStore) Load(_ context.Context, aggregateID string) ([]event.Event, error) {
	var out []event.Event
	for _, e := range m.events {
		if e.AggregateID == aggregateID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockEventStore) LoadByType(_ context.Context, eventType event.Type) ([]event.Event, error) {
	var out []event.Event
	for _, e := range m.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out, nil
}

type mockBroadcaster struct {
	snapshots []Snapshot
}

func (m *mockBroadcaster) Publish(s Snapshot) {
	m.snapshots = append(m.snapshots, s)
}

type managerFixture struct {
	manager   *Manager
	teams     *mockTeamRepo
	players   *mockPlayerRepo
	events    *mockEventStore
	broadcast *mockBroadcaster
	clock     *clock.Mock
}

func newManagerFixture(t *testing.T, cfg ManagerConfig) *managerFixture {
	t.Helper()

	teams := &mockTeamRepo{teams: []store.Team{
		{ID: "a", Name: "Team A", Captain: "Alice", Budget: 2000, RemainingBudget: 2000, MaxSize: 11},
		{ID: "b", Name: "Team B", Captain: "Bob", Budget: 1000, RemainingBudget: 1000, MaxSize: 11},
	}}
	players := &mockPlayerRepo{players: []store.Player{
		{ID: "p1", Name: "Kohli", Role: "Batsman", Status: "available"},
		{ID: "p2", Name: "Bumrah", Role: "Bowler", Status: "available"},
	}}
	events := &mockEventStore{}
	broadcast := &mockBroadcaster{}
	clk := &clock.Mock{T: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := NewManager(cfg, teams, players, events, logger, noop.NewTracerProvider(), clk, broadcast)

	return &managerFixture{
		manager:   m,
		teams:     teams,
		players:   players,
		events:    events,
		broadcast: broadcast,
		clock:     clk,
	}
}

func TestManager_StartAuctionLoadsPool(t *testing.T) {
	fx := newManagerFixture(t, ManagerConfig{Mode: ModeRotation, BasePrice: 500, Increment: 50, Seed: 7})

	p, err := fx.manager.StartAuction(context.Background())
	if err != nil {
		t.Fatalf("StartAuction() error = %v", err)
	}
	if p == nil {
		t.Fatal("StartAuction() returned no player")
	}

	snap := fx.manager.Snapshot()
	if len(snap.Teams) != 2 {
		t.Errorf("snapshot teams = %d, want 2", len(snap.Teams))
	}
	if snap.AvailableCount != 2 {
		t.Errorf("available count = %d, want 2", snap.AvailableCount)
	}

	started, err := fx.events.LoadByType(context.Background(), event.AuctionStarted)
	if err != nil || len(started) != 1 {
		t.Errorf("auction started events = %d (%v), want 1", len(started), err)
	}
	rounds, err := fx.events.LoadByType(context.Background(), event.RoundStarted)
	if err != nil || len(rounds) != 1 {
		t.Errorf("round started events = %d (%v), want 1", len(rounds), err)
	}
	if len(fx.broadcast.snapshots) == 0 {
		t.Error("no snapshot broadcast after start")
	}
}

func TestManager_SellMirrorsStore(t *testing.T) {
	fx := newManagerFixture(t, ManagerConfig{Mode: ModeRotation, BasePrice: 500, Increment: 50, Seed: 7})
	ctx := context.Background()

	if _, err := fx.manager.StartAuction(ctx); err != nil {
		t.Fatalf("StartAuction() error = %v", err)
	}
	bid, err := fx.manager.PlaceBid(ctx)
	if err != nil {
		t.Fatalf("PlaceBid() error = %v", err)
	}
	sale, err := fx.manager.Sell(ctx)
	if err != nil {
		t.Fatalf("Sell() error = %v", err)
	}

	if len(fx.players.updates) != 1 {
		t.Fatalf("player updates = %d, want 1", len(fx.players.updates))
	}
	rec := fx.players.updates[0]
	if rec.ID != sale.PlayerID || rec.Status != string(roster.StatusSold) {
		t.Errorf("mirrored player = %+v, want %q sold", rec, sale.PlayerID)
	}
	if rec.SoldPrice == nil || *rec.SoldPrice != 500 {
		t.Errorf("mirrored price = %v, want 500", rec.SoldPrice)
	}
	if rec.SoldTo == nil || *rec.SoldTo != bid.TeamID {
		t.Errorf("mirrored buyer = %v, want %q", rec.SoldTo, bid.TeamID)
	}
	if rec.SoldAt == nil || !rec.SoldAt.Equal(fx.clock.T) {
		t.Errorf("mirrored sold_at = %v, want clock time", rec.SoldAt)
	}
	if got := fx.teams.budgets[sale.TeamID]; got != sale.TeamRemaining {
		t.Errorf("mirrored budget = %d, want %d", got, sale.TeamRemaining)
	}
}

func TestManager_UnsoldSchedulesAdvance(t *testing.T) {
	fx := newManagerFixture(t, ManagerConfig{
		Mode: ModeRotation, BasePrice: 500, Increment: 50, Seed: 7,
		UnsoldAdvanceDelay: 1500 * time.Millisecond,
	})
	ctx := context.Background()

	first, err := fx.manager.StartAuction(ctx)
	if err != nil {
		t.Fatalf("StartAuction() error = %v", err)
	}
	if _, err := fx.manager.MarkUnsold(ctx); err != nil {
		t.Fatalf("MarkUnsold() error = %v", err)
	}
	if len(fx.clock.Scheduled) != 1 {
		t.Fatalf("scheduled calls = %d, want 1", len(fx.clock.Scheduled))
	}

	fx.clock.Fire()

	snap := fx.manager.Snapshot()
	if snap.CurrentPlayer == nil || snap.CurrentPlayer.ID == first.ID {
		t.Errorf("current player after advance = %+v, want the next player", snap.CurrentPlayer)
	}
	if snap.Resolved {
		t.Error("new round already resolved after advance")
	}
}

func TestManager_UndoInvalidatesScheduledAdvance(t *testing.T) {
	fx := newManagerFixture(t, ManagerConfig{
		Mode: ModeRotation, BasePrice: 500, Increment: 50, Seed: 7,
		UnsoldAdvanceDelay: 1500 * time.Millisecond,
	})
	ctx := context.Background()

	first, err := fx.manager.StartAuction(ctx)
	if err != nil {
		t.Fatalf("StartAuction() error = %v", err)
	}
	if _, err := fx.manager.MarkUnsold(ctx); err != nil {
		t.Fatalf("MarkUnsold() error = %v", err)
	}
	info, err := fx.manager.Undo(ctx)
	if err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if info.Player.ID != first.ID {
		t.Errorf("undo restored %q, want %q", info.Player.ID, first.ID)
	}

	// The stale advance fires against a moved engine and must not pull
	// the next player out from under the restored round.
	fx.clock.Fire()

	snap := fx.manager.Snapshot()
	if snap.CurrentPlayer == nil || snap.CurrentPlayer.ID != first.ID {
		t.Errorf("current player = %+v, want restored %q", snap.CurrentPlayer, first.ID)
	}
	if snap.Resolved {
		t.Error("restored round marked resolved")
	}
}

func TestManager_UndoMirrorsStore(t *testing.T) {
	fx := newManagerFixture(t, ManagerConfig{Mode: ModeRotation, BasePrice: 500, Increment: 50, Seed: 7})
	ctx := context.Background()

	if _, err := fx.manager.StartAuction(ctx); err != nil {
		t.Fatalf("StartAuction() error = %v", err)
	}
	if _, err := fx.manager.PlaceBid(ctx); err != nil {
		t.Fatalf("PlaceBid() error = %v", err)
	}
	sale, err := fx.manager.Sell(ctx)
	if err != nil {
		t.Fatalf("Sell() error = %v", err)
	}
	info, err := fx.manager.Undo(ctx)
	if err != nil {
		t.Fatalf("Undo() error = %v", err)
	}

	last := fx.players.updates[len(fx.players.updates)-1]
	if last.ID != sale.PlayerID || last.Status != string(roster.StatusAvailable) {
		t.Errorf("mirrored undo = %+v, want %q available", last, sale.PlayerID)
	}
	if got := fx.teams.budgets[sale.TeamID]; got != info.TeamRemaining {
		t.Errorf("mirrored budget = %d, want restored %d", got, info.TeamRemaining)
	}
}

func TestManager_ResumesFromStore(t *testing.T) {
	fx := newManagerFixture(t, ManagerConfig{Mode: ModeRotation, BasePrice: 500, Increment: 50, Seed: 7})

	// A prior session sold p1 to team a.
	price := 600
	teamID := "a"
	soldAt := fx.clock.T.Add(-time.Hour)
	fx.players.players[0].Status = string(roster.StatusSold)
	fx.players.players[0].SoldPrice = &price
	fx.players.players[0].SoldTo = &teamID
	fx.players.players[0].SoldAt = &soldAt
	fx.teams.teams[0].RemainingBudget = 1400

	if _, err := fx.manager.StartAuction(context.Background()); err != nil {
		t.Fatalf("StartAuction() error = %v", err)
	}

	snap := fx.manager.Snapshot()
	if snap.SoldCount != 1 || snap.AvailableCount != 1 {
		t.Errorf("counts sold = %d available = %d, want 1 and 1", snap.SoldCount, snap.AvailableCount)
	}
	for _, team := range snap.Teams {
		if team.ID != "a" {
			continue
		}
		if team.RemainingBudget != 1400 {
			t.Errorf("team a remaining = %d, want 1400", team.RemainingBudget)
		}
		if team.Size != 1 {
			t.Errorf("team a size = %d, want 1", team.Size)
		}
	}
	if snap.CurrentPlayer.ID != "p2" {
		t.Errorf("current player = %q, want the remaining available p2", snap.CurrentPlayer.ID)
	}
}

func TestManager_SetIncrement(t *testing.T) {
	fx := newManagerFixture(t, ManagerConfig{Mode: ModeRotation, BasePrice: 500, Increment: 50, Seed: 7})
	ctx := context.Background()

	if err := fx.manager.SetIncrement(ctx, 100); err != nil {
		t.Fatalf("SetIncrement() error = %v", err)
	}
	changed, err := fx.events.LoadByType(ctx, event.IncrementChanged)
	if err != nil || len(changed) != 1 {
		t.Errorf("increment changed events = %d (%v), want 1", len(changed), err)
	}
	if got := fx.manager.Snapshot().Increment; got != 100 {
		t.Errorf("snapshot increment = %d, want 100", got)
	}
}
