package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/jensholdgaard/discord-auction-bot/internal/clock"
	"github.com/jensholdgaard/discord-auction-bot/internal/store"
	"github.com/jensholdgaard/discord-auction-bot/internal/store/postgres"
)

func TestPlayerRepo_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	repo := postgres.NewPlayerRepo(db, clock.Real{})
	ctx := context.Background()

	p := &store.Player{ID: "p-1", Name: "Kohli", Role: "Batsman"}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Status != "available" {
		t.Errorf("status after create = %q, want available", p.Status)
	}

	got, err := repo.GetByID(ctx, "p-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "Kohli" || got.Role != "Batsman" {
		t.Errorf("player = %+v, want Kohli the Batsman", got)
	}
	if got.SoldPrice != nil || got.SoldTo != nil {
		t.Errorf("fresh player has sale fields set: %+v", got)
	}
}

func TestPlayerRepo_UpdateAuctionState(t *testing.T) {
	db := newTestDB(t)
	teams := postgres.NewTeamRepo(db, clock.Real{})
	repo := postgres.NewPlayerRepo(db, clock.Real{})
	ctx := context.Background()

	team := &store.Team{
		ID: "t-1", Name: "Strikers", Captain: "Alice", Color: "#fff",
		Budget: 10000, RemainingBudget: 10000, MaxSize: 11,
	}
	if err := teams.Create(ctx, team); err != nil {
		t.Fatalf("creating team: %v", err)
	}
	p := &store.Player{ID: "p-1", Name: "Kohli", Role: "Batsman"}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("Create: %v", err)
	}

	price := 600
	teamID := "t-1"
	soldAt := time.Now().UTC().Truncate(time.Microsecond)
	sold := &store.Player{
		ID: "p-1", Status: "sold",
		SoldPrice: &price, SoldTo: &teamID, SoldAt: &soldAt,
	}
	if err := repo.UpdateAuctionState(ctx, sold); err != nil {
		t.Fatalf("UpdateAuctionState(sold): %v", err)
	}

	got, err := repo.GetByID(ctx, "p-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != "sold" {
		t.Errorf("status = %q, want sold", got.Status)
	}
	if got.SoldPrice == nil || *got.SoldPrice != 600 {
		t.Errorf("sold price = %v, want 600", got.SoldPrice)
	}
	if got.SoldTo == nil || *got.SoldTo != "t-1" {
		t.Errorf("sold to = %v, want t-1", got.SoldTo)
	}

	// Reverting to available clears the sale stamp.
	available := &store.Player{ID: "p-1", Status: "available"}
	if err := repo.UpdateAuctionState(ctx, available); err != nil {
		t.Fatalf("UpdateAuctionState(available): %v", err)
	}
	got, _ = repo.GetByID(ctx, "p-1")
	if got.Status != "available" || got.SoldPrice != nil || got.SoldTo != nil {
		t.Errorf("player after revert = %+v, want available with no sale stamp", got)
	}
}

func TestPlayerRepo_UpdateAuctionState_NotFound(t *testing.T) {
	db := newTestDB(t)
	repo := postgres.NewPlayerRepo(db, clock.Real{})

	err := repo.UpdateAuctionState(context.Background(), &store.Player{ID: "missing", Status: "unsold"})
	if err == nil {
		t.Fatal("expected error for nonexistent player")
	}
}

func TestPlayerRepo_ListOrderedByCreation(t *testing.T) {
	db := newTestDB(t)
	repo := postgres.NewPlayerRepo(db, clock.Real{})
	ctx := context.Background()

	for _, p := range []*store.Player{
		{ID: "p-1", Name: "Kohli", Role: "Batsman"},
		{ID: "p-2", Name: "Bumrah", Role: "Bowler"},
	} {
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("Create(%s): %v", p.Name, err)
		}
	}

	players, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(players) != 2 {
		t.Fatalf("List returned %d players, want 2", len(players))
	}
	if players[0].Name != "Kohli" {
		t.Errorf("first player = %q, want Kohli", players[0].Name)
	}
}
