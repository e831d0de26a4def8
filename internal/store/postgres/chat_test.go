package postgres_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/jensholdgaard/discord-auction-bot/internal/clock"
	"github.com/jensholdgaard/discord-auction-bot/internal/store"
	"github.com/jensholdgaard/discord-auction-bot/internal/store/postgres"
)

func TestChatRepo_CreateAndListRecent(t *testing.T) {
	db := newTestDB(t)
	repo := postgres.NewChatRepo(db, clock.Real{})
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		m := &store.ChatMessage{Author: "viewer", Body: fmt.Sprintf("message %d", i)}
		if err := repo.Create(ctx, m); err != nil {
			t.Fatalf("Create(%d): %v", i, err)
		}
		if m.ID == 0 {
			t.Fatal("expected ID to be set after Create")
		}
	}

	recent, err := repo.ListRecent(ctx, 3)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("ListRecent returned %d messages, want 3", len(recent))
	}
	// Newest three, oldest first.
	if recent[0].Body != "message 3" || recent[2].Body != "message 5" {
		t.Errorf("recent = [%s %s %s], want messages 3..5 in order",
			recent[0].Body, recent[1].Body, recent[2].Body)
	}
}

func TestChatRepo_ListRecentEmpty(t *testing.T) {
	db := newTestDB(t)
	repo := postgres.NewChatRepo(db, clock.Real{})

	recent, err := repo.ListRecent(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(recent) != 0 {
		t.Errorf("expected no messages, got %d", len(recent))
	}
}
