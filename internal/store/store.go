package store

import (
	"context"
	"time"
)

// Team represents a franchise record.
type Team struct {
	ID              string    `db:"id"`
	Name            string    `db:"name"`
	Captain         string    `db:"captain"`
	Color           string    `db:"color"`
	Budget          int       `db:"budget"`
	RemainingBudget int       `db:"remaining_budget"`
	MaxSize         int       `db:"max_size"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

// Player represents a pool player record. SoldPrice, SoldTo and SoldAt
// are set iff Status is "sold".
type Player struct {
	ID          string     `db:"id"`
	Name        string     `db:"name"`
	Role        string     `db:"role"`
	Status      string     `db:"status"` // "available", "sold", "unsold"
	SoldPrice   *int       `db:"sold_price"`
	SoldTo      *string    `db:"sold_to"`
	UnsoldRound bool       `db:"unsold_round"`
	SoldAt      *time.Time `db:"sold_at"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

// ChatMessage represents one viewer chat line.
type ChatMessage struct {
	ID        int64     `db:"id"`
	Author    string    `db:"author"`
	Body      string    `db:"body"`
	CreatedAt time.Time `db:"created_at"`
}

// TeamRepository defines team persistence operations.
type TeamRepository interface {
	Create(ctx context.Context, t *Team) error
	GetByID(ctx context.Context, id string) (*Team, error)
	List(ctx context.Context) ([]Team, error)
	Remove(ctx context.Context, id string) error
	// UpdateBudget writes the team's remaining budget after a sale or
	// an undone sale.
	UpdateBudget(ctx context.Context, id string, remaining int) error
}

// PlayerRepository defines pool player persistence operations.
type PlayerRepository interface {
	Create(ctx context.Context, p *Player) error
	GetByID(ctx context.Context, id string) (*Player, error)
	List(ctx context.Context) ([]Player, error)
	Remove(ctx context.Context, id string) error
	// UpdateAuctionState writes the status, sale stamp and re-auction
	// marker for one player.
	UpdateAuctionState(ctx context.Context, p *Player) error
}

// ChatRepository defines viewer chat persistence operations.
type ChatRepository interface {
	Create(ctx context.Context, m *ChatMessage) error
	ListRecent(ctx context.Context, limit int) ([]ChatMessage, error)
}
