package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jensholdgaard/discord-auction-bot/internal/clock"
	"github.com/jensholdgaard/discord-auction-bot/internal/store"
)

// PlayerRepo implements store.PlayerRepository with sqlx.
type PlayerRepo struct {
	db    *sqlx.DB
	clock clock.Clock
}

// NewPlayerRepo returns a new PlayerRepo.
func NewPlayerRepo(db *sqlx.DB, clk clock.Clock) *PlayerRepo {
	return &PlayerRepo{db: db, clock: clk}
}

func (r *PlayerRepo) Create(ctx context.Context, p *store.Player) error {
	now := r.clock.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Status == "" {
		p.Status = "available"
	}
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO players (id, name, role, status, sold_price, sold_to, unsold_round, sold_at, created_at, updated_at)
		 VALUES (:id, :name, :role, :status, :sold_price, :sold_to, :unsold_round, :sold_at, :created_at, :updated_at)`, p)
	if err != nil {
		return fmt.Errorf("creating player: %w", err)
	}
	return nil
}

func (r *PlayerRepo) GetByID(ctx context.Context, id string) (*store.Player, error) {
	var p store.Player
	err := r.db.GetContext(ctx, &p, `SELECT * FROM players WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("getting player: %w", err)
	}
	return &p, nil
}

func (r *PlayerRepo) List(ctx context.Context) ([]store.Player, error) {
	var players []store.Player
	err := r.db.SelectContext(ctx, &players, `SELECT * FROM players ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing players: %w", err)
	}
	return players, nil
}

func (r *PlayerRepo) Remove(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM players WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("removing player: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("player %s not found", id)
	}
	return nil
}

func (r *PlayerRepo) UpdateAuctionState(ctx context.Context, p *store.Player) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE players
		 SET status = $1, sold_price = $2, sold_to = $3, unsold_round = $4, sold_at = $5, updated_at = $6
		 WHERE id = $7`,
		p.Status, p.SoldPrice, p.SoldTo, p.UnsoldRound, p.SoldAt, r.clock.Now().UTC(), p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating player auction state: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("player %s not found", p.ID)
	}
	return nil
}
