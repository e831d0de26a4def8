package entstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jensholdgaard/discord-auction-bot/internal/clock"
	"github.com/jensholdgaard/discord-auction-bot/internal/store"
)

// PlayerRepo implements store.PlayerRepository using database/sql.
type PlayerRepo struct {
	db    *sql.DB
	clock clock.Clock
}

// NewPlayerRepo returns a new PlayerRepo.
func NewPlayerRepo(db *sql.DB, clk clock.Clock) *PlayerRepo {
	return &PlayerRepo{db: db, clock: clk}
}

const playerColumns = `id, name, role, status, sold_price, sold_to, unsold_round, sold_at, created_at, updated_at`

func scanPlayer(row interface{ Scan(...any) error }, p *store.Player) error {
	return row.Scan(&p.ID, &p.Name, &p.Role, &p.Status,
		&p.SoldPrice, &p.SoldTo, &p.UnsoldRound, &p.SoldAt, &p.CreatedAt, &p.UpdatedAt)
}

func (r *PlayerRepo) Create(ctx context.Context, p *store.Player) error {
	now := r.clock.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Status == "" {
		p.Status = "available"
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO players (`+playerColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.Name, p.Role, p.Status, p.SoldPrice, p.SoldTo, p.UnsoldRound, p.SoldAt, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating player: %w", err)
	}
	return nil
}

func (r *PlayerRepo) GetByID(ctx context.Context, id string) (*store.Player, error) {
	p := &store.Player{}
	row := r.db.QueryRowContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE id = $1`, id)
	if err := scanPlayer(row, p); err != nil {
		return nil, fmt.Errorf("getting player: %w", err)
	}
	return p, nil
}

func (r *PlayerRepo) List(ctx context.Context) ([]store.Player, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+playerColumns+` FROM players ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing players: %w", err)
	}
	defer rows.Close()

	var players []store.Player
	for rows.Next() {
		var p store.Player
		if err := scanPlayer(rows, &p); err != nil {
			return nil, fmt.Errorf("scanning player row: %w", err)
		}
		players = append(players, p)
	}
	return players, rows.Err()
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
