package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jensholdgaard/discord-auction-bot/internal/clock"
	"github.com/jensholdgaard/discord-auction-bot/internal/store"
)

// TeamRepo implements store.TeamRepository with sqlx.
type TeamRepo struct {
	db    *sqlx.DB
	clock clock.Clock
}

// NewTeamRepo returns a new TeamRepo.
func NewTeamRepo(db *sqlx.DB, clk clock.Clock) *TeamRepo {
	return &TeamRepo{db: db, clock: clk}
}

func (r *TeamRepo) Create(ctx context.Context, t *store.Team) error {
	now := r.clock.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO teams (id, name, captain, color, budget, remaining_budget, max_size, created_at, updated_at)
		 VALUES (:id, :name, :captain, :color, :budget, :remaining_budget, :max_size, :created_at, :updated_at)`, t)
	if err != nil {
		return fmt.Errorf("creating team: %w", err)
	}
	return nil
}

func (r *TeamRepo) GetByID(ctx context.Context, id string) (*store.Team, error) {
	var t store.Team
	err := r.db.GetContext(ctx, &t, `SELECT * FROM teams WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("getting team: %w", err)
	}
	return &t, nil
}

func (r *TeamRepo) List(ctx context.Context) ([]store.Team, error) {
	var teams []store.Team
	err := r.db.SelectContext(ctx, &teams, `SELECT * FROM teams ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing teams: %w", err)
	}
	return teams, nil
}

func (r *TeamRepo) Remove(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("removing team: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("team %s not found", id)
	}
	return nil
}

func (r *TeamRepo) UpdateBudget(ctx context.Context, id string, remaining int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE teams SET remaining_budget = $1, updated_at = $2 WHERE id = $3`,
		remaining, r.clock.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating team budget: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("team %s not found", id)
	}
	return nil
}
