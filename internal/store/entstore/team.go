package entstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jensholdgaard/discord-auction-bot/internal/clock"
	"github.com/jensholdgaard/discord-auction-bot/internal/store"
)

// TeamRepo implements store.TeamRepository using database/sql.
type TeamRepo struct {
	db    *sql.DB
	clock clock.Clock
}

// NewTeamRepo returns a new TeamRepo.
func NewTeamRepo(db *sql.DB, clk clock.Clock) *TeamRepo {
	return &TeamRepo{db: db, clock: clk}
}

const teamColumns = `id, name, captain, color, budget, remaining_budget, max_size, created_at, updated_at`

func scanTeam(row interface{ Scan(...any) error }, t *store.Team) error {
	return row.Scan(&t.ID, &t.Name, &t.Captain, &t.Color,
		&t.Budget, &t.RemainingBudget, &t.MaxSize, &t.CreatedAt, &t.UpdatedAt)
}

func (r *TeamRepo) Create(ctx context.Context, t *store.Team) error {
	now := r.clock.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO teams (`+teamColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.Name, t.Captain, t.Color, t.Budget, t.RemainingBudget, t.MaxSize, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating team: %w", err)
	}
	return nil
}

func (r *TeamRepo) GetByID(ctx context.Context, id string) (*store.Team, error) {
	t := &store.Team{}
	row := r.db.QueryRowContext(ctx,
		`SELECT `+teamColumns+` FROM teams WHERE id = $1`, id)
	if err := scanTeam(row, t); err != nil {
		return nil, fmt.Errorf("getting team: %w", err)
	}
	return t, nil
}

func (r *TeamRepo) List(ctx context.Context) ([]store.Team, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+teamColumns+` FROM teams ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing teams: %w", err)
	}
	defer rows.Close()

	var teams []store.Team
	for rows.Next() {
		var t store.Team
		if err := scanTeam(rows, &t); err != nil {
			return nil, fmt.Errorf("scanning team row: %w", err)
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
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
