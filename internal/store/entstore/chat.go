package entstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jensholdgaard/discord-auction-bot/internal/clock"
	"github.com/jensholdgaard/discord-auction-bot/internal/store"
)

// ChatRepo implements store.ChatRepository using database/sql.
type ChatRepo struct {
	db    *sql.DB
	clock clock.Clock
}

// NewChatRepo returns a new ChatRepo.
func NewChatRepo(db *sql.DB, clk clock.Clock) *ChatRepo {
	return &ChatRepo{db: db, clock: clk}
}

func (r *ChatRepo) Create(ctx context.Context, m *store.ChatMessage) error {
	m.CreatedAt = r.clock.Now().UTC()
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO chat_messages (author, body, created_at) VALUES ($1, $2, $3) RETURNING id`,
		m.Author, m.Body, m.CreatedAt,
	).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("creating chat message: %w", err)
	}
	return nil
}

// ListRecent returns the newest messages in chronological order.
func (r *ChatRepo) ListRecent(ctx context.Context, limit int) ([]store.ChatMessage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, author, body, created_at FROM (
		     SELECT id, author, body, created_at FROM chat_messages ORDER BY id DESC LIMIT $1
		 ) recent ORDER BY id ASC`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing chat messages: %w", err)
	}
	defer rows.Close()

	var messages []store.ChatMessage
	for rows.Next() {
		var m store.ChatMessage
		if err := rows.Scan(&m.ID, &m.Author, &m.Body, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning chat row: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
