// Package web serves the read-only auction board over HTTP and WebSocket.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/jensholdgaard/discord-auction-bot/internal/auction"
	"github.com/jensholdgaard/discord-auction-bot/internal/store"
)

// serverMessage is the envelope pushed to connected viewers.
type serverMessage struct {
	Type     string            `json:"type"` // "snapshot" or "chat"
	Snapshot *auction.Snapshot `json:"snapshot,omitempty"`
	Chat     *ChatLine         `json:"chat,omitempty"`
}

// clientMessage is what viewers may send. Chat is the only accepted type;
// the board itself is read-only.
type clientMessage struct {
	Type   string `json:"type"`
	Author string `json:"author"`
	Body   string `json:"body"`
}

// ChatLine is the wire form of one viewer chat message.
type ChatLine struct {
	ID        int64     `json:"id"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

const maxChatBody = 500

// Hub fans auction snapshots and chat lines out to connected viewers.
// It implements auction.Broadcaster.
type Hub struct {
	chat    store.ChatRepository
	history int
	logger  *slog.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
	latest  []byte // most recent snapshot message, replayed on connect
}

type client struct {
	out chan []byte
}

// NewHub returns a Hub persisting chat through repo and replaying up to
// history chat lines to each connecting viewer.
func NewHub(repo store.ChatRepository, history int, logger *slog.Logger) *Hub {
	return &Hub{
		chat:    repo,
		history: history,
		logger:  logger,
		clients: make(map[*client]struct{}),
	}
}

// Publish broadcasts a fresh board snapshot to all connected viewers.
func (h *Hub) Publish(snap auction.Snapshot) {
	payload, err := json.Marshal(serverMessage{Type: "snapshot", Snapshot: &snap})
	if err != nil {
		h.logger.Error("marshaling snapshot", "error", err)
		return
	}

	h.mu.Lock()
	h.latest = payload
	for c := range h.clients {
		c.send(payload)
	}
	h.mu.Unlock()
}

// SubmitChat persists a chat line and broadcasts it to all viewers.
func (h *Hub) SubmitChat(ctx context.Context, author, body string) (*ChatLine, error) {
	author = strings.TrimSpace(author)
	body = strings.TrimSpace(body)
	if author == "" || body == "" {
		return nil, ErrEmptyChatMessage
	}
	if len(body) > maxChatBody {
		cut := maxChatBody
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		body = body[:cut]
	}

	msg := &store.ChatMessage{Author: author, Body: body}
	if err := h.chat.Create(ctx, msg); err != nil {
		return nil, err
	}

	line := &ChatLine{ID: msg.ID, Author: msg.Author, Body: msg.Body, CreatedAt: msg.CreatedAt}
	payload, err := json.Marshal(serverMessage{Type: "chat", Chat: line})
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	for c := range h.clients {
		c.send(payload)
	}
	h.mu.Unlock()

	return line, nil
}

// RecentChat returns the stored chat history in chronological order.
func (h *Hub) RecentChat(ctx context.Context) ([]ChatLine, error) {
	messages, err := h.chat.ListRecent(ctx, h.history)
	if err != nil {
		return nil, err
	}
	lines := make([]ChatLine, 0, len(messages))
	for _, m := range messages {
		lines = append(lines, ChatLine{ID: m.ID, Author: m.Author, Body: m.Body, CreatedAt: m.CreatedAt})
	}
	return lines, nil
}

// ClientCount reports the number of connected viewers.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// register adds a viewer and returns its outbound channel, primed with the
// latest snapshot if one exists.
func (h *Hub) register() *client {
	c := &client{out: make(chan []byte, 16)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	if h.latest != nil {
		c.send(h.latest)
	}
	h.mu.Unlock()

	return c
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.out)
	}
	h.mu.Unlock()
}

// send drops the message if the client's buffer is full. A stalled viewer
// must not block broadcasts; it catches up on the next snapshot.
func (c *client) send(payload []byte) {
	select {
	case c.out <- payload:
	default:
	}
}
