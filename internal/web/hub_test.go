package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/jensholdgaard/discord-auction-bot/internal/auction"
	"github.com/jensholdgaard/discord-auction-bot/internal/store"
)

type mockChatRepo struct {
	messages []store.ChatMessage
	failing  bool
	nextID   int64
}

func (m *mockChatRepo) Create(_ context.Context, msg *store.ChatMessage) error {
	if m.failing {
		return errors.New("chat store down")
	}
	m.nextID++
	msg.ID = m.nextID
	msg.CreatedAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m.messages = append(m.messages, *msg)
	return nil
}

func (m *mockChatRepo) ListRecent(_ context.Context, limit int) ([]store.ChatMessage, error) {
	if m.failing {
		return nil, errors.New("chat store down")
	}
	if len(m.messages) <= limit {
		return append([]store.ChatMessage(nil), m.messages...), nil
	}
	return append([]store.ChatMessage(nil), m.messages[len(m.messages)-limit:]...), nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHub_PublishFansOut(t *testing.T) {
	hub := NewHub(&mockChatRepo{}, 50, discardLogger())

	c1 := hub.register()
	c2 := hub.register()
	defer hub.unregister(c1)
	defer hub.unregister(c2)

	hub.Publish(auction.Snapshot{Version: 7, Started: true})

	for _, c := range []*client{c1, c2} {
		select {
		case payload := <-c.out:
			var msg serverMessage
			if err := json.Unmarshal(payload, &msg); err != nil {
				t.Fatalf("unmarshaling broadcast: %v", err)
			}
			if msg.Type != "snapshot" {
				t.Errorf("message type = %s, want snapshot", msg.Type)
			}
			if msg.Snapshot == nil || msg.Snapshot.Version != 7 {
				t.Errorf("unexpected snapshot payload: %+v", msg.Snapshot)
			}
		default:
			t.Fatal("client received no broadcast")
		}
	}
}

func TestHub_RegisterReplaysLatestSnapshot(t *testing.T) {
	hub := NewHub(&mockChatRepo{}, 50, discardLogger())
	hub.Publish(auction.Snapshot{Version: 3})

	c := hub.register()
	defer hub.unregister(c)

	select {
	case payload := <-c.out:
		var msg serverMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			t.Fatalf("unmarshaling replay: %v", err)
		}
		if msg.Snapshot == nil || msg.Snapshot.Version != 3 {
			t.Errorf("replayed snapshot = %+v, want version 3", msg.Snapshot)
		}
	default:
		t.Fatal("no snapshot replayed on connect")
	}
}

func TestHub_SlowClientDoesNotBlock(t *testing.T) {
	hub := NewHub(&mockChatRepo{}, 50, discardLogger())

	c := hub.register()
	defer hub.unregister(c)

	// Fill the buffer well past capacity; Publish must not block.
	for i := 0; i < 40; i++ {
		hub.Publish(auction.Snapshot{Version: i})
	}

	if got := len(c.out); got != cap(c.out) {
		t.Errorf("buffered messages = %d, want %d", got, cap(c.out))
	}
}

func TestHub_SubmitChat(t *testing.T) {
	repo := &mockChatRepo{}
	hub := NewHub(repo, 50, discardLogger())

	c := hub.register()
	defer hub.unregister(c)

	line, err := hub.SubmitChat(context.Background(), " viewer1 ", "  sold already?  ")
	if err != nil {
		t.Fatalf("SubmitChat: %v", err)
	}
	if line.Author != "viewer1" || line.Body != "sold already?" {
		t.Errorf("chat line not trimmed: %+v", line)
	}
	if len(repo.messages) != 1 {
		t.Fatalf("stored messages = %d, want 1", len(repo.messages))
	}

	select {
	case payload := <-c.out:
		var msg serverMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			t.Fatalf("unmarshaling chat broadcast: %v", err)
		}
		if msg.Type != "chat" || msg.Chat == nil || msg.Chat.Body != "sold already?" {
			t.Errorf("unexpected chat broadcast: %+v", msg)
		}
	default:
		t.Fatal("chat line not broadcast")
	}
}

func TestHub_SubmitChat_Validation(t *testing.T) {
	hub := NewHub(&mockChatRepo{}, 50, discardLogger())

	if _, err := hub.SubmitChat(context.Background(), "", "hello"); !errors.Is(err, ErrEmptyChatMessage) {
		t.Errorf("missing author: got %v, want ErrEmptyChatMessage", err)
	}
	if _, err := hub.SubmitChat(context.Background(), "viewer1", "   "); !errors.Is(err, ErrEmptyChatMessage) {
		t.Errorf("blank body: got %v, want ErrEmptyChatMessage", err)
	}

	long := strings.Repeat("x", maxChatBody+100)
	line, err := hub.SubmitChat(context.Background(), "viewer1", long)
	if err != nil {
		t.Fatalf("SubmitChat long body: %v", err)
	}
	if len(line.Body) != maxChatBody {
		t.Errorf("body length = %d, want %d", len(line.Body), maxChatBody)
	}

	// Truncation must not split a multi-byte rune. Three-byte runes put
	// the byte limit mid-sequence.
	wide := strings.Repeat("日", maxChatBody)
	line, err = hub.SubmitChat(context.Background(), "viewer1", wide)
	if err != nil {
		t.Fatalf("SubmitChat wide body: %v", err)
	}
	if len(line.Body) > maxChatBody {
		t.Errorf("body length = %d, want at most %d", len(line.Body), maxChatBody)
	}
	if !utf8.ValidString(line.Body) {
		t.Errorf("truncated body is not valid UTF-8: %q", line.Body)
	}
}

func TestHub_RecentChat(t *testing.T) {
	repo := &mockChatRepo{}
	hub := NewHub(repo, 2, discardLogger())

	for _, body := range []string{"one", "two", "three"} {
		if _, err := hub.SubmitChat(context.Background(), "viewer1", body); err != nil {
			t.Fatalf("SubmitChat: %v", err)
		}
	}

	lines, err := hub.RecentChat(context.Background())
	if err != nil {
		t.Fatalf("RecentChat: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("history length = %d, want 2", len(lines))
	}
	if lines[0].Body != "two" || lines[1].Body != "three" {
		t.Errorf("history = [%s, %s], want [two, three]", lines[0].Body, lines[1].Body)
	}
}

func TestHub_UnregisterStopsDelivery(t *testing.T) {
	hub := NewHub(&mockChatRepo{}, 50, discardLogger())

	c := hub.register()
	hub.unregister(c)

	if got := hub.ClientCount(); got != 0 {
		t.Errorf("ClientCount = %d, want 0", got)
	}

	// Outbox is closed; no panic on a second unregister.
	hub.unregister(c)
	hub.Publish(auction.Snapshot{Version: 1})
}
