package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"

	"github.com/jensholdgaard/discord-auction-bot/internal/assets"
	"github.com/jensholdgaard/discord-auction-bot/internal/auction"
	"github.com/jensholdgaard/discord-auction-bot/internal/health"
)

// ErrEmptyChatMessage is returned when a chat submission has no author or body.
var ErrEmptyChatMessage = errors.New("chat message must have an author and a body")

const writeTimeout = 3 * time.Second

// Board provides the current auction snapshot.
type Board interface {
	Snapshot() auction.Snapshot
}

// Server bundles the HTTP surface of the auction board.
type Server struct {
	hub    *Hub
	board  Board
	assets *assets.Resolver
	health *health.Handler
	logger *slog.Logger
}

// NewServer returns a Server exposing the board, chat, assets and health
// endpoints.
func NewServer(hub *Hub, board Board, resolver *assets.Resolver, hc *health.Handler, logger *slog.Logger) *Server {
	return &Server{hub: hub, board: board, assets: resolver, health: hc, logger: logger}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.health.LivenessHandler())
	r.Get("/readyz", s.health.ReadinessHandler())

	r.Get("/api/board", s.handleBoard)
	r.Get("/api/chat", s.handleChatHistory)
	r.Post("/api/chat", s.handleChatPost)
	r.Get("/assets/{player}", s.handleAsset)
	r.Get("/ws", s.handleWS)

	return r
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	snap := s.board.Snapshot()
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	lines, err := s.hub.RecentChat(r.Context())
	if err != nil {
		s.logger.Error("loading chat history", "error", err)
		http.Error(w, "chat unavailable", http.StatusInternalServerError)
		return
	}
	if lines == nil {
		lines = []ChatLine{}
	}
	writeJSON(w, http.StatusOK, lines)
}

func (s *Server) handleChatPost(w http.ResponseWriter, r *http.Request) {
	var msg clientMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	line, err := s.hub.SubmitChat(r.Context(), msg.Author, msg.Body)
	if err != nil {
		if errors.Is(err, ErrEmptyChatMessage) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.logger.Error("storing chat message", "error", err)
		http.Error(w, "chat unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, line)
}

func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "player")
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}
	path, err := s.assets.Resolve(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, path)
}

// handleWS upgrades the connection and streams snapshots and chat to the
// viewer. Viewers may send chat messages back; everything else is rejected.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	c := s.hub.register()
	defer s.hub.unregister(c)

	// Writer goroutine drains the client's outbox.
	writeCtx, writeCancel := context.WithCancel(r.Context())
	defer writeCancel()
	go func() {
		for payload := range c.out {
			ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
			err := conn.Write(ctx, websocket.MessageText, payload)
			cancel()
			if err != nil {
				return
			}
		}
	}()

	for {
		_, data, err := conn.Read(r.Context())
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.writeError(r.Context(), conn, "bad json")
			continue
		}
		if msg.Type != "chat" {
			s.writeError(r.Context(), conn, "unknown type")
			continue
		}
		if _, err := s.hub.SubmitChat(r.Context(), msg.Author, msg.Body); err != nil {
			s.writeError(r.Context(), conn, "chat rejected")
		}
	}
}

func (s *Server) writeError(ctx context.Context, conn *websocket.Conn, reason string) {
	payload, _ := json.Marshal(map[string]string{"type": "error", "error": reason})
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_ = conn.Write(writeCtx, websocket.MessageText, payload)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
