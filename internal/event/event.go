package event

import (
	"encoding/json"
	"time"
)

// Type identifies an event kind.
type Type string

const (
	AuctionStarted     Type = "auction.started"
	AuctionCompleted   Type = "auction.completed"
	RoundStarted       Type = "round.started"
	BidPlaced          Type = "round.bid_placed"
	TeamDropped        Type = "round.team_dropped"
	PlayerSold         Type = "round.player_sold"
	PlayerUnsold       Type = "round.player_unsold"
	SaleUndone         Type = "round.sale_undone"
	UnsoldRoundStarted Type = "auction.unsold_round_started"
	IncrementChanged   Type = "auction.increment_changed"

	TeamRegistered   Type = "roster.team_registered"
	TeamRemoved      Type = "roster.team_removed"
	PlayerRegistered Type = "roster.player_registered"
	PlayerRemoved    Type = "roster.player_removed"
)

// Event represents a single domain event.
type Event struct {
	ID          string          `json:"id" db:"id"`
	AggregateID string          `json:"aggregate_id" db:"aggregate_id"`
	Type        Type            `json:"type" db:"type"`
	Data        json.RawMessage `json:"data" db:"data"`
	Version     int             `json:"version" db:"version"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// AuctionStartedData is the payload for AuctionStarted events.
type AuctionStartedData struct {
	BasePrice int    `json:"base_price"`
	Increment int    `json:"increment"`
	Mode      string `json:"mode"`
	TeamCount int    `json:"team_count"`
	PoolCount int    `json:"pool_count"`
}

// RoundStartedData is the payload for RoundStarted events.
type RoundStartedData struct {
	PlayerID     string   `json:"player_id"`
	PlayerName   string   `json:"player_name"`
	OpeningPrice int      `json:"opening_price"`
	UnsoldRound  bool     `json:"unsold_round,omitempty"`
	Rotation     []string `json:"rotation"`
}

// BidPlacedData is the payload for BidPlaced events.
type BidPlacedData struct {
	TeamID string `json:"team_id"`
	Price  int    `json:"price"`
}

// TeamDroppedData is the payload for TeamDropped events. Auto marks a
// drop forced by an unaffordable turn bid.
type TeamDroppedData struct {
	TeamID string `json:"team_id"`
	Auto   bool   `json:"auto,omitempty"`
}

// PlayerSoldData is the payload for PlayerSold events. Auto marks the
// last-team-standing automatic sale.
type PlayerSoldData struct {
	PlayerID string `json:"player_id"`
	TeamID   string `json:"team_id"`
	Price    int    `json:"price"`
	Auto     bool   `json:"auto,omitempty"`
}

// PlayerUnsoldData is the payload for PlayerUnsold events.
type PlayerUnsoldData struct {
	PlayerID string `json:"player_id"`
	Auto     bool   `json:"auto,omitempty"`
}

// SaleUndoneData is the payload for SaleUndone events.
type SaleUndoneData struct {
	PlayerID string `json:"player_id"`
}

// UnsoldRoundStartedData is the payload for UnsoldRoundStarted events.
type UnsoldRoundStartedData struct {
	PlayerCount int `json:"player_count"`
}

// IncrementChangedData is the payload for IncrementChanged events.
type IncrementChangedData struct {
	Increment int `json:"increment"`
}

// TeamRegisteredData is the payload for TeamRegistered events.
type TeamRegisteredData struct {
	Name    string `json:"name"`
	Captain string `json:"captain"`
	Budget  int    `json:"budget"`
	MaxSize int    `json:"max_size"`
}

// PlayerRegisteredData is the payload for PlayerRegistered events.
type PlayerRegisteredData struct {
	Name string `json:"name"`
	Role string `json:"role"`
}
