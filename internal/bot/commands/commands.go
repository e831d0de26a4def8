package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jensholdgaard/discord-auction-bot/internal/auction"
	"github.com/jensholdgaard/discord-auction-bot/internal/config"
	"github.com/jensholdgaard/discord-auction-bot/internal/roster"
)

// Handlers process Discord interactions.
type Handlers struct {
	rosterMgr  *roster.Manager
	auctionMgr *auction.Manager
	cfg        config.DiscordConfig
	logger     *slog.Logger
	tracer     trace.Tracer
}

// NewHandlers creates new command handlers.
func NewHandlers(rosterMgr *roster.Manager, auctionMgr *auction.Manager, cfg config.DiscordConfig, logger *slog.Logger, tp trace.TracerProvider) *Handlers {
	return &Handlers{
		rosterMgr:  rosterMgr,
		auctionMgr: auctionMgr,
		cfg:        cfg,
		logger:     logger,
		tracer:     tp.Tracer("github.com/jensholdgaard/discord-auction-bot/internal/bot/commands"),
	}
}

func roleChoices() []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(roster.Roles))
	for _, r := range roster.Roles {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  string(r),
			Value: string(r),
		})
	}
	return choices
}

// SlashCommands returns the slash command definitions.
func SlashCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "team-add",
			Description: "Register a team (host only)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "name",
					Description: "Team name",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "captain",
					Description: "Captain name",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "budget",
					Description: "Starting budget (default from config)",
					Required:    false,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "max-size",
					Description: "Roster size limit (default from config)",
					Required:    false,
				},
			},
		},
		{
			Name:        "team-remove",
			Description: "Remove a team before the auction starts (host only)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "name",
					Description: "Team name",
					Required:    true,
				},
			},
		},
		{
			Name:        "player-add",
			Description: "Add a player to the auction pool (host only)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "name",
					Description: "Player name",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "role",
					Description: "Playing role",
					Required:    true,
					Choices:     roleChoices(),
				},
			},
		},
		{
			Name:        "player-remove",
			Description: "Remove a player from the pool before the auction starts (host only)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "name",
					Description: "Player name",
					Required:    true,
				},
			},
		},
		{
			Name:        "teams",
			Description: "List registered teams",
		},
		{
			Name:        "players",
			Description: "List the player pool",
		},
		{
			Name:        "auction-start",
			Description: "Start the auction (host only)",
		},
		{
			Name:        "bid",
			Description: "Record a bid from the team on turn (host only)",
		},
		{
			Name:        "drop",
			Description: "Drop the team on turn from the rotation (host only)",
		},
		{
			Name:        "bid-team",
			Description: "Record a bid from a named team (host only, direct mode)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "team",
					Description: "Team name",
					Required:    true,
				},
			},
		},
		{
			Name:        "sell",
			Description: "Sell the current player to the leading team (host only)",
		},
		{
			Name:        "unsold",
			Description: "Mark the current player unsold (host only)",
		},
		{
			Name:        "next",
			Description: "Pull the next player from the pool (host only)",
		},
		{
			Name:        "undo",
			Description: "Undo the last sale or unsold result (host only)",
		},
		{
			Name:        "unsold-round",
			Description: "Re-auction the unsold players (host only)",
		},
		{
			Name:        "increment",
			Description: "Change the bid increment (host only)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "amount",
					Description: "New bid increment",
					Required:    true,
				},
			},
		},
		{
			Name:        "board",
			Description: "Show the auction board",
		},
		{
			Name:        "team",
			Description: "Show a team's roster and budget",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "name",
					Description: "Team name",
					Required:    true,
				},
			},
		},
	}
}

// hostOnly lists the commands gated behind the host role.
var hostOnly = map[string]bool{
	"team-add":      true,
	"team-remove":   true,
	"player-add":    true,
	"player-remove": true,
	"auction-start": true,
	"bid":           true,
	"drop":          true,
	"bid-team":      true,
	"sell":          true,
	"unsold":        true,
	"next":          true,
	"undo":          true,
	"unsold-round":  true,
	"increment":     true,
}

// isHost reports whether the member carries the configured host role. An
// empty role id disables the gate.
func isHost(member *discordgo.Member, hostRoleID string) bool {
	if hostRoleID == "" {
		return true
	}
	if member == nil {
		return false
	}
	for _, role := range member.Roles {
		if role == hostRoleID {
			return true
		}
	}
	return false
}

// InteractionCreate handles incoming slash command interactions.
func (h *Handlers) InteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	name := i.ApplicationCommandData().Name

	ctx, span := h.tracer.Start(context.Background(), "InteractionCreate",
		trace.WithAttributes(attribute.String("command", name)),
	)
	defer span.End()

	if hostOnly[name] && !isHost(i.Member, h.cfg.HostRoleID) {
		respond(s, i, "Only the auction host can use this command.")
		return
	}

	switch name {
	case "team-add":
		h.handleTeamAdd(ctx, s, i)
	case "team-remove":
		h.handleTeamRemove(ctx, s, i)
	case "player-add":
		h.handlePlayerAdd(ctx, s, i)
	case "player-remove":
		h.handlePlayerRemove(ctx, s, i)
	case "teams":
		h.handleTeams(ctx, s, i)
	case "players":
		h.handlePlayers(ctx, s, i)
	case "auction-start":
		h.handleAuctionStart(ctx, s, i)
	case "bid":
		h.handleBid(ctx, s, i)
	case "drop":
		h.handleDrop(ctx, s, i)
	case "bid-team":
		h.handleBidTeam(ctx, s, i)
	case "sell":
		h.handleSell(ctx, s, i)
	case "unsold":
		h.handleUnsold(ctx, s, i)
	case "next":
		h.handleNext(ctx, s, i)
	case "undo":
		h.handleUndo(ctx, s, i)
	case "unsold-round":
		h.handleUnsoldRound(ctx, s, i)
	case "increment":
		h.handleIncrement(ctx, s, i)
	case "board":
		h.handleBoard(ctx, s, i)
	case "team":
		h.handleTeam(ctx, s, i)
	default:
		respond(s, i, "Unknown command")
	}
}

func (h *Handlers) handleTeamAdd(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	var (
		name, captain   string
		budget, maxSize int
	)
	for _, opt := range i.ApplicationCommandData().Options {
		switch opt.Name {
		case "name":
			name = opt.StringValue()
		case "captain":
			captain = opt.StringValue()
		case "budget":
			budget = int(opt.IntValue())
		case "max-size":
			maxSize = int(opt.IntValue())
		}
	}

	team, err := h.rosterMgr.RegisterTeam(ctx, name, captain, budget, maxSize)
	if err != nil {
		respond(s, i, fmt.Sprintf("Failed to register team: %s", err))
		return
	}
	respond(s, i, fmt.Sprintf("Team **%s** registered (captain %s, budget %d, roster limit %d)",
		team.Name, team.Captain, team.Budget, team.MaxSize))
}

func (h *Handlers) handleTeamRemove(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	name := i.ApplicationCommandData().Options[0].StringValue()

	teams, err := h.rosterMgr.ListTeams(ctx)
	if err != nil {
		respond(s, i, fmt.Sprintf("Failed to list teams: %s", err))
		return
	}
	for _, t := range teams {
		if strings.EqualFold(t.Name, name) {
			if err := h.rosterMgr.RemoveTeam(ctx, t.ID); err != nil {
				respond(s, i, fmt.Sprintf("Failed to remove team: %s", err))
				return
			}
			respond(s, i, fmt.Sprintf("Team **%s** removed", t.Name))
			return
		}
	}
	respond(s, i, fmt.Sprintf("No team named **%s**", name))
}

func (h *Handlers) handlePlayerAdd(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	var name, role string
	for _, opt := range i.ApplicationCommandData().Options {
		switch opt.Name {
		case "name":
			name = opt.StringValue()
		case "role":
			role = opt.StringValue()
		}
	}

	player, err := h.rosterMgr.RegisterPlayer(ctx, name, role)
	if err != nil {
		respond(s, i, fmt.Sprintf("Failed to add player: %s", err))
		return
	}
	respond(s, i, fmt.Sprintf("Player **%s** (%s) added to the pool", player.Name, player.Role))
}

func (h *Handlers) handlePlayerRemove(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	name := i.ApplicationCommandData().Options[0].StringValue()

	players, err := h.rosterMgr.ListPlayers(ctx)
	if err != nil {
		respond(s, i, fmt.Sprintf("Failed to list players: %s", err))
		return
	}
	for _, p := range players {
		if strings.EqualFold(p.Name, name) {
			if err := h.rosterMgr.RemovePlayer(ctx, p.ID); err != nil {
				respond(s, i, fmt.Sprintf("Failed to remove player: %s", err))
				return
			}
			respond(s, i, fmt.Sprintf("Player **%s** removed from the pool", p.Name))
			return
		}
	}
	respond(s, i, fmt.Sprintf("No player named **%s** in the pool", name))
}

func (h *Handlers) handleTeams(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	teams, err := h.rosterMgr.ListTeams(ctx)
	if err != nil {
		respond(s, i, fmt.Sprintf("Failed to list teams: %s", err))
		return
	}
	respond(s, i, renderTeamList(teams))
}

func (h *Handlers) handlePlayers(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	players, err := h.rosterMgr.ListPlayers(ctx)
	if err != nil {
		respond(s, i, fmt.Sprintf("Failed to list players: %s", err))
		return
	}
	respond(s, i, renderPlayerList(players))
}

func (h *Handlers) handleAuctionStart(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	first, err := h.auctionMgr.StartAuction(ctx)
	if err != nil {
		respond(s, i, fmt.Sprintf("Failed to start auction: %s", err))
		return
	}
	snap := h.auctionMgr.Snapshot()
	respond(s, i, fmt.Sprintf("Auction started. First up: **%s** (%s) at %d", first.Name, first.Role, snap.BasePrice))
	h.announceEmbed(s, boardEmbed(snap))
}

func (h *Handlers) handleBid(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	out, err := h.auctionMgr.PlaceBid(ctx)
	if err != nil {
		respond(s, i, fmt.Sprintf("Bid failed: %s", err))
		return
	}
	h.respondOutcome(s, i, out)
}

func (h *Handlers) handleDrop(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	out, err := h.auctionMgr.Drop(ctx)
	if err != nil {
		respond(s, i, fmt.Sprintf("Drop failed: %s", err))
		return
	}
	h.respondOutcome(s, i, out)
}

func (h *Handlers) handleBidTeam(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	name := i.ApplicationCommandData().Options[0].StringValue()

	teamID := ""
	for _, t := range h.auctionMgr.Snapshot().Teams {
		if strings.EqualFold(t.Name, name) {
			teamID = t.ID
			break
		}
	}
	if teamID == "" {
		respond(s, i, fmt.Sprintf("No team named **%s**", name))
		return
	}

	out, err := h.auctionMgr.BidByTeam(ctx, teamID)
	if err != nil {
		respond(s, i, fmt.Sprintf("Bid failed: %s", err))
		return
	}
	h.respondOutcome(s, i, out)
}

func (h *Handlers) handleSell(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	out, err := h.auctionMgr.Sell(ctx)
	if err != nil {
		respond(s, i, fmt.Sprintf("Sale failed: %s", err))
		return
	}
	h.respondOutcome(s, i, out)
}

func (h *Handlers) handleUnsold(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	out, err := h.auctionMgr.MarkUnsold(ctx)
	if err != nil {
		respond(s, i, fmt.Sprintf("Failed to mark unsold: %s", err))
		return
	}
	h.respondOutcome(s, i, out)
}

func (h *Handlers) handleNext(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	player, err := h.auctionMgr.NextPlayer(ctx)
	if err != nil {
		respond(s, i, fmt.Sprintf("Failed to advance: %s", err))
		return
	}
	if player == nil {
		respond(s, i, "The pool is exhausted. Use `/unsold-round` to re-auction unsold players, or the auction is complete.")
		return
	}
	snap := h.auctionMgr.Snapshot()
	respond(s, i, fmt.Sprintf("Next up: **%s** (%s) at %d", player.Name, player.Role, snap.BasePrice))
}

func (h *Handlers) handleUndo(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	info, err := h.auctionMgr.Undo(ctx)
	if err != nil {
		respond(s, i, fmt.Sprintf("Undo failed: %s", err))
		return
	}
	if info.TeamID != "" {
		respond(s, i, fmt.Sprintf("Sale of **%s** reversed; bidding reopened", info.Player.Name))
		return
	}
	respond(s, i, fmt.Sprintf("Unsold result for **%s** reversed; bidding reopened", info.Player.Name))
}

func (h *Handlers) handleUnsoldRound(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	player, err := h.auctionMgr.StartUnsoldRound(ctx)
	if err != nil {
		if errors.Is(err, auction.ErrNoUnsoldPlayers) {
			respond(s, i, "No unsold players to re-auction.")
			return
		}
		respond(s, i, fmt.Sprintf("Failed to start the unsold round: %s", err))
		return
	}
	snap := h.auctionMgr.Snapshot()
	respond(s, i, fmt.Sprintf("Unsold round started. First up: **%s** (%s) at %d", player.Name, player.Role, snap.BasePrice))
}

func (h *Handlers) handleIncrement(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	amount := int(i.ApplicationCommandData().Options[0].IntValue())
	if err := h.auctionMgr.SetIncrement(ctx, amount); err != nil {
		respond(s, i, fmt.Sprintf("Failed to change increment: %s", err))
		return
	}
	respond(s, i, fmt.Sprintf("Bid increment is now **%d**", amount))
}

func (h *Handlers) handleBoard(_ context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	respondEmbed(s, i, boardEmbed(h.auctionMgr.Snapshot()))
}

func (h *Handlers) handleTeam(_ context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	name := i.ApplicationCommandData().Options[0].StringValue()

	for _, t := range h.auctionMgr.Snapshot().Teams {
		if strings.EqualFold(t.Name, name) {
			respondEmbed(s, i, teamEmbed(t))
			return
		}
	}
	respond(s, i, fmt.Sprintf("No team named **%s**", name))
}

// respondOutcome replies with the transition result and announces sales and
// unsold results to the configured channel.
func (h *Handlers) respondOutcome(s *discordgo.Session, i *discordgo.InteractionCreate, out auction.Outcome) {
	respond(s, i, renderOutcome(out))

	switch out.Kind {
	case auction.OutcomeSold, auction.OutcomeAutoSold, auction.OutcomeUnsold, auction.OutcomeAutoUnsold:
		h.announceEmbed(s, outcomeEmbed(out, h.auctionMgr.Snapshot()))
	}
}

func (h *Handlers) announceEmbed(s *discordgo.Session, embed *discordgo.MessageEmbed) {
	if h.cfg.AnnounceChannelID == "" {
		return
	}
	if _, err := s.ChannelMessageSendEmbed(h.cfg.AnnounceChannelID, embed); err != nil {
		h.logger.Error("failed to announce", slog.Any("error", err))
	}
}

func respond(s *discordgo.Session, i *discordgo.InteractionCreate, msg string) {
	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: msg,
		},
	})
}

func respondEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}
