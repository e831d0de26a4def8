package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/jensholdgaard/discord-auction-bot/internal/auction"
	"github.com/jensholdgaard/discord-auction-bot/internal/store"
)

const defaultEmbedColor = 0x5865f2

// colorValue converts a "#rrggbb" palette color to a Discord embed color.
func colorValue(hex string) int {
	hex = strings.TrimPrefix(hex, "#")
	v, err := strconv.ParseInt(hex, 16, 32)
	if err != nil {
		return defaultEmbedColor
	}
	return int(v)
}

func renderTeamList(teams []store.Team) string {
	if len(teams) == 0 {
		return "No teams registered yet."
	}
	var b strings.Builder
	b.WriteString("**Teams:**\n")
	for idx, t := range teams {
		fmt.Fprintf(&b, "%d. **%s** — captain %s, budget %d/%d\n",
			idx+1, t.Name, t.Captain, t.RemainingBudget, t.Budget)
	}
	return b.String()
}

func renderPlayerList(players []store.Player) string {
	if len(players) == 0 {
		return "The player pool is empty."
	}
	var b strings.Builder
	b.WriteString("**Player pool:**\n")
	for idx, p := range players {
		status := p.Status
		if p.Status == "sold" && p.SoldPrice != nil {
			status = fmt.Sprintf("sold for %d", *p.SoldPrice)
		}
		fmt.Fprintf(&b, "%d. %s (%s) — %s\n", idx+1, p.Name, p.Role, status)
	}
	return b.String()
}

// renderOutcome turns a bidding transition into a host-facing reply.
func renderOutcome(out auction.Outcome) string {
	switch out.Kind {
	case auction.OutcomeBidPlaced:
		return fmt.Sprintf("**%s** bids **%d** on %s", out.TeamName, out.Price, out.PlayerName)
	case auction.OutcomeDropped:
		return fmt.Sprintf("**%s** drops out of the bidding for %s", out.DroppedTeamName, out.PlayerName)
	case auction.OutcomeAutoDropped:
		return fmt.Sprintf("**%s** cannot afford the next bid and is out of the bidding for %s",
			out.DroppedTeamName, out.PlayerName)
	case auction.OutcomeSold:
		return fmt.Sprintf("**SOLD!** %s goes to **%s** for **%d** (remaining budget %d)",
			out.PlayerName, out.TeamName, out.Price, out.TeamRemaining)
	case auction.OutcomeAutoSold:
		msg := fmt.Sprintf("**SOLD!** %s goes to **%s** for **%d** as the last team standing (remaining budget %d)",
			out.PlayerName, out.TeamName, out.Price, out.TeamRemaining)
		if out.DroppedTeamName != "" {
			msg = fmt.Sprintf("**%s** drops out. %s", out.DroppedTeamName, msg)
		}
		return msg
	case auction.OutcomeUnsold:
		return fmt.Sprintf("**%s** goes unsold", out.PlayerName)
	case auction.OutcomeAutoUnsold:
		msg := fmt.Sprintf("No bids left. **%s** goes unsold", out.PlayerName)
		if out.DroppedTeamName != "" {
			msg = fmt.Sprintf("**%s** drops out. %s", out.DroppedTeamName, msg)
		}
		return msg
	default:
		return string(out.Kind)
	}
}

// boardEmbed renders the full auction board.
func boardEmbed(snap auction.Snapshot) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "Auction Board",
		Color: defaultEmbedColor,
	}

	switch {
	case !snap.Started:
		embed.Description = "The auction has not started yet."
	case snap.Complete:
		embed.Description = fmt.Sprintf("Auction complete. %d sold, %d unsold.", snap.SoldCount, snap.UnsoldCount)
	case snap.CurrentPlayer == nil:
		embed.Description = "Waiting for the next player."
	default:
		header := "On the block"
		if snap.UnsoldRound {
			header = "On the block (unsold round)"
		}
		embed.Description = fmt.Sprintf("**%s** — %s (%s)", header, snap.CurrentPlayer.Name, snap.CurrentPlayer.Role)

		price := fmt.Sprintf("%d", snap.CurrentPrice)
		if snap.LeaderName != "" {
			price += fmt.Sprintf(" (leading: **%s**)", snap.LeaderName)
		} else {
			price += " (no bids yet)"
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Current price", Value: price,
		})

		if snap.Mode == auction.ModeRotation && snap.TurnTeamID != "" {
			for _, t := range snap.Teams {
				if t.ID == snap.TurnTeamID {
					embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
						Name: "On turn", Value: t.Name, Inline: true,
					})
					break
				}
			}
		}
	}

	for _, t := range snap.Teams {
		var status string
		switch {
		case t.Dropped:
			status = "out of this round"
		case snap.Mode == auction.ModeRotation && !t.InRotation:
			status = "not in rotation"
		default:
			status = fmt.Sprintf("max bid %d", t.MaxBid)
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   t.Name,
			Value:  fmt.Sprintf("budget %d/%d, roster %d/%d, %s", t.RemainingBudget, t.Budget, t.Size, t.MaxSize, status),
			Inline: true,
		})
	}

	embed.Footer = &discordgo.MessageEmbedFooter{
		Text: fmt.Sprintf("Pool: %d available, %d sold, %d unsold", snap.AvailableCount, snap.SoldCount, snap.UnsoldCount),
	}
	return embed
}

// teamEmbed renders one team's dashboard in the team's color.
func teamEmbed(t auction.TeamView) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: t.Name,
		Color: colorValue(t.Color),
		Description: fmt.Sprintf("Captain %s\nBudget %d/%d\nRoster %d/%d\nMax bid %d",
			t.Captain, t.RemainingBudget, t.Budget, t.Size, t.MaxSize, t.MaxBid),
	}
	if len(t.Players) > 0 {
		var b strings.Builder
		for _, p := range t.Players {
			fmt.Fprintf(&b, "%s (%s) — %d\n", p.Name, p.Role, p.SoldPrice)
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Squad", Value: b.String(),
		})
	}
	return embed
}

// outcomeEmbed renders a sale or unsold result for the announce channel,
// colored by the buying team where there is one.
func outcomeEmbed(out auction.Outcome, snap auction.Snapshot) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Color:       defaultEmbedColor,
		Description: renderOutcome(out),
	}
	switch out.Kind {
	case auction.OutcomeSold, auction.OutcomeAutoSold:
		embed.Title = fmt.Sprintf("%s sold", out.PlayerName)
		for _, t := range snap.Teams {
			if t.ID == out.TeamID {
				embed.Color = colorValue(t.Color)
				break
			}
		}
	case auction.OutcomeUnsold, auction.OutcomeAutoUnsold:
		embed.Title = fmt.Sprintf("%s unsold", out.PlayerName)
	}
	return embed
}
