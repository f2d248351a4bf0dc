package bot

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/2molaf/jarvfjallet/internal/bgg"
	"github.com/2molaf/jarvfjallet/internal/models"
	"github.com/2molaf/jarvfjallet/internal/status"
	"github.com/2molaf/jarvfjallet/internal/store"
)

// Discord embed accent colors.
const (
	colorGreen  = 0x57f287
	colorBlue   = 0x3498db
	colorOrange = 0xe67e22
	colorRed    = 0xed4245
	colorGray   = 0x95a5a6
	colorGold   = 0xf1c40f
	colorPurple = 0x9b59b6
)

// embedDescriptionLimit is Discord's hard cap on embed descriptions.
const embedDescriptionLimit = 4096

// categoryEmoji maps each classification to its status marker.
func categoryEmoji(c status.Category) string {
	switch c {
	case status.CategoryActive:
		return "▶️"
	case status.CategoryWaiting:
		return "⏸"
	case status.CategoryDone:
		return "⏹"
	case status.CategoryRecorded:
		return "⏺"
	default:
		return "❓"
	}
}

// platformLines renders the supported-platform list for an assignment
// embed, one platform per line.
func platformLines(g *models.Game) string {
	var lines []string
	if g.Windows {
		lines = append(lines, "\U0001fa9f Windows")
	}
	if g.Mac {
		lines = append(lines, "\U0001f34e macOS")
	}
	if g.Linux {
		lines = append(lines, "\U0001f427 Linux")
	}
	return strings.Join(lines, "\n")
}

// gameLine formats one game as a markdown link with its developer.
func gameLine(g *models.Game) string {
	dev := g.DevName
	if dev == "" {
		dev = "Unknown"
	}
	return fmt.Sprintf("[%s](%s) by %s", g.Name, g.GameURL, dev)
}

// statusDescription renders the per-game status list, truncated to
// Discord's embed limit.
func statusDescription(assignments []status.Assignment) string {
	lines := []string{fmt.Sprintf("%s **Active**; %s **Waiting**; %s **Done**\n",
		categoryEmoji(status.CategoryActive),
		categoryEmoji(status.CategoryWaiting),
		categoryEmoji(status.CategoryDone))}

	for _, a := range assignments {
		lines = append(lines, fmt.Sprintf("%s %s", categoryEmoji(a.Category), gameLine(a.Game)))
	}

	desc := strings.Join(lines, "\n")
	if len(desc) > embedDescriptionLimit {
		desc = desc[:embedDescriptionLimit-3] + "..."
	}
	return desc
}

func assignmentEmbed(g *models.Game, assignee string) *discordgo.MessageEmbed {
	desc := g.ShortText
	if desc == "" {
		desc = "No description available"
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("\U0001f3af Game Assigned: %s", g.Name),
		Description: desc,
		URL:         g.GameURL,
		Color:       colorGreen,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Game ID: %d • Assigned to %s", g.ID, assignee),
		},
	}

	if g.DevName != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Developer", Value: g.DevName, Inline: true,
		})
	}
	if platforms := platformLines(g); platforms != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Platforms", Value: platforms, Inline: true,
		})
	}
	host := g.Host
	if host == "" {
		host = "itch.io"
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name: "Host", Value: host, Inline: true,
	})
	if g.ThumbURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: g.ThumbURL}
	}
	return embed
}

func statusEmbed(name string, assignments []status.Assignment) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("\U0001f4cb %s's Assigned Games", name),
		Description: statusDescription(assignments),
		Color:       colorBlue,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Total games: %d", len(assignments)),
		},
	}
}

func myStatsEmbed(name, userID string, assignments []status.Assignment) *discordgo.MessageEmbed {
	total := len(assignments)
	completed := 0
	windows, mac, linux := 0, 0, 0
	for _, a := range assignments {
		if a.Game.Completed() {
			completed++
		}
		if a.Game.Windows {
			windows++
		}
		if a.Game.Mac {
			mac++
		}
		if a.Game.Linux {
			linux++
		}
	}
	pending := total - completed

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("\U0001f4ca %s's Game Statistics", name),
		Color: colorPurple,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name: "\U0001f4c8 Overview",
				Value: fmt.Sprintf("**Total Games:** %d\n**Completed:** %d\n**Pending:** %d",
					total, completed, pending),
				Inline: true,
			},
			{
				Name: "\U0001f4bb Platforms",
				Value: fmt.Sprintf("\U0001fa9f Windows: %d\n\U0001f34e macOS: %d\n\U0001f427 Linux: %d",
					windows, mac, linux),
				Inline: true,
			},
			{
				Name:   "\U0001f3af Completion Rate",
				Value:  fmt.Sprintf("%.1f%%", float64(completed)/float64(total)*100),
				Inline: true,
			},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Keep up the great work! • User ID: %s", userID),
		},
	}

	recent := assignments
	if len(recent) > 5 {
		recent = recent[:5]
	}
	var lines []string
	for _, a := range recent {
		marker := "⏳"
		if a.Game.Completed() {
			marker = "✅"
		}
		lines = append(lines, fmt.Sprintf("%s [%s](%s)", marker, a.Game.Name, a.Game.GameURL))
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:  "\U0001f550 Recent Games",
		Value: strings.Join(lines, "\n"),
	})

	return embed
}

func gameInfoEmbed(stats *store.Stats) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "\U0001f3ae Game Database Information",
		Color: colorGold,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name: "\U0001f4ca Database Stats",
				Value: fmt.Sprintf("**Total Games:** %d\n**Available:** %d\n**Assigned:** %d\n**Completed:** %d",
					stats.Total, stats.Unassigned, stats.Assigned, stats.Completed),
				Inline: true,
			},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Games sourced from itch.io"},
	}

	if stats.Total > 0 {
		pct := func(n int) float64 { return float64(n) / float64(stats.Total) * 100 }
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "\U0001f4c8 Percentages",
			Value: fmt.Sprintf("**Available:** %.1f%%\n**Assigned:** %.1f%%\n**Completed:** %.1f%%",
				pct(stats.Unassigned), pct(stats.Assigned), pct(stats.Completed)),
			Inline: true,
		})
	}

	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name: "\U0001f3af How to Play",
		Value: "• Use `/hit` to get a random game\n" +
			"• Use `/status` to see your games\n" +
			"• Use `/review` to record a finished review\n" +
			"• Use `/mystats` for detailed stats",
	})

	return embed
}

func bggEmbed(g *bgg.Game) *discordgo.MessageEmbed {
	desc := g.Description
	if len(desc) > 500 {
		desc = desc[:497] + "..."
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("%s (%d)", g.Name, g.Year),
		Description: desc,
		URL:         fmt.Sprintf("https://boardgamegeek.com/boardgame/%d", g.ID),
		Color:       colorBlue,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Players",
				Value:  fmt.Sprintf("%d–%d", g.MinPlayers, g.MaxPlayers),
				Inline: true,
			},
			{
				Name:   "Playing Time",
				Value:  fmt.Sprintf("%d min", g.PlayingTime),
				Inline: true,
			},
			{
				Name:   "Rating",
				Value:  fmt.Sprintf("%.1f / 10", g.AverageRating),
				Inline: true,
			},
		},
	}
	if g.Thumbnail != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: g.Thumbnail}
	}
	return embed
}
