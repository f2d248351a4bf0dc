// Package bot is the Discord adapter. It registers the slash commands
// and translates interactions into calls on the assignment engine and
// status aggregator; all game-assignment semantics live below it.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/2molaf/jarvfjallet/internal/assign"
	"github.com/2molaf/jarvfjallet/internal/bgg"
	"github.com/2molaf/jarvfjallet/internal/health"
	"github.com/2molaf/jarvfjallet/internal/store"
)

// Bot wires the Discord session to the core operations.
type Bot struct {
	session *discordgo.Session
	store   store.Store
	engine  *assign.Engine
	bgg     *bgg.Client
	log     *slog.Logger
	now     func() time.Time

	// guildID scopes command registration during development; empty
	// registers globally.
	guildID string
}

// Config holds the adapter's settings.
type Config struct {
	Token   string
	GuildID string
}

// New creates a Bot. The session is not opened until Run.
func New(cfg Config, s store.Store, engine *assign.Engine, bggClient *bgg.Client, log *slog.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds

	b := &Bot{
		session: session,
		store:   s,
		engine:  engine,
		bgg:     bggClient,
		log:     log,
		now:     time.Now,
		guildID: cfg.GuildID,
	}

	session.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		log.Info("discord session ready", "user", r.User.Username, "guilds", len(r.Guilds))
	})
	session.AddHandler(b.handleInteraction)

	return b, nil
}

// commands is the slash-command surface the adapter exposes.
var commands = []*discordgo.ApplicationCommand{
	{
		Name:        "hit",
		Description: "Get a random unassigned game from itch.io",
	},
	{
		Name:        "status",
		Description: "Check your assigned games and their status",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionUser,
				Name:        "user",
				Description: "Check another user's status",
				Required:    false,
			},
		},
	},
	{
		Name:        "mystats",
		Description: "Get detailed statistics about your assigned games",
	},
	{
		Name:        "gameinfo",
		Description: "Get information about the game database",
	},
	{
		Name:        "review",
		Description: "Record your completed review for an assigned game",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "game",
				Description: "Game ID (shown in the assignment embed)",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "url",
				Description: "Link to your review",
				Required:    true,
			},
		},
	},
	{
		Name:        "bgg",
		Description: "Look up a board game on BoardGameGeek",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "query",
				Description: "Game name to search for",
				Required:    true,
			},
		},
	},
}

// Run opens the session, registers the slash commands, and blocks until
// ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	defer func() { _ = b.session.Close() }()

	appID := b.session.State.User.ID
	if _, err := b.session.ApplicationCommandBulkOverwrite(appID, b.guildID, commands); err != nil {
		return fmt.Errorf("register slash commands: %w", err)
	}
	b.log.Info("slash commands registered", "count", len(commands), "guild", b.guildID)

	<-ctx.Done()
	b.log.Info("shutting down discord session")
	return nil
}

// Status snapshots the connection for the health endpoints.
func (b *Bot) Status() health.BotStatus {
	st := health.BotStatus{
		Latency: b.session.HeartbeatLatency(),
	}
	if b.session.State != nil && b.session.State.User != nil {
		st.Ready = true
		st.Guilds = len(b.session.State.Guilds)
	}
	return st
}

func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	name := i.ApplicationCommandData().Name
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var err error
	switch name {
	case "hit":
		err = b.handleHit(ctx, s, i)
	case "status":
		err = b.handleStatus(ctx, s, i)
	case "mystats":
		err = b.handleMyStats(ctx, s, i)
	case "gameinfo":
		err = b.handleGameInfo(ctx, s, i)
	case "review":
		err = b.handleReview(ctx, s, i)
	case "bgg":
		err = b.handleBGG(ctx, s, i)
	default:
		return
	}

	if err != nil {
		b.log.Error("command failed", "command", name, "error", err)
		b.followupError(s, i, "An unexpected error occurred. Please try again.")
	}
}

// interactionUser returns the invoking user for both guild and DM
// interactions.
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil {
		return i.Member.User
	}
	return i.User
}

// displayName prefers the guild nickname when present.
func displayName(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.Nick != "" {
		return i.Member.Nick
	}
	u := interactionUser(i)
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

func deferResponse(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
}

func (b *Bot) followup(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) error {
	_, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
	})
	return err
}

func (b *Bot) followupError(s *discordgo.Session, i *discordgo.InteractionCreate, msg string) {
	_, _ = s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       "❌ Error",
			Description: msg,
			Color:       colorRed,
		}},
		Flags: discordgo.MessageFlagsEphemeral,
	})
}
