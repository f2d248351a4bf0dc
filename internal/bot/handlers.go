package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/2molaf/jarvfjallet/internal/assign"
	"github.com/2molaf/jarvfjallet/internal/status"
	"github.com/2molaf/jarvfjallet/internal/store"
)

func (b *Bot) handleHit(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if err := deferResponse(s, i); err != nil {
		return err
	}

	user := interactionUser(i)
	game, err := b.engine.Assign(ctx, user.ID, displayName(i))
	switch {
	case errors.Is(err, store.ErrEmptyPool):
		return b.followup(s, i, &discordgo.MessageEmbed{
			Title:       "\U0001f3ae No Games Available",
			Description: "Sorry, there are no unassigned games available at the moment!",
			Color:       colorOrange,
		})
	case errors.Is(err, assign.ErrContention):
		return b.followup(s, i, &discordgo.MessageEmbed{
			Title:       "⏳ Busy",
			Description: "Lots of people rolling right now — please try again.",
			Color:       colorOrange,
		})
	case err != nil:
		return err
	}

	b.log.Info("assigned game", "game", game.ID, "name", game.Name, "user", user.ID)

	if err := b.followup(s, i, assignmentEmbed(game, displayName(i))); err != nil {
		return err
	}

	// DM a copy; users with DMs disabled just don't get one.
	if ch, err := s.UserChannelCreate(user.ID); err == nil {
		_, _ = s.ChannelMessageSendEmbed(ch.ID, &discordgo.MessageEmbed{
			Title:       fmt.Sprintf("\U0001f4e7 You've been assigned: %s", game.Name),
			Description: fmt.Sprintf("Check it out: %s", game.GameURL),
			Color:       colorBlue,
		})
	}
	return nil
}

func (b *Bot) handleStatus(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if err := deferResponse(s, i); err != nil {
		return err
	}

	target := interactionUser(i)
	name := displayName(i)
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "user" {
			target = opt.UserValue(s)
			name = target.Username
			if target.GlobalName != "" {
				name = target.GlobalName
			}
		}
	}

	// Historical data recorded either the user ID or the display name,
	// so both variants are checked.
	assignments, err := status.StatusFor(ctx, b.store, []string{target.ID, name}, b.now())
	if err != nil {
		return err
	}

	if len(assignments) == 0 {
		return b.followup(s, i, &discordgo.MessageEmbed{
			Title:       fmt.Sprintf("\U0001f4cb %s's Games", name),
			Description: "No assigned games found.",
			Color:       colorGray,
		})
	}

	return b.followup(s, i, statusEmbed(name, assignments))
}

func (b *Bot) handleMyStats(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if err := deferResponse(s, i); err != nil {
		return err
	}

	user := interactionUser(i)
	name := displayName(i)

	assignments, err := status.StatusFor(ctx, b.store, []string{user.ID, name}, b.now())
	if err != nil {
		return err
	}

	if len(assignments) == 0 {
		return b.followup(s, i, &discordgo.MessageEmbed{
			Title:       "\U0001f4ca Your Game Statistics",
			Description: "You haven't been assigned any games yet! Use `/hit` to get started.",
			Color:       colorGray,
		})
	}

	return b.followup(s, i, myStatsEmbed(name, user.ID, assignments))
}

func (b *Bot) handleGameInfo(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if err := deferResponse(s, i); err != nil {
		return err
	}

	stats, err := b.store.Stats(ctx)
	if err != nil {
		return err
	}
	return b.followup(s, i, gameInfoEmbed(stats))
}

func (b *Bot) handleReview(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if err := deferResponse(s, i); err != nil {
		return err
	}

	var gameID int64
	var url string
	for _, opt := range i.ApplicationCommandData().Options {
		switch opt.Name {
		case "game":
			gameID = opt.IntValue()
		case "url":
			url = opt.StringValue()
		}
	}

	err := b.engine.RecordCompletion(ctx, gameID, url)
	switch {
	case errors.Is(err, store.ErrInvalidState):
		return b.followup(s, i, &discordgo.MessageEmbed{
			Title:       "❌ Not Assigned",
			Description: "You don't have this game assigned — nothing to review.",
			Color:       colorRed,
		})
	case errors.Is(err, store.ErrNotFound):
		return b.followup(s, i, &discordgo.MessageEmbed{
			Title:       "❌ Unknown Game",
			Description: fmt.Sprintf("No game with ID %d exists.", gameID),
			Color:       colorRed,
		})
	case err != nil:
		return err
	}

	game, err := b.store.GetGame(ctx, gameID)
	if err != nil {
		return err
	}

	b.log.Info("review recorded", "game", gameID, "user", interactionUser(i).ID)
	return b.followup(s, i, &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("✅ Review Recorded: %s", game.Name),
		Description: fmt.Sprintf("Thanks for reviewing! %s", url),
		Color:       colorGreen,
	})
}

func (b *Bot) handleBGG(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if err := deferResponse(s, i); err != nil {
		return err
	}

	var query string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "query" {
			query = opt.StringValue()
		}
	}

	results, err := b.bgg.Search(ctx, query, false)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return b.followup(s, i, &discordgo.MessageEmbed{
			Title:       "\U0001f50d No Results",
			Description: fmt.Sprintf("No board games found for %q.", query),
			Color:       colorGray,
		})
	}

	game, err := b.bgg.GameDetails(ctx, results[0].ID)
	if err != nil {
		return err
	}
	return b.followup(s, i, bggEmbed(game))
}
