package bot

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2molaf/jarvfjallet/internal/bgg"
	"github.com/2molaf/jarvfjallet/internal/models"
	"github.com/2molaf/jarvfjallet/internal/status"
	"github.com/2molaf/jarvfjallet/internal/store"
)

func ts(t time.Time) *time.Time { return &t }

func TestCategoryEmoji(t *testing.T) {
	assert.Equal(t, "▶️", categoryEmoji(status.CategoryActive))
	assert.Equal(t, "⏸", categoryEmoji(status.CategoryWaiting))
	assert.Equal(t, "⏹", categoryEmoji(status.CategoryDone))
	assert.Equal(t, "⏺", categoryEmoji(status.CategoryRecorded))
	assert.Equal(t, "❓", categoryEmoji(status.CategoryUnknown))
	assert.Equal(t, "❓", categoryEmoji(status.Category("bogus")))
}

func TestPlatformLines(t *testing.T) {
	assert.Empty(t, platformLines(&models.Game{}))

	got := platformLines(&models.Game{Windows: true, Linux: true})
	assert.Contains(t, got, "Windows")
	assert.Contains(t, got, "Linux")
	assert.NotContains(t, got, "macOS")
	assert.Len(t, strings.Split(got, "\n"), 2)
}

func TestGameLine(t *testing.T) {
	g := &models.Game{Name: "Alpha", GameURL: "https://dev.itch.io/alpha", DevName: "Dev One"}
	assert.Equal(t, "[Alpha](https://dev.itch.io/alpha) by Dev One", gameLine(g))

	g.DevName = ""
	assert.Equal(t, "[Alpha](https://dev.itch.io/alpha) by Unknown", gameLine(g))
}

func TestStatusDescription(t *testing.T) {
	assignments := []status.Assignment{
		{Game: &models.Game{Name: "Alpha", GameURL: "https://a", DevName: "D"}, Category: status.CategoryActive},
		{Game: &models.Game{Name: "Beta", GameURL: "https://b", DevName: "D"}, Category: status.CategoryDone},
	}
	desc := statusDescription(assignments)
	assert.Contains(t, desc, "▶️ [Alpha](https://a)")
	assert.Contains(t, desc, "⏹ [Beta](https://b)")
	// Legend comes first.
	assert.Contains(t, strings.SplitN(desc, "\n", 2)[0], "**Active**")
}

func TestStatusDescription_Truncates(t *testing.T) {
	var assignments []status.Assignment
	for i := 0; i < 200; i++ {
		assignments = append(assignments, status.Assignment{
			Game: &models.Game{
				Name:    fmt.Sprintf("A Game With A Fairly Long Name %03d", i),
				GameURL: fmt.Sprintf("https://dev.itch.io/game-%03d", i),
				DevName: "Prolific Developer",
			},
			Category: status.CategoryWaiting,
		})
	}
	desc := statusDescription(assignments)
	assert.LessOrEqual(t, len(desc), embedDescriptionLimit)
	assert.True(t, strings.HasSuffix(desc, "..."))
}

func TestAssignmentEmbed(t *testing.T) {
	g := &models.Game{
		ID:        42,
		Name:      "Alpha",
		GameURL:   "https://dev.itch.io/alpha",
		ThumbURL:  "https://img.itch.zone/alpha.png",
		DevName:   "Dev One",
		ShortText: "A small game",
		Windows:   true,
	}
	embed := assignmentEmbed(g, "alice")
	assert.Contains(t, embed.Title, "Alpha")
	assert.Equal(t, "A small game", embed.Description)
	assert.Equal(t, "https://dev.itch.io/alpha", embed.URL)
	assert.Contains(t, embed.Footer.Text, "42")
	assert.Contains(t, embed.Footer.Text, "alice")
	require.NotNil(t, embed.Thumbnail)
	assert.Equal(t, "https://img.itch.zone/alpha.png", embed.Thumbnail.URL)

	names := make([]string, 0, len(embed.Fields))
	for _, f := range embed.Fields {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"Developer", "Platforms", "Host"}, names)
}

func TestAssignmentEmbed_Defaults(t *testing.T) {
	embed := assignmentEmbed(&models.Game{Name: "Bare"}, "bob")
	assert.Equal(t, "No description available", embed.Description)
	assert.Nil(t, embed.Thumbnail)
	require.Len(t, embed.Fields, 1)
	assert.Equal(t, "Host", embed.Fields[0].Name)
	assert.Equal(t, "itch.io", embed.Fields[0].Value)
}

func TestMyStatsEmbed(t *testing.T) {
	now := time.Now().UTC()
	assignments := []status.Assignment{
		{Game: &models.Game{Name: "A", GameURL: "https://a", Windows: true, ReviewURL: "https://r/a", ReviewedAt: ts(now)}, Category: status.CategoryDone},
		{Game: &models.Game{Name: "B", GameURL: "https://b", Windows: true, Linux: true}, Category: status.CategoryActive},
		{Game: &models.Game{Name: "C", GameURL: "https://c", Mac: true}, Category: status.CategoryWaiting},
		{Game: &models.Game{Name: "D", GameURL: "https://d", ReviewURL: "https://r/d", ReviewedAt: ts(now)}, Category: status.CategoryDone},
	}
	embed := myStatsEmbed("alice", "u1", assignments)

	require.GreaterOrEqual(t, len(embed.Fields), 4)
	overview := embed.Fields[0].Value
	assert.Contains(t, overview, "**Total Games:** 4")
	assert.Contains(t, overview, "**Completed:** 2")
	assert.Contains(t, overview, "**Pending:** 2")

	platforms := embed.Fields[1].Value
	assert.Contains(t, platforms, "Windows: 2")
	assert.Contains(t, platforms, "macOS: 1")
	assert.Contains(t, platforms, "Linux: 1")

	assert.Equal(t, "50.0%", embed.Fields[2].Value)
	assert.Contains(t, embed.Footer.Text, "u1")
}

func TestMyStatsEmbed_RecentCappedAtFive(t *testing.T) {
	var assignments []status.Assignment
	for i := 0; i < 8; i++ {
		assignments = append(assignments, status.Assignment{
			Game:     &models.Game{Name: fmt.Sprintf("G%d", i), GameURL: "https://g"},
			Category: status.CategoryWaiting,
		})
	}
	embed := myStatsEmbed("alice", "u1", assignments)
	recent := embed.Fields[len(embed.Fields)-1]
	assert.Equal(t, 5, strings.Count(recent.Value, "\n")+1)
}

func TestGameInfoEmbed(t *testing.T) {
	embed := gameInfoEmbed(&store.Stats{Total: 10, Unassigned: 5, Assigned: 5, Completed: 2})
	require.Len(t, embed.Fields, 3)
	assert.Contains(t, embed.Fields[0].Value, "**Total Games:** 10")
	assert.Contains(t, embed.Fields[1].Value, "**Available:** 50.0%")
	assert.Contains(t, embed.Fields[1].Value, "**Completed:** 20.0%")
}

func TestGameInfoEmbed_EmptyDatabase(t *testing.T) {
	embed := gameInfoEmbed(&store.Stats{})
	// No percentage field when there is nothing to divide by.
	require.Len(t, embed.Fields, 2)
	assert.Contains(t, embed.Fields[0].Name, "Database Stats")
}

func TestBGGEmbed(t *testing.T) {
	g := &bgg.Game{
		ID:            13,
		Name:          "Catan",
		Year:          1995,
		MinPlayers:    3,
		MaxPlayers:    4,
		PlayingTime:   120,
		Description:   "Trade, build, settle.",
		AverageRating: 7.123,
		Thumbnail:     "https://cf.geekdo-images.com/thumb.jpg",
	}
	embed := bggEmbed(g)
	assert.Equal(t, "Catan (1995)", embed.Title)
	assert.Equal(t, "https://boardgamegeek.com/boardgame/13", embed.URL)
	require.Len(t, embed.Fields, 3)
	assert.Equal(t, "3–4", embed.Fields[0].Value)
	assert.Equal(t, "120 min", embed.Fields[1].Value)
	assert.Equal(t, "7.1 / 10", embed.Fields[2].Value)
	require.NotNil(t, embed.Thumbnail)
}

func TestBGGEmbed_TruncatesDescription(t *testing.T) {
	g := &bgg.Game{Name: "Wordy", Description: strings.Repeat("x", 600)}
	embed := bggEmbed(g)
	assert.Len(t, embed.Description, 500)
	assert.True(t, strings.HasSuffix(embed.Description, "..."))
}
