package importer

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2molaf/jarvfjallet/internal/models"
	"github.com/2molaf/jarvfjallet/internal/store"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "import.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func writeDump(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "itch_pak.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const sampleDump = `{
  "games": [
    {
      "id": 101,
      "gameUrl": "https://dev.itch.io/alpha",
      "thumbUrl": "https://img.itch.zone/alpha.png",
      "windows": true,
      "mac": false,
      "linux": true,
      "gameName": "Alpha",
      "gameHost": "itch.io",
      "devName": "Dev One",
      "devUrl": "https://dev.itch.io",
      "shortText": "A small game",
      "reviewer": "",
      "thumbnail": "alpha.png",
      "reviewurl": "",
      "reviewdate": "",
      "assigndate": ""
    },
    {
      "id": 102,
      "gameUrl": "https://dev.itch.io/beta",
      "gameName": "Beta",
      "reviewer": "alice",
      "reviewurl": "https://reviews.example/beta",
      "reviewdate": 1600000000000,
      "assigndate": "1590000000000"
    }
  ]
}`

func TestImport_PopulatesStore(t *testing.T) {
	s := newTestStore(t)
	path := writeDump(t, sampleDump)

	res, err := Import(context.Background(), s, path, discard)
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 0, res.Failed)

	g, err := s.GetGame(context.Background(), 101)
	require.NoError(t, err)
	assert.Equal(t, "Alpha", g.Name)
	assert.Equal(t, "https://dev.itch.io/alpha", g.GameURL)
	assert.True(t, g.Windows)
	assert.False(t, g.Mac)
	assert.True(t, g.Linux)
	assert.Nil(t, g.AssignedAt)
	assert.Nil(t, g.ReviewedAt)

	g, err = s.GetGame(context.Background(), 102)
	require.NoError(t, err)
	assert.Equal(t, "alice", g.Reviewer)
	assert.Equal(t, "https://reviews.example/beta", g.ReviewURL)
	require.NotNil(t, g.ReviewedAt)
	assert.Equal(t, int64(1600000000000), g.ReviewedAt.UnixMilli())
	require.NotNil(t, g.AssignedAt)
	assert.Equal(t, int64(1590000000000), g.AssignedAt.UnixMilli())
}

func TestImportIfEmpty_SkipsPopulatedStore(t *testing.T) {
	s := newTestStore(t)
	path := writeDump(t, sampleDump)

	res, err := ImportIfEmpty(context.Background(), s, path, discard)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)

	// A reviewer claims a game between runs; the second run must not
	// clobber that state.
	require.NoError(t, s.MarkAssigned(context.Background(), 101, "u1", "alice", time.Now().UTC()))

	res, err = ImportIfEmpty(context.Background(), s, path, discard)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Zero(t, res.Imported)

	g, err := s.GetGame(context.Background(), 101)
	require.NoError(t, err)
	assert.Equal(t, "u1", g.Reviewer)
}

func TestImportIfEmpty_MissingFile(t *testing.T) {
	s := newTestStore(t)

	res, err := ImportIfEmpty(context.Background(), s, filepath.Join(t.TempDir(), "absent.json"), discard)
	require.NoError(t, err)
	assert.True(t, res.Skipped)

	count, err := s.CountGames(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestImport_SkipsMalformedRecords(t *testing.T) {
	s := newTestStore(t)
	path := writeDump(t, `{
  "games": [
    {"id": 1, "gameUrl": "https://dev.itch.io/ok", "gameName": "OK"},
    {"id": 2, "gameName": "Bad", "assigndate": "not-a-number"},
    {"id": 3, "gameUrl": "https://dev.itch.io/also-ok", "gameName": "Also OK"}
  ]
}`)

	res, err := Import(context.Background(), s, path, discard)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 1, res.Failed)

	count, err := s.CountGames(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestImport_MalformedFile(t *testing.T) {
	s := newTestStore(t)
	path := writeDump(t, `{"games": not json`)

	_, err := Import(context.Background(), s, path, discard)
	assert.Error(t, err)
}

func TestImport_Reimport(t *testing.T) {
	s := newTestStore(t)
	path := writeDump(t, sampleDump)

	_, err := Import(context.Background(), s, path, discard)
	require.NoError(t, err)
	_, err = Import(context.Background(), s, path, discard)
	require.NoError(t, err)

	// Keyed by itch id, so a forced re-import never duplicates rows.
	count, err := s.CountGames(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	got, err := s.GamesByReviewer(context.Background(), "alice")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestEpochMillis_Formats(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int64
	}{
		{"number", `{"assigndate": 1700000000000}`, 1700000000000},
		{"numeric string", `{"assigndate": "1700000000000"}`, 1700000000000},
		{"empty string", `{"assigndate": ""}`, 0},
		{"null", `{"assigndate": null}`, 0},
		{"absent", `{}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec Record
			require.NoError(t, json.Unmarshal([]byte(tt.in), &rec))
			assert.EqualValues(t, tt.want, rec.Assigned)
			if tt.want == 0 {
				assert.Nil(t, rec.Assigned.Time())
			} else {
				assert.Equal(t, tt.want, rec.Assigned.Time().UnixMilli())
			}
		})
	}
}

func TestRecord_Game(t *testing.T) {
	rec := Record{
		ID:        7,
		GameURL:   "https://dev.itch.io/gamma",
		GameName:  "Gamma",
		GameHost:  "itch.io",
		DevName:   "Dev",
		Reviewer:  "bob",
		ReviewURL: "https://reviews.example/gamma",
		Review:    1600000000000,
		Assigned:  1590000000000,
	}
	g := rec.Game()
	assert.Equal(t, &models.Game{
		ID:         7,
		GameURL:    "https://dev.itch.io/gamma",
		Name:       "Gamma",
		Host:       "itch.io",
		DevName:    "Dev",
		Reviewer:   "bob",
		ReviewURL:  "https://reviews.example/gamma",
		ReviewedAt: rec.Review.Time(),
		AssignedAt: rec.Assigned.Time(),
	}, g)
}
