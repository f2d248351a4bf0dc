// Package importer performs the one-time load of the legacy itch game
// dump into the store.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/2molaf/jarvfjallet/internal/models"
	"github.com/2molaf/jarvfjallet/internal/store"
)

// Record is one game entry in the legacy JSON dump. Field names mirror
// the file schema exactly; every field is carried so re-imports lose
// nothing.
type Record struct {
	ID        int64       `json:"id"`
	GameURL   string      `json:"gameUrl"`
	ThumbURL  string      `json:"thumbUrl"`
	Windows   bool        `json:"windows"`
	Mac       bool        `json:"mac"`
	Linux     bool        `json:"linux"`
	GameName  string      `json:"gameName"`
	GameHost  string      `json:"gameHost"`
	DevName   string      `json:"devName"`
	DevURL    string      `json:"devUrl"`
	ShortText string      `json:"shortText"`
	Reviewer  string      `json:"reviewer"`
	Thumbnail string      `json:"thumbnail"`
	ReviewURL string      `json:"reviewurl"`
	Review    epochMillis `json:"reviewdate"`
	Assigned  epochMillis `json:"assigndate"`
}

// epochMillis is a millisecond timestamp that the legacy dump stores as
// a number, a numeric string, or an empty string.
type epochMillis int64

func (m *epochMillis) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = 0
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		*m = epochMillis(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp is neither number nor string: %s", data)
	}
	if s == "" {
		*m = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("timestamp %q: %w", s, err)
	}
	*m = epochMillis(n)
	return nil
}

// Time converts the timestamp to UTC time, or nil when unset.
func (m epochMillis) Time() *time.Time {
	if m == 0 {
		return nil
	}
	t := time.UnixMilli(int64(m)).UTC()
	return &t
}

// Game maps the record onto the store schema. Assignment and completion
// fields default to unset when the dump has none.
func (r *Record) Game() *models.Game {
	return &models.Game{
		ID:         r.ID,
		GameURL:    r.GameURL,
		ThumbURL:   r.ThumbURL,
		Windows:    r.Windows,
		Mac:        r.Mac,
		Linux:      r.Linux,
		Name:       r.GameName,
		Host:       r.GameHost,
		DevName:    r.DevName,
		DevURL:     r.DevURL,
		ShortText:  r.ShortText,
		Thumbnail:  r.Thumbnail,
		Reviewer:   r.Reviewer,
		ReviewURL:  r.ReviewURL,
		ReviewedAt: r.Review.Time(),
		AssignedAt: r.Assigned.Time(),
	}
}

// Result reports what an import run did.
type Result struct {
	Skipped  bool // store already populated, nothing done
	Imported int
	Failed   int
}

// ImportIfEmpty loads the legacy JSON dump at path unless the store
// already has games. Safe to call on every startup: once the store is
// non-empty it is a read-only no-op. A missing file is also a no-op so
// fresh deployments without a dump still start.
func ImportIfEmpty(ctx context.Context, s store.Store, path string, log *slog.Logger) (*Result, error) {
	count, err := s.CountGames(ctx)
	if err != nil {
		return nil, fmt.Errorf("count games: %w", err)
	}
	if count > 0 {
		return &Result{Skipped: true}, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Warn("no legacy data file found, starting with empty database", "path", path)
		return &Result{Skipped: true}, nil
	}

	return Import(ctx, s, path, log)
}

// Import unconditionally loads the dump at path, upserting each record
// keyed by its itch id. Records that fail to decode or store are logged
// and skipped; one bad entry doesn't abort the run.
func Import(ctx context.Context, s store.Store, path string, log *slog.Logger) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read legacy data: %w", err)
	}

	var dump struct {
		Games []json.RawMessage `json:"games"`
	}
	if err := json.Unmarshal(data, &dump); err != nil {
		return nil, fmt.Errorf("parse legacy data: %w", err)
	}

	log.Info("importing legacy game data", "path", path, "records", len(dump.Games))

	res := &Result{}
	for i, raw := range dump.Games {
		var rec Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			log.Warn("skipping malformed record", "index", i, "error", err)
			res.Failed++
			continue
		}
		if err := s.UpsertGame(ctx, rec.Game(), "id"); err != nil {
			log.Warn("failed to import game", "id", rec.ID, "error", err)
			res.Failed++
			continue
		}
		res.Imported++
	}

	log.Info("legacy data import completed", "imported", res.Imported, "failed", res.Failed)
	return res, nil
}
