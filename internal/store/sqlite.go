package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/2molaf/jarvfjallet/internal/models"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements Store using modernc.org/sqlite (pure Go, no CGO).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite only supports one concurrent writer. Limiting to a single
	// connection serializes all DB access through Go's connection pool,
	// preventing "database is locked" errors when slash-command handlers
	// run concurrently.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	// Set busy timeout so concurrent writers wait instead of failing
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// boolToInt converts a bool to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// newULID generates a new ULID string.
func newULID() string {
	entropy := rand.New(rand.NewSource(time.Now().UnixNano()))
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(entropy, 0)).String()
}

// millis converts an optional time to epoch milliseconds, the format the
// legacy dataset used for assign/review dates.
func millis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func fromMillis(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := time.UnixMilli(n.Int64).UTC()
	return &t
}

// Migrate runs all embedded SQL migration files in order.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()

		var count int
		err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", name).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// gameColumns is the canonical select list shared by all game queries.
const gameColumns = `id, game_url, thumb_url, windows, mac, linux, game_name, game_host, dev_name, dev_url, short_text, thumbnail, reviewer, review_url, review_date, assign_date, created_at, updated_at`

// matchColumns maps UpsertGame match keys to column names. Only stable
// identifying fields may be used for dedup matching.
var matchColumns = map[string]string{
	"id":       "id",
	"game_url": "game_url",
	"name":     "game_name",
}

// scanGame scans one game row from a *sql.Row or *sql.Rows.
func scanGame(row interface{ Scan(...any) error }) (*models.Game, error) {
	g := &models.Game{}
	var thumbURL, host, devName, devURL, shortText, thumbnail, reviewer, reviewURL sql.NullString
	var reviewDate, assignDate sql.NullInt64

	err := row.Scan(&g.ID, &g.GameURL, &thumbURL, &g.Windows, &g.Mac, &g.Linux,
		&g.Name, &host, &devName, &devURL, &shortText, &thumbnail,
		&reviewer, &reviewURL, &reviewDate, &assignDate,
		&g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}

	g.ThumbURL = thumbURL.String
	g.Host = host.String
	g.DevName = devName.String
	g.DevURL = devURL.String
	g.ShortText = shortText.String
	g.Thumbnail = thumbnail.String
	g.Reviewer = reviewer.String
	g.ReviewURL = reviewURL.String
	g.ReviewedAt = fromMillis(reviewDate)
	g.AssignedAt = fromMillis(assignDate)
	return g, nil
}

// nullIfEmpty stores empty strings as NULL so the unassigned-pool query
// only has one shape of "no reviewer" to worry about in new data. Legacy
// rows may still carry '' and every reader tolerates both.
func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func (s *SQLiteStore) UpsertGame(ctx context.Context, g *models.Game, matchKeys ...string) error {
	if len(matchKeys) == 0 {
		matchKeys = []string{"id"}
	}

	var conditions []string
	var args []any
	for _, key := range matchKeys {
		col, ok := matchColumns[key]
		if !ok {
			return fmt.Errorf("upsert game: unknown match key %q", key)
		}
		conditions = append(conditions, col+" = ?")
		switch col {
		case "id":
			args = append(args, g.ID)
		case "game_url":
			args = append(args, g.GameURL)
		case "game_name":
			args = append(args, g.Name)
		}
	}

	// Resolve the row to replace, if any. Keeping the matched row's id
	// makes INSERT OR REPLACE below a true replacement: every field not
	// carried by the new record is dropped.
	var existingID int64
	err := s.db.QueryRowContext(ctx,
		"SELECT id FROM games WHERE "+strings.Join(conditions, " AND "), args...,
	).Scan(&existingID)
	switch {
	case err == sql.ErrNoRows:
		// append as a new row
	case err != nil:
		return fmt.Errorf("upsert game: match lookup: %w", err)
	default:
		g.ID = existingID
	}

	now := time.Now().UTC()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = now
	}
	g.UpdatedAt = now

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO games (`+gameColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.GameURL, nullIfEmpty(g.ThumbURL),
		boolToInt(g.Windows), boolToInt(g.Mac), boolToInt(g.Linux),
		g.Name, nullIfEmpty(g.Host), nullIfEmpty(g.DevName), nullIfEmpty(g.DevURL),
		nullIfEmpty(g.ShortText), nullIfEmpty(g.Thumbnail),
		nullIfEmpty(g.Reviewer), nullIfEmpty(g.ReviewURL),
		millis(g.ReviewedAt), millis(g.AssignedAt),
		g.CreatedAt, g.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert game: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetGame(ctx context.Context, id int64) (*models.Game, error) {
	g, err := scanGame(s.db.QueryRowContext(ctx,
		`SELECT `+gameColumns+` FROM games WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("game %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get game: %w", err)
	}
	return g, nil
}

func (s *SQLiteStore) RandomUnassignedGame(ctx context.Context) (*models.Game, error) {
	g, err := scanGame(s.db.QueryRowContext(ctx,
		`SELECT `+gameColumns+` FROM games
		WHERE reviewer IS NULL OR reviewer = ''
		ORDER BY RANDOM()
		LIMIT 1`))
	if err == sql.ErrNoRows {
		return nil, ErrEmptyPool
	}
	if err != nil {
		return nil, fmt.Errorf("random unassigned game: %w", err)
	}
	return g, nil
}

func (s *SQLiteStore) GamesByReviewer(ctx context.Context, identifier string) ([]*models.Game, error) {
	if identifier == "" {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+gameColumns+` FROM games WHERE reviewer = ? ORDER BY rowid`, identifier)
	if err != nil {
		return nil, fmt.Errorf("games by reviewer: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var games []*models.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

func (s *SQLiteStore) MarkAssigned(ctx context.Context, id int64, userID, username string, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// The reviewer guard in the WHERE clause is what closes the
	// sample-then-claim race: of two concurrent claims, exactly one
	// matches zero rows.
	result, err := tx.ExecContext(ctx,
		`UPDATE games
		SET reviewer = ?, assign_date = ?, updated_at = ?
		WHERE id = ? AND (reviewer IS NULL OR reviewer = '')`,
		userID, at.UnixMilli(), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("mark assigned: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		var reviewer sql.NullString
		err := tx.QueryRowContext(ctx, "SELECT reviewer FROM games WHERE id = ?", id).Scan(&reviewer)
		if err == sql.ErrNoRows {
			return fmt.Errorf("game %d: %w", id, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("mark assigned: check reviewer: %w", err)
		}
		return fmt.Errorf("game %d held by %q: %w", id, reviewer.String, ErrAlreadyAssigned)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO assignments (id, user_id, username, game_id, status, assigned_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		newULID(), userID, nullIfEmpty(username), id, string(models.AssignmentStatusAssigned), at.UTC(),
	)
	if err != nil {
		return fmt.Errorf("record assignment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RecordCompletion(ctx context.Context, id int64, url string, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var reviewer, reviewURL sql.NullString
	var reviewDate sql.NullInt64
	err = tx.QueryRowContext(ctx,
		"SELECT reviewer, review_url, review_date FROM games WHERE id = ?", id,
	).Scan(&reviewer, &reviewURL, &reviewDate)
	if err == sql.ErrNoRows {
		return fmt.Errorf("game %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("record completion: %w", err)
	}

	if reviewer.String == "" {
		return fmt.Errorf("game %d: %w", id, ErrInvalidState)
	}

	// Repeat submission of the same review is a no-op.
	if reviewDate.Valid && reviewURL.String == url {
		return nil
	}

	// First completion timestamp wins; a corrected URL doesn't move it.
	completedAt := at.UnixMilli()
	if reviewDate.Valid {
		completedAt = reviewDate.Int64
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE games SET review_url = ?, review_date = ?, updated_at = ? WHERE id = ?`,
		url, completedAt, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("record completion: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE assignments
		SET status = ?, completed_at = ?, review_url = ?
		WHERE game_id = ? AND status = ?`,
		string(models.AssignmentStatusCompleted), at.UTC(), url,
		id, string(models.AssignmentStatusAssigned),
	)
	if err != nil {
		return fmt.Errorf("update assignment status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *SQLiteStore) CountGames(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM games").Scan(&count); err != nil {
		return 0, fmt.Errorf("count games: %w", err)
	}
	return count, nil
}

func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{}
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
			COUNT(CASE WHEN reviewer IS NOT NULL AND reviewer != '' THEN 1 END),
			COUNT(CASE WHEN review_date IS NOT NULL THEN 1 END)
		FROM games`,
	).Scan(&st.Total, &st.Assigned, &st.Completed)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	st.Unassigned = st.Total - st.Assigned
	return st, nil
}

func (s *SQLiteStore) ListAssignments(ctx context.Context, userID string, limit int) ([]*models.Assignment, error) {
	query := `SELECT id, user_id, username, game_id, status, assigned_at, completed_at, review_url
		FROM assignments WHERE user_id = ? ORDER BY assigned_at DESC`
	args := []any{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var assignments []*models.Assignment
	for rows.Next() {
		a := &models.Assignment{}
		var username, reviewURL sql.NullString
		var status string
		var completedAt sql.NullTime
		if err := rows.Scan(&a.ID, &a.UserID, &username, &a.GameID, &status,
			&a.AssignedAt, &completedAt, &reviewURL); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		a.Username = username.String
		a.Status = models.AssignmentStatus(status)
		a.ReviewURL = reviewURL.String
		if completedAt.Valid {
			a.CompletedAt = &completedAt.Time
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}
