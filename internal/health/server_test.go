package health

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
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
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "health.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestHealth(t *testing.T) {
	s := newTestStore(t)
	srv := NewServer(s, func() BotStatus {
		return BotStatus{Ready: true, Guilds: 2, Latency: 45 * time.Millisecond}
	}, discard)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, true, body["bot_ready"])
	assert.EqualValues(t, 2, body["guilds"])
	assert.EqualValues(t, 45, body["latency_ms"])
	assert.Equal(t, true, body["database_ready"])
}

func TestHealth_DegradedWhenStoreClosed(t *testing.T) {
	s := newTestStore(t)
	srv := NewServer(s, nil, discard)
	require.NoError(t, s.Close())

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, false, body["database_ready"])
}

func TestHealth_NilStatusFunc(t *testing.T) {
	s := newTestStore(t)
	srv := NewServer(s, nil, discard)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["bot_ready"])
}

func TestMetrics(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for i := int64(1); i <= 3; i++ {
		require.NoError(t, s.UpsertGame(ctx, &models.Game{
			ID:      i,
			GameURL: "https://example.itch.io/game",
			Name:    "Game",
		}, "id"))
	}
	require.NoError(t, s.MarkAssigned(ctx, 1, "u1", "alice", time.Now().UTC()))
	require.NoError(t, s.MarkAssigned(ctx, 2, "u2", "bob", time.Now().UTC()))
	require.NoError(t, s.RecordCompletion(ctx, 2, "https://reviews.example/2", time.Now().UTC()))

	srv := NewServer(s, func() BotStatus { return BotStatus{Ready: true, Guilds: 1} }, discard)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.EqualValues(t, 3, body["games_total"])
	assert.EqualValues(t, 2, body["games_assigned"])
	assert.EqualValues(t, 1, body["games_unassigned"])
	assert.EqualValues(t, 1, body["games_completed"])
	assert.Equal(t, true, body["bot_ready"])
}

func TestMetrics_StoreError(t *testing.T) {
	s := newTestStore(t)
	srv := NewServer(s, nil, discard)
	require.NoError(t, s.Close())

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	s := newTestStore(t)
	srv := NewServer(s, nil, discard)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
