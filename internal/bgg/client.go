// Package bgg is a client for the BoardGameGeek XMLAPI2.
package bgg

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// DefaultBaseURL is the public XMLAPI2 endpoint.
const DefaultBaseURL = "https://boardgamegeek.com/xmlapi2"

// BGG answers 202 while it builds a response server-side; the client has
// to back off and re-request the same URL.
const (
	defaultMaxRetries = 3
	defaultRetryDelay = 2 * time.Second
	defaultCacheTTL   = 15 * time.Minute
)

// SearchResult is one hit from a game search.
type SearchResult struct {
	ID   int64
	Name string
	Year int
}

// Game holds the detail fields shown in a lookup embed.
type Game struct {
	ID            int64
	Name          string
	Year          int
	MinPlayers    int
	MaxPlayers    int
	PlayingTime   int
	Description   string
	AverageRating float64
	Thumbnail     string
}

// Client queries the BGG XMLAPI2 with 202 retry handling and response
// caching. Safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration

	mu       sync.Mutex
	cache    map[string]cacheEntry
	cacheTTL time.Duration
}

type cacheEntry struct {
	body    []byte
	expires time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another endpoint, for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithRetryDelay overrides the initial 202 backoff delay.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.retryDelay = d }
}

// WithCacheTTL overrides how long responses are cached.
func WithCacheTTL(d time.Duration) Option {
	return func(c *Client) { c.cacheTTL = d }
}

// NewClient creates a BGG client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
		cache:      make(map[string]cacheEntry),
		cacheTTL:   defaultCacheTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get fetches an endpoint, honoring the cache and BGG's 202 protocol.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	u := c.baseURL + "/" + endpoint + "?" + params.Encode()

	c.mu.Lock()
	if entry, ok := c.cache[u]; ok && time.Now().Before(entry.expires) {
		c.mu.Unlock()
		return entry.body, nil
	}
	c.mu.Unlock()

	delay := c.retryDelay
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("bgg request: %w", err)
		}

		switch resp.StatusCode {
		case http.StatusOK:
			body, err := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			if err != nil {
				return nil, fmt.Errorf("read bgg response: %w", err)
			}
			c.mu.Lock()
			c.cache[u] = cacheEntry{body: body, expires: time.Now().Add(c.cacheTTL)}
			c.mu.Unlock()
			return body, nil
		case http.StatusAccepted:
			// Response still being generated; wait and re-request.
			_ = resp.Body.Close()
		default:
			_ = resp.Body.Close()
			return nil, fmt.Errorf("bgg returned status %d", resp.StatusCode)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
	return nil, fmt.Errorf("bgg request not ready after %d attempts", c.maxRetries)
}

type xmlValue struct {
	Value string `xml:"value,attr"`
}

type xmlName struct {
	Type  string `xml:"type,attr"`
	Value string `xml:"value,attr"`
}

// Search looks up games by name. With exact set, only exact title
// matches are returned.
func (c *Client) Search(ctx context.Context, query string, exact bool) ([]SearchResult, error) {
	params := url.Values{
		"query": {query},
		"type":  {"boardgame"},
	}
	if exact {
		params.Set("exact", "1")
	}

	body, err := c.get(ctx, "search", params)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Items []struct {
			ID   int64    `xml:"id,attr"`
			Name xmlName  `xml:"name"`
			Year xmlValue `xml:"yearpublished"`
		} `xml:"item"`
	}
	if err := xml.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse search response: %w", err)
	}

	results := make([]SearchResult, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		results = append(results, SearchResult{
			ID:   item.ID,
			Name: item.Name.Value,
			Year: atoi(item.Year.Value),
		})
	}
	return results, nil
}

// GameDetails fetches the full record for one game id.
func (c *Client) GameDetails(ctx context.Context, id int64) (*Game, error) {
	params := url.Values{
		"id":    {fmt.Sprintf("%d", id)},
		"stats": {"1"},
	}

	body, err := c.get(ctx, "thing", params)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Items []struct {
			ID          int64     `xml:"id,attr"`
			Names       []xmlName `xml:"name"`
			Year        xmlValue  `xml:"yearpublished"`
			MinPlayers  xmlValue  `xml:"minplayers"`
			MaxPlayers  xmlValue  `xml:"maxplayers"`
			PlayingTime xmlValue  `xml:"playingtime"`
			Description string    `xml:"description"`
			Thumbnail   string    `xml:"thumbnail"`
			Statistics  struct {
				Ratings struct {
					Average xmlValue `xml:"average"`
				} `xml:"ratings"`
			} `xml:"statistics"`
		} `xml:"item"`
	}
	if err := xml.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse thing response: %w", err)
	}
	if len(parsed.Items) == 0 {
		return nil, fmt.Errorf("bgg game %d not found", id)
	}

	item := parsed.Items[0]
	g := &Game{
		ID:            item.ID,
		Year:          atoi(item.Year.Value),
		MinPlayers:    atoi(item.MinPlayers.Value),
		MaxPlayers:    atoi(item.MaxPlayers.Value),
		PlayingTime:   atoi(item.PlayingTime.Value),
		Description:   item.Description,
		AverageRating: atof(item.Statistics.Ratings.Average.Value),
		Thumbnail:     item.Thumbnail,
	}
	for _, n := range item.Names {
		if n.Type == "primary" {
			g.Name = n.Value
			break
		}
	}
	if g.Name == "" && len(item.Names) > 0 {
		g.Name = item.Names[0].Value
	}
	return g, nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func atof(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
