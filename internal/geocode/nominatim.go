// Package geocode looks up points of interest through a Nominatim-compatible
// search API. Outbound calls are throttled with a token bucket and results can
// be cached (see Cache).
package geocode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/pkordes/trip-planner/internal/domain"
)

const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org"
	DefaultUserAgent = "SmartTravelPlanner/1.0"
	DefaultLimit     = 20

	// maxBody caps how much of an upstream response is read.
	maxBody = 4 << 20
)

// ErrUpstream is returned when the geocoder cannot be reached or answers
// with something other than a JSON array of results.
var ErrUpstream = errors.New("geocoder unavailable")

// Config configures a Client. Zero values fall back to the defaults above.
type Config struct {
	BaseURL   string
	UserAgent string
	// RPS is the outbound request budget. Nominatim's usage policy allows 1.
	// Zero or negative disables throttling.
	RPS      float64
	Limit    int
	Timeout  time.Duration
	CacheTTL time.Duration
	Logger   *slog.Logger
}

// Client searches a Nominatim /search endpoint.
type Client struct {
	baseURL    string
	userAgent  string
	limit      int
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      Cache
	cacheTTL   time.Duration
	logger     *slog.Logger
}

// New builds a Client. A nil cache disables caching.
func New(cfg Config, cache Cache) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cache == nil {
		cache = NopCache{}
	}

	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		limit:      cfg.Limit,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, 1),
		cache:      cache,
		cacheTTL:   cfg.CacheTTL,
		logger:     cfg.Logger,
	}
}

// Search returns up to Limit candidates for query, in the geocoder's order.
func (c *Client) Search(ctx context.Context, query string) ([]domain.PlaceCandidate, error) {
	key := cacheKey(query)
	if body, ok, err := c.cache.Get(ctx, key); err != nil {
		c.logger.WarnContext(ctx, "geocode cache read failed", "error", err)
	} else if ok {
		if places, err := parseResults(body); err == nil {
			return places, nil
		}
		// A corrupt entry falls through to a fresh lookup.
	}

	body, err := c.fetch(ctx, query)
	if err != nil {
		return nil, err
	}
	places, err := parseResults(body)
	if err != nil {
		return nil, fmt.Errorf("geocode.Client.Search: %w", err)
	}

	if c.cacheTTL > 0 {
		if err := c.cache.Set(ctx, key, body, c.cacheTTL); err != nil {
			c.logger.WarnContext(ctx, "geocode cache write failed", "error", err)
		}
	}
	return places, nil
}

func (c *Client) fetch(ctx context.Context, query string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("geocode.Client.fetch: wait: %w", err)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("limit", strconv.Itoa(c.limit))
	params.Set("extratags", "1")
	params.Set("namedetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("geocode.Client.fetch: create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode.Client.fetch: %w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("geocode.Client.fetch: read body: %w: %w", ErrUpstream, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode.Client.fetch: %w: status %d", ErrUpstream, resp.StatusCode)
	}
	return body, nil
}

// parseResults maps a Nominatim format=json array into candidates.
// lat/lon arrive as strings; gjson's Float handles both encodings.
func parseResults(body []byte) ([]domain.PlaceCandidate, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrUpstream)
	}
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return nil, fmt.Errorf("%w: expected a JSON array", ErrUpstream)
	}

	places := []domain.PlaceCandidate{}
	root.ForEach(func(_, item gjson.Result) bool {
		display := item.Get("display_name").String()
		category := item.Get("class").String()
		if category == "" {
			category = item.Get("category").String()
		}
		places = append(places, domain.PlaceCandidate{
			Name:        placeName(item, display),
			DisplayName: display,
			Category:    category,
			Type:        item.Get("type").String(),
			Latitude:    item.Get("lat").Float(),
			Longitude:   item.Get("lon").Float(),
			Raw:         []byte(item.Raw),
		})
		return true
	})
	return places, nil
}

func placeName(item gjson.Result, display string) string {
	for _, path := range []string{"namedetails.name", "name"} {
		if n := item.Get(path).String(); n != "" {
			return n
		}
	}
	name, _, _ := strings.Cut(display, ",")
	return strings.TrimSpace(name)
}
