// Package client is a Go SDK for the trip planner API. It keeps the signed-in
// session, attaches the bearer token to every authenticated call, and refuses
// to make such calls once the session is gone.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrLoginRequired is returned by authenticated calls when there is no valid
// session, or when the server rejected the token with 401.
var ErrLoginRequired = errors.New("client: login required")

// APIError is a non-2xx response carrying the server's message.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("client: %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
}

// Config holds client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// HTTPClient overrides the transport; Timeout is ignored when set.
	HTTPClient *http.Client
	// Session defaults to NewSession(SessionConfig{}).
	Session *Session
}

// Client calls the trip planner API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
}

// New creates a Client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	session := cfg.Session
	if session == nil {
		session = NewSession(SessionConfig{})
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		session:    session,
	}
}

// Session returns the session the client reads its token from.
func (c *Client) Session() *Session {
	return c.session
}

// =============================================================================
// Account
// =============================================================================

// Register creates an account and returns its id. It does not sign in.
func (c *Client) Register(ctx context.Context, username, email, password string) (uuid.UUID, error) {
	var out struct {
		UserID uuid.UUID `json:"userId"`
	}
	body := map[string]string{"username": username, "email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/register", false, body, &out); err != nil {
		return uuid.Nil, err
	}
	return out.UserID, nil
}

// Login signs in and stores the new session.
func (c *Client) Login(ctx context.Context, email, password string) (User, error) {
	var out struct {
		Token string `json:"token"`
		User  User   `json:"user"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", false, body, &out); err != nil {
		return User{}, err
	}
	if err := c.session.Set(out.Token, out.User); err != nil {
		return User{}, err
	}
	return out.User, nil
}

// Logout forgets the session. Nothing is sent to the server.
func (c *Client) Logout() {
	c.session.Clear()
}

// Me returns the signed-in user's profile.
func (c *Client) Me(ctx context.Context) (User, error) {
	var out struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/me", true, nil, &out); err != nil {
		return User{}, err
	}
	return out.User, nil
}

// =============================================================================
// Trips
// =============================================================================

// CreateTrip creates a trip owned by the signed-in user and returns its id.
func (c *Client) CreateTrip(ctx context.Context, in TripInput) (uuid.UUID, error) {
	var out struct {
		TripID uuid.UUID `json:"tripId"`
	}
	if err := c.do(ctx, http.MethodPost, "/trips", true, in, &out); err != nil {
		return uuid.Nil, err
	}
	return out.TripID, nil
}

// ListTrips returns the trips the signed-in user belongs to.
func (c *Client) ListTrips(ctx context.Context) ([]Trip, error) {
	var out struct {
		Trips []Trip `json:"trips"`
	}
	if err := c.do(ctx, http.MethodGet, "/trips", true, nil, &out); err != nil {
		return nil, err
	}
	return out.Trips, nil
}

// GetTrip returns a trip with its members.
func (c *Client) GetTrip(ctx context.Context, tripID uuid.UUID) (TripDetails, error) {
	var out TripDetails
	if err := c.do(ctx, http.MethodGet, tripPath(tripID, ""), true, nil, &out); err != nil {
		return TripDetails{}, err
	}
	return out, nil
}

// InviteMember adds the account registered under email to the trip.
func (c *Client) InviteMember(ctx context.Context, tripID uuid.UUID, email string) error {
	return c.do(ctx, http.MethodPost, tripPath(tripID, "/invitations"), true, map[string]string{"email": email}, nil)
}

// AddMember adds an existing user to the trip by id.
func (c *Client) AddMember(ctx context.Context, tripID, userID uuid.UUID) error {
	return c.do(ctx, http.MethodPost, tripPath(tripID, "/members"), true, map[string]string{"user_id": userID.String()}, nil)
}

// =============================================================================
// Places
// =============================================================================

// SearchPlaces asks the server's geocoder for places in city; category may be empty.
func (c *Client) SearchPlaces(ctx context.Context, city, category string) ([]PlaceCandidate, error) {
	q := url.Values{}
	q.Set("city", city)
	if category != "" {
		q.Set("category", category)
	}
	var out struct {
		Places []PlaceCandidate `json:"places"`
	}
	if err := c.do(ctx, http.MethodGet, "/places/search?"+q.Encode(), true, nil, &out); err != nil {
		return nil, err
	}
	return out.Places, nil
}

// AddPlace records a place on the trip and returns its id.
func (c *Client) AddPlace(ctx context.Context, tripID uuid.UUID, in PlaceInput) (uuid.UUID, error) {
	var out struct {
		PlaceID uuid.UUID `json:"placeId"`
	}
	if err := c.do(ctx, http.MethodPost, tripPath(tripID, "/places"), true, in, &out); err != nil {
		return uuid.Nil, err
	}
	return out.PlaceID, nil
}

// ListPlaces returns the trip's places, newest first.
func (c *Client) ListPlaces(ctx context.Context, tripID uuid.UUID) ([]Place, error) {
	var out struct {
		Places []Place `json:"places"`
	}
	if err := c.do(ctx, http.MethodGet, tripPath(tripID, "/places"), true, nil, &out); err != nil {
		return nil, err
	}
	return out.Places, nil
}

// =============================================================================
// Expenses
// =============================================================================

// AddExpense records an expense on the trip and returns its id.
func (c *Client) AddExpense(ctx context.Context, tripID uuid.UUID, in ExpenseInput) (uuid.UUID, error) {
	var out struct {
		ExpenseID uuid.UUID `json:"expenseId"`
	}
	if err := c.do(ctx, http.MethodPost, tripPath(tripID, "/expenses"), true, in, &out); err != nil {
		return uuid.Nil, err
	}
	return out.ExpenseID, nil
}

// ListExpenses returns the trip's expenses, newest first.
func (c *Client) ListExpenses(ctx context.Context, tripID uuid.UUID) ([]Expense, error) {
	var out struct {
		Expenses []Expense `json:"expenses"`
	}
	if err := c.do(ctx, http.MethodGet, tripPath(tripID, "/expenses"), true, nil, &out); err != nil {
		return nil, err
	}
	return out.Expenses, nil
}

// =============================================================================
// Transport
// =============================================================================

func tripPath(tripID uuid.UUID, suffix string) string {
	return "/trips/" + tripID.String() + suffix
}

// do sends one request. For authenticated calls it attaches the session
// token, refreshes the idle timer on success and clears the session on 401.
func (c *Client) do(ctx context.Context, method, path string, authenticated bool, in, out any) error {
	var token string
	if authenticated {
		var ok bool
		if token, ok = c.session.Token(); !ok {
			c.session.Clear()
			return ErrLoginRequired
		}
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: errorMessage(respBody, resp.Status)}
		if authenticated && resp.StatusCode == http.StatusUnauthorized {
			c.session.Clear()
			return fmt.Errorf("%w: %w", ErrLoginRequired, apiErr)
		}
		return apiErr
	}

	if authenticated {
		c.session.Touch()
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

func errorMessage(body []byte, fallback string) string {
	var env struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &env) == nil && env.Message != "" {
		return env.Message
	}
	return fallback
}
