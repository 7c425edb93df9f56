package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-planner/internal/auth"
	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/handler"
	"github.com/pkordes/trip-planner/internal/service"
)

// ---- mocks -----------------------------------------------------------------
// Each mock is a hand-written double: set only the method fields a test needs.

type mockAuthServicer struct {
	register func(ctx context.Context, username, email, password string) (domain.User, error)
	login    func(ctx context.Context, email, password string) (service.LoginResult, error)
	profile  func(ctx context.Context, userID uuid.UUID) (domain.User, error)
}

func (m *mockAuthServicer) Register(ctx context.Context, username, email, password string) (domain.User, error) {
	return m.register(ctx, username, email, password)
}
func (m *mockAuthServicer) Login(ctx context.Context, email, password string) (service.LoginResult, error) {
	return m.login(ctx, email, password)
}
func (m *mockAuthServicer) Profile(ctx context.Context, userID uuid.UUID) (domain.User, error) {
	return m.profile(ctx, userID)
}

type mockTripServicer struct {
	create      func(ctx context.Context, ownerID uuid.UUID, in service.TripInput) (domain.Trip, error)
	listForUser func(ctx context.Context, userID uuid.UUID) ([]domain.Trip, error)
	details     func(ctx context.Context, tripID, userID uuid.UUID) (service.TripDetails, error)
	invite      func(ctx context.Context, tripID, callerID uuid.UUID, email string) error
	addMember   func(ctx context.Context, tripID, callerID, userID uuid.UUID) error
}

func (m *mockTripServicer) Create(ctx context.Context, ownerID uuid.UUID, in service.TripInput) (domain.Trip, error) {
	return m.create(ctx, ownerID, in)
}
func (m *mockTripServicer) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Trip, error) {
	return m.listForUser(ctx, userID)
}
func (m *mockTripServicer) Details(ctx context.Context, tripID, userID uuid.UUID) (service.TripDetails, error) {
	return m.details(ctx, tripID, userID)
}
func (m *mockTripServicer) Invite(ctx context.Context, tripID, callerID uuid.UUID, email string) error {
	return m.invite(ctx, tripID, callerID, email)
}
func (m *mockTripServicer) AddMember(ctx context.Context, tripID, callerID, userID uuid.UUID) error {
	return m.addMember(ctx, tripID, callerID, userID)
}

type mockPlaceServicer struct {
	search     func(ctx context.Context, city, category string) ([]domain.PlaceCandidate, error)
	add        func(ctx context.Context, tripID, callerID uuid.UUID, in service.PlaceInput) (domain.Place, error)
	listByTrip func(ctx context.Context, tripID, callerID uuid.UUID) ([]domain.Place, error)
}

func (m *mockPlaceServicer) Search(ctx context.Context, city, category string) ([]domain.PlaceCandidate, error) {
	return m.search(ctx, city, category)
}
func (m *mockPlaceServicer) Add(ctx context.Context, tripID, callerID uuid.UUID, in service.PlaceInput) (domain.Place, error) {
	return m.add(ctx, tripID, callerID, in)
}
func (m *mockPlaceServicer) ListByTrip(ctx context.Context, tripID, callerID uuid.UUID) ([]domain.Place, error) {
	return m.listByTrip(ctx, tripID, callerID)
}

type mockExpenseServicer struct {
	add        func(ctx context.Context, tripID, callerID uuid.UUID, in service.ExpenseInput) (domain.Expense, error)
	listByTrip func(ctx context.Context, tripID, callerID uuid.UUID) ([]domain.Expense, error)
}

func (m *mockExpenseServicer) Add(ctx context.Context, tripID, callerID uuid.UUID, in service.ExpenseInput) (domain.Expense, error) {
	return m.add(ctx, tripID, callerID, in)
}
func (m *mockExpenseServicer) ListByTrip(ctx context.Context, tripID, callerID uuid.UUID) ([]domain.Expense, error) {
	return m.listByTrip(ctx, tripID, callerID)
}

// compile-time checks: the mocks must satisfy the handler interfaces.
var (
	_ handler.AuthServicer    = (*mockAuthServicer)(nil)
	_ handler.TripServicer    = (*mockTripServicer)(nil)
	_ handler.PlaceServicer   = (*mockPlaceServicer)(nil)
	_ handler.ExpenseServicer = (*mockExpenseServicer)(nil)
)

// ---- helpers ---------------------------------------------------------------

// testCaller is the identity every authenticated test request carries.
var testCaller = auth.Identity{UserID: uuid.MustParse("11111111-1111-1111-1111-111111111111"), Username: "alice", Email: "alice@example.com"}

// services groups the mocks a test wants wired; nil fields stay nil.
type services struct {
	auth     *mockAuthServicer
	trips    *mockTripServicer
	places   *mockPlaceServicer
	expenses *mockExpenseServicer
}

// newHTTPHandler mounts a Server on a chi router. Authentication is replaced
// by a middleware that stores testCaller, so handler tests never need tokens.
func newHTTPHandler(s services) http.Handler {
	srv := handler.NewServer(s.auth, s.trips, s.places, s.expenses, nil)
	r := chi.NewRouter()
	srv.Mount(r, fakeAuth, nil)
	return r
}

func fakeAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), testCaller)))
	})
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

// do sends one request through h and returns the recorder.
func do(h http.Handler, method, target string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// decode unmarshals the response body into a generic map.
func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}
