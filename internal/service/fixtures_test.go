package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-planner/internal/auth"
	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/repo"
	"github.com/pkordes/trip-planner/internal/repo/memory"
	"github.com/pkordes/trip-planner/internal/service"
)

// ---- mocks -----------------------------------------------------------------

// mockGeocoder is a hand-written test double for service.Geocoder.
type mockGeocoder struct {
	search func(ctx context.Context, query string) ([]domain.PlaceCandidate, error)
}

func (m *mockGeocoder) Search(ctx context.Context, query string) ([]domain.PlaceCandidate, error) {
	return m.search(ctx, query)
}

var _ service.Geocoder = (*mockGeocoder)(nil)

// mockTripRepo is a function-field double for repo.TripRepo; set only the
// methods a test needs.
type mockTripRepo struct {
	create      func(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	getByID     func(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	listForUser func(ctx context.Context, userID uuid.UUID) ([]domain.Trip, error)
}

func (m *mockTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	return m.create(ctx, trip)
}
func (m *mockTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	return m.getByID(ctx, id)
}
func (m *mockTripRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Trip, error) {
	return m.listForUser(ctx, userID)
}

var _ repo.TripRepo = (*mockTripRepo)(nil)

// stubStore serves a fixed set of repos with no transaction semantics.
type stubStore struct {
	repos repo.Repos
}

func (s stubStore) Repos() repo.Repos { return s.repos }
func (s stubStore) InTx(_ context.Context, fn func(repo.Repos) error) error {
	return fn(s.repos)
}

// failingMembersStore wraps a real store so that Members.Add fails inside
// every transaction. Used to prove trip creation is atomic.
type failingMembersStore struct {
	repo.Store
	err error
}

func (s failingMembersStore) InTx(ctx context.Context, fn func(repo.Repos) error) error {
	return s.Store.InTx(ctx, func(r repo.Repos) error {
		r.Members = failingMembers{MembershipRepo: r.Members, err: s.err}
		return fn(r)
	})
}

type failingMembers struct {
	repo.MembershipRepo
	err error
}

func (m failingMembers) Add(context.Context, domain.Membership) (domain.Membership, error) {
	return domain.Membership{}, m.err
}

// countingHasher wraps a real hasher and records Verify calls.
type countingHasher struct {
	auth.CredentialHasher
	verified []string
}

func (h *countingHasher) Verify(encoded, password string) (bool, error) {
	h.verified = append(h.verified, password)
	return h.CredentialHasher.Verify(encoded, password)
}

// ---- fixtures --------------------------------------------------------------

// cheapHasher keeps argon2 fast enough for unit tests.
func cheapHasher() auth.CredentialHasher {
	return auth.NewArgon2idHasher(auth.Argon2idParams{Memory: 1024, Time: 1, Threads: 1, SaltLen: 16, KeyLen: 32})
}

func newTokens(t *testing.T) *auth.TokenService {
	t.Helper()
	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret: []byte("test-secret-test-secret-test-secret!"),
		Issuer: "trip-planner-test",
		TTL:    time.Hour,
	})
	require.NoError(t, err)
	return tokens
}

// env wires every service over one in-memory store.
type env struct {
	store    *memory.Store
	auth     *service.AuthService
	access   *service.AccessService
	trips    *service.TripService
	places   *service.PlaceService
	expenses *service.ExpenseService
	geocoder *mockGeocoder
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memory.NewStore()
	access := service.NewAccessService(store)
	geo := &mockGeocoder{search: func(context.Context, string) ([]domain.PlaceCandidate, error) {
		return []domain.PlaceCandidate{}, nil
	}}
	return &env{
		store:    store,
		auth:     service.NewAuthService(store, cheapHasher(), newTokens(t)),
		access:   access,
		trips:    service.NewTripService(store, access),
		places:   service.NewPlaceService(store, access, geo),
		expenses: service.NewExpenseService(store, access),
		geocoder: geo,
	}
}

func (e *env) register(t *testing.T, name string) domain.User {
	t.Helper()
	u, err := e.auth.Register(context.Background(), name, name+"@example.com", "secret123")
	require.NoError(t, err)
	return u
}

func (e *env) createTrip(t *testing.T, owner domain.User, name string) domain.Trip {
	t.Helper()
	trip, err := e.trips.Create(context.Background(), owner.ID, service.TripInput{Name: name, Destination: "Paris"})
	require.NoError(t, err)
	return trip
}
