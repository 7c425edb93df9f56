package repo_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/repo"
	"github.com/pkordes/trip-planner/testutil"
)

// newTestRepos opens a transaction against the test database and returns
// repositories bound to it, plus a Store over the same transaction. The
// transaction is rolled back when the test finishes, giving free per-test
// isolation.
//
// Requires TEST_DATABASE_URL to be set; TestMain applies the migrations.
func newTestRepos(t *testing.T) (repo.Repos, repo.Store) {
	t.Helper()
	pool := testutil.NewPool(t)

	tx, err := pool.Begin(context.Background())
	require.NoError(t, err, "begin transaction")

	t.Cleanup(func() {
		_ = tx.Rollback(context.Background())
	})

	store := repo.NewStore(tx)
	return store.Repos(), store
}

// userFixture inserts a user with a unique username and email.
func userFixture(t *testing.T, r repo.Repos, name string) domain.User {
	t.Helper()
	suffix := uuid.NewString()[:8]
	u, err := r.Users.Create(context.Background(), domain.User{
		Username:     fmt.Sprintf("%s_%s", name, suffix),
		Email:        fmt.Sprintf("%s_%s@example.com", name, suffix),
		PasswordHash: "$argon2id$v=19$m=16,t=1,p=1$c2FsdA$aGFzaA",
	})
	require.NoError(t, err, "create user fixture")
	return u
}

// tripFixture returns a domain.Trip owned by owner with sensible defaults.
// Callers can override individual fields after calling this function.
func tripFixture(owner uuid.UUID) domain.Trip {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	return domain.Trip{
		OwnerID:     owner,
		Name:        "Summer Tour",
		Destination: "Paris",
		StartDate:   &start,
		EndDate:     &end,
		Description: "Test notes",
	}
}

func TestTripRepo_Create(t *testing.T) {
	r, _ := newTestRepos(t)
	ctx := context.Background()
	owner := userFixture(t, r, "alice")

	input := tripFixture(owner.ID)
	got, err := r.Trips.Create(ctx, input)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, got.ID, "ID should be DB-generated UUID")
	assert.Equal(t, owner.ID, got.OwnerID)
	assert.Equal(t, owner.Username, got.OwnerName)
	assert.Equal(t, input.Name, got.Name)
	assert.Equal(t, input.Destination, got.Destination)
	require.NotNil(t, got.StartDate)
	assert.True(t, got.StartDate.Equal(*input.StartDate), "StartDate mismatch")
	require.NotNil(t, got.EndDate)
	assert.True(t, got.EndDate.Equal(*input.EndDate), "EndDate mismatch")
	assert.Equal(t, input.Description, got.Description)
	assert.False(t, got.CreatedAt.IsZero(), "CreatedAt should be set by DB")
}

func TestTripRepo_Create_NilDates(t *testing.T) {
	r, _ := newTestRepos(t)
	owner := userFixture(t, r, "alice")

	input := tripFixture(owner.ID)
	input.StartDate = nil
	input.EndDate = nil

	got, err := r.Trips.Create(context.Background(), input)

	require.NoError(t, err)
	assert.Nil(t, got.StartDate)
	assert.Nil(t, got.EndDate)
}

func TestTripRepo_Create_EndBeforeStart(t *testing.T) {
	r, _ := newTestRepos(t)
	owner := userFixture(t, r, "alice")

	input := tripFixture(owner.ID)
	end := input.StartDate.AddDate(0, 0, -1)
	input.EndDate = &end

	_, err := r.Trips.Create(context.Background(), input)

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTripRepo_Create_UnknownOwner(t *testing.T) {
	r, _ := newTestRepos(t)

	_, err := r.Trips.Create(context.Background(), tripFixture(uuid.New()))

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTripRepo_GetByID(t *testing.T) {
	r, _ := newTestRepos(t)
	ctx := context.Background()
	owner := userFixture(t, r, "alice")

	created, err := r.Trips.Create(ctx, tripFixture(owner.ID))
	require.NoError(t, err)

	got, err := r.Trips.GetByID(ctx, created.ID)

	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.Name, got.Name)
	assert.Equal(t, owner.Username, got.OwnerName)
}

func TestTripRepo_GetByID_NotFound(t *testing.T) {
	r, _ := newTestRepos(t)

	_, err := r.Trips.GetByID(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTripRepo_ListForUser(t *testing.T) {
	r, _ := newTestRepos(t)
	ctx := context.Background()
	alice := userFixture(t, r, "alice")
	bob := userFixture(t, r, "bob")
	carol := userFixture(t, r, "carol")

	t1 := tripFixture(alice.ID)
	t1.Name = "First Trip"
	first, err := r.Trips.Create(ctx, t1)
	require.NoError(t, err)

	t2 := tripFixture(bob.ID)
	t2.Name = "Bob's Trip"
	later := t1.StartDate.AddDate(0, 1, 0)
	t2.StartDate = &later
	t2.EndDate = nil
	second, err := r.Trips.Create(ctx, t2)
	require.NoError(t, err)

	// alice belongs to bob's trip; carol's trip is invisible to her.
	_, err = r.Members.Add(ctx, domain.Membership{TripID: second.ID, UserID: alice.ID, Role: domain.RoleMember})
	require.NoError(t, err)
	_, err = r.Trips.Create(ctx, tripFixture(carol.ID))
	require.NoError(t, err)

	trips, err := r.Trips.ListForUser(ctx, alice.ID)

	require.NoError(t, err)
	require.Len(t, trips, 2)
	assert.Equal(t, second.ID, trips[0].ID, "later start date comes first")
	assert.Equal(t, bob.Username, trips[0].OwnerName)
	assert.Equal(t, first.ID, trips[1].ID)
}

func TestTripRepo_ListForUser_OwnerAndMemberListedOnce(t *testing.T) {
	r, _ := newTestRepos(t)
	ctx := context.Background()
	alice := userFixture(t, r, "alice")

	trip, err := r.Trips.Create(ctx, tripFixture(alice.ID))
	require.NoError(t, err)
	_, err = r.Members.Add(ctx, domain.Membership{TripID: trip.ID, UserID: alice.ID, Role: domain.RoleOwner})
	require.NoError(t, err)

	trips, err := r.Trips.ListForUser(ctx, alice.ID)

	require.NoError(t, err)
	assert.Len(t, trips, 1)
}

func TestTripRepo_ListForUser_Empty(t *testing.T) {
	r, _ := newTestRepos(t)
	alice := userFixture(t, r, "alice")

	trips, err := r.Trips.ListForUser(context.Background(), alice.ID)

	require.NoError(t, err)
	assert.NotNil(t, trips, "empty list, not nil")
	assert.Empty(t, trips)
}
