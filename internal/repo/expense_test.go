package repo_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-planner/internal/domain"
)

func TestExpenseRepo_CreateAndList(t *testing.T) {
	r, _ := newTestRepos(t)
	ctx := context.Background()
	alice := userFixture(t, r, "alice")
	trip, err := r.Trips.Create(ctx, tripFixture(alice.ID))
	require.NoError(t, err)

	created, err := r.Expenses.Create(ctx, domain.Expense{
		TripID: trip.ID, Description: "Lunch", Amount: decimal.RequireFromString("20.50"), PaidBy: alice.ID,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.True(t, created.Amount.Equal(decimal.RequireFromString("20.5")))

	expenses, err := r.Expenses.ListByTrip(ctx, trip.ID)

	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, "Lunch", expenses[0].Description)
	assert.Equal(t, alice.Username, expenses[0].PaidByName)
	assert.True(t, expenses[0].Amount.Equal(decimal.RequireFromString("20.5")))
}

func TestExpenseRepo_Create_NonPositiveAmount(t *testing.T) {
	r, _ := newTestRepos(t)
	ctx := context.Background()
	alice := userFixture(t, r, "alice")
	trip, err := r.Trips.Create(ctx, tripFixture(alice.ID))
	require.NoError(t, err)

	_, err = r.Expenses.Create(ctx, domain.Expense{
		TripID: trip.ID, Description: "Refund", Amount: decimal.NewFromInt(-5), PaidBy: alice.ID,
	})

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestExpenseRepo_ListByTrip_Empty(t *testing.T) {
	r, _ := newTestRepos(t)

	expenses, err := r.Expenses.ListByTrip(context.Background(), uuid.New())

	require.NoError(t, err)
	assert.Empty(t, expenses)
}
