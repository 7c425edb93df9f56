package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/service"
)

// ---- POST /trips/{tripID}/expenses -----------------------------------------

func TestAddExpense_201(t *testing.T) {
	expenseID := uuid.New()
	var got service.ExpenseInput
	svc := &mockExpenseServicer{
		add: func(_ context.Context, _, _ uuid.UUID, in service.ExpenseInput) (domain.Expense, error) {
			got = in
			return domain.Expense{ID: expenseID}, nil
		},
	}

	rec := do(newHTTPHandler(services{expenses: svc}), http.MethodPost, "/trips/"+uuid.NewString()+"/expenses",
		jsonBody(t, map[string]any{"description": "Lunch", "amount": 20.5}))

	require.Equal(t, http.StatusCreated, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Expense added", body["message"])
	assert.Equal(t, expenseID.String(), body["expenseId"])
	assert.Equal(t, "Lunch", got.Description)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("20.5")))
	assert.Nil(t, got.PaidBy)
}

func TestAddExpense_201_ExplicitPayer(t *testing.T) {
	bob := uuid.New()
	var got service.ExpenseInput
	svc := &mockExpenseServicer{
		add: func(_ context.Context, _, _ uuid.UUID, in service.ExpenseInput) (domain.Expense, error) {
			got = in
			return domain.Expense{ID: uuid.New()}, nil
		},
	}

	rec := do(newHTTPHandler(services{expenses: svc}), http.MethodPost, "/trips/"+uuid.NewString()+"/expenses",
		jsonBody(t, map[string]any{"description": "Taxi", "amount": "12.30", "paid_by": bob.String()}))

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, got.PaidBy)
	assert.Equal(t, bob, *got.PaidBy)
	assert.Equal(t, "12.3", got.Amount.String())
}

func TestAddExpense_400_BadPayer(t *testing.T) {
	rec := do(newHTTPHandler(services{expenses: &mockExpenseServicer{}}), http.MethodPost, "/trips/"+uuid.NewString()+"/expenses",
		jsonBody(t, map[string]any{"description": "Taxi", "amount": 5, "paid_by": "bob"}))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid paid_by user ID", decode(t, rec)["message"])
}

func TestAddExpense_400_Validation(t *testing.T) {
	svc := &mockExpenseServicer{
		add: func(context.Context, uuid.UUID, uuid.UUID, service.ExpenseInput) (domain.Expense, error) {
			return domain.Expense{}, domain.Errorf(domain.ErrValidation, "Amount must be greater than zero")
		},
	}

	rec := do(newHTTPHandler(services{expenses: svc}), http.MethodPost, "/trips/"+uuid.NewString()+"/expenses",
		jsonBody(t, map[string]any{"description": "Lunch", "amount": -1}))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Amount must be greater than zero", decode(t, rec)["message"])
}

// ---- GET /trips/{tripID}/expenses ------------------------------------------

func TestListExpenses_200(t *testing.T) {
	svc := &mockExpenseServicer{
		listByTrip: func(_ context.Context, tripID, _ uuid.UUID) ([]domain.Expense, error) {
			return []domain.Expense{{
				ID: uuid.New(), TripID: tripID, Description: "Lunch",
				Amount: decimal.RequireFromString("20.50"), PaidBy: testCaller.UserID, PaidByName: "alice",
				CreatedAt: time.Now().UTC(),
			}}, nil
		},
	}

	rec := do(newHTTPHandler(services{expenses: svc}), http.MethodGet, "/trips/"+uuid.NewString()+"/expenses", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	list := decode(t, rec)["expenses"].([]any)
	require.Len(t, list, 1)
	e := list[0].(map[string]any)
	assert.Equal(t, 20.5, e["amount"])
	assert.Equal(t, "alice", e["paid_by_name"])
}

func TestListExpenses_403(t *testing.T) {
	svc := &mockExpenseServicer{
		listByTrip: func(context.Context, uuid.UUID, uuid.UUID) ([]domain.Expense, error) {
			return nil, domain.Errorf(domain.ErrForbidden, "Access denied")
		},
	}

	rec := do(newHTTPHandler(services{expenses: svc}), http.MethodGet, "/trips/"+uuid.NewString()+"/expenses", nil)

	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Access denied", decode(t, rec)["message"])
}
