package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/service"
)

// addExpenseRequest accepts amount as a JSON number or numeric string.
type addExpenseRequest struct {
	Description string           `json:"description"`
	Amount      *decimal.Decimal `json:"amount"`
	PaidBy      string           `json:"paid_by"`
}

type expenseResponse struct {
	ID          uuid.UUID `json:"id"`
	TripID      uuid.UUID `json:"trip_id"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	PaidBy      uuid.UUID `json:"paid_by"`
	PaidByName  string    `json:"paid_by_name"`
	CreatedAt   time.Time `json:"created_at"`
}

type addExpenseResponse struct {
	envelope
	ExpenseID uuid.UUID `json:"expenseId"`
}

type listExpensesResponse struct {
	envelope
	Expenses []expenseResponse `json:"expenses"`
}

// AddExpense handles POST /trips/{tripID}/expenses.
func (s *Server) AddExpense(w http.ResponseWriter, r *http.Request) {
	id, authed := caller(w, r)
	if !authed {
		return
	}
	tripID, valid := tripIDParam(w, r)
	if !valid {
		return
	}
	var req addExpenseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	in := service.ExpenseInput{Description: req.Description}
	if req.Amount != nil {
		in.Amount = *req.Amount
	}
	if p := strings.TrimSpace(req.PaidBy); p != "" {
		payer, err := uuid.Parse(p)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid paid_by user ID")
			return
		}
		in.PaidBy = &payer
	}

	expense, err := s.expenses.Add(r.Context(), tripID, id.UserID, in)
	if err != nil {
		s.respondError(w, r, err, "Failed to add expense")
		return
	}
	writeJSON(w, http.StatusCreated, addExpenseResponse{envelope: ok("Expense added"), ExpenseID: expense.ID})
}

// ListExpenses handles GET /trips/{tripID}/expenses.
func (s *Server) ListExpenses(w http.ResponseWriter, r *http.Request) {
	id, authed := caller(w, r)
	if !authed {
		return
	}
	tripID, valid := tripIDParam(w, r)
	if !valid {
		return
	}

	expenses, err := s.expenses.ListByTrip(r.Context(), tripID, id.UserID)
	if err != nil {
		s.respondError(w, r, err, "Failed to get expenses")
		return
	}
	data := make([]expenseResponse, len(expenses))
	for i, e := range expenses {
		data[i] = expenseToResponse(e)
	}
	writeJSON(w, http.StatusOK, listExpensesResponse{envelope: ok(""), Expenses: data})
}

func expenseToResponse(e domain.Expense) expenseResponse {
	return expenseResponse{
		ID:          e.ID,
		TripID:      e.TripID,
		Description: e.Description,
		Amount:      e.Amount.InexactFloat64(),
		PaidBy:      e.PaidBy,
		PaidByName:  e.PaidByName,
		CreatedAt:   e.CreatedAt,
	}
}
