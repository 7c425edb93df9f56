package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/repo"
)

// maxAmount is the largest value NUMERIC(12,2) can hold.
var maxAmount = decimal.RequireFromString("9999999999.99")

// Amounts are rejected before any arithmetic when their exponent or
// coefficient falls outside these bounds. Rounding cost grows with the
// exponent, and nothing outside them survives NUMERIC(12,2) anyway.
const (
	minAmountExponent  = -20
	maxAmountExponent  = 10
	maxAmountCoeffBits = 128
)

// ExpenseInput is a shared cost the caller wants to record.
// PaidBy defaults to the caller when nil.
type ExpenseInput struct {
	Description string
	Amount      decimal.Decimal
	PaidBy      *uuid.UUID
}

// ExpenseService records and lists raw expense rows. It does not settle debts.
type ExpenseService struct {
	store  repo.Store
	access *AccessService
}

// NewExpenseService constructs an ExpenseService.
func NewExpenseService(store repo.Store, access *AccessService) *ExpenseService {
	return &ExpenseService{store: store, access: access}
}

// Add records an expense on a trip the caller belongs to. The payer must
// also be a member of the trip.
func (s *ExpenseService) Add(ctx context.Context, tripID, callerID uuid.UUID, in ExpenseInput) (domain.Expense, error) {
	e := domain.Expense{
		TripID:      tripID,
		Description: strings.TrimSpace(in.Description),
		PaidBy:      callerID,
	}
	if in.PaidBy != nil && *in.PaidBy != uuid.Nil {
		e.PaidBy = *in.PaidBy
	}
	if e.Description == "" {
		return domain.Expense{}, domain.Errorf(domain.ErrValidation, "Description is required")
	}
	if exp := in.Amount.Exponent(); exp < minAmountExponent || exp > maxAmountExponent ||
		in.Amount.Coefficient().BitLen() > maxAmountCoeffBits {
		return domain.Expense{}, domain.Errorf(domain.ErrValidation, "Amount is out of range")
	}
	e.Amount = in.Amount.Round(2)
	if !e.Amount.IsPositive() {
		return domain.Expense{}, domain.Errorf(domain.ErrValidation, "Amount must be greater than zero")
	}
	if e.Amount.GreaterThan(maxAmount) {
		return domain.Expense{}, domain.Errorf(domain.ErrValidation, "Amount is too large")
	}

	if _, err := s.access.RequireMember(ctx, tripID, callerID); err != nil {
		return domain.Expense{}, err
	}
	if e.PaidBy != callerID {
		if _, err := s.access.RequireMember(ctx, tripID, e.PaidBy); err != nil {
			if errors.Is(err, domain.ErrForbidden) {
				return domain.Expense{}, domain.Errorf(domain.ErrValidation, "Payer must be a member of this trip")
			}
			return domain.Expense{}, fmt.Errorf("service.ExpenseService.Add: payer: %w", err)
		}
	}

	created, err := s.store.Repos().Expenses.Create(ctx, e)
	if err != nil {
		return domain.Expense{}, fmt.Errorf("service.ExpenseService.Add: %w", err)
	}
	return created, nil
}

// ListByTrip returns the trip's expenses, newest first.
func (s *ExpenseService) ListByTrip(ctx context.Context, tripID, callerID uuid.UUID) ([]domain.Expense, error) {
	if err := s.access.RequireVisible(ctx, tripID, callerID); err != nil {
		return nil, err
	}
	expenses, err := s.store.Repos().Expenses.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.ExpenseService.ListByTrip: %w", err)
	}
	return expenses, nil
}
