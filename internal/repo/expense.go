package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pkordes/trip-planner/internal/domain"
)

// ExpenseRepo defines the persistence operations for Expenses.
type ExpenseRepo interface {
	// Create inserts an expense and returns it with id and created_at populated.
	// Returns domain.ErrNotFound if the trip or payer does not exist.
	Create(ctx context.Context, e domain.Expense) (domain.Expense, error)

	// ListByTrip returns the trip's expenses, newest first, with paid_by_name.
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Expense, error)
}

type pgExpenseRepo struct {
	db db
}

// NewExpenseRepo constructs an ExpenseRepo backed by the provided db connection.
func NewExpenseRepo(db db) ExpenseRepo {
	return &pgExpenseRepo{db: db}
}

func (r *pgExpenseRepo) Create(ctx context.Context, e domain.Expense) (domain.Expense, error) {
	const q = `
		INSERT INTO expenses (trip_id, description, amount, paid_by)
		VALUES (@trip_id, @description, @amount, @paid_by)
		RETURNING id, amount, created_at`

	out := e
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"trip_id":     e.TripID,
		"description": e.Description,
		"amount":      e.Amount, // decimal.Decimal implements driver.Valuer
		"paid_by":     e.PaidBy,
	}).Scan(&out.ID, &out.Amount, &out.CreatedAt)
	if err != nil {
		return domain.Expense{}, fmt.Errorf("repo.ExpenseRepo.Create: %w", mapPgError(err))
	}
	return out, nil
}

func (r *pgExpenseRepo) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Expense, error) {
	const q = `
		SELECT e.id, e.trip_id, e.description, e.amount, e.paid_by, u.username, e.created_at
		FROM expenses e
		JOIN users u ON u.id = e.paid_by
		WHERE e.trip_id = @trip_id
		ORDER BY e.created_at DESC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.ExpenseRepo.ListByTrip: %w", err)
	}
	expenses, err := collect(rows, scanExpense)
	if err != nil {
		return nil, fmt.Errorf("repo.ExpenseRepo.ListByTrip: %w", err)
	}
	return expenses, nil
}

func scanExpense(s scanner) (domain.Expense, error) {
	var e domain.Expense
	err := s.Scan(&e.ID, &e.TripID, &e.Description, &e.Amount, &e.PaidBy, &e.PaidByName, &e.CreatedAt)
	if err != nil {
		return domain.Expense{}, err
	}
	return e, nil
}
