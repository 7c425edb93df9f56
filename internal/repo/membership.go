package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pkordes/trip-planner/internal/domain"
)

// MembershipRepo persists trip_members rows.
type MembershipRepo interface {
	// Add inserts a membership. Returns domain.ErrConflict if the user already
	// belongs to the trip (or a second owner is added) and domain.ErrNotFound
	// if the trip or user does not exist.
	Add(ctx context.Context, m domain.Membership) (domain.Membership, error)

	// Role returns the user's role on the trip, or domain.ErrNotFound.
	Role(ctx context.Context, tripID, userID uuid.UUID) (domain.Role, error)

	// ListByTrip returns the trip's members with username and email, owner first.
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Membership, error)
}

type pgMembershipRepo struct {
	db db
}

// NewMembershipRepo constructs a MembershipRepo backed by the provided db connection.
func NewMembershipRepo(db db) MembershipRepo {
	return &pgMembershipRepo{db: db}
}

func (r *pgMembershipRepo) Add(ctx context.Context, m domain.Membership) (domain.Membership, error) {
	const q = `
		INSERT INTO trip_members (trip_id, user_id, role)
		VALUES (@trip_id, @user_id, @role)
		RETURNING joined_at`

	out := m
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"trip_id": m.TripID,
		"user_id": m.UserID,
		"role":    string(m.Role),
	}).Scan(&out.JoinedAt)
	if err != nil {
		return domain.Membership{}, fmt.Errorf("repo.MembershipRepo.Add: %w", mapPgError(err))
	}
	return out, nil
}

func (r *pgMembershipRepo) Role(ctx context.Context, tripID, userID uuid.UUID) (domain.Role, error) {
	const q = `SELECT role FROM trip_members WHERE trip_id = @trip_id AND user_id = @user_id`

	var role string
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"trip_id": tripID, "user_id": userID}).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("repo.MembershipRepo.Role: %w", domain.ErrNotFound)
		}
		return "", fmt.Errorf("repo.MembershipRepo.Role: %w", err)
	}
	return domain.Role(role), nil
}

func (r *pgMembershipRepo) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Membership, error) {
	const q = `
		SELECT tm.trip_id, tm.user_id, tm.role, u.username, u.email, tm.joined_at
		FROM trip_members tm
		JOIN users u ON u.id = tm.user_id
		WHERE tm.trip_id = @trip_id
		ORDER BY CASE tm.role WHEN 'owner' THEN 0 WHEN 'admin' THEN 1 ELSE 2 END, tm.joined_at`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.MembershipRepo.ListByTrip: %w", err)
	}
	members, err := collect(rows, scanMembership)
	if err != nil {
		return nil, fmt.Errorf("repo.MembershipRepo.ListByTrip: %w", err)
	}
	return members, nil
}

func scanMembership(s scanner) (domain.Membership, error) {
	var (
		m    domain.Membership
		role string
	)
	if err := s.Scan(&m.TripID, &m.UserID, &role, &m.Username, &m.Email, &m.JoinedAt); err != nil {
		return domain.Membership{}, err
	}
	m.Role = domain.Role(role)
	return m, nil
}
