package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/repo"
)

var (
	errAccessDenied = &domain.Error{Kind: domain.ErrForbidden, Message: "Access denied"}
	errNotMember    = &domain.Error{Kind: domain.ErrForbidden, Message: "You are not a member of this trip"}
)

// AccessService answers membership and role questions about trips.
type AccessService struct {
	store repo.Store
}

// NewAccessService constructs an AccessService.
func NewAccessService(store repo.Store) *AccessService {
	return &AccessService{store: store}
}

// RoleOf returns the user's role on the trip. ok is false when the user has
// no membership row.
func (s *AccessService) RoleOf(ctx context.Context, tripID, userID uuid.UUID) (domain.Role, bool, error) {
	return roleOf(ctx, s.store.Repos(), tripID, userID)
}

func roleOf(ctx context.Context, r repo.Repos, tripID, userID uuid.UUID) (domain.Role, bool, error) {
	role, err := r.Members.Role(ctx, tripID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("service.roleOf: %w", err)
	}
	return role, true, nil
}

// CanManageMembers reports whether the user is an owner or admin of the trip.
func (s *AccessService) CanManageMembers(ctx context.Context, tripID, userID uuid.UUID) (bool, error) {
	role, ok, err := s.RoleOf(ctx, tripID, userID)
	if err != nil {
		return false, fmt.Errorf("service.AccessService.CanManageMembers: %w", err)
	}
	return ok && role.CanManageMembers(), nil
}

// IsTripVisible reports whether the user created the trip or holds any
// membership on it. An unknown trip is not visible.
func (s *AccessService) IsTripVisible(ctx context.Context, tripID, userID uuid.UUID) (bool, error) {
	r := s.store.Repos()
	if _, ok, err := roleOf(ctx, r, tripID, userID); err != nil {
		return false, fmt.Errorf("service.AccessService.IsTripVisible: %w", err)
	} else if ok {
		return true, nil
	}

	trip, err := r.Trips.GetByID(ctx, tripID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("service.AccessService.IsTripVisible: %w", err)
	}
	return trip.OwnerID == userID, nil
}

// RequireVisible returns domain.ErrForbidden unless IsTripVisible holds.
func (s *AccessService) RequireVisible(ctx context.Context, tripID, userID uuid.UUID) error {
	ok, err := s.IsTripVisible(ctx, tripID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return errAccessDenied
	}
	return nil
}

// RequireMember returns the caller's role, or domain.ErrForbidden when the
// caller has no membership on the trip. A creator without a membership row
// counts as owner.
func (s *AccessService) RequireMember(ctx context.Context, tripID, userID uuid.UUID) (domain.Role, error) {
	role, ok, err := s.RoleOf(ctx, tripID, userID)
	if err != nil {
		return "", fmt.Errorf("service.AccessService.RequireMember: %w", err)
	}
	if ok {
		return role, nil
	}

	trip, err := s.store.Repos().Trips.GetByID(ctx, tripID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", errNotMember
		}
		return "", fmt.Errorf("service.AccessService.RequireMember: %w", err)
	}
	if trip.OwnerID == userID {
		return domain.RoleOwner, nil
	}
	return "", errNotMember
}
