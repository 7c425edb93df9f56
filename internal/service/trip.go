package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/repo"
)

// TripInput carries the user-editable fields of a new trip.
type TripInput struct {
	Name        string
	Destination string
	StartDate   *time.Time
	EndDate     *time.Time
	Description string
}

// TripDetails is a trip together with its member list.
type TripDetails struct {
	Trip    domain.Trip
	Members []domain.Membership
}

// TripService implements business logic for Trip operations.
type TripService struct {
	store  repo.Store
	access *AccessService
}

// NewTripService constructs a TripService backed by the provided Store.
func NewTripService(store repo.Store, access *AccessService) *TripService {
	return &TripService{store: store, access: access}
}

// Create validates and persists a new trip and makes the caller its owner.
// Both rows are written in one transaction.
func (s *TripService) Create(ctx context.Context, ownerID uuid.UUID, in TripInput) (domain.Trip, error) {
	trip, err := validateTrip(in)
	if err != nil {
		return domain.Trip{}, err
	}
	trip.OwnerID = ownerID

	var created domain.Trip
	err = s.store.InTx(ctx, func(r repo.Repos) error {
		var err error
		created, err = r.Trips.Create(ctx, trip)
		if err != nil {
			return err
		}
		_, err = r.Members.Add(ctx, domain.Membership{
			TripID: created.ID,
			UserID: ownerID,
			Role:   domain.RoleOwner,
		})
		return err
	})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}
	return created, nil
}

// validateTrip trims text fields, truncates dates to calendar days and checks
// the business rules that apply to every trip.
func validateTrip(in TripInput) (domain.Trip, error) {
	t := domain.Trip{
		Name:        strings.TrimSpace(in.Name),
		Destination: strings.TrimSpace(in.Destination),
		StartDate:   toDate(in.StartDate),
		EndDate:     toDate(in.EndDate),
		Description: strings.TrimSpace(in.Description),
	}
	if t.Name == "" {
		return domain.Trip{}, domain.Errorf(domain.ErrValidation, "Trip name is required")
	}
	if t.Destination == "" {
		return domain.Trip{}, domain.Errorf(domain.ErrValidation, "Destination is required")
	}
	if t.StartDate != nil && t.EndDate != nil && t.EndDate.Before(*t.StartDate) {
		return domain.Trip{}, domain.Errorf(domain.ErrValidation, "End date cannot be before start date")
	}
	return t, nil
}

func toDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}

// ListForUser returns every trip the user created or belongs to.
func (s *TripService) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Trip, error) {
	trips, err := s.store.Repos().Trips.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.ListForUser: %w", err)
	}
	return trips, nil
}

// Details returns the trip and its members. The visibility check runs first,
// so a caller cannot tell a missing trip from one they may not see.
func (s *TripService) Details(ctx context.Context, tripID, userID uuid.UUID) (TripDetails, error) {
	if err := s.access.RequireVisible(ctx, tripID, userID); err != nil {
		return TripDetails{}, err
	}

	r := s.store.Repos()
	trip, err := r.Trips.GetByID(ctx, tripID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return TripDetails{}, domain.Errorf(domain.ErrNotFound, "Trip not found")
		}
		return TripDetails{}, fmt.Errorf("service.TripService.Details: %w", err)
	}
	members, err := r.Members.ListByTrip(ctx, tripID)
	if err != nil {
		return TripDetails{}, fmt.Errorf("service.TripService.Details: %w", err)
	}
	return TripDetails{Trip: trip, Members: members}, nil
}

// Invite adds the user registered under email to the trip as a member.
func (s *TripService) Invite(ctx context.Context, tripID, callerID uuid.UUID, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if !validEmail(email) {
		return domain.Errorf(domain.ErrValidation, "Invalid email address")
	}
	if err := s.requireManager(ctx, tripID, callerID, "You do not have permission to invite members"); err != nil {
		return err
	}

	user, err := s.store.Repos().Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Errorf(domain.ErrNotFound, "User with this email does not exist")
		}
		return fmt.Errorf("service.TripService.Invite: %w", err)
	}
	if err := s.addMember(ctx, tripID, user.ID); err != nil {
		return fmt.Errorf("service.TripService.Invite: %w", err)
	}
	return nil
}

// AddMember adds an existing user to the trip by id.
func (s *TripService) AddMember(ctx context.Context, tripID, callerID, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return domain.Errorf(domain.ErrValidation, "User ID is required")
	}
	if err := s.requireManager(ctx, tripID, callerID, "You do not have permission to add members"); err != nil {
		return err
	}

	if _, err := s.store.Repos().Users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Errorf(domain.ErrNotFound, "User does not exist")
		}
		return fmt.Errorf("service.TripService.AddMember: %w", err)
	}
	if err := s.addMember(ctx, tripID, userID); err != nil {
		return fmt.Errorf("service.TripService.AddMember: %w", err)
	}
	return nil
}

func (s *TripService) requireManager(ctx context.Context, tripID, callerID uuid.UUID, msg string) error {
	ok, err := s.access.CanManageMembers(ctx, tripID, callerID)
	if err != nil {
		return fmt.Errorf("service.TripService.requireManager: %w", err)
	}
	if !ok {
		return domain.Errorf(domain.ErrForbidden, "%s", msg)
	}
	return nil
}

// addMember inserts a member row, reporting an existing membership as a
// conflict whether it is found up front or by the unique constraint.
func (s *TripService) addMember(ctx context.Context, tripID, userID uuid.UUID) error {
	members := s.store.Repos().Members
	if _, ok, err := roleOf(ctx, s.store.Repos(), tripID, userID); err != nil {
		return err
	} else if ok {
		return errAlreadyMember
	}

	_, err := members.Add(ctx, domain.Membership{TripID: tripID, UserID: userID, Role: domain.RoleMember})
	if errors.Is(err, domain.ErrConflict) {
		return errAlreadyMember
	}
	return err
}

var errAlreadyMember = &domain.Error{Kind: domain.ErrConflict, Message: "User is already a member of this trip"}
