package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/repo"
)

// ErrSearchFailed wraps any failure of the external geocoder.
var ErrSearchFailed = errors.New("place search failed")

// Geocoder looks up points of interest for a free-text query.
type Geocoder interface {
	Search(ctx context.Context, query string) ([]domain.PlaceCandidate, error)
}

// PlaceInput is a place the caller wants to attach to a trip.
// Latitude and Longitude are pointers so that "absent" differs from 0.
type PlaceInput struct {
	Name      string
	Type      string
	Address   string
	Latitude  *float64
	Longitude *float64
	APIData   json.RawMessage
}

// PlaceService searches the geocoder and records places on trips.
type PlaceService struct {
	store    repo.Store
	access   *AccessService
	geocoder Geocoder
}

// NewPlaceService constructs a PlaceService.
func NewPlaceService(store repo.Store, access *AccessService, geocoder Geocoder) *PlaceService {
	return &PlaceService{store: store, access: access, geocoder: geocoder}
}

// Search asks the geocoder for "city category".
func (s *PlaceService) Search(ctx context.Context, city, category string) ([]domain.PlaceCandidate, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, domain.Errorf(domain.ErrValidation, "City parameter is required")
	}
	query := strings.TrimSpace(city + " " + strings.TrimSpace(category))

	places, err := s.geocoder.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("service.PlaceService.Search: %w: %w", ErrSearchFailed, err)
	}
	return places, nil
}

// Add records a place on a trip the caller belongs to.
func (s *PlaceService) Add(ctx context.Context, tripID, callerID uuid.UUID, in PlaceInput) (domain.Place, error) {
	p := domain.Place{
		TripID:  tripID,
		Name:    strings.TrimSpace(in.Name),
		Type:    strings.TrimSpace(in.Type),
		Address: strings.TrimSpace(in.Address),
		AddedBy: callerID,
	}
	if p.Name == "" {
		return domain.Place{}, domain.Errorf(domain.ErrValidation, "Place name is required")
	}
	if in.Latitude == nil || in.Longitude == nil {
		return domain.Place{}, domain.Errorf(domain.ErrValidation, "Latitude and longitude are required")
	}
	if !inRange(*in.Latitude, 90) || !inRange(*in.Longitude, 180) {
		return domain.Place{}, domain.Errorf(domain.ErrValidation, "Coordinates are out of range")
	}
	p.Latitude, p.Longitude = *in.Latitude, *in.Longitude
	if len(in.APIData) > 0 && string(in.APIData) != "null" {
		if !json.Valid(in.APIData) {
			return domain.Place{}, domain.Errorf(domain.ErrValidation, "api_data must be valid JSON")
		}
		p.APIData = in.APIData
	}

	if _, err := s.access.RequireMember(ctx, tripID, callerID); err != nil {
		return domain.Place{}, err
	}

	created, err := s.store.Repos().Places.Create(ctx, p)
	if err != nil {
		return domain.Place{}, fmt.Errorf("service.PlaceService.Add: %w", err)
	}
	return created, nil
}

// inRange reports whether v is a finite number within [-limit, limit].
// NaN fails every comparison, so it is checked explicitly.
func inRange(v, limit float64) bool {
	return !math.IsNaN(v) && v >= -limit && v <= limit
}

// ListByTrip returns the trip's places, newest first.
func (s *PlaceService) ListByTrip(ctx context.Context, tripID, callerID uuid.UUID) ([]domain.Place, error) {
	if err := s.access.RequireVisible(ctx, tripID, callerID); err != nil {
		return nil, err
	}
	places, err := s.store.Repos().Places.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.PlaceService.ListByTrip: %w", err)
	}
	return places, nil
}
