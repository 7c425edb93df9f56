package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pkordes/trip-planner/internal/domain"
)

// PlaceRepo defines the persistence operations for Places.
type PlaceRepo interface {
	// Create inserts a place and returns it with id and created_at populated.
	// Returns domain.ErrNotFound if the trip does not exist.
	Create(ctx context.Context, p domain.Place) (domain.Place, error)

	// ListByTrip returns the trip's places, newest first, with added_by_name.
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Place, error)
}

type pgPlaceRepo struct {
	db db
}

// NewPlaceRepo constructs a PlaceRepo backed by the provided db connection.
func NewPlaceRepo(db db) PlaceRepo {
	return &pgPlaceRepo{db: db}
}

func (r *pgPlaceRepo) Create(ctx context.Context, p domain.Place) (domain.Place, error) {
	const q = `
		INSERT INTO places (trip_id, place_name, place_type, address, latitude, longitude, api_data, added_by)
		VALUES (@trip_id, @place_name, @place_type, @address, @latitude, @longitude, @api_data, @added_by)
		RETURNING id, created_at`

	// A nil RawMessage must reach Postgres as NULL, not as the JSON literal null.
	var apiData any
	if len(p.APIData) > 0 {
		apiData = []byte(p.APIData)
	}

	out := p
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"trip_id":    p.TripID,
		"place_name": p.Name,
		"place_type": p.Type,
		"address":    p.Address,
		"latitude":   p.Latitude,
		"longitude":  p.Longitude,
		"api_data":   apiData,
		"added_by":   p.AddedBy,
	}).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		return domain.Place{}, fmt.Errorf("repo.PlaceRepo.Create: %w", mapPgError(err))
	}
	return out, nil
}

func (r *pgPlaceRepo) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Place, error) {
	const q = `
		SELECT p.id, p.trip_id, p.place_name, p.place_type, p.address, p.latitude, p.longitude,
		       p.api_data, p.added_by, u.username, p.created_at
		FROM places p
		JOIN users u ON u.id = p.added_by
		WHERE p.trip_id = @trip_id
		ORDER BY p.created_at DESC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.PlaceRepo.ListByTrip: %w", err)
	}
	places, err := collect(rows, scanPlace)
	if err != nil {
		return nil, fmt.Errorf("repo.PlaceRepo.ListByTrip: %w", err)
	}
	return places, nil
}

func scanPlace(s scanner) (domain.Place, error) {
	var (
		p       domain.Place
		apiData []byte
	)
	err := s.Scan(&p.ID, &p.TripID, &p.Name, &p.Type, &p.Address, &p.Latitude, &p.Longitude,
		&apiData, &p.AddedBy, &p.AddedByName, &p.CreatedAt)
	if err != nil {
		return domain.Place{}, err
	}
	if len(apiData) > 0 {
		p.APIData = apiData
	}
	return p, nil
}
