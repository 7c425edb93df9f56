package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Place is a point of interest attached to a trip.
// APIData keeps the geocoder's raw payload for the place, if the client sent one.
type Place struct {
	ID          uuid.UUID
	TripID      uuid.UUID
	Name        string
	Type        string
	Address     string
	Latitude    float64
	Longitude   float64
	APIData     json.RawMessage
	AddedBy     uuid.UUID
	AddedByName string // read model only
	CreatedAt   time.Time
}

// PlaceCandidate is one geocoder search hit, not yet attached to any trip.
type PlaceCandidate struct {
	Name        string
	DisplayName string
	Category    string
	Type        string
	Latitude    float64
	Longitude   float64
	Raw         json.RawMessage
}
