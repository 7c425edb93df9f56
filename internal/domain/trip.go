// Package domain contains the core data types for the trip planner.
// It depends only on small value-type libraries (uuid, decimal) and is
// imported by every other internal package (repo, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Trip is the top-level aggregate; memberships, places and expenses belong to a trip.
// StartDate and EndDate carry date-only semantics and are nil when not planned yet.
type Trip struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	OwnerName   string // read model only: creator's username
	Name        string
	Destination string
	StartDate   *time.Time
	EndDate     *time.Time
	Description string
	CreatedAt   time.Time
}
