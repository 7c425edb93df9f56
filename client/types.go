package client

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/shopspring/decimal"
)

// User is an account as the API returns it.
type User struct {
	ID        uuid.UUID  `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// TripInput is the body of CreateTrip. Dates are optional.
type TripInput struct {
	Name        string              `json:"trip_name"`
	Destination string              `json:"destination"`
	StartDate   *openapi_types.Date `json:"start_date,omitempty"`
	EndDate     *openapi_types.Date `json:"end_date,omitempty"`
	Description string              `json:"description,omitempty"`
}

type Trip struct {
	ID          uuid.UUID           `json:"id"`
	UserID      uuid.UUID           `json:"user_id"`
	CreatorName string              `json:"creator_name"`
	Name        string              `json:"trip_name"`
	Destination string              `json:"destination"`
	StartDate   *openapi_types.Date `json:"start_date"`
	EndDate     *openapi_types.Date `json:"end_date"`
	Description string              `json:"description"`
	CreatedAt   time.Time           `json:"created_at"`
}

type Member struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// TripDetails is a trip together with its members.
type TripDetails struct {
	Trip    Trip     `json:"trip"`
	Members []Member `json:"members"`
}

// PlaceCandidate is one geocoder search result.
type PlaceCandidate struct {
	Name        string          `json:"name"`
	DisplayName string          `json:"display_name"`
	Category    string          `json:"category"`
	Type        string          `json:"type"`
	Lat         float64         `json:"lat"`
	Lon         float64         `json:"lon"`
	Raw         json.RawMessage `json:"raw,omitempty"`
}

// PlaceInput is the body of AddPlace.
type PlaceInput struct {
	Name      string          `json:"place_name"`
	Type      string          `json:"place_type,omitempty"`
	Address   string          `json:"address,omitempty"`
	Latitude  float64         `json:"latitude"`
	Longitude float64         `json:"longitude"`
	APIData   json.RawMessage `json:"api_data,omitempty"`
}

type Place struct {
	ID          uuid.UUID       `json:"id"`
	TripID      uuid.UUID       `json:"trip_id"`
	Name        string          `json:"place_name"`
	Type        string          `json:"place_type"`
	Address     string          `json:"address"`
	Latitude    float64         `json:"latitude"`
	Longitude   float64         `json:"longitude"`
	APIData     json.RawMessage `json:"api_data"`
	AddedBy     uuid.UUID       `json:"added_by"`
	AddedByName string          `json:"added_by_name"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ExpenseInput is the body of AddExpense. A nil PaidBy means the caller paid.
type ExpenseInput struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	PaidBy      *uuid.UUID      `json:"paid_by,omitempty"`
}

type Expense struct {
	ID          uuid.UUID       `json:"id"`
	TripID      uuid.UUID       `json:"trip_id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	PaidBy      uuid.UUID       `json:"paid_by"`
	PaidByName  string          `json:"paid_by_name"`
	CreatedAt   time.Time       `json:"created_at"`
}
