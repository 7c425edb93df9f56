package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Expense is a raw shared-cost row on a trip. Amount is always positive;
// no settlement is computed from these rows.
type Expense struct {
	ID          uuid.UUID
	TripID      uuid.UUID
	Description string
	Amount      decimal.Decimal
	PaidBy      uuid.UUID
	PaidByName  string // read model only
	CreatedAt   time.Time
}
