package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered account. PasswordHash holds an encoded, salted hash
// produced by an auth.CredentialHasher and never leaves the server.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
