package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role is a member's privilege level on a trip, ordered owner > admin > member.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	}
	return false
}

// CanManageMembers reports whether r may invite or add members.
func (r Role) CanManageMembers() bool {
	return r == RoleOwner || r == RoleAdmin
}

// Membership links a user to a trip with a role.
// Username and Email are filled by read queries that join users.
type Membership struct {
	TripID   uuid.UUID
	UserID   uuid.UUID
	Role     Role
	Username string
	Email    string
	JoinedAt time.Time
}
