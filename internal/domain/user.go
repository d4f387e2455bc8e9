package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User represents a player or admin account. Balance is denominated in
// Ardentia Coins (AC) and is only ever mutated through the settlement
// engine (open/close) or deposit approval.
type User struct {
	ID           uuid.UUID       `json:"id"`
	Username     string          `json:"username"`
	PasswordHash string          `json:"-"` // Never expose password hash in JSON
	Role         string          `json:"role"`
	Rank         string          `json:"rank"`
	Balance      decimal.Decimal `json:"balance"`
	CreatedAt    time.Time       `json:"created_at"`
	LastLoginAt  time.Time       `json:"last_login_at"`
}

// UserRole constants
const (
	RoleAdmin  = "ADMIN"
	RolePlayer = "PLAYER"
)

// DefaultRank is assigned to new players until an admin promotes them.
const DefaultRank = "Citizen"

// IsAdmin checks whether the user can access admin endpoints.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
