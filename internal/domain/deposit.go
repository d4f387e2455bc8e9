package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DepositRequest is a manually reviewed request to credit a player's
// balance. Approval credits the balance atomically with the status flip;
// a request can be processed at most once.
type DepositRequest struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	Username    string          `json:"username"`
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method"`
	Proof       *string         `json:"proof,omitempty"`
	Status      string          `json:"status"`
	AdminNotes  *string         `json:"admin_notes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	ProcessedAt *time.Time      `json:"processed_at,omitempty"`
	ProcessedBy *uuid.UUID      `json:"processed_by,omitempty"`
}

// Deposit method constants
const (
	DepositMethodDiscord = "discord"
	DepositMethodManual  = "manual"
)

// Deposit status constants
const (
	DepositPending  = "pending"
	DepositApproved = "approved"
	DepositRejected = "rejected"
)
