package dto

import (
	"time"

	"ardentia/internal/domain"
)

// CreateDepositRequest represents a deposit request payload
type CreateDepositRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
	Method string  `json:"method" validate:"required"`
	Proof  *string `json:"proof,omitempty"`
}

// ProcessDepositRequest represents an admin decision payload
type ProcessDepositRequest struct {
	Notes *string `json:"notes,omitempty"`
}

// DepositOutput represents a deposit request in API responses
type DepositOutput struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	Amount      string  `json:"amount"`
	Method      string  `json:"method"`
	Proof       *string `json:"proof,omitempty"`
	Status      string  `json:"status"`
	AdminNotes  *string `json:"admin_notes,omitempty"`
	CreatedAt   string  `json:"created_at"`
	ProcessedAt *string `json:"processed_at,omitempty"`
}

// NewDepositOutput converts a domain deposit request to its API shape.
func NewDepositOutput(d *domain.DepositRequest) DepositOutput {
	out := DepositOutput{
		ID:         d.ID.String(),
		Username:   d.Username,
		Amount:     d.Amount.StringFixed(2),
		Method:     d.Method,
		Proof:      d.Proof,
		Status:     d.Status,
		AdminNotes: d.AdminNotes,
		CreatedAt:  d.CreatedAt.Format(time.RFC3339),
	}
	if d.ProcessedAt != nil {
		s := d.ProcessedAt.Format(time.RFC3339)
		out.ProcessedAt = &s
	}
	return out
}

// NewDepositOutputs converts a slice of domain deposit requests.
func NewDepositOutputs(deposits []*domain.DepositRequest) []DepositOutput {
	out := make([]DepositOutput, 0, len(deposits))
	for _, d := range deposits {
		out = append(out, NewDepositOutput(d))
	}
	return out
}
