package domain

import "errors"

// Settlement and trading errors. All of these are recoverable by the caller
// and surface as user-visible messages; storage failures are wrapped in
// ErrStorageUnavailable and are safe to retry because no partial state is left.
var (
	ErrInsufficientBalance = errors.New("insufficient balance for margin requirement")
	ErrInvalidAmount       = errors.New("trade amount or leverage out of bounds")
	ErrPositionNotFound    = errors.New("position not found")
	ErrAlreadyClosed       = errors.New("position already closed")
	ErrOwnerNotFound       = errors.New("owner not found")
	ErrStorageUnavailable  = errors.New("storage unavailable")
)

// Account and workflow errors.
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUsernameTaken     = errors.New("username already taken")
	ErrInvalidCredential = errors.New("invalid credentials")
	ErrCoinNotFound      = errors.New("coin not found")
	ErrDepositNotFound   = errors.New("deposit request not found")
	ErrDepositProcessed  = errors.New("deposit request already processed")
	ErrMaintenanceMode   = errors.New("trading is in maintenance mode")
)
