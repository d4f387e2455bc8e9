package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UserRepository defines the interface for account persistence.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	GetAll(ctx context.Context) ([]*User, error)
	Count(ctx context.Context) (int, error)
}

// PositionRepository owns position records and the atomic settlement
// mutations against them. OpenAtomic and CloseAtomic pair the position write
// with the owner's balance change in a single transaction: no state where
// margin is debited but no position exists, or a position is closed without
// its credit, is ever observable.
type PositionRepository interface {
	// OpenAtomic debits the margin from the owner's balance and inserts the
	// position as one transaction. The debit is conditional on the balance
	// inside the transaction; a stale pre-read can never double-spend.
	// Returns ErrInsufficientBalance or ErrOwnerNotFound.
	OpenAtomic(ctx context.Context, position *Position) error

	// CloseAtomic flips the position to closed and credits the owner in one
	// transaction. The status flip is a compare-and-set on status='open';
	// when a concurrent close has already won it returns ErrAlreadyClosed
	// and applies nothing.
	CloseAtomic(ctx context.Context, id uuid.UUID, exitPrice, pnl, credit decimal.Decimal, reason string, closedAt time.Time) (*Position, error)

	GetByID(ctx context.Context, id uuid.UUID) (*Position, error)
	GetOpenByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Position, error)
	GetHistoryByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]*Position, error)
	GetOpenBySymbol(ctx context.Context, symbol string) ([]*Position, error)
	GetOpen(ctx context.Context) ([]*Position, error)

	// UpdateMark stores the latest mark price and derived PnL for all open
	// positions on a symbol. Re-applying the same price is a no-op by
	// construction, which is what makes duplicate ticks safe.
	UpdateMark(ctx context.Context, symbol string, mark decimal.Decimal) error

	CountOpen(ctx context.Context) (int, error)
	TotalOpenMargin(ctx context.Context) (decimal.Decimal, error)
}

// CoinRepository persists the coin catalog and chart candles.
type CoinRepository interface {
	GetAll(ctx context.Context) ([]*Coin, error)
	GetByID(ctx context.Context, id string) (*Coin, error)
	GetBySymbol(ctx context.Context, symbol string) (*Coin, error)
	Seed(ctx context.Context, coins []*Coin) error

	// ApplyTick advances the coin to the tick's price and watermark. It
	// reports false without error when the tick timestamp is not newer than
	// the stored watermark, making at-least-once delivery safe.
	ApplyTick(ctx context.Context, tick Tick) (bool, error)

	AppendCandle(ctx context.Context, candle *Candle) error
	GetCandles(ctx context.Context, coinID string, limit int) ([]*Candle, error)
}

// DepositRepository persists deposit requests. Process applies the
// approve/reject decision and, for approvals, the balance credit in a single
// transaction; a second decision on the same request returns
// ErrDepositProcessed.
type DepositRepository interface {
	Create(ctx context.Context, deposit *DepositRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*DepositRequest, error)
	GetByUser(ctx context.Context, userID uuid.UUID) ([]*DepositRequest, error)
	GetAll(ctx context.Context) ([]*DepositRequest, error)
	Process(ctx context.Context, id uuid.UUID, status string, processedBy uuid.UUID, notes *string) (*DepositRequest, error)
	CountPending(ctx context.Context) (int, error)
}

// SettingsRepository persists the single trading settings row.
type SettingsRepository interface {
	Get(ctx context.Context) (*TradingSettings, error)
	Update(ctx context.Context, settings *TradingSettings) error
}
