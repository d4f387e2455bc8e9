package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceEvent is broadcast to subscribers after a tick is applied.
type PriceEvent struct {
	CoinID    string          `json:"coin_id"`
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Timestamp time.Time       `json:"timestamp"`
}

// PositionEvent is broadcast to the owner's subscribers whenever one of
// their positions changes state.
type PositionEvent struct {
	Type     string    `json:"type"`
	Position *Position `json:"position"`
}

// PositionEvent types
const (
	EventPositionOpened  = "position_opened"
	EventPositionUpdated = "position_updated"
	EventPositionClosed  = "position_closed"
)

// DepositNotifier posts deposit lifecycle notifications to the community
// chat bot. An unconfigured notifier silently does nothing.
type DepositNotifier interface {
	NotifyDeposit(deposit *DepositRequest) error
}

// EventPublisher fans out price ticks and per-owner position changes to
// subscribers. Publishing never blocks the settlement path.
type EventPublisher interface {
	PublishPrice(event PriceEvent)
	PublishPosition(ownerID uuid.UUID, event PositionEvent)
}
