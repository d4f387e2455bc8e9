package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Position represents a leveraged bet on a coin's price direction.
// Size, leverage, margin, entry price and the optional stop-loss/take-profit
// thresholds are fixed at open time; only the mark price and the derived
// unrealized PnL change while the position is open. Status moves one way:
// open -> closed, and the closing credit is applied exactly once.
type Position struct {
	ID          uuid.UUID        `json:"id"`
	OwnerID     uuid.UUID        `json:"owner_id"`
	Symbol      string           `json:"symbol"`
	Direction   string           `json:"direction"`
	Size        decimal.Decimal  `json:"size"`
	Leverage    int              `json:"leverage"`
	Margin      decimal.Decimal  `json:"margin"`
	EntryPrice  decimal.Decimal  `json:"entry_price"`
	MarkPrice   decimal.Decimal  `json:"mark_price"`
	StopLoss    *decimal.Decimal `json:"stop_loss,omitempty"`
	TakeProfit  *decimal.Decimal `json:"take_profit,omitempty"`
	Status      string           `json:"status"`
	CloseReason *string          `json:"close_reason,omitempty"`
	ExitPrice   *decimal.Decimal `json:"exit_price,omitempty"`
	RealizedPnL *decimal.Decimal `json:"realized_pnl,omitempty"`
	OpenedAt    time.Time        `json:"opened_at"`
	ClosedAt    *time.Time       `json:"closed_at,omitempty"`
}

// Position direction constants
const (
	DirectionLong  = "long"
	DirectionShort = "short"
)

// Position status constants
const (
	PositionOpen   = "open"
	PositionClosed = "closed"
)

// CloseReason constants (how the position was closed)
const (
	CloseManual      = "manual"
	CloseStopLoss    = "stop_loss"
	CloseTakeProfit  = "take_profit"
	CloseLiquidation = "liquidation"
)

var hundred = decimal.NewFromInt(100)

// NewPosition builds an open position at the given entry price.
// Margin is derived as size/leverage and is the amount reserved from the
// owner's balance when the position is opened.
func NewPosition(ownerID uuid.UUID, symbol, direction string, size decimal.Decimal, leverage int, entryPrice decimal.Decimal, stopLoss, takeProfit *decimal.Decimal) *Position {
	now := time.Now()
	return &Position{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		Symbol:     symbol,
		Direction:  direction,
		Size:       size,
		Leverage:   leverage,
		Margin:     size.Div(decimal.NewFromInt(int64(leverage))),
		EntryPrice: entryPrice,
		MarkPrice:  entryPrice,
		StopLoss:   stopLoss,
		TakeProfit: takeProfit,
		Status:     PositionOpen,
		OpenedAt:   now,
	}
}

// IsLong checks if the position profits from rising prices.
func (p *Position) IsLong() bool {
	return p.Direction == DirectionLong
}

// IsOpen reports whether the position is still eligible for mark-price
// updates and trigger evaluation.
func (p *Position) IsOpen() bool {
	return p.Status == PositionOpen
}

// UnrealizedPnL computes the signed paper gain/loss at the given mark price.
//
//	delta = long ? mark-entry : entry-mark
//	pnl   = delta/entry * size * leverage
//
// Pure function of the immutable open-time fields and the mark price;
// the stored value is never authoritative.
func (p *Position) UnrealizedPnL(mark decimal.Decimal) decimal.Decimal {
	if p.EntryPrice.IsZero() {
		return decimal.Zero
	}

	var delta decimal.Decimal
	if p.IsLong() {
		delta = mark.Sub(p.EntryPrice)
	} else {
		delta = p.EntryPrice.Sub(mark)
	}

	return delta.Div(p.EntryPrice).Mul(p.Size).Mul(decimal.NewFromInt(int64(p.Leverage)))
}

// PnLPercent computes the unrealized PnL relative to the reserved margin.
func (p *Position) PnLPercent(mark decimal.Decimal) decimal.Decimal {
	if p.Margin.IsZero() {
		return decimal.Zero
	}
	return p.UnrealizedPnL(mark).Div(p.Margin).Mul(hundred)
}

// EvaluateTriggers checks the automatic close conditions at the given mark
// price and returns at most one close reason. Liquidation takes precedence
// over stop-loss, stop-loss over take-profit: the liquidation check is the
// system's safety net and must win even when user thresholds fire on the
// same tick.
func (p *Position) EvaluateTriggers(mark decimal.Decimal, liquidationThreshold decimal.Decimal) (string, bool) {
	if !p.IsOpen() {
		return "", false
	}

	if p.PnLPercent(mark).LessThanOrEqual(liquidationThreshold) {
		return CloseLiquidation, true
	}

	if p.StopLoss != nil {
		if p.IsLong() && mark.LessThanOrEqual(*p.StopLoss) {
			return CloseStopLoss, true
		}
		if !p.IsLong() && mark.GreaterThanOrEqual(*p.StopLoss) {
			return CloseStopLoss, true
		}
	}

	if p.TakeProfit != nil {
		if p.IsLong() && mark.GreaterThanOrEqual(*p.TakeProfit) {
			return CloseTakeProfit, true
		}
		if !p.IsLong() && mark.LessThanOrEqual(*p.TakeProfit) {
			return CloseTakeProfit, true
		}
	}

	return "", false
}

// CloseCredit computes the balance credit for closing at the given exit
// price. Ordinary closes return max(0, margin+pnl): a realized loss can wipe
// out the margin entirely but never drives the balance negative.
// Liquidation credits only a small residual fraction of margin instead,
// reflecting the liquidation penalty.
func (p *Position) CloseCredit(exitPrice decimal.Decimal, reason string, liquidationResidual decimal.Decimal) (pnl, credit decimal.Decimal) {
	pnl = p.UnrealizedPnL(exitPrice)

	if reason == CloseLiquidation {
		return pnl, p.Margin.Mul(liquidationResidual)
	}

	credit = p.Margin.Add(pnl)
	if credit.IsNegative() {
		credit = decimal.Zero
	}
	return pnl, credit
}
