package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"ardentia/internal/domain"
)

// OpenPositionRequest represents an open position request payload
type OpenPositionRequest struct {
	Symbol     string   `json:"symbol" validate:"required"`
	Direction  string   `json:"direction" validate:"required"`
	Size       float64  `json:"size" validate:"required,gt=0"`
	Leverage   int      `json:"leverage" validate:"required,gte=1"`
	StopLoss   *float64 `json:"stop_loss,omitempty"`
	TakeProfit *float64 `json:"take_profit,omitempty"`
}

// PositionOutput represents a position in API responses. Unrealized PnL is
// recomputed from the stored mark price on every read.
type PositionOutput struct {
	ID          string  `json:"id"`
	Symbol      string  `json:"symbol"`
	Direction   string  `json:"direction"`
	Size        string  `json:"size"`
	Leverage    int     `json:"leverage"`
	Margin      string  `json:"margin"`
	EntryPrice  string  `json:"entry_price"`
	MarkPrice   string  `json:"mark_price"`
	PnL         string  `json:"pnl"`
	PnLPercent  float64 `json:"pnl_percent"`
	StopLoss    *string `json:"stop_loss,omitempty"`
	TakeProfit  *string `json:"take_profit,omitempty"`
	Status      string  `json:"status"`
	CloseReason *string `json:"close_reason,omitempty"`
	ExitPrice   *string `json:"exit_price,omitempty"`
	RealizedPnL *string `json:"realized_pnl,omitempty"`
	OpenedAt    string  `json:"opened_at"`
	ClosedAt    *string `json:"closed_at,omitempty"`
}

// NewPositionOutput converts a domain position to its API shape.
func NewPositionOutput(p *domain.Position) PositionOutput {
	out := PositionOutput{
		ID:          p.ID.String(),
		Symbol:      p.Symbol,
		Direction:   p.Direction,
		Size:        p.Size.String(),
		Leverage:    p.Leverage,
		Margin:      p.Margin.String(),
		EntryPrice:  p.EntryPrice.String(),
		MarkPrice:   p.MarkPrice.String(),
		Status:      p.Status,
		CloseReason: p.CloseReason,
		OpenedAt:    p.OpenedAt.Format(time.RFC3339),
	}

	if p.IsOpen() {
		out.PnL = p.UnrealizedPnL(p.MarkPrice).StringFixed(2)
		out.PnLPercent, _ = p.PnLPercent(p.MarkPrice).Round(2).Float64()
	} else if p.RealizedPnL != nil {
		out.PnL = p.RealizedPnL.StringFixed(2)
		if !p.Margin.IsZero() {
			out.PnLPercent, _ = p.RealizedPnL.Div(p.Margin).Mul(decimal.NewFromInt(100)).Round(2).Float64()
		}
	}

	if p.StopLoss != nil {
		s := p.StopLoss.String()
		out.StopLoss = &s
	}
	if p.TakeProfit != nil {
		s := p.TakeProfit.String()
		out.TakeProfit = &s
	}
	if p.ExitPrice != nil {
		s := p.ExitPrice.String()
		out.ExitPrice = &s
	}
	if p.RealizedPnL != nil {
		s := p.RealizedPnL.StringFixed(2)
		out.RealizedPnL = &s
	}
	if p.ClosedAt != nil {
		s := p.ClosedAt.Format(time.RFC3339)
		out.ClosedAt = &s
	}

	return out
}

// NewPositionOutputs converts a slice of domain positions.
func NewPositionOutputs(positions []*domain.Position) []PositionOutput {
	out := make([]PositionOutput, 0, len(positions))
	for _, p := range positions {
		out = append(out, NewPositionOutput(p))
	}
	return out
}
