package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"ardentia/internal/domain"
	"ardentia/internal/usecase"
)

// RiskMonitor evaluates every open position on a symbol whenever a tick
// arrives. At most one trigger fires per position per tick; liquidation
// wins over stop-loss, stop-loss over take-profit. A fired trigger hands
// the position to the settlement engine exactly once; a trigger racing a
// manual close resolves through the engine's compare-and-set and is a
// no-op here, not an error.
type RiskMonitor struct {
	positions domain.PositionRepository
	trading   *usecase.TradingService
	publisher domain.EventPublisher
	log       zerolog.Logger
}

// NewRiskMonitor creates a new RiskMonitor
func NewRiskMonitor(
	positions domain.PositionRepository,
	trading *usecase.TradingService,
	publisher domain.EventPublisher,
	log zerolog.Logger,
) *RiskMonitor {
	return &RiskMonitor{
		positions: positions,
		trading:   trading,
		publisher: publisher,
		log:       log.With().Str("component", "risk_monitor").Logger(),
	}
}

// HandleTick applies a price tick to every open position on the symbol:
// the stored mark price is refreshed, then each position's triggers are
// evaluated at the new price. Re-applying the same tick yields the same
// mark price and no further closes, so at-least-once tick delivery is safe.
func (m *RiskMonitor) HandleTick(ctx context.Context, tick domain.Tick) error {
	if err := m.positions.UpdateMark(ctx, tick.Symbol, tick.Price); err != nil {
		return fmt.Errorf("failed to update mark prices for %s: %w", tick.Symbol, err)
	}

	open, err := m.positions.GetOpenBySymbol(ctx, tick.Symbol)
	if err != nil {
		return fmt.Errorf("failed to load open positions for %s: %w", tick.Symbol, err)
	}

	threshold := m.trading.LiquidationThreshold()

	for _, position := range open {
		reason, fired := position.EvaluateTriggers(tick.Price, threshold)
		if !fired {
			position.MarkPrice = tick.Price
			m.publisher.PublishPosition(position.OwnerID, domain.PositionEvent{
				Type:     domain.EventPositionUpdated,
				Position: position,
			})
			continue
		}

		m.log.Info().
			Str("position_id", position.ID.String()).
			Str("symbol", tick.Symbol).
			Str("reason", reason).
			Str("mark_price", tick.Price.String()).
			Str("pnl_percent", position.PnLPercent(tick.Price).StringFixed(2)).
			Msg("risk trigger fired")

		if err := m.trading.CloseTriggered(ctx, position.ID, tick.Price, reason); err != nil {
			m.log.Error().
				Err(err).
				Str("position_id", position.ID.String()).
				Msg("failed to settle triggered close")
		}
	}

	return nil
}
