package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"ardentia/internal/domain"
)

// TradingService is the settlement engine: it owns the financial effect of
// opening and closing positions. Every balance mutation caused by trading
// goes through here and is applied atomically by the position repository:
// margin is debited exactly once at open, and exactly one credit happens at
// close.
type TradingService struct {
	positions domain.PositionRepository
	coins     domain.CoinRepository
	settings  domain.SettingsRepository
	publisher domain.EventPublisher

	liquidationThreshold decimal.Decimal
	liquidationResidual  decimal.Decimal

	log zerolog.Logger
}

// NewTradingService creates a new TradingService. liquidationThreshold is
// the unrealized PnL percent at which positions are force-closed (negative,
// e.g. -95); liquidationResidual is the fraction of margin returned on
// liquidation (e.g. 0.05).
func NewTradingService(
	positions domain.PositionRepository,
	coins domain.CoinRepository,
	settings domain.SettingsRepository,
	publisher domain.EventPublisher,
	liquidationThreshold float64,
	liquidationResidual float64,
	log zerolog.Logger,
) *TradingService {
	return &TradingService{
		positions:            positions,
		coins:                coins,
		settings:             settings,
		publisher:            publisher,
		liquidationThreshold: decimal.NewFromFloat(liquidationThreshold),
		liquidationResidual:  decimal.NewFromFloat(liquidationResidual),
		log:                  log.With().Str("component", "trading").Logger(),
	}
}

// LiquidationThreshold exposes the configured force-close threshold for the
// risk monitor.
func (s *TradingService) LiquidationThreshold() decimal.Decimal {
	return s.liquidationThreshold
}

// OpenPositionInput describes an open request from a player.
type OpenPositionInput struct {
	OwnerID    uuid.UUID
	Symbol     string
	Direction  string
	Size       decimal.Decimal
	Leverage   int
	StopLoss   *decimal.Decimal
	TakeProfit *decimal.Decimal
}

// OpenPosition validates the request against the trading settings and the
// owner's balance, then reserves the margin and creates the position in one
// atomic step. Entry price is the coin's current price at the time of the
// request.
func (s *TradingService) OpenPosition(ctx context.Context, in OpenPositionInput) (*domain.Position, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load trading settings: %w", err)
	}

	if settings.MaintenanceMode {
		return nil, domain.ErrMaintenanceMode
	}

	if in.Direction != domain.DirectionLong && in.Direction != domain.DirectionShort {
		return nil, domain.ErrInvalidAmount
	}
	if in.Leverage < 1 || in.Leverage > settings.MaxLeverage {
		return nil, domain.ErrInvalidAmount
	}
	if !in.Size.IsPositive() ||
		in.Size.LessThan(settings.MinTradeAmount) ||
		in.Size.GreaterThan(settings.MaxTradeAmount) {
		return nil, domain.ErrInvalidAmount
	}

	coin, err := s.coins.GetBySymbol(ctx, in.Symbol)
	if err != nil {
		return nil, err
	}
	if !coin.Price.IsPositive() {
		// A coin can never be priced at or below zero; refuse to open
		// rather than divide by a broken entry price later.
		return nil, domain.ErrInvalidAmount
	}

	position := domain.NewPosition(in.OwnerID, coin.Symbol, in.Direction, in.Size, in.Leverage, coin.Price, in.StopLoss, in.TakeProfit)

	if err := s.positions.OpenAtomic(ctx, position); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("position_id", position.ID.String()).
		Str("owner_id", position.OwnerID.String()).
		Str("symbol", position.Symbol).
		Str("direction", position.Direction).
		Str("size", position.Size.String()).
		Int("leverage", position.Leverage).
		Str("margin", position.Margin.String()).
		Str("entry_price", position.EntryPrice.String()).
		Msg("position opened")

	s.publisher.PublishPosition(position.OwnerID, domain.PositionEvent{
		Type:     domain.EventPositionOpened,
		Position: position,
	})

	return position, nil
}

// ClosePosition closes a player-initiated (manual) close at the coin's
// current price. callerID must own the position unless the caller is an
// admin; non-owners are told the position does not exist.
func (s *TradingService) ClosePosition(ctx context.Context, positionID, callerID uuid.UUID, callerIsAdmin bool) (*domain.Position, error) {
	position, err := s.positions.GetByID(ctx, positionID)
	if err != nil {
		return nil, err
	}

	if position.OwnerID != callerID && !callerIsAdmin {
		return nil, domain.ErrPositionNotFound
	}

	coin, err := s.coins.GetBySymbol(ctx, position.Symbol)
	if err != nil {
		return nil, err
	}

	return s.Close(ctx, positionID, coin.Price, domain.CloseManual)
}

// Close settles a position at the given exit price for the given reason.
// The realized PnL and credit are computed from the open-time fields, which
// are immutable, so a read raced by another close is still safe: the
// compare-and-set inside CloseAtomic guarantees exactly one winner and the
// loser gets ErrAlreadyClosed.
func (s *TradingService) Close(ctx context.Context, positionID uuid.UUID, exitPrice decimal.Decimal, reason string) (*domain.Position, error) {
	position, err := s.positions.GetByID(ctx, positionID)
	if err != nil {
		return nil, err
	}
	if !position.IsOpen() {
		return nil, domain.ErrAlreadyClosed
	}

	pnl, credit := position.CloseCredit(exitPrice, reason, s.liquidationResidual)

	closed, err := s.positions.CloseAtomic(ctx, positionID, exitPrice, pnl, credit, reason, time.Now())
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("position_id", closed.ID.String()).
		Str("owner_id", closed.OwnerID.String()).
		Str("symbol", closed.Symbol).
		Str("reason", reason).
		Str("exit_price", exitPrice.String()).
		Str("pnl", pnl.String()).
		Str("credit", credit.String()).
		Msg("position closed")

	s.publisher.PublishPosition(closed.OwnerID, domain.PositionEvent{
		Type:     domain.EventPositionClosed,
		Position: closed,
	})

	return closed, nil
}

// CloseTriggered settles a tick-triggered close (stop-loss, take-profit or
// liquidation). Losing the race against a concurrent close is not an error
// for the tick processor: the position is simply already settled.
func (s *TradingService) CloseTriggered(ctx context.Context, positionID uuid.UUID, exitPrice decimal.Decimal, reason string) error {
	_, err := s.Close(ctx, positionID, exitPrice, reason)
	if errors.Is(err, domain.ErrAlreadyClosed) {
		return nil
	}
	return err
}

// OpenPositions returns the owner's open positions.
func (s *TradingService) OpenPositions(ctx context.Context, ownerID uuid.UUID) ([]*domain.Position, error) {
	return s.positions.GetOpenByOwner(ctx, ownerID)
}

// PositionHistory returns the owner's closed positions.
func (s *TradingService) PositionHistory(ctx context.Context, ownerID uuid.UUID, limit int) ([]*domain.Position, error) {
	return s.positions.GetHistoryByOwner(ctx, ownerID, limit)
}
