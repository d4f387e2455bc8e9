package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"ardentia/internal/domain"
)

// maxStepPct bounds each simulated move to ±1% of the current price,
// matching the dashboard's gentle random walk.
const maxStepPct = 0.01

// PriceFeed generates the synthetic market: on every pass each coin takes a
// small random-walk step, a candle is recorded, and the resulting tick is
// pushed through the risk monitor. Admin price moves enter through the same
// ApplyTick path so manual and simulated ticks are indistinguishable
// downstream.
type PriceFeed struct {
	coins     domain.CoinRepository
	settings  domain.SettingsRepository
	monitor   *RiskMonitor
	publisher domain.EventPublisher
	log       zerolog.Logger

	// rand.Rand is not safe for concurrent use; admin price moves and
	// overlapping scheduler passes reach the feed from separate goroutines.
	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewPriceFeed creates a new PriceFeed
func NewPriceFeed(
	coins domain.CoinRepository,
	settings domain.SettingsRepository,
	monitor *RiskMonitor,
	publisher domain.EventPublisher,
	log zerolog.Logger,
) *PriceFeed {
	return &PriceFeed{
		coins:     coins,
		settings:  settings,
		monitor:   monitor,
		publisher: publisher,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		log:       log.With().Str("component", "price_feed").Logger(),
	}
}

// Advance performs one simulation pass over the coin catalog. Skips cleanly
// while the exchange is in maintenance mode.
func (f *PriceFeed) Advance(ctx context.Context) error {
	settings, err := f.settings.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to load trading settings: %w", err)
	}
	if settings.MaintenanceMode {
		f.log.Debug().Msg("maintenance mode, skipping tick")
		return nil
	}

	coins, err := f.coins.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load coins: %w", err)
	}

	now := time.Now()
	for _, coin := range coins {
		newPrice := f.step(coin.Price)
		tick := domain.Tick{
			CoinID:    coin.ID,
			Symbol:    coin.Symbol,
			Price:     newPrice,
			Timestamp: now,
		}
		if err := f.ApplyTick(ctx, coin, tick); err != nil {
			f.log.Error().Err(err).Str("coin", coin.Symbol).Msg("failed to apply tick")
		}
	}

	return nil
}

// ApplyTick pushes one tick through the pipeline: coin state, candle, risk
// monitor, subscribers. A tick not newer than the coin's watermark is a
// duplicate delivery and is dropped before it reaches the monitor: the
// state it would produce is already in place.
func (f *PriceFeed) ApplyTick(ctx context.Context, coin *domain.Coin, tick domain.Tick) error {
	applied, err := f.coins.ApplyTick(ctx, tick)
	if err != nil {
		return err
	}
	if !applied {
		f.log.Debug().
			Str("coin", coin.Symbol).
			Time("tick_at", tick.Timestamp).
			Msg("stale or duplicate tick, skipping")
		return nil
	}

	candle := f.buildCandle(coin, tick)
	if err := f.coins.AppendCandle(ctx, candle); err != nil {
		// Chart data is cosmetic; the tick itself already committed.
		f.log.Warn().Err(err).Str("coin", coin.Symbol).Msg("failed to record candle")
	}

	if err := f.monitor.HandleTick(ctx, tick); err != nil {
		return fmt.Errorf("failed to evaluate positions: %w", err)
	}

	f.publisher.PublishPrice(domain.PriceEvent{
		CoinID:    tick.CoinID,
		Symbol:    tick.Symbol,
		Price:     tick.Price,
		Timestamp: tick.Timestamp,
	})

	return nil
}

func (f *PriceFeed) randFloat() float64 {
	f.rngMu.Lock()
	defer f.rngMu.Unlock()
	return f.rng.Float64()
}

// step takes one bounded random-walk step from the given price, never
// dropping below the coin price floor.
func (f *PriceFeed) step(price decimal.Decimal) decimal.Decimal {
	// Uniform in [-maxStepPct, +maxStepPct].
	pct := (f.randFloat()*2 - 1) * maxStepPct
	factor := decimal.NewFromFloat(1 + pct)

	next := price.Mul(factor).Round(2)
	if next.LessThan(domain.MinCoinPrice) {
		next = domain.MinCoinPrice
	}
	return next
}

func (f *PriceFeed) buildCandle(coin *domain.Coin, tick domain.Tick) *domain.Candle {
	open := coin.Price
	high := decimal.Max(open, tick.Price)
	low := decimal.Min(open, tick.Price)

	return &domain.Candle{
		CoinID:   coin.ID,
		OpenedAt: tick.Timestamp,
		Open:     open,
		High:     high,
		Low:      low,
		Close:    tick.Price,
		Volume:   decimal.NewFromFloat(f.randFloat() * 10000).Round(2),
	}
}

// SetPrice applies an admin-initiated price move for the coin. It flows
// through the exact same tick path as the simulator, so mark prices,
// triggers and subscriber events all behave identically.
func (f *PriceFeed) SetPrice(ctx context.Context, coinID string, price decimal.Decimal) (*domain.Coin, error) {
	if !price.IsPositive() || price.LessThan(domain.MinCoinPrice) {
		return nil, domain.ErrInvalidAmount
	}

	coin, err := f.coins.GetByID(ctx, coinID)
	if err != nil {
		return nil, err
	}

	tick := domain.Tick{
		CoinID:    coin.ID,
		Symbol:    coin.Symbol,
		Price:     price,
		Timestamp: time.Now(),
	}
	if err := f.ApplyTick(ctx, coin, tick); err != nil {
		return nil, err
	}

	f.log.Info().
		Str("coin", coin.Symbol).
		Str("old_price", coin.Price.String()).
		Str("new_price", price.String()).
		Msg("admin price move applied")

	return f.coins.GetByID(ctx, coinID)
}
