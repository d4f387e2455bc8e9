package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ardentia/internal/domain"
	"ardentia/internal/usecase"
)

type feedFixture struct {
	feed      *PriceFeed
	coins     *memCoinRepo
	positions *memPositionRepo
	settings  *memSettingsRepo
	publisher *recordingPublisher
}

func newFeedFixture(t *testing.T, coins ...*domain.Coin) *feedFixture {
	t.Helper()

	coinRepo := newMemCoinRepo(coins...)
	positions := newMemPositionRepo()
	settings := &memSettingsRepo{settings: domain.DefaultTradingSettings()}
	publisher := &recordingPublisher{}

	trading := usecase.NewTradingService(positions, coinRepo, settings, publisher, -95, 0.05, zerolog.Nop())
	monitor := NewRiskMonitor(positions, trading, publisher, zerolog.Nop())
	feed := NewPriceFeed(coinRepo, settings, monitor, publisher, zerolog.Nop())

	return &feedFixture{
		feed:      feed,
		coins:     coinRepo,
		positions: positions,
		settings:  settings,
		publisher: publisher,
	}
}

func testCoin(price int64) *domain.Coin {
	p := decimal.NewFromInt(price)
	anchored := time.Now().Add(-time.Minute)
	return &domain.Coin{
		ID:              "agc",
		Symbol:          "AGC",
		Price:           p,
		Open24h:         p,
		WindowStartedAt: anchored,
		High24h:         p,
		Low24h:          p,
		LastTickAt:      anchored,
	}
}

func TestAdvanceMovesEveryCoin(t *testing.T) {
	f := newFeedFixture(t, testCoin(1000))
	before, err := f.coins.GetBySymbol(context.Background(), "AGC")
	require.NoError(t, err)

	require.NoError(t, f.feed.Advance(context.Background()))

	after, err := f.coins.GetBySymbol(context.Background(), "AGC")
	require.NoError(t, err)
	assert.True(t, after.LastTickAt.After(before.LastTickAt), "watermark advances on every pass")

	// Bounded walk: the step stays within ±1% of the previous price.
	low := before.Price.Mul(decimal.NewFromFloat(0.99))
	high := before.Price.Mul(decimal.NewFromFloat(1.01))
	assert.True(t, after.Price.GreaterThanOrEqual(low.Sub(decimal.NewFromFloat(0.01))), "price %s below walk floor %s", after.Price, low)
	assert.True(t, after.Price.LessThanOrEqual(high.Add(decimal.NewFromFloat(0.01))), "price %s above walk ceiling %s", after.Price, high)

	assert.NotEmpty(t, f.publisher.priceEvents(), "applied ticks are published")
}

func TestAdvancePriceFloor(t *testing.T) {
	f := newFeedFixture(t, testCoin(1))

	for i := 0; i < 20; i++ {
		require.NoError(t, f.feed.Advance(context.Background()))
	}

	coin, err := f.coins.GetBySymbol(context.Background(), "AGC")
	require.NoError(t, err)
	assert.True(t, coin.Price.GreaterThanOrEqual(domain.MinCoinPrice), "price %s fell below the floor", coin.Price)
}

func TestAdvanceSkipsInMaintenance(t *testing.T) {
	f := newFeedFixture(t, testCoin(1000))
	f.settings.settings.MaintenanceMode = true

	before, err := f.coins.GetBySymbol(context.Background(), "AGC")
	require.NoError(t, err)

	require.NoError(t, f.feed.Advance(context.Background()))

	after, err := f.coins.GetBySymbol(context.Background(), "AGC")
	require.NoError(t, err)
	assert.True(t, after.Price.Equal(before.Price))
	assert.Empty(t, f.publisher.priceEvents())
}

func TestApplyTickDropsDuplicates(t *testing.T) {
	f := newFeedFixture(t, testCoin(1000))
	ctx := context.Background()

	coin, err := f.coins.GetBySymbol(ctx, "AGC")
	require.NoError(t, err)

	tick := domain.Tick{
		CoinID:    coin.ID,
		Symbol:    coin.Symbol,
		Price:     decimal.NewFromInt(1010),
		Timestamp: time.Now(),
	}

	require.NoError(t, f.feed.ApplyTick(ctx, coin, tick))
	require.NoError(t, f.feed.ApplyTick(ctx, coin, tick))

	assert.Len(t, f.publisher.priceEvents(), 1, "the duplicate tick must not be re-published")

	candles, err := f.coins.GetCandles(ctx, coin.ID, domain.CandleHistory)
	require.NoError(t, err)
	assert.Len(t, candles, 1, "the duplicate tick must not record a second candle")
}

func TestApplyTickRecordsCandle(t *testing.T) {
	f := newFeedFixture(t, testCoin(1000))
	ctx := context.Background()

	coin, err := f.coins.GetBySymbol(ctx, "AGC")
	require.NoError(t, err)

	tick := domain.Tick{CoinID: coin.ID, Symbol: coin.Symbol, Price: decimal.NewFromInt(990), Timestamp: time.Now()}
	require.NoError(t, f.feed.ApplyTick(ctx, coin, tick))

	candles, err := f.coins.GetCandles(ctx, coin.ID, domain.CandleHistory)
	require.NoError(t, err)
	require.Len(t, candles, 1)

	candle := candles[0]
	assert.True(t, candle.Open.Equal(decimal.NewFromInt(1000)))
	assert.True(t, candle.Close.Equal(decimal.NewFromInt(990)))
	assert.True(t, candle.High.Equal(decimal.NewFromInt(1000)))
	assert.True(t, candle.Low.Equal(decimal.NewFromInt(990)))
}

func TestDailyStatsWindowRollsOff(t *testing.T) {
	f := newFeedFixture(t, testCoin(1000))
	ctx := context.Background()

	coin, err := f.coins.GetBySymbol(ctx, "AGC")
	require.NoError(t, err)

	now := time.Now()
	tick := domain.Tick{CoinID: coin.ID, Symbol: coin.Symbol, Price: decimal.NewFromInt(1100), Timestamp: now}
	require.NoError(t, f.feed.ApplyTick(ctx, coin, tick))

	coin, err = f.coins.GetBySymbol(ctx, "AGC")
	require.NoError(t, err)
	assert.True(t, coin.Change24h.Equal(decimal.NewFromInt(100)), "change is measured against the window open")
	assert.InDelta(t, 10.0, coin.ChangePct, 0.0001)

	// A day later the window re-anchors on the pre-tick price instead of
	// stacking yesterday's move on top of today's.
	later := now.Add(25 * time.Hour)
	tick = domain.Tick{CoinID: coin.ID, Symbol: coin.Symbol, Price: decimal.NewFromInt(1122), Timestamp: later}
	require.NoError(t, f.feed.ApplyTick(ctx, coin, tick))

	coin, err = f.coins.GetBySymbol(ctx, "AGC")
	require.NoError(t, err)
	assert.True(t, coin.Open24h.Equal(decimal.NewFromInt(1100)), "the new window opens at the last price of the old one")
	assert.True(t, coin.Change24h.Equal(decimal.NewFromInt(22)), "yesterday's move is gone from the figure")
	assert.InDelta(t, 2.0, coin.ChangePct, 0.0001)
	assert.True(t, coin.High24h.Equal(decimal.NewFromInt(1122)))
	assert.True(t, coin.Low24h.Equal(decimal.NewFromInt(1100)))
	assert.Equal(t, later, coin.WindowStartedAt)
}

func TestAdvanceConcurrentWithSetPrice(t *testing.T) {
	f := newFeedFixture(t, testCoin(1000))
	ctx := context.Background()

	// Admin price moves arrive on HTTP goroutines while scheduler passes
	// run on their own; the walk must stay consistent under the race
	// detector with both paths drawing from the feed at once.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				assert.NoError(t, f.feed.Advance(ctx))
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				_, err := f.feed.SetPrice(ctx, "agc", decimal.NewFromInt(int64(900+j)))
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	coin, err := f.coins.GetBySymbol(ctx, "AGC")
	require.NoError(t, err)
	assert.True(t, coin.Price.GreaterThanOrEqual(domain.MinCoinPrice))
}

func TestSetPrice(t *testing.T) {
	f := newFeedFixture(t, testCoin(1000))
	ctx := context.Background()

	t.Run("rejects prices below the floor", func(t *testing.T) {
		_, err := f.feed.SetPrice(ctx, "agc", decimal.NewFromFloat(0.5))
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	})

	t.Run("fires triggers like a simulated tick", func(t *testing.T) {
		p := domain.NewPosition(uuid.New(), "AGC", domain.DirectionLong, decimal.NewFromInt(1000), 2, decimal.NewFromInt(1000), ptr(950), nil)
		f.positions.add(p)

		coin, err := f.feed.SetPrice(ctx, "agc", decimal.NewFromInt(940))
		require.NoError(t, err)
		assert.True(t, coin.Price.Equal(decimal.NewFromInt(940)))

		stored, err := f.positions.GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PositionClosed, stored.Status)
		require.NotNil(t, stored.CloseReason)
		assert.Equal(t, domain.CloseStopLoss, *stored.CloseReason)
	})
}
