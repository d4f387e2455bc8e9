package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Coin represents a tradable Ardentia community coin. Prices are in AC and
// never drop below MinCoinPrice. LastTickAt is the idempotency watermark for
// the price feed: a tick at or before it re-applies the same price and is
// safe to replay.
type Coin struct {
	ID     string          `json:"id"`
	Symbol string          `json:"symbol"`
	Name   string          `json:"name"`
	Rarity string          `json:"rarity"`
	Price  decimal.Decimal `json:"current_price"`

	// Open24h anchors the rolling daily stats: change/high/low are measured
	// against it, and the window (and Open24h itself) resets once
	// WindowStartedAt is more than 24 hours old.
	Open24h         decimal.Decimal `json:"open_24h"`
	WindowStartedAt time.Time       `json:"window_started_at"`
	Change24h       decimal.Decimal `json:"price_change_24h"`
	ChangePct       float64         `json:"price_change_percentage_24h"`
	High24h         decimal.Decimal `json:"high_24h"`
	Low24h          decimal.Decimal `json:"low_24h"`
	Volume24h       decimal.Decimal `json:"volume_24h"`

	LastTickAt time.Time `json:"last_tick_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Coin rarity constants
const (
	RarityCommon    = "common"
	RarityRare      = "rare"
	RarityEpic      = "epic"
	RarityLegendary = "legendary"
)

// MinCoinPrice is the floor price for every coin, in AC.
var MinCoinPrice = decimal.NewFromInt(1)

// Candle is one OHLC bar of chart data for a coin.
type Candle struct {
	CoinID   string          `json:"coin_id"`
	OpenedAt time.Time       `json:"timestamp"`
	Open     decimal.Decimal `json:"open"`
	High     decimal.Decimal `json:"high"`
	Low      decimal.Decimal `json:"low"`
	Close    decimal.Decimal `json:"close"`
	Volume   decimal.Decimal `json:"volume"`
}

// CandleHistory is the number of recent candles retained per coin.
const CandleHistory = 50

// Tick is one observation from the price feed: a new price for a symbol at a
// point in time. Delivery is at-least-once; consumers must treat duplicate
// ticks for the same timestamp as a no-op re-application.
type Tick struct {
	CoinID    string
	Symbol    string
	Price     decimal.Decimal
	Timestamp time.Time
}
