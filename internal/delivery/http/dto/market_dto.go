package dto

import (
	"time"

	"ardentia/internal/domain"
)

// CoinOutput represents a coin in API responses
type CoinOutput struct {
	ID        string  `json:"id"`
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	Rarity    string  `json:"rarity"`
	Price     string  `json:"current_price"`
	Change24h string  `json:"price_change_24h"`
	ChangePct float64 `json:"price_change_percentage_24h"`
	High24h   string  `json:"high_24h"`
	Low24h    string  `json:"low_24h"`
	Volume24h string  `json:"volume_24h"`
	UpdatedAt string  `json:"updated_at"`
}

// NewCoinOutput converts a domain coin to its API shape.
func NewCoinOutput(coin *domain.Coin) CoinOutput {
	return CoinOutput{
		ID:        coin.ID,
		Symbol:    coin.Symbol,
		Name:      coin.Name,
		Rarity:    coin.Rarity,
		Price:     coin.Price.String(),
		Change24h: coin.Change24h.StringFixed(2),
		ChangePct: coin.ChangePct,
		High24h:   coin.High24h.String(),
		Low24h:    coin.Low24h.String(),
		Volume24h: coin.Volume24h.StringFixed(2),
		UpdatedAt: coin.UpdatedAt.Format(time.RFC3339),
	}
}

// CandleOutput represents an OHLC candle in API responses
type CandleOutput struct {
	Timestamp int64  `json:"timestamp"`
	Open      string `json:"open"`
	High      string `json:"high"`
	Low       string `json:"low"`
	Close     string `json:"close"`
	Volume    string `json:"volume"`
}

// NewCandleOutput converts a domain candle to its API shape.
func NewCandleOutput(candle *domain.Candle) CandleOutput {
	return CandleOutput{
		Timestamp: candle.OpenedAt.UnixMilli(),
		Open:      candle.Open.String(),
		High:      candle.High.String(),
		Low:       candle.Low.String(),
		Close:     candle.Close.String(),
		Volume:    candle.Volume.StringFixed(2),
	}
}

// SetPriceRequest represents an admin manual price move
type SetPriceRequest struct {
	Price float64 `json:"price" validate:"required,gt=0"`
}

// SettingsInput represents a trading settings update payload
type SettingsInput struct {
	MinTradeAmount      float64 `json:"min_trade_amount" validate:"gt=0"`
	MaxTradeAmount      float64 `json:"max_trade_amount" validate:"gt=0"`
	MaxLeverage         int     `json:"max_leverage" validate:"gte=1"`
	TradingFee          float64 `json:"trading_fee" validate:"gte=0"`
	MaintenanceMode     bool    `json:"maintenance_mode"`
	PriceUpdateInterval int     `json:"price_update_interval" validate:"gte=1"`
}

// SettingsOutput represents trading settings in API responses
type SettingsOutput struct {
	MinTradeAmount      string `json:"min_trade_amount"`
	MaxTradeAmount      string `json:"max_trade_amount"`
	MaxLeverage         int    `json:"max_leverage"`
	TradingFee          string `json:"trading_fee"`
	MaintenanceMode     bool   `json:"maintenance_mode"`
	PriceUpdateInterval int    `json:"price_update_interval"`
	UpdatedAt           string `json:"updated_at"`
}

// NewSettingsOutput converts domain settings to their API shape.
func NewSettingsOutput(s *domain.TradingSettings) SettingsOutput {
	return SettingsOutput{
		MinTradeAmount:      s.MinTradeAmount.String(),
		MaxTradeAmount:      s.MaxTradeAmount.String(),
		MaxLeverage:         s.MaxLeverage,
		TradingFee:          s.TradingFee.String(),
		MaintenanceMode:     s.MaintenanceMode,
		PriceUpdateInterval: s.PriceUpdateInterval,
		UpdatedAt:           s.UpdatedAt.Format(time.RFC3339),
	}
}

// StatisticsOutput represents the admin dashboard counters
type StatisticsOutput struct {
	TotalUsers      int    `json:"total_users"`
	OpenPositions   int    `json:"open_positions"`
	TotalOpenMargin string `json:"total_open_margin"`
	PendingDeposits int    `json:"pending_deposits"`
}
