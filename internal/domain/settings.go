package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradingSettings are the admin-editable exchange-wide knobs. A single row
// exists; defaults are inserted on first read.
type TradingSettings struct {
	MinTradeAmount      decimal.Decimal `json:"min_trade_amount"`
	MaxTradeAmount      decimal.Decimal `json:"max_trade_amount"`
	MaxLeverage         int             `json:"max_leverage"`
	TradingFee          decimal.Decimal `json:"trading_fee"`
	MaintenanceMode     bool            `json:"maintenance_mode"`
	PriceUpdateInterval int             `json:"price_update_interval"` // seconds
	UpdatedAt           time.Time       `json:"updated_at"`
}

// DefaultTradingSettings mirrors the defaults seeded on an empty exchange.
func DefaultTradingSettings() *TradingSettings {
	return &TradingSettings{
		MinTradeAmount:      decimal.NewFromInt(100),
		MaxTradeAmount:      decimal.NewFromInt(1000000),
		MaxLeverage:         10,
		TradingFee:          decimal.NewFromFloat(0.05),
		MaintenanceMode:     false,
		PriceUpdateInterval: 10,
		UpdatedAt:           time.Now(),
	}
}
