package http

import (
	"github.com/labstack/echo/v4"

	"ardentia/internal/delivery/http/dto"
	"ardentia/internal/domain"
)

// MarketHandler serves the public market data: the coin catalog and chart
// candles.
type MarketHandler struct {
	coins domain.CoinRepository
}

// NewMarketHandler creates a new MarketHandler
func NewMarketHandler(coins domain.CoinRepository) *MarketHandler {
	return &MarketHandler{coins: coins}
}

// GetCoins lists all coins with their current prices.
func (h *MarketHandler) GetCoins(c echo.Context) error {
	coins, err := h.coins.GetAll(c.Request().Context())
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	out := make([]dto.CoinOutput, 0, len(coins))
	for _, coin := range coins {
		out = append(out, dto.NewCoinOutput(coin))
	}
	return SuccessResponse(c, out)
}

// GetCoin returns a single coin by ID.
func (h *MarketHandler) GetCoin(c echo.Context) error {
	coin, err := h.coins.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return DomainErrorResponse(c, err)
	}
	return SuccessResponse(c, dto.NewCoinOutput(coin))
}

// GetCandles returns the recent candles for a coin, oldest first.
func (h *MarketHandler) GetCandles(c echo.Context) error {
	candles, err := h.coins.GetCandles(c.Request().Context(), c.Param("id"), domain.CandleHistory)
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	out := make([]dto.CandleOutput, 0, len(candles))
	for _, candle := range candles {
		out = append(out, dto.NewCandleOutput(candle))
	}
	return SuccessResponse(c, out)
}
