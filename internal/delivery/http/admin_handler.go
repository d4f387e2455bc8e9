package http

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"ardentia/internal/delivery/http/dto"
	"ardentia/internal/domain"
	"ardentia/internal/middleware"
	"ardentia/internal/service"
)

// AdminHandler serves the admin surface: exchange settings, manual price
// moves, the deposit review queue and dashboard statistics.
type AdminHandler struct {
	settings  domain.SettingsRepository
	users     domain.UserRepository
	positions domain.PositionRepository
	depRepo   domain.DepositRepository
	deposits  *service.DepositService
	feed      *service.PriceFeed
	log       zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(
	settings domain.SettingsRepository,
	users domain.UserRepository,
	positions domain.PositionRepository,
	depRepo domain.DepositRepository,
	deposits *service.DepositService,
	feed *service.PriceFeed,
	log zerolog.Logger,
) *AdminHandler {
	return &AdminHandler{
		settings:  settings,
		users:     users,
		positions: positions,
		depRepo:   depRepo,
		deposits:  deposits,
		feed:      feed,
		log:       log.With().Str("component", "admin").Logger(),
	}
}

// GetSettings returns the current trading settings.
func (h *AdminHandler) GetSettings(c echo.Context) error {
	settings, err := h.settings.Get(c.Request().Context())
	if err != nil {
		return DomainErrorResponse(c, err)
	}
	return SuccessResponse(c, dto.NewSettingsOutput(settings))
}

// UpdateSettings replaces the trading settings.
func (h *AdminHandler) UpdateSettings(c echo.Context) error {
	var req dto.SettingsInput
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request body")
	}
	if req.MinTradeAmount <= 0 || req.MaxTradeAmount <= 0 || req.MinTradeAmount > req.MaxTradeAmount {
		return BadRequestResponse(c, "Trade amount bounds must be positive and min <= max")
	}
	if req.MaxLeverage < 1 {
		return BadRequestResponse(c, "Max leverage must be at least 1")
	}
	if req.PriceUpdateInterval < 1 {
		return BadRequestResponse(c, "Price update interval must be at least 1 second")
	}

	settings := &domain.TradingSettings{
		MinTradeAmount:      decimal.NewFromFloat(req.MinTradeAmount),
		MaxTradeAmount:      decimal.NewFromFloat(req.MaxTradeAmount),
		MaxLeverage:         req.MaxLeverage,
		TradingFee:          decimal.NewFromFloat(req.TradingFee),
		MaintenanceMode:     req.MaintenanceMode,
		PriceUpdateInterval: req.PriceUpdateInterval,
		UpdatedAt:           time.Now(),
	}

	if err := h.settings.Update(c.Request().Context(), settings); err != nil {
		return DomainErrorResponse(c, err)
	}

	h.log.Info().Bool("maintenance_mode", settings.MaintenanceMode).Msg("trading settings updated")

	return SuccessResponse(c, dto.NewSettingsOutput(settings))
}

// SetCoinPrice applies a manual price move. The move flows through the same
// tick path as the simulator, so stop-loss, take-profit and liquidation
// triggers all fire exactly as they would for a simulated tick.
func (h *AdminHandler) SetCoinPrice(c echo.Context) error {
	var req dto.SetPriceRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request body")
	}

	coin, err := h.feed.SetPrice(c.Request().Context(), c.Param("id"), decimal.NewFromFloat(req.Price))
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return SuccessResponse(c, dto.NewCoinOutput(coin))
}

// GetDeposits lists every deposit request for the review queue.
func (h *AdminHandler) GetDeposits(c echo.Context) error {
	deposits, err := h.deposits.AllDeposits(c.Request().Context())
	if err != nil {
		return DomainErrorResponse(c, err)
	}
	return SuccessResponse(c, dto.NewDepositOutputs(deposits))
}

// ApproveDeposit approves a pending deposit and credits the player.
func (h *AdminHandler) ApproveDeposit(c echo.Context) error {
	return h.processDeposit(c, true)
}

// RejectDeposit rejects a pending deposit.
func (h *AdminHandler) RejectDeposit(c echo.Context) error {
	return h.processDeposit(c, false)
}

func (h *AdminHandler) processDeposit(c echo.Context, approve bool) error {
	adminID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Invalid session")
	}

	depositID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return BadRequestResponse(c, "Invalid deposit ID")
	}

	var req dto.ProcessDepositRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request body")
	}

	deposit, err := h.deposits.Process(c.Request().Context(), depositID, adminID, approve, req.Notes)
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return SuccessResponse(c, dto.NewDepositOutput(deposit))
}

// GetUsers lists all accounts.
func (h *AdminHandler) GetUsers(c echo.Context) error {
	users, err := h.users.GetAll(c.Request().Context())
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	out := make([]*dto.UserOutput, 0, len(users))
	for _, user := range users {
		out = append(out, newUserOutput(user))
	}
	return SuccessResponse(c, out)
}

// GetStatistics returns the dashboard counters.
func (h *AdminHandler) GetStatistics(c echo.Context) error {
	ctx := c.Request().Context()

	totalUsers, err := h.users.Count(ctx)
	if err != nil {
		return DomainErrorResponse(c, err)
	}
	openPositions, err := h.positions.CountOpen(ctx)
	if err != nil {
		return DomainErrorResponse(c, err)
	}
	totalMargin, err := h.positions.TotalOpenMargin(ctx)
	if err != nil {
		return DomainErrorResponse(c, err)
	}
	pendingDeposits, err := h.depRepo.CountPending(ctx)
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return SuccessResponse(c, dto.StatisticsOutput{
		TotalUsers:      totalUsers,
		OpenPositions:   openPositions,
		TotalOpenMargin: totalMargin.StringFixed(2),
		PendingDeposits: pendingDeposits,
	})
}
