package http

import (
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"ardentia/internal/delivery/http/dto"
	"ardentia/internal/domain"
	"ardentia/internal/middleware"
	"ardentia/internal/service"
	"ardentia/internal/usecase"
)

// defaultHistoryLimit caps the closed position history page size.
const defaultHistoryLimit = 50

// UserHandler handles the authenticated player surface: profile, positions
// and deposit requests.
type UserHandler struct {
	users    domain.UserRepository
	trading  *usecase.TradingService
	deposits *service.DepositService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users domain.UserRepository, trading *usecase.TradingService, deposits *service.DepositService) *UserHandler {
	return &UserHandler{
		users:    users,
		trading:  trading,
		deposits: deposits,
	}
}

// GetMe returns the authenticated user's profile with the live balance.
func (h *UserHandler) GetMe(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Invalid session")
	}

	user, err := h.users.GetByID(c.Request().Context(), userID)
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return SuccessResponse(c, newUserOutput(user))
}

// OpenPosition opens a leveraged position for the authenticated user.
func (h *UserHandler) OpenPosition(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Invalid session")
	}

	var req dto.OpenPositionRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request body")
	}
	if req.Symbol == "" {
		return BadRequestResponse(c, "Symbol is required")
	}

	in := usecase.OpenPositionInput{
		OwnerID:   userID,
		Symbol:    req.Symbol,
		Direction: req.Direction,
		Size:      decimal.NewFromFloat(req.Size),
		Leverage:  req.Leverage,
	}
	if req.StopLoss != nil {
		sl := decimal.NewFromFloat(*req.StopLoss)
		in.StopLoss = &sl
	}
	if req.TakeProfit != nil {
		tp := decimal.NewFromFloat(*req.TakeProfit)
		in.TakeProfit = &tp
	}

	position, err := h.trading.OpenPosition(c.Request().Context(), in)
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return CreatedResponse(c, dto.NewPositionOutput(position))
}

// GetOpenPositions lists the user's open positions with live PnL.
func (h *UserHandler) GetOpenPositions(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Invalid session")
	}

	positions, err := h.trading.OpenPositions(c.Request().Context(), userID)
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return SuccessResponse(c, dto.NewPositionOutputs(positions))
}

// GetPositionHistory lists the user's closed positions, newest first.
func (h *UserHandler) GetPositionHistory(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Invalid session")
	}

	limit := defaultHistoryLimit
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	positions, err := h.trading.PositionHistory(c.Request().Context(), userID, limit)
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return SuccessResponse(c, dto.NewPositionOutputs(positions))
}

// ClosePosition settles one of the user's open positions at the current
// price. Admins may close any position.
func (h *UserHandler) ClosePosition(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Invalid session")
	}
	role, _ := middleware.GetUserRole(c)

	positionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return BadRequestResponse(c, "Invalid position ID")
	}

	position, err := h.trading.ClosePosition(c.Request().Context(), positionID, userID, role == domain.RoleAdmin)
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return SuccessResponse(c, dto.NewPositionOutput(position))
}

// CreateDeposit files a new deposit request.
func (h *UserHandler) CreateDeposit(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Invalid session")
	}

	var req dto.CreateDepositRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request body")
	}

	deposit, err := h.deposits.CreateRequest(c.Request().Context(), userID, decimal.NewFromFloat(req.Amount), req.Method, req.Proof)
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return CreatedResponse(c, dto.NewDepositOutput(deposit))
}

// GetDeposits lists the user's deposit requests.
func (h *UserHandler) GetDeposits(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Invalid session")
	}

	deposits, err := h.deposits.UserDeposits(c.Request().Context(), userID)
	if err != nil {
		return DomainErrorResponse(c, err)
	}

	return SuccessResponse(c, dto.NewDepositOutputs(deposits))
}
