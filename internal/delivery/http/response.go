package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"ardentia/internal/domain"
)

// Response represents a standardized API response
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   interface{} `json:"error,omitempty"`
}

// SuccessResponse sends a success response
func SuccessResponse(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, Response{
		Status: "success",
		Data:   data,
	})
}

// CreatedResponse sends a 201 Created response
func CreatedResponse(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, Response{
		Status: "success",
		Data:   data,
	})
}

// ErrorResponse sends an error response
func ErrorResponse(c echo.Context, statusCode int, message string, err interface{}) error {
	return c.JSON(statusCode, Response{
		Status:  "error",
		Message: message,
		Error:   err,
	})
}

// BadRequestResponse sends a 400 Bad Request response
func BadRequestResponse(c echo.Context, message string) error {
	return ErrorResponse(c, http.StatusBadRequest, message, nil)
}

// UnauthorizedResponse sends a 401 Unauthorized response
func UnauthorizedResponse(c echo.Context, message string) error {
	return ErrorResponse(c, http.StatusUnauthorized, message, nil)
}

// NotFoundResponse sends a 404 Not Found response
func NotFoundResponse(c echo.Context, message string) error {
	return ErrorResponse(c, http.StatusNotFound, message, nil)
}

// ConflictResponse sends a 409 Conflict response
func ConflictResponse(c echo.Context, message string) error {
	return ErrorResponse(c, http.StatusConflict, message, nil)
}

// InternalServerErrorResponse sends a 500 Internal Server Error response
func InternalServerErrorResponse(c echo.Context, message string, err error) error {
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	return ErrorResponse(c, http.StatusInternalServerError, message, errMsg)
}

// DomainErrorResponse maps the domain error taxonomy onto HTTP statuses.
// Every settlement error is recoverable by the caller and carries a
// user-visible message.
func DomainErrorResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrInsufficientBalance):
		return BadRequestResponse(c, "Insufficient balance for margin requirement")
	case errors.Is(err, domain.ErrInvalidAmount):
		return BadRequestResponse(c, "Trade amount or leverage out of bounds")
	case errors.Is(err, domain.ErrMaintenanceMode):
		return ErrorResponse(c, http.StatusServiceUnavailable, "Trading is temporarily in maintenance mode", nil)
	case errors.Is(err, domain.ErrPositionNotFound):
		return NotFoundResponse(c, "Position not found")
	case errors.Is(err, domain.ErrAlreadyClosed):
		return ConflictResponse(c, "Position is already closed")
	case errors.Is(err, domain.ErrOwnerNotFound), errors.Is(err, domain.ErrUserNotFound):
		return NotFoundResponse(c, "User not found")
	case errors.Is(err, domain.ErrCoinNotFound):
		return NotFoundResponse(c, "Coin not found")
	case errors.Is(err, domain.ErrDepositNotFound):
		return NotFoundResponse(c, "Deposit request not found")
	case errors.Is(err, domain.ErrDepositProcessed):
		return ConflictResponse(c, "Deposit request already processed")
	case errors.Is(err, domain.ErrUsernameTaken):
		return ConflictResponse(c, "Username already taken")
	case errors.Is(err, domain.ErrStorageUnavailable):
		return ErrorResponse(c, http.StatusServiceUnavailable, "Storage temporarily unavailable, please retry", nil)
	default:
		return InternalServerErrorResponse(c, "Unexpected error", err)
	}
}
