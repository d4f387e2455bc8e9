package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"ardentia/internal/delivery/http/dto"
	"ardentia/internal/domain"
	"ardentia/internal/middleware"
)

// AuthHandler handles registration, login and logout.
type AuthHandler struct {
	users           domain.UserRepository
	startingBalance decimal.Decimal
	log             zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler. startingBalance is credited to
// every new player account.
func NewAuthHandler(users domain.UserRepository, startingBalance float64, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		users:           users,
		startingBalance: decimal.NewFromFloat(startingBalance),
		log:             log.With().Str("component", "auth").Logger(),
	}
}

// Register creates a new player account with the starting balance.
func (h *AuthHandler) Register(c echo.Context) error {
	var req dto.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request body")
	}
	if req.Username == "" || len(req.Password) < 6 {
		return BadRequestResponse(c, "Username is required and password must be at least 6 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to hash password", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Username:     req.Username,
		PasswordHash: string(hash),
		Role:         domain.RolePlayer,
		Rank:         domain.DefaultRank,
		Balance:      h.startingBalance,
		CreatedAt:    time.Now(),
	}

	if err := h.users.Create(c.Request().Context(), user); err != nil {
		return DomainErrorResponse(c, err)
	}

	h.log.Info().Str("user_id", user.ID.String()).Str("username", user.Username).Msg("user registered")

	token, err := middleware.GenerateJWT(user.ID, user.Role)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to generate token", err)
	}
	h.setTokenCookie(c, token)

	return CreatedResponse(c, dto.LoginResponse{
		Token: token,
		User:  newUserOutput(user),
	})
}

// Login authenticates a user and issues a JWT.
func (h *AuthHandler) Login(c echo.Context) error {
	var req dto.LoginRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request body")
	}

	user, err := h.users.GetByUsername(c.Request().Context(), req.Username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return UnauthorizedResponse(c, "Invalid username or password")
		}
		return DomainErrorResponse(c, err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return UnauthorizedResponse(c, "Invalid username or password")
	}

	if err := h.users.UpdateLastLogin(c.Request().Context(), user.ID, time.Now()); err != nil {
		h.log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("failed to record last login")
	}

	token, err := middleware.GenerateJWT(user.ID, user.Role)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to generate token", err)
	}
	h.setTokenCookie(c, token)

	h.log.Info().Str("user_id", user.ID.String()).Str("username", user.Username).Msg("user logged in")

	return SuccessResponse(c, dto.LoginResponse{
		Token: token,
		User:  newUserOutput(user),
	})
}

// Logout clears the auth cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	return SuccessResponse(c, map[string]string{"message": "Logged out"})
}

func (h *AuthHandler) setTokenCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		MaxAge:   int((24 * time.Hour).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func newUserOutput(user *domain.User) *dto.UserOutput {
	return &dto.UserOutput{
		ID:       user.ID.String(),
		Username: user.Username,
		Role:     user.Role,
		Rank:     user.Rank,
		Balance:  user.Balance.StringFixed(2),
	}
}
