package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"ardentia/internal/middleware"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth   *AuthHandler
	User   *UserHandler
	Market *MarketHandler
	Admin  *AdminHandler
	WS     *WSHandler
}

// NewRouter builds the public API server.
func NewRouter(h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.Logger())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: false,
	}))

	api := e.Group("/api")

	// Public
	auth := api.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/logout", h.Auth.Logout)

	market := api.Group("/market")
	market.GET("/coins", h.Market.GetCoins)
	market.GET("/coins/:id", h.Market.GetCoin)
	market.GET("/coins/:id/candles", h.Market.GetCandles)

	// Authenticated player surface
	user := api.Group("/user", middleware.AuthMiddleware)
	user.GET("/me", h.User.GetMe)
	user.GET("/positions", h.User.GetOpenPositions)
	user.POST("/positions", h.User.OpenPosition)
	user.GET("/positions/history", h.User.GetPositionHistory)
	user.POST("/positions/:id/close", h.User.ClosePosition)
	user.GET("/deposits", h.User.GetDeposits)
	user.POST("/deposits", h.User.CreateDeposit)

	e.GET("/ws", h.WS.Stream, middleware.AuthMiddleware)

	// Admin surface
	admin := api.Group("/admin", middleware.AuthMiddleware, middleware.AdminMiddleware)
	admin.GET("/settings", h.Admin.GetSettings)
	admin.PUT("/settings", h.Admin.UpdateSettings)
	admin.POST("/coins/:id/price", h.Admin.SetCoinPrice)
	admin.GET("/deposits", h.Admin.GetDeposits)
	admin.POST("/deposits/:id/approve", h.Admin.ApproveDeposit)
	admin.POST("/deposits/:id/reject", h.Admin.RejectDeposit)
	admin.GET("/users", h.Admin.GetUsers)
	admin.GET("/statistics", h.Admin.GetStatistics)

	return e
}
