package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"ardentia/configs"
	"ardentia/internal/adapter/discord"
	"ardentia/internal/database"
	delivery "ardentia/internal/delivery/http"
	"ardentia/internal/domain"
	"ardentia/internal/infra"
	"ardentia/internal/repository"
	"ardentia/internal/service"
	"ardentia/internal/usecase"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found, using environment variables")
	}

	cfg := configs.Load()
	log := newLogger(cfg.Server.Env)

	ctx := context.Background()

	db, err := infra.NewDatabase(ctx, cfg.Database.URL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := database.RunMigrations(ctx, db, log); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	positionRepo := repository.NewPositionRepository(db)
	coinRepo := repository.NewCoinRepository(db)
	depositRepo := repository.NewDepositRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	seedCoins(ctx, coinRepo, log)
	ensureAdminUser(ctx, userRepo, cfg, log)

	// Core services
	hub := service.NewHub(log)
	notifier := discord.NewNotifier(cfg.Discord.WebhookURL)

	trading := usecase.NewTradingService(
		positionRepo,
		coinRepo,
		settingsRepo,
		hub,
		cfg.Trading.LiquidationThreshold,
		cfg.Trading.LiquidationResidual,
		log,
	)
	monitor := service.NewRiskMonitor(positionRepo, trading, hub, log)
	feed := service.NewPriceFeed(coinRepo, settingsRepo, monitor, hub, log)
	deposits := service.NewDepositService(depositRepo, userRepo, notifier, log)

	// Price feed scheduler
	scheduler := infra.NewScheduler(feed, settingsRepo, cfg.Trading.TickIntervalSeconds, log)
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}
	defer scheduler.Stop()

	// Public API
	e := delivery.NewRouter(delivery.Handlers{
		Auth:   delivery.NewAuthHandler(userRepo, cfg.Trading.StartingBalance, log),
		User:   delivery.NewUserHandler(userRepo, trading, deposits),
		Market: delivery.NewMarketHandler(coinRepo),
		Admin:  delivery.NewAdminHandler(settingsRepo, userRepo, positionRepo, depositRepo, deposits, feed, log),
		WS:     delivery.NewWSHandler(hub, log),
	})

	// Internal ops server on its own port
	opsSrv := infra.NewOpsServer(cfg.Server.OpsPort, db, scheduler, log)
	go func() {
		log.Info().Str("port", cfg.Server.OpsPort).Msg("ops server starting")
		if err := opsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ops server failed")
		}
	}()

	go func() {
		log.Info().
			Str("port", cfg.Server.Port).
			Str("env", cfg.Server.Env).
			Float64("starting_balance", cfg.Trading.StartingBalance).
			Int("tick_interval_seconds", cfg.Trading.TickIntervalSeconds).
			Msg("Ardentia Exchange starting")
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("api server forced to shutdown")
	}
	if err := opsSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("ops server forced to shutdown")
	}

	log.Info().Msg("server exited gracefully")
}

func newLogger(env string) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
			Level(zerolog.DebugLevel).
			With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).
		Level(zerolog.InfoLevel).
		With().Timestamp().Logger()
}

// seedCoins inserts the community coin catalog on first boot. Seed is a
// no-op for coins that already exist, so restarts never reset prices.
func seedCoins(ctx context.Context, coins domain.CoinRepository, log zerolog.Logger) {
	now := time.Now()
	catalog := []*domain.Coin{
		newCoin("agc", "AGC", "Ardentia Gold Coin", domain.RarityLegendary, 1000, now),
		newCoin("adc", "ADC", "Ardentia Diamond Coin", domain.RarityEpic, 2500, now),
		newCoin("aec", "AEC", "Ardentia Emerald Coin", domain.RarityRare, 1500, now),
		newCoin("aic", "AIC", "Ardentia Iron Coin", domain.RarityCommon, 500, now),
		newCoin("arc", "ARC", "Ardentia Redstone Coin", domain.RarityRare, 750, now),
	}

	if err := coins.Seed(ctx, catalog); err != nil {
		log.Fatal().Err(err).Msg("failed to seed coin catalog")
	}
	log.Info().Int("coins", len(catalog)).Msg("coin catalog ready")
}

func newCoin(id, symbol, name, rarity string, price int64, now time.Time) *domain.Coin {
	p := decimal.NewFromInt(price)
	return &domain.Coin{
		ID:              id,
		Symbol:          symbol,
		Name:            name,
		Rarity:          rarity,
		Price:           p,
		Open24h:         p,
		WindowStartedAt: now,
		High24h:         p,
		Low24h:          p,
		LastTickAt:      now,
		UpdatedAt:       now,
	}
}

// ensureAdminUser creates the admin account on first boot using
// ADMIN_USERNAME / ADMIN_PASSWORD, defaulting to admin/admin for local
// development.
func ensureAdminUser(ctx context.Context, users domain.UserRepository, cfg *configs.Config, log zerolog.Logger) {
	username := os.Getenv("ADMIN_USERNAME")
	if username == "" {
		username = "admin"
	}

	if _, err := users.GetByUsername(ctx, username); err == nil {
		return
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "admin"
		log.Warn().Msg("ADMIN_PASSWORD not set, using default admin password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to hash admin password")
	}

	admin := &domain.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
		Rank:         "Owner",
		Balance:      decimal.NewFromFloat(cfg.Trading.StartingBalance),
		CreatedAt:    time.Now(),
	}

	if err := users.Create(ctx, admin); err != nil {
		log.Warn().Err(err).Msg("failed to create admin user")
		return
	}
	log.Info().Str("username", username).Msg("admin user created")
}
