package configs

import (
	"os"
	"strconv"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Discord  DiscordConfig
	Trading  TradingConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port    string
	OpsPort string
	Env     string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// DiscordConfig holds the deposit webhook configuration
type DiscordConfig struct {
	WebhookURL string
}

// TradingConfig holds the exchange-wide trading knobs.
// Monetary values are in Ardentia Coins (AC).
type TradingConfig struct {
	StartingBalance      float64
	MinTradeAmount       float64
	MaxTradeAmount       float64
	MaxLeverage          int
	LiquidationThreshold float64 // unrealized PnL percent at which a position is force-closed
	LiquidationResidual  float64 // fraction of margin returned on liquidation
	TickIntervalSeconds  int
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:    getEnv("PORT", "8080"),
			OpsPort: getEnv("OPS_PORT", "8081"),
			Env:     getEnv("GO_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Discord: DiscordConfig{
			WebhookURL: getEnv("DISCORD_WEBHOOK_URL", ""),
		},
		Trading: TradingConfig{
			StartingBalance:      getEnvFloat("STARTING_BALANCE", 50000),
			MinTradeAmount:       getEnvFloat("MIN_TRADE_AMOUNT", 100),
			MaxTradeAmount:       getEnvFloat("MAX_TRADE_AMOUNT", 1000000),
			MaxLeverage:          getEnvInt("MAX_LEVERAGE", 10),
			LiquidationThreshold: getEnvFloat("LIQUIDATION_THRESHOLD", -95),
			LiquidationResidual:  getEnvFloat("LIQUIDATION_RESIDUAL", 0.05),
			TickIntervalSeconds:  getEnvInt("TICK_INTERVAL_SECONDS", 10),
		},
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
