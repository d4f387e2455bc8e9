package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ardentia/internal/domain"
)

// SettingsRepositoryImpl implements the SettingsRepository interface
type SettingsRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewSettingsRepository creates a new SettingsRepository
func NewSettingsRepository(db *pgxpool.Pool) domain.SettingsRepository {
	return &SettingsRepositoryImpl{db: db}
}

// Get retrieves the trading settings row, inserting defaults when the
// exchange has never been configured.
func (r *SettingsRepositoryImpl) Get(ctx context.Context) (*domain.TradingSettings, error) {
	query := `
		SELECT min_trade_amount, max_trade_amount, max_leverage, trading_fee,
		       maintenance_mode, price_update_interval, updated_at
		FROM trading_settings
		WHERE id = 1
	`

	s := &domain.TradingSettings{}
	err := r.db.QueryRow(ctx, query).Scan(
		&s.MinTradeAmount,
		&s.MaxTradeAmount,
		&s.MaxLeverage,
		&s.TradingFee,
		&s.MaintenanceMode,
		&s.PriceUpdateInterval,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			defaults := domain.DefaultTradingSettings()
			if err := r.Update(ctx, defaults); err != nil {
				return nil, err
			}
			return defaults, nil
		}
		return nil, fmt.Errorf("failed to get trading settings: %w: %w", domain.ErrStorageUnavailable, err)
	}

	return s, nil
}

// Update upserts the single trading settings row
func (r *SettingsRepositoryImpl) Update(ctx context.Context, settings *domain.TradingSettings) error {
	query := `
		INSERT INTO trading_settings (
			id, min_trade_amount, max_trade_amount, max_leverage, trading_fee,
			maintenance_mode, price_update_interval, updated_at
		) VALUES (1, $1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET min_trade_amount = EXCLUDED.min_trade_amount,
		    max_trade_amount = EXCLUDED.max_trade_amount,
		    max_leverage = EXCLUDED.max_leverage,
		    trading_fee = EXCLUDED.trading_fee,
		    maintenance_mode = EXCLUDED.maintenance_mode,
		    price_update_interval = EXCLUDED.price_update_interval,
		    updated_at = EXCLUDED.updated_at
	`

	settings.UpdatedAt = time.Now()

	_, err := r.db.Exec(ctx, query,
		settings.MinTradeAmount,
		settings.MaxTradeAmount,
		settings.MaxLeverage,
		settings.TradingFee,
		settings.MaintenanceMode,
		settings.PriceUpdateInterval,
		settings.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update trading settings: %w: %w", domain.ErrStorageUnavailable, err)
	}

	return nil
}
