package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ardentia/internal/domain"
)

// CoinRepositoryImpl implements the CoinRepository interface
type CoinRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewCoinRepository creates a new CoinRepository
func NewCoinRepository(db *pgxpool.Pool) domain.CoinRepository {
	return &CoinRepositoryImpl{db: db}
}

const coinColumns = `
	id, symbol, name, rarity, current_price, open_24h, window_started_at,
	change_24h, change_pct_24h, high_24h, low_24h, volume_24h,
	last_tick_at, updated_at
`

func scanCoin(row pgx.Row) (*domain.Coin, error) {
	coin := &domain.Coin{}
	err := row.Scan(
		&coin.ID,
		&coin.Symbol,
		&coin.Name,
		&coin.Rarity,
		&coin.Price,
		&coin.Open24h,
		&coin.WindowStartedAt,
		&coin.Change24h,
		&coin.ChangePct,
		&coin.High24h,
		&coin.Low24h,
		&coin.Volume24h,
		&coin.LastTickAt,
		&coin.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return coin, nil
}

// GetAll retrieves the full coin catalog
func (r *CoinRepositoryImpl) GetAll(ctx context.Context) ([]*domain.Coin, error) {
	query := `SELECT ` + coinColumns + ` FROM coins ORDER BY symbol ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query coins: %w: %w", domain.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var coins []*domain.Coin
	for rows.Next() {
		coin, err := scanCoin(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan coin: %w", err)
		}
		coins = append(coins, coin)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating coins: %w", err)
	}

	return coins, nil
}

// GetByID retrieves a coin by its slug ID
func (r *CoinRepositoryImpl) GetByID(ctx context.Context, id string) (*domain.Coin, error) {
	query := `SELECT ` + coinColumns + ` FROM coins WHERE id = $1`

	coin, err := scanCoin(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCoinNotFound
		}
		return nil, fmt.Errorf("failed to get coin by ID: %w: %w", domain.ErrStorageUnavailable, err)
	}

	return coin, nil
}

// GetBySymbol retrieves a coin by its ticker symbol
func (r *CoinRepositoryImpl) GetBySymbol(ctx context.Context, symbol string) (*domain.Coin, error) {
	query := `SELECT ` + coinColumns + ` FROM coins WHERE symbol = $1`

	coin, err := scanCoin(r.db.QueryRow(ctx, query, symbol))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCoinNotFound
		}
		return nil, fmt.Errorf("failed to get coin by symbol: %w: %w", domain.ErrStorageUnavailable, err)
	}

	return coin, nil
}

// Seed inserts the coin catalog, skipping coins that already exist
func (r *CoinRepositoryImpl) Seed(ctx context.Context, coins []*domain.Coin) error {
	query := `
		INSERT INTO coins (
			id, symbol, name, rarity, current_price, open_24h, window_started_at,
			change_24h, change_pct_24h, high_24h, low_24h, volume_24h,
			last_tick_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		)
		ON CONFLICT (id) DO NOTHING
	`

	for _, coin := range coins {
		_, err := r.db.Exec(ctx, query,
			coin.ID,
			coin.Symbol,
			coin.Name,
			coin.Rarity,
			coin.Price,
			coin.Open24h,
			coin.WindowStartedAt,
			coin.Change24h,
			coin.ChangePct,
			coin.High24h,
			coin.Low24h,
			coin.Volume24h,
			coin.LastTickAt,
			coin.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to seed coin %s: %w: %w", coin.Symbol, domain.ErrStorageUnavailable, err)
		}
	}

	return nil
}

// ApplyTick advances the coin to the tick price. The WHERE clause compares
// the tick timestamp against the stored watermark, so a duplicate or
// out-of-order tick applies nothing and reports false. The daily stats are
// measured against the open_24h anchor; once the window is older than 24
// hours it resets, re-anchoring on the price just before this tick, so the
// change figures never accumulate across days.
func (r *CoinRepositoryImpl) ApplyTick(ctx context.Context, tick domain.Tick) (bool, error) {
	// Every SET expression reads the pre-update row, so the CASE branches
	// all agree on whether this tick rolls the window.
	query := `
		UPDATE coins
		SET open_24h = CASE WHEN $3 - window_started_at >= INTERVAL '24 hours'
		                    THEN current_price ELSE open_24h END,
		    window_started_at = CASE WHEN $3 - window_started_at >= INTERVAL '24 hours'
		                             THEN $3 ELSE window_started_at END,
		    high_24h = CASE WHEN $3 - window_started_at >= INTERVAL '24 hours'
		                    THEN GREATEST(current_price, $2) ELSE GREATEST(high_24h, $2) END,
		    low_24h = CASE WHEN $3 - window_started_at >= INTERVAL '24 hours'
		                   THEN LEAST(current_price, $2) ELSE LEAST(low_24h, $2) END,
		    change_24h = $2 - CASE WHEN $3 - window_started_at >= INTERVAL '24 hours'
		                           THEN current_price ELSE open_24h END,
		    change_pct_24h = (($2 - CASE WHEN $3 - window_started_at >= INTERVAL '24 hours'
		                                 THEN current_price ELSE open_24h END)
		                      / CASE WHEN $3 - window_started_at >= INTERVAL '24 hours'
		                             THEN current_price ELSE open_24h END
		                      * 100)::double precision,
		    current_price = $2,
		    last_tick_at = $3,
		    updated_at = NOW()
		WHERE id = $1 AND last_tick_at < $3
	`

	tag, err := r.db.Exec(ctx, query, tick.CoinID, tick.Price, tick.Timestamp)
	if err != nil {
		return false, fmt.Errorf("failed to apply tick: %w: %w", domain.ErrStorageUnavailable, err)
	}

	return tag.RowsAffected() > 0, nil
}

// AppendCandle stores a candle and prunes history beyond the retained window
func (r *CoinRepositoryImpl) AppendCandle(ctx context.Context, candle *domain.Candle) error {
	query := `
		INSERT INTO candles (coin_id, opened_at, open, high, low, close, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(ctx, query,
		candle.CoinID,
		candle.OpenedAt,
		candle.Open,
		candle.High,
		candle.Low,
		candle.Close,
		candle.Volume,
	)
	if err != nil {
		return fmt.Errorf("failed to append candle: %w: %w", domain.ErrStorageUnavailable, err)
	}

	prune := `
		DELETE FROM candles
		WHERE coin_id = $1 AND opened_at < (
			SELECT MIN(opened_at) FROM (
				SELECT opened_at FROM candles
				WHERE coin_id = $1
				ORDER BY opened_at DESC
				LIMIT $2
			) recent
		)
	`
	if _, err := r.db.Exec(ctx, prune, candle.CoinID, domain.CandleHistory); err != nil {
		return fmt.Errorf("failed to prune candles: %w: %w", domain.ErrStorageUnavailable, err)
	}

	return nil
}

// GetCandles retrieves the most recent candles for a coin, oldest first
func (r *CoinRepositoryImpl) GetCandles(ctx context.Context, coinID string, limit int) ([]*domain.Candle, error) {
	query := `
		SELECT coin_id, opened_at, open, high, low, close, volume
		FROM (
			SELECT coin_id, opened_at, open, high, low, close, volume
			FROM candles
			WHERE coin_id = $1
			ORDER BY opened_at DESC
			LIMIT $2
		) recent
		ORDER BY opened_at ASC
	`

	rows, err := r.db.Query(ctx, query, coinID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query candles: %w: %w", domain.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var candles []*domain.Candle
	for rows.Next() {
		candle := &domain.Candle{}
		err := rows.Scan(
			&candle.CoinID,
			&candle.OpenedAt,
			&candle.Open,
			&candle.High,
			&candle.Low,
			&candle.Close,
			&candle.Volume,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan candle: %w", err)
		}
		candles = append(candles, candle)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating candles: %w", err)
	}

	return candles, nil
}
