package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"ardentia/internal/domain"
)

// PositionRepositoryImpl implements the PositionRepository interface.
// The settlement mutations (OpenAtomic, CloseAtomic) pair the position write
// with the balance change in one transaction so no partial state is ever
// visible.
type PositionRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewPositionRepository creates a new PositionRepository
func NewPositionRepository(db *pgxpool.Pool) domain.PositionRepository {
	return &PositionRepositoryImpl{db: db}
}

const positionColumns = `
	id, owner_id, symbol, direction, size, leverage, margin, entry_price,
	mark_price, stop_loss, take_profit, status, close_reason, exit_price,
	realized_pnl, opened_at, closed_at
`

func scanPosition(row pgx.Row) (*domain.Position, error) {
	p := &domain.Position{}
	err := row.Scan(
		&p.ID,
		&p.OwnerID,
		&p.Symbol,
		&p.Direction,
		&p.Size,
		&p.Leverage,
		&p.Margin,
		&p.EntryPrice,
		&p.MarkPrice,
		&p.StopLoss,
		&p.TakeProfit,
		&p.Status,
		&p.CloseReason,
		&p.ExitPrice,
		&p.RealizedPnL,
		&p.OpenedAt,
		&p.ClosedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// OpenAtomic debits the margin and inserts the open position in one
// transaction. The debit is conditional on the balance inside the
// transaction; re-reading the balance beforehand can never double-spend.
func (r *PositionRepositoryImpl) OpenAtomic(ctx context.Context, position *domain.Position) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin open transaction: %w: %w", domain.ErrStorageUnavailable, err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE users SET balance = balance - $1 WHERE id = $2 AND balance >= $1`,
		position.Margin, position.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("failed to reserve margin: %w: %w", domain.ErrStorageUnavailable, err)
	}

	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, position.OwnerID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check owner: %w: %w", domain.ErrStorageUnavailable, err)
		}
		if !exists {
			return domain.ErrOwnerNotFound
		}
		return domain.ErrInsufficientBalance
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO positions (
			id, owner_id, symbol, direction, size, leverage, margin,
			entry_price, mark_price, stop_loss, take_profit, status, opened_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)`,
		position.ID,
		position.OwnerID,
		position.Symbol,
		position.Direction,
		position.Size,
		position.Leverage,
		position.Margin,
		position.EntryPrice,
		position.MarkPrice,
		position.StopLoss,
		position.TakeProfit,
		position.Status,
		position.OpenedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert position: %w: %w", domain.ErrStorageUnavailable, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit open: %w: %w", domain.ErrStorageUnavailable, err)
	}

	return nil
}

// CloseAtomic flips the position to closed and credits the owner in one
// transaction. The status flip is a compare-and-set: the WHERE clause
// re-checks status inside the transaction, so between a manual close and a
// concurrent auto-liquidation exactly one wins and the loser observes
// ErrAlreadyClosed.
func (r *PositionRepositoryImpl) CloseAtomic(ctx context.Context, id uuid.UUID, exitPrice, pnl, credit decimal.Decimal, reason string, closedAt time.Time) (*domain.Position, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin close transaction: %w: %w", domain.ErrStorageUnavailable, err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		UPDATE positions
		SET status = $2,
		    close_reason = $3,
		    exit_price = $4,
		    mark_price = $4,
		    realized_pnl = $5,
		    closed_at = $6
		WHERE id = $1 AND status = $7
		RETURNING `+positionColumns,
		id,
		domain.PositionClosed,
		reason,
		exitPrice,
		pnl,
		closedAt,
		domain.PositionOpen,
	)

	position, err := scanPosition(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM positions WHERE id = $1)`, id).Scan(&exists); err != nil {
				return nil, fmt.Errorf("failed to check position: %w: %w", domain.ErrStorageUnavailable, err)
			}
			if !exists {
				return nil, domain.ErrPositionNotFound
			}
			return nil, domain.ErrAlreadyClosed
		}
		return nil, fmt.Errorf("failed to close position: %w: %w", domain.ErrStorageUnavailable, err)
	}

	if credit.IsPositive() {
		_, err = tx.Exec(ctx,
			`UPDATE users SET balance = balance + $1 WHERE id = $2`,
			credit, position.OwnerID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to credit owner: %w: %w", domain.ErrStorageUnavailable, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit close: %w: %w", domain.ErrStorageUnavailable, err)
	}

	return position, nil
}

// GetByID retrieves a position by ID
func (r *PositionRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*domain.Position, error) {
	query := `SELECT ` + positionColumns + ` FROM positions WHERE id = $1`

	position, err := scanPosition(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPositionNotFound
		}
		return nil, fmt.Errorf("failed to get position by ID: %w: %w", domain.ErrStorageUnavailable, err)
	}

	return position, nil
}

func (r *PositionRepositoryImpl) queryPositions(ctx context.Context, query string, args ...any) ([]*domain.Position, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w: %w", domain.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var positions []*domain.Position
	for rows.Next() {
		position, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, position)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", err)
	}

	return positions, nil
}

// GetOpenByOwner retrieves the owner's open positions, newest first
func (r *PositionRepositoryImpl) GetOpenByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Position, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM positions
		WHERE owner_id = $1 AND status = 'open'
		ORDER BY opened_at DESC
	`
	return r.queryPositions(ctx, query, ownerID)
}

// GetHistoryByOwner retrieves the owner's closed positions, newest first
func (r *PositionRepositoryImpl) GetHistoryByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]*domain.Position, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM positions
		WHERE owner_id = $1 AND status = 'closed'
		ORDER BY closed_at DESC
		LIMIT $2
	`
	return r.queryPositions(ctx, query, ownerID, limit)
}

// GetOpenBySymbol retrieves all open positions on a symbol, oldest first
func (r *PositionRepositoryImpl) GetOpenBySymbol(ctx context.Context, symbol string) ([]*domain.Position, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM positions
		WHERE symbol = $1 AND status = 'open'
		ORDER BY opened_at ASC
	`
	return r.queryPositions(ctx, query, symbol)
}

// GetOpen retrieves all open positions across all owners
func (r *PositionRepositoryImpl) GetOpen(ctx context.Context) ([]*domain.Position, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM positions
		WHERE status = 'open'
		ORDER BY opened_at ASC
	`
	return r.queryPositions(ctx, query)
}

// UpdateMark stores the latest mark price for all open positions on a
// symbol. Unrealized PnL is derived on read, never persisted, so replaying
// the same tick reproduces exactly the same state.
func (r *PositionRepositoryImpl) UpdateMark(ctx context.Context, symbol string, mark decimal.Decimal) error {
	query := `UPDATE positions SET mark_price = $1 WHERE symbol = $2 AND status = 'open'`

	_, err := r.db.Exec(ctx, query, mark, symbol)
	if err != nil {
		return fmt.Errorf("failed to update mark price: %w: %w", domain.ErrStorageUnavailable, err)
	}

	return nil
}

// CountOpen returns the number of open positions across all owners
func (r *PositionRepositoryImpl) CountOpen(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM positions WHERE status = 'open'`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count open positions: %w: %w", domain.ErrStorageUnavailable, err)
	}
	return count, nil
}

// TotalOpenMargin returns the sum of margin reserved by open positions
func (r *PositionRepositoryImpl) TotalOpenMargin(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	query := `SELECT COALESCE(SUM(margin), 0) FROM positions WHERE status = 'open'`
	if err := r.db.QueryRow(ctx, query).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum open margin: %w: %w", domain.ErrStorageUnavailable, err)
	}
	return total, nil
}
