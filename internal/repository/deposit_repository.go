package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ardentia/internal/domain"
)

// DepositRepositoryImpl implements the DepositRepository interface
type DepositRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewDepositRepository creates a new DepositRepository
func NewDepositRepository(db *pgxpool.Pool) domain.DepositRepository {
	return &DepositRepositoryImpl{db: db}
}

const depositColumns = `
	id, user_id, username, amount, method, proof, status, admin_notes,
	created_at, processed_at, processed_by
`

func scanDeposit(row pgx.Row) (*domain.DepositRequest, error) {
	d := &domain.DepositRequest{}
	err := row.Scan(
		&d.ID,
		&d.UserID,
		&d.Username,
		&d.Amount,
		&d.Method,
		&d.Proof,
		&d.Status,
		&d.AdminNotes,
		&d.CreatedAt,
		&d.ProcessedAt,
		&d.ProcessedBy,
	)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Create stores a new pending deposit request
func (r *DepositRepositoryImpl) Create(ctx context.Context, deposit *domain.DepositRequest) error {
	query := `
		INSERT INTO deposits (
			id, user_id, username, amount, method, proof, status, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
	`

	_, err := r.db.Exec(ctx, query,
		deposit.ID,
		deposit.UserID,
		deposit.Username,
		deposit.Amount,
		deposit.Method,
		deposit.Proof,
		deposit.Status,
		deposit.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create deposit request: %w: %w", domain.ErrStorageUnavailable, err)
	}

	return nil
}

// GetByID retrieves a deposit request by ID
func (r *DepositRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*domain.DepositRequest, error) {
	query := `SELECT ` + depositColumns + ` FROM deposits WHERE id = $1`

	deposit, err := scanDeposit(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDepositNotFound
		}
		return nil, fmt.Errorf("failed to get deposit by ID: %w: %w", domain.ErrStorageUnavailable, err)
	}

	return deposit, nil
}

func (r *DepositRepositoryImpl) queryDeposits(ctx context.Context, query string, args ...any) ([]*domain.DepositRequest, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query deposits: %w: %w", domain.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var deposits []*domain.DepositRequest
	for rows.Next() {
		deposit, err := scanDeposit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deposit: %w", err)
		}
		deposits = append(deposits, deposit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deposits: %w", err)
	}

	return deposits, nil
}

// GetByUser retrieves a user's deposit requests, newest first
func (r *DepositRepositoryImpl) GetByUser(ctx context.Context, userID uuid.UUID) ([]*domain.DepositRequest, error) {
	query := `SELECT ` + depositColumns + ` FROM deposits WHERE user_id = $1 ORDER BY created_at DESC`
	return r.queryDeposits(ctx, query, userID)
}

// GetAll retrieves all deposit requests, newest first
func (r *DepositRepositoryImpl) GetAll(ctx context.Context) ([]*domain.DepositRequest, error) {
	query := `SELECT ` + depositColumns + ` FROM deposits ORDER BY created_at DESC`
	return r.queryDeposits(ctx, query)
}

// Process applies an approve/reject decision. The status flip is a
// compare-and-set on status='pending' and, for approvals, the balance
// credit happens in the same transaction; a second decision on the same
// request returns ErrDepositProcessed.
func (r *DepositRepositoryImpl) Process(ctx context.Context, id uuid.UUID, status string, processedBy uuid.UUID, notes *string) (*domain.DepositRequest, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin deposit transaction: %w: %w", domain.ErrStorageUnavailable, err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		UPDATE deposits
		SET status = $2,
		    admin_notes = $3,
		    processed_at = $4,
		    processed_by = $5
		WHERE id = $1 AND status = $6
		RETURNING `+depositColumns,
		id, status, notes, time.Now(), processedBy, domain.DepositPending,
	)

	deposit, err := scanDeposit(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM deposits WHERE id = $1)`, id).Scan(&exists); err != nil {
				return nil, fmt.Errorf("failed to check deposit: %w: %w", domain.ErrStorageUnavailable, err)
			}
			if !exists {
				return nil, domain.ErrDepositNotFound
			}
			return nil, domain.ErrDepositProcessed
		}
		return nil, fmt.Errorf("failed to process deposit: %w: %w", domain.ErrStorageUnavailable, err)
	}

	if status == domain.DepositApproved {
		_, err = tx.Exec(ctx,
			`UPDATE users SET balance = balance + $1 WHERE id = $2`,
			deposit.Amount, deposit.UserID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to credit deposit: %w: %w", domain.ErrStorageUnavailable, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit deposit decision: %w: %w", domain.ErrStorageUnavailable, err)
	}

	return deposit, nil
}

// CountPending returns the number of deposits awaiting review
func (r *DepositRepositoryImpl) CountPending(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM deposits WHERE status = 'pending'`
	if err := r.db.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count pending deposits: %w: %w", domain.ErrStorageUnavailable, err)
	}
	return count, nil
}
