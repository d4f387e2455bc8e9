package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"ardentia/internal/domain"
)

// DepositService handles the deposit request workflow: players file
// requests, admins approve or reject them, and approvals credit the balance
// through the repository's atomic decision. The credit path here and the
// settlement engine are the only two writers of player balances.
type DepositService struct {
	deposits domain.DepositRepository
	users    domain.UserRepository
	notifier domain.DepositNotifier
	log      zerolog.Logger
}

// NewDepositService creates a new DepositService
func NewDepositService(
	deposits domain.DepositRepository,
	users domain.UserRepository,
	notifier domain.DepositNotifier,
	log zerolog.Logger,
) *DepositService {
	return &DepositService{
		deposits: deposits,
		users:    users,
		notifier: notifier,
		log:      log.With().Str("component", "deposits").Logger(),
	}
}

// CreateRequest files a new pending deposit request for the user. Discord
// requests ping the community bot; notification failure never fails the
// request itself.
func (s *DepositService) CreateRequest(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, method string, proof *string) (*domain.DepositRequest, error) {
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	if method != domain.DepositMethodDiscord && method != domain.DepositMethodManual {
		return nil, domain.ErrInvalidAmount
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	deposit := &domain.DepositRequest{
		ID:        uuid.New(),
		UserID:    user.ID,
		Username:  user.Username,
		Amount:    amount,
		Method:    method,
		Proof:     proof,
		Status:    domain.DepositPending,
		CreatedAt: time.Now(),
	}

	if err := s.deposits.Create(ctx, deposit); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("deposit_id", deposit.ID.String()).
		Str("username", deposit.Username).
		Str("amount", deposit.Amount.String()).
		Str("method", deposit.Method).
		Msg("deposit request created")

	if method == domain.DepositMethodDiscord {
		if err := s.notifier.NotifyDeposit(deposit); err != nil {
			s.log.Warn().Err(err).Str("deposit_id", deposit.ID.String()).Msg("failed to send deposit notification")
		}
	}

	return deposit, nil
}

// Process applies an admin decision. Approvals credit the player's balance
// atomically with the status flip; a request already decided returns
// ErrDepositProcessed.
func (s *DepositService) Process(ctx context.Context, depositID, adminID uuid.UUID, approve bool, notes *string) (*domain.DepositRequest, error) {
	status := domain.DepositRejected
	if approve {
		status = domain.DepositApproved
	}

	deposit, err := s.deposits.Process(ctx, depositID, status, adminID, notes)
	if err != nil {
		return nil, fmt.Errorf("failed to process deposit %s: %w", depositID, err)
	}

	s.log.Info().
		Str("deposit_id", deposit.ID.String()).
		Str("username", deposit.Username).
		Str("status", deposit.Status).
		Str("amount", deposit.Amount.String()).
		Msg("deposit request processed")

	if deposit.Status == domain.DepositApproved {
		if err := s.notifier.NotifyDeposit(deposit); err != nil {
			s.log.Warn().Err(err).Str("deposit_id", deposit.ID.String()).Msg("failed to send approval notification")
		}
	}

	return deposit, nil
}

// UserDeposits returns the user's deposit requests.
func (s *DepositService) UserDeposits(ctx context.Context, userID uuid.UUID) ([]*domain.DepositRequest, error) {
	return s.deposits.GetByUser(ctx, userID)
}

// AllDeposits returns every deposit request for the admin review queue.
func (s *DepositService) AllDeposits(ctx context.Context) ([]*domain.DepositRequest, error) {
	return s.deposits.GetAll(ctx)
}
