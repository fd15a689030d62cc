package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"account-ledger/internal/core/domain"
	"account-ledger/internal/core/ports"
	"account-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// accountServiceImpl implements ports.AccountService.
type accountServiceImpl struct {
	store   ports.LedgerStore
	holders ports.HolderRepository
	locker  ports.AccountLocker
	retry   RetryPolicy
	log     zerolog.Logger

	intn func(n int) int
	now  func() time.Time
}

// NewAccountService creates a new account service. locker may be nil.
func NewAccountService(
	store ports.LedgerStore,
	holders ports.HolderRepository,
	locker ports.AccountLocker,
	retry RetryPolicy,
	log zerolog.Logger,
) ports.AccountService {
	return &accountServiceImpl{
		store:   store,
		holders: holders,
		locker:  locker,
		retry:   retry,
		log:     log,
		intn:    rand.IntN,
		now:     time.Now,
	}
}

// Open creates an ACTIVE account for an active holder.
func (s *accountServiceImpl) Open(ctx context.Context, holderCPF string, initialBalance decimal.Decimal) (*domain.Account, error) {
	if initialBalance.IsNegative() {
		return nil, apperror.ErrInvalidAmount()
	}
	if initialBalance.Exponent() < -maxAmountScale {
		return nil, apperror.Validation(fmt.Sprintf("initial balance supports at most %d decimal places", maxAmountScale))
	}

	cpf := domain.NormalizeCPF(holderCPF)
	holder, err := s.holders.GetByCPF(ctx, cpf)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get holder: %w", err))
	}
	if holder == nil {
		return nil, apperror.ErrHolderNotFound()
	}
	if !holder.Active {
		return nil, apperror.ErrHolderInactive()
	}

	acc := &domain.Account{
		ID:             uuid.New(),
		HolderID:       holder.CPF,
		Number:         domain.NewAccountNumber(s.intn),
		Agency:         domain.NewAgency(s.intn),
		InitialBalance: initialBalance,
		Balance:        initialBalance,
		Status:         domain.AccountStatusActive,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.store.CreateAccount(ctx, acc); err != nil {
		if errors.Is(err, ports.ErrHolderInactive) {
			return nil, apperror.ErrHolderInactive()
		}
		return nil, apperror.InternalError(fmt.Errorf("create account: %w", err))
	}

	s.log.Info().
		Str("account_id", acc.ID.String()).
		Str("number", acc.Number).
		Msg("account opened")

	return acc, nil
}

// Get returns the account only if it belongs to the holder.
func (s *accountServiceImpl) Get(ctx context.Context, holderCPF string, id uuid.UUID) (*domain.Account, error) {
	acc, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get account: %w", err))
	}
	if acc == nil || acc.HolderID != domain.NormalizeCPF(holderCPF) {
		return nil, apperror.ErrAccountNotFound()
	}
	return acc, nil
}

// ListByHolder returns every account of an existing holder.
func (s *accountServiceImpl) ListByHolder(ctx context.Context, holderCPF string) ([]domain.Account, error) {
	cpf := domain.NormalizeCPF(holderCPF)
	holder, err := s.holders.GetByCPF(ctx, cpf)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get holder: %w", err))
	}
	if holder == nil {
		return nil, apperror.ErrHolderNotFound()
	}

	accounts, err := s.store.GetHolderAccounts(ctx, cpf)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list accounts: %w", err))
	}
	return accounts, nil
}

func (s *accountServiceImpl) Close(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return s.transition(ctx, id, "closed", (*domain.Account).Close)
}

func (s *accountServiceImpl) Block(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return s.transition(ctx, id, "blocked", (*domain.Account).Block)
}

func (s *accountServiceImpl) Unblock(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return s.transition(ctx, id, "unblocked", (*domain.Account).Unblock)
}

// transition runs a lifecycle change through the same per-account commit as
// the transaction engine, so it orders strictly against in-flight transactions.
func (s *accountServiceImpl) transition(ctx context.Context, id uuid.UUID, verb string, op func(*domain.Account) error) (*domain.Account, error) {
	var updated *domain.Account
	err := withRetry(ctx, s.retry, func(ctx context.Context) error {
		acc, err := updateAccount(ctx, s.store, s.locker, id, func(_ context.Context, _ ports.LedgerTx, acc *domain.Account) error {
			if err := op(acc); err != nil {
				return err
			}
			now := s.now().UTC()
			acc.UpdatedAt = &now
			return nil
		})
		updated = acc
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("account_id", id.String()).Msgf("account %s", verb)
	return updated, nil
}
