package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"account-ledger/internal/core/domain"
	"account-ledger/internal/core/ports"
	"account-ledger/pkg/apperror"

	"github.com/rs/zerolog"
)

// holderServiceImpl implements ports.HolderService.
type holderServiceImpl struct {
	repo     ports.HolderRepository
	store    ports.LedgerStore
	accounts ports.AccountService
	fp       ports.Fingerprinter
	log      zerolog.Logger
	now      func() time.Time
}

// NewHolderService creates a new holder service. Deactivation closes the
// holder's accounts through accounts so each close takes the account lock.
func NewHolderService(
	repo ports.HolderRepository,
	store ports.LedgerStore,
	accounts ports.AccountService,
	fp ports.Fingerprinter,
	log zerolog.Logger,
) ports.HolderService {
	return &holderServiceImpl{
		repo:     repo,
		store:    store,
		accounts: accounts,
		fp:       fp,
		log:      log,
		now:      time.Now,
	}
}

func (s *holderServiceImpl) Create(ctx context.Context, req ports.CreateHolderRequest) (*domain.Holder, error) {
	cpf := domain.NormalizeCPF(req.CPF)
	if !domain.ValidCPF(cpf) {
		return nil, apperror.ErrInvalidCPF()
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.Validation("name is required")
	}

	holder := &domain.Holder{
		CPF:       cpf,
		Name:      name,
		Active:    true,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, holder); err != nil {
		if errors.Is(err, ports.ErrDuplicate) {
			return nil, apperror.ErrHolderAlreadyExists()
		}
		return nil, apperror.InternalError(fmt.Errorf("create holder: %w", err))
	}

	s.log.Info().Str("holder", s.fp.Fingerprint(cpf)).Msg("holder created")
	return holder, nil
}

func (s *holderServiceImpl) Get(ctx context.Context, cpf string) (*domain.Holder, error) {
	holder, err := s.repo.GetByCPF(ctx, domain.NormalizeCPF(cpf))
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get holder: %w", err))
	}
	if holder == nil {
		return nil, apperror.ErrHolderNotFound()
	}
	return holder, nil
}

// Deactivate marks the holder inactive, then closes every account that is
// not already closed. Repeating it is harmless.
func (s *holderServiceImpl) Deactivate(ctx context.Context, cpf string) (*domain.Holder, error) {
	holder, err := s.Get(ctx, cpf)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Deactivate(ctx, holder.CPF); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("deactivate holder: %w", err))
	}
	holder.Active = false

	accounts, err := s.store.GetHolderAccounts(ctx, holder.CPF)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list holder accounts: %w", err))
	}

	closed := 0
	for _, acc := range accounts {
		if acc.Status == domain.AccountStatusClosed {
			continue
		}
		if _, err := s.accounts.Close(ctx, acc.ID); err != nil {
			if errors.Is(err, apperror.ErrAlreadyClosed()) {
				continue
			}
			return nil, err
		}
		closed++
	}

	s.log.Info().
		Str("holder", s.fp.Fingerprint(holder.CPF)).
		Int("accounts_closed", closed).
		Msg("holder deactivated")

	return holder, nil
}
