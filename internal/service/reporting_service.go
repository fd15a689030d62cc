package service

import (
	"context"
	"fmt"
	"time"

	"account-ledger/internal/core/domain"
	"account-ledger/internal/core/ports"
	"account-ledger/pkg/apperror"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// reportingService implements ports.ReportingService.
type reportingService struct {
	store  ports.LedgerStore
	policy domain.WithdrawalPolicy
	loc    *time.Location
	now    func() time.Time
}

// NewReportingService creates a new reporting service. policy and loc must
// match the engine's so the remaining daily limit agrees with Record.
func NewReportingService(store ports.LedgerStore, policy domain.WithdrawalPolicy, loc *time.Location) ports.ReportingService {
	if loc == nil {
		loc = time.UTC
	}
	return &reportingService{
		store:  store,
		policy: policy,
		loc:    loc,
		now:    time.Now,
	}
}

// ListTransactions returns a page of the account history. A start date
// without an end date runs until now.
func (s *reportingService) ListTransactions(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	acc, err := s.store.GetAccount(ctx, params.AccountID)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("get account: %w", err))
	}
	if acc == nil {
		return nil, 0, apperror.ErrAccountNotFound()
	}

	if params.From != nil && params.To == nil {
		now := s.now().UTC()
		params.To = &now
	}
	if params.From != nil && params.To != nil && params.From.After(*params.To) {
		return nil, 0, apperror.Validation("start_date must not be after end_date")
	}
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 {
		params.PageSize = defaultPageSize
	}
	if params.PageSize > maxPageSize {
		params.PageSize = maxPageSize
	}

	txns, total, err := s.store.ListTransactions(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(err)
	}
	return txns, total, nil
}

// GetStatement reports balance, history totals and today's withdrawal budget.
func (s *reportingService) GetStatement(ctx context.Context, accountID uuid.UUID) (*ports.AccountStatement, error) {
	now := s.now()
	dayStart, dayEnd := domain.DayBounds(now, s.loc)
	snap, err := s.store.GetAccountSnapshot(ctx, accountID, dayStart, dayEnd)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get snapshot: %w", err))
	}
	if snap == nil {
		return nil, apperror.ErrAccountNotFound()
	}

	acc := snap.Account
	expected := acc.InitialBalance.Add(snap.TotalDeposits).Sub(snap.TotalWithdrawals)

	return &ports.AccountStatement{
		AccountID:           acc.ID,
		Status:              acc.Status,
		InitialBalance:      acc.InitialBalance,
		Balance:             acc.Balance,
		TotalDeposits:       snap.TotalDeposits,
		TotalWithdrawals:    snap.TotalWithdrawals,
		TransactionCount:    snap.TransactionCount,
		WithdrawnToday:      snap.WithdrawnSince,
		DailyLimit:          s.policy.MaxDaily,
		RemainingDailyLimit: s.policy.Remaining(snap.WithdrawnSince),
		Reconciled:          expected.Equal(acc.Balance),
		GeneratedAt:         now.UTC(),
	}, nil
}
