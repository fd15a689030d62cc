package service

import (
	"context"
	"fmt"
	"time"

	"account-ledger/internal/core/domain"
	"account-ledger/internal/core/ports"
	"account-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EngineConfig carries the injected withdrawal limit, the day boundary
// timezone and the commit retry policy.
type EngineConfig struct {
	MaxDailyWithdrawal decimal.Decimal
	Location           *time.Location
	Retry              RetryPolicy
	Now                func() time.Time
}

// TransactionEngine implements ports.TransactionEngine. It does not log;
// callers own observability.
type TransactionEngine struct {
	store  ports.LedgerStore
	locker ports.AccountLocker
	policy domain.WithdrawalPolicy
	loc    *time.Location
	retry  RetryPolicy
	now    func() time.Time
}

// NewTransactionEngine creates an engine over store. locker may be nil.
func NewTransactionEngine(store ports.LedgerStore, locker ports.AccountLocker, cfg EngineConfig) *TransactionEngine {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &TransactionEngine{
		store:  store,
		locker: locker,
		policy: domain.WithdrawalPolicy{MaxDaily: cfg.MaxDailyWithdrawal},
		loc:    cfg.Location,
		retry:  cfg.Retry,
		now:    cfg.Now,
	}
}

// Record applies a deposit or withdrawal. Eligibility, the withdrawal
// policy, the balance change and the history append all happen inside one
// per-account commit, so a rejected request leaves no trace.
func (e *TransactionEngine) Record(ctx context.Context, accountID uuid.UUID, kind domain.TransactionType, amount decimal.Decimal) (*domain.Transaction, error) {
	if !kind.Valid() {
		return nil, apperror.ErrInvalidTransactionType()
	}

	var recorded *domain.Transaction
	err := withRetry(ctx, e.retry, func(ctx context.Context) error {
		recorded = nil
		_, err := updateAccount(ctx, e.store, e.locker, accountID, func(ctx context.Context, tx ports.LedgerTx, acc *domain.Account) error {
			txn, err := e.apply(ctx, tx, acc, kind, amount)
			if err != nil {
				return err
			}
			recorded = txn
			return nil
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return recorded, nil
}

func (e *TransactionEngine) apply(ctx context.Context, tx ports.LedgerTx, acc *domain.Account, kind domain.TransactionType, amount decimal.Decimal) (*domain.Transaction, error) {
	if !acc.CanTransact() {
		return nil, apperror.ErrAccountNotEligible()
	}

	now := e.now().UTC()
	switch kind {
	case domain.TransactionTypeDeposit:
		if !amount.IsPositive() {
			return nil, apperror.ErrInvalidAmount()
		}
		acc.Balance = acc.Balance.Add(amount)

	case domain.TransactionTypeWithdrawal:
		dayStart, dayEnd := domain.DayBounds(now, e.loc)
		prior, err := tx.SumWithdrawalsSince(ctx, acc.ID, dayStart, dayEnd)
		if err != nil {
			return nil, fmt.Errorf("sum withdrawals: %w", err)
		}
		if err := e.policy.Evaluate(acc.Balance, amount, prior); err != nil {
			return nil, err
		}
		acc.Balance = acc.Balance.Sub(amount)
	}

	acc.UpdatedAt = &now
	txn := &domain.Transaction{
		ID:        uuid.New(),
		AccountID: acc.ID,
		Type:      kind,
		Amount:    amount,
		CreatedAt: now,
	}
	if err := tx.AppendTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("append transaction: %w", err)
	}
	return txn, nil
}
