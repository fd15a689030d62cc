package ports

//go:generate mockgen -source=repositories.go -destination=mocks/mock_repositories.go -package=mocks

import (
	"context"
	"errors"
	"time"

	"account-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned by AtomicUpdateAccount when the account is absent.
	ErrNotFound = errors.New("record not found")
	// ErrConflict marks a retryable store failure (serialization, deadlock, lock timeout).
	ErrConflict = errors.New("concurrent update conflict")
	// ErrDuplicate is returned when inserting a key that already exists.
	ErrDuplicate = errors.New("duplicate record")
	// ErrHolderInactive is returned by CreateAccount when the owning holder
	// is missing or inactive at insert time.
	ErrHolderInactive = errors.New("holder missing or inactive")
)

// LedgerTx is the commit-scoped handle handed to an AccountMutator. Its
// reads observe every commit serialized before the current one.
type LedgerTx interface {
	AppendTransaction(ctx context.Context, txn *domain.Transaction) error
	// SumWithdrawalsSince sums withdrawals created in [since, until).
	SumWithdrawalsSince(ctx context.Context, accountID uuid.UUID, since, until time.Time) (decimal.Decimal, error)
}

// AccountMutator edits the locked account in place. Returning an error
// aborts the commit and nothing is persisted.
type AccountMutator func(ctx context.Context, tx LedgerTx, acc *domain.Account) error

// LedgerStore persists accounts and their transactions. Get* methods return
// (nil, nil) when the account does not exist.
type LedgerStore interface {
	// CreateAccount checks the holder is active and inserts in one step, so
	// a concurrent holder deactivation either sees the account or rejects it
	// with ErrHolderInactive.
	CreateAccount(ctx context.Context, acc *domain.Account) error
	GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetHolderAccounts(ctx context.Context, holderID string) ([]domain.Account, error)
	SumWithdrawalsSince(ctx context.Context, accountID uuid.UUID, since, until time.Time) (decimal.Decimal, error)
	// AtomicUpdateAccount serializes per account: it locks the row, runs
	// mutate, then persists balance, status, updated_at and every appended
	// transaction in one commit. Only those account fields are written.
	AtomicUpdateAccount(ctx context.Context, id uuid.UUID, mutate AccountMutator) (*domain.Account, error)
	ListTransactions(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
	GetAccountSnapshot(ctx context.Context, id uuid.UUID, since, until time.Time) (*AccountSnapshot, error)
}

// TransactionListParams holds filter + pagination for an account history.
type TransactionListParams struct {
	AccountID uuid.UUID
	From      *time.Time // inclusive
	To        *time.Time // inclusive
	Page      int
	PageSize  int
}

// AccountSnapshot is an account read together with its history totals in
// one consistent view.
type AccountSnapshot struct {
	Account          domain.Account
	TotalDeposits    decimal.Decimal
	TotalWithdrawals decimal.Decimal
	WithdrawnSince   decimal.Decimal // withdrawals in [since, until)
	TransactionCount int64
}

// HolderRepository defines persistence operations for holders.
type HolderRepository interface {
	// Create returns ErrDuplicate when the CPF is already registered.
	Create(ctx context.Context, holder *domain.Holder) error
	GetByCPF(ctx context.Context, cpf string) (*domain.Holder, error)
	Deactivate(ctx context.Context, cpf string) error
}

// AuditRepository persists audit log entries.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
}
