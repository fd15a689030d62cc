package ports

//go:generate mockgen -source=services.go -destination=mocks/mock_services.go -package=mocks

import (
	"context"
	"time"

	"account-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IdempotencyCache is the Redis-layer idempotency check for transactions.
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // nil when absent
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Reserve marks key as in flight. It returns false if the key is
	// already reserved or completed.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// AccountLocker serializes work on one account across service instances.
type AccountLocker interface {
	WithLock(ctx context.Context, accountID uuid.UUID, fn func(ctx context.Context) error) error
}

// Fingerprinter turns sensitive identifiers into stable opaque tokens.
type Fingerprinter interface {
	Fingerprint(value string) string
}

// --- Service Ports (Business Logic) ---

// TransactionEngine applies one deposit or withdrawal atomically.
type TransactionEngine interface {
	Record(ctx context.Context, accountID uuid.UUID, kind domain.TransactionType, amount decimal.Decimal) (*domain.Transaction, error)
}

// TransactionService is the request-facing wrapper around the engine.
type TransactionService interface {
	Record(ctx context.Context, req RecordTransactionRequest) (*domain.Transaction, error)
}

// RecordTransactionRequest holds validated input for a deposit or withdrawal.
type RecordTransactionRequest struct {
	AccountID      uuid.UUID
	Type           domain.TransactionType
	Amount         decimal.Decimal
	IdempotencyKey string // optional
}

// AccountService defines account opening, lookup and lifecycle transitions.
type AccountService interface {
	Open(ctx context.Context, holderCPF string, initialBalance decimal.Decimal) (*domain.Account, error)
	Get(ctx context.Context, holderCPF string, id uuid.UUID) (*domain.Account, error)
	ListByHolder(ctx context.Context, holderCPF string) ([]domain.Account, error)
	Close(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	Block(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	Unblock(ctx context.Context, id uuid.UUID) (*domain.Account, error)
}

// HolderService defines holder registration and deactivation.
type HolderService interface {
	Create(ctx context.Context, req CreateHolderRequest) (*domain.Holder, error)
	Get(ctx context.Context, cpf string) (*domain.Holder, error)
	Deactivate(ctx context.Context, cpf string) (*domain.Holder, error)
}

// CreateHolderRequest holds input for holder registration.
type CreateHolderRequest struct {
	CPF  string
	Name string
}

// ReportingService defines history and statement queries.
type ReportingService interface {
	ListTransactions(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
	GetStatement(ctx context.Context, accountID uuid.UUID) (*AccountStatement, error)
}

// AccountStatement summarizes an account and its daily withdrawal budget.
type AccountStatement struct {
	AccountID           uuid.UUID
	Status              domain.AccountStatus
	InitialBalance      decimal.Decimal
	Balance             decimal.Decimal
	TotalDeposits       decimal.Decimal
	TotalWithdrawals    decimal.Decimal
	TransactionCount    int64
	WithdrawnToday      decimal.Decimal
	DailyLimit          decimal.Decimal
	RemainingDailyLimit decimal.Decimal
	// Reconciled is true when Balance equals InitialBalance plus deposits
	// minus withdrawals.
	Reconciled  bool
	GeneratedAt time.Time
}

// AuditService records audit entries without blocking the request.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}
