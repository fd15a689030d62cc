package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"account-ledger/internal/core/domain"
	"account-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// accountEntry owns one account and its history. mu is the per-account
// commit lock; distinct accounts never contend on it.
type accountEntry struct {
	mu      sync.Mutex
	account domain.Account
	txns    []domain.Transaction
}

// LedgerStore is an in-process implementation of ports.LedgerStore.
type LedgerStore struct {
	mu       sync.RWMutex // guards the maps, never held across a commit
	accounts map[uuid.UUID]*accountEntry
	byHolder map[string][]uuid.UUID
	holders  *HolderRepo
}

// Option configures a LedgerStore.
type Option func(*LedgerStore)

// WithHolders makes CreateAccount require an active holder in h. The check
// and the insert run under h's read lock, so HolderRepo.Deactivate cannot
// interleave with them.
func WithHolders(h *HolderRepo) Option {
	return func(s *LedgerStore) { s.holders = h }
}

// NewLedgerStore creates an empty store.
func NewLedgerStore(opts ...Option) *LedgerStore {
	s := &LedgerStore{
		accounts: make(map[uuid.UUID]*accountEntry),
		byHolder: make(map[string][]uuid.UUID),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *LedgerStore) entry(id uuid.UUID) *accountEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accounts[id]
}

// CreateAccount inserts a new account. Lock order is holders, then the
// store maps.
func (s *LedgerStore) CreateAccount(_ context.Context, acc *domain.Account) error {
	if s.holders != nil {
		s.holders.mu.RLock()
		defer s.holders.mu.RUnlock()
		if h, ok := s.holders.holders[acc.HolderID]; !ok || !h.Active {
			return fmt.Errorf("create account: %w", ports.ErrHolderInactive)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[acc.ID]; exists {
		return fmt.Errorf("create account: %w", ports.ErrDuplicate)
	}
	if acc.Balance.IsNegative() {
		return fmt.Errorf("create account: negative balance")
	}
	s.accounts[acc.ID] = &accountEntry{account: *acc}
	s.byHolder[acc.HolderID] = append(s.byHolder[acc.HolderID], acc.ID)
	return nil
}

// GetAccount returns a copy of the account, or nil if absent.
func (s *LedgerStore) GetAccount(_ context.Context, id uuid.UUID) (*domain.Account, error) {
	e := s.entry(id)
	if e == nil {
		return nil, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	acc := e.account
	return &acc, nil
}

// GetHolderAccounts returns the holder's accounts in creation order.
func (s *LedgerStore) GetHolderAccounts(_ context.Context, holderID string) ([]domain.Account, error) {
	s.mu.RLock()
	ids := append([]uuid.UUID(nil), s.byHolder[holderID]...)
	s.mu.RUnlock()

	accounts := make([]domain.Account, 0, len(ids))
	for _, id := range ids {
		e := s.entry(id)
		e.mu.Lock()
		accounts = append(accounts, e.account)
		e.mu.Unlock()
	}
	return accounts, nil
}

// SumWithdrawalsSince sums withdrawals created in [since, until).
func (s *LedgerStore) SumWithdrawalsSince(_ context.Context, accountID uuid.UUID, since, until time.Time) (decimal.Decimal, error) {
	e := s.entry(accountID)
	if e == nil {
		return decimal.Zero, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return sumWithdrawals(e.txns, since, until), nil
}

// AtomicUpdateAccount runs mutate under the account's lock against a copy.
// The copy and any appended transactions are applied only if mutate succeeds.
func (s *LedgerStore) AtomicUpdateAccount(ctx context.Context, id uuid.UUID, mutate ports.AccountMutator) (*domain.Account, error) {
	e := s.entry(id)
	if e == nil {
		return nil, fmt.Errorf("account %s: %w", id, ports.ErrNotFound)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	working := e.account
	tx := &ledgerTx{entry: e}
	if err := mutate(ctx, tx, &working); err != nil {
		return nil, err
	}
	if working.Balance.IsNegative() {
		return nil, fmt.Errorf("account %s: balance would become negative", id)
	}

	e.account.Balance = working.Balance
	e.account.Status = working.Status
	e.account.UpdatedAt = working.UpdatedAt
	e.txns = append(e.txns, tx.pending...)

	acc := e.account
	return &acc, nil
}

// ListTransactions returns a page of the account history, newest first.
func (s *LedgerStore) ListTransactions(_ context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	e := s.entry(params.AccountID)
	if e == nil {
		return []domain.Transaction{}, 0, nil
	}

	e.mu.Lock()
	filtered := make([]domain.Transaction, 0, len(e.txns))
	for _, t := range e.txns {
		if params.From != nil && t.CreatedAt.Before(*params.From) {
			continue
		}
		if params.To != nil && t.CreatedAt.After(*params.To) {
			continue
		}
		filtered = append(filtered, t)
	}
	e.mu.Unlock()

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})

	total := int64(len(filtered))
	start := (params.Page - 1) * params.PageSize
	if start >= len(filtered) || start < 0 {
		return []domain.Transaction{}, total, nil
	}
	end := start + params.PageSize
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end], total, nil
}

// GetAccountSnapshot reads the account and its totals under one lock hold.
func (s *LedgerStore) GetAccountSnapshot(_ context.Context, id uuid.UUID, since, until time.Time) (*ports.AccountSnapshot, error) {
	e := s.entry(id)
	if e == nil {
		return nil, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := &ports.AccountSnapshot{
		Account:          e.account,
		TotalDeposits:    decimal.Zero,
		TotalWithdrawals: decimal.Zero,
		WithdrawnSince:   sumWithdrawals(e.txns, since, until),
		TransactionCount: int64(len(e.txns)),
	}
	for _, t := range e.txns {
		switch t.Type {
		case domain.TransactionTypeDeposit:
			snap.TotalDeposits = snap.TotalDeposits.Add(t.Amount)
		case domain.TransactionTypeWithdrawal:
			snap.TotalWithdrawals = snap.TotalWithdrawals.Add(t.Amount)
		}
	}
	return snap, nil
}

// ledgerTx is valid only while the entry lock is held.
type ledgerTx struct {
	entry   *accountEntry
	pending []domain.Transaction
}

func (t *ledgerTx) AppendTransaction(_ context.Context, txn *domain.Transaction) error {
	if txn.AccountID != t.entry.account.ID {
		return fmt.Errorf("append transaction: account %s is not locked by this commit", txn.AccountID)
	}
	t.pending = append(t.pending, *txn)
	return nil
}

func (t *ledgerTx) SumWithdrawalsSince(_ context.Context, accountID uuid.UUID, since, until time.Time) (decimal.Decimal, error) {
	if accountID != t.entry.account.ID {
		return decimal.Zero, fmt.Errorf("sum withdrawals: account %s is not locked by this commit", accountID)
	}
	return sumWithdrawals(t.entry.txns, since, until).Add(sumWithdrawals(t.pending, since, until)), nil
}

func sumWithdrawals(txns []domain.Transaction, since, until time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txns {
		if t.Type == domain.TransactionTypeWithdrawal && !t.CreatedAt.Before(since) && t.CreatedAt.Before(until) {
			total = total.Add(t.Amount)
		}
	}
	return total
}
