package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"account-ledger/internal/core/domain"
	"account-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const accountColumns = `id, holder_id, number, agency, initial_balance, balance, status, created_at, updated_at`

// LedgerStore implements ports.LedgerStore on PostgreSQL. Per-account
// serialization comes from SELECT ... FOR UPDATE on the account row.
type LedgerStore struct {
	pool       Pool
	transactor *Transactor
}

// NewLedgerStore creates a new LedgerStore.
func NewLedgerStore(pool Pool) *LedgerStore {
	return &LedgerStore{pool: pool, transactor: NewTransactor(pool)}
}

// CreateAccount inserts a new account row only while its holder is active.
// FOR SHARE conflicts with the row lock HolderRepo.Deactivate takes, so the
// insert waits for a concurrent deactivation and then re-checks active.
func (s *LedgerStore) CreateAccount(ctx context.Context, acc *domain.Account) error {
	query := `INSERT INTO accounts (` + accountColumns + `)
		SELECT $1::uuid, h.cpf, $3::varchar, $4::char(4), $5::numeric, $6::numeric, $7::varchar, $8::timestamptz, $9::timestamptz
		FROM holders h
		WHERE h.cpf = $2 AND h.active
		FOR SHARE`

	tag, err := s.pool.Exec(ctx, query,
		acc.ID, acc.HolderID, acc.Number, acc.Agency,
		acc.InitialBalance, acc.Balance, string(acc.Status),
		acc.CreatedAt, acc.UpdatedAt,
	)
	if err != nil {
		return classify(fmt.Errorf("insert account: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("insert account: %w", ports.ErrHolderInactive)
	}
	return nil
}

// GetAccount fetches an account by id (without locking).
func (s *LedgerStore) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	acc, err := scanAccount(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get account by id: %w", err)
	}
	return acc, nil
}

// GetHolderAccounts lists a holder's accounts in creation order.
func (s *LedgerStore) GetHolderAccounts(ctx context.Context, holderID string) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE holder_id = $1 ORDER BY created_at`

	rows, err := s.pool.Query(ctx, query, holderID)
	if err != nil {
		return nil, fmt.Errorf("list holder accounts: %w", err)
	}
	defer rows.Close()

	accounts := []domain.Account{}
	for rows.Next() {
		var acc domain.Account
		if err := rows.Scan(accountDest(&acc)...); err != nil {
			return nil, fmt.Errorf("scan account row: %w", err)
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate account rows: %w", err)
	}
	return accounts, nil
}

// SumWithdrawalsSince sums withdrawals created in [since, until), outside
// any commit.
func (s *LedgerStore) SumWithdrawalsSince(ctx context.Context, accountID uuid.UUID, since, until time.Time) (decimal.Decimal, error) {
	return sumWithdrawals(ctx, s.pool, accountID, since, until)
}

// AtomicUpdateAccount locks the account row, runs mutate and writes the
// result together with every appended transaction in one DB transaction.
func (s *LedgerStore) AtomicUpdateAccount(ctx context.Context, id uuid.UUID, mutate ports.AccountMutator) (*domain.Account, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, classify(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`
	locked, err := scanAccount(dbTx.QueryRow(ctx, query, id))
	if err != nil {
		return nil, classify(fmt.Errorf("lock account: %w", err))
	}
	if locked == nil {
		return nil, fmt.Errorf("account %s: %w", id, ports.ErrNotFound)
	}

	working := *locked
	if err := mutate(ctx, &ledgerTx{tx: dbTx, accountID: id}, &working); err != nil {
		return nil, err
	}
	if working.Balance.IsNegative() {
		return nil, fmt.Errorf("account %s: balance would become negative", id)
	}

	locked.Balance = working.Balance
	locked.Status = working.Status
	locked.UpdatedAt = working.UpdatedAt

	tag, err := dbTx.Exec(ctx,
		`UPDATE accounts SET balance = $1, status = $2, updated_at = $3 WHERE id = $4`,
		locked.Balance, string(locked.Status), locked.UpdatedAt, id,
	)
	if err != nil {
		return nil, classify(fmt.Errorf("update account: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("account %s: %w", id, ports.ErrNotFound)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, classify(fmt.Errorf("commit tx: %w", err))
	}
	return locked, nil
}

// ListTransactions fetches one page of an account's history, newest first.
func (s *LedgerStore) ListTransactions(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, fmt.Sprintf("account_id = $%d", argIdx))
	args = append(args, params.AccountID)
	argIdx++

	if params.From != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argIdx))
		args = append(args, *params.From)
		argIdx++
	}
	if params.To != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argIdx))
		args = append(args, *params.To)
		argIdx++
	}

	where := "WHERE " + strings.Join(conditions, " AND ")

	var total int64
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM transactions "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	offset := (params.Page - 1) * params.PageSize
	dataQuery := fmt.Sprintf(`SELECT id, account_id, type, amount, created_at
		FROM transactions %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`, where, argIdx, argIdx+1)
	args = append(args, params.PageSize, offset)

	rows, err := s.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	txns := []domain.Transaction{}
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Type, &t.Amount, &t.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan transaction row: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return txns, total, nil
}

// GetAccountSnapshot reads the account and its history totals in a single
// statement, so the totals and the balance come from the same snapshot.
func (s *LedgerStore) GetAccountSnapshot(ctx context.Context, id uuid.UUID, since, until time.Time) (*ports.AccountSnapshot, error) {
	query := `SELECT a.id, a.holder_id, a.number, a.agency, a.initial_balance, a.balance, a.status, a.created_at, a.updated_at,
		COALESCE(SUM(t.amount) FILTER (WHERE t.type = 'DEPOSIT'), 0) AS total_deposits,
		COALESCE(SUM(t.amount) FILTER (WHERE t.type = 'WITHDRAWAL'), 0) AS total_withdrawals,
		COALESCE(SUM(t.amount) FILTER (WHERE t.type = 'WITHDRAWAL' AND t.created_at >= $2 AND t.created_at < $3), 0) AS withdrawn_since,
		COUNT(t.id) AS transaction_count
		FROM accounts a
		LEFT JOIN transactions t ON t.account_id = a.id
		WHERE a.id = $1
		GROUP BY a.id`

	snap := &ports.AccountSnapshot{}
	dest := append(accountDest(&snap.Account),
		&snap.TotalDeposits, &snap.TotalWithdrawals, &snap.WithdrawnSince, &snap.TransactionCount,
	)
	err := s.pool.QueryRow(ctx, query, id, since, until).Scan(dest...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account snapshot: %w", err)
	}
	return snap, nil
}

// ledgerTx exposes commit-scoped reads and writes for the locked account.
type ledgerTx struct {
	tx        pgx.Tx
	accountID uuid.UUID
}

func (t *ledgerTx) AppendTransaction(ctx context.Context, txn *domain.Transaction) error {
	if txn.AccountID != t.accountID {
		return fmt.Errorf("append transaction: account %s is not locked by this commit", txn.AccountID)
	}
	_, err := t.tx.Exec(ctx,
		`INSERT INTO transactions (id, account_id, type, amount, created_at) VALUES ($1, $2, $3, $4, $5)`,
		txn.ID, txn.AccountID, string(txn.Type), txn.Amount, txn.CreatedAt,
	)
	if err != nil {
		return classify(fmt.Errorf("insert transaction: %w", err))
	}
	return nil
}

func (t *ledgerTx) SumWithdrawalsSince(ctx context.Context, accountID uuid.UUID, since, until time.Time) (decimal.Decimal, error) {
	if accountID != t.accountID {
		return decimal.Zero, fmt.Errorf("sum withdrawals: account %s is not locked by this commit", accountID)
	}
	sum, err := sumWithdrawals(ctx, t.tx, accountID, since, until)
	if err != nil {
		return decimal.Zero, classify(err)
	}
	return sum, nil
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func sumWithdrawals(ctx context.Context, q rowQuerier, accountID uuid.UUID, since, until time.Time) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM transactions
		WHERE account_id = $1 AND type = 'WITHDRAWAL' AND created_at >= $2 AND created_at < $3`

	var sum decimal.Decimal
	if err := q.QueryRow(ctx, query, accountID, since, until).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("sum withdrawals: %w", err)
	}
	return sum, nil
}

func accountDest(acc *domain.Account) []any {
	return []any{
		&acc.ID, &acc.HolderID, &acc.Number, &acc.Agency,
		&acc.InitialBalance, &acc.Balance, &acc.Status,
		&acc.CreatedAt, &acc.UpdatedAt,
	}
}

// scanAccount returns (nil, nil) when the row does not exist.
func scanAccount(row pgx.Row) (*domain.Account, error) {
	acc := &domain.Account{}
	if err := row.Scan(accountDest(acc)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return acc, nil
}
