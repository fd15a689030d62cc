package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a balance movement.
type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "DEPOSIT"
	TransactionTypeWithdrawal TransactionType = "WITHDRAWAL"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	return t == TransactionTypeDeposit || t == TransactionTypeWithdrawal
}

// Transaction is an immutable ledger entry. Amount is always positive; the
// type carries the sign.
type Transaction struct {
	ID        uuid.UUID       `json:"id"`
	AccountID uuid.UUID       `json:"account_id"`
	Type      TransactionType `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

// Delta returns the signed effect of the transaction on the balance.
func (t *Transaction) Delta() decimal.Decimal {
	if t.Type == TransactionTypeWithdrawal {
		return t.Amount.Neg()
	}
	return t.Amount
}

// FoldBalance replays txs on top of initial. A consistent account always
// has Balance == FoldBalance(InitialBalance, history).
func FoldBalance(initial decimal.Decimal, txs []Transaction) decimal.Decimal {
	balance := initial
	for i := range txs {
		balance = balance.Add(txs[i].Delta())
	}
	return balance
}
