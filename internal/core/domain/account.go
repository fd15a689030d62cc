package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"account-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountStatus is the lifecycle state of an account.
type AccountStatus string

const (
	AccountStatusActive  AccountStatus = "ACTIVE"
	AccountStatusBlocked AccountStatus = "BLOCKED"
	AccountStatusClosed  AccountStatus = "CLOSED"
)

// Account is a holder's digital account. Balance only moves through
// recorded transactions.
type Account struct {
	ID             uuid.UUID       `json:"id"`
	HolderID       string          `json:"holder_id"`
	Number         string          `json:"number"`
	Agency         string          `json:"agency"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	Balance        decimal.Decimal `json:"balance"`
	Status         AccountStatus   `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      *time.Time      `json:"updated_at,omitempty"`
}

// CanTransact returns true only for ACTIVE accounts.
func (a *Account) CanTransact() bool {
	return a.Status == AccountStatusActive
}

// Close moves the account to CLOSED. CLOSED is terminal.
func (a *Account) Close() error {
	if a.Status == AccountStatusClosed {
		return apperror.ErrAlreadyClosed()
	}
	a.Status = AccountStatusClosed
	return nil
}

// Block moves an ACTIVE account to BLOCKED.
func (a *Account) Block() error {
	switch a.Status {
	case AccountStatusBlocked:
		return apperror.ErrAlreadyBlocked()
	case AccountStatusClosed:
		return apperror.ErrAccountClosed()
	}
	a.Status = AccountStatusBlocked
	return nil
}

// Unblock moves a BLOCKED account back to ACTIVE.
func (a *Account) Unblock() error {
	switch a.Status {
	case AccountStatusActive:
		return apperror.ErrAlreadyActive()
	case AccountStatusClosed:
		return apperror.ErrAccountClosed()
	}
	a.Status = AccountStatusActive
	return nil
}

var accountNumberPattern = regexp.MustCompile(`^(\d{2})-(\d{10})-(\d{2})$`)

// NewAccountNumber builds an XX-YYYYYYYYYY-ZZ number whose last group is
// (XX*1000 + YYYYYYYYYY) mod 97. intn must return a value in [0, n).
func NewAccountNumber(intn func(n int) int) string {
	prefix := 10 + intn(90)
	number := 1000 + intn(9000)
	return fmt.Sprintf("%02d-%010d-%02d", prefix, number, accountCheckDigits(prefix, number))
}

// NewAgency builds a four digit agency code.
func NewAgency(intn func(n int) int) string {
	return fmt.Sprintf("%04d", intn(10000))
}

// ValidAccountNumber checks the format and the mod-97 check group.
func ValidAccountNumber(s string) bool {
	m := accountNumberPattern.FindStringSubmatch(s)
	if m == nil {
		return false
	}
	prefix, _ := strconv.Atoi(m[1])
	number, _ := strconv.Atoi(m[2])
	check, _ := strconv.Atoi(m[3])
	return accountCheckDigits(prefix, number) == check
}

func accountCheckDigits(prefix, number int) int {
	return (prefix*1000 + number) % 97
}
