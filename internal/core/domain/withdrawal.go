package domain

import (
	"time"

	"account-ledger/pkg/apperror"

	"github.com/shopspring/decimal"
)

// WithdrawalPolicy decides whether a withdrawal may proceed. MaxDaily is the
// ceiling on the sum of withdrawals within one local day.
type WithdrawalPolicy struct {
	MaxDaily decimal.Decimal
}

// Evaluate checks, in order, that amount is positive, that balance covers it
// and that priorToday+amount stays within MaxDaily. The first failure wins.
func (p WithdrawalPolicy) Evaluate(balance, amount, priorToday decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperror.ErrInvalidAmount()
	}
	if balance.LessThan(amount) {
		return apperror.ErrInsufficientBalance()
	}
	if priorToday.Add(amount).GreaterThan(p.MaxDaily) {
		return apperror.ErrDailyLimitExceeded()
	}
	return nil
}

// Remaining is how much more can be withdrawn today, floored at zero.
func (p WithdrawalPolicy) Remaining(priorToday decimal.Decimal) decimal.Decimal {
	left := p.MaxDaily.Sub(priorToday)
	if left.IsNegative() {
		return decimal.Zero
	}
	return left
}

// StartOfDay returns local midnight of now's calendar day in loc.
func StartOfDay(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// DayBounds returns the half-open window [midnight, next midnight) holding
// now in loc. The end is computed by calendar so DST days keep their length.
func DayBounds(now time.Time, loc *time.Location) (start, end time.Time) {
	start = StartOfDay(now, loc)
	return start, start.AddDate(0, 0, 1)
}
