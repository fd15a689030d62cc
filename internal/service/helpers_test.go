package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"account-ledger/internal/adapter/storage/memory"
	"account-ledger/internal/core/domain"
	"account-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCPF = "52998224725"

func newTestLogger() zerolog.Logger {
	return zerolog.Nop()
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertAppError(t *testing.T, err error, expectedCode string) {
	t.Helper()
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, expectedCode, appErr.Code)
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(expected).Equal(actual), "expected %s, got %s", expected, actual)
}

// testClock is a settable clock shared between engine and test.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(now time.Time) *testClock {
	return &testClock{now: now}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func seedAccount(t *testing.T, store *memory.LedgerStore, balance string, status domain.AccountStatus) *domain.Account {
	t.Helper()
	acc := &domain.Account{
		ID:             uuid.New(),
		HolderID:       testCPF,
		Number:         "10-0000001000-39",
		Agency:         "0001",
		InitialBalance: dec(balance),
		Balance:        dec(balance),
		Status:         status,
		CreatedAt:      time.Now().UTC(),
	}
	require.NoError(t, store.CreateAccount(context.Background(), acc))
	return acc
}
