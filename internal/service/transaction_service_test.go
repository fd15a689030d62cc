package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"account-ledger/internal/core/domain"
	"account-ledger/internal/core/ports"
	"account-ledger/internal/core/ports/mocks"
	"account-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type transactionTestDeps struct {
	svc    *TransactionServiceImpl
	engine *mocks.MockTransactionEngine
	cache  *mocks.MockIdempotencyCache
	ctrl   *gomock.Controller
}

func setupTransactionService(t *testing.T) *transactionTestDeps {
	ctrl := gomock.NewController(t)
	d := &transactionTestDeps{
		engine: mocks.NewMockTransactionEngine(ctrl),
		cache:  mocks.NewMockIdempotencyCache(ctrl),
		ctrl:   ctrl,
	}
	d.svc = NewTransactionService(d.engine, d.cache, newTestLogger())
	return d
}

func sampleTransaction(accountID uuid.UUID) *domain.Transaction {
	return &domain.Transaction{
		ID:        uuid.New(),
		AccountID: accountID,
		Type:      domain.TransactionTypeDeposit,
		Amount:    dec("100.50"),
		CreatedAt: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestTransactionService_Record_WithoutIdempotencyKey(t *testing.T) {
	d := setupTransactionService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	accountID := uuid.New()
	want := sampleTransaction(accountID)

	d.engine.EXPECT().Record(ctx, accountID, domain.TransactionTypeDeposit, dec("100.50")).Return(want, nil)

	got, err := d.svc.Record(ctx, ports.RecordTransactionRequest{
		AccountID: accountID,
		Type:      domain.TransactionTypeDeposit,
		Amount:    dec("100.50"),
	})
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
}

func TestTransactionService_Record_RejectsBeforeEngine(t *testing.T) {
	tests := []struct {
		name    string
		kind    domain.TransactionType
		amount  string
		errCode string
	}{
		{"unknown type", domain.TransactionType("TRANSFER"), "10", "TXN_004"},
		{"too many decimals", domain.TransactionTypeDeposit, "1.123456", "REQ_001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := setupTransactionService(t)
			defer d.ctrl.Finish()

			_, err := d.svc.Record(context.Background(), ports.RecordTransactionRequest{
				AccountID:      uuid.New(),
				Type:           tt.kind,
				Amount:         dec(tt.amount),
				IdempotencyKey: "key-1",
			})
			assertAppError(t, err, tt.errCode)
		})
	}
}

func TestTransactionService_Record_IdempotentCacheHit(t *testing.T) {
	d := setupTransactionService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	accountID := uuid.New()
	cachedTx := sampleTransaction(accountID)
	cachedJSON, _ := json.Marshal(cachedTx)
	key := domain.BuildIdempotencyKey(accountID, "req-1")

	d.cache.EXPECT().Get(ctx, key).Return(cachedJSON, nil)

	got, err := d.svc.Record(ctx, ports.RecordTransactionRequest{
		AccountID:      accountID,
		Type:           domain.TransactionTypeDeposit,
		Amount:         dec("100.50"),
		IdempotencyKey: "req-1",
	})
	require.NoError(t, err)
	assert.Equal(t, cachedTx.ID, got.ID)
	assertDecimal(t, "100.50", got.Amount)
}

func TestTransactionService_Record_ReservesAndCaches(t *testing.T) {
	d := setupTransactionService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	accountID := uuid.New()
	want := sampleTransaction(accountID)
	key := domain.BuildIdempotencyKey(accountID, "req-2")

	gomock.InOrder(
		d.cache.EXPECT().Get(ctx, key).Return(nil, nil),
		d.cache.EXPECT().Reserve(ctx, key, reservationTTL).Return(true, nil),
		d.engine.EXPECT().Record(ctx, accountID, domain.TransactionTypeDeposit, gomock.Any()).Return(want, nil),
		d.cache.EXPECT().Set(ctx, key, gomock.Any(), idempotencyTTL).
			DoAndReturn(func(_ context.Context, _ string, value []byte, _ time.Duration) error {
				var cached domain.Transaction
				require.NoError(t, json.Unmarshal(value, &cached))
				assert.Equal(t, want.ID, cached.ID)
				return nil
			}),
	)

	got, err := d.svc.Record(ctx, ports.RecordTransactionRequest{
		AccountID:      accountID,
		Type:           domain.TransactionTypeDeposit,
		Amount:         dec("100.50"),
		IdempotencyKey: "req-2",
	})
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
}

func TestTransactionService_Record_InFlightDuplicate(t *testing.T) {
	d := setupTransactionService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	accountID := uuid.New()
	key := domain.BuildIdempotencyKey(accountID, "req-3")

	d.cache.EXPECT().Get(ctx, key).Return(nil, nil).Times(2)
	d.cache.EXPECT().Reserve(ctx, key, reservationTTL).Return(false, nil)

	_, err := d.svc.Record(ctx, ports.RecordTransactionRequest{
		AccountID:      accountID,
		Type:           domain.TransactionTypeWithdrawal,
		Amount:         dec("10"),
		IdempotencyKey: "req-3",
	})
	assertAppError(t, err, "TXN_005")
}

func TestTransactionService_Record_LostReservationReturnsWinner(t *testing.T) {
	d := setupTransactionService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	accountID := uuid.New()
	winner := sampleTransaction(accountID)
	winnerJSON, _ := json.Marshal(winner)
	key := domain.BuildIdempotencyKey(accountID, "req-4")

	gomock.InOrder(
		d.cache.EXPECT().Get(ctx, key).Return(nil, nil),
		d.cache.EXPECT().Reserve(ctx, key, reservationTTL).Return(false, nil),
		d.cache.EXPECT().Get(ctx, key).Return(winnerJSON, nil),
	)

	got, err := d.svc.Record(ctx, ports.RecordTransactionRequest{
		AccountID:      accountID,
		Type:           domain.TransactionTypeDeposit,
		Amount:         dec("100.50"),
		IdempotencyKey: "req-4",
	})
	require.NoError(t, err)
	assert.Equal(t, winner.ID, got.ID)
}

func TestTransactionService_Record_ReleasesReservationOnFailure(t *testing.T) {
	d := setupTransactionService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	accountID := uuid.New()
	key := domain.BuildIdempotencyKey(accountID, "req-5")

	gomock.InOrder(
		d.cache.EXPECT().Get(ctx, key).Return(nil, nil),
		d.cache.EXPECT().Reserve(ctx, key, reservationTTL).Return(true, nil),
		d.engine.EXPECT().Record(ctx, accountID, domain.TransactionTypeWithdrawal, gomock.Any()).
			Return(nil, apperror.ErrInsufficientBalance()),
		d.cache.EXPECT().Release(ctx, key).Return(nil),
	)

	_, err := d.svc.Record(ctx, ports.RecordTransactionRequest{
		AccountID:      accountID,
		Type:           domain.TransactionTypeWithdrawal,
		Amount:         dec("10"),
		IdempotencyKey: "req-5",
	})
	assertAppError(t, err, "TXN_002")
}

func TestTransactionService_Record_CacheDownFallsThrough(t *testing.T) {
	d := setupTransactionService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	accountID := uuid.New()
	want := sampleTransaction(accountID)

	d.cache.EXPECT().Get(ctx, gomock.Any()).Return(nil, errors.New("redis down"))
	d.engine.EXPECT().Record(ctx, accountID, domain.TransactionTypeDeposit, gomock.Any()).Return(want, nil)

	got, err := d.svc.Record(ctx, ports.RecordTransactionRequest{
		AccountID:      accountID,
		Type:           domain.TransactionTypeDeposit,
		Amount:         dec("100.50"),
		IdempotencyKey: "req-6",
	})
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
}

func TestTransactionService_Record_NilCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	engine := mocks.NewMockTransactionEngine(ctrl)
	svc := NewTransactionService(engine, nil, newTestLogger())
	accountID := uuid.New()

	engine.EXPECT().Record(gomock.Any(), accountID, domain.TransactionTypeDeposit, gomock.Any()).
		Return(sampleTransaction(accountID), nil)

	_, err := svc.Record(context.Background(), ports.RecordTransactionRequest{
		AccountID:      accountID,
		Type:           domain.TransactionTypeDeposit,
		Amount:         dec("1"),
		IdempotencyKey: "ignored",
	})
	require.NoError(t, err)
}
