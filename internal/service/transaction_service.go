package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"account-ledger/internal/core/domain"
	"account-ledger/internal/core/ports"
	"account-ledger/pkg/apperror"

	"github.com/rs/zerolog"
)

const (
	idempotencyTTL = 24 * time.Hour
	reservationTTL = 30 * time.Second
	// maxAmountScale matches the NUMERIC(20,5) amount columns.
	maxAmountScale = 5
)

// TransactionServiceImpl implements ports.TransactionService. It adds
// request-level idempotency and logging around the engine.
type TransactionServiceImpl struct {
	engine ports.TransactionEngine
	cache  ports.IdempotencyCache
	log    zerolog.Logger
}

// NewTransactionService creates a new TransactionServiceImpl. cache may be nil,
// in which case Idempotency-Key headers are ignored.
func NewTransactionService(engine ports.TransactionEngine, cache ports.IdempotencyCache, log zerolog.Logger) *TransactionServiceImpl {
	return &TransactionServiceImpl{
		engine: engine,
		cache:  cache,
		log:    log,
	}
}

// Record validates the request shape, then records it at most once per
// idempotency key.
func (s *TransactionServiceImpl) Record(ctx context.Context, req ports.RecordTransactionRequest) (*domain.Transaction, error) {
	if !req.Type.Valid() {
		return nil, apperror.ErrInvalidTransactionType()
	}
	if req.Amount.Exponent() < -maxAmountScale {
		return nil, apperror.Validation(fmt.Sprintf("amount supports at most %d decimal places", maxAmountScale))
	}

	if req.IdempotencyKey == "" || s.cache == nil {
		return s.record(ctx, req)
	}

	key := domain.BuildIdempotencyKey(req.AccountID, req.IdempotencyKey)

	cached, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("redis idempotency check failed, recording without dedup")
		return s.record(ctx, req)
	}
	if cached != nil {
		return s.unmarshalCachedTransaction(cached)
	}

	reserved, err := s.cache.Reserve(ctx, key, reservationTTL)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("idempotency reservation failed, recording without dedup")
		return s.record(ctx, req)
	}
	if !reserved {
		// Lost the race: either the winner already finished or it is still running.
		if cached, err := s.cache.Get(ctx, key); err == nil && cached != nil {
			return s.unmarshalCachedTransaction(cached)
		}
		return nil, apperror.ErrRequestInProgress()
	}

	txn, err := s.record(ctx, req)
	if err != nil {
		if relErr := s.cache.Release(ctx, key); relErr != nil {
			s.log.Warn().Err(relErr).Str("key", key).Msg("failed to release idempotency reservation")
		}
		return nil, err
	}

	respJSON, err := json.Marshal(txn)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("marshal response: %w", err))
	}
	if err := s.cache.Set(ctx, key, respJSON, idempotencyTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to cache idempotency in redis")
	}

	return txn, nil
}

func (s *TransactionServiceImpl) record(ctx context.Context, req ports.RecordTransactionRequest) (*domain.Transaction, error) {
	txn, err := s.engine.Record(ctx, req.AccountID, req.Type, req.Amount)
	if err != nil {
		if apperror.HasCode(err, "SYS_001") || apperror.HasCode(err, "SYS_002") {
			s.log.Error().Err(err).
				Str("account_id", req.AccountID.String()).
				Str("type", string(req.Type)).
				Msg("transaction commit failed")
		}
		return nil, err
	}

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("account_id", txn.AccountID.String()).
		Str("type", string(txn.Type)).
		Str("amount", txn.Amount.String()).
		Msg("transaction recorded")

	return txn, nil
}

func (s *TransactionServiceImpl) unmarshalCachedTransaction(data []byte) (*domain.Transaction, error) {
	var txn domain.Transaction
	if err := json.Unmarshal(data, &txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("unmarshal cached tx: %w", err))
	}
	return &txn, nil
}
