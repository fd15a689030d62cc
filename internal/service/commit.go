package service

import (
	"context"
	"errors"
	"time"

	"account-ledger/internal/core/domain"
	"account-ledger/internal/core/ports"
	"account-ledger/pkg/apperror"

	"github.com/google/uuid"
)

// RetryPolicy bounds how often a conflicting commit is replayed.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// DefaultRetryPolicy is used when no retry settings are configured.
var DefaultRetryPolicy = RetryPolicy{MaxRetries: 3, BaseDelay: 20 * time.Millisecond}

// withRetry runs fn until it succeeds, fails with a non-conflict error, or
// the retry budget runs out. Delays double on every attempt.
func withRetry(ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ports.ErrConflict) || attempt >= policy.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return apperror.ErrStoreConflict(errors.Join(err, ctx.Err()))
		case <-time.After(policy.BaseDelay << attempt):
		}
	}
	return mapStoreError(err)
}

// updateAccount runs one store commit, wrapped in the distributed account
// lock when one is configured.
func updateAccount(
	ctx context.Context,
	store ports.LedgerStore,
	locker ports.AccountLocker,
	id uuid.UUID,
	mutate ports.AccountMutator,
) (*domain.Account, error) {
	var updated *domain.Account
	commit := func(ctx context.Context) error {
		acc, err := store.AtomicUpdateAccount(ctx, id, mutate)
		if err != nil {
			return err
		}
		updated = acc
		return nil
	}

	var err error
	if locker == nil {
		err = commit(ctx)
	} else {
		err = locker.WithLock(ctx, id, commit)
	}
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func mapStoreError(err error) error {
	var appErr *apperror.AppError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, ports.ErrNotFound):
		return apperror.ErrAccountNotFound()
	case errors.Is(err, ports.ErrConflict):
		return apperror.ErrStoreConflict(err)
	default:
		return apperror.InternalError(err)
	}
}
