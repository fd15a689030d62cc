package redis

import (
	"context"
	"time"

	"account-ledger/pkg/apperror"

	"github.com/go-redsync/redsync/v4"
	rsgoredis "github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// LockOptions tunes the per-account mutex.
type LockOptions struct {
	Expiry     time.Duration
	Tries      int
	RetryDelay time.Duration
}

// AccountLocker implements ports.AccountLocker with a redsync mutex per
// account, so instances sharing one store serialize their commits.
type AccountLocker struct {
	rs     *redsync.Redsync
	opts   LockOptions
	prefix string
	log    zerolog.Logger
}

// NewAccountLocker creates a redsync-backed account locker.
func NewAccountLocker(client goredis.UniversalClient, opts LockOptions, log zerolog.Logger) *AccountLocker {
	return &AccountLocker{
		rs:     redsync.New(rsgoredis.NewPool(client)),
		opts:   opts,
		prefix: "lock:account:",
		log:    log,
	}
}

// WithLock runs fn while holding the account's mutex. fn's error is
// returned unchanged; failing to acquire the mutex yields SYS_003.
func (l *AccountLocker) WithLock(ctx context.Context, accountID uuid.UUID, fn func(ctx context.Context) error) error {
	name := l.prefix + accountID.String()
	mutex := l.rs.NewMutex(name,
		redsync.WithExpiry(l.opts.Expiry),
		redsync.WithTries(l.opts.Tries),
		redsync.WithRetryDelay(l.opts.RetryDelay),
	)

	if err := mutex.LockContext(ctx); err != nil {
		return apperror.ErrLockTimeout(err)
	}
	defer func() {
		// Use a fresh context so a cancelled request still releases the lock.
		if ok, err := mutex.UnlockContext(context.WithoutCancel(ctx)); !ok || err != nil {
			l.log.Warn().Err(err).Str("lock", name).Bool("unlock_ok", ok).Msg("failed to release account lock")
		}
	}()

	return fn(ctx)
}
