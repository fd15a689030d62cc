package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"account-ledger/config"
	httpHandler "account-ledger/internal/adapter/http/handler"
	memStorage "account-ledger/internal/adapter/storage/memory"
	pgStorage "account-ledger/internal/adapter/storage/postgres"
	redisStorage "account-ledger/internal/adapter/storage/redis"
	"account-ledger/internal/core/domain"
	"account-ledger/internal/core/ports"
	"account-ledger/internal/service"
	"account-ledger/migrations"
	"account-ledger/pkg/logger"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Str("storage", cfg.Storage.Driver).
		Msg("Starting Account Ledger")

	ctx := context.Background()

	dailyLimit, loc, err := cfg.Ledger.Resolve()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid ledger configuration")
	}
	retry := service.RetryPolicy{
		MaxRetries: cfg.Ledger.MaxCommitRetries,
		BaseDelay:  cfg.Ledger.RetryBaseDelay,
	}

	var (
		store          ports.LedgerStore
		holderRepo     ports.HolderRepository
		auditRepo      ports.AuditRepository
		healthCheckers []ports.HealthChecker
	)

	// Initialize storage
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		if cfg.Storage.MigrateOnStart {
			if err := pgStorage.RunMigrations(migrations.FS, cfg.Database.MigrationURL(), log); err != nil {
				log.Fatal().Err(err).Msg("Failed to run migrations")
			}
		}

		pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()
		log.Info().Msg("PostgreSQL connected")

		store = pgStorage.NewLedgerStore(pool)
		holderRepo = pgStorage.NewHolderRepo(pool)
		auditRepo = pgStorage.NewAuditRepo(pool)
		healthCheckers = append(healthCheckers, pgStorage.NewHealthCheck(pool))
	case config.DriverMemory:
		holders := memStorage.NewHolderRepo()
		store = memStorage.NewLedgerStore(memStorage.WithHolders(holders))
		holderRepo = holders
		log.Warn().Msg("Using in-memory storage, data is lost on exit")
	}

	// Initialize Redis client. It is optional only with in-memory storage.
	var rdb *goredis.Client
	rdb, err = redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		if cfg.Storage.Driver != config.DriverMemory {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		log.Warn().Err(err).Msg("Redis unavailable, running without idempotency cache, rate limiting and account lock")
		rdb = nil
	} else {
		defer rdb.Close()
		log.Info().Msg("Redis connected")
		healthCheckers = append(healthCheckers, redisStorage.NewHealthCheck(rdb))
	}

	var (
		idempotencyCache ports.IdempotencyCache
		locker           ports.AccountLocker
		rateLimitStore   *redisStorage.RateLimitStore
	)
	if rdb != nil {
		idempotencyCache = redisStorage.NewIdempotencyCache(rdb)
		rateLimitStore = redisStorage.NewRateLimitStore(rdb)
		if cfg.Lock.Enabled {
			locker = redisStorage.NewAccountLocker(rdb, redisStorage.LockOptions{
				Expiry:     cfg.Lock.Expiry,
				Tries:      cfg.Lock.Tries,
				RetryDelay: cfg.Lock.RetryDelay,
			}, logger.Component(log, "account_lock"))
			log.Info().Msg("Redis account lock enabled")
		}
	}

	fingerprinter, err := service.NewBlake2bFingerprinter(cfg.Audit.FingerprintKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize fingerprinter")
	}

	// Initialize business services
	engine := service.NewTransactionEngine(store, locker, service.EngineConfig{
		MaxDailyWithdrawal: dailyLimit,
		Location:           loc,
		Retry:              retry,
	})
	txSvc := service.NewTransactionService(engine, idempotencyCache, logger.Component(log, "transaction"))
	accountSvc := service.NewAccountService(store, holderRepo, locker, retry, logger.Component(log, "account"))
	holderSvc := service.NewHolderService(holderRepo, store, accountSvc, fingerprinter, logger.Component(log, "holder"))
	reportingSvc := service.NewReportingService(store, domain.WithdrawalPolicy{MaxDaily: dailyLimit}, loc)

	var auditSvc ports.AuditService
	if auditRepo != nil {
		auditSvc = service.NewAuditService(auditRepo, logger.Component(log, "audit"))
	}

	log.Info().
		Str("daily_limit", dailyLimit.String()).
		Str("timezone", loc.String()).
		Int("max_commit_retries", retry.MaxRetries).
		Msg("Ledger configured")

	// Setup Gin router with all routes
	gin.SetMode(cfg.Server.Mode)
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		HolderSvc:      holderSvc,
		AccountSvc:     accountSvc,
		TxSvc:          txSvc,
		ReportingSvc:   reportingSvc,
		RateLimitStore: rateLimitStore,
		RateLimit:      cfg.RateLimit,
		HealthCheckers: healthCheckers,
		AuditSvc:       auditSvc,
		Fingerprinter:  fingerprinter,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
