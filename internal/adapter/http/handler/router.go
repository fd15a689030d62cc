package handler

import (
	"account-ledger/config"
	"account-ledger/internal/adapter/http/middleware"
	redisStore "account-ledger/internal/adapter/storage/redis"
	"account-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	HolderSvc      ports.HolderService
	AccountSvc     ports.AccountService
	TxSvc          ports.TransactionService
	ReportingSvc   ports.ReportingService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	RateLimit      config.RateLimitConfig
	HealthCheckers []ports.HealthChecker
	AuditSvc       ports.AuditService  // nil = audit logging disabled
	Fingerprinter  ports.Fingerprinter // required when AuditSvc is set
	MaxBodyBytes   int64
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
// The caller picks the gin mode.
func SetupRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	maxBody := deps.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20
	}

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(maxBody))

	// Audit logging (after response)
	if deps.AuditSvc != nil && deps.Fingerprinter != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc, deps.Fingerprinter))
	}

	// Deep health check, pings PostgreSQL and Redis
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	rules := middleware.RateLimitRules(deps.RateLimit)

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil || !deps.RateLimit.Enabled {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rules[group], deps.Logger)
	}
	read, write := rl(middleware.RateLimitGroupRead), rl(middleware.RateLimitGroupWrite)

	holderHandler := NewHolderHandler(deps.HolderSvc)
	accountHandler := NewAccountHandler(deps.AccountSvc)
	txHandler := NewTransactionHandler(deps.TxSvc, deps.ReportingSvc)

	v1 := r.Group("/api/v1")

	holders := v1.Group("/holders")
	{
		holders.POST("", write, holderHandler.Create)
		holders.GET("/:cpf", read, holderHandler.Get)
		holders.DELETE("/:cpf", write, holderHandler.Deactivate)
		holders.GET("/:cpf/accounts", read, accountHandler.ListByHolder)
		holders.POST("/:cpf/accounts", write, accountHandler.Open)
		holders.GET("/:cpf/accounts/:id", read, accountHandler.Get)
		holders.PUT("/:cpf/accounts/:id/close", write, accountHandler.Close)
		holders.PUT("/:cpf/accounts/:id/block", write, accountHandler.Block)
		holders.PUT("/:cpf/accounts/:id/unblock", write, accountHandler.Unblock)
	}

	accounts := v1.Group("/accounts/:id")
	{
		accounts.POST("/transactions", write, txHandler.Record)
		accounts.GET("/transactions", read, txHandler.List)
		accounts.GET("/statement", read, txHandler.Statement)
	}

	return r
}
