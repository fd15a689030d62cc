package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"account-ledger/internal/core/domain"
	"account-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type auditRoute struct {
	method string
	route  string
}

type auditTarget struct {
	action       domain.AuditAction
	resourceType string
}

var auditRoutes = map[auditRoute]auditTarget{
	{http.MethodPost, "/api/v1/holders"}:                          {domain.AuditActionCreateHolder, "holder"},
	{http.MethodDelete, "/api/v1/holders/:cpf"}:                   {domain.AuditActionDeactivateHolder, "holder"},
	{http.MethodPost, "/api/v1/holders/:cpf/accounts"}:            {domain.AuditActionOpenAccount, "account"},
	{http.MethodPut, "/api/v1/holders/:cpf/accounts/:id/close"}:   {domain.AuditActionCloseAccount, "account"},
	{http.MethodPut, "/api/v1/holders/:cpf/accounts/:id/block"}:   {domain.AuditActionBlockAccount, "account"},
	{http.MethodPut, "/api/v1/holders/:cpf/accounts/:id/unblock"}: {domain.AuditActionUnblockAccount, "account"},
	{http.MethodPost, "/api/v1/accounts/:id/transactions"}:        {domain.AuditActionTransaction, "transaction"},
}

// AuditLog creates an audit middleware that logs successful write operations.
// Routes are matched on the registered pattern, so path parameters never
// reach the audit record in clear.
func AuditLog(auditSvc ports.AuditService, fp ports.Fingerprinter) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only audit successful write operations (status 2xx)
		if c.Writer.Status() < 200 || c.Writer.Status() >= 300 {
			return
		}

		target, ok := auditRoutes[auditRoute{c.Request.Method, c.FullPath()}]
		if !ok {
			return
		}

		entry := &domain.AuditLog{
			ID:           uuid.New(),
			Action:       target.action,
			ResourceType: target.resourceType,
			ResourceID:   c.Param("id"),
			IPAddress:    c.ClientIP(),
			CreatedAt:    time.Now().UTC(),
		}
		if id := c.GetString(CtxResourceID); id != "" {
			entry.ResourceID = id
		}

		cpf := c.Param("cpf")
		if v := c.GetString(CtxHolderCPF); v != "" {
			cpf = v
		}
		if cpf != "" {
			entry.HolderFingerprint = fp.Fingerprint(domain.NormalizeCPF(cpf))
		}

		details, _ := json.Marshal(map[string]interface{}{
			"method": c.Request.Method,
			"route":  c.FullPath(),
			"status": c.Writer.Status(),
		})
		entry.Details = string(details)

		auditSvc.Log(c.Request.Context(), entry)
	}
}
