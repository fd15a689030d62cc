package handler

import (
	"time"

	"account-ledger/internal/adapter/http/dto"
	"account-ledger/internal/adapter/http/middleware"
	"account-ledger/internal/core/domain"
	"account-ledger/internal/core/ports"
	"account-ledger/pkg/apperror"
	"account-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	// HeaderIdempotencyKey lets clients retry a transaction safely.
	HeaderIdempotencyKey = "Idempotency-Key"

	maxIdempotencyKeyLen = 128
	defaultPageSize      = 20
	dateOnlyLayout       = "2006-01-02"
)

// TransactionHandler handles deposits, withdrawals, history and statements.
type TransactionHandler struct {
	txSvc        ports.TransactionService
	reportingSvc ports.ReportingService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(txSvc ports.TransactionService, reportingSvc ports.ReportingService) *TransactionHandler {
	return &TransactionHandler{txSvc: txSvc, reportingSvc: reportingSvc}
}

// Record handles POST /api/v1/accounts/:id/transactions.
func (h *TransactionHandler) Record(c *gin.Context) {
	id, ok := accountIDParam(c)
	if !ok {
		return
	}

	var req dto.RecordTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	key := c.GetHeader(HeaderIdempotencyKey)
	if len(key) > maxIdempotencyKeyLen {
		response.Error(c, apperror.Validation("Idempotency-Key must be at most 128 characters"))
		return
	}

	txn, err := h.txSvc.Record(c.Request.Context(), ports.RecordTransactionRequest{
		AccountID:      id,
		Type:           domain.TransactionType(req.Type),
		Amount:         *req.Amount,
		IdempotencyKey: key,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Set(middleware.CtxResourceID, txn.ID.String())
	response.Created(c, toTransactionResponse(txn))
}

// List handles GET /api/v1/accounts/:id/transactions.
// Dates accept RFC 3339 or YYYY-MM-DD; a bare end date covers the whole day.
func (h *TransactionHandler) List(c *gin.Context) {
	id, ok := accountIDParam(c)
	if !ok {
		return
	}

	var q dto.TransactionListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	if q.Page == 0 {
		q.Page = 1
	}
	if q.PageSize == 0 {
		q.PageSize = defaultPageSize
	}

	params := ports.TransactionListParams{
		AccountID: id,
		Page:      q.Page,
		PageSize:  q.PageSize,
	}
	var err error
	if params.From, err = parseDateParam(q.StartDate, false); err != nil {
		response.Error(c, apperror.Validation("start_date must be RFC 3339 or YYYY-MM-DD"))
		return
	}
	if params.To, err = parseDateParam(q.EndDate, true); err != nil {
		response.Error(c, apperror.Validation("end_date must be RFC 3339 or YYYY-MM-DD"))
		return
	}

	txns, total, err := h.reportingSvc.ListTransactions(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.TransactionResponse, 0, len(txns))
	for i := range txns {
		items = append(items, toTransactionResponse(&txns[i]))
	}
	response.Paged(c, items, q.Page, q.PageSize, total)
}

// Statement handles GET /api/v1/accounts/:id/statement.
func (h *TransactionHandler) Statement(c *gin.Context) {
	id, ok := accountIDParam(c)
	if !ok {
		return
	}

	st, err := h.reportingSvc.GetStatement(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toStatementResponse(st))
}

// parseDateParam returns nil for an empty value. Date-only values are read
// in UTC; with endOfDay set they extend to the last instant of that day.
func parseDateParam(raw string, endOfDay bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateOnlyLayout, raw)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
