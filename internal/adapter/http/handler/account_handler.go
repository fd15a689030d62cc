package handler

import (
	"context"

	"account-ledger/internal/adapter/http/dto"
	"account-ledger/internal/adapter/http/middleware"
	"account-ledger/internal/core/domain"
	"account-ledger/internal/core/ports"
	"account-ledger/pkg/apperror"
	"account-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountHandler handles account opening, lookup and lifecycle endpoints.
type AccountHandler struct {
	accountSvc ports.AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountSvc ports.AccountService) *AccountHandler {
	return &AccountHandler{accountSvc: accountSvc}
}

// Open handles POST /api/v1/holders/:cpf/accounts.
func (h *AccountHandler) Open(c *gin.Context) {
	var req dto.OpenAccountRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, apperror.Validation(err.Error()))
			return
		}
	}

	initial := decimal.Zero
	if req.InitialBalance != nil {
		initial = *req.InitialBalance
	}

	acc, err := h.accountSvc.Open(c.Request.Context(), c.Param("cpf"), initial)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Set(middleware.CtxResourceID, acc.ID.String())
	response.Created(c, toAccountResponse(acc))
}

// ListByHolder handles GET /api/v1/holders/:cpf/accounts.
func (h *AccountHandler) ListByHolder(c *gin.Context) {
	accounts, err := h.accountSvc.ListByHolder(c.Request.Context(), c.Param("cpf"))
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.AccountResponse, 0, len(accounts))
	for i := range accounts {
		items = append(items, toAccountResponse(&accounts[i]))
	}
	response.OK(c, items)
}

// Get handles GET /api/v1/holders/:cpf/accounts/:id.
func (h *AccountHandler) Get(c *gin.Context) {
	id, ok := accountIDParam(c)
	if !ok {
		return
	}

	acc, err := h.accountSvc.Get(c.Request.Context(), c.Param("cpf"), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toAccountResponse(acc))
}

// Close handles PUT /api/v1/holders/:cpf/accounts/:id/close.
func (h *AccountHandler) Close(c *gin.Context) {
	h.transition(c, h.accountSvc.Close)
}

// Block handles PUT /api/v1/holders/:cpf/accounts/:id/block.
func (h *AccountHandler) Block(c *gin.Context) {
	h.transition(c, h.accountSvc.Block)
}

// Unblock handles PUT /api/v1/holders/:cpf/accounts/:id/unblock.
func (h *AccountHandler) Unblock(c *gin.Context) {
	h.transition(c, h.accountSvc.Unblock)
}

// transition applies a lifecycle change to an account owned by :cpf. An
// account of another holder is reported as not found.
func (h *AccountHandler) transition(c *gin.Context, apply func(context.Context, uuid.UUID) (*domain.Account, error)) {
	id, ok := accountIDParam(c)
	if !ok {
		return
	}

	if _, err := h.accountSvc.Get(c.Request.Context(), c.Param("cpf"), id); err != nil {
		response.Error(c, err)
		return
	}

	acc, err := apply(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toAccountResponse(acc))
}

// accountIDParam parses :id, writing a validation error when it is not a UUID.
func accountIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("account id must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}
