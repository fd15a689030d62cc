package handler

import (
	"account-ledger/internal/adapter/http/dto"
	"account-ledger/internal/adapter/http/middleware"
	"account-ledger/internal/core/ports"
	"account-ledger/pkg/apperror"
	"account-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// HolderHandler handles holder registration, lookup and deactivation.
type HolderHandler struct {
	holderSvc ports.HolderService
}

// NewHolderHandler creates a new HolderHandler.
func NewHolderHandler(holderSvc ports.HolderService) *HolderHandler {
	return &HolderHandler{holderSvc: holderSvc}
}

// Create handles POST /api/v1/holders.
func (h *HolderHandler) Create(c *gin.Context) {
	var req dto.CreateHolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	holder, err := h.holderSvc.Create(c.Request.Context(), ports.CreateHolderRequest{
		CPF:  req.CPF,
		Name: req.Name,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxHolderCPF, holder.CPF)
	response.Created(c, toHolderResponse(holder))
}

// Get handles GET /api/v1/holders/:cpf.
func (h *HolderHandler) Get(c *gin.Context) {
	holder, err := h.holderSvc.Get(c.Request.Context(), c.Param("cpf"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toHolderResponse(holder))
}

// Deactivate handles DELETE /api/v1/holders/:cpf. Every account of the
// holder is closed as part of the call.
func (h *HolderHandler) Deactivate(c *gin.Context) {
	holder, err := h.holderSvc.Deactivate(c.Request.Context(), c.Param("cpf"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toHolderResponse(holder))
}
