package handler

import (
	"time"

	"account-ledger/internal/adapter/http/dto"
	"account-ledger/internal/core/domain"
	"account-ledger/internal/core/ports"
)

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func toHolderResponse(h *domain.Holder) dto.HolderResponse {
	return dto.HolderResponse{
		CPF:       h.CPF,
		Name:      h.Name,
		Active:    h.Active,
		CreatedAt: formatTime(h.CreatedAt),
	}
}

func toAccountResponse(a *domain.Account) dto.AccountResponse {
	resp := dto.AccountResponse{
		ID:             a.ID.String(),
		HolderCPF:      a.HolderID,
		Number:         a.Number,
		Agency:         a.Agency,
		InitialBalance: a.InitialBalance.String(),
		Balance:        a.Balance.String(),
		Status:         string(a.Status),
		CreatedAt:      formatTime(a.CreatedAt),
	}
	if a.UpdatedAt != nil {
		s := formatTime(*a.UpdatedAt)
		resp.UpdatedAt = &s
	}
	return resp
}

func toTransactionResponse(tx *domain.Transaction) dto.TransactionResponse {
	return dto.TransactionResponse{
		ID:        tx.ID.String(),
		AccountID: tx.AccountID.String(),
		Type:      string(tx.Type),
		Amount:    tx.Amount.String(),
		CreatedAt: formatTime(tx.CreatedAt),
	}
}

func toStatementResponse(st *ports.AccountStatement) dto.StatementResponse {
	return dto.StatementResponse{
		AccountID:           st.AccountID.String(),
		Status:              string(st.Status),
		InitialBalance:      st.InitialBalance.String(),
		Balance:             st.Balance.String(),
		TotalDeposits:       st.TotalDeposits.String(),
		TotalWithdrawals:    st.TotalWithdrawals.String(),
		TransactionCount:    st.TransactionCount,
		WithdrawnToday:      st.WithdrawnToday.String(),
		DailyLimit:          st.DailyLimit.String(),
		RemainingDailyLimit: st.RemainingDailyLimit.String(),
		Reconciled:          st.Reconciled,
		GeneratedAt:         formatTime(st.GeneratedAt),
	}
}
