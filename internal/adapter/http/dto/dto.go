package dto

import "github.com/shopspring/decimal"

// CreateHolderRequest is the request body for holder registration.
type CreateHolderRequest struct {
	CPF  string `json:"cpf" binding:"required,cpf"`
	Name string `json:"name" binding:"required,min=1,max=255"`
}

// HolderResponse is the response body for holder endpoints.
type HolderResponse struct {
	CPF       string `json:"cpf"`
	Name      string `json:"name"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at"`
}

// OpenAccountRequest is the request body for opening an account. An
// omitted initial balance opens the account at zero.
type OpenAccountRequest struct {
	InitialBalance *decimal.Decimal `json:"initial_balance,omitempty"`
}

// AccountResponse is the response body for account endpoints.
type AccountResponse struct {
	ID             string  `json:"id"`
	HolderCPF      string  `json:"holder_cpf"`
	Number         string  `json:"number"`
	Agency         string  `json:"agency"`
	InitialBalance string  `json:"initial_balance"`
	Balance        string  `json:"balance"`
	Status         string  `json:"status"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      *string `json:"updated_at,omitempty"`
}

// RecordTransactionRequest is the request body for deposits and withdrawals.
// Amount positivity is a ledger rule, checked by the engine.
type RecordTransactionRequest struct {
	Type   string           `json:"type" binding:"required,tx_kind"`
	Amount *decimal.Decimal `json:"amount" binding:"required"`
}

// TransactionResponse is the response body for a single ledger entry.
type TransactionResponse struct {
	ID        string `json:"id"`
	AccountID string `json:"account_id"`
	Type      string `json:"type"`
	Amount    string `json:"amount"`
	CreatedAt string `json:"created_at"`
}

// TransactionListQuery binds the history filter and pagination parameters.
type TransactionListQuery struct {
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// StatementResponse summarizes an account and today's withdrawal budget.
type StatementResponse struct {
	AccountID           string `json:"account_id"`
	Status              string `json:"status"`
	InitialBalance      string `json:"initial_balance"`
	Balance             string `json:"balance"`
	TotalDeposits       string `json:"total_deposits"`
	TotalWithdrawals    string `json:"total_withdrawals"`
	TransactionCount    int64  `json:"transaction_count"`
	WithdrawnToday      string `json:"withdrawn_today"`
	DailyLimit          string `json:"daily_limit"`
	RemainingDailyLimit string `json:"remaining_daily_limit"`
	Reconciled          bool   `json:"reconciled"`
	GeneratedAt         string `json:"generated_at"`
}
