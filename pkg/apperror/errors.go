package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches another AppError by code, so errors.Is(err, ErrAlreadyClosed())
// holds for any AppError carrying ACC_003.
func (e *AppError) Is(target error) bool {
	var other *AppError
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// HasCode reports whether err is, or wraps, an AppError with the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Code == code
}

// ---- Accounts (ACC) ----

func ErrAccountNotFound() *AppError {
	return New("ACC_001", "Account not found", http.StatusNotFound)
}

func ErrAccountNotEligible() *AppError {
	return New("ACC_002", "Account is not active", http.StatusUnprocessableEntity)
}

func ErrAlreadyClosed() *AppError {
	return New("ACC_003", "Account already closed", http.StatusUnprocessableEntity)
}

func ErrAlreadyBlocked() *AppError {
	return New("ACC_004", "Account already blocked", http.StatusUnprocessableEntity)
}

func ErrAlreadyActive() *AppError {
	return New("ACC_005", "Account already unblocked", http.StatusUnprocessableEntity)
}

func ErrAccountClosed() *AppError {
	return New("ACC_006", "Account is closed", http.StatusUnprocessableEntity)
}

// ---- Holders (HOL) ----

func ErrHolderNotFound() *AppError {
	return New("HOL_001", "Holder not found", http.StatusNotFound)
}

func ErrInvalidCPF() *AppError {
	return New("HOL_002", "Invalid CPF", http.StatusUnprocessableEntity)
}

func ErrHolderAlreadyExists() *AppError {
	return New("HOL_003", "Holder already exists", http.StatusConflict)
}

func ErrHolderInactive() *AppError {
	return New("HOL_004", "Holder is inactive", http.StatusUnprocessableEntity)
}

// ---- Transactions (TXN) ----

func ErrInvalidAmount() *AppError {
	return New("TXN_001", "Amount must be greater than zero", http.StatusUnprocessableEntity)
}

func ErrInsufficientBalance() *AppError {
	return New("TXN_002", "Insufficient balance", http.StatusUnprocessableEntity)
}

func ErrDailyLimitExceeded() *AppError {
	return New("TXN_003", "Daily withdrawal limit exceeded", http.StatusUnprocessableEntity)
}

func ErrInvalidTransactionType() *AppError {
	return New("TXN_004", "Transaction type must be DEPOSIT or WITHDRAWAL", http.StatusBadRequest)
}

func ErrRequestInProgress() *AppError {
	return New("TXN_005", "A request with this idempotency key is in progress", http.StatusConflict)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- Request validation (REQ) ----

// Validation returns a REQ_001 error carrying the binding failure message.
func Validation(message string) *AppError {
	return New("REQ_001", message, http.StatusBadRequest)
}

func ErrPayloadTooLarge() *AppError {
	return New("REQ_002", "Request body too large", http.StatusRequestEntityTooLarge)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// ErrStoreConflict is returned once the commit retry budget is exhausted.
func ErrStoreConflict(err error) *AppError {
	return Wrap("SYS_002", "Concurrent update conflict, retry later", http.StatusConflict, err)
}

func ErrLockTimeout(err error) *AppError {
	return Wrap("SYS_003", "Lock acquisition timeout", http.StatusServiceUnavailable, err)
}
