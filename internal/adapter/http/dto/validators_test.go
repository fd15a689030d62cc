package dto

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// --- SanitizeStruct tests ---

func TestSanitizeStruct_TrimsWhitespace(t *testing.T) {
	req := CreateHolderRequest{
		CPF:  "  529.982.247-25  ",
		Name: " Maria Silva ",
	}
	SanitizeStruct(&req)

	assert.Equal(t, "529.982.247-25", req.CPF)
	assert.Equal(t, "Maria Silva", req.Name)
}

func TestSanitizeStruct_EscapesHTML(t *testing.T) {
	req := CreateHolderRequest{
		CPF:  "52998224725",
		Name: "Maria <script>alert('x')</script>",
	}
	SanitizeStruct(&req)

	assert.Contains(t, req.Name, "&lt;script&gt;")
	assert.NotContains(t, req.Name, "<script>")
}

func TestSanitizeStruct_HandlesPointerString(t *testing.T) {
	type withPointer struct {
		Note *string
	}
	note := "  hello  "
	req := withPointer{Note: &note}
	SanitizeStruct(&req)

	assert.Equal(t, "hello", *req.Note)
}

func TestSanitizeStruct_NilPointerIsNoOp(t *testing.T) {
	req := RecordTransactionRequest{Type: "DEPOSIT"}
	SanitizeStruct(&req)
	assert.Nil(t, req.Amount)
}

func TestSanitizeStruct_NonPointerIsNoOp(t *testing.T) {
	s := "hello"
	SanitizeStruct(s) // should not panic
}

// --- Custom Validator tests ---

func TestCPFValidator(t *testing.T) {
	tests := []struct {
		cpf   string
		valid bool
	}{
		{"52998224725", true},
		{"529.982.247-25", true},
		{"123.456.789-00", true},
		{"52998224724", false},
		{"11111111111", false},
		{"1234567890", false},
		{"abc", false},
	}

	for _, tt := range tests {
		t.Run(tt.cpf, func(t *testing.T) {
			err := binding.Validator.ValidateStruct(CreateHolderRequest{CPF: tt.cpf, Name: "Maria"})
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, "cpf")
			}
		})
	}
}

func TestTxKindValidator(t *testing.T) {
	amount := decimal.RequireFromString("10")

	for _, kind := range []string{"DEPOSIT", "WITHDRAWAL"} {
		assert.NoError(t, binding.Validator.ValidateStruct(RecordTransactionRequest{Type: kind, Amount: &amount}), kind)
	}
	for _, kind := range []string{"deposit", "TRANSFER", ""} {
		assert.Error(t, binding.Validator.ValidateStruct(RecordTransactionRequest{Type: kind, Amount: &amount}), kind)
	}
}

func TestRecordTransactionRequest_AmountRequired(t *testing.T) {
	err := binding.Validator.ValidateStruct(RecordTransactionRequest{Type: "DEPOSIT"})
	assert.ErrorContains(t, err, "Amount")
}

func TestTransactionListQuery_PageSizeBounds(t *testing.T) {
	assert.NoError(t, binding.Validator.ValidateStruct(TransactionListQuery{}))
	assert.NoError(t, binding.Validator.ValidateStruct(TransactionListQuery{Page: 2, PageSize: 100}))
	assert.Error(t, binding.Validator.ValidateStruct(TransactionListQuery{PageSize: 101}))
}
