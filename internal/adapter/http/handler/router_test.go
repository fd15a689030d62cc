package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"account-ledger/config"
	"account-ledger/internal/adapter/storage/memory"
	redisStore "account-ledger/internal/adapter/storage/redis"
	"account-ledger/internal/core/domain"
	"account-ledger/internal/service"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newLedgerRouter wires the real services over the in-memory store.
func newLedgerRouter(t *testing.T, deps RouterDeps) http.Handler {
	t.Helper()

	log := zerolog.Nop()
	holders := memory.NewHolderRepo()
	store := memory.NewLedgerStore(memory.WithHolders(holders))
	fp, err := service.NewBlake2bFingerprinter("test-key")
	require.NoError(t, err)

	limit := decimal.NewFromInt(2000)
	engine := service.NewTransactionEngine(store, nil, service.EngineConfig{
		MaxDailyWithdrawal: limit,
		Location:           time.UTC,
		Retry:              service.DefaultRetryPolicy,
	})
	accountSvc := service.NewAccountService(store, holders, nil, service.DefaultRetryPolicy, log)

	deps.HolderSvc = service.NewHolderService(holders, store, accountSvc, fp, log)
	deps.AccountSvc = accountSvc
	deps.TxSvc = service.NewTransactionService(engine, nil, log)
	deps.ReportingSvc = service.NewReportingService(store, domain.WithdrawalPolicy{MaxDaily: limit}, time.UTC)
	deps.Logger = log
	return SetupRouter(deps)
}

func openTestAccount(t *testing.T, r http.Handler, initial string) string {
	t.Helper()

	w := doRequest(r, http.MethodPost, "/api/v1/holders", map[string]string{"cpf": testCPF, "name": "Maria"}, nil)
	require.Contains(t, []int{http.StatusCreated, http.StatusConflict}, w.Code, w.Body.String())

	w = doRequest(r, http.MethodPost, "/api/v1/holders/"+testCPF+"/accounts", `{"initial_balance":"`+initial+`"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeData(t, w)["id"].(string)
}

func record(r http.Handler, accountID, kind, amount string) *httptest.ResponseRecorder {
	return doRequest(r, http.MethodPost, "/api/v1/accounts/"+accountID+"/transactions",
		`{"type":"`+kind+`","amount":"`+amount+`"}`, nil)
}

func TestRouter_DepositWithdrawStatement(t *testing.T) {
	r := newLedgerRouter(t, RouterDeps{})
	id := openTestAccount(t, r, "100")

	require.Equal(t, http.StatusCreated, record(r, id, "DEPOSIT", "50").Code)
	require.Equal(t, http.StatusCreated, record(r, id, "WITHDRAWAL", "60").Code)

	w := doRequest(r, http.MethodGet, "/api/v1/holders/"+testCPF+"/accounts/"+id, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "90", decodeData(t, w)["balance"])

	w = doRequest(r, http.MethodGet, "/api/v1/accounts/"+id+"/statement", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	st := decodeData(t, w)
	assert.Equal(t, "50", st["total_deposits"])
	assert.Equal(t, "60", st["total_withdrawals"])
	assert.Equal(t, "1940", st["remaining_daily_limit"])
	assert.Equal(t, true, st["reconciled"])

	w = doRequest(r, http.MethodGet, "/api/v1/accounts/"+id+"/transactions", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Data []map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Data, 2)
}

func TestRouter_RejectedWithdrawalLeavesNoTrace(t *testing.T) {
	r := newLedgerRouter(t, RouterDeps{})
	id := openTestAccount(t, r, "10")

	w := record(r, id, "WITHDRAWAL", "10.01")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "TXN_002", errorCode(t, w))

	w = doRequest(r, http.MethodGet, "/api/v1/accounts/"+id+"/statement", nil, nil)
	st := decodeData(t, w)
	assert.Equal(t, "10", st["balance"])
	assert.Equal(t, float64(0), st["transaction_count"])
}

func TestRouter_DailyLimit(t *testing.T) {
	r := newLedgerRouter(t, RouterDeps{})
	id := openTestAccount(t, r, "5000")

	require.Equal(t, http.StatusCreated, record(r, id, "WITHDRAWAL", "1999").Code)

	w := record(r, id, "WITHDRAWAL", "2")
	assert.Equal(t, "TXN_003", errorCode(t, w))

	assert.Equal(t, http.StatusCreated, record(r, id, "WITHDRAWAL", "1").Code)
	assert.Equal(t, http.StatusCreated, record(r, id, "DEPOSIT", "2").Code)
}

func lifecyclePath(cpf, accountID, action string) string {
	return "/api/v1/holders/" + cpf + "/accounts/" + accountID + "/" + action
}

func TestRouter_LifecycleBlocksTransactions(t *testing.T) {
	r := newLedgerRouter(t, RouterDeps{})
	id := openTestAccount(t, r, "100")

	require.Equal(t, http.StatusOK, doRequest(r, http.MethodPut, lifecyclePath(testCPF, id, "block"), nil, nil).Code)
	assert.Equal(t, "ACC_002", errorCode(t, record(r, id, "DEPOSIT", "1")))

	w := doRequest(r, http.MethodPut, lifecyclePath(testCPF, id, "block"), nil, nil)
	assert.Equal(t, "ACC_004", errorCode(t, w))

	require.Equal(t, http.StatusOK, doRequest(r, http.MethodPut, lifecyclePath(testCPF, id, "unblock"), nil, nil).Code)
	assert.Equal(t, http.StatusCreated, record(r, id, "DEPOSIT", "1").Code)
}

func TestRouter_LifecycleRequiresOwningHolder(t *testing.T) {
	r := newLedgerRouter(t, RouterDeps{})
	id := openTestAccount(t, r, "100")

	const otherCPF = "11144477735"
	w := doRequest(r, http.MethodPost, "/api/v1/holders", map[string]string{"cpf": otherCPF, "name": "Joao"}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	for _, action := range []string{"close", "block", "unblock"} {
		w := doRequest(r, http.MethodPut, lifecyclePath(otherCPF, id, action), nil, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, action)
		assert.Equal(t, "ACC_001", errorCode(t, w), action)
	}

	w = doRequest(r, http.MethodGet, "/api/v1/holders/"+testCPF+"/accounts/"+id, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ACTIVE", decodeData(t, w)["status"])

	w = doRequest(r, http.MethodPut, "/api/v1/accounts/"+id+"/close", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "unscoped lifecycle route is gone")
}

func TestRouter_DeactivateHolderClosesAccounts(t *testing.T) {
	r := newLedgerRouter(t, RouterDeps{})
	first := openTestAccount(t, r, "0")
	second := openTestAccount(t, r, "0")

	w := doRequest(r, http.MethodDelete, "/api/v1/holders/529.982.247-25", nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	for _, id := range []string{first, second} {
		w = doRequest(r, http.MethodGet, "/api/v1/holders/"+testCPF+"/accounts/"+id, nil, nil)
		assert.Equal(t, "CLOSED", decodeData(t, w)["status"])
		assert.Equal(t, "ACC_002", errorCode(t, record(r, id, "DEPOSIT", "1")))
	}

	w = doRequest(r, http.MethodPost, "/api/v1/holders/"+testCPF+"/accounts", nil, nil)
	assert.Equal(t, "HOL_004", errorCode(t, w))
}

func TestRouter_RateLimitedWrites(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	r := newLedgerRouter(t, RouterDeps{
		RateLimitStore: redisStore.NewRateLimitStore(client),
		RateLimit:      config.RateLimitConfig{Enabled: true, Read: 100, Write: 1, Window: time.Minute},
	})

	w := doRequest(r, http.MethodPost, "/api/v1/holders", map[string]string{"cpf": testCPF, "name": "Maria"}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(r, http.MethodPost, "/api/v1/holders/"+testCPF+"/accounts", nil, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = doRequest(r, http.MethodGet, "/api/v1/holders/"+testCPF, nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
