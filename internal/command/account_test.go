package command

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAccountCreate_AllocatesSequentialNumbers(t *testing.T) {
	h := NewAccountCreate(zap.NewNop(), testBankCode)
	store := newFakeStore()

	resp := h.Execute(context.Background(), storeReq(store, "", false))
	assert.Equal(t, "AC 10000/10.0.0.1", resp)

	resp = h.Execute(context.Background(), storeReq(store, "", false))
	assert.Equal(t, "AC 10001/10.0.0.1", resp)

	balance, ok := store.balanceOf(10000)
	require.True(t, ok)
	assert.Equal(t, int64(0), balance, "new accounts start with zero balance")
}

func TestAccountCreate_NumberSpaceExhausted(t *testing.T) {
	h := NewAccountCreate(zap.NewNop(), testBankCode)
	store := newFakeStore()
	store.seed(99999, 0)

	resp := h.Execute(context.Background(), storeReq(store, "", false))
	assert.Equal(t, "ER Cannot create a new account right now.", resp)

	count, err := store.CountAccounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "exhaustion must not leave partial state")
}

func TestAccountCreate_Rejections(t *testing.T) {
	h := NewAccountCreate(zap.NewNop(), testBankCode)

	resp := h.Execute(context.Background(), Request{})
	assert.Equal(t, "ER Failed to access database.", resp)

	store := newFakeStore()
	resp = h.Execute(context.Background(), storeReq(store, "10000/10.0.0.1", true))
	assert.Equal(t, "ER Invalid parameters (usage: AC).", resp)

	store.failWith = errors.New("connection reset")
	resp = h.Execute(context.Background(), storeReq(store, "", false))
	assert.Equal(t, "ER Database error occurred, failed to create account.", resp)
}

func TestAccountBalance(t *testing.T) {
	h := NewAccountBalance(zap.NewNop(), testBankCode)
	store := newFakeStore()
	store.seed(10000, 500)

	resp := h.Execute(context.Background(), storeReq(store, "10000/10.0.0.1", true))
	assert.Equal(t, "AB 500", resp)
}

func TestAccountBalance_Rejections(t *testing.T) {
	h := NewAccountBalance(zap.NewNop(), testBankCode)
	store := newFakeStore()

	resp := h.Execute(context.Background(), Request{})
	assert.Equal(t, "ER Failed to access database.", resp)

	resp = h.Execute(context.Background(), storeReq(store, "notanumber", true))
	assert.Equal(t, "ER Invalid parameters (usage: AB <account_number>/<bank_code>).", resp)

	resp = h.Execute(context.Background(), storeReq(store, "10000/10.0.0.2", true))
	assert.Equal(t, "ER Incorrect bank code.", resp)

	resp = h.Execute(context.Background(), storeReq(store, "10000/10.0.0.1", true))
	assert.Equal(t, "ER Account not found.", resp)

	store.failWith = errors.New("connection reset")
	resp = h.Execute(context.Background(), storeReq(store, "10000/10.0.0.1", true))
	assert.Equal(t, "ER Database error occurred, failed to retrieve account balance.", resp)
}

func TestAccountDeposit(t *testing.T) {
	h := NewAccountDeposit(zap.NewNop(), testBankCode)
	store := newFakeStore()
	store.seed(10000, 0)

	resp := h.Execute(context.Background(), storeReq(store, "10000/10.0.0.1 500", true))
	assert.Equal(t, "AD", resp)

	balance, ok := store.balanceOf(10000)
	require.True(t, ok)
	assert.Equal(t, int64(500), balance)
}

func TestAccountDeposit_Rejections(t *testing.T) {
	h := NewAccountDeposit(zap.NewNop(), testBankCode)
	store := newFakeStore()
	store.seed(10000, 100)

	resp := h.Execute(context.Background(), Request{})
	assert.Equal(t, "ER Failed to access database.", resp)

	resp = h.Execute(context.Background(), storeReq(store, "10000/10.0.0.1", true))
	assert.Equal(t, "ER Invalid parameters (usage: AD <account_number>/<bank_code> <amount>).", resp)

	resp = h.Execute(context.Background(), storeReq(store, "10000/10.0.0.2 50", true))
	assert.Equal(t, "ER Incorrect bank code.", resp)

	resp = h.Execute(context.Background(), storeReq(store, "54321/10.0.0.1 50", true))
	assert.Equal(t, "ER Account not found.", resp)

	// The grammar admits a zero amount; the domain rule rejects it.
	resp = h.Execute(context.Background(), storeReq(store, "10000/10.0.0.1 0", true))
	assert.Equal(t, "ER Deposit amount must be greater than 0.", resp)

	balance, _ := store.balanceOf(10000)
	assert.Equal(t, int64(100), balance, "rejected deposits must not mutate the stored balance")
}

func TestAccountWithdrawal(t *testing.T) {
	h := NewAccountWithdrawal(zap.NewNop(), testBankCode)
	store := newFakeStore()
	store.seed(10000, 500)

	resp := h.Execute(context.Background(), storeReq(store, "10000/10.0.0.1 200", true))
	assert.Equal(t, "AW", resp)

	balance, ok := store.balanceOf(10000)
	require.True(t, ok)
	assert.Equal(t, int64(300), balance)
}

func TestAccountWithdrawal_Rejections(t *testing.T) {
	h := NewAccountWithdrawal(zap.NewNop(), testBankCode)
	store := newFakeStore()
	store.seed(10000, 500)

	resp := h.Execute(context.Background(), storeReq(store, "10000/10.0.0.1 600", true))
	assert.Equal(t, "ER Not enough balance on the bank account.", resp)

	resp = h.Execute(context.Background(), storeReq(store, "10000/10.0.0.1 0", true))
	assert.Equal(t, "ER Withdraw amount must be greater than 0.", resp)

	balance, _ := store.balanceOf(10000)
	assert.Equal(t, int64(500), balance, "rejected withdrawals must not mutate the stored balance")

	resp = h.Execute(context.Background(), storeReq(store, "10000/10.0.0.2 50", true))
	assert.Equal(t, "ER Incorrect bank code.", resp)

	resp = h.Execute(context.Background(), storeReq(store, "54321/10.0.0.1 50", true))
	assert.Equal(t, "ER Account not found.", resp)
}

func TestAccountRemove(t *testing.T) {
	h := NewAccountRemove(zap.NewNop(), testBankCode)
	store := newFakeStore()
	store.seed(10000, 500)

	resp := h.Execute(context.Background(), storeReq(store, "10000/10.0.0.1", true))
	assert.Equal(t, "AR", resp)

	_, ok := store.balanceOf(10000)
	assert.False(t, ok, "removed account must be gone from storage")
}

func TestAccountRemove_Rejections(t *testing.T) {
	h := NewAccountRemove(zap.NewNop(), testBankCode)
	store := newFakeStore()

	resp := h.Execute(context.Background(), Request{})
	assert.Equal(t, "ER Failed to access database.", resp)

	resp = h.Execute(context.Background(), storeReq(store, "10000", true))
	assert.Equal(t, "ER Invalid parameters (usage: AR <account_number>/<bank_code>).", resp)

	resp = h.Execute(context.Background(), storeReq(store, "10000/10.0.0.2", true))
	assert.Equal(t, "ER Incorrect bank code.", resp)

	resp = h.Execute(context.Background(), storeReq(store, "10000/10.0.0.1", true))
	assert.Equal(t, "ER Account not found.", resp)
}

// Commands against a node's own bank code but issued with the full account
// lifecycle, mirroring how two peers would drive a node.
func TestAccountLifecycle(t *testing.T) {
	logger := zap.NewNop()
	store := newFakeStore()
	ctx := context.Background()

	create := NewAccountCreate(logger, testBankCode)
	deposit := NewAccountDeposit(logger, testBankCode)
	balance := NewAccountBalance(logger, testBankCode)
	withdraw := NewAccountWithdrawal(logger, testBankCode)
	remove := NewAccountRemove(logger, testBankCode)

	assert.Equal(t, "AC 10000/10.0.0.1", create.Execute(ctx, storeReq(store, "", false)))
	assert.Equal(t, "AD", deposit.Execute(ctx, storeReq(store, "10000/10.0.0.1 500", true)))
	assert.Equal(t, "AB 500", balance.Execute(ctx, storeReq(store, "10000/10.0.0.1", true)))
	assert.Equal(t, "ER Not enough balance on the bank account.",
		withdraw.Execute(ctx, storeReq(store, "10000/10.0.0.1 600", true)))
	assert.Equal(t, "AR", remove.Execute(ctx, storeReq(store, "10000/10.0.0.1", true)))
	assert.Equal(t, "ER Account not found.",
		balance.Execute(ctx, storeReq(store, "10000/10.0.0.1", true)))
}
