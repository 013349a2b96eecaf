package command

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

const testBankCode = "10.0.0.1"

func storeReq(store *fakeStore, params string, hasParams bool) Request {
	return Request{
		SessionID: "test-session",
		Params:    params,
		HasParams: hasParams,
		Store:     store,
	}
}

func TestBankCode(t *testing.T) {
	h := NewBankCode(zap.NewNop(), testBankCode)
	assert.Equal(t, "BC", h.Name())

	// BC works without a database handle.
	resp := h.Execute(context.Background(), Request{})
	assert.Equal(t, "BC 10.0.0.1", resp)

	resp = h.Execute(context.Background(), Request{Params: "junk", HasParams: true})
	assert.Equal(t, "ER Invalid parameters (usage: BC).", resp)
}

func TestBankAmount(t *testing.T) {
	h := NewBankAmount(zap.NewNop())
	store := newFakeStore()

	// Zero accounts sum to zero.
	resp := h.Execute(context.Background(), storeReq(store, "", false))
	assert.Equal(t, "BA 0", resp)

	store.seed(10000, 100)
	store.seed(10001, 250)
	resp = h.Execute(context.Background(), storeReq(store, "", false))
	assert.Equal(t, "BA 350", resp)
}

func TestBankAmount_Rejections(t *testing.T) {
	h := NewBankAmount(zap.NewNop())

	resp := h.Execute(context.Background(), Request{}) // no store
	assert.Equal(t, "ER Failed to access database.", resp)

	store := newFakeStore()
	resp = h.Execute(context.Background(), storeReq(store, "extra", true))
	assert.Equal(t, "ER Invalid parameters (usage: BA).", resp)

	store.failWith = errors.New("connection reset")
	resp = h.Execute(context.Background(), storeReq(store, "", false))
	assert.Equal(t, "ER Database error occurred, failed to retrieve total balance.", resp)
}

func TestBankNumber(t *testing.T) {
	h := NewBankNumber(zap.NewNop())
	store := newFakeStore()

	resp := h.Execute(context.Background(), storeReq(store, "", false))
	assert.Equal(t, "BN 0", resp)

	store.seed(10000, 1)
	store.seed(10001, 2)
	store.seed(10002, 3)
	resp = h.Execute(context.Background(), storeReq(store, "", false))
	assert.Equal(t, "BN 3", resp)
}

func TestBankNumber_Rejections(t *testing.T) {
	h := NewBankNumber(zap.NewNop())

	resp := h.Execute(context.Background(), Request{})
	assert.Equal(t, "ER Failed to access database.", resp)

	store := newFakeStore()
	store.failWith = errors.New("connection reset")
	resp = h.Execute(context.Background(), storeReq(store, "", false))
	assert.Equal(t, "ER Database error occurred, failed to count accounts.", resp)
}
