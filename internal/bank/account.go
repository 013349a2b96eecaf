package bank

import (
	"errors"
	"sync"
)

// Account number space is node-local and five digits wide.
const (
	MinAccountNumber = 10000
	MaxAccountNumber = 99999
)

// Domain rule violations. The error text is sent to peers verbatim after the
// "ER " prefix, so the wording is part of the wire protocol.
var (
	ErrInvalidID            = errors.New("Bank account ID must be equal to or greater than 0.")
	ErrInvalidAccountNumber = errors.New("Bank account number must be between 10000 and 99999.")
	ErrNegativeBalance      = errors.New("Bank account balance must be equal to or greater than 0.")
	ErrInvalidDeposit       = errors.New("Deposit amount must be greater than 0.")
	ErrInvalidWithdrawal    = errors.New("Withdraw amount must be greater than 0.")
	ErrInsufficientBalance  = errors.New("Not enough balance on the bank account.")
)

// Account is the persistent bank account entity. A zero id means the account
// is not currently persisted. The embedded mutex serializes balance mutation
// on this instance only; two instances loaded for the same account number in
// different sessions are serialized by the store's row lock at save time, not
// here.
type Account struct {
	mu      sync.Mutex
	id      int64
	number  int
	balance int64
}

// NewAccount validates all fields and returns a new Account. id 0 marks an
// account that has not been persisted yet.
func NewAccount(id int64, number int, balance int64) (*Account, error) {
	if id < 0 {
		return nil, ErrInvalidID
	}
	if number < MinAccountNumber || number > MaxAccountNumber {
		return nil, ErrInvalidAccountNumber
	}
	if balance < 0 {
		return nil, ErrNegativeBalance
	}
	return &Account{id: id, number: number, balance: balance}, nil
}

// Deposit adds amount to the balance. The amount must be greater than 0.
func (a *Account) Deposit(amount int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if amount <= 0 {
		return ErrInvalidDeposit
	}
	a.balance += amount
	return nil
}

// Withdraw subtracts amount from the balance. The amount must be greater
// than 0 and no more than the current balance.
func (a *Account) Withdraw(amount int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if amount <= 0 {
		return ErrInvalidWithdrawal
	}
	if amount > a.balance {
		return ErrInsufficientBalance
	}
	a.balance -= amount
	return nil
}

// Number returns the five-digit account number.
func (a *Account) Number() int { return a.number }

// Balance returns the current in-memory balance.
func (a *Account) Balance() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance
}

// ID returns the surrogate storage key, 0 when not persisted.
func (a *Account) ID() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.id
}

// Persisted reports whether the account currently has a row in storage.
func (a *Account) Persisted() bool { return a.ID() != 0 }
