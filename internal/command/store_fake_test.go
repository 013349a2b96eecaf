package command

import (
	"context"
	"sync"

	"github.com/peerbank/node/internal/bank"
	"github.com/peerbank/node/pkg"
)

// fakeStore is an in-memory bank.Store for handler tests. When failWith is
// set, every operation fails with that error, which exercises the generic
// database-error responses.
type fakeStore struct {
	mu       sync.Mutex
	nextID   int64
	rows     map[int]*fakeRow // keyed by account number
	failWith error
}

type fakeRow struct {
	id      int64
	balance int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[int]*fakeRow)}
}

func (s *fakeStore) Save(ctx context.Context, account *bank.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	if account.Persisted() {
		row, ok := s.rows[account.Number()]
		if !ok {
			return pkg.NewAppError(pkg.ErrRecordNotFoundCode, "no records found", nil)
		}
		row.balance = account.Balance()
		return nil
	}
	s.nextID++
	s.rows[account.Number()] = &fakeRow{id: s.nextID, balance: account.Balance()}
	return nil
}

func (s *fakeStore) Delete(ctx context.Context, account *bank.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	delete(s.rows, account.Number())
	return nil
}

func (s *fakeStore) FindByNumber(ctx context.Context, number int) (*bank.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	row, ok := s.rows[number]
	if !ok {
		return nil, pkg.NewAppError(pkg.ErrRecordNotFoundCode, "no records found", nil)
	}
	return bank.NewAccount(row.id, number, row.balance)
}

func (s *fakeStore) TotalBalance(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return 0, s.failWith
	}
	var total int64
	for _, row := range s.rows {
		total += row.balance
	}
	return total, nil
}

func (s *fakeStore) CountAccounts(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return 0, s.failWith
	}
	return int64(len(s.rows)), nil
}

func (s *fakeStore) MaxNumber(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return 0, s.failWith
	}
	max := 0
	for number := range s.rows {
		if number > max {
			max = number
		}
	}
	return max, nil
}

// seed inserts a row directly, bypassing Save.
func (s *fakeStore) seed(number int, balance int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.rows[number] = &fakeRow{id: s.nextID, balance: balance}
}

func (s *fakeStore) balanceOf(number int) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[number]
	if !ok {
		return 0, false
	}
	return row.balance, true
}
