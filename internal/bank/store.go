package bank

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/peerbank/node/pkg"
)

// Store owns account persistence. Lookups that miss return an error carrying
// pkg.ErrRecordNotFoundCode; aggregate queries over an empty table return 0,
// never an error.
type Store interface {
	// Save upserts the account: insert when unpersisted, update otherwise.
	Save(ctx context.Context, account *Account) error
	// Delete removes the account row and resets its id to 0 on success.
	Delete(ctx context.Context, account *Account) error
	// FindByNumber loads the account with the given account number.
	FindByNumber(ctx context.Context, number int) (*Account, error)
	// TotalBalance sums all balances.
	TotalBalance(ctx context.Context) (int64, error)
	// CountAccounts counts the accounts on this node.
	CountAccounts(ctx context.Context) (int64, error)
	// MaxNumber returns the highest assigned account number, 0 when none.
	MaxNumber(ctx context.Context) (int, error)
}

// PgxStore is the Postgres-backed Store. It runs on the session's dedicated
// connection, so at most one statement is in flight at a time per store.
type PgxStore struct {
	conn      *pgx.Conn
	logger    *zap.Logger
	sessionID string
}

// NewStore wraps a session connection into a Store.
func NewStore(conn *pgx.Conn, logger *zap.Logger, sessionID string) *PgxStore {
	return &PgxStore{conn: conn, logger: logger, sessionID: sessionID}
}

// withTx runs fn in a transaction; commits if fn succeeds, rolls back
// otherwise.
func (s *PgxStore) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return pkg.HandleSQLError(s.logger, s.sessionID, err)
	}
	defer func() {
		_ = tx.Rollback(ctx) // no-op after commit
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return pkg.HandleSQLError(s.logger, s.sessionID, err)
	}
	return nil
}

func (s *PgxStore) Save(ctx context.Context, account *Account) error {
	if account.Persisted() {
		return s.update(ctx, account)
	}
	return s.insert(ctx, account)
}

// insert writes a new row and captures the generated key. The in-memory id is
// only set after the transaction commits.
func (s *PgxStore) insert(ctx context.Context, account *Account) error {
	var id int64
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO bank_account (account_number, balance) VALUES ($1, $2) RETURNING id`,
			account.Number(), account.Balance(),
		).Scan(&id)
		if err != nil {
			return pkg.HandleSQLError(s.logger, s.sessionID, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("insert account %d: %w", account.Number(), err)
	}
	account.mu.Lock()
	account.id = id
	account.mu.Unlock()
	return nil
}

// update locks the target row before writing the new balance. The row lock is
// what serializes concurrent deposits/withdrawals on the same account number
// arriving through different sessions.
func (s *PgxStore) update(ctx context.Context, account *Account) error {
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		var id int64
		err := tx.QueryRow(ctx,
			`SELECT id FROM bank_account WHERE id = $1 FOR UPDATE`,
			account.ID(),
		).Scan(&id)
		if err != nil {
			return pkg.HandleSQLError(s.logger, s.sessionID, err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE bank_account SET balance = $1 WHERE id = $2`,
			account.Balance(), id,
		); err != nil {
			return pkg.HandleSQLError(s.logger, s.sessionID, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("update account %d: %w", account.Number(), err)
	}
	return nil
}

func (s *PgxStore) Delete(ctx context.Context, account *Account) error {
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM bank_account WHERE id = $1`, account.ID(),
		); err != nil {
			return pkg.HandleSQLError(s.logger, s.sessionID, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete account %d: %w", account.Number(), err)
	}
	account.mu.Lock()
	account.id = 0
	account.mu.Unlock()
	return nil
}

func (s *PgxStore) FindByNumber(ctx context.Context, number int) (*Account, error) {
	var (
		id      int64
		balance int64
	)
	err := s.conn.QueryRow(ctx,
		`SELECT id, balance FROM bank_account WHERE account_number = $1`, number,
	).Scan(&id, &balance)
	if err != nil {
		return nil, pkg.HandleSQLError(s.logger, s.sessionID, err)
	}
	return NewAccount(id, number, balance)
}

func (s *PgxStore) TotalBalance(ctx context.Context) (int64, error) {
	var total int64
	err := s.conn.QueryRow(ctx,
		`SELECT COALESCE(SUM(balance), 0) FROM bank_account`,
	).Scan(&total)
	if err != nil {
		return 0, pkg.HandleSQLError(s.logger, s.sessionID, err)
	}
	return total, nil
}

func (s *PgxStore) CountAccounts(ctx context.Context) (int64, error) {
	var count int64
	err := s.conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM bank_account`,
	).Scan(&count)
	if err != nil {
		return 0, pkg.HandleSQLError(s.logger, s.sessionID, err)
	}
	return count, nil
}

func (s *PgxStore) MaxNumber(ctx context.Context) (int, error) {
	var max int
	err := s.conn.QueryRow(ctx,
		`SELECT COALESCE(MAX(account_number), 0) FROM bank_account`,
	).Scan(&max)
	if err != nil {
		return 0, pkg.HandleSQLError(s.logger, s.sessionID, err)
	}
	return max, nil
}
