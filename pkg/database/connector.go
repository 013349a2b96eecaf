package database

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Config holds database connection details.
type Config struct {
	Addr     string // host[:port]
	Name     string
	User     string
	Password string
}

// Connector dials one database connection per peer session. Connections are
// never pooled: a session owns its connection for its whole lifetime and the
// connection is closed when the peer disconnects.
type Connector struct {
	dsn    string
	logger *zap.Logger
}

// NewConnector builds a Connector from credentials.
func NewConnector(logger *zap.Logger, cfg Config) *Connector {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   cfg.Addr,
		Path:   "/" + cfg.Name,
	}
	dsn := u.String()
	logger.Debug("database connector configured", zap.String("dsn", maskDSN(dsn)))
	return &Connector{dsn: dsn, logger: logger}
}

// Connect opens a new dedicated connection.
func (c *Connector) Connect(ctx context.Context) (*pgx.Conn, error) {
	conn, err := pgx.Connect(ctx, c.dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return conn, nil
}

// WaitReady pings the database with exponential backoff until it answers or
// the elapsed budget runs out. Used at startup so the node fails fast instead
// of serving sessions that can never reach storage.
func (c *Connector) WaitReady(ctx context.Context, maxElapsed time.Duration) error {
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = maxElapsed

	attempt := 0
	op := func() error {
		attempt++
		conn, err := c.Connect(ctx)
		if err != nil {
			c.logger.Warn("database not reachable yet",
				zap.Int("attempt", attempt), zap.Error(err))
			return err
		}
		defer conn.Close(ctx)
		return conn.Ping(ctx)
	}
	if err := backoff.Retry(op, backoff.WithContext(policy, ctx)); err != nil {
		return fmt.Errorf("database unreachable after %s: %w", maxElapsed, err)
	}
	return nil
}

// EnsureSchema creates the accounts table if it does not exist. This is a
// single idempotent statement, not a migration framework.
func EnsureSchema(ctx context.Context, conn *pgx.Conn) error {
	_, err := conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS bank_account (
			id             BIGSERIAL PRIMARY KEY,
			account_number INTEGER   NOT NULL UNIQUE,
			balance        BIGINT    NOT NULL DEFAULT 0 CHECK (balance >= 0)
		)`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// maskDSN hides sensitive parts like passwords.
func maskDSN(dsn string) string {
	parts := strings.Split(dsn, "@")
	if len(parts) > 1 {
		auth := strings.Split(parts[0], "://")
		if len(auth) > 1 {
			userPass := strings.Split(auth[1], ":")
			if len(userPass) > 1 {
				return auth[0] + "://*****:*****@" + parts[1]
			}
		}
	}
	return dsn // Fallback
}
