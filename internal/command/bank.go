package command

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/peerbank/node/pkg"
)

// BankCode answers "BC" with this node's own bank code. It is the only verb
// that works without a database connection.
type BankCode struct {
	logger   *zap.Logger
	bankCode string
}

func NewBankCode(logger *zap.Logger, bankCode string) *BankCode {
	return &BankCode{logger: logger, bankCode: bankCode}
}

func (c *BankCode) Name() string { return "BC" }

func (c *BankCode) Execute(ctx context.Context, req Request) string {
	if err := parseNone(req, c.Name()); err != nil {
		c.logger.Info("rejected command with invalid parameters",
			zap.String(pkg.SessionId, req.SessionID), zap.String(pkg.Verb, c.Name()))
		return errLine(err.Error())
	}
	return fmt.Sprintf("%s %s", c.Name(), c.bankCode)
}

// BankAmount answers "BA" with the sum of all balances on this node.
type BankAmount struct {
	logger *zap.Logger
}

func NewBankAmount(logger *zap.Logger) *BankAmount {
	return &BankAmount{logger: logger}
}

func (c *BankAmount) Name() string { return "BA" }

func (c *BankAmount) Execute(ctx context.Context, req Request) string {
	if req.Store == nil {
		c.logger.Info("no database connection for session",
			zap.String(pkg.SessionId, req.SessionID), zap.String(pkg.Verb, c.Name()))
		return respNoDatabase
	}
	if err := parseNone(req, c.Name()); err != nil {
		c.logger.Info("rejected command with invalid parameters",
			zap.String(pkg.SessionId, req.SessionID), zap.String(pkg.Verb, c.Name()))
		return errLine(err.Error())
	}
	total, err := req.Store.TotalBalance(ctx)
	if err != nil {
		c.logger.Error("failed to retrieve total balance",
			zap.String(pkg.SessionId, req.SessionID), zap.Error(err))
		return errLine("Database error occurred, failed to retrieve total balance.")
	}
	return fmt.Sprintf("%s %d", c.Name(), total)
}

// BankNumber answers "BN" with the count of accounts on this node.
type BankNumber struct {
	logger *zap.Logger
}

func NewBankNumber(logger *zap.Logger) *BankNumber {
	return &BankNumber{logger: logger}
}

func (c *BankNumber) Name() string { return "BN" }

func (c *BankNumber) Execute(ctx context.Context, req Request) string {
	if req.Store == nil {
		c.logger.Info("no database connection for session",
			zap.String(pkg.SessionId, req.SessionID), zap.String(pkg.Verb, c.Name()))
		return respNoDatabase
	}
	if err := parseNone(req, c.Name()); err != nil {
		c.logger.Info("rejected command with invalid parameters",
			zap.String(pkg.SessionId, req.SessionID), zap.String(pkg.Verb, c.Name()))
		return errLine(err.Error())
	}
	count, err := req.Store.CountAccounts(ctx)
	if err != nil {
		c.logger.Error("failed to count accounts",
			zap.String(pkg.SessionId, req.SessionID), zap.Error(err))
		return errLine("Database error occurred, failed to count accounts.")
	}
	return fmt.Sprintf("%s %d", c.Name(), count)
}
