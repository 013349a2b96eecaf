package command

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/peerbank/node/internal/bank"
	"github.com/peerbank/node/pkg"
)

// AccountCreate handles "AC": allocate the next free account number and
// persist a new account with balance 0.
type AccountCreate struct {
	logger   *zap.Logger
	bankCode string
}

func NewAccountCreate(logger *zap.Logger, bankCode string) *AccountCreate {
	return &AccountCreate{logger: logger, bankCode: bankCode}
}

func (c *AccountCreate) Name() string { return "AC" }

func (c *AccountCreate) Execute(ctx context.Context, req Request) string {
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

	max, err := req.Store.MaxNumber(ctx)
	if err != nil {
		c.logger.Error("failed to retrieve max account number",
			zap.String(pkg.SessionId, req.SessionID), zap.Error(err))
		return errLine("Database error occurred, failed to create account.")
	}
	number := bank.MinAccountNumber
	if max != 0 {
		number = max + 1
	}
	if number > bank.MaxAccountNumber {
		c.logger.Info("account number space exhausted",
			zap.String(pkg.SessionId, req.SessionID))
		return errLine("Cannot create a new account right now.")
	}

	account, err := bank.NewAccount(0, number, 0)
	if err != nil {
		c.logger.Error("failed to construct account",
			zap.String(pkg.SessionId, req.SessionID), zap.Error(err))
		return errLine("Database error occurred, failed to create account.")
	}
	if err := req.Store.Save(ctx, account); err != nil {
		c.logger.Error("failed to persist new account",
			zap.String(pkg.SessionId, req.SessionID), zap.Error(err))
		return errLine("Database error occurred, failed to create account.")
	}
	c.logger.Info("created bank account",
		zap.String(pkg.SessionId, req.SessionID), zap.Int("account_number", account.Number()))
	return fmt.Sprintf("%s %d/%s", c.Name(), account.Number(), c.bankCode)
}

// AccountBalance handles "AB": report the current balance of an account.
type AccountBalance struct {
	logger   *zap.Logger
	bankCode string
}

func NewAccountBalance(logger *zap.Logger, bankCode string) *AccountBalance {
	return &AccountBalance{logger: logger, bankCode: bankCode}
}

func (c *AccountBalance) Name() string { return "AB" }

func (c *AccountBalance) Execute(ctx context.Context, req Request) string {
	if req.Store == nil {
		c.logger.Info("no database connection for session",
			zap.String(pkg.SessionId, req.SessionID), zap.String(pkg.Verb, c.Name()))
		return respNoDatabase
	}
	number, code, err := parseAccountRef(req, c.Name())
	if err != nil {
		c.logger.Info("rejected command with invalid parameters",
			zap.String(pkg.SessionId, req.SessionID), zap.String(pkg.Verb, c.Name()))
		return errLine(err.Error())
	}
	if code != c.bankCode {
		c.logger.Info("rejected command with foreign bank code",
			zap.String(pkg.SessionId, req.SessionID), zap.String(pkg.Verb, c.Name()),
			zap.String("bank_code", code))
		return errLine("Incorrect bank code.")
	}

	account, err := req.Store.FindByNumber(ctx, number)
	if err != nil {
		if pkg.IsNotFound(err) {
			c.logger.Info("account not found",
				zap.String(pkg.SessionId, req.SessionID), zap.Int("account_number", number))
			return errLine("Account not found.")
		}
		c.logger.Error("failed to retrieve account",
			zap.String(pkg.SessionId, req.SessionID), zap.Error(err))
		return errLine("Database error occurred, failed to retrieve account balance.")
	}
	return fmt.Sprintf("%s %d", c.Name(), account.Balance())
}

// AccountDeposit handles "AD": add a positive amount to an account balance.
type AccountDeposit struct {
	logger   *zap.Logger
	bankCode string
}

func NewAccountDeposit(logger *zap.Logger, bankCode string) *AccountDeposit {
	return &AccountDeposit{logger: logger, bankCode: bankCode}
}

func (c *AccountDeposit) Name() string { return "AD" }

func (c *AccountDeposit) Execute(ctx context.Context, req Request) string {
	if req.Store == nil {
		c.logger.Info("no database connection for session",
			zap.String(pkg.SessionId, req.SessionID), zap.String(pkg.Verb, c.Name()))
		return respNoDatabase
	}
	number, code, amount, err := parseAmountRef(req, c.Name())
	if err != nil {
		c.logger.Info("rejected command with invalid parameters",
			zap.String(pkg.SessionId, req.SessionID), zap.String(pkg.Verb, c.Name()))
		return errLine(err.Error())
	}
	if code != c.bankCode {
		c.logger.Info("rejected command with foreign bank code",
			zap.String(pkg.SessionId, req.SessionID), zap.String(pkg.Verb, c.Name()),
			zap.String("bank_code", code))
		return errLine("Incorrect bank code.")
	}

	account, err := req.Store.FindByNumber(ctx, number)
	if err != nil {
		if pkg.IsNotFound(err) {
			c.logger.Info("account not found",
				zap.String(pkg.SessionId, req.SessionID), zap.Int("account_number", number))
			return errLine("Account not found.")
		}
		c.logger.Error("failed to retrieve account",
			zap.String(pkg.SessionId, req.SessionID), zap.Error(err))
		return errLine("Database error occurred, failed to deposit.")
	}
	if err := account.Deposit(amount); err != nil {
		c.logger.Info("rejected deposit",
			zap.String(pkg.SessionId, req.SessionID), zap.Int64("amount", amount), zap.Error(err))
		return errLine(err.Error())
	}
	if err := req.Store.Save(ctx, account); err != nil {
		c.logger.Error("failed to persist deposit",
			zap.String(pkg.SessionId, req.SessionID), zap.Int("account_number", number), zap.Error(err))
		return errLine("Database error occurred, failed to deposit.")
	}
	c.logger.Info("deposited to bank account",
		zap.String(pkg.SessionId, req.SessionID),
		zap.Int("account_number", number), zap.Int64("amount", amount))
	return c.Name()
}

// AccountWithdrawal handles "AW": subtract a positive amount from an account
// balance, never below zero.
type AccountWithdrawal struct {
	logger   *zap.Logger
	bankCode string
}

func NewAccountWithdrawal(logger *zap.Logger, bankCode string) *AccountWithdrawal {
	return &AccountWithdrawal{logger: logger, bankCode: bankCode}
}

func (c *AccountWithdrawal) Name() string { return "AW" }

func (c *AccountWithdrawal) Execute(ctx context.Context, req Request) string {
	if req.Store == nil {
		c.logger.Info("no database connection for session",
			zap.String(pkg.SessionId, req.SessionID), zap.String(pkg.Verb, c.Name()))
		return respNoDatabase
	}
	number, code, amount, err := parseAmountRef(req, c.Name())
	if err != nil {
		c.logger.Info("rejected command with invalid parameters",
			zap.String(pkg.SessionId, req.SessionID), zap.String(pkg.Verb, c.Name()))
		return errLine(err.Error())
	}
	if code != c.bankCode {
		c.logger.Info("rejected command with foreign bank code",
			zap.String(pkg.SessionId, req.SessionID), zap.String(pkg.Verb, c.Name()),
			zap.String("bank_code", code))
		return errLine("Incorrect bank code.")
	}

	account, err := req.Store.FindByNumber(ctx, number)
	if err != nil {
		if pkg.IsNotFound(err) {
			c.logger.Info("account not found",
				zap.String(pkg.SessionId, req.SessionID), zap.Int("account_number", number))
			return errLine("Account not found.")
		}
		c.logger.Error("failed to retrieve account",
			zap.String(pkg.SessionId, req.SessionID), zap.Error(err))
		return errLine("Database error occurred, failed to withdraw.")
	}
	if err := account.Withdraw(amount); err != nil {
		c.logger.Info("rejected withdrawal",
			zap.String(pkg.SessionId, req.SessionID), zap.Int64("amount", amount), zap.Error(err))
		return errLine(err.Error())
	}
	if err := req.Store.Save(ctx, account); err != nil {
		c.logger.Error("failed to persist withdrawal",
			zap.String(pkg.SessionId, req.SessionID), zap.Int("account_number", number), zap.Error(err))
		return errLine("Database error occurred, failed to withdraw.")
	}
	c.logger.Info("withdrew from bank account",
		zap.String(pkg.SessionId, req.SessionID),
		zap.Int("account_number", number), zap.Int64("amount", amount))
	return c.Name()
}

// AccountRemove handles "AR": delete an account.
type AccountRemove struct {
	logger   *zap.Logger
	bankCode string
}

func NewAccountRemove(logger *zap.Logger, bankCode string) *AccountRemove {
	return &AccountRemove{logger: logger, bankCode: bankCode}
}

func (c *AccountRemove) Name() string { return "AR" }

func (c *AccountRemove) Execute(ctx context.Context, req Request) string {
	if req.Store == nil {
		c.logger.Info("no database connection for session",
			zap.String(pkg.SessionId, req.SessionID), zap.String(pkg.Verb, c.Name()))
		return respNoDatabase
	}
	number, code, err := parseAccountRef(req, c.Name())
	if err != nil {
		c.logger.Info("rejected command with invalid parameters",
			zap.String(pkg.SessionId, req.SessionID), zap.String(pkg.Verb, c.Name()))
		return errLine(err.Error())
	}
	if code != c.bankCode {
		c.logger.Info("rejected command with foreign bank code",
			zap.String(pkg.SessionId, req.SessionID), zap.String(pkg.Verb, c.Name()),
			zap.String("bank_code", code))
		return errLine("Incorrect bank code.")
	}

	account, err := req.Store.FindByNumber(ctx, number)
	if err != nil {
		if pkg.IsNotFound(err) {
			c.logger.Info("account not found",
				zap.String(pkg.SessionId, req.SessionID), zap.Int("account_number", number))
			return errLine("Account not found.")
		}
		c.logger.Error("failed to retrieve account",
			zap.String(pkg.SessionId, req.SessionID), zap.Error(err))
		return errLine("Database error occurred, failed to delete account.")
	}
	if err := req.Store.Delete(ctx, account); err != nil {
		c.logger.Error("failed to delete account",
			zap.String(pkg.SessionId, req.SessionID), zap.Int("account_number", number), zap.Error(err))
		return errLine("Database error occurred, failed to delete account.")
	}
	c.logger.Info("deleted bank account",
		zap.String(pkg.SessionId, req.SessionID), zap.Int("account_number", number))
	return c.Name()
}
