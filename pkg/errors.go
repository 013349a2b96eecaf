package pkg

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// Reusable errors
var SqlError = errors.New("sql error")

// ErrorCode defines a standardized error code
type ErrorCode struct {
	Code    string
	Message string // default message
}

var (
	// Generic app
	ErrInvalidInputCode   = ErrorCode{Code: "APP_INVALID_INPUT", Message: "invalid input"}
	ErrServerCode         = ErrorCode{Code: "APP_INTERNAL", Message: "internal error"}
	ErrRecordNotFoundCode = ErrorCode{Code: "APP_NOT_FOUND", Message: "record not found"}

	// Business/domain rules
	ErrBusinessRuleCode = ErrorCode{Code: "BUSINESS_RULE_VIOLATION", Message: "business rule violated"}

	// SQL layer
	ErrSQLUnknownCode      = ErrorCode{Code: "SQL_UNKNOWN", Message: "sql error"}
	ErrSQLDuplicateCode    = ErrorCode{Code: "SQL_DUPLICATE", Message: "duplicate record"}
	ErrSQLCheckViolation   = ErrorCode{Code: "SQL_CHECK_VIOLATION", Message: "check constraint violated"}
	ErrSQLInvalidInput     = ErrorCode{Code: "SQL_INVALID_INPUT", Message: "invalid input"}
	ErrSQLConnectionFailed = ErrorCode{Code: "SQL_CONNECTION_FAILED", Message: "database unreachable"}
)

type AppError struct {
	Code    ErrorCode
	Message string // public-facing message
	Cause   error  // internal cause (wrapped)
}

func (e AppError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}
func (e AppError) Unwrap() error { return e.Cause }

func NewAppError(code ErrorCode, msg string, cause error) error {
	return AppError{Code: code, Message: msg, Cause: cause}
}

// IsNotFound reports whether err carries the not-found error code.
func IsNotFound(err error) bool {
	var appErr AppError
	return errors.As(err, &appErr) && appErr.Code.Code == ErrRecordNotFoundCode.Code
}

// HandleSQLError maps pg errors -> AppError with proper codes
func HandleSQLError(logger *zap.Logger, sessionID string, err error) error {
	var pgErr *pgconn.PgError
	if errors.Is(err, pgx.ErrNoRows) {
		logger.Warn("sql error : no records found", zap.String(SessionId, sessionID))
		return NewAppError(ErrRecordNotFoundCode, "no records found", err)
	}
	if !errors.As(err, &pgErr) {
		logger.Error("sql error : unknown", zap.String(SessionId, sessionID), zap.Error(err))
		return NewAppError(ErrSQLUnknownCode, "sql error", err)
	}

	// Log rich pg error context
	logger.Error("sql error",
		zap.String(SessionId, sessionID),
		zap.String("code", pgErr.Code),
		zap.String("message", pgErr.Message),
		zap.String("detail", pgErr.Detail),
		zap.String("table", pgErr.TableName),
		zap.String("column", pgErr.ColumnName),
		zap.String("constraint", pgErr.ConstraintName),
	)

	switch pgErr.Code {
	case "23505": // unique_violation
		return NewAppError(ErrSQLDuplicateCode, "duplicate value violates unique constraint", SqlError)
	case "23514": // check_violation
		return NewAppError(ErrSQLCheckViolation, "check constraint violated", SqlError)
	case "22P02": // invalid_text_representation
		return NewAppError(ErrSQLInvalidInput, "invalid input syntax", SqlError)
	case "22003": // numeric_value_out_of_range
		return NewAppError(ErrSQLInvalidInput, "numeric value out of range", SqlError)
	default:
		return NewAppError(ErrSQLUnknownCode, "sql error", SqlError)
	}
}
