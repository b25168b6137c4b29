package errors

import "fmt"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// AppError carries both an operator-facing message and the text shown to the
// Telegram user. Retryable marks failures the user may simply try again.
type AppError struct {
	Code        string
	Message     string
	UserMessage string
	Severity    Severity
	Retryable   bool
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

func (e *AppError) Cause() error {
	return e.Unwrap()
}

// NewValidationError covers malformed user input: bad account IDs, bad
// amounts. It ends the active flow and is not logged as a system fault.
func NewValidationError(msg string) *AppError {
	return &AppError{
		Code:        "E100",
		Message:     msg,
		UserMessage: msg,
		Severity:    SeverityLow,
		Retryable:   false,
	}
}

// NewInsufficientBalanceError is raised by the pre-flow balance floor check.
func NewInsufficientBalanceError(asset string) *AppError {
	return &AppError{
		Code:        "E110",
		Message:     fmt.Sprintf("insufficient %s balance", asset),
		UserMessage: fmt.Sprintf("❌ Insufficient balance. Please deposit more %s.", asset),
		Severity:    SeverityLow,
		Retryable:   false,
	}
}

// NewStorageError wraps wallet or session persistence failures.
func NewStorageError(cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:        "E200",
		Message:     fmt.Sprintf("storage error: %s", underlyingMsg),
		UserMessage: "Sorry, something went wrong. Please try again later.",
		Severity:    SeverityHigh,
		Retryable:   true,
		cause:       cause,
	}
}

// NewQuoteError wraps a price oracle failure.
func NewQuoteError(cause error) *AppError {
	return &AppError{
		Code:        "E300",
		Message:     "price oracle unavailable",
		UserMessage: "❌ Error preparing the operation. Please try again later.",
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}

// NewLedgerError wraps a non-success receipt or a ledger transport failure.
// The raw status stays in Message for the logs; the user gets a generic text.
func NewLedgerError(step, status string, cause error) *AppError {
	return &AppError{
		Code:        "E310",
		Message:     fmt.Sprintf("ledger step %s failed with status %s", step, status),
		UserMessage: "❌ Transaction failed. Please try again later.",
		Severity:    SeverityHigh,
		Retryable:   false,
		cause:       cause,
	}
}

// NewStateError reports an operation attempted from an incompatible flow state.
func NewStateError(msg string) *AppError {
	return &AppError{
		Code:        "E400",
		Message:     msg,
		UserMessage: "That action is not available right now. Use /start to begin again.",
		Severity:    SeverityMedium,
		Retryable:   false,
	}
}
