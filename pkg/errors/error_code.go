package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Configuration errors (100-199)
	ErrCodeInvalidConfiguration ErrorCode = 100
	ErrCodeInvalidPeriod        ErrorCode = 101
	ErrCodeInvalidFee           ErrorCode = 102
	ErrCodeInvalidOffset        ErrorCode = 103
	ErrCodeVersionMismatch      ErrorCode = 104

	// History errors (200-299)
	ErrCodeInsufficientHistory ErrorCode = 200

	// Strategy errors (300-399)
	ErrCodeUnsupportedStrategy ErrorCode = 300
	ErrCodeMissingScore        ErrorCode = 301
	ErrCodeMissingPrediction   ErrorCode = 302
	ErrCodeMissingTimestamp    ErrorCode = 303
	ErrCodeInvalidScore        ErrorCode = 304

	// Ledger errors (400-499)
	ErrCodeLedgerInvariant ErrorCode = 400
	ErrCodeInvalidPrice    ErrorCode = 401

	// Feed errors (500-599)
	ErrCodeFeedFailed      ErrorCode = 500
	ErrCodeFeedUnavailable ErrorCode = 501

	// Backtest errors (600-699)
	ErrCodeBacktestNotInitialized ErrorCode = 600
	ErrCodeStateFailed            ErrorCode = 601
	ErrCodeWriteFailed            ErrorCode = 602
)
