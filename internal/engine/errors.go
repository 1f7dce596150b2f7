package engine

import "fmt"

// ErrorCode names the kind of failure, per spec §7: "name the kind, not
// the type."
type ErrorCode string

const (
	ErrCodeNotFound               ErrorCode = "DECISION_NOT_FOUND"
	ErrCodeValidation             ErrorCode = "INVALID_INPUT"
	ErrCodeDatabaseError          ErrorCode = "DATABASE_ERROR"
	ErrCodeEmbeddingError         ErrorCode = "EMBEDDING_ERROR"
	ErrCodeConfigError            ErrorCode = "CONFIG_ERROR"
	ErrCodeVectorExtensionMissing ErrorCode = "VECTOR_EXTENSION_MISSING"
	ErrCodeTimeout                ErrorCode = "TIMEOUT"
	ErrCodeNotInitialized         ErrorCode = "NOT_INITIALIZED"
)

// Error is the structured error every surfaced engine failure carries:
// a code, a human message, and an optional details map (spec §7).
type Error struct {
	Code    ErrorCode
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code ErrorCode, message string, details map[string]any) *Error {
	return &Error{Code: code, Message: message, Details: details}
}

func notFoundErr(message string) *Error {
	return newError(ErrCodeNotFound, message, nil)
}

func validationErr(message string) *Error {
	return newError(ErrCodeValidation, message, nil)
}

func databaseErr(err error) *Error {
	return newError(ErrCodeDatabaseError, err.Error(), nil)
}

func timeoutErr(message string) *Error {
	return newError(ErrCodeTimeout, message, nil)
}
