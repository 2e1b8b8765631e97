package errors

import "errors"

// Code identifies a structured error type used across the application.
type Code string

const (
	// Generic codes
	CodeUnknown      Code = "UNKNOWN"
	CodeNotFound     Code = "NOT_FOUND"
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeStoreFailure Code = "STORE_FAILURE"

	// Dependency mutation rejections
	CodeDuplicateDependency Code = "DUPLICATE_DEPENDENCY"
	CodeCircularDependency  Code = "CIRCULAR_DEPENDENCY"

	// Milestone linkage rejections
	CodeDuplicateLink                Code = "DUPLICATE_LINK"
	CodeContributorDependentConflict Code = "CONTRIBUTOR_DEPENDENT_CONFLICT"
)

// Error represents a structured error with a machine-readable code plus message.
// Details carries data a caller may render, such as the offending cycle path.
type Error struct {
	Code    Code
	Message string
	Details map[string]any
	Err     error
}

// Error implements the error interface.
func (e Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Code)
}

// Unwrap returns the wrapped error.
func (e Error) Unwrap() error {
	return e.Err
}

// New wraps an error with a code/message.
func New(code Code, msg string, err error) Error {
	return Error{Code: code, Message: msg, Err: err}
}

// WithDetails returns a copy of e carrying the given key/value.
func (e Error) WithDetails(key string, value any) Error {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	e.Details = details
	return e
}

// As returns the first structured error in the chain.
func As(err error) (Error, bool) {
	var structured Error
	if errors.As(err, &structured) {
		return structured, true
	}
	return Error{}, false
}

// CodeOf walks the error chain and returns the first structured code found.
func CodeOf(err error) Code {
	if structured, ok := As(err); ok {
		return structured.Code
	}
	return CodeUnknown
}

// IsCode reports whether the error (or its unwrap chain) matches the provided code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// DetailsOf returns the details of the first structured error in the chain.
func DetailsOf(err error) map[string]any {
	if structured, ok := As(err); ok {
		return structured.Details
	}
	return nil
}
