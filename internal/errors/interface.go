// Package errors provides coded application errors shared by the
// smartpowerctl packages.
package errors

// ErrorCode identifies an error kind; callers match on it with HasCode
type ErrorCode string

// Error is an application error carrying a code and an optional cause
type Error interface {
	error
	Code() ErrorCode
	WithMessage(msg string) Error
	WithData(data any) Error
	GetData() any
	Unwrap() error
}

// Factory creates coded errors
type Factory interface {
	New(code ErrorCode) Error
	Wrap(code ErrorCode, err error) Error
	WithMessage(code ErrorCode, msg string) Error
	WithData(code ErrorCode, data any) Error
}
