// Package goerror defines the structured error used from usecases up to the
// HTTP codec.
package goerror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound indicates that the requested resource could not be found.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict indicates that the request could not be completed due to a conflict.
	ErrConflict = errors.New("resource conflict")
)

// Type classifies errors into high-level buckets.
type Type int

const (
	TypeServer Type = iota
	TypeBusiness
	TypeValidation
)

func (t Type) String() string {
	switch t {
	case TypeValidation:
		return "ERROR_TYPE_VALIDATION"
	case TypeBusiness:
		return "ERROR_TYPE_BUSINESS"
	case TypeServer:
		return "ERROR_TYPE_SERVER"
	default:
		return "ERROR_TYPE_UNKNOWN"
	}
}

// Code is a stable identifier mapped to an HTTP status code.
type Code int

const (
	CodeInternal Code = iota
	CodeInvalidFormat
	CodeInvalidInput
	CodeNotFound
	CodeConflict
	CodeTooManyRequest
	CodeUnauthorized
	CodeForbidden
	CodeTimeout
)

var codeNames = map[Code]string{
	CodeInvalidFormat:  "ERROR_CODE_INVALID_FORMAT",
	CodeInvalidInput:   "ERROR_CODE_INVALID_INPUT",
	CodeNotFound:       "ERROR_CODE_NOT_FOUND",
	CodeConflict:       "ERROR_CODE_CONFLICT",
	CodeTooManyRequest: "ERROR_CODE_TOO_MANY_REQUESTS",
	CodeUnauthorized:   "ERROR_CODE_UNAUTHORIZED",
	CodeForbidden:      "ERROR_CODE_FORBIDDEN",
	CodeTimeout:        "ERROR_CODE_TIMEOUT",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "ERROR_CODE_INTERNAL"
}

var codeStatuses = map[Code]int{
	CodeInvalidFormat:  http.StatusBadRequest,
	CodeInvalidInput:   http.StatusUnprocessableEntity,
	CodeNotFound:       http.StatusNotFound,
	CodeUnauthorized:   http.StatusUnauthorized,
	CodeForbidden:      http.StatusForbidden,
	CodeTimeout:        http.StatusRequestTimeout,
	CodeTooManyRequest: http.StatusTooManyRequests,
	CodeConflict:       http.StatusConflict,
}

// Error carries an optional wrapped error together with a user-facing
// message, a type and a code. Validation errors carry per-field messages and
// business errors may carry a list of details safe to show to the user.
type Error struct {
	err     error
	msg     string
	errType Type
	code    Code
	fields  map[string]string
	details []string
}

func (e *Error) Error() string {
	if e.err != nil {
		return e.err.Error()
	}

	if e.msg != "" {
		return e.msg
	}

	switch e.errType {
	case TypeValidation:
		return "Validation violation"
	case TypeBusiness:
		return "Logical business not meet with requirement"
	default:
		return "Internal error"
	}
}

// String returns a verbose representation for logs.
func (e *Error) String() string {
	return fmt.Sprintf("Error Type: %s, Code: %s, Message: %s, Details: %v, Underlying Error: %v",
		e.errType, e.code, e.msg, e.details, e.err)
}

func (e *Error) Msg() string { return e.msg }

func (e *Error) Type() Type { return e.errType }

func (e *Error) Code() Code { return e.code }

// Fields returns validation errors keyed by field name.
func (e *Error) Fields() map[string]string { return e.fields }

// Details returns the list of user-facing reasons attached to a business error.
func (e *Error) Details() []string { return e.details }

func (e *Error) Unwrap() error { return e.err }

// StatusCode maps the error code to an HTTP status code.
func (e *Error) StatusCode() int {
	if status, ok := codeStatuses[e.code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// As reports whether err is (or wraps) an *Error and returns it.
func As(err error) (*Error, bool) {
	var ge *Error
	ok := errors.As(err, &ge)
	return ge, ok
}

// CodeOf returns the code of err, or CodeInternal when err is not an *Error.
func CodeOf(err error) Code {
	if ge, ok := As(err); ok {
		return ge.code
	}
	return CodeInternal
}

func build(err error, msg string, et Type, code Code) *Error {
	return &Error{err: err, msg: msg, errType: et, code: code}
}

// NewServer wraps an unexpected failure. The message never exposes err.
func NewServer(err error) error {
	return build(err, "Internal server error", TypeServer, CodeInternal)
}

// NewBusiness creates a business-type error with the specified message and code.
func NewBusiness(msg string, code Code) error {
	return build(nil, msg, TypeBusiness, code)
}

// NewBusinessWithDetails creates a business error that also carries a list of
// reasons, e.g. the password policy violations reported by the identity layer.
func NewBusinessWithDetails(msg string, code Code, details []string) error {
	e := build(nil, msg, TypeBusiness, code)
	if len(details) > 0 {
		e.details = append([]string(nil), details...)
	}
	return e
}

// NewInvalidInput creates a validation error. When err is nil the kv pairs
// are used as field to message entries.
func NewInvalidInput(err error, kv ...string) error {
	if err != nil {
		return build(err, "Validation error", TypeValidation, CodeInvalidInput)
	}

	if len(kv)%2 != 0 {
		return build(nil, "Invalid request body", TypeValidation, CodeInvalidFormat)
	}

	e := build(nil, "Validation error", TypeValidation, CodeInvalidInput)
	e.fields = make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		e.fields[kv[i]] = kv[i+1]
	}

	return e
}

// NewInvalidFormat creates a validation error for an invalid request body format.
func NewInvalidFormat(msgs ...string) error {
	if len(msgs) == 0 {
		return build(nil, "Invalid request body", TypeValidation, CodeInvalidFormat)
	}
	return build(nil, msgs[0], TypeValidation, CodeInvalidFormat)
}
