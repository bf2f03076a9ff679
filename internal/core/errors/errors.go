package errors

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeValidationError  ErrorCode = "VALIDATION_ERROR"
	CodeInternalCompiler ErrorCode = "INTERNAL_COMPILER_ERROR"
	CodeIO               ErrorCode = "IO_ERROR"
	CodeNotSupported     ErrorCode = "NOT_SUPPORTED"
	CodeCorrupt          ErrorCode = "CORRUPT"
)

type DomainError struct {
	Code    ErrorCode
	Message string
	Err     error
	Context map[string]interface{}
}

const (
	CtxPath      = "path"
	CtxOperation = "operation"
	CtxTypeName  = "type"
	CtxNode      = "node"
	CtxUnit      = "unit"
)

func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if len(e.Context) > 0 {
		msg += fmt.Sprintf(" %v", e.Context)
	}
	return msg
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func New(code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg}
}

func Newf(code ErrorCode, format string, args ...interface{}) error {
	return &DomainError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(err error, code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg, Err: err}
}

// Internal reports a failure that aborts the whole build.
func Internal(format string, args ...interface{}) error {
	return Newf(CodeInternalCompiler, format, args...)
}

// AddContext attaches a key to err, wrapping foreign errors as internal.
func AddContext(err error, key string, value interface{}) error {
	var de *DomainError
	if errors.As(err, &de) {
		de.WithContext(key, value)
		return de
	}
	return &DomainError{
		Code:    CodeInternalCompiler,
		Message: "wrapped error",
		Err:     err,
		Context: map[string]interface{}{key: value},
	}
}

// AddNode appends a node description to the chain of nodes an internal
// error passed through on its way out of a builder.
func AddNode(err error, node string) error {
	var de *DomainError
	if !errors.As(err, &de) {
		de = &DomainError{Code: CodeInternalCompiler, Message: "internal compiler error", Err: err}
	}
	prev, _ := de.Context[CtxNode].([]string)
	de.WithContext(CtxNode, append(prev, node))
	return de
}

// IsCode checks if an error has a specific error code.
func IsCode(err error, code ErrorCode) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

func IsInternal(err error) bool {
	return IsCode(err, CodeInternalCompiler)
}
