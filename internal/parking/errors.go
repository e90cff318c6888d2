package parking

import (
	"errors"
	"fmt"
)

// ErrKind classifies a ToolError.
type ErrKind int

const (
	// ErrKindValidation is a missing or malformed argument. Caller fault.
	ErrKindValidation ErrKind = iota + 1
	// ErrKindUnknownTool is an unrecognised tool name. Caller fault.
	ErrKindUnknownTool
	// ErrKindUpstream is a failure reaching or reading the geodata service.
	ErrKindUpstream
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindValidation:
		return "validation"
	case ErrKindUnknownTool:
		return "unknown_tool"
	case ErrKindUpstream:
		return "upstream"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is.
var (
	ErrValidation  = errors.New("invalid tool arguments")
	ErrUnknownTool = errors.New("unknown tool")
	ErrUpstream    = errors.New("upstream query failed")
)

// ToolError is the single error type returned by the dispatcher.
type ToolError struct {
	Kind    ErrKind
	Tool    string
	Param   string // set for validation errors
	Message string
	Err     error // underlying upstream error, if any
}

func (e *ToolError) Error() string {
	return e.Message
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels so callers can use errors.Is(err, ErrValidation).
func (e *ToolError) Is(target error) bool {
	switch target {
	case ErrValidation:
		return e.Kind == ErrKindValidation
	case ErrUnknownTool:
		return e.Kind == ErrKindUnknownTool
	case ErrUpstream:
		return e.Kind == ErrKindUpstream
	}
	return false
}

// CallerFault reports whether the error was caused by the caller's input.
func (e *ToolError) CallerFault() bool {
	return e.Kind == ErrKindValidation || e.Kind == ErrKindUnknownTool
}

func validationError(tool, param, msg string) *ToolError {
	return &ToolError{
		Kind:    ErrKindValidation,
		Tool:    tool,
		Param:   param,
		Message: msg,
	}
}

func upstreamError(tool string, err error) *ToolError {
	return &ToolError{
		Kind:    ErrKindUpstream,
		Tool:    tool,
		Message: fmt.Sprintf("%v", err),
		Err:     err,
	}
}
