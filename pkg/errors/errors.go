// Package errors provides structured error types for the scenegraph tools.
//
// Errors carry a machine-readable [Code] so that the CLI, the HTTP server and
// the editor can react to a failure without parsing message text. Each code
// belongs to a [Category] that fixes its HTTP status.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeSceneNotFound, "scene %q not found", id)
//	if errors.Is(err, errors.ErrCodeSceneNotFound) {
//	    // Handle missing scene
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "load scenario %s", id)
//
// Any error in a chain that reports its own code (such as [*CycleError])
// participates in [Is], [GetCode] and [HTTPStatus] without being wrapped in an
// [*Error] first.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

const (
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidFormat   Code = "INVALID_FORMAT"
	ErrCodeInvalidScenario Code = "INVALID_SCENARIO"
	ErrCodeInvalidID       Code = "INVALID_ID"

	ErrCodeCycleDetected       Code = "CYCLE_DETECTED"
	ErrCodeMultipleStartScenes Code = "MULTIPLE_START_SCENES"

	ErrCodeScenarioNotFound Code = "SCENARIO_NOT_FOUND"
	ErrCodeSceneNotFound    Code = "SCENE_NOT_FOUND"
	ErrCodeFileNotFound     Code = "FILE_NOT_FOUND"

	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Category groups codes that callers handle the same way.
type Category int

const (
	CategoryInternal Category = iota
	CategoryInput
	CategoryConflict
	CategoryNotFound
	CategoryBackend
)

type codeInfo struct {
	category Category
	status   int
}

var codes = map[Code]codeInfo{
	ErrCodeInvalidInput:        {CategoryInput, http.StatusBadRequest},
	ErrCodeInvalidFormat:       {CategoryInput, http.StatusBadRequest},
	ErrCodeInvalidScenario:     {CategoryInput, http.StatusBadRequest},
	ErrCodeInvalidID:           {CategoryInput, http.StatusBadRequest},
	ErrCodeCycleDetected:       {CategoryConflict, http.StatusConflict},
	ErrCodeMultipleStartScenes: {CategoryConflict, http.StatusConflict},
	ErrCodeScenarioNotFound:    {CategoryNotFound, http.StatusNotFound},
	ErrCodeSceneNotFound:       {CategoryNotFound, http.StatusNotFound},
	ErrCodeFileNotFound:        {CategoryNotFound, http.StatusNotFound},
	ErrCodeNetwork:             {CategoryBackend, http.StatusBadGateway},
	ErrCodeTimeout:             {CategoryBackend, http.StatusGatewayTimeout},
	ErrCodeInternal:            {CategoryInternal, http.StatusInternalServerError},
	ErrCodeUnsupported:         {CategoryInternal, http.StatusNotImplemented},
}

// Category reports the group c belongs to. Unknown codes are internal.
func (c Code) Category() Category { return codes[c].category }

// Status is the HTTP status the server answers with for c.
func (c Code) Status() int {
	if info, ok := codes[c]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

// coded is implemented by every error type that carries a Code.
type coded interface {
	error
	errorCode() Code
}

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error   { return e.Cause }
func (e *Error) errorCode() Code { return e.Code }

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// GetCode returns the code of the outermost coded error in err's chain, or
// the empty code when there is none.
func GetCode(err error) Code {
	var c coded
	if errors.As(err, &c) {
		return c.errorCode()
	}
	return ""
}

// Is reports whether the outermost coded error in err's chain has code.
func Is(err error, code Code) bool {
	return err != nil && GetCode(err) == code
}

// UserMessage returns err's message without the code prefix.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// HTTPStatus maps an error to the HTTP status the server responds with.
// Errors without a code map to 500.
func HTTPStatus(err error) int {
	return GetCode(err).Status()
}

// CycleError is returned when an edit would introduce a cycle into the
// choice graph. Path is the offending cycle with its first id repeated last.
type CycleError struct {
	ScenarioID string
	Path       []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: scenario %s: cycle %s", ErrCodeCycleDetected, e.ScenarioID, strings.Join(e.Path, " -> "))
}

// Code always reports CYCLE_DETECTED.
func (e *CycleError) Code() Code { return ErrCodeCycleDetected }

func (e *CycleError) errorCode() Code { return ErrCodeCycleDetected }
