package agent

import (
	"errors"
	"fmt"
)

// ErrorKind enumerates the error categories surfaced by the dispatch and
// tool-orchestration engine.
type ErrorKind string

const (
	ErrInvalidInput      ErrorKind = "INVALID_INPUT"
	ErrUnauthenticated   ErrorKind = "UNAUTHENTICATED"
	ErrPathEscape        ErrorKind = "PATH_ESCAPE"
	ErrProviderTimeout   ErrorKind = "PROVIDER_TIMEOUT"
	ErrProviderRejected  ErrorKind = "PROVIDER_REJECTED"
	ErrVectorBackend     ErrorKind = "VECTOR_BACKEND_ERROR"
	ErrStepCapExceeded   ErrorKind = "STEP_CAP_EXCEEDED"
	ErrStoreError        ErrorKind = "STORE_ERROR"
)

// Error is the structured error type carried through the engine. Handlers
// map Kind to an HTTP status or SSE event per the error handling policy;
// a client never sees Cause directly.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s", e.Kind, e.Cause.Error())
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Cause }

func newError(kind ErrorKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

func InvalidInput(msg string) *Error               { return newError(ErrInvalidInput, msg, nil) }
func Unauthenticated() *Error                       { return newError(ErrUnauthenticated, "", nil) }
func PathEscape(path string) *Error {
	return newError(ErrPathEscape, "path escapes allowed directory: "+path, nil)
}
func ProviderTimeout(provider string, cause error) *Error {
	return newError(ErrProviderTimeout, provider+" request timed out", cause)
}
func ProviderRejected(provider string, cause error) *Error {
	return newError(ErrProviderRejected, provider+" rejected the request", cause)
}
func VectorBackendError(cause error) *Error {
	return newError(ErrVectorBackend, "vector backend error", cause)
}
func StepCapExceeded(steps int) *Error {
	return newError(ErrStepCapExceeded, fmt.Sprintf("exceeded step cap after %d tool calls", steps), nil)
}
func StoreError(cause error) *Error { return newError(ErrStoreError, "store error", cause) }

// KindOf extracts the ErrorKind of err, if it is (or wraps) an *Error.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// IsRetryable reports whether the error kind suggests a retry at a higher
// layer may succeed. This component never retries internally; callers
// decide.
func IsRetryable(err error) bool {
	kind, ok := KindOf(err)
	if !ok {
		return false
	}
	return kind == ErrProviderTimeout || kind == ErrVectorBackend
}

// FallbackAssistantText is substituted when a model reply carries empty
// text at step 4 of the agent loop.
const FallbackAssistantText = "I wasn't able to produce a response for that — this can happen when the model returned no content or every tool attempt failed. Please rephrase the question or try again."

// DegradedApologyText is returned when the agent loop exceeds its step cap.
const DegradedApologyText = "I had to stop after exhausting my allotted number of tool calls without reaching a final answer. Please narrow the question or try again."

// ToolArgumentError reports a malformed tool-call argument violation so it
// can be injected back into memory per the tool-call contract (§4.5).
func ToolArgumentError(toolName, detail string) string {
	return fmt.Sprintf("invalid arguments for tool %q: %s", toolName, detail)
}
