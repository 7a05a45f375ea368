package safefetch

import (
	"fmt"
	"runtime"
	"strings"
)

// Kind tags the closed set of failure categories a fetch can produce.
type Kind string

const (
	// KindUnknown covers any failure not matching a known category.
	KindUnknown Kind = "unknown"
	// KindHTTP marks a response whose status signalled failure.
	KindHTTP Kind = "http"
	// KindPayload marks a body that could not be decoded, or an unsupported
	// content type.
	KindPayload Kind = "payload"
	// KindValidation marks a payload rejected by a schema.
	KindValidation Kind = "validation"
	// KindAbort, KindType and KindSyntax classify transport failures:
	// cancellation, connectivity, and malformed-request conditions.
	KindAbort  Kind = "abort"
	KindType   Kind = "type"
	KindSyntax Kind = "syntax"
)

// Issue is a single schema violation: a dot-joined field path and the
// validator's message for it.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Error is the classified failure surfaced by Fetch. Kind discriminates which
// of the optional fields are meaningful.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`

	// Code and Properties are set for KindHTTP: the response status and the
	// decoded (optionally validated) error body.
	Code       int `json:"code,omitempty"`
	Properties any `json:"properties,omitempty"`

	// ContentType and Parser are set for KindPayload. ContentType is nil when
	// the response carried no Content-Type header.
	ContentType *string `json:"contentType,omitempty"`
	Parser      Parser  `json:"parser,omitempty"`

	// Input and Violations are set for KindValidation: the untouched payload
	// and one entry per rejected field path.
	Input      any     `json:"input,omitempty"`
	Violations []Issue `json:"violations,omitempty"`
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newHTTPError(code int, message string, properties any) *Error {
	return &Error{Kind: KindHTTP, Message: message, Code: code, Properties: properties}
}

func newPayloadError(message string, contentType *string, parser Parser) *Error {
	return &Error{Kind: KindPayload, Message: message, ContentType: contentType, Parser: parser}
}

func newValidationError(input any, issues []Issue) *Error {
	msgs := make([]string, 0, len(issues))
	for _, is := range issues {
		if is.Message != "" {
			msgs = append(msgs, is.Message)
		}
	}
	message := strings.Join(msgs, "; ")
	if message == "" {
		message = "Response validation failed"
	}
	return &Error{
		Kind:       KindValidation,
		Message:    message,
		Input:      input,
		Violations: issues,
	}
}

func newFetchError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

const unknownErrorMessage = "Unknown error"

// newUnknownError wraps an unexpected failure, keeping its message and a
// capture of the current stack for diagnostics.
func newUnknownError(cause error) *Error {
	msg := unknownErrorMessage
	if cause != nil && strings.TrimSpace(cause.Error()) != "" {
		msg = cause.Error()
	}
	return &Error{Kind: KindUnknown, Message: msg, Stack: captureStack(2)}
}

// captureStack renders the calling goroutine's stack, skipping the given
// number of frames above the capture site.
func captureStack(skip int) string {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		return ""
	}
	frames := runtime.CallersFrames(pcs[:n])
	var b strings.Builder
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&b, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		if !more {
			break
		}
	}
	return b.String()
}
