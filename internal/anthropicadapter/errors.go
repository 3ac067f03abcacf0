package anthropicadapter

import (
	"errors"
	"fmt"
	"net/http"

	pkgerrors "github.com/pkg/errors"
)

// ErrorKind classifies failures surfaced to the caller.
type ErrorKind string

const (
	KindMissingCredential ErrorKind = "missing_credential"
	KindDownstream        ErrorKind = "downstream_error"
	KindArgumentParse     ErrorKind = "argument_parse_error"
	KindInternal          ErrorKind = "internal_error"
	KindInvalidRequest    ErrorKind = "invalid_request_error"
)

const (
	missingCredentialTitle = "Missing API key"
	downstreamTitle        = "Groq API request failed"
	internalTitle          = "Internal server error"
)

// ErrorResponse is the JSON error body returned to callers.
// Fields are populated per kind; diagnostic fields are only set when enabled.
type ErrorResponse struct {
	Err     string      `json:"error"`
	Type    ErrorKind   `json:"type"`
	Message string      `json:"message,omitempty"`
	Details *string     `json:"details,omitempty"`
	Status  int         `json:"status,omitempty"`
	Stack   string      `json:"stack,omitempty"`
	Debug   *ErrorDebug `json:"debug,omitempty"`

	status int
}

// ErrorDebug carries the request headers echoed back for operator troubleshooting.
type ErrorDebug struct {
	Headers map[string]string `json:"headers"`
}

// Error implements the error interface, returning the error title and message.
func (e *ErrorResponse) Error() string {
	if e.Message == "" {
		return e.Err
	}
	return e.Err + ": " + e.Message
}

// HTTPStatus returns the status code the response must be written with.
func (e *ErrorResponse) HTTPStatus() int {
	if e.status == 0 {
		return http.StatusInternalServerError
	}
	return e.status
}

// NewMissingCredentialResponse builds the 401 response. headers is only echoed when non-nil.
func NewMissingCredentialResponse(headers map[string]string) *ErrorResponse {
	resp := &ErrorResponse{
		Err:     missingCredentialTitle,
		Type:    KindMissingCredential,
		Message: "Please provide Groq API key in Authorization, x-api-key, or anthropic-api-key header",
		status:  http.StatusUnauthorized,
	}
	if headers != nil {
		resp.Debug = &ErrorDebug{Headers: headers}
	}
	return resp
}

// NewDownstreamResponse builds the response mirroring a failed downstream call.
func NewDownstreamResponse(err *DownstreamError) *ErrorResponse {
	details := err.Body
	return &ErrorResponse{
		Err:     downstreamTitle,
		Type:    KindDownstream,
		Details: &details,
		Status:  err.StatusCode,
		status:  err.StatusCode,
	}
}

// NewInternalResponse builds the 500 response for any other failure.
// The stack trace is attached only when withStack is set and the error carries one.
func NewInternalResponse(err error, withStack bool) *ErrorResponse {
	kind := KindInternal
	var argErr *ArgumentParseError
	if errors.As(err, &argErr) {
		kind = KindArgumentParse
	}

	resp := &ErrorResponse{
		Err:     internalTitle,
		Type:    kind,
		Message: err.Error(),
		status:  http.StatusInternalServerError,
	}
	if withStack {
		resp.Stack = StackTrace(err)
	}
	return resp
}

// NewInvalidRequestResponse builds a client error response with the given status.
func NewInvalidRequestResponse(status int, message string) *ErrorResponse {
	return &ErrorResponse{
		Err:     http.StatusText(status),
		Type:    KindInvalidRequest,
		Message: message,
		status:  status,
	}
}

// DownstreamError reports a non-2xx response from the downstream completion API.
type DownstreamError struct {
	StatusCode int
	Body       string
}

func (e *DownstreamError) Error() string {
	return fmt.Sprintf("downstream returned status %d: %s", e.StatusCode, e.Body)
}

// ArgumentParseError reports a downstream tool call whose arguments are not valid JSON.
// One bad call invalidates the whole response.
type ArgumentParseError struct {
	ToolCallID string
	ToolName   string
	Err        error
}

func (e *ArgumentParseError) Error() string {
	return fmt.Sprintf("parse arguments of tool call %s (%s): %v", e.ToolCallID, e.ToolName, e.Err)
}

func (e *ArgumentParseError) Unwrap() error {
	return e.Err
}

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// StackTrace returns the formatted stack recorded by the first pkg/errors wrapper in the chain, if any.
func StackTrace(err error) string {
	var st stackTracer
	if !errors.As(err, &st) {
		return ""
	}
	return fmt.Sprintf("%+v", st.StackTrace())
}
