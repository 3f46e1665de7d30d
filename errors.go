package tagoreq

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Origin tells whether a failure happened before a complete HTTP exchange
// or was reported by the server.
type Origin string

const (
	OriginClientRequest  Origin = "CLIENT_REQUEST"
	OriginServerResponse Origin = "SERVER_RESPONSE"
)

// Code is the closed set of classified failure reasons.
type Code string

const (
	CodeTimeout      Code = "TIMEOUT"
	CodeNetworkError Code = "NETWORK_ERROR"
	CodeHTTPError    Code = "HTTP_ERROR"
	CodeUnknown      Code = "UNKNOWN"
)

// StatusClientSide is the status reported for failures without an HTTP
// response.
const StatusClientSide = -1

// Sentinel errors matching each classified code with errors.Is.
var (
	ErrTimeout = errors.New("tagoreq: timeout")
	ErrNetwork = errors.New("tagoreq: network error")
	ErrHTTP    = errors.New("tagoreq: http error")
	ErrUnknown = errors.New("tagoreq: unknown error")

	// ErrInvalidConfig wraps every configuration validation failure.
	ErrInvalidConfig = errors.New("tagoreq: invalid configuration")
)

// Failure is the error returned by Client.Do. It is either a
// *ClassifiedError (transport, timeout or server failures that exhausted
// the attempt budget) or an *ApplicationError (the API's own rejection
// payload, returned verbatim and never retried).
type Failure interface {
	error
	failure()
}

// ClassifiedError is the engine's own failure record.
type ClassifiedError struct {
	Origin     Origin
	URL        string
	Method     string
	Status     int
	Code       Code
	StatusText string
	// Body holds the decoded response body for HTTP_ERROR failures.
	Body      any
	Cause     error
	RequestID string
	Attempt   int
	Timestamp time.Time
}

func (*ClassifiedError) failure() {}

// Error implements error interface.
func (e *ClassifiedError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%s %s %s: %s", e.Code, e.Method, e.URL, e.StatusText)
	if e.Status != StatusClientSide {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.RequestID != "" {
		msg = fmt.Sprintf("[%s] %s", e.RequestID, msg)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ClassifiedError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches the code sentinels and other classified errors of the same code.
func (e *ClassifiedError) Is(target error) bool {
	if e == nil {
		return false
	}
	if t, ok := target.(*ClassifiedError); ok {
		return e.Code == t.Code
	}
	return target == sentinelFor(e.Code)
}

// Retryable reports whether another attempt may succeed.
func (e *ClassifiedError) Retryable() bool {
	if e == nil {
		return false
	}
	if e.Code == CodeHTTPError {
		return e.Status >= 500
	}
	return true
}

// DebugInfo renders a multi-line string with diagnostic context.
func (e *ClassifiedError) DebugInfo() string {
	if e == nil {
		return "Error: <nil>"
	}
	info := fmt.Sprintf("Code: %s\n", e.Code)
	info += fmt.Sprintf("Origin: %s\n", e.Origin)
	info += fmt.Sprintf("Status Text: %s\n", e.StatusText)
	if e.RequestID != "" {
		info += fmt.Sprintf("Request ID: %s\n", e.RequestID)
	}
	if e.Method != "" {
		info += fmt.Sprintf("Method: %s\n", e.Method)
	}
	if e.URL != "" {
		info += fmt.Sprintf("URL: %s\n", e.URL)
	}
	info += fmt.Sprintf("Status: %d\n", e.Status)
	if e.Attempt > 0 {
		info += fmt.Sprintf("Attempt: %d\n", e.Attempt)
	}
	if !e.Timestamp.IsZero() {
		info += fmt.Sprintf("Timestamp: %s\n", e.Timestamp.Format(time.RFC3339))
	}
	if e.Cause != nil {
		info += fmt.Sprintf("Cause: %v\n", e.Cause)
	}
	return info
}

func sentinelFor(code Code) error {
	switch code {
	case CodeTimeout:
		return ErrTimeout
	case CodeNetworkError:
		return ErrNetwork
	case CodeHTTPError:
		return ErrHTTP
	default:
		return ErrUnknown
	}
}

// ApplicationError carries the API's own rejection payload: the body's
// message, else its result, else the whole body.
type ApplicationError struct {
	Value any
	// Status is the HTTP status of the response that carried the payload.
	Status int
}

func (*ApplicationError) failure() {}

// Error returns the payload itself when it is a string, its JSON encoding
// otherwise.
func (e *ApplicationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch v := e.Value.(type) {
	case string:
		return v
	case nil:
		return "null"
	}
	data, err := json.Marshal(e.Value)
	if err != nil {
		return fmt.Sprint(e.Value)
	}
	return string(data)
}

// Message returns the payload when it is a string.
func (e *ApplicationError) Message() (string, bool) {
	if e == nil {
		return "", false
	}
	s, ok := e.Value.(string)
	return s, ok
}

// AsFailure extracts the Failure carried by err.
func AsFailure(err error) (Failure, bool) {
	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified, true
	}
	var app *ApplicationError
	if errors.As(err, &app) {
		return app, true
	}
	return nil, false
}

// IsRetryable reports whether err is a classified failure worth another
// attempt. Application errors never are.
func IsRetryable(err error) bool {
	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified.Retryable()
	}
	return false
}
