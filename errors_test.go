package tagoreq

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestClassifiedErrorMessage(t *testing.T) {
	err := &ClassifiedError{
		Code:       CodeNetworkError,
		Method:     "GET",
		URL:        "https://api.tago.io/device",
		Status:     StatusClientSide,
		StatusText: "fetch failed",
	}

	expected := "NETWORK_ERROR GET https://api.tago.io/device: fetch failed"
	if err.Error() != expected {
		t.Errorf("Expected '%s', got '%s'", expected, err.Error())
	}

	err.Status = 502
	err.Code = CodeHTTPError
	err.StatusText = "Bad Gateway"
	err.RequestID = "req-1"

	expected = "[req-1] HTTP_ERROR GET https://api.tago.io/device: Bad Gateway (status 502)"
	if err.Error() != expected {
		t.Errorf("Expected '%s', got '%s'", expected, err.Error())
	}
}

func TestClassifiedErrorUnwrap(t *testing.T) {
	cause := errors.New("original error")
	err := &ClassifiedError{Code: CodeUnknown, Cause: cause}

	if err.Unwrap() != cause {
		t.Errorf("Expected unwrapped error to be %v, got %v", cause, err.Unwrap())
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the cause")
	}

	var nilErr *ClassifiedError
	if nilErr.Unwrap() != nil {
		t.Error("Unwrap on nil receiver should return nil")
	}
}

func TestClassifiedErrorIs(t *testing.T) {
	tests := []struct {
		code     Code
		sentinel error
	}{
		{CodeTimeout, ErrTimeout},
		{CodeNetworkError, ErrNetwork},
		{CodeHTTPError, ErrHTTP},
		{CodeUnknown, ErrUnknown},
	}

	for _, test := range tests {
		err := fmt.Errorf("wrapped: %w", &ClassifiedError{Code: test.code})

		if !errors.Is(err, test.sentinel) {
			t.Errorf("Expected %s to match its sentinel", test.code)
		}
		if !errors.Is(err, &ClassifiedError{Code: test.code}) {
			t.Errorf("Expected %s to match a classified error of the same code", test.code)
		}
	}

	if errors.Is(&ClassifiedError{Code: CodeTimeout}, ErrNetwork) {
		t.Error("TIMEOUT must not match the network sentinel")
	}
}

func TestClassifiedErrorRetryable(t *testing.T) {
	tests := []struct {
		err      *ClassifiedError
		expected bool
	}{
		{&ClassifiedError{Code: CodeTimeout}, true},
		{&ClassifiedError{Code: CodeNetworkError}, true},
		{&ClassifiedError{Code: CodeUnknown}, true},
		{&ClassifiedError{Code: CodeHTTPError, Status: 500}, true},
		{&ClassifiedError{Code: CodeHTTPError, Status: 302}, false},
		{nil, false},
	}

	for _, test := range tests {
		if got := test.err.Retryable(); got != test.expected {
			t.Errorf("Retryable() for %v = %v, expected %v", test.err, got, test.expected)
		}
	}
}

func TestClassifiedErrorDebugInfo(t *testing.T) {
	err := &ClassifiedError{
		Origin:     OriginServerResponse,
		Code:       CodeHTTPError,
		Method:     "POST",
		URL:        "https://api.tago.io/data",
		Status:     503,
		StatusText: "Service Unavailable",
		RequestID:  "req-123",
		Attempt:    5,
		Timestamp:  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Cause:      errors.New("upstream"),
	}

	info := err.DebugInfo()
	for _, want := range []string{
		"Code: HTTP_ERROR",
		"Origin: SERVER_RESPONSE",
		"Request ID: req-123",
		"Method: POST",
		"URL: https://api.tago.io/data",
		"Status: 503",
		"Attempt: 5",
		"Timestamp: 2024-01-02T03:04:05Z",
		"Cause: upstream",
	} {
		if !strings.Contains(info, want) {
			t.Errorf("DebugInfo missing %q:\n%s", want, info)
		}
	}

	var nilErr *ClassifiedError
	if nilErr.DebugInfo() != "Error: <nil>" {
		t.Errorf("Unexpected nil DebugInfo: %q", nilErr.DebugInfo())
	}
}

func TestApplicationErrorMessage(t *testing.T) {
	tests := []struct {
		value    any
		expected string
	}{
		{"Missing 'name' field", "Missing 'name' field"},
		{nil, "null"},
		{map[string]any{"code": "E1"}, `{"code":"E1"}`},
		{[]any{"a", float64(1)}, `["a",1]`},
	}

	for _, test := range tests {
		err := &ApplicationError{Value: test.value, Status: 400}
		if err.Error() != test.expected {
			t.Errorf("Expected '%s', got '%s'", test.expected, err.Error())
		}
	}
}

func TestApplicationErrorMessageAccessor(t *testing.T) {
	msg, ok := (&ApplicationError{Value: "denied"}).Message()
	if !ok || msg != "denied" {
		t.Errorf("Expected string payload, got %q %v", msg, ok)
	}

	if _, ok := (&ApplicationError{Value: map[string]any{}}).Message(); ok {
		t.Error("Non-string payload must not report a message")
	}
}

func TestAsFailure(t *testing.T) {
	classified := &ClassifiedError{Code: CodeTimeout}
	app := &ApplicationError{Value: "x"}

	if f, ok := AsFailure(fmt.Errorf("call: %w", classified)); !ok || f != Failure(classified) {
		t.Error("Expected wrapped ClassifiedError to be extracted")
	}
	if f, ok := AsFailure(app); !ok || f != Failure(app) {
		t.Error("Expected ApplicationError to be extracted")
	}
	if _, ok := AsFailure(errors.New("plain")); ok {
		t.Error("Plain errors are not failures")
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(&ClassifiedError{Code: CodeNetworkError}) {
		t.Error("Network errors should be retryable")
	}
	if IsRetryable(&ApplicationError{Value: "x"}) {
		t.Error("Application errors are never retryable")
	}
	if IsRetryable(errors.New("plain")) {
		t.Error("Plain errors are not retryable")
	}
}
