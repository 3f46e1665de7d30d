package tagoreq

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const classifyTestURL = "https://api.tago.io/device"

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o deadline" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func classifyExpectClassified(t *testing.T, err error) (*ClassifiedError, bool) {
	t.Helper()
	failure, retryable := Classify(err, classifyTestURL, "GET")
	ce, ok := failure.(*ClassifiedError)
	require.True(t, ok, "expected *ClassifiedError, got %T", failure)
	assert.Equal(t, classifyTestURL, ce.URL)
	assert.Equal(t, "GET", ce.Method)
	return ce, retryable
}

func TestClassifyTimeout(t *testing.T) {
	causes := map[string]error{
		"deadline":      context.DeadlineExceeded,
		"canceled":      context.Canceled,
		"wrapped":       &url.Error{Op: "Get", URL: classifyTestURL, Err: context.DeadlineExceeded},
		"net timeout":   timeoutError{},
		"message":       errors.New("socket Timeout reached"),
		"url net error": &url.Error{Op: "Get", URL: classifyTestURL, Err: timeoutError{}},
	}

	for name, cause := range causes {
		t.Run(name, func(t *testing.T) {
			ce, retryable := classifyExpectClassified(t, cause)

			assert.True(t, retryable)
			assert.Equal(t, CodeTimeout, ce.Code)
			assert.Equal(t, OriginClientRequest, ce.Origin)
			assert.Equal(t, StatusClientSide, ce.Status)
			assert.ErrorIs(t, ce, ErrTimeout)
		})
	}
}

func TestClassifyNetwork(t *testing.T) {
	causes := map[string]error{
		"url error":  &url.Error{Op: "Get", URL: classifyTestURL, Err: errors.New("dial tcp: connection refused")},
		"op error":   &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED},
		"dns error":  &net.DNSError{Err: "no such host", Name: "api.tago.io"},
		"reset":      fmt.Errorf("read: %w", syscall.ECONNRESET),
		"short body": io.ErrUnexpectedEOF,
	}

	for name, cause := range causes {
		t.Run(name, func(t *testing.T) {
			ce, retryable := classifyExpectClassified(t, cause)

			assert.True(t, retryable)
			assert.Equal(t, CodeNetworkError, ce.Code)
			assert.Equal(t, "fetch failed", ce.StatusText)
			assert.Equal(t, StatusClientSide, ce.Status)
			assert.ErrorIs(t, ce, ErrNetwork)
			assert.ErrorIs(t, ce, cause)
		})
	}
}

func TestClassifyServerError(t *testing.T) {
	cause := &StatusError{StatusCode: 503, StatusText: "Service Unavailable", Body: "down"}

	ce, retryable := classifyExpectClassified(t, cause)

	assert.True(t, retryable)
	assert.Equal(t, CodeHTTPError, ce.Code)
	assert.Equal(t, OriginServerResponse, ce.Origin)
	assert.Equal(t, 503, ce.Status)
	assert.Equal(t, "Service Unavailable", ce.StatusText)
	assert.Equal(t, "down", ce.Body)
	assert.True(t, ce.Retryable())
}

func TestClassifyClientErrorUnwrapsPayload(t *testing.T) {
	cause := &StatusError{
		StatusCode: 400,
		StatusText: "Bad Request",
		Body:       map[string]any{"status": false, "message": "Missing 'name' field"},
	}

	failure, retryable := Classify(cause, classifyTestURL, "POST")

	assert.False(t, retryable)
	app, ok := failure.(*ApplicationError)
	require.True(t, ok, "expected *ApplicationError, got %T", failure)
	assert.Equal(t, "Missing 'name' field", app.Value)
	assert.Equal(t, 400, app.Status)
}

func TestClassifyClientErrorEmptyBody(t *testing.T) {
	cause := &StatusError{StatusCode: 404, StatusText: "Not Found"}

	failure, retryable := Classify(cause, classifyTestURL, "GET")

	assert.False(t, retryable)
	assert.Equal(t, "Not Found", failure.Error())
}

func TestClassifyClientErrorSuccessEnvelope(t *testing.T) {
	cause := &StatusError{
		StatusCode: 409,
		StatusText: "Conflict",
		Body:       map[string]any{"status": true, "result": "already exists"},
	}

	failure, retryable := Classify(cause, classifyTestURL, "POST")

	assert.False(t, retryable)
	app, ok := failure.(*ApplicationError)
	require.True(t, ok)
	assert.Equal(t, "already exists", app.Value)
}

func TestClassifyApplicationErrorPassesThrough(t *testing.T) {
	cause := &ApplicationError{Value: "Authorization denied", Status: 200}

	failure, retryable := Classify(cause, classifyTestURL, "GET")

	assert.False(t, retryable)
	assert.Same(t, cause, failure)
}

func TestClassifyUnknown(t *testing.T) {
	ce, retryable := classifyExpectClassified(t, errors.New("decode response body: invalid character"))

	assert.True(t, retryable)
	assert.Equal(t, CodeUnknown, ce.Code)
	assert.Equal(t, "decode response body: invalid character", ce.StatusText)
	assert.ErrorIs(t, ce, ErrUnknown)
}

func TestClassifyUnknownEmptyMessage(t *testing.T) {
	ce, _ := classifyExpectClassified(t, errors.New(""))

	assert.Equal(t, "Unknown error", ce.StatusText)
}

func TestClassifyRequestTimeoutStatusIsApplicationError(t *testing.T) {
	cause := &StatusError{
		StatusCode: 408,
		StatusText: "Request Timeout",
		Body:       map[string]any{"status": false, "message": "slow client"},
	}

	failure, retryable := Classify(cause, classifyTestURL, "GET")

	assert.False(t, retryable)
	app, ok := failure.(*ApplicationError)
	require.True(t, ok, "expected *ApplicationError, got %T", failure)
	assert.Equal(t, "slow client", app.Value)
	assert.Equal(t, 408, app.Status)
}

func TestClassifyGatewayTimeoutStatusIsHTTPError(t *testing.T) {
	cause := &StatusError{StatusCode: 504, StatusText: "Gateway Timeout"}

	ce, retryable := classifyExpectClassified(t, cause)

	assert.True(t, retryable)
	assert.Equal(t, CodeHTTPError, ce.Code)
	assert.Equal(t, OriginServerResponse, ce.Origin)
	assert.Equal(t, 504, ce.Status)
	assert.Equal(t, "Gateway Timeout", ce.StatusText)
}
