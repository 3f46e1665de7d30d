package tagoreq

import (
	"context"
	"errors"
	"io"
	"net"
	"net/url"
	"strings"
	"syscall"
	"time"
)

const (
	statusTextTimeout = "request timeout"
	statusTextNetwork = "fetch failed"
	statusTextUnknown = "Unknown error"
)

// Classify maps the raw failure of one attempt onto the engine's taxonomy
// and decides whether it is worth another attempt. The first matching rule
// wins: HTTP status, timeout, connectivity, anything else. A completed
// exchange is classified by its status even when the reason phrase reads
// like a timeout (408, 504).
//
// HTTP 4xx responses and rejected success envelopes come back as an
// *ApplicationError and are never retryable.
func Classify(err error, rawURL, method string) (Failure, bool) {
	var app *ApplicationError
	if errors.As(err, &app) {
		return app, false
	}

	ce := &ClassifiedError{
		Origin:    OriginClientRequest,
		URL:       rawURL,
		Method:    method,
		Status:    StatusClientSide,
		Cause:     err,
		Timestamp: time.Now(),
	}

	var se *StatusError
	if errors.As(err, &se) {
		if se.StatusCode >= 400 && se.StatusCode < 500 {
			result, unwrapErr := unwrapResult(se.Body, se.StatusCode, se.StatusText)
			if errors.As(unwrapErr, &app) {
				return app, false
			}
			return &ApplicationError{Value: result, Status: se.StatusCode}, false
		}

		ce.Origin = OriginServerResponse
		ce.Code = CodeHTTPError
		ce.Status = se.StatusCode
		ce.StatusText = se.StatusText
		ce.Body = se.Body
		return ce, true
	}

	if isTimeout(err) {
		ce.Code = CodeTimeout
		ce.StatusText = statusTextTimeout
		return ce, true
	}

	if isNetwork(err) {
		ce.Code = CodeNetworkError
		ce.StatusText = statusTextNetwork
		return ce, true
	}

	ce.Code = CodeUnknown
	ce.StatusText = statusTextUnknown
	if err != nil && err.Error() != "" {
		ce.StatusText = err.Error()
	}
	return ce, true
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "timeout")
}

func isNetwork(err error) bool {
	if err == nil {
		return false
	}
	var (
		urlErr *url.Error
		opErr  *net.OpError
		dnsErr *net.DNSError
	)
	switch {
	case errors.As(err, &urlErr), errors.As(err, &opErr), errors.As(err, &dnsErr):
		return true
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return true
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.EPIPE):
		return true
	}
	return false
}
