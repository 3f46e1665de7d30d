package tagoreq

import (
	"net/http"
	"strings"
	"time"
)

// Descriptor describes a single API call. It is provided by the caller and
// never mutated by the engine.
type Descriptor struct {
	// URL is the absolute target URL, optionally already carrying a query.
	URL string
	// Method defaults to GET when empty.
	Method string
	// Headers supplied by the caller. They win over every engine default.
	Headers http.Header
	// Params is serialized into the query string. Values may be nested
	// maps and slices; nil becomes an empty value, Undefined is omitted.
	Params map[string]any
	// Body is ignored for GET. Strings and byte slices are sent verbatim,
	// anything else is JSON encoded.
	Body any
	// Timeout overrides the client default for every attempt of this call.
	Timeout time.Duration
}

// method returns the upper-cased HTTP method, GET when unset.
func (d Descriptor) method() string {
	if d.Method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(d.Method)
}

type undefined struct{}

// Undefined marks a query parameter that must be left out of the URL
// entirely, as opposed to nil which serializes to an empty value.
var Undefined = undefined{}

// Middleware wraps the transport of a single attempt.
type Middleware func(req *http.Request, next RoundTripper) (*http.Response, error)

// RoundTripper represents the HTTP transport interface
type RoundTripper interface {
	RoundTrip(*http.Request) (*http.Response, error)
}

// RoundTripperFunc is a helper type for middleware
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Option represents a configuration option
type Option func(*Client)

type contextKey string

const (
	// CacheControlKey carries a *CacheControl in a request context.
	CacheControlKey contextKey = "tagoreq_cache_control"
)

// CacheControl holds per-call cache options.
type CacheControl struct {
	TTL time.Duration
}
