// Package tagoreq is the request engine beneath the TagoIO API client. Every
// resource method builds a Descriptor and hands it to Client.Do, which
// returns the unwrapped application result or a classified failure:
//
//   - Response caching keyed by a request fingerprint, with lazy expiry
//   - In-flight coalescing of identical cached calls (one attempt sequence
//     per fingerprint, waiters woken when it finishes)
//   - Bounded retries with a fixed or exponential delay between attempts
//   - Unwrapping of the {"status": true, "result": ...} API envelope
//   - Prometheus metrics and structured zerolog debug logging
//
// Typical usage:
//
//	client := tagoreq.New(
//	    tagoreq.WithMaxAttempts(5),
//	    tagoreq.WithTimeout(60*time.Second),
//	)
//	devices, err := client.DoCached(ctx, tagoreq.Descriptor{
//	    URL:     "https://api.tago.io/device",
//	    Headers: http.Header{"Token": {token}},
//	    Params:  map[string]any{"page": 1, "filter": map[string]any{"name": "*"}},
//	}, 5*time.Second)
//
// Configuration from the environment is read implicitly by New:
// TAGOIO_REQUEST_ATTEMPTS, TAGOIO_REQUEST_TIMEOUT and
// TAGOIO_REQUEST_RETRY_DELAY (milliseconds) replace the defaults, and
// T_ANALYSIS_CONTEXT marks execution inside TagoIO. Options passed to New,
// WithConfig included, take precedence over the environment.
//
// Errors come in two shapes and callers must handle both. Timeouts,
// connectivity failures and HTTP 5xx responses are retried and, once the
// attempt budget is spent, returned as *ClassifiedError. HTTP 4xx responses
// and success responses whose envelope status is not true are returned at
// once as *ApplicationError carrying the API's own message, result or body.
package tagoreq
