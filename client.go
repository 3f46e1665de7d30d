package tagoreq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tago-io/tagoreq/internal/backoff"
)

// Client executes request descriptors with caching, in-flight coalescing
// and retries. It is safe for concurrent use.
type Client struct {
	httpClient      *http.Client
	maxAttempts     int
	timeout         time.Duration
	backoff         backoff.Strategy
	cache           Cache
	inflight        *InFlight
	host            HostContext
	identityHeader  string
	middleware      []Middleware
	metrics         *MetricsCollector
	debug           *DebugConfig
	logger          Logger
	validationError error
}

// New constructs a Client using the provided functional options. Defaults
// come from DefaultConfig overlaid with the process environment (see
// Config.ApplyEnv); options win over both. A best effort validation is
// performed, an unparsable environment variable included; call IsValid /
// ValidationError for errors.
func New(options ...Option) *Client {
	cfg := DefaultConfig()
	envErr := cfg.ApplyEnv()
	if envErr != nil {
		cfg = DefaultConfig()
	}

	host := DefaultHostContext()
	host.RunningAtTagoIO = cfg.RunningAtTagoIO

	client := &Client{
		httpClient:     &http.Client{},
		maxAttempts:    cfg.MaxAttempts,
		timeout:        cfg.Timeout,
		backoff:        backoff.Fixed(cfg.RetryDelay),
		cache:          NewMemoryCache(),
		inflight:       NewInFlight(),
		host:           host,
		identityHeader: DefaultIdentityHeader,
		middleware:     []Middleware{},
		metrics:        nil,
		debug:          DefaultDebugConfig(),
		logger:         NopLogger{},
	}

	for _, option := range options {
		option(client)
	}

	if err := client.ValidateConfiguration(); err != nil {
		client.validationError = err
	}
	if envErr != nil {
		client.validationError = errors.Join(envErr, client.validationError)
	}

	return client
}

// Do executes d and returns the unwrapped result. When ctx carries a cache
// TTL (see WithCacheTTL) a live cached result is returned without network
// activity, identical concurrent calls share one attempt sequence, and a
// success is cached for the TTL. Results from the in-memory cache are
// copies, so the caller owns what it receives.
//
// Failures are always a Failure: a *ClassifiedError once retryable
// failures exhausted the attempt budget, or an *ApplicationError carrying
// the API's own rejection payload, returned at once and never retried.
func (c *Client) Do(ctx context.Context, d Descriptor) (any, error) {
	start := time.Now()
	method := d.method()
	target := BuildURL(d.URL, d.Params)
	endpoint := endpointOf(target)
	requestID := c.requestID()

	if c.debugEnabled() && c.debug.LogRequests {
		c.logger.Debug("Starting request", "requestID", requestID, "method", method, "url", target)
	}

	c.metrics.RecordRequestStart(method, endpoint)
	result, err := c.execute(ctx, d, call{method: method, url: target, endpoint: endpoint, requestID: requestID})
	c.metrics.RecordRequestEnd(method, endpoint)
	c.metrics.RecordRequest(method, endpoint, outcomeOf(err), time.Since(start))

	return result, err
}

// DoCached is Do with a cache TTL for this call.
func (c *Client) DoCached(ctx context.Context, d Descriptor, ttl time.Duration) (any, error) {
	return c.Do(WithCacheTTL(ctx, ttl), d)
}

// DoInto executes d and decodes the unwrapped result into out.
func (c *Client) DoInto(ctx context.Context, d Descriptor, out any) error {
	result, err := c.Do(ctx, d)
	if err != nil {
		return err
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("re-encode result: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode result into %T: %w", out, err)
	}
	return nil
}

type call struct {
	method    string
	url       string
	endpoint  string
	requestID string
}

func (c *Client) execute(ctx context.Context, d Descriptor, cl call) (any, error) {
	ttl := cacheTTLFromContext(ctx)
	if ttl <= 0 || c.cache == nil || c.inflight == nil {
		return c.doWithRetry(ctx, d, cl)
	}

	fp := FingerprintOf(d, c.identityHeader)
	for {
		if result, ok := c.cache.Get(fp); ok {
			return c.cacheHit(cl, fp, result), nil
		}

		release, owner := c.inflight.Add(fp)
		if owner {
			defer release()
			// A previous owner may have stored its result between our
			// lookup and Add.
			if result, ok := c.cache.Get(fp); ok {
				return c.cacheHit(cl, fp, result), nil
			}
			break
		}

		c.metrics.RecordDedupWait(cl.method, cl.endpoint)
		if c.debugEnabled() && c.debug.LogDedup {
			c.logger.Debug("Waiting for identical in-flight call", "requestID", cl.requestID, "fingerprint", fp.String())
		}
		if err := c.inflight.Wait(ctx, fp); err != nil {
			failure, _ := Classify(err, cl.url, cl.method)
			return nil, failure
		}
	}

	c.metrics.RecordCacheMiss(cl.method, cl.endpoint)
	if c.debugEnabled() && c.debug.LogCache {
		c.logger.Debug("Cache miss", "requestID", cl.requestID, "fingerprint", fp.String())
	}

	result, err := c.doWithRetry(ctx, d, cl)
	if err != nil {
		return nil, err
	}

	c.cache.Set(fp, result, ttl)
	c.metrics.RecordCacheSize("default", c.cache.Len())
	if c.debugEnabled() && c.debug.LogCache {
		c.logger.Debug("Response cached", "requestID", cl.requestID, "fingerprint", fp.String(), "ttl", ttl.String())
	}
	return result, nil
}

func (c *Client) cacheHit(cl call, fp Fingerprint, result any) any {
	c.metrics.RecordCacheHit(cl.method, cl.endpoint)
	if c.debugEnabled() && c.debug.LogCache {
		c.logger.Debug("Cache hit", "requestID", cl.requestID, "fingerprint", fp.String())
	}
	return result
}

// doWithRetry runs the attempt loop. Retryable failures are retried until
// the budget is spent; the last one is returned. Non-retryable failures
// end the loop at once.
func (c *Client) doWithRetry(ctx context.Context, d Descriptor, cl call) (any, error) {
	attempts := c.maxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var last Failure
	for attempt := 1; attempt <= attempts; attempt++ {
		c.metrics.RecordAttempt(cl.method, cl.endpoint, attempt)
		if attempt > 1 && c.debugEnabled() && c.debug.LogRetries {
			c.logger.Info("Retry attempt", "requestID", cl.requestID, "attempt", attempt, "maxAttempts", attempts, "url", cl.url)
		}

		result, err := c.attempt(ctx, cl.url, d)
		if err == nil {
			return result, nil
		}

		failure, retryable := Classify(err, cl.url, cl.method)
		c.recordFailure(failure, cl, attempt)
		if !retryable {
			return nil, failure
		}
		last = failure

		if attempt == attempts {
			break
		}
		delay := c.backoff.Delay(attempt)
		if c.debugEnabled() && c.debug.LogRetries {
			c.logger.Info("Scheduling retry", "requestID", cl.requestID, "attempt", attempt+1, "delay", delay.String(), "error", failure.Error())
		}
		if err := sleep(ctx, delay); err != nil {
			break
		}
	}

	if c.debugEnabled() && c.debug.LogRetries {
		c.logger.Warn("Attempts exhausted", "requestID", cl.requestID, "url", cl.url, "error", last.Error())
	}
	return nil, last
}

func (c *Client) recordFailure(failure Failure, cl call, attempt int) {
	switch f := failure.(type) {
	case *ClassifiedError:
		f.RequestID = cl.requestID
		f.Attempt = attempt
		c.metrics.RecordError(string(f.Code), cl.method, cl.endpoint)
	case *ApplicationError:
		c.metrics.RecordError("APPLICATION", cl.method, cl.endpoint)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) debugEnabled() bool {
	return c.debug != nil && c.debug.Enabled && c.logger != nil
}

func (c *Client) requestID() string {
	if c.debugEnabled() && c.debug.RequestIDGen != nil {
		return c.debug.RequestIDGen()
	}
	return ""
}

// IsValid reports whether configuration validation passed at construction.
func (c *Client) IsValid() bool {
	return c.validationError == nil
}

// ValidationError returns the configuration validation error, if any.
func (c *Client) ValidationError() error {
	return c.validationError
}

// Cache returns the result cache, nil when caching is disabled.
func (c *Client) Cache() Cache {
	return c.cache
}

// InFlight returns the in-flight registry.
func (c *Client) InFlight() *InFlight {
	return c.inflight
}

func outcomeOf(err error) string {
	if err == nil {
		return "success"
	}
	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return strings.ToLower(string(classified.Code))
	}
	return "application"
}

// endpointOf reduces a URL to host + path for metric labels.
func endpointOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "unknown"
	}

	var builder strings.Builder
	builder.WriteString(u.Host)
	if u.Path != "" && u.Path != "/" {
		builder.WriteString(u.Path)
	} else {
		builder.WriteByte('/')
	}
	return builder.String()
}
