package tagoreq

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tago-io/tagoreq/internal/backoff"
)

// WithMaxAttempts sets how many transport attempts a call may use.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		c.maxAttempts = n
	}
}

// WithTimeout sets the default per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithRetryDelay waits d between two attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		c.backoff = backoff.Fixed(d)
	}
}

// WithExponentialBackoff replaces the fixed retry delay with a growing one.
func WithExponentialBackoff(initial, maxDelay time.Duration, multiplier, jitter float64) Option {
	return func(c *Client) {
		c.backoff = backoff.Exponential{
			Initial:    initial,
			Max:        maxDelay,
			Multiplier: multiplier,
			Jitter:     jitter,
		}
	}
}

// WithCache sets the result cache. A nil cache disables caching and
// in-flight coalescing even when a TTL is requested.
func WithCache(cache Cache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithInFlight shares an in-flight registry between clients.
func WithInFlight(registry *InFlight) Option {
	return func(c *Client) {
		c.inflight = registry
	}
}

// WithHostContext overrides the detected host.
func WithHostContext(host HostContext) Option {
	return func(c *Client) {
		c.host = host
	}
}

// WithIdentityHeader sets the header whose value scopes fingerprints.
func WithIdentityHeader(name string) Option {
	return func(c *Client) {
		c.identityHeader = name
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithMiddleware adds middleware to the client
func WithMiddleware(middleware ...Middleware) Option {
	return func(c *Client) {
		c.middleware = append(c.middleware, middleware...)
	}
}

// WithMetrics enables Prometheus metrics collection
func WithMetrics() Option {
	return func(c *Client) {
		c.metrics = NewMetricsCollector()
	}
}

// WithMetricsCollector sets a custom metrics collector
func WithMetricsCollector(collector *MetricsCollector) Option {
	return func(c *Client) {
		c.metrics = collector
	}
}

// WithDebug enables debug logging with default configuration
func WithDebug() Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.Enabled = true
	}
}

// WithDebugConfig sets custom debug configuration
func WithDebugConfig(config *DebugConfig) Option {
	return func(c *Client) {
		c.debug = config
	}
}

// WithLogger sets the logger for debug output
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRequestIDGenerator sets a custom function for generating request IDs
func WithRequestIDGenerator(gen func() string) Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.RequestIDGen = gen
	}
}

// WithConfig applies an externally loaded Config.
func WithConfig(cfg Config) Option {
	return func(c *Client) {
		c.maxAttempts = cfg.MaxAttempts
		c.timeout = cfg.Timeout
		c.backoff = backoff.Fixed(cfg.RetryDelay)
		if cfg.IdentityHeader != "" {
			c.identityHeader = cfg.IdentityHeader
		}
		c.host.Browser = cfg.Browser
		c.host.RunningAtTagoIO = cfg.RunningAtTagoIO
		if cfg.Debug {
			WithDebug()(c)
			c.logger = NewLogger(cfg.Log)
		}
	}
}

// ValidateConfiguration validates the client configuration and returns an error if invalid
func (c *Client) ValidateConfiguration() error {
	var problems []string

	problems = append(problems, c.validateRetryConfig()...)
	problems = append(problems, c.validateCacheConfig()...)
	problems = append(problems, c.validateDebugConfig()...)
	problems = append(problems, c.validateMiddlewareConfig()...)
	problems = append(problems, c.validateHTTPClientConfig()...)

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}

	return nil
}

func (c *Client) validateRetryConfig() []string {
	var problems []string

	if c.maxAttempts < 1 {
		problems = append(problems, "maxAttempts must be at least 1")
	}
	if c.maxAttempts > 100 {
		problems = append(problems, "maxAttempts > 100 may cause excessive resource usage")
	}
	if c.timeout <= 0 {
		problems = append(problems, "timeout must be positive")
	}
	if c.backoff == nil {
		problems = append(problems, "retry delay strategy must be set")
	} else if d, ok := c.backoff.(backoff.Fixed); ok && d < 0 {
		problems = append(problems, "retryDelay must be non-negative")
	}

	return problems
}

func (c *Client) validateCacheConfig() []string {
	var problems []string

	if c.cache != nil && c.inflight == nil {
		problems = append(problems, "in-flight registry must be set when cache is enabled")
	}
	if c.identityHeader == "" {
		problems = append(problems, "identity header must not be empty")
	}

	return problems
}

func (c *Client) validateDebugConfig() []string {
	var problems []string

	if c.debug != nil && c.debug.Enabled {
		if c.debug.RequestIDGen == nil {
			problems = append(problems, "debug RequestIDGen must be set when debug is enabled")
		}
		if c.logger == nil {
			problems = append(problems, "logger must be set when debug is enabled")
		}
	}

	return problems
}

func (c *Client) validateMiddlewareConfig() []string {
	var problems []string

	for i, middleware := range c.middleware {
		if middleware == nil {
			problems = append(problems, fmt.Sprintf("middleware[%d] cannot be nil", i))
		}
	}

	return problems
}

func (c *Client) validateHTTPClientConfig() []string {
	var problems []string

	if c.httpClient == nil {
		problems = append(problems, "HTTP client cannot be nil")
	}

	return problems
}
