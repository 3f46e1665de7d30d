package tagoreq

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables read by Config.ApplyEnv.
const (
	EnvRequestAttempts   = "TAGOIO_REQUEST_ATTEMPTS"
	EnvRequestTimeout    = "TAGOIO_REQUEST_TIMEOUT"
	EnvRequestRetryDelay = "TAGOIO_REQUEST_RETRY_DELAY"
)

const (
	DefaultMaxAttempts = 5
	DefaultTimeout     = 60 * time.Second
	DefaultRetryDelay  = 1500 * time.Millisecond
)

// Config is the externally supplied configuration surface of the engine.
type Config struct {
	MaxAttempts     int           `yaml:"max_attempts"`
	Timeout         time.Duration `yaml:"timeout"`
	RetryDelay      time.Duration `yaml:"retry_delay"`
	IdentityHeader  string        `yaml:"identity_header"`
	Browser         bool          `yaml:"browser"`
	RunningAtTagoIO bool          `yaml:"running_at_tagoio"`
	Debug           bool          `yaml:"debug"`
	Log             LogConfig     `yaml:"log"`
}

// DefaultConfig returns the defaults, with host markers detected from the
// running process.
func DefaultConfig() Config {
	host := DefaultHostContext()
	return Config{
		MaxAttempts:     DefaultMaxAttempts,
		Timeout:         DefaultTimeout,
		RetryDelay:      DefaultRetryDelay,
		IdentityHeader:  DefaultIdentityHeader,
		Browser:         host.Browser,
		RunningAtTagoIO: host.RunningAtTagoIO,
		Log:             DefaultLogConfig(),
	}
}

// LoadConfigFile reads a YAML file over DefaultConfig.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML over DefaultConfig.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// ApplyEnv overlays the TAGOIO_* variables and the analysis context marker.
// Durations are given in milliseconds.
func (cfg *Config) ApplyEnv() error {
	return cfg.applyEnv(os.LookupEnv)
}

func (cfg *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvRequestAttempts); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidConfig, EnvRequestAttempts, v)
		}
		cfg.MaxAttempts = n
	}
	if v, ok := lookup(EnvRequestTimeout); ok && v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidConfig, EnvRequestTimeout, v)
		}
		cfg.Timeout = time.Duration(ms) * time.Millisecond
	}
	if v, ok := lookup(EnvRequestRetryDelay); ok && v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidConfig, EnvRequestRetryDelay, v)
		}
		cfg.RetryDelay = time.Duration(ms) * time.Millisecond
	}
	if v, ok := lookup(AnalysisContextEnv); ok && v != "" {
		cfg.RunningAtTagoIO = true
	}
	return nil
}
