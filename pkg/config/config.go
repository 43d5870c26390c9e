// Package config provides configuration structures and loading logic for statvar.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/polisai/statvar/pkg/domain"
)

// Config holds the global configuration for statvar.
type Config struct {
	Budget      int    `yaml:"budget"`
	Minimums    []int  `yaml:"minimums"`
	Ceiling     int    `yaml:"ceiling"`
	Parallelism int    `yaml:"parallelism"`
	Output      Output `yaml:"output"`

	Policy    PolicyConfig    `yaml:"policy"`
	Server    ServerConfig    `yaml:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// Output selects how variations are rendered.
type Output struct {
	Format string `yaml:"format"`
}

// PolicyConfig points at an optional Rego module that filters variations.
type PolicyConfig struct {
	Path       string `yaml:"path"`
	Entrypoint string `yaml:"entrypoint"`
}

// ServerConfig holds configuration for the HTTP API.
type ServerConfig struct {
	Addr       string          `yaml:"addr"`
	MaxResults int             `yaml:"max_results"`
	RateLimit  RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig bounds request throughput. A zero RPS disables limiting.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// TelemetryConfig holds configuration for OpenTelemetry.
type TelemetryConfig struct {
	ServiceName string `yaml:"service_name"`
	Endpoint    string `yaml:"endpoint"`
	Insecure    bool   `yaml:"insecure"`
}

// LoggingConfig holds configuration for logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Supported output formats.
var outputFormats = map[string]struct{}{
	"text": {},
	"csv":  {},
	"json": {},
	"yaml": {},
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Minimums:    make([]int, domain.SlotCount),
		Ceiling:     domain.DefaultCeiling,
		Parallelism: 1,
		Output:      Output{Format: "text"},
		Policy:      PolicyConfig{Entrypoint: "variations/allow"},
		Server: ServerConfig{
			Addr:       ":8090",
			MaxResults: 100000,
			RateLimit:  RateLimitConfig{RPS: 20, Burst: 40},
		},
		Telemetry: TelemetryConfig{ServiceName: "statvar", Insecure: true},
		Logging:   LoggingConfig{Level: "info"},
	}
}

// Load reads configuration from a file, expands ${ENV} references and applies
// environment variable overrides. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		//nolint:gosec // Config file path is controlled by the operator
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := Parse(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Parse expands environment variables in data and decodes it over cfg.
func Parse(data []byte, cfg *Config) error {
	expanded := []byte(os.ExpandEnv(string(data)))
	if err := yaml.Unmarshal(expanded, cfg); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if val := os.Getenv("STATVAR_BUDGET"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("%w: STATVAR_BUDGET=%q is not an integer", domain.ErrConfigInvalid, val)
		}
		cfg.Budget = n
	}
	if val := os.Getenv("STATVAR_MINIMUMS"); val != "" {
		mins, err := domain.ParseStats(val)
		if err != nil {
			return fmt.Errorf("%w: STATVAR_MINIMUMS: %v", domain.ErrConfigInvalid, err)
		}
		cfg.Minimums = mins.Slice()
	}
	if val := os.Getenv("STATVAR_ADDR"); val != "" {
		cfg.Server.Addr = val
	}
	if val := os.Getenv("STATVAR_OTLP_ENDPOINT"); val != "" {
		cfg.Telemetry.Endpoint = val
	}
	if val := os.Getenv("STATVAR_OTLP_INSECURE"); val != "" {
		cfg.Telemetry.Insecure = val == "true"
	}
	if val := os.Getenv("STATVAR_LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	return nil
}

// Stats returns the configured minimums as a fixed-size tuple.
func (c *Config) Stats() (domain.Stats, error) {
	return domain.StatsFromSlice(c.Minimums)
}

// Validate performs validation of the entire configuration.
func (c *Config) Validate() error {
	if c.Budget < 0 {
		return fmt.Errorf("%w: budget must be non-negative, got %d", domain.ErrConfigInvalid, c.Budget)
	}
	if len(c.Minimums) != domain.SlotCount {
		return fmt.Errorf("%w: minimums must have %d entries, got %d", domain.ErrConfigInvalid, domain.SlotCount, len(c.Minimums))
	}
	for i, m := range c.Minimums {
		if m < 0 {
			return fmt.Errorf("%w: minimums[%d] must be non-negative, got %d", domain.ErrConfigInvalid, i, m)
		}
	}
	if c.Ceiling < 0 {
		return fmt.Errorf("%w: ceiling must be non-negative, got %d", domain.ErrConfigInvalid, c.Ceiling)
	}
	if c.Parallelism < 0 {
		return fmt.Errorf("%w: parallelism must be non-negative", domain.ErrConfigInvalid)
	}

	format := strings.ToLower(strings.TrimSpace(c.Output.Format))
	if _, ok := outputFormats[format]; !ok {
		return fmt.Errorf("%w: unsupported output format %q", domain.ErrConfigInvalid, c.Output.Format)
	}
	c.Output.Format = format

	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server configuration: %w", err)
	}
	return nil
}

// Validate checks the HTTP server settings.
func (s ServerConfig) Validate() error {
	if strings.TrimSpace(s.Addr) == "" {
		return fmt.Errorf("%w: addr is required", domain.ErrConfigInvalid)
	}
	if s.MaxResults <= 0 {
		return fmt.Errorf("%w: max_results must be positive", domain.ErrConfigInvalid)
	}
	if s.RateLimit.RPS < 0 || s.RateLimit.Burst < 0 {
		return fmt.Errorf("%w: rate_limit values must be non-negative", domain.ErrConfigInvalid)
	}
	return nil
}
