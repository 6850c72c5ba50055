// Package config loads meter-discover settings.
//
// Sources are applied in increasing precedence: built-in defaults, an
// optional YAML file, environment variables, then command-line flags that
// were set explicitly.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/betkh/itron2mqtt2grafana/pkg/credentials"
	"github.com/betkh/itron2mqtt2grafana/pkg/discovery"
)

// Environment variables read by ApplyEnv.
const (
	EnvMeterIP   = "METER_IP"
	EnvMeterPort = "METER_PORT"
	EnvCertPath  = credentials.EnvCertPath
	EnvKeyPath   = credentials.EnvKeyPath
	EnvLogLevel  = "LOGLEVEL"
)

// Config errors.
var (
	ErrInvalidPort     = errors.New("invalid meter port")
	ErrInvalidLogLevel = errors.New("invalid log level")
)

// Config holds all settings for one resolution run.
type Config struct {
	// Discovery
	ServiceType  string        `yaml:"service_type"`
	Backend      string        `yaml:"backend"`
	Interface    string        `yaml:"interface"`
	Wait         time.Duration `yaml:"wait"`
	WaitMode     string        `yaml:"wait_mode"`
	QueryTimeout time.Duration `yaml:"query_timeout"`

	// Static meter address. Both must be set to skip discovery.
	MeterIP   string `yaml:"meter_ip"`
	MeterPort int    `yaml:"meter_port"`

	// Credentials
	CertPath        string `yaml:"cert_path"`
	KeyPath         string `yaml:"key_path"`
	DefaultCertPath string `yaml:"default_cert_path"`
	DefaultKeyPath  string `yaml:"default_key_path"`

	// Output
	LogLevel        string `yaml:"log_level"`
	TraceFile       string `yaml:"trace_file"`
	MetricsTextfile string `yaml:"metrics_textfile"`
	Format          string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ServiceType:     discovery.ServiceType,
		Backend:         string(discovery.BackendZeroconf),
		Wait:            discovery.WaitWindow,
		WaitMode:        discovery.WaitFullWindow.String(),
		DefaultCertPath: credentials.DefaultCertPath,
		DefaultKeyPath:  credentials.DefaultKeyPath,
		LogLevel:        "info",
		Format:          "env",
	}
}

// LoadError describes a configuration file that could not be loaded.
type LoadError struct {
	// File is the path to the file that failed to load.
	File string

	// Message describes the error.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	if e.File == "" {
		return msg
	}
	return e.File + ": " + msg
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// Parse decodes YAML over the defaults. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if len(strings.TrimSpace(string(data))) == 0 {
		return cfg, nil
	}

	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, &LoadError{Message: "failed to parse YAML", Cause: err}
	}
	return cfg, nil
}

// Load reads the YAML file at path over the defaults. An empty path returns
// the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{File: path, Message: "failed to read file", Cause: err}
	}

	cfg, err := Parse(data)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.File = path
			return nil, le
		}
		return nil, &LoadError{File: path, Message: err.Error()}
	}
	return cfg, nil
}

// ApplyEnv overrides settings from the environment. Empty variables are
// treated as unset. METER_IP and METER_PORT apply only as a pair.
func (c *Config) ApplyEnv() error {
	ip, portStr := os.Getenv(EnvMeterIP), os.Getenv(EnvMeterPort)
	if ip != "" && portStr != "" {
		port, err := ParsePort(portStr)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMeterPort, err)
		}
		c.MeterIP, c.MeterPort = ip, port
	}
	if v := os.Getenv(EnvCertPath); v != "" {
		c.CertPath = v
	}
	if v := os.Getenv(EnvKeyPath); v != "" {
		c.KeyPath = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	return nil
}

// ParsePort parses a TCP port in 1..65535.
func ParsePort(s string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || port < 1 || port > 65535 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPort, s)
	}
	return port, nil
}

// HasStaticTarget reports whether both parts of the static address are set.
func (c *Config) HasStaticTarget() bool {
	return c.MeterIP != "" && c.MeterPort > 0
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if _, err := discovery.ParseBackend(c.Backend); err != nil {
		return err
	}
	if _, err := discovery.ParseWaitMode(c.WaitMode); err != nil {
		return err
	}
	if c.Wait <= 0 {
		return fmt.Errorf("%w: %s", discovery.ErrNonPositiveWaitWindow, c.Wait)
	}
	if _, _, err := discovery.SplitServiceType(c.ServiceType); err != nil {
		return err
	}
	if c.MeterPort < 0 || c.MeterPort > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.MeterPort)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.Format {
	case "env", "yaml":
	default:
		return fmt.Errorf("unknown output format: %s (use: env, yaml)", c.Format)
	}
	return nil
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("%w: %s (use: debug, info, warn, error)", ErrInvalidLogLevel, s)
	}
}

// Credentials returns a credential resolver for the configured paths.
func (c *Config) Credentials() *credentials.Resolver {
	return &credentials.Resolver{
		CertPath:        c.CertPath,
		KeyPath:         c.KeyPath,
		DefaultCertPath: c.DefaultCertPath,
		DefaultKeyPath:  c.DefaultKeyPath,
	}
}

// SessionConfig returns the mDNS session settings.
func (c *Config) SessionConfig() discovery.SessionConfig {
	return discovery.SessionConfig{
		Backend:      discovery.Backend(strings.ToLower(c.Backend)),
		Interface:    c.Interface,
		QueryTimeout: c.QueryTimeout,
	}
}
