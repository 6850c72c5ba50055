package config

import (
	"flag"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betkh/itron2mqtt2grafana/pkg/credentials"
	"github.com/betkh/itron2mqtt2grafana/pkg/discovery"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvMeterIP, EnvMeterPort, EnvCertPath, EnvKeyPath, EnvLogLevel} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meter.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "_smartenergy._tcp.local.", cfg.ServiceType)
	assert.Equal(t, 10*time.Second, cfg.Wait)
	assert.Equal(t, "full", cfg.WaitMode)
	assert.Equal(t, "zeroconf", cfg.Backend)
	assert.Equal(t, "certs/.cert.pem", cfg.DefaultCertPath)
	assert.Equal(t, "certs/.key.pem", cfg.DefaultKeyPath)
	assert.False(t, cfg.HasStaticTarget())
	assert.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `
backend: hashicorp
wait: 5s
wait_mode: first
interface: eth0
meter_ip: 192.0.2.50
meter_port: 8081
cert_path: /etc/meter/cert.pem
key_path: /etc/meter/key.pem
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "hashicorp", cfg.Backend)
	assert.Equal(t, 5*time.Second, cfg.Wait)
	assert.Equal(t, "first", cfg.WaitMode)
	assert.Equal(t, "eth0", cfg.Interface)
	assert.True(t, cfg.HasStaticTarget())
	assert.Equal(t, "/etc/meter/cert.pem", cfg.CertPath)
	// untouched keys keep their defaults
	assert.Equal(t, discovery.ServiceType, cfg.ServiceType)
	assert.Equal(t, credentials.DefaultKeyPath, cfg.DefaultKeyPath)
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadErrors(t *testing.T) {
	t.Run("MissingFile", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		var le *LoadError
		require.ErrorAs(t, err, &le)
		assert.Contains(t, le.File, "nope.yaml")
		assert.ErrorIs(t, err, fs.ErrNotExist)
	})

	t.Run("BadYAML", func(t *testing.T) {
		path := writeFile(t, "wait: [")
		_, err := Load(path)
		var le *LoadError
		require.ErrorAs(t, err, &le)
		assert.Equal(t, path, le.File)
		assert.Equal(t, "failed to parse YAML", le.Message)
	})

	t.Run("UnknownKey", func(t *testing.T) {
		_, err := Load(writeFile(t, "meter_address: 192.0.2.1\n"))
		assert.Error(t, err)
	})
}

func TestApplyEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvMeterIP, "192.0.2.60")
	t.Setenv(EnvMeterPort, "8082")
	t.Setenv(EnvCertPath, "/run/secrets/cert.pem")
	t.Setenv(EnvKeyPath, "/run/secrets/key.pem")
	t.Setenv(EnvLogLevel, "debug")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, "192.0.2.60", cfg.MeterIP)
	assert.Equal(t, 8082, cfg.MeterPort)
	assert.Equal(t, "/run/secrets/cert.pem", cfg.CertPath)
	assert.Equal(t, "/run/secrets/key.pem", cfg.KeyPath)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestApplyEnvEmptyIsUnset(t *testing.T) {
	clearEnv(t)
	cfg, err := Parse([]byte("cert_path: /from/file.pem\n"))
	require.NoError(t, err)
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, "/from/file.pem", cfg.CertPath)
	assert.False(t, cfg.HasStaticTarget())
}

func TestApplyEnvInvalidPort(t *testing.T) {
	for _, v := range []string{"http", "0", "65536", "-1"} {
		t.Run(v, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(EnvMeterIP, "192.0.2.60")
			t.Setenv(EnvMeterPort, v)
			err := Default().ApplyEnv()
			assert.ErrorIs(t, err, ErrInvalidPort)
		})
	}
}

func TestApplyEnvPortWithoutIPIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvMeterPort, "http")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())
	assert.Zero(t, cfg.MeterPort)
	assert.False(t, cfg.HasStaticTarget())
}

func TestPartialStaticTarget(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvMeterIP, "192.0.2.60")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())
	assert.False(t, cfg.HasStaticTarget())
}

func TestPrecedence(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "log_level: warn\nbackend: hashicorp\nwait: 3s\n")
	t.Setenv(EnvLogLevel, "error")

	fset := flag.NewFlagSet("meter-discover", flag.ContinueOnError)
	flags := BindFlags(fset)
	require.NoError(t, fset.Parse([]string{"-config", path, "-log-level", "debug"}))

	cfg, err := Load(flags.ConfigFile)
	require.NoError(t, err)
	require.NoError(t, cfg.ApplyEnv())
	flags.Apply(cfg)

	assert.Equal(t, "debug", cfg.LogLevel, "flag beats env")
	assert.Equal(t, "hashicorp", cfg.Backend, "unset flag keeps file value")
	assert.Equal(t, 3*time.Second, cfg.Wait)
}

func TestFlagsApplyAll(t *testing.T) {
	fset := flag.NewFlagSet("meter-discover", flag.ContinueOnError)
	flags := BindFlags(fset)
	require.NoError(t, fset.Parse([]string{
		"-backend", "hashicorp",
		"-wait", "2s",
		"-wait-mode", "first",
		"-interface", "wlan0",
		"-trace-file", "/tmp/run.mtrace",
		"-metrics-textfile", "/tmp/meter.prom",
		"-format", "yaml",
	}))

	cfg := Default()
	flags.Apply(cfg)
	assert.Equal(t, "hashicorp", cfg.Backend)
	assert.Equal(t, 2*time.Second, cfg.Wait)
	assert.Equal(t, "first", cfg.WaitMode)
	assert.Equal(t, "wlan0", cfg.Interface)
	assert.Equal(t, "/tmp/run.mtrace", cfg.TraceFile)
	assert.Equal(t, "/tmp/meter.prom", cfg.MetricsTextfile)
	assert.Equal(t, "yaml", cfg.Format)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"Backend", func(c *Config) { c.Backend = "avahi" }, discovery.ErrUnknownBackend},
		{"WaitMode", func(c *Config) { c.WaitMode = "never" }, discovery.ErrInvalidWaitMode},
		{"Wait", func(c *Config) { c.Wait = 0 }, discovery.ErrNonPositiveWaitWindow},
		{"ServiceType", func(c *Config) { c.ServiceType = "smartenergy" }, discovery.ErrInvalidServiceType},
		{"Port", func(c *Config) { c.MeterPort = 70000 }, ErrInvalidPort},
		{"LogLevel", func(c *Config) { c.LogLevel = "verbose" }, ErrInvalidLogLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.wantErr)
		})
	}

	cfg := Default()
	cfg.Format = "json"
	assert.Error(t, cfg.Validate())
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestCredentialsAndSessionConfig(t *testing.T) {
	cfg := Default()
	cfg.CertPath = "/c.pem"
	cfg.KeyPath = "/k.pem"
	cfg.Backend = "Hashicorp"
	cfg.Interface = "eth0"

	pair, err := cfg.Credentials().Resolve()
	require.NoError(t, err)
	assert.Equal(t, "/c.pem", pair.CertPath)
	assert.Equal(t, credentials.SourceConfigured, pair.Source)

	sc := cfg.SessionConfig()
	assert.Equal(t, discovery.BackendHashicorp, sc.Backend)
	assert.Equal(t, "eth0", sc.Interface)
}
