package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	tracelog "github.com/betkh/itron2mqtt2grafana/pkg/log"
)

func setEnv(t *testing.T, kv map[string]string) {
	t.Helper()
	for _, k := range []string{"METER_IP", "METER_PORT", "CERT_PATH", "KEY_PATH", "LOGLEVEL"} {
		t.Setenv(k, kv[k])
	}
}

func staticEnv(t *testing.T) {
	setEnv(t, map[string]string{
		"METER_IP":   "192.0.2.50",
		"METER_PORT": "8081",
		"CERT_PATH":  "/etc/meter/cert.pem",
		"KEY_PATH":   "/etc/meter/key.pem",
	})
}

func TestRunStaticEnvOutput(t *testing.T) {
	staticEnv(t)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), nil, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())
	assert.Equal(t,
		"METER_IP=192.0.2.50\nMETER_PORT=8081\nCERT_PATH=/etc/meter/cert.pem\nKEY_PATH=/etc/meter/key.pem\n",
		stdout.String())
}

func TestRunStaticYAMLOutput(t *testing.T) {
	staticEnv(t)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-format", "yaml"}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	var got output
	require.NoError(t, yaml.Unmarshal(stdout.Bytes(), &got))
	assert.Equal(t, output{
		MeterIP:   "192.0.2.50",
		MeterPort: 8081,
		CertPath:  "/etc/meter/cert.pem",
		KeyPath:   "/etc/meter/key.pem",
		Source:    "static",
	}, got)
}

func TestRunCredentialsNotFound(t *testing.T) {
	setEnv(t, map[string]string{"METER_IP": "192.0.2.50", "METER_PORT": "8081"})
	t.Chdir(t.TempDir())

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), nil, &stdout, &stderr)
	assert.Equal(t, exitFailed, code)
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "could not find cert and key credentials")
}

func TestRunDefaultCredentials(t *testing.T) {
	setEnv(t, map[string]string{"METER_IP": "192.0.2.50", "METER_PORT": "8081"})
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "certs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "certs", ".cert.pem"), []byte("c"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "certs", ".key.pem"), []byte("k"), 0o600))
	t.Chdir(dir)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), nil, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())
	assert.Contains(t, stdout.String(), "CERT_PATH=certs/.cert.pem\n")
	assert.Contains(t, stdout.String(), "KEY_PATH=certs/.key.pem\n")
}

func TestRunUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{"UnknownFlag", nil, []string{"-bogus"}},
		{"BadPort", map[string]string{"METER_IP": "192.0.2.50", "METER_PORT": "http"}, nil},
		{"BadBackend", nil, []string{"-backend", "avahi"}},
		{"BadWaitMode", nil, []string{"-wait-mode", "sometimes"}},
		{"MissingConfigFile", nil, []string{"-config", "/nonexistent/meter.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, tt.env)
			var stdout, stderr bytes.Buffer
			assert.Equal(t, exitUsage, run(context.Background(), tt.args, &stdout, &stderr))
			assert.Empty(t, stdout.String())
		})
	}
}

func TestRunWritesTraceAndMetrics(t *testing.T) {
	staticEnv(t)
	dir := t.TempDir()
	tracePath := filepath.Join(dir, "resolve.mtrace")
	metricsPath := filepath.Join(dir, "meter.prom")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{
		"-trace-file", tracePath,
		"-metrics-textfile", metricsPath,
	}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	events, err := tracelog.ReadAll(tracePath, tracelog.Filter{})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, tracelog.StageCredentials, events[0].Stage)
	assert.Equal(t, tracelog.StageTarget, events[1].Stage)
	assert.Equal(t, "static", events[1].Result.Source)
	assert.Equal(t, events[0].SessionID, events[1].SessionID)

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "meter_discovery_announcements_total 0")
}
