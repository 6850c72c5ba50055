// Command meter-discover resolves the smart meter's address and the TLS
// credentials used to talk to it, and prints them for a downstream client.
//
// The meter is found by browsing mDNS for _smartenergy._tcp.local. for a
// fixed window, unless METER_IP and METER_PORT are both set.
//
// Usage:
//
//	meter-discover [flags]
//
// Flags:
//
//	-config string            Configuration file path
//	-log-level string         Log level: debug, info, warn, error (default "info")
//	-backend string           mDNS backend: zeroconf, hashicorp (default "zeroconf")
//	-wait duration            How long to listen for the meter (default 10s)
//	-wait-mode string         Wait mode: full, first (default "full")
//	-interface string         Network interface to browse on (default all)
//	-trace-file string        Append resolution trace events to this file
//	-metrics-textfile string  Write Prometheus metrics to this file on exit
//	-format string            Output format: env, yaml (default "env")
//
// Environment:
//
//	METER_IP, METER_PORT  Static meter address (both required)
//	CERT_PATH, KEY_PATH   Client certificate and key (both required)
//	LOGLEVEL              Log level
//
// Examples:
//
//	# Discover and export into the current shell
//	eval "$(meter-discover)"
//
//	# Return on the first announcement, keep a trace
//	meter-discover -wait-mode first -trace-file /var/log/meter.mtrace
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"

	"github.com/betkh/itron2mqtt2grafana/internal/config"
	"github.com/betkh/itron2mqtt2grafana/pkg/discovery"
	tracelog "github.com/betkh/itron2mqtt2grafana/pkg/log"
	"github.com/betkh/itron2mqtt2grafana/pkg/target"
)

// Exit codes.
const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("meter-discover", flag.ContinueOnError)
	fs.SetOutput(stderr)
	flags := config.BindFlags(fs)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	logger := setupLogging(cfg.LogLevel, stderr)

	trace, closeTrace, err := openTrace(cfg.TraceFile, logger)
	if err != nil {
		logger.Error("Opening trace file", "error", err)
		return exitFailed
	}
	defer closeTrace()

	var reg prometheus.Registerer
	if cfg.MetricsTextfile != "" {
		r := prometheus.NewRegistry()
		reg = r
		defer func() {
			if err := prometheus.WriteToTextfile(cfg.MetricsTextfile, r); err != nil {
				logger.Warn("Writing metrics textfile", "path", cfg.MetricsTextfile, "error", err)
			}
		}()
	}

	resolver, err := newResolver(cfg, reg, logger, trace)
	if err != nil {
		logger.Error("Invalid configuration", "error", err)
		return exitUsage
	}

	t, err := resolver.Resolve(ctx)
	if err != nil {
		logger.Error("Meter resolution failed", "error", err)
		return exitFailed
	}

	if err := writeTarget(stdout, cfg.Format, t); err != nil {
		logger.Error("Writing output", "error", err)
		return exitFailed
	}
	return exitOK
}

// loadConfig applies file, environment and flags in that order.
func loadConfig(flags *config.Flags) (*config.Config, error) {
	cfg, err := config.Load(flags.ConfigFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	flags.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging(level string, w io.Writer) *slog.Logger {
	log.SetOutput(w)
	log.SetFlags(log.Ltime | log.Lmicroseconds)

	lvl, _ := config.ParseLevel(level)
	if lvl == slog.LevelDebug {
		log.SetFlags(log.Ltime | log.Lmicroseconds | log.Lshortfile)
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger
}

// openTrace returns the trace sink: debug-level slog output, plus the trace
// file when one is configured.
func openTrace(path string, logger *slog.Logger) (tracelog.Logger, func(), error) {
	sinks := []tracelog.Logger{tracelog.NewSlogAdapter(logger)}
	closer := func() {}

	if path != "" {
		fl, err := tracelog.NewFileLogger(path)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, fl)
		closer = func() {
			if err := fl.Close(); err != nil {
				logger.Warn("Closing trace file", "error", err)
			}
			if n := fl.Errors(); n > 0 {
				logger.Warn("Trace events dropped", "count", n)
			}
		}
	}

	return tracelog.NewMultiLogger(sinks...), closer, nil
}

func newResolver(cfg *config.Config, reg prometheus.Registerer, logger *slog.Logger, trace tracelog.Logger) (*target.Resolver, error) {
	metrics, err := discovery.NewMetrics(reg)
	if err != nil {
		return nil, err
	}

	sessions, err := discovery.NewSessionFactory(cfg.SessionConfig())
	if err != nil {
		return nil, err
	}

	mode, err := discovery.ParseWaitMode(cfg.WaitMode)
	if err != nil {
		return nil, err
	}

	disc, err := discovery.NewDiscoverer(discovery.Config{
		ServiceType: cfg.ServiceType,
		Window:      cfg.Wait,
		Mode:        mode,
		NewSession:  sessions,
		Logger:      logger,
		Trace:       trace,
		Metrics:     metrics,
	})
	if err != nil {
		return nil, err
	}

	return target.NewResolver(target.Config{
		Credentials: cfg.Credentials(),
		StaticIP:    cfg.MeterIP,
		StaticPort:  cfg.MeterPort,
		Discoverer:  disc,
		Logger:      logger,
		Trace:       trace,
	})
}

// output is the YAML form of the resolved target.
type output struct {
	MeterIP   string `yaml:"meter_ip"`
	MeterPort int    `yaml:"meter_port"`
	CertPath  string `yaml:"cert_path"`
	KeyPath   string `yaml:"key_path"`
	Source    string `yaml:"source"`
}

func writeTarget(w io.Writer, format string, t *target.Target) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(output{
			MeterIP:   t.IPAddress,
			MeterPort: t.Port,
			CertPath:  t.Credentials.CertPath,
			KeyPath:   t.Credentials.KeyPath,
			Source:    string(t.Source),
		})
	default:
		_, err := fmt.Fprintf(w, "%s=%s\n%s=%d\n%s=%s\n%s=%s\n",
			config.EnvMeterIP, t.IPAddress,
			config.EnvMeterPort, t.Port,
			config.EnvCertPath, t.Credentials.CertPath,
			config.EnvKeyPath, t.Credentials.KeyPath)
		return err
	}
}
