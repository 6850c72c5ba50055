package config

import (
	"flag"
	"time"
)

// Flags holds command-line overrides. Only flags set on the command line
// are applied, so an unset flag never hides a file or environment value.
type Flags struct {
	fs *flag.FlagSet

	ConfigFile      string
	LogLevel        string
	Backend         string
	Wait            time.Duration
	WaitMode        string
	Interface       string
	TraceFile       string
	MetricsTextfile string
	Format          string
}

// BindFlags registers the meter-discover flags on fs.
func BindFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	def := Default()

	fs.StringVar(&f.ConfigFile, "config", "", "Configuration file path")
	fs.StringVar(&f.LogLevel, "log-level", def.LogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&f.Backend, "backend", def.Backend, "mDNS backend: zeroconf, hashicorp")
	fs.DurationVar(&f.Wait, "wait", def.Wait, "How long to listen for the meter")
	fs.StringVar(&f.WaitMode, "wait-mode", def.WaitMode, "Wait mode: full (whole window), first (first announcement)")
	fs.StringVar(&f.Interface, "interface", "", "Network interface to browse on (default all)")
	fs.StringVar(&f.TraceFile, "trace-file", "", "Append resolution trace events to this file")
	fs.StringVar(&f.MetricsTextfile, "metrics-textfile", "", "Write Prometheus metrics to this file on exit")
	fs.StringVar(&f.Format, "format", def.Format, "Output format: env, yaml")
	return f
}

// Apply copies explicitly set flags onto c.
func (f *Flags) Apply(c *Config) {
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "log-level":
			c.LogLevel = f.LogLevel
		case "backend":
			c.Backend = f.Backend
		case "wait":
			c.Wait = f.Wait
		case "wait-mode":
			c.WaitMode = f.WaitMode
		case "interface":
			c.Interface = f.Interface
		case "trace-file":
			c.TraceFile = f.TraceFile
		case "metrics-textfile":
			c.MetricsTextfile = f.MetricsTextfile
		case "format":
			c.Format = f.Format
		}
	})
}
