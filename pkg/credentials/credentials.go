// Package credentials resolves the TLS client certificate and private key
// used to open a session with the meter.
//
// Paths come from two places, tried in order:
//
//  1. CERT_PATH and KEY_PATH. Both must be non-empty. They are trusted as
//     given and never checked on disk.
//  2. The default locations (certs/.cert.pem and certs/.key.pem relative to
//     the working directory). Both files must exist.
//
// File contents are never read or validated here.
package credentials

import (
	"errors"
	"fmt"
	"os"
)

// Environment variables holding explicit credential paths.
const (
	EnvCertPath = "CERT_PATH"
	EnvKeyPath  = "KEY_PATH"
)

// Default credential locations, relative to the process working directory.
const (
	DefaultCertPath = "certs/.cert.pem"
	DefaultKeyPath  = "certs/.key.pem"
)

// ErrCredentialsNotFound is returned when neither the configured paths nor
// the default files yield a usable pair.
var ErrCredentialsNotFound = errors.New("could not find cert and key credentials")

// Source identifies which branch produced a Pair.
type Source uint8

const (
	// SourceConfigured means the pair came from explicitly configured paths.
	SourceConfigured Source = iota
	// SourceDefault means the pair came from the default file locations.
	SourceDefault
)

// String returns the source name.
func (s Source) String() string {
	switch s {
	case SourceConfigured:
		return "configured"
	case SourceDefault:
		return "default"
	default:
		return "unknown"
	}
}

// Pair is a resolved certificate/key location.
type Pair struct {
	CertPath string
	KeyPath  string
	Source   Source
}

// Resolver resolves a Pair using a fixed fallback order.
// A zero Resolver has no default locations; use New or FromEnv.
type Resolver struct {
	// CertPath and KeyPath are explicitly configured paths (usually from
	// CERT_PATH and KEY_PATH). They win when both are non-empty.
	CertPath string
	KeyPath  string

	// DefaultCertPath and DefaultKeyPath are the fallback locations.
	DefaultCertPath string
	DefaultKeyPath  string

	// Stat is used to check the default locations. Nil means os.Stat.
	Stat func(name string) (os.FileInfo, error)
}

// New creates a resolver for the given configured paths using the default
// fallback locations.
func New(certPath, keyPath string) *Resolver {
	return &Resolver{
		CertPath:        certPath,
		KeyPath:         keyPath,
		DefaultCertPath: DefaultCertPath,
		DefaultKeyPath:  DefaultKeyPath,
	}
}

// FromEnv creates a resolver from CERT_PATH and KEY_PATH.
func FromEnv() *Resolver {
	return New(os.Getenv(EnvCertPath), os.Getenv(EnvKeyPath))
}

// Resolve returns the credential pair. The configured branch performs no
// filesystem access; the default branch stats both files and requires them
// to be regular files.
func (r *Resolver) Resolve() (Pair, error) {
	if r.CertPath != "" && r.KeyPath != "" {
		return Pair{CertPath: r.CertPath, KeyPath: r.KeyPath, Source: SourceConfigured}, nil
	}

	if r.DefaultCertPath == "" || r.DefaultKeyPath == "" {
		return Pair{}, ErrCredentialsNotFound
	}

	if r.isFile(r.DefaultCertPath) && r.isFile(r.DefaultKeyPath) {
		return Pair{CertPath: r.DefaultCertPath, KeyPath: r.DefaultKeyPath, Source: SourceDefault}, nil
	}

	return Pair{}, fmt.Errorf("%w (looked in %s and %s)", ErrCredentialsNotFound, r.DefaultCertPath, r.DefaultKeyPath)
}

func (r *Resolver) isFile(path string) bool {
	stat := r.Stat
	if stat == nil {
		stat = os.Stat
	}

	info, err := stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
