package internal

import (
	"errors"
	"fmt"
	"os"

	"github.com/tinyland-inc/bridgeclaw/pkg/config"
)

const Logo = "🌉"

var (
	version   = "dev"
	gitCommit string
)

// FormatVersion returns the version string with optional git commit.
func FormatVersion() string {
	v := version
	if gitCommit != "" {
		v += fmt.Sprintf(" (git: %s)", gitCommit)
	}
	return v
}

// AppName resolves the application name used for pid and log files. It
// prefers the configured application.name; when the document cannot be
// loaded it falls back to the binary default so stop/status keep working
// against a broken configuration.
func AppName(configVersion string) string {
	cfg, err := config.LoadVersion(configVersion)
	if err != nil {
		return "bridgeclaw"
	}
	if cfg.App.Name == "" {
		return "bridgeclaw"
	}
	return cfg.App.Name
}

// PrintConfigError writes every accumulated violation to stderr and
// reports whether err was a configuration error.
func PrintConfigError(err error) bool {
	var cfgErr *config.ConfigError
	if !errors.As(err, &cfgErr) {
		return false
	}
	fmt.Fprintln(os.Stderr, "invalid configuration:")
	for _, msg := range cfgErr.All() {
		fmt.Fprintf(os.Stderr, "  - %s\n", msg)
	}
	return true
}
