// Package tasks holds the built-in diagnostic task definitions. Each one
// is glue: a scan-type tag plus the messages and shell commands for the
// external tool it fronts. The engine treats every command as opaque.
package tasks

import (
	"strings"

	"github.com/nvdat/webtrace/internal/config"
	"github.com/nvdat/webtrace/internal/engine"
)

// Builtins returns every built-in definition, in the order the --all-scans
// flag runs them.
func Builtins() []*engine.Definition {
	return []*engine.Definition{
		http2Task(),
		testsslTask(),
		observatoryTask(),
		ssllabsTask(),
		mixedContentTask(),
		nseTask(),
		wafTask(),
		dnsTask(),
	}
}

// RegisterBuiltins loads the built-in catalog into reg.
func RegisterBuiltins(reg *engine.Registry) error {
	for _, def := range Builtins() {
		if err := reg.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// shellQuote wraps s in single quotes for safe interpolation into an
// sh -c command line.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// curlBase assembles the curl invocation shared by the HTTP-speaking
// tasks, honoring method, extra headers, proxy, interface, and CA bundle
// from the runtime.
func curlBase(cfg *config.Runtime) string {
	parts := []string{"curl", "-s", "-L", "--max-time", "30"}
	if cfg.Method != "" && cfg.Method != "GET" {
		parts = append(parts, "-X", cfg.Method)
	}
	for _, h := range cfg.Headers {
		parts = append(parts, "-H", shellQuote(h))
	}
	if cfg.Proxy != "" {
		parts = append(parts, "--proxy", shellQuote(cfg.Proxy))
	}
	if cfg.Iface != "" {
		parts = append(parts, "--interface", shellQuote(cfg.Iface))
	}
	if cfg.CABundle != "" {
		parts = append(parts, "--cacert", shellQuote(cfg.CABundle))
	}
	return strings.Join(parts, " ")
}
