package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"golang.org/x/term"
)

const (
	// DefaultMaxWidth is the fallback line width when the terminal size
	// cannot be detected or WEBTRACE_MAX_WIDTH is unset.
	DefaultMaxWidth = 100

	// WidthCap bounds the output width even on very wide terminals so
	// wrapped tool output stays readable.
	WidthCap = 120

	DefaultRetries = 2
)

// ScanType tags a task as probing the target directly or only consulting
// third-party data about it.
type ScanType string

const (
	ScanActive  ScanType = "active"
	ScanPassive ScanType = "passive"
)

// Runtime captures the process-wide state every component reads. It is
// constructed once at startup and passed by reference; nothing else in the
// repository reads the environment after New returns.
type Runtime struct {
	WorkDir     string
	LogDir      string
	LogPath     string
	TmpDir      string
	ScanOutPath string

	MaxWidth  int
	Colors    bool
	Debug     bool
	HideSrcIP bool
	CABundle  string

	URL     string
	Host    string
	Method  string
	Headers []string
	Proxy   string
	Iface   string

	Retries int

	// ScanType is set by the runner from the task definition currently
	// executing; the formatter reads it for the header badge.
	ScanType ScanType
}

// New builds the runtime state from the environment. workDir anchors the
// log and temp directories; it is typically the user data dir, or a
// test-provided temp directory.
func New(workDir string) (*Runtime, error) {
	if workDir == "" {
		var err error
		workDir, err = defaultWorkDir()
		if err != nil {
			return nil, err
		}
	}

	r := &Runtime{
		WorkDir:   workDir,
		LogDir:    filepath.Join(workDir, "log"),
		TmpDir:    filepath.Join(workDir, "tmp"),
		MaxWidth:  detectMaxWidth(),
		Colors:    detectColors(),
		HideSrcIP: os.Getenv("WEBTRACE_HIDE_SRC_IP") == "1",
		CABundle:  detectCABundle(),
		Method:    "GET",
		Retries:   DefaultRetries,
		ScanType:  ScanPassive,
	}
	r.LogPath = filepath.Join(r.LogDir, "webtrace.log")
	r.ScanOutPath = filepath.Join(r.TmpDir, "scan.out")
	return r, nil
}

// defaultWorkDir follows the XDG data dir convention on Linux and the
// platform-native equivalents elsewhere.
func defaultWorkDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		base := os.Getenv("LOCALAPPDATA")
		if base == "" {
			base = os.Getenv("APPDATA")
		}
		if base == "" {
			return "", fmt.Errorf("could not determine Windows data directory")
		}
		return filepath.Join(base, "webtrace"), nil

	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not determine home directory: %w", err)
		}
		return filepath.Join(home, "Library", "Application Support", "webtrace"), nil

	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, "webtrace"), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not determine home directory: %w", err)
		}
		return filepath.Join(home, ".local", "share", "webtrace"), nil
	}
}

func detectColors() bool {
	switch os.Getenv("WEBTRACE_COLORS") {
	case "0", "off", "false":
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return true
}

// detectMaxWidth resolves WEBTRACE_MAX_WIDTH: a number is used as-is,
// "auto" (or unset) derives the width from the terminal columns, capped.
func detectMaxWidth() int {
	raw := os.Getenv("WEBTRACE_MAX_WIDTH")
	if raw != "" && raw != "auto" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return DefaultMaxWidth
	}
	if w > WidthCap {
		return WidthCap
	}
	return w
}

// detectCABundle picks the OS family's CA bundle, honoring the override.
func detectCABundle() string {
	if p := os.Getenv("WEBTRACE_CA_BUNDLE"); p != "" {
		return p
	}
	var candidates []string
	switch runtime.GOOS {
	case "darwin":
		candidates = []string{"/etc/ssl/cert.pem"}
	case "freebsd", "openbsd", "netbsd":
		candidates = []string{
			"/usr/local/share/certs/ca-root-nss.crt",
			"/etc/ssl/cert.pem",
		}
	default:
		candidates = []string{
			"/etc/ssl/certs/ca-certificates.crt",
			"/etc/pki/tls/certs/ca-bundle.crt",
			"/etc/ssl/ca-bundle.pem",
		}
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}
