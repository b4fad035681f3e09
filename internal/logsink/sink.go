// Package logsink provides the append-only run log every component reports
// through. One severity, Stop, doubles as the system's single abort
// primitive: logging at Stop returns a *FatalError that the top-level
// driver converts into process termination.
package logsink

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Severity tags a log entry. Stop is terminal.
type Severity string

const (
	Info Severity = "info"
	Head Severity = "head"
	Warn Severity = "warn"
	Stop Severity = "stop"
)

// FatalCode is the reserved exit code for stop-severity terminations and
// recognized signals. UnknownCode marks untrapped conditions.
const (
	FatalCode   = 255
	UnknownCode = 254
)

// FatalError is returned by Log for Stop-severity entries. The entry is
// already durably written when the error is returned; the caller's only
// remaining duty is to exit with Code.
type FatalError struct {
	Code    int
	Source  string
	Message string
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s: %s (exit %d)", e.Source, e.Message, e.Code)
}

// Sink appends fixed-format entries to the run log file. In debug mode it
// mirrors every entry to the terminal through zap.
type Sink struct {
	dir   string
	path  string
	debug bool

	mu   sync.Mutex
	f    *os.File
	zlog *zap.SugaredLogger

	now func() time.Time
}

// New returns a sink writing to path. The parent directory is created on
// first write, not here, so constructing a sink never fails.
func New(path string, debug bool) *Sink {
	s := &Sink{
		dir:   filepath.Dir(path),
		path:  path,
		debug: debug,
		now:   time.Now,
	}
	if debug {
		l, _ := zap.NewDevelopment()
		s.zlog = l.Sugar()
	}
	return s
}

// Path returns the log file location.
func (s *Sink) Path() string { return s.path }

// Log appends one entry. For Stop severity the entry is synced to disk and
// a *FatalError is returned; every other severity returns nil unless the
// write itself failed.
func (s *Sink) Log(sev Severity, source, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.open(); err != nil {
		return err
	}

	line := fmt.Sprintf("%s  %s:  [%s] %s\n",
		s.now().Format("2006-01-02 15:04:05"), source, severityTag(sev), message)
	if _, err := s.f.WriteString(line); err != nil {
		return fmt.Errorf("write log entry: %w", err)
	}

	if s.zlog != nil {
		switch sev {
		case Warn:
			s.zlog.Warnf("%s: %s", source, message)
		case Stop:
			s.zlog.Errorf("%s: %s", source, message)
		default:
			s.zlog.Infof("%s: %s", source, message)
		}
	}

	if sev == Stop {
		_ = s.f.Sync()
		return &FatalError{Code: FatalCode, Source: source, Message: message}
	}
	return nil
}

// Close releases the underlying file. Safe to call on a sink that never
// wrote anything.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}

func (s *Sink) open() error {
	if s.f != nil {
		return nil
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	s.f = f
	return nil
}

func severityTag(sev Severity) string {
	switch sev {
	case Info:
		return "INFO"
	case Head:
		return "HEAD"
	case Warn:
		return "WARN"
	case Stop:
		return "STOP"
	}
	return "INFO"
}
