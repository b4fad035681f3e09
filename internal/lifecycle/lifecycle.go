// Package lifecycle owns process-wide setup and the single teardown path.
// Whatever ends the run — normal fall-through, an explicit fatal exit, or
// a signal — cleanup executes exactly once before the process dies.
package lifecycle

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/nvdat/webtrace/internal/config"
	"github.com/nvdat/webtrace/internal/logsink"
)

const (
	hideCursor = "\x1b[?25l"
	showCursor = "\x1b[?25h"
)

// Reason is the typed cause of termination, consumed once by cleanup.
type Reason interface {
	Code() int
	String() string
}

// NormalExit is the fall-through path after all tasks ran.
type NormalExit struct{}

func (NormalExit) Code() int      { return 0 }
func (NormalExit) String() string { return "normal exit" }

// ExitStatus carries an explicit exit code, e.g. from a FatalError.
type ExitStatus struct{ Status int }

func (e ExitStatus) Code() int      { return e.Status }
func (e ExitStatus) String() string { return fmt.Sprintf("exit status %d", e.Status) }

// Signaled marks termination by a recognized signal class.
type Signaled struct{ Sig os.Signal }

func (s Signaled) Code() int      { return logsink.FatalCode }
func (s Signaled) String() string { return fmt.Sprintf("signal %v", s.Sig) }

// Unknown covers untrapped termination conditions.
type Unknown struct{}

func (Unknown) Code() int      { return logsink.UnknownCode }
func (Unknown) String() string { return "unknown termination" }

// exitFunc is swapped out by tests.
var exitFunc = os.Exit

// Manager drives UNINIT → READY → RUNNING → EXITING → TERMINATED.
type Manager struct {
	cfg  *config.Runtime
	sink *logsink.Sink
	out  io.Writer

	mu    sync.Mutex
	hooks []func()

	cleanupOnce sync.Once
	sigCh       chan os.Signal
	sigDone     chan struct{}
}

func NewManager(cfg *config.Runtime, sink *logsink.Sink, out io.Writer) *Manager {
	if out == nil {
		out = os.Stdout
	}
	return &Manager{cfg: cfg, sink: sink, out: out}
}

// BeforeInit moves the process to READY: log directory created, temp
// directory destructively recreated, cursor hidden, session opened in
// the log. No task may run before this returns.
func (m *Manager) BeforeInit() error {
	if err := os.MkdirAll(m.cfg.LogDir, 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	if err := os.RemoveAll(m.cfg.TmpDir); err != nil {
		return fmt.Errorf("reset temp directory: %w", err)
	}
	if err := os.MkdirAll(m.cfg.TmpDir, 0o755); err != nil {
		return fmt.Errorf("create temp directory: %w", err)
	}
	fmt.Fprint(m.out, hideCursor)
	return m.sink.Log(logsink.Head, "lifecycle", "session start: "+m.cfg.Host)
}

// OnCleanup registers a hook to run during teardown, before the temp
// directory is removed. The executor registers its child-abort here so a
// mid-flight command is never orphaned by signal-triggered cleanup.
func (m *Manager) OnCleanup(hook func()) {
	m.mu.Lock()
	m.hooks = append(m.hooks, hook)
	m.mu.Unlock()
}

// Cleanup performs teardown exactly once and returns the exit code for
// the given reason. Later calls, from any path, return the code without
// repeating the work.
func (m *Manager) Cleanup(reason Reason) int {
	m.cleanupOnce.Do(func() {
		fmt.Fprint(m.out, showCursor)

		m.mu.Lock()
		hooks := append([]func(){}, m.hooks...)
		m.mu.Unlock()
		for _, hook := range hooks {
			hook()
		}

		_ = os.Truncate(m.cfg.ScanOutPath, 0)
		_ = os.RemoveAll(m.cfg.TmpDir)
		_ = m.sink.Log(logsink.Info, "lifecycle", "session end: "+reason.String())
		_ = m.sink.Close()

		if m.sigCh != nil {
			signal.Stop(m.sigCh)
			close(m.sigDone)
		}
	})
	return reason.Code()
}

// WatchSignals traps the terminal signal classes. Delivery funnels into
// the same cleanup path as a normal exit; the idempotent guard means a
// signal racing a fall-through return still tears down once.
func (m *Manager) WatchSignals() {
	m.sigCh = make(chan os.Signal, 1)
	m.sigDone = make(chan struct{})
	signal.Notify(m.sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)

	go func() {
		select {
		case sig := <-m.sigCh:
			exitFunc(m.Cleanup(Signaled{Sig: sig}))
		case <-m.sigDone:
		}
	}()
}

// Exit is the single authorized termination primitive outside signal
// delivery: cleanup, then process exit with the reason's code.
func (m *Manager) Exit(reason Reason) {
	exitFunc(m.Cleanup(reason))
}
