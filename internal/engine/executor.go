package engine

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"github.com/nvdat/webtrace/internal/config"
	"github.com/nvdat/webtrace/internal/console"
	"github.com/nvdat/webtrace/internal/logsink"
)

// FailureReason records why an attempt was classified failed. External
// behavior folds every reason into one "fail" outcome; the field exists
// for the log and for tests, not for differentiated retry policy.
type FailureReason string

const (
	ReasonNone  FailureReason = ""
	ReasonExit  FailureReason = "exit"
	ReasonSpawn FailureReason = "spawn"
)

// Attempt describes the final attempt of a retry loop.
type Attempt struct {
	Command  string
	PID      int
	Number   int
	OK       bool
	Reason   FailureReason
	ExitCode int
}

// Executor supervises one background external command at a time. The
// command's combined output is redirected to the scan buffer file; each
// attempt reopens the file with truncation, so after the loop only the
// final attempt's output is guaranteed present.
type Executor struct {
	cfg     *config.Runtime
	sink    *logsink.Sink
	console *console.Formatter

	mu    sync.Mutex
	child *exec.Cmd
}

func NewExecutor(cfg *config.Runtime, sink *logsink.Sink, fmtr *console.Formatter) *Executor {
	return &Executor{cfg: cfg, sink: sink, console: fmtr}
}

// RunWithRetry executes command under the shell up to maxAttempts times,
// stopping at the first zero exit. Exhaustion is reported in the returned
// Attempt, never as an error; the only errors surfaced are fatal logging
// failures, which abort the run.
func (e *Executor) RunWithRetry(source, command string, maxAttempts int) (Attempt, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	att := Attempt{Command: command}
	for n := 1; n <= maxAttempts; n++ {
		att.Number = n
		if err := e.sink.Log(logsink.Info, source,
			fmt.Sprintf("attempt %d/%d: %s", n, maxAttempts, command)); err != nil {
			return att, err
		}

		ok, reason, code := e.runOnce(command, &att)
		att.OK, att.Reason, att.ExitCode = ok, reason, code

		result := "fail"
		if ok {
			result = "pass"
		}
		if err := e.sink.Log(logsink.Info, source, "result: "+result); err != nil {
			return att, err
		}
		if ok {
			break
		}
	}
	return att, nil
}

func (e *Executor) runOnce(command string, att *Attempt) (ok bool, reason FailureReason, code int) {
	out, err := os.OpenFile(e.cfg.ScanOutPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return false, ReasonSpawn, -1
	}
	defer out.Close()

	cmd := exec.Command("sh", "-c", command)
	cmd.Stdout = out
	cmd.Stderr = out
	// Own process group, so Abort reaches pipeline children and not just
	// the shell.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return false, ReasonSpawn, -1
	}
	att.PID = cmd.Process.Pid
	e.setChild(cmd)
	defer e.setChild(nil)

	// Reap concurrently so the pid leaves the process table as soon as
	// the command exits; the spinner's liveness poll keys off that.
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	e.console.Spin(cmd.Process.Pid)
	err = <-done

	if err == nil {
		return true, ReasonNone, 0
	}
	if exitErr, isExit := err.(*exec.ExitError); isExit {
		return false, ReasonExit, exitErr.ExitCode()
	}
	return false, ReasonSpawn, -1
}

// Abort kills the process group of the child currently in flight, if
// any. Called from the lifecycle cleanup path so signal-triggered
// teardown never orphans a supervised command or its pipeline children.
func (e *Executor) Abort() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.child == nil || e.child.Process == nil {
		return
	}
	if err := syscall.Kill(-e.child.Process.Pid, syscall.SIGKILL); err != nil {
		_ = e.child.Process.Kill()
	}
}

func (e *Executor) setChild(cmd *exec.Cmd) {
	e.mu.Lock()
	e.child = cmd
	e.mu.Unlock()
}
