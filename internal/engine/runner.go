package engine

import (
	"fmt"

	"github.com/nvdat/webtrace/internal/config"
	"github.com/nvdat/webtrace/internal/console"
	"github.com/nvdat/webtrace/internal/logsink"
)

// Runner evaluates task definitions and drives their steps through the
// formatter and executor, strictly in order.
type Runner struct {
	cfg      *config.Runtime
	sink     *logsink.Sink
	console  *console.Formatter
	executor *Executor
	registry *Registry

	passed int
	failed int
}

func NewRunner(cfg *config.Runtime, sink *logsink.Sink, fmtr *console.Formatter, exec *Executor, reg *Registry) *Runner {
	return &Runner{cfg: cfg, sink: sink, console: fmtr, executor: exec, registry: reg}
}

// RunTask evaluates the named definition and executes its steps. A step
// whose retries are exhausted is recorded and the remaining steps still
// run; only an ill-formed definition or a stop-severity log entry aborts.
func (r *Runner) RunTask(name string) error {
	def, ok := r.registry.Lookup(name)
	if !ok {
		return r.sink.Log(logsink.Stop, "runner", fmt.Sprintf("unknown task %q", name))
	}

	list := NewStepList()
	r.cfg.ScanType = def.Scan

	if err := def.Build(list, r.cfg); err != nil {
		return r.sink.Log(logsink.Stop, "runner",
			fmt.Sprintf("task %q failed to evaluate: %v", name, err))
	}
	if err := list.Validate(); err != nil {
		return r.sink.Log(logsink.Stop, "runner",
			fmt.Sprintf("task %q produced an ill-formed step list: %v", name, err))
	}

	if err := r.sink.Log(logsink.Head, "runner",
		fmt.Sprintf("task %q: %d step(s)", name, list.Len())); err != nil {
		return err
	}

	for i := 0; i < list.Len(); i++ {
		title, detail := SplitMessage(list.Messages[i])

		if err := r.console.Announce(title, detail); err != nil {
			return err
		}

		att, err := r.executor.RunWithRetry(name, list.Commands[i], r.cfg.Retries)
		if err != nil {
			return err
		}
		if att.OK {
			r.passed++
		} else {
			r.failed++
			r.console.Fail(title, att.Number)
			if err := r.sink.Log(logsink.Warn, name,
				fmt.Sprintf("step %d (%s) failed after %d attempt(s)", i+1, title, att.Number)); err != nil {
				return err
			}
		}

		if err := r.console.Flush(); err != nil {
			return err
		}
	}
	return nil
}

// Counts reports how many steps passed and failed across every task this
// runner has executed.
func (r *Runner) Counts() (passed, failed int) {
	return r.passed, r.failed
}

// RunTasks executes several definitions back to back, preserving the
// partial-failure policy across tasks as well: a failed step in one task
// never skips the next task.
func (r *Runner) RunTasks(names []string) error {
	for _, name := range names {
		if err := r.RunTask(name); err != nil {
			return err
		}
	}
	return nil
}
