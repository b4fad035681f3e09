// Package engine is the task execution core: task definitions evaluate to
// ordered step lists, and the executor runs each step's external command
// with bounded retry under the liveness spinner.
package engine

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/nvdat/webtrace/internal/config"
)

// StepList holds the two parallel sequences a task definition populates:
// display messages (conventionally "title:detail") and the shell commands
// they announce. A fresh list is allocated per evaluation, so no task can
// observe or mutate a previous task's steps.
type StepList struct {
	Messages []string
	Commands []string
}

func NewStepList() *StepList {
	return &StepList{}
}

// Add appends one step. Going through Add keeps the sequences equal
// length; Validate guards against definitions that reach into the slices
// directly.
func (l *StepList) Add(message, command string) {
	l.Messages = append(l.Messages, message)
	l.Commands = append(l.Commands, command)
}

func (l *StepList) Len() int { return len(l.Messages) }

// Validate rejects ill-formed lists. The runner treats a violation as
// fatal: iterating partially populated parallel sequences would pair
// messages with the wrong commands.
func (l *StepList) Validate() error {
	if len(l.Messages) != len(l.Commands) {
		return fmt.Errorf("step list mismatch: %d messages, %d commands",
			len(l.Messages), len(l.Commands))
	}
	return nil
}

// SplitMessage cuts a display message on the first colon into the short
// title and the detail annotation. Messages without a colon are all title.
func SplitMessage(msg string) (title, detail string) {
	if i := strings.Index(msg, ":"); i >= 0 {
		return msg[:i], msg[i+1:]
	}
	return msg, ""
}

// BuildFunc populates a fresh step list for one evaluation. The runtime
// carries the target; definitions read it to assemble commands.
type BuildFunc func(list *StepList, cfg *config.Runtime) error

// Definition is one named diagnostic check: a scan-type tag plus the
// procedure producing its steps.
type Definition struct {
	Name  string
	Scan  config.ScanType
	Build BuildFunc
}

// Registry maps task names to definitions. Lookup by name replaces any
// dynamic dispatch on user-supplied strings.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]*Definition
}

func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

func (r *Registry) Register(def *Definition) error {
	if def == nil || def.Name == "" {
		return fmt.Errorf("task definition requires a name")
	}
	if def.Build == nil {
		return fmt.Errorf("task %q has no build procedure", def.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.defs[def.Name]; exists {
		return fmt.Errorf("task %q already registered", def.Name)
	}
	r.defs[def.Name] = def
	return nil
}

func (r *Registry) Lookup(name string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	return def, ok
}

// Names returns the registered task names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
