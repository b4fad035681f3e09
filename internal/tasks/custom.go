package tasks

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/nvdat/webtrace/internal/config"
	"github.com/nvdat/webtrace/internal/engine"
)

type customStep struct {
	Message string `mapstructure:"message"`
	Command string `mapstructure:"command"`
}

type customTask struct {
	Name  string       `mapstructure:"name"`
	Scan  string       `mapstructure:"scan"`
	Steps []customStep `mapstructure:"steps"`
}

// FromViper builds task definitions from the config file's `tasks:` list,
// letting operators add checks for tools the built-in catalog does not
// know. Custom tasks register beside the built-ins and run through the
// same engine; a name collision is caught at registration.
func FromViper(v *viper.Viper) ([]*engine.Definition, error) {
	if !v.IsSet("tasks") {
		return nil, nil
	}

	var raw []customTask
	if err := v.UnmarshalKey("tasks", &raw); err != nil {
		return nil, fmt.Errorf("parse tasks from config: %w", err)
	}

	defs := make([]*engine.Definition, 0, len(raw))
	for _, t := range raw {
		if t.Name == "" {
			return nil, fmt.Errorf("config task without a name")
		}
		var scan config.ScanType
		switch t.Scan {
		case "active":
			scan = config.ScanActive
		case "passive", "":
			scan = config.ScanPassive
		default:
			return nil, fmt.Errorf("config task %q: unknown scan type %q", t.Name, t.Scan)
		}
		if len(t.Steps) == 0 {
			return nil, fmt.Errorf("config task %q has no steps", t.Name)
		}
		for i, s := range t.Steps {
			if s.Message == "" || s.Command == "" {
				return nil, fmt.Errorf("config task %q: step %d needs message and command", t.Name, i+1)
			}
		}

		steps := t.Steps
		defs = append(defs, &engine.Definition{
			Name: t.Name,
			Scan: scan,
			Build: func(list *engine.StepList, _ *config.Runtime) error {
				for _, s := range steps {
					list.Add(s.Message, s.Command)
				}
				return nil
			},
		})
	}
	return defs, nil
}
