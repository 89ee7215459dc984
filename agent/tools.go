package agent

import (
	"context"
	"fmt"

	"github.com/k3vq/facet/mode"
)

// enterModeTool lets the model request entry into one invocable mode. One
// instance exists per invocable mode, named "enter_mode_<mode>", so the tool
// list itself advertises what is available.
//
// The transition is scheduled, not applied: it takes effect at the start of
// the next loop iteration, after the current model response is fully
// processed.
type enterModeTool struct {
	agent *Agent
	mode  string
}

func (t *enterModeTool) Name() string {
	return "enter_mode_" + t.mode
}

func (t *enterModeTool) Description() string {
	return fmt.Sprintf("Enter the '%s' behavior mode. Pass nested=true to keep the current mode active underneath instead of replacing it. Remaining arguments are handed to the mode as parameters.", t.mode)
}

func (t *enterModeTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	nested := false
	params := make(map[string]any, len(args))
	for k, v := range args {
		if k == "nested" {
			if b, ok := v.(bool); ok {
				nested = b
			}
			continue
		}
		params[k] = v
	}

	info, err := t.agent.Modes.Get(t.mode)
	if err != nil {
		return "", err
	}
	if !info.Invocable {
		return fmt.Sprintf("Mode '%s' cannot be entered by tool call.", t.mode), nil
	}

	if nested {
		// Validate the nesting now so the model gets a usable answer instead
		// of a failure on the next iteration.
		if current := t.agent.Engine.Name(); current != "" {
			parent, perr := t.agent.Modes.Get(current)
			if perr == nil && info.Isolation < parent.Isolation {
				return fmt.Sprintf("Cannot nest mode '%s' (isolation %s) inside '%s' (isolation %s).",
					t.mode, info.Isolation, current, parent.Isolation), nil
			}
		}
		t.agent.Engine.Schedule(mode.Push(t.mode, params))
		return fmt.Sprintf("Mode '%s' will be entered nested inside the current mode.", t.mode), nil
	}

	t.agent.Engine.Schedule(mode.Switch(t.mode, params))
	return fmt.Sprintf("Mode '%s' will be entered.", t.mode), nil
}

// exitModeTool lets the model request leaving the current mode. With no mode
// active it reports that instead of failing, since the request may simply
// have raced with the mode ending on its own.
type exitModeTool struct {
	agent *Agent
}

func (t *exitModeTool) Name() string {
	return "exit_mode"
}

func (t *exitModeTool) Description() string {
	return "Exit the current behavior mode and return to the previous one."
}

func (t *exitModeTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	current := t.agent.Engine.Name()
	if current == "" {
		return "No mode is active; nothing to exit.", nil
	}
	t.agent.Engine.Schedule(mode.Exit())
	return fmt.Sprintf("Mode '%s' will be exited.", current), nil
}
