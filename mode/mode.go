package mode

import (
	"fmt"

	"github.com/k3vq/facet/errors"
)

// IsolationLevel controls how much of the shared agent state a mode's
// changes are insulated from. Levels are totally ordered: a nested mode must
// request isolation at least as high as its parent's.
type IsolationLevel int

const (
	// IsolationNone shares everything with the surrounding scope; nothing is
	// captured and nothing reverts on exit.
	IsolationNone IsolationLevel = iota
	// IsolationConfig captures model configuration and tool registrations;
	// both revert on exit. The conversation is shared.
	IsolationConfig
	// IsolationThread additionally marks the conversation on entry. Messages
	// added during the mode are retained after exit; changes to pre-existing
	// messages are undone.
	IsolationThread
	// IsolationFork captures the full conversation. Everything the mode did
	// to it, including new messages, is discarded on exit.
	IsolationFork
)

func (l IsolationLevel) String() string {
	switch l {
	case IsolationNone:
		return "none"
	case IsolationConfig:
		return "config"
	case IsolationThread:
		return "thread"
	case IsolationFork:
		return "fork"
	}
	return fmt.Sprintf("isolation(%d)", int(l))
}

// ParseIsolationLevel converts a configuration string into an IsolationLevel.
func ParseIsolationLevel(s string) (IsolationLevel, error) {
	switch s {
	case "", "none":
		return IsolationNone, nil
	case "config":
		return IsolationConfig, nil
	case "thread":
		return IsolationThread, nil
	case "fork":
		return IsolationFork, nil
	}
	return IsolationNone, errors.New("unknown isolation level '%s'", s)
}

// ExitBehavior tells the surrounding execution loop what to do after a mode
// exits.
type ExitBehavior int

const (
	// ExitAuto lets the loop decide: continue if the conversation still
	// expects a response, stop otherwise.
	ExitAuto ExitBehavior = iota
	// ExitContinue asks the loop to issue another model call immediately.
	ExitContinue
	// ExitStop asks the loop to return control without another model call.
	ExitStop
)

func (b ExitBehavior) String() string {
	switch b {
	case ExitAuto:
		return "auto"
	case ExitContinue:
		return "continue"
	case ExitStop:
		return "stop"
	}
	return fmt.Sprintf("exit(%d)", int(b))
}

// ParseExitBehavior converts a configuration string into an ExitBehavior.
func ParseExitBehavior(s string) (ExitBehavior, error) {
	switch s {
	case "", "auto":
		return ExitAuto, nil
	case "continue":
		return ExitContinue, nil
	case "stop":
		return ExitStop, nil
	}
	return ExitAuto, errors.New("unknown exit behavior '%s'", s)
}

// Handler is the single calling convention for mode handlers. The code before
// the (at most one) Context.Suspend call is the setup phase; the code after
// it is the cleanup phase. A handler that never suspends runs entirely during
// mode entry and has no cleanup phase.
//
// When the mode exits because an error is propagating, Suspend returns that
// error. The handler then decides its fate: returning nil suppresses it,
// returning it unchanged passes it through, and returning a different error
// replaces it.
type Handler func(c *Context) error

// Info is the immutable registration record for a mode.
type Info struct {
	Name         string
	Handler      Handler
	Isolation    IsolationLevel
	ExitBehavior ExitBehavior // default, unless the handler overrides it
	Invocable    bool         // whether the model may enter this mode via tool call
}

// TransitionKind enumerates the scheduled transition requests.
type TransitionKind int

const (
	TransitionStay TransitionKind = iota
	TransitionSwitch
	TransitionPush
	TransitionExit
)

func (k TransitionKind) String() string {
	switch k {
	case TransitionStay:
		return "stay"
	case TransitionSwitch:
		return "switch"
	case TransitionPush:
		return "push"
	case TransitionExit:
		return "exit"
	}
	return fmt.Sprintf("transition(%d)", int(k))
}

// Transition is a mode change request. Transitions are never applied
// immediately: they are scheduled on the engine (at most one pending) and
// drained by the execution loop at the start of an iteration, never
// mid-flight.
type Transition struct {
	Kind   TransitionKind
	Target string
	Params map[string]any
}

// Switch requests replacing the current mode with target.
func Switch(target string, params map[string]any) Transition {
	return Transition{Kind: TransitionSwitch, Target: target, Params: params}
}

// Push requests nesting target inside the current mode.
func Push(target string, params map[string]any) Transition {
	return Transition{Kind: TransitionPush, Target: target, Params: params}
}

// Exit requests leaving the current mode.
func Exit() Transition {
	return Transition{Kind: TransitionExit}
}

// exitBehaviorKey is the reserved state key a handler writes through
// Context.SetExitBehavior to override its registered default for one exit.
const exitBehaviorKey = "mode.exit_behavior"
