package mode

import (
	"log/slog"
	"sync"
	"time"
)

// EventKind enumerates the lifecycle notifications the engine emits.
type EventKind int

const (
	// EventEntered fires after a mode is fully on the stack, its snapshots
	// taken and its setup phase run.
	EventEntered EventKind = iota
	// EventExited fires after a mode's cleanup ran and its snapshots were
	// restored. Err carries whatever the exit left propagating, if anything.
	EventExited
	// EventCleanupError fires when cleanup itself misbehaved while another
	// error was already propagating. The propagating error wins; this event
	// is how the secondary one surfaces instead of vanishing.
	EventCleanupError
)

func (k EventKind) String() string {
	switch k {
	case EventEntered:
		return "entered"
	case EventExited:
		return "exited"
	case EventCleanupError:
		return "cleanup_error"
	}
	return "event"
}

// Event is a mode lifecycle notification.
type Event struct {
	Kind     EventKind
	Mode     string
	Behavior ExitBehavior // resolved exit behavior; meaningful on EventExited
	Err      error
}

// Listener receives lifecycle events. Listeners run synchronously on the
// mutating goroutine and must not call the engine's mutating methods.
type Listener func(Event)

// Applied describes the outcome of draining a scheduled transition.
type Applied struct {
	Transition Transition
	Exited     string       // mode that left the stack, if any
	Entered    string       // mode that joined the stack, if any
	Behavior   ExitBehavior // resolved behavior of the exit, when Exited is set
	Note       string       // set when the transition degraded to a no-op
}

// Engine owns the mode stack and drives the handler lifecycle: snapshot,
// setup, suspension, cleanup, restore. One engine serves one agent.
//
// Mutations (enter, exit, drain) are serialized by an internal gate, so
// handlers must never enter or exit modes synchronously from inside a
// lifecycle phase; they schedule a transition instead and the execution loop
// applies it between iterations.
type Engine struct {
	registry *Registry
	state    *AgentState
	overlay  *Overlay
	logger   *slog.Logger

	gate sync.Mutex   // serializes mutations end to end
	mu   sync.RWMutex // guards stack and pending for short reads/writes

	stk     stack
	pending *Transition

	listeners []Listener
}

// NewEngine creates an engine over the given registry, shared agent state and
// prompt overlay. A nil logger falls back to slog's default.
func NewEngine(registry *Registry, state *AgentState, overlay *Overlay, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if overlay == nil {
		overlay = NewOverlay("")
	}
	if state == nil {
		state = &AgentState{}
	}
	return &Engine{
		registry: registry,
		state:    state,
		overlay:  overlay,
		logger:   logger,
	}
}

// Subscribe adds a lifecycle listener. Subscribe before the engine starts
// entering modes; listeners are not removable.
func (e *Engine) Subscribe(l Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, l)
}

// Overlay returns the prompt overlay the engine snapshots and restores.
func (e *Engine) Overlay() *Overlay {
	return e.overlay
}

// State returns the shared agent state.
func (e *Engine) State() *AgentState {
	return e.state
}

// Name returns the active mode's name, or "" when the stack is empty.
func (e *Engine) Name() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if ent := e.stk.current(); ent != nil {
		return ent.info.Name
	}
	return ""
}

// StackNames returns the active mode names from outermost to innermost.
func (e *Engine) StackNames() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.stk.names()
}

// Depth returns the number of active modes.
func (e *Engine) Depth() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.stk.depth()
}

// InMode reports whether a mode with the given name is anywhere on the stack.
func (e *Engine) InMode(name string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.stk.contains(name)
}

// Duration returns how long the active mode has been on the stack, or zero
// when the stack is empty.
func (e *Engine) Duration() time.Duration {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if ent := e.stk.current(); ent != nil {
		return time.Since(ent.enteredAt)
	}
	return 0
}

// Value looks a state key up from the innermost mode outwards, so inner modes
// shadow their ancestors.
func (e *Engine) Value(key string) (any, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.stk.value(key)
}

// setValue writes into the active mode's state map. Writes with no active
// mode are dropped.
func (e *Engine) setValue(key string, v any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if ent := e.stk.current(); ent != nil {
		ent.state[key] = v
	}
}

// EnterMode pushes the named mode, passing params through to the handler's
// state map under their own keys. Snapshots are taken before the handler's
// setup phase runs, so a setup that fails still unwinds cleanly.
func (e *Engine) EnterMode(name string, params map[string]any) error {
	e.gate.Lock()
	defer e.gate.Unlock()
	return e.enterLocked(name, params)
}

// ExitMode pops the active mode normally and returns its resolved exit
// behavior.
func (e *Engine) ExitMode() (ExitBehavior, error) {
	e.gate.Lock()
	defer e.gate.Unlock()
	return e.exitLocked(nil)
}

// ExitModeWithError pops the active mode while cause is propagating. The
// handler's cleanup phase receives cause from Suspend and rules on it: nil
// suppresses, the same error passes through, a different one replaces it.
func (e *Engine) ExitModeWithError(cause error) (ExitBehavior, error) {
	e.gate.Lock()
	defer e.gate.Unlock()
	return e.exitLocked(cause)
}

// ExitAll unwinds the entire stack from innermost to outermost, threading the
// propagating error through each handler's cleanup. It returns whatever error
// survives the unwinding.
func (e *Engine) ExitAll(cause error) error {
	e.gate.Lock()
	defer e.gate.Unlock()
	for e.stk.depth() > 0 {
		_, err := e.exitLocked(cause)
		cause = err
	}
	return cause
}

// WithMode enters the named mode, runs fn, and exits the mode again no matter
// how fn fared. The error fn returns is handed to the mode's cleanup phase,
// which may suppress or replace it.
func (e *Engine) WithMode(name string, params map[string]any, fn func() error) error {
	if err := e.EnterMode(name, params); err != nil {
		return err
	}
	fnErr := fn()
	_, exitErr := e.ExitModeWithError(fnErr)
	return exitErr
}

// Schedule records a transition to be applied by the execution loop. At most
// one transition is pending; a later one replaces an earlier one.
func (e *Engine) Schedule(t Transition) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending != nil {
		e.logger.Warn("replacing pending mode transition",
			"old", e.pending.Kind.String(), "old_target", e.pending.Target,
			"new", t.Kind.String(), "new_target", t.Target)
	}
	e.pending = &t
}

// Scheduled returns the pending transition without consuming it.
func (e *Engine) Scheduled() (Transition, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.pending == nil {
		return Transition{}, false
	}
	return *e.pending, true
}

// ApplyScheduled consumes and applies the pending transition, if any. A
// switch or exit with an empty stack degrades to a descriptive no-op rather
// than an error: the request may have raced with the mode ending on its own.
func (e *Engine) ApplyScheduled() (*Applied, error) {
	e.gate.Lock()
	defer e.gate.Unlock()

	e.mu.Lock()
	if e.pending == nil {
		e.mu.Unlock()
		return nil, nil
	}
	t := *e.pending
	e.pending = nil
	e.mu.Unlock()

	applied := &Applied{Transition: t}
	switch t.Kind {
	case TransitionSwitch:
		if ent := e.stk.current(); ent != nil {
			applied.Exited = ent.info.Name
			behavior, err := e.exitLocked(nil)
			applied.Behavior = behavior
			if err != nil {
				return applied, err
			}
		}
		if err := e.enterLocked(t.Target, t.Params); err != nil {
			return applied, err
		}
		applied.Entered = t.Target
	case TransitionPush:
		if err := e.enterLocked(t.Target, t.Params); err != nil {
			return applied, err
		}
		applied.Entered = t.Target
	case TransitionExit:
		ent := e.stk.current()
		if ent == nil {
			applied.Note = "no mode is active; nothing to exit"
			return applied, nil
		}
		applied.Exited = ent.info.Name
		behavior, err := e.exitLocked(nil)
		applied.Behavior = behavior
		if err != nil {
			return applied, err
		}
	case TransitionStay:
		applied.Note = "stay requested; no change"
	}
	return applied, nil
}

// enterLocked performs the entry sequence with the gate held: validate,
// snapshot (prompt then isolation), push, run setup, emit.
func (e *Engine) enterLocked(name string, params map[string]any) error {
	info, err := e.registry.Get(name)
	if err != nil {
		return err
	}

	if parent := e.stk.current(); parent != nil {
		if info.Isolation < parent.info.Isolation {
			return &IsolationViolationError{
				Parent:          parent.info.Name,
				Child:           name,
				ParentIsolation: parent.info.Isolation,
				ChildIsolation:  info.Isolation,
			}
		}
	}

	state := make(map[string]any, len(params))
	for k, v := range params {
		state[k] = v
	}

	ent := &entry{
		info:      info,
		enteredAt: time.Now(),
		state:     state,
		prompt:    e.overlay.Snapshot(),
		isolation: captureIsolation(e.state, info.Isolation),
	}

	e.mu.Lock()
	e.stk.push(ent)
	e.mu.Unlock()

	if info.Handler != nil {
		gen := newGenerator(name)
		c := &Context{engine: e, entry: ent, gen: gen}
		ev := gen.start(info.Handler, c)
		if ev.suspended {
			ent.gen = gen
		} else if ev.err != nil {
			// Setup failed. The entry comes back off the stack and its
			// snapshots are restored, so a failed entry leaves no trace.
			e.overlay.Restore(ent.prompt)
			ent.isolation.restore(e.state, e.logger)
			e.mu.Lock()
			if _, perr := e.stk.pop(); perr != nil {
				e.logger.Error("mode stack corrupted during failed entry", "mode", name, "error", perr)
			}
			e.mu.Unlock()
			return ev.err
		}
		// A handler that returned nil without suspending simply has no
		// cleanup phase; ent.gen stays nil.
	}

	e.logger.Debug("entered mode", "mode", name, "isolation", info.Isolation.String(), "depth", e.stk.depth())
	e.emit(Event{Kind: EventEntered, Mode: name})
	return nil
}

// exitLocked performs the exit sequence with the gate held: resume cleanup,
// rule on the propagating error, resolve the exit behavior, then — always,
// even when cleanup misbehaved — restore prompt and isolation, pop and emit.
func (e *Engine) exitLocked(cause error) (ExitBehavior, error) {
	e.mu.RLock()
	ent := e.stk.current()
	e.mu.RUnlock()
	if ent == nil {
		return ExitStop, &EmptyStackError{}
	}

	behavior := ent.info.ExitBehavior
	var exitErr error

	defer func() {
		// Restoration mirrors capture in reverse and is unconditional.
		e.overlay.Restore(ent.prompt)
		ent.isolation.restore(e.state, e.logger)
		e.mu.Lock()
		if _, perr := e.stk.pop(); perr != nil {
			e.logger.Error("mode stack corrupted during exit", "mode", ent.info.Name, "error", perr)
		}
		e.mu.Unlock()
		e.logger.Debug("exited mode", "mode", ent.info.Name, "behavior", behavior.String(), "err", exitErr)
		e.emit(Event{Kind: EventExited, Mode: ent.info.Name, Behavior: behavior, Err: exitErr})
	}()

	if ent.gen != nil {
		ev := ent.gen.resumeWith(cause)
		switch {
		case ev.suspended:
			// Unreachable in practice: a second suspension is converted to a
			// terminal MultipleYieldError inside the generator.
			exitErr = &MultipleYieldError{Mode: ent.info.Name}
		case ev.err != nil:
			if cause != nil && ev.panicked {
				// An accident during unwinding (panic or second suspension)
				// must not displace the error already propagating; surface
				// it as secondary instead.
				e.logger.Warn("secondary error during mode cleanup", "mode", ent.info.Name, "error", ev.err)
				e.emit(Event{Kind: EventCleanupError, Mode: ent.info.Name, Err: ev.err})
				exitErr = cause
			} else {
				// A returned error is the handler's deliberate verdict:
				// pass-through or transform.
				exitErr = ev.err
			}
		default:
			// Normal completion, or the handler suppressed the injected
			// error. Nothing propagates further.
			exitErr = nil
		}
	} else {
		exitErr = cause
	}

	// A handler may override its registered default for this one exit.
	e.mu.RLock()
	if v, ok := ent.state[exitBehaviorKey]; ok {
		if b, ok := v.(ExitBehavior); ok {
			behavior = b
		}
	}
	e.mu.RUnlock()

	return behavior, exitErr
}

func (e *Engine) emit(ev Event) {
	e.mu.RLock()
	listeners := e.listeners
	e.mu.RUnlock()
	for _, l := range listeners {
		l(ev)
	}
}
