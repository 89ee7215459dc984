package mode

import (
	"time"

	"github.com/k3vq/facet/llm"
	"github.com/k3vq/facet/session"
	"github.com/k3vq/facet/tools"
)

// Context is the handle a handler receives. It exposes the shared agent
// state, the prompt overlay, per-mode state, and the suspension point that
// splits the handler into its setup and cleanup phases.
//
// A handler must not enter or exit modes synchronously through its Context;
// it requests changes with Switch, Push and Exit, which schedule a transition
// for the execution loop to apply.
type Context struct {
	engine *Engine
	entry  *entry
	gen    *activeGenerator
}

// Suspend parks the handler until its mode exits. Everything before Suspend
// is the setup phase; everything after is the cleanup phase.
//
// The return value is the error propagating through the exit, or nil on a
// normal exit. The handler's own return value then decides that error's fate:
// nil suppresses it, the same error passes it through, a different error
// replaces it. Suspend may be called at most once per activation; a second
// call aborts the handler with a MultipleYieldError (deferred cleanup still
// runs).
func (c *Context) Suspend() error {
	return c.gen.suspendPoint()
}

// Mode returns the name of the mode this handler belongs to.
func (c *Context) Mode() string {
	return c.entry.info.Name
}

// Active returns the name of the innermost active mode, which during setup
// and cleanup is the handler's own.
func (c *Context) Active() string {
	return c.engine.Name()
}

// Stack returns the active mode names from outermost to innermost.
func (c *Context) Stack() []string {
	return c.engine.StackNames()
}

// InMode reports whether the named mode is anywhere on the stack.
func (c *Context) InMode(name string) bool {
	return c.engine.InMode(name)
}

// Duration returns how long this mode has been active.
func (c *Context) Duration() time.Duration {
	return time.Since(c.entry.enteredAt)
}

// Value looks a state key up from the innermost mode outwards. Entry params
// are seeded into the mode's state map, so handlers read them through Value.
func (c *Context) Value(key string) (any, bool) {
	return c.engine.Value(key)
}

// Set writes a key into the active mode's state map. The value dies with the
// mode.
func (c *Context) Set(key string, v any) {
	c.engine.setValue(key, v)
}

// SetExitBehavior overrides the mode's registered exit behavior for this
// activation only. Typically called from the cleanup phase.
func (c *Context) SetExitBehavior(b ExitBehavior) {
	c.engine.setValue(exitBehaviorKey, b)
}

// Switch schedules replacing the current mode with target.
func (c *Context) Switch(target string, params map[string]any) {
	c.engine.Schedule(Switch(target, params))
}

// Push schedules nesting target inside the current mode.
func (c *Context) Push(target string, params map[string]any) {
	c.engine.Schedule(Push(target, params))
}

// Exit schedules leaving the current mode.
func (c *Context) Exit() {
	c.engine.Schedule(Exit())
}

// Session returns the shared conversation.
func (c *Context) Session() *session.Session {
	return c.engine.state.Session
}

// Tools returns the shared tool registry.
func (c *Context) Tools() *tools.ToolRegistry {
	return c.engine.state.Tools
}

// Model returns the shared model call options. Changes made here are what
// config-level isolation captures and reverts.
func (c *Context) Model() *llm.Options {
	return c.engine.state.Model
}

// Prompt returns the prompt overlay. Changes made during setup revert on
// exit unless added with persist set.
func (c *Context) Prompt() *Overlay {
	return c.engine.overlay
}
