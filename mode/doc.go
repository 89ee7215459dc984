// Package mode implements stackable behavior modes for the Facet agent.
//
// A behavior mode is a temporary reconfiguration of the agent: a different
// system prompt, a different tool set, different model options, or any
// combination. Modes nest on a LIFO stack; entering a mode captures
// snapshots of whatever its isolation level protects, and exiting restores
// them, so a mode can change the agent freely and still leave no trace.
//
// # Handlers
//
// Every mode is driven by a Handler, a single function split in two by its
// one permitted Context.Suspend call:
//
//	func research(c *mode.Context) error {
//	    c.Prompt().Append("Focus on gathering sources.", false)
//	    c.Tools().Unregister("write_file")
//
//	    err := c.Suspend() // parked here while the mode is active
//
//	    // cleanup phase; err is non-nil if an error is propagating
//	    return err
//	}
//
// The code before Suspend is the setup phase, run during mode entry. The
// code after is the cleanup phase, run during exit. A handler that returns
// without suspending runs entirely at entry and has no cleanup phase.
//
// When the mode exits because an error is propagating, Suspend returns that
// error and the handler rules on it: returning nil suppresses it, returning
// it unchanged passes it through, returning a different error replaces it.
// Suspending a second time aborts the handler with a MultipleYieldError.
//
// # Isolation
//
// Isolation levels form a ladder; each level captures strictly more state:
//
//   - IsolationNone: nothing is captured or restored
//   - IsolationConfig: model options and tool registrations revert on exit
//   - IsolationThread: additionally, changes to pre-existing conversation
//     messages revert, while messages added inside the mode are retained
//   - IsolationFork: the whole conversation reverts; nothing the mode did
//     to it survives
//
// A nested mode must request isolation at least as high as its parent's;
// violations are rejected at entry.
//
// # Prompt overlay
//
// The Overlay composes the effective system prompt from a base prompt plus
// prepends, appends and named sections. Mode entry snapshots the overlay and
// exit restores it, except for entries added with persist set, which survive
// into the restored state exactly once.
//
// # Transitions and the execution loop
//
// Handlers and tools never mutate the stack synchronously. They schedule a
// Transition (switch, push or exit) on the Engine; the agent's execution
// loop drains at most one scheduled transition at the start of each
// iteration. When a mode exits, its ExitBehavior tells the loop whether to
// issue another model call (ExitContinue), return control (ExitStop), or
// decide from whether the conversation still expects a response (ExitAuto).
package mode
