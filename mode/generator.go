package mode

import (
	"time"

	"github.com/k3vq/facet/errors"
)

// genEvent is a message from the handler goroutine back to the driver. Either
// the handler suspended (suspended is true) or it finished with err as its
// return value. panicked marks errors recovered from a panic, which the
// engine treats as accidents rather than deliberate verdicts.
type genEvent struct {
	suspended bool
	err       error
	panicked  bool
}

// secondSuspendPanic aborts a handler that suspends more than once. Panicking
// instead of returning lets the handler's own deferred cleanup run on the way
// out, exactly as it would for any other abort.
type secondSuspendPanic struct {
	mode string
}

// activeGenerator runs a suspendable handler on its own goroutine and gives
// the engine rendezvous control over the single permitted suspension point.
// Both channels are unbuffered, so the handler is always parked while the
// engine holds control and vice versa; the two sides never run concurrently.
type activeGenerator struct {
	modeName  string
	startedAt time.Time
	resume    chan error    // engine -> handler: value Suspend returns
	events    chan genEvent // handler -> engine: suspension or completion
	yielded   bool          // set by the handler goroutine at its first Suspend
	finished  bool          // set by the engine once a terminal event arrives
}

func newGenerator(name string) *activeGenerator {
	return &activeGenerator{
		modeName:  name,
		startedAt: time.Now(),
		resume:    make(chan error),
		events:    make(chan genEvent),
	}
}

// start launches the handler and blocks until it suspends or finishes. A
// panicking handler is converted to an error rather than taking down the
// process; the second-suspend sentinel becomes a MultipleYieldError.
func (g *activeGenerator) start(h Handler, c *Context) genEvent {
	go func() {
		ev := genEvent{}
		defer func() {
			if r := recover(); r != nil {
				if p, ok := r.(secondSuspendPanic); ok {
					ev = genEvent{err: &MultipleYieldError{Mode: p.mode}, panicked: true}
				} else {
					ev = genEvent{err: errors.New("mode '%s' handler panicked: %v", g.modeName, r), panicked: true}
				}
			}
			g.events <- ev
		}()
		ev = genEvent{err: h(c)}
	}()
	ev := <-g.events
	g.finished = !ev.suspended
	return ev
}

// resumeWith wakes the suspended handler, handing injected (possibly nil) to
// it as Suspend's return value, and blocks until the handler finishes.
func (g *activeGenerator) resumeWith(injected error) genEvent {
	if g.finished {
		return genEvent{}
	}
	g.resume <- injected
	ev := <-g.events
	g.finished = !ev.suspended
	return ev
}

// suspendPoint parks the handler goroutine until the engine resumes it. Only
// one suspension is allowed per activation; a second call aborts the handler.
func (g *activeGenerator) suspendPoint() error {
	if g.yielded {
		panic(secondSuspendPanic{mode: g.modeName})
	}
	g.yielded = true
	g.events <- genEvent{suspended: true}
	return <-g.resume
}
