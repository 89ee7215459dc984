package mode

import "fmt"

// UnknownModeError reports an entry or transition that names a mode which was
// never registered.
type UnknownModeError struct {
	Name string
}

func (e *UnknownModeError) Error() string {
	return fmt.Sprintf("unknown mode '%s'", e.Name)
}

// DuplicateModeError reports a second registration under an existing name.
type DuplicateModeError struct {
	Name string
}

func (e *DuplicateModeError) Error() string {
	return fmt.Sprintf("mode '%s' is already registered", e.Name)
}

// IsolationViolationError reports an attempt to nest a mode whose isolation
// level is lower than its parent's.
type IsolationViolationError struct {
	Parent          string
	Child           string
	ParentIsolation IsolationLevel
	ChildIsolation  IsolationLevel
}

func (e *IsolationViolationError) Error() string {
	return fmt.Sprintf("cannot nest mode '%s' (isolation %s) inside '%s' (isolation %s): nested isolation must not be lower",
		e.Child, e.ChildIsolation, e.Parent, e.ParentIsolation)
}

// MultipleYieldError reports a handler that suspended more than once. The
// handler is aborted at the second suspension; its deferred cleanup still
// runs.
type MultipleYieldError struct {
	Mode string
}

func (e *MultipleYieldError) Error() string {
	return fmt.Sprintf("handler for mode '%s' suspended more than once", e.Mode)
}

// EmptyStackError reports an exit request made while no mode is active.
type EmptyStackError struct{}

func (e *EmptyStackError) Error() string {
	return "no mode is active"
}
