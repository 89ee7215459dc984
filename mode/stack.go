package mode

import "time"

// entry is one live activation on the mode stack. It owns the per-activation
// state map and the snapshots taken on entry; both die with the entry.
type entry struct {
	info      Info
	enteredAt time.Time
	state     map[string]any
	isolation *isolationSnapshot
	prompt    *PromptSnapshot
	gen       *activeGenerator // nil when the handler ran to completion during entry
}

// stack is the LIFO of active modes. It is not safe for concurrent use; the
// engine guards it.
type stack struct {
	entries []*entry
}

// push adds an entry on top.
func (s *stack) push(e *entry) {
	s.entries = append(s.entries, e)
}

// pop removes and returns the top entry.
func (s *stack) pop() (*entry, error) {
	if len(s.entries) == 0 {
		return nil, &EmptyStackError{}
	}
	top := s.entries[len(s.entries)-1]
	s.entries[len(s.entries)-1] = nil
	s.entries = s.entries[:len(s.entries)-1]
	return top, nil
}

// current returns the top entry, or nil when the stack is empty.
func (s *stack) current() *entry {
	if len(s.entries) == 0 {
		return nil
	}
	return s.entries[len(s.entries)-1]
}

// depth returns the number of active modes.
func (s *stack) depth() int {
	return len(s.entries)
}

// names returns the active mode names from bottom to top.
func (s *stack) names() []string {
	names := make([]string, len(s.entries))
	for i, e := range s.entries {
		names[i] = e.info.Name
	}
	return names
}

// contains reports whether a mode with the given name is anywhere on the
// stack.
func (s *stack) contains(name string) bool {
	for _, e := range s.entries {
		if e.info.Name == name {
			return true
		}
	}
	return false
}

// value looks key up in the per-mode state maps from top to bottom, so an
// inner mode shadows its ancestors.
func (s *stack) value(key string) (any, bool) {
	for i := len(s.entries) - 1; i >= 0; i-- {
		if v, ok := s.entries[i].state[key]; ok {
			return v, true
		}
	}
	return nil, false
}
