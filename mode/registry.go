package mode

import (
	"sort"
	"sync"
)

// Registry holds the known modes by name. Registration typically happens at
// startup, but the registry is safe for concurrent use so modes may also be
// added while the agent is running.
type Registry struct {
	mu    sync.RWMutex
	modes map[string]Info
}

// NewRegistry creates an empty mode registry.
func NewRegistry() *Registry {
	return &Registry{modes: make(map[string]Info)}
}

// Register adds a mode under its name. Registering a name twice is an error;
// use Replace to overwrite deliberately.
func (r *Registry) Register(info Info) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.modes[info.Name]; ok {
		return &DuplicateModeError{Name: info.Name}
	}
	r.modes[info.Name] = info
	return nil
}

// Replace adds a mode under its name, overwriting any existing registration.
func (r *Registry) Replace(info Info) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modes[info.Name] = info
}

// Get looks up a mode by name.
func (r *Registry) Get(name string) (Info, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.modes[name]
	if !ok {
		return Info{}, &UnknownModeError{Name: name}
	}
	return info, nil
}

// Names returns the registered mode names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.modes))
	for name := range r.modes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invocable returns the sorted names of modes the model may enter by tool
// call.
func (r *Registry) Invocable() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var names []string
	for name, info := range r.modes {
		if info.Invocable {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
