package mode

import (
	"strings"
	"sync"
)

// overlayEntry is a single prompt fragment. Entries added with persist set
// survive the snapshot restore that ends the mode which added them; the flag
// is cleared in the process so they behave as ordinary entries afterwards.
type overlayEntry struct {
	text    string
	persist bool
}

// Overlay composes the effective system prompt from a base prompt plus
// ordered prepends, appends and named sections. Modes mutate the overlay on
// entry; the engine snapshots it first and restores the snapshot on exit.
type Overlay struct {
	mu       sync.Mutex
	base     string
	prepends []overlayEntry
	appends  []overlayEntry
	names    []string // section insertion order, for deterministic rendering
	sections map[string]overlayEntry
}

// NewOverlay creates an overlay around the given base prompt.
func NewOverlay(base string) *Overlay {
	return &Overlay{
		base:     base,
		sections: make(map[string]overlayEntry),
	}
}

// SetBase replaces the base prompt.
func (o *Overlay) SetBase(base string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.base = base
}

// Prepend adds text before the base prompt. Prepends render in the order they
// were added.
func (o *Overlay) Prepend(text string, persist bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.prepends = append(o.prepends, overlayEntry{text: text, persist: persist})
}

// Append adds text after the base prompt.
func (o *Overlay) Append(text string, persist bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.appends = append(o.appends, overlayEntry{text: text, persist: persist})
}

// SetSection sets a named section, replacing any previous content under the
// same name. Sections render after the appends, each under a heading.
func (o *Overlay) SetSection(name, text string, persist bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.setSectionLocked(name, text, persist)
}

func (o *Overlay) setSectionLocked(name, text string, persist bool) {
	if _, ok := o.sections[name]; !ok {
		o.names = append(o.names, name)
	}
	o.sections[name] = overlayEntry{text: text, persist: persist}
}

// RemoveSection deletes a named section. Removing an absent section is a
// no-op.
func (o *Overlay) RemoveSection(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.sections[name]; !ok {
		return
	}
	delete(o.sections, name)
	for i, n := range o.names {
		if n == name {
			o.names = append(o.names[:i], o.names[i+1:]...)
			break
		}
	}
}

// Render produces the effective system prompt: prepends, base, appends, then
// the named sections in insertion order.
func (o *Overlay) Render() string {
	o.mu.Lock()
	defer o.mu.Unlock()

	var parts []string
	for _, e := range o.prepends {
		parts = append(parts, e.text)
	}
	if o.base != "" {
		parts = append(parts, o.base)
	}
	for _, e := range o.appends {
		parts = append(parts, e.text)
	}
	for _, name := range o.names {
		parts = append(parts, "## "+name+"\n\n"+o.sections[name].text)
	}
	return strings.Join(parts, "\n\n")
}

// PromptSnapshot is a point-in-time copy of an overlay's contents. A snapshot
// restores at most once: after the first Restore consumes it, further calls
// are no-ops, so restoring twice leaves the same state as restoring once.
type PromptSnapshot struct {
	base     string
	prepends []overlayEntry
	appends  []overlayEntry
	names    []string
	sections map[string]overlayEntry
	applied  bool
}

// Snapshot captures the overlay's current contents.
func (o *Overlay) Snapshot() *PromptSnapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	snap := &PromptSnapshot{
		base:     o.base,
		prepends: copyEntries(o.prepends),
		appends:  copyEntries(o.appends),
		names:    append([]string(nil), o.names...),
		sections: make(map[string]overlayEntry, len(o.sections)),
	}
	for name, e := range o.sections {
		snap.sections[name] = e
	}
	return snap
}

// Restore resets the overlay to the snapshot, except that entries added since
// the snapshot with persist set are carried over into the restored state with
// the flag cleared. Restoring a nil or already-consumed snapshot does nothing.
func (o *Overlay) Restore(snap *PromptSnapshot) {
	if snap == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if snap.applied {
		return
	}
	snap.applied = true

	var keepPrepends, keepAppends []overlayEntry
	if len(o.prepends) > len(snap.prepends) {
		for _, e := range o.prepends[len(snap.prepends):] {
			if e.persist {
				keepPrepends = append(keepPrepends, overlayEntry{text: e.text})
			}
		}
	}
	if len(o.appends) > len(snap.appends) {
		for _, e := range o.appends[len(snap.appends):] {
			if e.persist {
				keepAppends = append(keepAppends, overlayEntry{text: e.text})
			}
		}
	}
	type keptSection struct {
		name string
		text string
	}
	var keepSections []keptSection
	for _, name := range o.names {
		cur := o.sections[name]
		if !cur.persist {
			continue
		}
		if old, ok := snap.sections[name]; ok && old == cur {
			continue
		}
		keepSections = append(keepSections, keptSection{name: name, text: cur.text})
	}

	o.base = snap.base
	o.prepends = copyEntries(snap.prepends)
	o.appends = copyEntries(snap.appends)
	o.names = append([]string(nil), snap.names...)
	o.sections = make(map[string]overlayEntry, len(snap.sections))
	for name, e := range snap.sections {
		o.sections[name] = e
	}

	o.prepends = append(o.prepends, keepPrepends...)
	o.appends = append(o.appends, keepAppends...)
	for _, ks := range keepSections {
		o.setSectionLocked(ks.name, ks.text, false)
	}
}

func copyEntries(entries []overlayEntry) []overlayEntry {
	if entries == nil {
		return nil
	}
	return append([]overlayEntry(nil), entries...)
}
