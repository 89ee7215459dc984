package mode

import (
	"log/slog"

	"github.com/k3vq/facet/llm"
	"github.com/k3vq/facet/session"
	"github.com/k3vq/facet/tools"
)

// AgentState bundles the shared mutable state that isolation levels protect:
// the conversation, the tool registry and the model call options. The engine
// holds one AgentState for the lifetime of the agent; modes mutate it through
// their Context.
type AgentState struct {
	Session *session.Session
	Tools   *tools.ToolRegistry
	Model   *llm.Options
}

// isolationSnapshot captures as much of the agent state as the mode's
// isolation level demands. Restoration is graduated the same way: each level
// reverts exactly what it captured.
type isolationSnapshot struct {
	level    IsolationLevel
	model    llm.Options
	toolSnap tools.Snapshot
	hasTools bool
	marker   int64
	messages []session.Message
}

// captureIsolation takes the entry-time snapshot for the given level.
func captureIsolation(st *AgentState, level IsolationLevel) *isolationSnapshot {
	snap := &isolationSnapshot{level: level}
	if level >= IsolationConfig {
		if st.Model != nil {
			snap.model = *st.Model
		}
		if st.Tools != nil {
			snap.toolSnap = st.Tools.Snapshot()
			snap.hasTools = true
		}
	}
	switch level {
	case IsolationThread:
		// Thread isolation remembers where the conversation stood so that
		// messages added inside the mode can be told apart and retained.
		if st.Session != nil {
			snap.marker = st.Session.Marker()
			snap.messages = st.Session.Clone()
		}
	case IsolationFork:
		if st.Session != nil {
			snap.messages = st.Session.Clone()
		}
	}
	return snap
}

// restore reverts the agent state to the snapshot according to its level.
// Thread restore keeps messages stamped after the entry marker; fork restore
// discards everything the mode did to the conversation.
func (s *isolationSnapshot) restore(st *AgentState, logger *slog.Logger) {
	if s == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}

	switch s.level {
	case IsolationThread:
		if st.Session != nil {
			kept := st.Session.MessagesSince(s.marker)
			st.Session.Replace(append(append([]session.Message(nil), s.messages...), kept...))
		} else {
			logger.Warn("thread isolation restore skipped: no session")
		}
	case IsolationFork:
		if st.Session != nil {
			st.Session.Replace(append([]session.Message(nil), s.messages...))
		} else {
			logger.Warn("fork isolation restore skipped: no session")
		}
	}

	if s.level >= IsolationConfig {
		if st.Model != nil {
			*st.Model = s.model
		} else {
			logger.Warn("config isolation restore skipped model options: none attached")
		}
		if s.hasTools {
			if st.Tools != nil {
				st.Tools.Restore(s.toolSnap, logger)
			} else {
				logger.Warn("config isolation restore skipped tools: no registry")
			}
		}
	}
}
