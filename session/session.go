package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ToolCall describes a single tool invocation requested by the model.
type ToolCall struct {
	ToolCallID string                 `json:"tool_call_id"`
	Name       string                 `json:"name"`
	Args       map[string]interface{} `json:"args,omitempty"`
}

// Message is one entry in the conversation history.
//
// Seq is a per-session monotonic counter stamped by AddMessage. It lets
// callers ask "which messages arrived after marker M" even when earlier
// messages have been hidden or truncated in the meantime.
type Message struct {
	Role      string     `json:"role"` // "user", "assistant", "tool" or "system"
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	Seq       int64      `json:"seq,omitempty"`
}

// clone returns a deep copy of the message, including tool-call argument maps.
func (m Message) clone() Message {
	out := m
	if len(m.ToolCalls) > 0 {
		out.ToolCalls = make([]ToolCall, len(m.ToolCalls))
		for i, tc := range m.ToolCalls {
			cp := tc
			if tc.Args != nil {
				cp.Args = make(map[string]interface{}, len(tc.Args))
				for k, v := range tc.Args {
					cp.Args[k] = v
				}
			}
			out.ToolCalls[i] = cp
		}
	}
	return out
}

// Session holds a named conversation and its persistence location.
type Session struct {
	Name          string    `json:"name"`
	Messages      []Message `json:"messages"`
	Toolset       string    `json:"toolset,omitempty"`
	RunMode       string    `json:"run_mode,omitempty"`
	ToolVerbosity string    `json:"tool_verbosity,omitempty"`

	nextSeq int64
	path    string
}

// New creates a new session.
func New(name string) (*Session, error) {
	path, err := getSessionPath(name)
	if err != nil {
		return nil, err
	}
	return &Session{
		Name:     name,
		Messages: []Message{},
		path:     path,
	}, nil
}

// Load loads an existing session from disk.
func Load(name string) (*Session, error) {
	path, err := getSessionPath(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read session file %s: %w", path, err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("could not parse session file %s: %w", path, err)
	}
	s.path = path
	for _, m := range s.Messages {
		if m.Seq > s.nextSeq {
			s.nextSeq = m.Seq
		}
	}
	return &s, nil
}

// Save writes the current session state to disk.
func (s *Session) Save() error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize session: %w", err)
	}
	return os.WriteFile(s.path, data, 0644)
}

// AddMessage appends a message to the session history and stamps its
// sequence number.
func (s *Session) AddMessage(msg Message) {
	s.nextSeq++
	msg.Seq = s.nextSeq
	s.Messages = append(s.Messages, msg)
}

// Len reports the number of messages currently visible in the history.
func (s *Session) Len() int {
	return len(s.Messages)
}

// Marker returns the sequence number of the most recently added message.
// Messages added later compare strictly greater.
func (s *Session) Marker() int64 {
	return s.nextSeq
}

// Clone returns a deep copy of the visible history.
func (s *Session) Clone() []Message {
	out := make([]Message, len(s.Messages))
	for i, m := range s.Messages {
		out[i] = m.clone()
	}
	return out
}

// MessagesSince returns deep copies of every visible message added after the
// given marker, in order.
func (s *Session) MessagesSince(marker int64) []Message {
	var out []Message
	for _, m := range s.Messages {
		if m.Seq > marker {
			out = append(out, m.clone())
		}
	}
	return out
}

// Replace swaps the visible history for the given messages. Sequence stamps
// on the replacement messages are preserved; the internal counter never moves
// backwards, so markers taken earlier stay valid.
func (s *Session) Replace(msgs []Message) {
	s.Messages = msgs
	for _, m := range msgs {
		if m.Seq > s.nextSeq {
			s.nextSeq = m.Seq
		}
	}
}

// Pending reports whether the conversation still expects a model response:
// the history is non-empty and ends in a user message or a tool result that
// no assistant turn has consumed yet.
func (s *Session) Pending() bool {
	if len(s.Messages) == 0 {
		return false
	}
	switch s.Messages[len(s.Messages)-1].Role {
	case "user", "tool":
		return true
	}
	return false
}

func getSessionPath(name string) (string, error) {
	sessionDir := filepath.Join(".facet", "sessions")
	if err := os.MkdirAll(sessionDir, 0755); err != nil {
		return "", fmt.Errorf("could not create session directory: %w", err)
	}
	return filepath.Join(sessionDir, fmt.Sprintf("%s.json", name)), nil
}
