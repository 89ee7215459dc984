package llm

import (
	"context"
	"fmt"

	"github.com/k3vq/facet/session"
	"github.com/k3vq/facet/tools"
)

// DefaultMaxTokens is used when Options.MaxTokens is zero.
const DefaultMaxTokens = 4096

// Options carries the per-call model configuration. The agent owns a mutable
// Options value; behavior modes may override its fields, and those overrides
// revert when the mode exits.
type Options struct {
	Model        string
	MaxTokens    int64
	SystemPrompt string
}

func (o Options) maxTokens() int64 {
	if o.MaxTokens <= 0 {
		return DefaultMaxTokens
	}
	return o.MaxTokens
}

// LLMClient is the interface for interacting with a Large Language Model.
type LLMClient interface {
	Chat(ctx context.Context, messages []session.Message, availableTools []tools.Tool, opts Options) (*session.Message, error)
}

// MockLLMClient is a scripted test double. Each call to Chat consumes the
// next entry of Responses; once exhausted it parrots the last user message.
// The arguments of every call are recorded for assertions.
type MockLLMClient struct {
	Responses []*session.Message

	Calls       int
	SeenOptions []Options
	SeenTools   [][]string
}

func (m *MockLLMClient) Chat(ctx context.Context, messages []session.Message, availableTools []tools.Tool, opts Options) (*session.Message, error) {
	m.Calls++
	m.SeenOptions = append(m.SeenOptions, opts)
	var toolNames []string
	for _, tool := range availableTools {
		toolNames = append(toolNames, tool.Name())
	}
	m.SeenTools = append(m.SeenTools, toolNames)

	if m.Calls <= len(m.Responses) {
		return m.Responses[m.Calls-1], nil
	}

	last := ""
	if len(messages) > 0 {
		last = messages[len(messages)-1].Content
	}
	return &session.Message{
		Role:    "assistant",
		Content: fmt.Sprintf("I am a mock LLM. You said: '%s'.", last),
	}, nil
}
