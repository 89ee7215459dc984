package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/k3vq/facet/config"
	"github.com/k3vq/facet/llm"
	"github.com/k3vq/facet/mode"
	"github.com/k3vq/facet/session"
)

// createTestConfig declares a default toolset and two behavior modes: an
// invocable research mode that prepends prompt text, and a writing mode that
// stops the loop when it exits.
func createTestConfig() *config.Config {
	return &config.Config{
		Model:        "base-model",
		SystemPrompt: "You are a helpful assistant.",
		Toolsets: []config.Toolset{
			{Name: "default", Tools: []string{}},
		},
		Modes: []config.ModePreset{
			{
				Name:      "research",
				Prepend:   "Focus on gathering sources.",
				Invocable: true,
			},
			{
				Name:         "writing",
				Append:       "Write polished prose.",
				ExitBehavior: "stop",
				Invocable:    true,
			},
		},
	}
}

func newTestAgent(t *testing.T, mock *llm.MockLLMClient) *Agent {
	t.Helper()
	t.Chdir(t.TempDir())

	sess, err := session.New("agent-test")
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	a, err := New(createTestConfig(), sess, "default", RunAuto, mock, ToolVerbosityNone)
	if err != nil {
		t.Fatalf("failed to create agent: %v", err)
	}
	t.Cleanup(a.Close)
	return a
}

func toolCallResponse(name string, args map[string]interface{}) *session.Message {
	return &session.Message{
		Role: "assistant",
		ToolCalls: []session.ToolCall{
			{ToolCallID: "call_" + name, Name: name, Args: args},
		},
	}
}

func textResponse(text string) *session.Message {
	return &session.Message{Role: "assistant", Content: text}
}

func TestAgentExposesModeTools(t *testing.T) {
	a := newTestAgent(t, &llm.MockLLMClient{})

	for _, want := range []string{"enter_mode_research", "enter_mode_writing", "exit_mode"} {
		if _, ok := a.Tools.GetTool(want); !ok {
			t.Errorf("tool %q should be registered", want)
		}
	}
}

func TestAgentSimpleTurn(t *testing.T) {
	mock := &llm.MockLLMClient{Responses: []*session.Message{
		textResponse("hello there"),
	}}
	a := newTestAgent(t, mock)

	var said []string
	err := a.ProcessUserInput(context.Background(), "hi", ProcessCallbacks{
		OnAssistantMessage: func(m string) { said = append(said, m) },
	})
	if err != nil {
		t.Fatalf("ProcessUserInput failed: %v", err)
	}
	if len(said) != 1 || said[0] != "hello there" {
		t.Errorf("assistant messages = %v, want [hello there]", said)
	}
	if mock.Calls != 1 {
		t.Errorf("LLM calls = %d, want 1", mock.Calls)
	}
	if got := mock.SeenOptions[0].SystemPrompt; got != "You are a helpful assistant." {
		t.Errorf("system prompt = %q, want the configured base", got)
	}
}

func TestAgentEntersModeViaTool(t *testing.T) {
	mock := &llm.MockLLMClient{Responses: []*session.Message{
		toolCallResponse("enter_mode_research", nil),
		textResponse("now researching"),
	}}
	a := newTestAgent(t, mock)

	var events []string
	err := a.ProcessUserInput(context.Background(), "look into btrees", ProcessCallbacks{
		OnModeEvent: func(ev mode.Event) {
			events = append(events, ev.Kind.String()+":"+ev.Mode)
		},
	})
	if err != nil {
		t.Fatalf("ProcessUserInput failed: %v", err)
	}

	if got := a.Engine.Name(); got != "research" {
		t.Errorf("active mode = %q, want research", got)
	}
	if len(events) != 1 || events[0] != "entered:research" {
		t.Errorf("events = %v, want [entered:research]", events)
	}
	// The transition applied before the second model call, so the research
	// prompt overlay must be visible to it.
	if mock.Calls != 2 {
		t.Fatalf("LLM calls = %d, want 2", mock.Calls)
	}
	if !strings.Contains(mock.SeenOptions[1].SystemPrompt, "Focus on gathering sources.") {
		t.Errorf("second call system prompt = %q, want the research prepend applied", mock.SeenOptions[1].SystemPrompt)
	}
	if strings.Contains(mock.SeenOptions[0].SystemPrompt, "Focus on gathering sources.") {
		t.Error("first call saw the research prepend before the mode was entered")
	}
}

func TestAgentSwitchEmitsExitThenEnter(t *testing.T) {
	mock := &llm.MockLLMClient{Responses: []*session.Message{
		toolCallResponse("enter_mode_research", nil),
		textResponse("researching"),
		toolCallResponse("enter_mode_writing", nil),
		textResponse("writing now"),
	}}
	a := newTestAgent(t, mock)

	ctx := context.Background()
	if err := a.ProcessUserInput(ctx, "research btrees", ProcessCallbacks{}); err != nil {
		t.Fatalf("first turn failed: %v", err)
	}

	var events []string
	err := a.ProcessUserInput(ctx, "now write it up", ProcessCallbacks{
		OnModeEvent: func(ev mode.Event) {
			events = append(events, ev.Kind.String()+":"+ev.Mode)
		},
	})
	if err != nil {
		t.Fatalf("second turn failed: %v", err)
	}

	want := []string{"exited:research", "entered:writing"}
	if len(events) != 2 || events[0] != want[0] || events[1] != want[1] {
		t.Errorf("events = %v, want %v", events, want)
	}
	if got := a.Engine.Name(); got != "writing" {
		t.Errorf("active mode = %q, want writing", got)
	}
	// Research prompt text must be gone and writing text present.
	last := mock.SeenOptions[len(mock.SeenOptions)-1].SystemPrompt
	if strings.Contains(last, "Focus on gathering sources.") {
		t.Errorf("system prompt = %q, research overlay should be restored away", last)
	}
	if !strings.Contains(last, "Write polished prose.") {
		t.Errorf("system prompt = %q, writing overlay should be applied", last)
	}
}

func TestAgentExitModeStopsLoop(t *testing.T) {
	mock := &llm.MockLLMClient{Responses: []*session.Message{
		toolCallResponse("enter_mode_writing", nil),
		textResponse("in writing mode"),
		toolCallResponse("exit_mode", nil),
	}}
	a := newTestAgent(t, mock)

	ctx := context.Background()
	if err := a.ProcessUserInput(ctx, "start writing", ProcessCallbacks{}); err != nil {
		t.Fatalf("first turn failed: %v", err)
	}
	callsBefore := mock.Calls

	// The writing mode declares exit_behavior stop: once its exit is
	// applied, the turn must end without another model call.
	if err := a.ProcessUserInput(ctx, "that's enough", ProcessCallbacks{}); err != nil {
		t.Fatalf("second turn failed: %v", err)
	}
	if got := a.Engine.Name(); got != "" {
		t.Errorf("active mode = %q, want none", got)
	}
	if mock.Calls != callsBefore+1 {
		t.Errorf("LLM calls in stop turn = %d, want exactly 1", mock.Calls-callsBefore)
	}
}

func TestAgentExitModeOnEmptyStack(t *testing.T) {
	mock := &llm.MockLLMClient{Responses: []*session.Message{
		toolCallResponse("exit_mode", nil),
		textResponse("nothing to exit, continuing"),
	}}
	a := newTestAgent(t, mock)

	err := a.ProcessUserInput(context.Background(), "exit whatever", ProcessCallbacks{})
	if err != nil {
		t.Fatalf("ProcessUserInput failed: %v", err)
	}
	// The tool reports the no-op; the turn proceeds normally.
	found := false
	for _, msg := range a.Session.Messages {
		if msg.Role == "tool" && strings.Contains(msg.Content, "No mode is active") {
			found = true
		}
	}
	if !found {
		t.Error("exit_mode on an empty stack should produce a descriptive tool result")
	}
}

func TestAgentNestedModeViaTool(t *testing.T) {
	mock := &llm.MockLLMClient{Responses: []*session.Message{
		toolCallResponse("enter_mode_research", nil),
		textResponse("researching"),
		toolCallResponse("enter_mode_writing", map[string]interface{}{"nested": true}),
		textResponse("drafting inside research"),
	}}
	a := newTestAgent(t, mock)

	ctx := context.Background()
	if err := a.ProcessUserInput(ctx, "research", ProcessCallbacks{}); err != nil {
		t.Fatalf("first turn failed: %v", err)
	}
	if err := a.ProcessUserInput(ctx, "draft nested", ProcessCallbacks{}); err != nil {
		t.Fatalf("second turn failed: %v", err)
	}

	stack := a.Engine.StackNames()
	if len(stack) != 2 || stack[0] != "research" || stack[1] != "writing" {
		t.Errorf("stack = %v, want [research writing]", stack)
	}
}

func TestRegisterModeExposesEnterTool(t *testing.T) {
	a := newTestAgent(t, &llm.MockLLMClient{})

	err := a.RegisterMode(mode.Info{
		Name:      "review",
		Invocable: true,
		Handler: func(c *mode.Context) error {
			return c.Suspend()
		},
	})
	if err != nil {
		t.Fatalf("RegisterMode failed: %v", err)
	}
	if _, ok := a.Tools.GetTool("enter_mode_review"); !ok {
		t.Error("invocable programmatic mode should get an enter tool")
	}

	// Non-invocable modes stay hidden from the model.
	err = a.RegisterMode(mode.Info{Name: "internal", Handler: func(c *mode.Context) error {
		return c.Suspend()
	}})
	if err != nil {
		t.Fatalf("RegisterMode failed: %v", err)
	}
	if _, ok := a.Tools.GetTool("enter_mode_internal"); ok {
		t.Error("non-invocable mode must not get an enter tool")
	}
}
