package terminal

import (
	"context"
	"testing"

	"github.com/k3vq/facet/agent"
	"github.com/k3vq/facet/config"
	"github.com/k3vq/facet/llm"
	"github.com/k3vq/facet/session"
)

// createTestConfig creates a config with a default toolset and one behavior
// mode for testing
func createTestConfig() *config.Config {
	return &config.Config{
		Toolsets: []config.Toolset{
			{
				Name:  "default",
				Tools: []string{},
			},
		},
		Modes: []config.ModePreset{
			{Name: "research", Prepend: "Focus on sources.", Invocable: true},
		},
	}
}

func newTestAgent(t *testing.T, name string, mode agent.RunMode, verbosity agent.ToolVerbosity) *agent.Agent {
	t.Helper()
	sess, err := session.New(name)
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	a, err := agent.New(createTestConfig(), sess, "default", mode, &llm.MockLLMClient{}, verbosity)
	if err != nil {
		t.Fatalf("Failed to create agent: %v", err)
	}
	t.Cleanup(a.Close)
	return a
}

func TestTerminalNew(t *testing.T) {
	t.Chdir(t.TempDir())
	testAgent := newTestAgent(t, "test-session", agent.RunAuto, agent.ToolVerbosityNone)

	// Create terminal instance
	term := New(testAgent)
	if term == nil {
		t.Fatal("Expected terminal instance, got nil")
	}

	if term.agent != testAgent {
		t.Fatal("Terminal agent doesn't match the provided agent")
	}
}

func TestTerminalProcessTurn(t *testing.T) {
	t.Chdir(t.TempDir())
	testAgent := newTestAgent(t, "test-session", agent.RunAuto, agent.ToolVerbosityNone)
	term := New(testAgent)

	// Test processTurn with a simple input
	// Note: This is a basic test that verifies the method doesn't panic
	// More comprehensive testing would require mocking stdin/stdout
	ctx := context.Background()

	// Since processTurn calls ProcessUserInput which will use the LLM client,
	// we expect it to process without errors with the mock client
	err := term.processTurn(ctx, "test input")
	if err != nil {
		t.Errorf("processTurn failed: %v", err)
	}
}

func TestTerminalCallbacks(t *testing.T) {
	// This test verifies that the terminal creates appropriate callbacks
	// when processing user input
	t.Chdir(t.TempDir())

	// Test with different verbosity levels
	testCases := []struct {
		name      string
		mode      agent.RunMode
		verbosity agent.ToolVerbosity
	}{
		{"AutoModeNoVerbosity", agent.RunAuto, agent.ToolVerbosityNone},
		{"AutoModeInfoVerbosity", agent.RunAuto, agent.ToolVerbosityInfo},
		{"AutoModeAllVerbosity", agent.RunAuto, agent.ToolVerbosityAll},
		{"PromptModeNoVerbosity", agent.RunPrompt, agent.ToolVerbosityNone},
		{"PromptModeAllVerbosity", agent.RunPrompt, agent.ToolVerbosityAll},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Create a new session for each test case to avoid state interference
			testAgent := newTestAgent(t, "test-session-"+tc.name, tc.mode, tc.verbosity)

			term := New(testAgent)
			ctx := context.Background()

			// Process a turn - this should create and use callbacks internally
			err := term.processTurn(ctx, "test input for "+tc.name)
			if err != nil {
				t.Errorf("processTurn failed for %s: %v", tc.name, err)
			}
		})
	}
}

func TestTerminalModeCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	testAgent := newTestAgent(t, "test-session-mode", agent.RunAuto, agent.ToolVerbosityNone)
	term := New(testAgent)

	// Entering a registered mode directly.
	term.handleModeCommand("research")
	if got := testAgent.Engine.Name(); got != "research" {
		t.Errorf("active mode = %q, want research", got)
	}
	if got := term.promptLabel(); got != "You [research]: " {
		t.Errorf("prompt label = %q, want the active mode shown", got)
	}

	// Exiting it again.
	term.handleModeCommand("exit")
	if got := testAgent.Engine.Name(); got != "" {
		t.Errorf("active mode after exit = %q, want none", got)
	}
	if got := term.promptLabel(); got != "You: " {
		t.Errorf("prompt label = %q, want the plain label", got)
	}

	// Unknown mode names and a bare /mode must not panic.
	term.handleModeCommand("no-such-mode")
	term.handleModeCommand("")
}

func TestTerminalRun(t *testing.T) {
	// Test that Run method properly handles initial prompts
	// Note: Full testing of the interactive loop would require mocking stdin
	t.Chdir(t.TempDir())
	testAgent := newTestAgent(t, "test-session-run", agent.RunAuto, agent.ToolVerbosityNone)

	term := New(testAgent)
	ctx := context.Background()

	// Test with initial prompt - should process once and then exit due to no stdin
	// The Run method will exit immediately after processing the initial prompt
	// when stdin is not available (as in test environment)
	err := term.Run(ctx, "initial test prompt")
	if err != nil {
		t.Errorf("Run failed with initial prompt: %v", err)
	}

	// Test without initial prompt - should exit immediately due to no stdin
	err = term.Run(ctx, "")
	if err != nil {
		t.Errorf("Run failed without initial prompt: %v", err)
	}
}
