package mode

import (
	"context"
	"testing"

	"github.com/k3vq/facet/llm"
	"github.com/k3vq/facet/session"
	"github.com/k3vq/facet/tools"
)

type fakeTool struct {
	name string
}

func (f *fakeTool) Name() string        { return f.name }
func (f *fakeTool) Description() string { return "test tool " + f.name }
func (f *fakeTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	return "ok", nil
}

func newIsolationState() *AgentState {
	sess := &session.Session{Messages: []session.Message{}}
	sess.AddMessage(session.Message{Role: "user", Content: "before"})
	sess.AddMessage(session.Message{Role: "assistant", Content: "reply"})

	reg := tools.New()
	reg.Register(&fakeTool{name: "read_file"})

	return &AgentState{
		Session: sess,
		Tools:   reg,
		Model:   &llm.Options{Model: "base-model", MaxTokens: 100},
	}
}

func TestIsolationNone(t *testing.T) {
	st := newIsolationState()
	snap := captureIsolation(st, IsolationNone)

	st.Model.Model = "changed"
	st.Tools.Unregister("read_file")
	st.Session.AddMessage(session.Message{Role: "user", Content: "new"})

	snap.restore(st, nil)
	if st.Model.Model != "changed" {
		t.Error("none isolation must not touch model options")
	}
	if _, ok := st.Tools.GetTool("read_file"); ok {
		t.Error("none isolation must not restore tool registrations")
	}
	if st.Session.Len() != 3 {
		t.Errorf("none isolation must not touch messages, len = %d", st.Session.Len())
	}
}

func TestIsolationConfig(t *testing.T) {
	st := newIsolationState()
	snap := captureIsolation(st, IsolationConfig)

	st.Model.Model = "mode-model"
	st.Model.MaxTokens = 9999
	st.Tools.Unregister("read_file")
	st.Tools.Register(&fakeTool{name: "mode_tool"})
	st.Session.AddMessage(session.Message{Role: "user", Content: "new"})

	snap.restore(st, nil)

	if st.Model.Model != "base-model" || st.Model.MaxTokens != 100 {
		t.Errorf("model options = %+v, want reverted", st.Model)
	}
	if _, ok := st.Tools.GetTool("read_file"); !ok {
		t.Error("removed tool should be back after restore")
	}
	if _, ok := st.Tools.GetTool("mode_tool"); ok {
		t.Error("mode-added tool should be gone after restore")
	}
	if st.Session.Len() != 3 {
		t.Errorf("config isolation must share the conversation, len = %d", st.Session.Len())
	}
}

func TestIsolationThreadRetainsNewMessages(t *testing.T) {
	st := newIsolationState()
	snap := captureIsolation(st, IsolationThread)

	// Mutate a pre-existing message and add new ones.
	st.Session.Messages[0].Content = "tampered"
	st.Session.AddMessage(session.Message{Role: "user", Content: "asked inside"})
	st.Session.AddMessage(session.Message{Role: "assistant", Content: "answered inside"})

	snap.restore(st, nil)

	if st.Session.Len() != 4 {
		t.Fatalf("len = %d, want 4 (2 restored + 2 retained)", st.Session.Len())
	}
	if st.Session.Messages[0].Content != "before" {
		t.Errorf("pre-existing message = %q, want the tampering undone", st.Session.Messages[0].Content)
	}
	if st.Session.Messages[2].Content != "asked inside" || st.Session.Messages[3].Content != "answered inside" {
		t.Error("messages added inside the mode should be retained in order")
	}
}

func TestIsolationThreadRestoreTwice(t *testing.T) {
	st := newIsolationState()
	snap := captureIsolation(st, IsolationThread)
	st.Session.AddMessage(session.Message{Role: "user", Content: "inside"})

	snap.restore(st, nil)
	first := st.Session.Len()
	snap.restore(st, nil)
	if st.Session.Len() != first {
		t.Errorf("second restore changed len from %d to %d", first, st.Session.Len())
	}
}

func TestIsolationForkDiscardsEverything(t *testing.T) {
	st := newIsolationState()
	snap := captureIsolation(st, IsolationFork)

	st.Session.Messages[0].Content = "tampered"
	st.Session.AddMessage(session.Message{Role: "user", Content: "speculative"})
	st.Model.Model = "mode-model"

	snap.restore(st, nil)

	if st.Session.Len() != 2 {
		t.Fatalf("len = %d, want 2: fork discards new messages", st.Session.Len())
	}
	if st.Session.Messages[0].Content != "before" {
		t.Errorf("message = %q, want tampering undone", st.Session.Messages[0].Content)
	}
	if st.Model.Model != "base-model" {
		t.Errorf("model = %q, fork includes config-level restore", st.Model.Model)
	}
}

func TestIsolationLevelsThroughEngine(t *testing.T) {
	st := newIsolationState()
	registry := NewRegistry()
	engine := NewEngine(registry, st, NewOverlay("base"), nil)

	registry.Replace(Info{
		Name:      "deep-dive",
		Isolation: IsolationThread,
		Handler: func(c *Context) error {
			c.Model().Model = "expensive-model"
			c.Tools().Register(&fakeTool{name: "scratchpad"})
			return c.Suspend()
		},
	})

	if err := engine.EnterMode("deep-dive", nil); err != nil {
		t.Fatalf("EnterMode failed: %v", err)
	}
	if st.Model.Model != "expensive-model" {
		t.Fatalf("model inside mode = %q", st.Model.Model)
	}
	st.Session.AddMessage(session.Message{Role: "assistant", Content: "findings"})

	if _, err := engine.ExitMode(); err != nil {
		t.Fatalf("ExitMode failed: %v", err)
	}
	if st.Model.Model != "base-model" {
		t.Errorf("model after exit = %q, want reverted", st.Model.Model)
	}
	if _, ok := st.Tools.GetTool("scratchpad"); ok {
		t.Error("mode-registered tool should be reverted")
	}
	if st.Session.Len() != 3 {
		t.Errorf("len = %d, want the findings message retained", st.Session.Len())
	}
}
