package session

import "testing"

func TestAddMessageStampsSeq(t *testing.T) {
	s := &Session{Name: "test", Messages: []Message{}}
	s.AddMessage(Message{Role: "user", Content: "one"})
	s.AddMessage(Message{Role: "assistant", Content: "two"})

	if s.Messages[0].Seq != 1 || s.Messages[1].Seq != 2 {
		t.Errorf("seqs = %d, %d, want 1, 2", s.Messages[0].Seq, s.Messages[1].Seq)
	}
	if s.Marker() != 2 {
		t.Errorf("Marker() = %d, want 2", s.Marker())
	}
}

func TestMessagesSince(t *testing.T) {
	s := &Session{Name: "test"}
	s.AddMessage(Message{Role: "user", Content: "old"})
	marker := s.Marker()
	s.AddMessage(Message{Role: "user", Content: "new-1"})
	s.AddMessage(Message{Role: "assistant", Content: "new-2"})

	since := s.MessagesSince(marker)
	if len(since) != 2 || since[0].Content != "new-1" || since[1].Content != "new-2" {
		t.Errorf("MessagesSince = %v, want the two later messages", since)
	}
	if got := s.MessagesSince(s.Marker()); len(got) != 0 {
		t.Errorf("MessagesSince(latest marker) = %v, want empty", got)
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := &Session{Name: "test"}
	s.AddMessage(Message{
		Role:    "assistant",
		Content: "calling",
		ToolCalls: []ToolCall{
			{ToolCallID: "c1", Name: "read_file", Args: map[string]interface{}{"path": "a.txt"}},
		},
	})

	cp := s.Clone()
	cp[0].Content = "mutated"
	cp[0].ToolCalls[0].Args["path"] = "b.txt"

	if s.Messages[0].Content != "calling" {
		t.Error("clone shares message content with the original")
	}
	if s.Messages[0].ToolCalls[0].Args["path"] != "a.txt" {
		t.Error("clone shares tool call args with the original")
	}
}

func TestReplaceKeepsCounterMonotonic(t *testing.T) {
	s := &Session{Name: "test"}
	s.AddMessage(Message{Role: "user", Content: "one"})
	s.AddMessage(Message{Role: "user", Content: "two"})
	marker := s.Marker()

	// Replace with a shorter history whose stamps are older.
	s.Replace([]Message{{Role: "user", Content: "one", Seq: 1}})
	s.AddMessage(Message{Role: "user", Content: "three"})

	if s.Messages[1].Seq <= marker {
		t.Errorf("new message seq = %d, want it beyond the old marker %d", s.Messages[1].Seq, marker)
	}
}

func TestPending(t *testing.T) {
	s := &Session{Name: "test"}
	if s.Pending() {
		t.Error("empty history should not be pending")
	}
	s.AddMessage(Message{Role: "user", Content: "hi"})
	if !s.Pending() {
		t.Error("history ending in a user message should be pending")
	}
	s.AddMessage(Message{Role: "assistant", Content: "hello"})
	if s.Pending() {
		t.Error("history ending in an assistant message should not be pending")
	}
	s.AddMessage(Message{Role: "assistant", ToolCalls: []ToolCall{{ToolCallID: "c1", Name: "x"}}})
	s.AddMessage(Message{Role: "tool", Content: "result", ToolCalls: []ToolCall{{ToolCallID: "c1", Name: "x"}}})
	if !s.Pending() {
		t.Error("history ending in a tool result should be pending")
	}
}

func TestSaveAndLoad(t *testing.T) {
	t.Chdir(t.TempDir())

	s, err := New("roundtrip")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	s.AddMessage(Message{Role: "user", Content: "persist me"})
	s.AddMessage(Message{Role: "assistant", Content: "done"})
	s.Toolset = "default"
	if err := s.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load("roundtrip")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Len() != 2 || loaded.Messages[0].Content != "persist me" {
		t.Errorf("loaded session = %+v, want the saved history", loaded.Messages)
	}
	if loaded.Toolset != "default" {
		t.Errorf("Toolset = %q, want default", loaded.Toolset)
	}
	// The seq counter must pick up where the saved history left off.
	loaded.AddMessage(Message{Role: "user", Content: "more"})
	if loaded.Messages[2].Seq != 3 {
		t.Errorf("seq after load = %d, want 3", loaded.Messages[2].Seq)
	}
}

func TestLoadMissingSession(t *testing.T) {
	t.Chdir(t.TempDir())
	if _, err := Load("does-not-exist"); err == nil {
		t.Error("loading a missing session should fail")
	}
}
