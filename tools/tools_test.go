package tools

import (
	"context"
	"testing"

	"github.com/k3vq/facet/config"
)

type stubTool struct {
	name string
}

func (s *stubTool) Name() string        { return s.name }
func (s *stubTool) Description() string { return "stub " + s.name }
func (s *stubTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	return "ok", nil
}

func TestRegisterUnregisterList(t *testing.T) {
	r := New()
	r.Register(&stubTool{name: "zeta"})
	r.Register(&stubTool{name: "alpha"})

	names := r.Names()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "zeta" {
		t.Errorf("Names() = %v, want sorted [alpha zeta]", names)
	}

	list := r.List()
	if len(list) != 2 || list[0].Name() != "alpha" {
		t.Errorf("List() order = %v, want name-sorted", names)
	}

	r.Unregister("alpha")
	if _, ok := r.GetTool("alpha"); ok {
		t.Error("alpha should be gone after Unregister")
	}
	// Unregistering an absent tool is a no-op.
	r.Unregister("alpha")
}

func TestSnapshotRestore(t *testing.T) {
	r := New()
	r.Register(&stubTool{name: "keep"})
	snap := r.Snapshot()

	r.Unregister("keep")
	r.Register(&stubTool{name: "transient"})

	r.Restore(snap, nil)
	if _, ok := r.GetTool("keep"); !ok {
		t.Error("restore should bring back the removed tool")
	}
	if _, ok := r.GetTool("transient"); ok {
		t.Error("restore should drop tools registered after the snapshot")
	}
}

func TestSnapshotIsIndependent(t *testing.T) {
	r := New()
	r.Register(&stubTool{name: "original"})
	snap := r.Snapshot()
	r.Register(&stubTool{name: "later"})

	// Mutations after the snapshot must not leak into it.
	r.Restore(snap, nil)
	if names := r.Names(); len(names) != 1 || names[0] != "original" {
		t.Errorf("Names() after restore = %v, want [original]", names)
	}
}

func TestGetActiveTools(t *testing.T) {
	r := New()
	r.Register(&stubTool{name: "read_file"})
	r.Register(&stubTool{name: "write_file"})

	ts := &config.Toolset{Name: "reading", Tools: []string{"read_file"}}
	active, err := r.GetActiveTools(ts)
	if err != nil {
		t.Fatalf("GetActiveTools failed: %v", err)
	}
	if len(active) != 1 || active[0].Name() != "read_file" {
		t.Errorf("active = %v, want [read_file]", active)
	}

	missing := &config.Toolset{Name: "broken", Tools: []string{"no_such_tool"}}
	if _, err := r.GetActiveTools(missing); err == nil {
		t.Error("unknown tool reference should fail")
	}

	unknownServer := &config.Toolset{Name: "broken", Tools: []string{"ghost.tool"}}
	if _, err := r.GetActiveTools(unknownServer); err == nil {
		t.Error("unknown MCP server reference should fail")
	}
}

func TestIsCommandAllowed(t *testing.T) {
	allowed := []string{`^git (status|diff)`, `^ls`}

	if ok, _ := isCommandAllowed("git status", allowed); !ok {
		t.Error("git status should be allowed")
	}
	if ok, _ := isCommandAllowed("git push", allowed); ok {
		t.Error("git push should be rejected")
	}
	if ok, _ := isCommandAllowed("", allowed); ok {
		t.Error("empty command should be rejected")
	}
}

func TestIsPathRestricted(t *testing.T) {
	patterns := []string{".facet", ".facet/**", "**/*.secret"}

	if ok, _ := isPathRestricted(".facet/config.yaml", patterns); !ok {
		t.Error(".facet contents should be restricted")
	}
	if ok, _ := isPathRestricted("notes/key.secret", patterns); !ok {
		t.Error("*.secret files should be restricted")
	}
	if ok, _ := isPathRestricted("main.go", patterns); ok {
		t.Error("ordinary files should not be restricted")
	}
}
