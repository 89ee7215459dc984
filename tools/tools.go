package tools

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/k3vq/facet/config"
	"github.com/k3vq/facet/errors"
	"github.com/k3vq/facet/tools/mcp"
)

// Tool defines the interface for any action the agent can take.
type Tool interface {
	Name() string
	Description() string
	Execute(ctx context.Context, args map[string]interface{}) (string, error)
}

// ToolRegistry holds a mutable set of tools. The agent owns one registry for
// its active tool set; behavior modes may add or remove tools at runtime, and
// Snapshot/Restore lets the mode engine revert those changes on exit.
type ToolRegistry struct {
	tools      map[string]Tool
	mcpClients map[string]*mcp.MCPClient
}

// New creates an empty registry.
func New() *ToolRegistry {
	return &ToolRegistry{
		tools:      make(map[string]Tool),
		mcpClients: make(map[string]*mcp.MCPClient),
	}
}

// NewFromConfig creates a registry populated with the builtin tools and the
// tools discovered from each configured MCP server.
func NewFromConfig(cfg *config.Config) (*ToolRegistry, error) {
	r := New()

	r.Register(&ReadFileTool{fsAccess: &cfg.FilesystemAccess})
	r.Register(&WriteFileTool{fsAccess: &cfg.FilesystemAccess})
	r.Register(&ExecuteCommandTool{allowedCommands: cfg.AllowedCommands})

	for _, server := range cfg.AdditionalMCPServers {
		client, err := mcp.NewMCPClient(server.Name, server.Command, server.Args)
		if err != nil {
			r.Stop()
			return nil, errors.Wrapf(err, "failed to initialize MCP server '%s'", server.Name)
		}
		r.mcpClients[server.Name] = client
		for _, t := range client.Tools() {
			r.Register(t)
		}
	}

	return r, nil
}

// Register adds a tool, replacing any previous tool with the same name.
func (r *ToolRegistry) Register(t Tool) {
	r.tools[t.Name()] = t
}

// Unregister removes a tool by name. Removing an absent tool is a no-op.
func (r *ToolRegistry) Unregister(name string) {
	delete(r.tools, name)
}

// GetTool returns a registered tool by name.
func (r *ToolRegistry) GetTool(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// List returns all registered tools sorted by name, so the tool order
// presented to the model is stable across calls.
func (r *ToolRegistry) List() []Tool {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]Tool, len(names))
	for i, name := range names {
		out[i] = r.tools[name]
	}
	return out
}

// Names returns the sorted names of all registered tools.
func (r *ToolRegistry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot captures the current registration set. The returned value is
// independent of later Register/Unregister calls.
type Snapshot struct {
	tools map[string]Tool
}

// Snapshot captures the registry contents by value.
func (r *ToolRegistry) Snapshot() Snapshot {
	cp := make(map[string]Tool, len(r.tools))
	for name, t := range r.tools {
		cp[name] = t
	}
	return Snapshot{tools: cp}
}

// Restore resets the registry to a previously captured snapshot. It never
// fails: an entry whose tool has become unusable is logged and skipped so
// the rest of the restore still completes.
func (r *ToolRegistry) Restore(snap Snapshot, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	restored := make(map[string]Tool, len(snap.tools))
	for name, t := range snap.tools {
		if t == nil {
			logger.Warn("skipping unrestorable tool registration", "tool", name)
			continue
		}
		restored[name] = t
	}
	r.tools = restored
}

// GetActiveTools returns the tool instances for a given toolset. MCP tools
// are referenced as "<server>.<tool>", with "<server>.*" selecting every tool
// the server exposes.
func (r *ToolRegistry) GetActiveTools(ts *config.Toolset) ([]Tool, error) {
	var activeTools []Tool
	for _, toolName := range ts.Tools {
		if server, rest, ok := strings.Cut(toolName, "."); ok {
			client, found := r.mcpClients[server]
			if !found {
				return nil, errors.New("toolset '%s' references unknown MCP server '%s'", ts.Name, server)
			}
			if rest == "*" {
				activeTools = append(activeTools, toolsAsSlice(client.Tools())...)
				continue
			}
			t, found := client.GetTool(rest)
			if !found {
				return nil, errors.New("MCP server '%s' does not provide tool '%s'", server, rest)
			}
			activeTools = append(activeTools, t)
			continue
		}

		if t, ok := r.GetTool(toolName); ok {
			activeTools = append(activeTools, t)
		} else {
			return nil, errors.New("tool '%s' from toolset '%s' is not registered", toolName, ts.Name)
		}
	}
	return activeTools, nil
}

// Stop terminates all MCP server subprocesses owned by this registry.
func (r *ToolRegistry) Stop() {
	for name, client := range r.mcpClients {
		if err := client.Stop(); err != nil {
			slog.Warn("failed to stop MCP server", "server", name, "error", err)
		}
	}
}

func toolsAsSlice(ts []*mcp.MCPTool) []Tool {
	out := make([]Tool, len(ts))
	for i, t := range ts {
		out[i] = t
	}
	return out
}

// isPathRestricted checks if a path matches any of the glob patterns.
func isPathRestricted(path string, patterns []string) (bool, error) {
	for _, pattern := range patterns {
		match, err := doublestar.PathMatch(pattern, path)
		if err != nil {
			return false, errors.Wrapf(err, "invalid glob pattern '%s'", pattern)
		}
		if match {
			return true, nil
		}
	}
	return false, nil
}

// isCommandAllowed checks if a command is in the allowlist (with regex support).
func isCommandAllowed(command string, allowed []string) (bool, error) {
	cmdParts := strings.Fields(command)
	if len(cmdParts) == 0 {
		return false, nil
	}

	for _, pattern := range allowed {
		re, err := regexp.Compile(pattern)
		if err != nil {
			slog.Warn("invalid regex in allowed_commands, falling back to exact match", "pattern", pattern, "error", err)
			if command == pattern {
				return true, nil
			}
			continue
		}
		if re.MatchString(command) {
			return true, nil
		}
	}
	return false, nil
}
