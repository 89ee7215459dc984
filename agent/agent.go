package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/k3vq/facet/config"
	"github.com/k3vq/facet/errors"
	"github.com/k3vq/facet/llm"
	"github.com/k3vq/facet/mode"
	"github.com/k3vq/facet/session"
	"github.com/k3vq/facet/tools"
)

// RunMode controls whether tool execution requires confirmation.
type RunMode string

const (
	RunAuto   RunMode = "auto"
	RunPrompt RunMode = "prompt"
)

// ToolVerbosity controls how much tool execution detail is surfaced.
type ToolVerbosity string

const (
	ToolVerbosityNone ToolVerbosity = "none"
	ToolVerbosityInfo ToolVerbosity = "info"
	ToolVerbosityAll  ToolVerbosity = "all"
)

// ProcessCallbacks lets each interaction surface (terminal, tests) decide how
// agent events are presented. Any callback may be nil.
type ProcessCallbacks struct {
	OnAssistantMessage func(message string)
	OnToolCall         func(toolCall session.ToolCall)
	OnToolResult       func(toolCall session.ToolCall, result string)
	ShouldExecuteTool  func(toolCall session.ToolCall) bool
	OnWarning          func(warning string)
	OnModeEvent        func(ev mode.Event)
}

// Agent ties the conversation, the model client, the tool registries and the
// mode engine together. One Agent serves one session.
type Agent struct {
	Config    *config.Config
	Session   *session.Session
	LLMClient llm.LLMClient
	Model     *llm.Options
	Modes     *mode.Registry
	Engine    *mode.Engine
	RunMode   RunMode
	Verbosity ToolVerbosity

	// catalog holds every known tool (builtins plus MCP discoveries) and owns
	// the MCP subprocesses. Tools is the active working set the model sees;
	// modes mutate it and config-level isolation reverts those mutations.
	catalog *tools.ToolRegistry
	Tools   *tools.ToolRegistry

	logger *slog.Logger
	cb     *ProcessCallbacks // callbacks of the turn in flight, for mode events
}

// New creates an agent: it builds the tool catalog from configuration,
// resolves the active toolset, registers the configured behavior modes and
// wires the mode engine over the shared state.
func New(cfg *config.Config, sess *session.Session, toolset string, runMode RunMode, client llm.LLMClient, verbosity ToolVerbosity) (*Agent, error) {
	catalog, err := tools.NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	a := &Agent{
		Config:    cfg,
		Session:   sess,
		LLMClient: client,
		Model: &llm.Options{
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
		},
		Modes:     mode.NewRegistry(),
		RunMode:   runMode,
		Verbosity: verbosity,
		catalog:   catalog,
		Tools:     tools.New(),
		logger:    slog.Default(),
	}

	overlay := mode.NewOverlay(cfg.SystemPrompt)
	state := &mode.AgentState{
		Session: sess,
		Tools:   a.Tools,
		Model:   a.Model,
	}
	a.Engine = mode.NewEngine(a.Modes, state, overlay, a.logger)
	a.Engine.Subscribe(func(ev mode.Event) {
		if a.cb != nil && a.cb.OnModeEvent != nil {
			a.cb.OnModeEvent(ev)
		}
	})

	for _, preset := range cfg.Modes {
		if err := a.registerPreset(preset); err != nil {
			catalog.Stop()
			return nil, err
		}
	}

	if err := a.applyToolset(toolset); err != nil {
		catalog.Stop()
		return nil, err
	}

	return a, nil
}

// Close releases resources the agent owns, notably MCP server subprocesses.
func (a *Agent) Close() {
	a.catalog.Stop()
}

// RegisterMode adds a programmatic mode and, when it is invocable, exposes an
// enter tool for it to the model.
func (a *Agent) RegisterMode(info mode.Info) error {
	if err := a.Modes.Register(info); err != nil {
		return err
	}
	if info.Invocable {
		a.Tools.Register(&enterModeTool{agent: a, mode: info.Name})
	}
	return nil
}

// registerPreset turns a configured mode preset into a registered mode whose
// handler applies the declared overrides on entry and suspends until exit.
func (a *Agent) registerPreset(p config.ModePreset) error {
	iso := mode.IsolationConfig
	if p.Isolation != "" {
		var err error
		iso, err = mode.ParseIsolationLevel(p.Isolation)
		if err != nil {
			return errors.Wrapf(err, "mode preset '%s'", p.Name)
		}
	}
	behavior, err := mode.ParseExitBehavior(p.ExitBehavior)
	if err != nil {
		return errors.Wrapf(err, "mode preset '%s'", p.Name)
	}

	return a.Modes.Register(mode.Info{
		Name:         p.Name,
		Handler:      a.presetHandler(p),
		Isolation:    iso,
		ExitBehavior: behavior,
		Invocable:    p.Invocable,
	})
}

// presetHandler builds the suspending handler for a configured preset. All
// declared overrides are applied in the setup phase; the matching snapshots
// revert them on exit, so the handler itself has no cleanup work.
func (a *Agent) presetHandler(p config.ModePreset) mode.Handler {
	return func(c *mode.Context) error {
		if p.Model != "" {
			c.Model().Model = p.Model
		}
		if p.MaxTokens > 0 {
			c.Model().MaxTokens = p.MaxTokens
		}
		if p.Prepend != "" {
			c.Prompt().Prepend(p.Prepend, false)
		}
		if p.Append != "" {
			c.Prompt().Append(p.Append, false)
		}
		for name, text := range p.Sections {
			c.Prompt().SetSection(name, text, false)
		}
		if p.Toolset != "" {
			if err := a.applyToolset(p.Toolset); err != nil {
				return err
			}
		}
		return c.Suspend()
	}
}

// applyToolset replaces the active working set with the named toolset's tools
// plus the mode transition tools, which stay available in every toolset.
func (a *Agent) applyToolset(name string) error {
	ts, err := a.Config.GetToolset(name)
	if err != nil {
		return err
	}
	active, err := a.catalog.GetActiveTools(ts)
	if err != nil {
		return err
	}

	for _, n := range a.Tools.Names() {
		a.Tools.Unregister(n)
	}
	for _, t := range active {
		a.Tools.Register(t)
	}
	for _, modeName := range a.Modes.Invocable() {
		a.Tools.Register(&enterModeTool{agent: a, mode: modeName})
	}
	a.Tools.Register(&exitModeTool{agent: a})
	return nil
}

// ProcessUserInput runs one conversational turn: the user message goes into
// the history, then the loop alternates model calls and tool executions until
// the model stops requesting tools or an exiting mode asks the loop to stop.
//
// Scheduled mode transitions are drained at the start of each iteration,
// never mid-flight, so a tool that requests a mode change sees the change
// take effect on the next model call.
func (a *Agent) ProcessUserInput(ctx context.Context, userInput string, callbacks ProcessCallbacks) error {
	a.cb = &callbacks
	defer func() { a.cb = nil }()

	a.Session.AddMessage(session.Message{Role: "user", Content: userInput})

	for {
		cont, err := a.drainTransition(callbacks)
		if err != nil {
			a.saveSession(callbacks)
			return err
		}
		if !cont {
			a.saveSession(callbacks)
			return nil
		}

		opts := *a.Model
		opts.SystemPrompt = a.Engine.Overlay().Render()

		response, err := a.LLMClient.Chat(ctx, a.Session.Messages, a.Tools.List(), opts)
		if err != nil {
			return errors.Wrapf(err, "LLM chat failed")
		}

		a.Session.AddMessage(*response)
		if response.Content != "" && callbacks.OnAssistantMessage != nil {
			callbacks.OnAssistantMessage(response.Content)
		}

		if len(response.ToolCalls) == 0 {
			// No tool calls can still leave a transition pending when a
			// handler scheduled one earlier; it is drained next turn.
			a.saveSession(callbacks)
			return nil
		}

		for _, tc := range response.ToolCalls {
			result := a.executeToolCall(ctx, tc, callbacks)
			a.Session.AddMessage(session.Message{
				Role:      "tool",
				Content:   result,
				ToolCalls: []session.ToolCall{tc},
			})
			if callbacks.OnToolResult != nil {
				callbacks.OnToolResult(tc, result)
			}
		}

		a.saveSession(callbacks)
	}
}

// drainTransition applies at most one scheduled transition and decides
// whether the loop should continue. After a plain exit the exiting mode's
// behavior rules: continue forces another model call, stop ends the turn, and
// auto continues only when the conversation still expects a response.
func (a *Agent) drainTransition(callbacks ProcessCallbacks) (bool, error) {
	applied, err := a.Engine.ApplyScheduled()
	if err != nil {
		return false, err
	}
	if applied == nil {
		return true, nil
	}
	if applied.Note != "" && callbacks.OnWarning != nil {
		callbacks.OnWarning(applied.Note)
	}

	if applied.Exited != "" && applied.Entered == "" {
		switch applied.Behavior {
		case mode.ExitStop:
			return false, nil
		case mode.ExitContinue:
			return true, nil
		case mode.ExitAuto:
			return a.Session.Pending(), nil
		}
	}
	return true, nil
}

// executeToolCall runs one tool call and returns the text that goes back to
// the model. Failures are reported as results rather than aborting the turn,
// so the model can react to them.
func (a *Agent) executeToolCall(ctx context.Context, tc session.ToolCall, callbacks ProcessCallbacks) string {
	if callbacks.OnToolCall != nil {
		callbacks.OnToolCall(tc)
	}

	if a.RunMode == RunPrompt && callbacks.ShouldExecuteTool != nil && !callbacks.ShouldExecuteTool(tc) {
		return fmt.Sprintf("Tool call '%s' was declined by the user.", tc.Name)
	}

	tool, ok := a.Tools.GetTool(tc.Name)
	if !ok {
		if callbacks.OnWarning != nil {
			callbacks.OnWarning(fmt.Sprintf("model requested unavailable tool '%s'", tc.Name))
		}
		return fmt.Sprintf("Error: tool '%s' is not available.", tc.Name)
	}

	result, err := tool.Execute(ctx, tc.Args)
	if err != nil {
		return fmt.Sprintf("Error executing tool '%s': %v", tc.Name, err)
	}
	return result
}

func (a *Agent) saveSession(callbacks ProcessCallbacks) {
	if err := a.Session.Save(); err != nil {
		if callbacks.OnWarning != nil {
			callbacks.OnWarning(fmt.Sprintf("failed to save session: %v", err))
		} else {
			a.logger.Warn("failed to save session", "error", err)
		}
	}
}
