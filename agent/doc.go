// Package agent provides the core agent functionality for the Facet system.
//
// This package contains the common code and abstractions shared between
// interaction surfaces. It defines the core Agent type, the processing loop
// for handling user input, LLM interactions and tool executions, and the
// wiring between the execution loop and the behavior mode engine.
//
// # Architecture
//
// The agent package is organized into two main components:
//
//   - Core agent (this package): Contains the shared Agent type, the
//     processing loop and the mode transition tools
//   - Terminal subpackage (agent/terminal): Implements the CLI interaction mode
//
// # Core Functionality
//
// The Agent type provides:
//
//   - Configuration management for LLM clients and toolsets
//   - Session management for conversation history
//   - Tool discovery and execution
//   - Behavior mode registration, both programmatic and from configuration
//   - Processing loop for LLM interactions, tool calls and mode transitions
//   - Callback-based architecture for different interaction modes
//
// # Usage
//
// To create and use an agent:
//
//	// Create an agent with configuration
//	agent, err := agent.New(cfg, session, toolset, runMode, llmClient, verbosity)
//	if err != nil {
//	    // handle error
//	}
//
//	// Define callbacks for your interaction mode
//	callbacks := agent.ProcessCallbacks{
//	    OnAssistantMessage: func(message string) {
//	        // Handle assistant responses
//	    },
//	    OnToolCall: func(toolCall session.ToolCall) {
//	        // Handle tool execution requests
//	    },
//	    OnToolResult: func(toolCall session.ToolCall, result string) {
//	        // Handle tool execution results
//	    },
//	    ShouldExecuteTool: func(toolCall session.ToolCall) bool {
//	        // Determine if a tool should be executed (for prompt mode)
//	        return true
//	    },
//	    OnWarning: func(warning string) {
//	        // Handle non-fatal warnings
//	    },
//	    OnModeEvent: func(ev mode.Event) {
//	        // Handle mode lifecycle notifications
//	    },
//	}
//
//	// Process user input
//	err = agent.ProcessUserInput(ctx, "user message", callbacks)
//
// # Behavior modes
//
// Modes declared in configuration are registered at startup; invocable ones
// are exposed to the model as enter_mode_<name> tools, alongside the
// exit_mode tool. A tool call schedules the transition; the processing loop
// applies it at the start of its next iteration, so the change takes effect
// on the following model call. When a mode exits, its exit behavior decides
// whether the loop issues another model call or returns control.
//
// # Run modes
//
// The agent supports two operation modes:
//
//   - RunAuto: Tools are executed automatically without confirmation
//   - RunPrompt: Tool execution requires confirmation (handled via callbacks)
//
// # Tool Verbosity
//
// Tool execution verbosity can be configured at three levels:
//
//   - ToolVerbosityNone: No tool execution details are shown
//   - ToolVerbosityInfo: Basic tool execution information is shown
//   - ToolVerbosityAll: Detailed tool execution information including arguments and results
//
// # Callbacks
//
// The ProcessCallbacks structure allows different interaction modes to customize
// how agent events are handled. This design enables the same core processing logic
// to be reused by any front end while allowing each to handle events in its own
// way (e.g., printing to stdout vs. forwarding over a protocol).
package agent
