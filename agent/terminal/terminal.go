package terminal

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/k3vq/facet/agent"
	"github.com/k3vq/facet/mode"
	"github.com/k3vq/facet/session"
)

// Terminal handles the terminal/CLI interaction mode for the agent
type Terminal struct {
	agent *agent.Agent
}

// New creates a new Terminal instance
func New(a *agent.Agent) *Terminal {
	return &Terminal{
		agent: a,
	}
}

// Run starts the interactive terminal session
func (t *Terminal) Run(ctx context.Context, initialPrompt string) error {
	// If there's an initial prompt from the command line, use it first
	if initialPrompt != "" {
		if err := t.processTurn(ctx, initialPrompt); err != nil {
			return err
		}
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(t.promptLabel())
		if !scanner.Scan() {
			// EOF or read error ends the session
			break
		}

		userInput := strings.TrimSpace(scanner.Text())
		if userInput == "" {
			continue
		}

		// Exit commands
		if userInput == "/quit" || userInput == "/exit" {
			break
		}

		if strings.HasPrefix(userInput, "/mode") {
			t.handleModeCommand(strings.TrimSpace(strings.TrimPrefix(userInput, "/mode")))
			continue
		}

		if err := t.processTurn(ctx, userInput); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return err
	}

	return nil
}

// promptLabel shows the active mode in the input prompt so the user always
// knows which behavior is in force.
func (t *Terminal) promptLabel() string {
	if name := t.agent.Engine.Name(); name != "" {
		return fmt.Sprintf("You [%s]: ", name)
	}
	return "You: "
}

// handleModeCommand implements the /mode command family:
//
//	/mode            show the active mode stack and the registered modes
//	/mode <name>     enter the named mode (replacing the current one)
//	/mode push <name> enter the named mode nested inside the current one
//	/mode exit       exit the current mode
func (t *Terminal) handleModeCommand(args string) {
	fields := strings.Fields(args)
	switch {
	case len(fields) == 0:
		stack := t.agent.Engine.StackNames()
		if len(stack) == 0 {
			fmt.Println("No mode is active.")
		} else {
			fmt.Printf("Mode stack (outermost first): %s\n", strings.Join(stack, " > "))
		}
		if names := t.agent.Modes.Names(); len(names) > 0 {
			fmt.Printf("Registered modes: %s\n", strings.Join(names, ", "))
		}
	case fields[0] == "exit":
		behavior, err := t.agent.Engine.ExitMode()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		fmt.Printf("Exited mode (exit behavior: %s).\n", behavior)
	case fields[0] == "push" && len(fields) > 1:
		if err := t.agent.Engine.EnterMode(fields[1], nil); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	default:
		// Replace the current mode, if any, with the requested one.
		if t.agent.Engine.Name() != "" {
			if _, err := t.agent.Engine.ExitMode(); err != nil {
				fmt.Printf("Error: %v\n", err)
				return
			}
		}
		if err := t.agent.Engine.EnterMode(fields[0], nil); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}
}

// processTurn handles a single user input turn
func (t *Terminal) processTurn(ctx context.Context, userInput string) error {
	// Create callbacks for terminal-specific behavior
	callbacks := agent.ProcessCallbacks{
		OnAssistantMessage: func(message string) {
			fmt.Printf("Facet: %s\n", message)
		},
		OnToolCall: func(toolCall session.ToolCall) {
			// Display tool call information based on verbosity
			if t.agent.Verbosity == agent.ToolVerbosityAll {
				fmt.Printf("Facet wants to call tool `%s` with args: %v\n", toolCall.Name, toolCall.Args)
			} else if t.agent.Verbosity == agent.ToolVerbosityInfo {
				fmt.Printf("Facet wants to call tool `%s`\n", toolCall.Name)
			}
		},
		OnToolResult: func(toolCall session.ToolCall, result string) {
			// Display tool result if verbosity is set to all
			if t.agent.Verbosity == agent.ToolVerbosityAll {
				fmt.Printf("Tool `%s` output: %s\n", toolCall.Name, result)
			}
		},
		ShouldExecuteTool: func(toolCall session.ToolCall) bool {
			// In prompt mode, ask for user confirmation
			if t.agent.RunMode == agent.RunPrompt {
				fmt.Print("Do you want to allow this? (y/n): ")
				reader := bufio.NewReader(os.Stdin)
				answer, _ := reader.ReadString('\n')
				return strings.TrimSpace(strings.ToLower(answer)) == "y"
			}
			// In auto mode, always execute
			return true
		},
		OnWarning: func(warning string) {
			fmt.Printf("Warning: %s\n", warning)
		},
		OnModeEvent: func(ev mode.Event) {
			switch ev.Kind {
			case mode.EventEntered:
				fmt.Printf("[mode] entered '%s'\n", ev.Mode)
			case mode.EventExited:
				if ev.Err != nil {
					fmt.Printf("[mode] exited '%s' with error: %v\n", ev.Mode, ev.Err)
				} else {
					fmt.Printf("[mode] exited '%s'\n", ev.Mode)
				}
			case mode.EventCleanupError:
				fmt.Printf("[mode] cleanup problem in '%s': %v\n", ev.Mode, ev.Err)
			}
		},
	}

	return t.agent.ProcessUserInput(ctx, userInput, callbacks)
}
