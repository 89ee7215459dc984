package config

import (
	"os"
	"path/filepath"

	"github.com/k3vq/facet/errors"
	"gopkg.in/yaml.v3"
)

type FilesystemAccess struct {
	Hidden   []string `yaml:"hidden"`
	ReadOnly []string `yaml:"read_only"`
}

type MCPServer struct {
	Name    string   `yaml:"name"`
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

type Toolset struct {
	Name  string   `yaml:"name"`
	Tools []string `yaml:"tools"`
}

// ModePreset declares a behavior mode in configuration. Presets are
// registered at agent startup as suspending handlers: the prompt, model and
// toolset overrides below are applied on entry and revert on exit according
// to the preset's isolation level.
type ModePreset struct {
	Name         string            `yaml:"name"`
	Prepend      string            `yaml:"prepend"`
	Append       string            `yaml:"append"`
	Sections     map[string]string `yaml:"sections"`
	Toolset      string            `yaml:"toolset"`
	Model        string            `yaml:"model"`
	MaxTokens    int64             `yaml:"max_tokens"`
	Isolation    string            `yaml:"isolation"`     // none, config, thread, fork (default: config)
	ExitBehavior string            `yaml:"exit_behavior"` // continue, stop, auto (default: auto)
	Invocable    bool              `yaml:"invocable"`
}

type Config struct {
	LLMClient            string           `yaml:"llm"`
	Model                string           `yaml:"model"`
	MaxTokens            int64            `yaml:"max_tokens"`
	SystemPrompt         string           `yaml:"system_prompt"`
	Toolsets             []Toolset        `yaml:"toolsets"`
	Modes                []ModePreset     `yaml:"modes"`
	AdditionalMCPServers []MCPServer      `yaml:"additional_mcp_servers"`
	AllowedCommands      []string         `yaml:"allowed_commands"`
	FilesystemAccess     FilesystemAccess `yaml:"filesystem_access"`
}

// LoadConfig loads configuration from the user's home directory and the
// current working directory, with the latter taking precedence.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	// Default .facet directory to be hidden
	cfg.FilesystemAccess.Hidden = append(cfg.FilesystemAccess.Hidden, ".facet", ".facet/**")

	// Load user-level config first
	home, err := os.UserHomeDir()
	if err == nil {
		userConfigPath := filepath.Join(home, ".facet", "config.yaml")
		if _, err := os.Stat(userConfigPath); err == nil {
			if err := loadFromFile(userConfigPath, cfg); err != nil {
				return nil, errors.Wrapf(err, "error loading user config")
			}
		}
	}

	// Load project-level config, overriding user-level
	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrapf(err, "could not get working directory")
	}
	projectConfigPath := filepath.Join(wd, ".facet", "config.yaml")
	if _, err := os.Stat(projectConfigPath); err == nil {
		if err := loadFromFile(projectConfigPath, cfg); err != nil {
			return nil, errors.Wrapf(err, "error loading project config")
		}
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	// Note: Unmarshal will overwrite fields present in the YAML. This provides
	// a simple merge where project-level config replaces user-level.
	return yaml.Unmarshal(data, cfg)
}

// GetToolset finds a toolset by name. Returns the "default" toolset if the
// named one is not found or if an empty name is provided.
func (c *Config) GetToolset(name string) (*Toolset, error) {
	if name == "" {
		name = "default"
	}
	for _, ts := range c.Toolsets {
		if ts.Name == name {
			return &ts, nil
		}
	}
	if name == "default" {
		return nil, errors.New("mandatory 'default' toolset not found in configuration")
	}
	// Fallback to default if a specific toolset was requested but not found
	return c.GetToolset("default")
}

// GetModePreset finds a declared mode preset by name.
func (c *Config) GetModePreset(name string) (*ModePreset, error) {
	for _, p := range c.Modes {
		if p.Name == name {
			return &p, nil
		}
	}
	return nil, errors.New("mode preset '%s' not declared in configuration", name)
}
