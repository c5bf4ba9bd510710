package config

import (
	"encoding/json"
	"os"
)

// Config holds the engine configuration, persisted as JSON at
// Paths.ConfigPath.
type Config struct {
	Paths         *Paths `json:"-"`
	PortStart     int    `json:"port_start"`
	PortRangeSize int    `json:"port_range_size"`

	Assistants map[string]AssistantConfig `json:"assistants"`
	Font       FontConfig                 `json:"font"`
	Shader     ShaderConfig               `json:"shader"`
	Update     UpdateConfig               `json:"update"`
	Tmux       TmuxConfig                 `json:"tmux"`
	Scripting  ScriptingConfig            `json:"scripting"`
}

// AssistantConfig defines how to launch a shell or AI agent in a tab.
type AssistantConfig struct {
	Command          string // Shell command to launch the assistant
	InterruptCount   int    // Number of Ctrl-C signals to send (default 1, claude needs 2)
	InterruptDelayMs int    // Delay between interrupts in milliseconds
}

// FontConfig controls glyph rasterization (SPEC_FULL.md §4.A Glyph Atlas).
type FontConfig struct {
	FamilyName string  `json:"family_name"`
	SizePoints float64 `json:"size_points"`
	Hinting    bool    `json:"hinting"`
	Antialias  bool    `json:"antialias"`
	ThinStroke bool    `json:"thin_stroke"`
}

// ShaderConfig controls the custom post-processing shader stage
// (SPEC_FULL.md §4.C).
type ShaderConfig struct {
	Directory    string `json:"directory"`
	ActiveShader string `json:"active_shader"`
	CursorShader string `json:"cursor_shader"`
}

// UpdateConfig controls the release-update probe (SPEC_FULL.md §4.I).
type UpdateConfig struct {
	Channel         string `json:"channel"` // "stable" or "beta"
	CheckIntervalHr int    `json:"check_interval_hours"`
	AutoCheck       bool   `json:"auto_check"`
}

// TmuxConfig controls the tmux control-mode driver (SPEC_FULL.md §4.H).
type TmuxConfig struct {
	Enabled   bool   `json:"enabled"`
	PrefixKey string `json:"prefix_key"` // e.g. "C-b"
}

// ScriptingConfig controls the per-flag permission gates a scripted command
// must pass before the coordinator applies its side effect (SPEC_FULL.md
// §4.G).
type ScriptingConfig struct {
	AllowWriteText    bool `json:"allow_write_text"`
	AllowRunCommand   bool `json:"allow_run_command"`
	AllowChangeConfig bool `json:"allow_change_config"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() (*Config, error) {
	paths, err := DefaultPaths()
	if err != nil {
		return nil, err
	}

	return &Config{
		Paths:         paths,
		PortStart:     6200,
		PortRangeSize: 10,
		Assistants: map[string]AssistantConfig{
			"claude": {
				Command:          "claude",
				InterruptCount:   2,
				InterruptDelayMs: 200,
			},
			"codex": {
				Command:          "codex",
				InterruptCount:   1,
				InterruptDelayMs: 0,
			},
			"gemini": {
				Command:          "gemini",
				InterruptCount:   1,
				InterruptDelayMs: 0,
			},
			"shell": {
				Command:          shellCommand(),
				InterruptCount:   1,
				InterruptDelayMs: 0,
			},
		},
		Font: FontConfig{
			FamilyName: "monospace",
			SizePoints: 13.0,
			Hinting:    true,
			Antialias:  true,
			ThinStroke: false,
		},
		Shader: ShaderConfig{
			Directory: paths.CacheRoot,
		},
		Update: UpdateConfig{
			Channel:         "stable",
			CheckIntervalHr: 24,
			AutoCheck:       true,
		},
		Tmux: TmuxConfig{
			Enabled:   false,
			PrefixKey: "C-b",
		},
		Scripting: ScriptingConfig{},
	}, nil
}

func shellCommand() string {
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	return "/bin/bash"
}

// Load reads the config at path, falling back to DefaultConfig's values for
// any field missing from the file (a partial config.json is valid).
func Load(path string) (*Config, error) {
	cfg, err := DefaultConfig()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	paths := cfg.Paths
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.Paths = paths
	return cfg, nil
}

// Save writes cfg to path as indented JSON.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
