package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigDir  = ".config/skyline"
	DefaultConfigFile = "config.yaml"
)

// LayoutMode selects how a space arranges its windows.
type LayoutMode string

const (
	LayoutBSP   LayoutMode = "bsp"
	LayoutStack LayoutMode = "stack"
	LayoutFloat LayoutMode = "float"
)

// FFMMode is the focus-follows-mouse policy.
type FFMMode string

const (
	FFMOff       FFMMode = "off"
	FFMAutofocus FFMMode = "autofocus"
	FFMAutoraise FFMMode = "autoraise"
)

// BarPosition selects which displays carry the external bar offset.
type BarPosition string

const (
	BarOff  BarPosition = "off"
	BarMain BarPosition = "main"
	BarAll  BarPosition = "all"
)

// WindowLayer is the stacking layer a rule can pin a window to.
type WindowLayer string

const (
	LayerBelow  WindowLayer = "below"
	LayerNormal WindowLayer = "normal"
	LayerAbove  WindowLayer = "above"
)

// Padding is the outer inset applied to a display's usable bounds.
type Padding struct {
	Top    float64 `yaml:"top"`
	Bottom float64 `yaml:"bottom"`
	Left   float64 `yaml:"left"`
	Right  float64 `yaml:"right"`
}

// ExternalBar reserves space for a status bar outside the tiled area.
type ExternalBar struct {
	Top      float64     `yaml:"top"`
	Bottom   float64     `yaml:"bottom"`
	Position BarPosition `yaml:"position"`
}

// SpaceConfig names a logical space and optionally pins it to a display label.
type SpaceConfig struct {
	Name    string `yaml:"name"`
	Display string `yaml:"display,omitempty"`
}

// DisplayConfig assigns a label to the first physical display of a kind.
type DisplayConfig struct {
	Label string `yaml:"label"`
	Kind  string `yaml:"kind"` // "builtin" or "external"
}

// Rule matches applications by name and overrides their treatment.
// Rules are immutable after load.
type Rule struct {
	App     string       `yaml:"app"`
	Space   string       `yaml:"space,omitempty"`
	Manage  *bool        `yaml:"manage,omitempty"`
	Opacity *float64     `yaml:"opacity,omitempty"`
	Layer   *WindowLayer `yaml:"layer,omitempty"`
}

// Config is the full daemon configuration.
type Config struct {
	Layout            LayoutMode      `yaml:"layout"`
	Gap               float64         `yaml:"gap"`
	Padding           Padding         `yaml:"padding"`
	SplitRatio        float64         `yaml:"split_ratio"`
	AutoBalance       bool            `yaml:"auto_balance"`
	FocusFollowsMouse FFMMode         `yaml:"focus_follows_mouse"`
	MouseFollowsFocus bool            `yaml:"mouse_follows_focus"`
	ExternalBar       ExternalBar     `yaml:"external_bar"`
	Spaces            []SpaceConfig   `yaml:"spaces"`
	Displays          []DisplayConfig `yaml:"displays"`
	Rules             []Rule          `yaml:"rules"`
}

// Default returns a config with every knob at its default value.
func Default() *Config {
	return &Config{
		Layout:            LayoutBSP,
		Gap:               8,
		SplitRatio:        0.5,
		FocusFollowsMouse: FFMOff,
		ExternalBar:       ExternalBar{Position: BarOff},
	}
}

// LoadConfig loads configuration from the specified path or default location.
// If path is empty, uses ~/.config/skyline/config.yaml. A missing default
// file is not an error: the daemon starts with defaults.
func LoadConfig(path string) (*Config, error) {
	explicit := path != ""
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot determine home directory: %w", err)
		}
		path = filepath.Join(home, DefaultConfigDir, DefaultConfigFile)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return LoadConfigFromBytes(data)
}

// LoadConfigFromBytes loads configuration from raw YAML bytes.
func LoadConfigFromBytes(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetConfigPath returns the default config file path
func GetConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, DefaultConfigDir, DefaultConfigFile)
}
