// Package config handles configuration loading from TOML files and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
)

// Config is the root configuration structure.
type Config struct {
	LogLevel  string          `toml:"log_level"`
	Editor    EditorConfig    `toml:"editor"`
	Indent    IndentConfig    `toml:"indent"`
	Highlight HighlightConfig `toml:"highlight"`
}

// EditorConfig holds text layout settings.
type EditorConfig struct {
	TabWidth int `toml:"tab_width"`
	// IndentWidth is the number of spaces per level when detection fails
	// and UseTabs is off.
	IndentWidth int  `toml:"indent_width"`
	UseTabs     bool `toml:"use_tabs"`
}

// IndentConfig bounds indent detection.
type IndentConfig struct {
	SampleLines int `toml:"sample_lines"`
	MinVotes    int `toml:"min_votes"`
}

// HighlightConfig holds highlighting settings.
type HighlightConfig struct {
	// Theme is a Chroma style name.
	Theme string `toml:"theme"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		LogLevel:  "warn",
		Editor:    EditorConfig{TabWidth: 4, IndentWidth: 4},
		Indent:    IndentConfig{SampleLines: 100, MinVotes: 5},
		Highlight: HighlightConfig{Theme: "vulcan"},
	}
}

// Load reads configuration from a TOML file over the defaults and applies
// environment variable overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate returns an error if the configuration is invalid.
func (c *Config) Validate() error {
	var errs []error

	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level=%q is invalid: %v", c.LogLevel, err))
	}
	if c.Editor.TabWidth < 1 || c.Editor.TabWidth > 16 {
		errs = append(errs, fmt.Errorf("editor.tab_width=%d must be between 1 and 16", c.Editor.TabWidth))
	}
	if c.Editor.IndentWidth < 1 || c.Editor.IndentWidth > 16 {
		errs = append(errs, fmt.Errorf("editor.indent_width=%d must be between 1 and 16", c.Editor.IndentWidth))
	}
	if c.Indent.SampleLines < 1 {
		errs = append(errs, fmt.Errorf("indent.sample_lines=%d must be positive", c.Indent.SampleLines))
	}
	if c.Indent.MinVotes < 1 {
		errs = append(errs, fmt.Errorf("indent.min_votes=%d must be positive", c.Indent.MinVotes))
	} else if c.Indent.MinVotes > c.Indent.SampleLines {
		errs = append(errs, fmt.Errorf("indent.min_votes=%d exceeds indent.sample_lines=%d", c.Indent.MinVotes, c.Indent.SampleLines))
	}
	if c.Highlight.Theme == "" {
		errs = append(errs, errors.New("highlight.theme is required"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Level returns the parsed log level, falling back to warn.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.WarnLevel
	}
	return lvl
}

// applyEnvOverrides applies QUILL_* environment variable overrides.
func applyEnvOverrides(cfg *Config) error {
	var errs []error
	atoi := func(env string, dst *int) func(string) {
		return func(v string) {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s=%q: %w", env, v, err))
				return
			}
			*dst = n
		}
	}
	for _, setter := range []struct {
		env   string
		apply func(string)
	}{
		{"QUILL_LOG_LEVEL", func(v string) { cfg.LogLevel = v }},
		{"QUILL_TAB_WIDTH", atoi("QUILL_TAB_WIDTH", &cfg.Editor.TabWidth)},
		{"QUILL_INDENT_WIDTH", atoi("QUILL_INDENT_WIDTH", &cfg.Editor.IndentWidth)},
		{"QUILL_USE_TABS", func(v string) {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("QUILL_USE_TABS=%q: %w", v, err))
				return
			}
			cfg.Editor.UseTabs = b
		}},
		{"QUILL_INDENT_SAMPLE_LINES", atoi("QUILL_INDENT_SAMPLE_LINES", &cfg.Indent.SampleLines)},
		{"QUILL_INDENT_MIN_VOTES", atoi("QUILL_INDENT_MIN_VOTES", &cfg.Indent.MinVotes)},
		{"QUILL_THEME", func(v string) { cfg.Highlight.Theme = v }},
	} {
		if v := os.Getenv(setter.env); v != "" {
			setter.apply(v)
		}
	}
	return errors.Join(errs...)
}

// DataDir returns the path to the quill config directory (~/.config/quill).
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "quill"), nil
}

// DefaultPath returns ~/.config/quill/config.toml when it exists, or "".
func DefaultPath() string {
	dir, err := DataDir()
	if err != nil {
		return ""
	}
	path := filepath.Join(dir, "config.toml")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
