// Package config loads chatstream settings from defaults, an optional YAML
// file and CHATSTREAM_* environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix is the prefix of environment variables that override settings.
const EnvPrefix = "CHATSTREAM_"

// Settings holds the values used to run completions.
type Settings struct {
	Provider    string        `yaml:"provider" koanf:"provider"`
	BaseURL     string        `yaml:"base_url" koanf:"base_url"`
	APIKey      string        `yaml:"api_key" koanf:"api_key"`
	Model       string        `yaml:"model" koanf:"model"`
	ReadTimeout time.Duration `yaml:"read_timeout" koanf:"read_timeout"`
	LogLevel    string        `yaml:"log_level" koanf:"log_level"`
	LogFormat   string        `yaml:"log_format" koanf:"log_format"`
}

// Default returns Settings with defaults applied.
func Default() *Settings {
	return &Settings{
		Provider:    "openai",
		ReadTimeout: 600 * time.Second,
		LogLevel:    "warn",
		LogFormat:   "console",
	}
}

// Load reads settings from the YAML file at path, if it exists, then
// overlays environment variables (CHATSTREAM_MODEL -> model, etc.).
// An empty path skips the file.
func Load(path string) (*Settings, error) {
	k := koanf.New(".")
	s := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", s); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if s.APIKey == "" {
		s.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	return s, nil
}

// Validate checks that the settings contain usable values.
func (s *Settings) Validate() error {
	if s.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if s.ReadTimeout < 0 {
		return fmt.Errorf("read_timeout must be non-negative")
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", s.LogLevel, err)
	}

	switch s.LogFormat {
	case "json", "console", "":
	default:
		return fmt.Errorf("invalid log_format %q: must be \"json\" or \"console\"", s.LogFormat)
	}

	return nil
}
