// Package config loads repohooks settings from defaults, an optional YAML
// file and REPOHOOKS_ environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultFile is read from the working directory when no --config is given.
const DefaultFile = ".repohooks.yaml"

const envPrefix = "REPOHOOKS_"

var validate = validator.New()

type Config struct {
	Logging    LoggingConfig    `koanf:"logging"`
	Relnote    RelnoteConfig    `koanf:"relnote"`
	Checkstyle CheckstyleConfig `koanf:"checkstyle"`
	History    HistoryConfig    `koanf:"history"`
}

type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn warning error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

type RelnoteConfig struct {
	Field string `koanf:"field" validate:"required"`
}

type CheckstyleConfig struct {
	// Script overrides <repo_root>/prebuilts/checkstyle/checkstyle.py. It may
	// carry an interpreter prefix, e.g. "python3 tools/checkstyle.py".
	Script  string        `koanf:"script"`
	Exclude []string      `koanf:"exclude"`
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
}

type HistoryConfig struct {
	Enabled bool   `koanf:"enabled"`
	DBPath  string `koanf:"db_path"`
}

// Defaults returns a Config with the values used when nothing is configured.
func Defaults() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
		Relnote: RelnoteConfig{
			Field: "Relnote",
		},
		Checkstyle: CheckstyleConfig{
			Exclude: []string{"car-media-extensions"},
			Timeout: 10 * time.Minute,
		},
		History: HistoryConfig{
			Enabled: true,
		},
	}
}

// Load reads configuration from YAML file + environment variables.
// Loading order: defaults → YAML file → env vars (later overrides earlier).
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	cfg := Defaults()

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", configPath, err)
		}
	} else if _, err := os.Stat(DefaultFile); err == nil {
		if err := k.Load(file.Provider(DefaultFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", DefaultFile, err)
		}
	}

	// REPOHOOKS_CHECKSTYLE__TIMEOUT → checkstyle.timeout
	// REPOHOOKS_HOME and REPOHOOKS_DB are path overrides, not config keys.
	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		if s == EnvHome || s == EnvDB {
			return ""
		}
		s = strings.TrimPrefix(s, envPrefix)
		s = strings.ToLower(s)
		return strings.ReplaceAll(s, "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the struct tags on cfg and reports the first bad field
// by its dotted key.
func Validate(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		e := verrs[0]
		return fmt.Errorf("config: %s: %s", keyFor(e.Namespace()), formatValidationError(e))
	}
	return fmt.Errorf("config: %w", err)
}

// keyFor maps "Config.Checkstyle.Timeout" to "checkstyle.timeout".
func keyFor(ns string) string {
	ns = strings.TrimPrefix(ns, "Config.")
	return strings.ToLower(ns)
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "field is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", e.Param(), e.Value())
	case "gt":
		return "must be positive"
	default:
		return "invalid value"
	}
}
