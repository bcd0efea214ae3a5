// Package config reads replacer settings from the environment.
//
// Every setting has a REPLACER_ variable; command-line flags override the
// environment after ParseEnv has run.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/roach88/replacer/internal/engine"
	"github.com/roach88/replacer/internal/rules"
)

const markerVar = "REPLACER_MARKER"

// Config holds the plugin settings. Rules is the only required option.
type Config struct {
	Rules    string        `env:"REPLACER_RULES"`
	Format   string        `env:"REPLACER_FORMAT"`
	Marker   string        `env:"REPLACER_MARKER"`
	UserName string        `env:"REPLACER_USER_NAME" envDefault:"Replacer"`
	Journal  string        `env:"REPLACER_JOURNAL"`
	Watch    bool          `env:"REPLACER_WATCH" envDefault:"true"` // reload the rule source on change
	Debounce time.Duration `env:"REPLACER_DEBOUNCE" envDefault:"100ms"`
}

// ParseEnv loads configuration from the process environment.
func ParseEnv() (Config, error) {
	return ParseEnvFrom(env.ToMap(os.Environ()))
}

// ParseEnvFrom loads configuration from the given variables.
//
// An unset REPLACER_MARKER selects the default marker; a set but empty one
// disables gating. Marker values may use the \n, \t and \\ escapes.
func ParseEnvFrom(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if _, ok := environ[markerVar]; ok {
		cfg.Marker = Unescape(cfg.Marker)
	} else {
		cfg.Marker = engine.DefaultMarker
	}
	return cfg, nil
}

// Validate reports every problem with the configuration.
func (c Config) Validate() error {
	var errs []error
	if c.Rules == "" {
		errs = append(errs, errors.New("rule source is required (REPLACER_RULES or --rules)"))
	}
	if c.Format != "" && !slices.Contains(rules.Formats(), c.Format) {
		errs = append(errs, fmt.Errorf("unknown rule format %q (supported: %s)", c.Format, strings.Join(rules.Formats(), ", ")))
	}
	if strings.TrimSpace(c.UserName) == "" {
		errs = append(errs, errors.New("user name must not be empty"))
	}
	if c.Debounce < 0 {
		errs = append(errs, fmt.Errorf("debounce must not be negative, got %s", c.Debounce))
	}
	return errors.Join(errs...)
}

var unescaper = strings.NewReplacer(`\\`, `\`, `\n`, "\n", `\t`, "\t", `\r`, "\r", `\s`, " ")

// Unescape expands the key-file escapes \n, \t, \r, \s and \\.
func Unescape(s string) string {
	return unescaper.Replace(s)
}
