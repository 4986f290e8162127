package calltrace

import (
	"context"
	"fmt"
	"strings"

	"github.com/sethvargo/go-envconfig"
)

// Config holds the environment-derived settings of a Tracer.
//
// Two signals enable tracing: the generic DEBUG variable and the
// tracer-specific CALLTRACE variable. Either one being truthy is enough.
type Config struct {
	Debug string `env:"DEBUG"`
	Trace string `env:"CALLTRACE"`
	Color string `env:"CALLTRACE_COLOR,default=auto"` // auto|always|never
}

// LoadConfig reads Config from the process environment.
func LoadConfig(ctx context.Context) (Config, error) {
	return loadConfig(ctx, envconfig.OsLookuper())
}

func loadConfig(ctx context.Context, l envconfig.Lookuper) (Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: l,
	}); err != nil {
		return Config{}, fmt.Errorf("calltrace: processing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate validates the configuration.
func (c Config) Validate() error {
	_, err := ParseColorMode(c.Color)
	return err
}

// Enabled reports whether either activation signal is set.
func (c Config) Enabled() bool {
	return truthy(c.Debug) || truthy(c.Trace)
}

// options converts the configuration into tracer options.
func (c Config) options() []Option {
	mode, _ := ParseColorMode(c.Color)
	return []Option{
		WithEnabled(c.Enabled()),
		WithColor(mode),
	}
}

func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "false", "off", "no":
		return false
	default:
		return true
	}
}

// ColorMode controls whether markers are colorized.
type ColorMode uint8

const (
	ColorNever  ColorMode = iota // plain text
	ColorAuto                    // colorize when the output is a terminal
	ColorAlways                  // always colorize
)

// ParseColorMode converts a string to a ColorMode. The empty string means auto.
func ParseColorMode(s string) (ColorMode, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return ColorAuto, nil
	case "always", "on":
		return ColorAlways, nil
	case "never", "off":
		return ColorNever, nil
	default:
		return ColorNever, fmt.Errorf("%w: %q (expected: auto|always|never)", ErrInvalidColorMode, s)
	}
}

// String returns the string representation of ColorMode.
func (m ColorMode) String() string {
	switch m {
	case ColorNever:
		return "never"
	case ColorAuto:
		return "auto"
	case ColorAlways:
		return "always"
	default:
		return "unknown"
	}
}
