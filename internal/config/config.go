package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"

	"github.com/GriffinCanCode/wincmd/internal/encoding"
)

// Config holds all application configuration.
type Config struct {
	Session  SessionConfig  `toml:"session"`
	Process  ProcessConfig  `toml:"process"`
	Shell    ShellConfig    `toml:"shell"`
	Logging  LogConfig      `toml:"logging"`
	Metrics  MetricsConfig  `toml:"metrics"`
	Console  ConsoleConfig  `toml:"console"`
	Behavior BehaviorConfig `toml:"behavior"`
}

// SessionConfig bounds the visible buffer and picks the output encoding.
type SessionConfig struct {
	MaxChars  int    `envconfig:"WINCMD_MAX_CHARS" default:"50000" toml:"max_chars"`
	TrimSlack int    `envconfig:"WINCMD_TRIM_SLACK" default:"10000" toml:"trim_slack"`
	Encoding  string `envconfig:"WINCMD_ENCODING" default:"platform" toml:"encoding"`
}

// ProcessConfig controls how child processes are spawned.
type ProcessConfig struct {
	// Interpreter and InterpreterFlag override the platform command
	// interpreter (cmd.exe /C or sh -c). Empty means platform default.
	Interpreter     string   `envconfig:"WINCMD_INTERPRETER" toml:"interpreter"`
	InterpreterFlag string   `envconfig:"WINCMD_INTERPRETER_FLAG" toml:"interpreter_flag"`
	PTY             bool     `envconfig:"WINCMD_PTY" default:"false" toml:"pty"`
	DrainGrace      Duration `envconfig:"WINCMD_DRAIN_GRACE" default:"250ms" toml:"drain_grace"`
}

// ShellConfig holds interpreter behavior.
type ShellConfig struct {
	// StartupCommand is spawned when the program starts without arguments
	// and again on restart. Empty starts at a bare prompt.
	StartupCommand  string   `envconfig:"WINCMD_STARTUP" toml:"startup_command"`
	PromptMarker    string   `envconfig:"WINCMD_PROMPT_MARKER" default:">" toml:"prompt_marker"`
	ExclusiveInput  bool     `envconfig:"WINCMD_EXCLUSIVE_INPUT" default:"false" toml:"exclusive_input"`
	RestartFailures int      `envconfig:"WINCMD_RESTART_FAILURES" default:"3" toml:"restart_failures"`
	RestartCooldown Duration `envconfig:"WINCMD_RESTART_COOLDOWN" default:"10s" toml:"restart_cooldown"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"WINCMD_LOG_LEVEL" default:"info" toml:"level"`
	Development bool   `envconfig:"WINCMD_LOG_DEV" default:"false" toml:"development"`
	// Output is a file path, "stdout" or "stderr". Empty lets the console
	// driver pick a file under the temp dir.
	Output string `envconfig:"WINCMD_LOG_OUTPUT" toml:"output"`
}

// MetricsConfig holds the Prometheus exposition settings.
type MetricsConfig struct {
	// Addr enables a /metrics listener when non-empty (e.g. "127.0.0.1:9464").
	Addr string `envconfig:"WINCMD_METRICS_ADDR" toml:"addr"`
}

// ConsoleConfig drives the frame loop.
type ConsoleConfig struct {
	FrameRate     int  `envconfig:"WINCMD_FRAME_RATE" default:"30" toml:"frame_rate"`
	ExitWithChild bool `envconfig:"WINCMD_EXIT_WITH_CHILD" default:"true" toml:"exit_with_child"`
}

// BehaviorConfig replaces the old behavior bitmask with named switches.
// Only the console driver reads them.
type BehaviorConfig struct {
	// LimitDigits refuses a fourth digit on the pending input line.
	LimitDigits bool `envconfig:"WINCMD_LIMIT_DIGITS" default:"false" toml:"limit_digits"`
	// Substitute rewrites a fixed set of words at display time.
	Substitute bool `envconfig:"WINCMD_SUBSTITUTE" default:"false" toml:"substitute"`
}

// Duration is a time.Duration that decodes from strings like "250ms" in
// both environment variables and TOML files.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

var (
	ErrInvalidMaxChars  = errors.New("max chars must be positive")
	ErrInvalidTrimSlack = errors.New("trim slack must not be negative")
	ErrInvalidFrameRate = errors.New("frame rate must be positive")
	ErrUnknownEncoding  = errors.New("unknown encoding")
)

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile loads the environment configuration and overlays the TOML file
// at path on top of it. Keys present in the file win.
func LoadFile(path string) (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Session: SessionConfig{
			MaxChars:  50000,
			TrimSlack: 10000,
			Encoding:  encoding.NamePlatform,
		},
		Process: ProcessConfig{
			DrainGrace: Duration(250 * time.Millisecond),
		},
		Shell: ShellConfig{
			PromptMarker:    ">",
			RestartFailures: 3,
			RestartCooldown: Duration(10 * time.Second),
		},
		Logging: LogConfig{
			Level: "info",
		},
		Console: ConsoleConfig{
			FrameRate:     30,
			ExitWithChild: true,
		},
	}
}

// Validate checks values that would otherwise break the session loop.
func (c *Config) Validate() error {
	if c.Session.MaxChars <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxChars, c.Session.MaxChars)
	}
	if c.Session.TrimSlack < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTrimSlack, c.Session.TrimSlack)
	}
	if c.Console.FrameRate <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidFrameRate, c.Console.FrameRate)
	}
	if !encoding.Valid(c.Session.Encoding) {
		return fmt.Errorf("%w: %q", ErrUnknownEncoding, c.Session.Encoding)
	}
	return nil
}
