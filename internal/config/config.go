package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/winloop/internal/platform"
)

// Config holds everything winloop reads from its config file.
type Config struct {
	Backend      string
	ControlFlow  platform.ControlFlow
	PollInterval time.Duration
	Heartbeat    time.Duration
	LogLevel     slog.Level
	LogFile      string
	Theme        string
	Window       platform.WindowAttributes
}

const (
	defaultConfigPath = "~/.config/winloop/config.toml"
	defaultLogFile    = "~/.local/state/winloop/winloop.log"
	defaultBackend    = "auto"
	defaultTheme      = "Nightfox"
)

// Backends lists the accepted values of the backend key.
var Backends = []string{"auto", "x11", "terminal", "headless"}

type rawWindow struct {
	Title       string `toml:"title"`
	Width       int    `toml:"width"`
	Height      int    `toml:"height"`
	Resizable   *bool  `toml:"resizable"`
	Decorations *bool  `toml:"decorations"`
	Visible     *bool  `toml:"visible"`
}

type rawConfig struct {
	Backend      string    `toml:"backend"`
	ControlFlow  string    `toml:"control_flow"`
	PollInterval string    `toml:"poll_interval"`
	Heartbeat    string    `toml:"heartbeat"`
	LogLevel     string    `toml:"log_level"`
	LogFile      string    `toml:"log_file"`
	Theme        string    `toml:"theme"`
	Window       rawWindow `toml:"window"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Backend:      defaultBackend,
		ControlFlow:  platform.Wait,
		PollInterval: platform.DefaultPollInterval,
		LogLevel:     slog.LevelInfo,
		LogFile:      mustExpand(defaultLogFile),
		Theme:        defaultTheme,
		Window:       platform.DefaultWindowAttributes(),
	}
}

// Load locates and parses the winloop config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := apply(&cfg, raw); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", resolved, err)
	}
	return cfg, nil
}

func apply(cfg *Config, raw rawConfig) error {
	if backend := strings.ToLower(strings.TrimSpace(raw.Backend)); backend != "" {
		if !slices.Contains(Backends, backend) {
			return fmt.Errorf("backend %q not one of %s", raw.Backend, strings.Join(Backends, ", "))
		}
		cfg.Backend = backend
	}

	flow, err := platform.ParseControlFlow(raw.ControlFlow)
	if err != nil {
		return err
	}
	cfg.ControlFlow = flow

	poll, err := parseDuration("poll_interval", raw.PollInterval)
	if err != nil {
		return err
	}
	if poll > 0 {
		cfg.PollInterval = poll
	}
	if cfg.Heartbeat, err = parseDuration("heartbeat", raw.Heartbeat); err != nil {
		return err
	}

	if level := strings.TrimSpace(raw.LogLevel); level != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(level)); err != nil {
			return fmt.Errorf("log_level: %w", err)
		}
	}
	if logFile := strings.TrimSpace(raw.LogFile); logFile != "" {
		cfg.LogFile = mustExpand(logFile)
	}
	if theme := strings.TrimSpace(raw.Theme); theme != "" {
		cfg.Theme = theme
	}

	w := &cfg.Window
	w.Title = strings.TrimSpace(raw.Window.Title)
	w.Width = raw.Window.Width
	w.Height = raw.Window.Height
	if raw.Window.Resizable != nil {
		w.Resizable = *raw.Window.Resizable
	}
	if raw.Window.Decorations != nil {
		w.Decorations = *raw.Window.Decorations
	}
	if raw.Window.Visible != nil {
		w.Visible = *raw.Window.Visible
	}
	return w.Validate()
}

func parseDuration(key, value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: negative duration %s", key, d)
	}
	return d, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
