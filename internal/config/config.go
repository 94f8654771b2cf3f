package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	RecordingsDir string           `yaml:"recordings_dir"`
	Hotkey        HotkeyConfig     `yaml:"hotkey"`
	Audio         AudioConfig      `yaml:"audio"`
	Deliver       DeliverConfig    `yaml:"deliver"`
	Transcribe    TranscribeConfig `yaml:"transcribe"`
	Correct       CorrectConfig    `yaml:"correct"`
	LogLevel      string           `yaml:"log_level"`
}

// HotkeyConfig holds hotkey-related settings.
type HotkeyConfig struct {
	Keys []string `yaml:"keys"`
	Mode string   `yaml:"mode"` // "toggle" or "hold"
}

// AudioConfig holds audio capture settings.
type AudioConfig struct {
	SampleRate uint32 `yaml:"sample_rate"`
	Channels   uint32 `yaml:"channels"`
	// MinDuration is the shortest clip, in seconds, worth transcribing.
	MinDuration float64 `yaml:"min_duration"`
}

// DeliverConfig holds text delivery settings.
type DeliverConfig struct {
	Method string `yaml:"method"` // "type" or "paste"
}

// TranscribeConfig holds speech-to-text settings.
type TranscribeConfig struct {
	Backend string `yaml:"backend"` // "server" or "openai"
	// ServerURL is the base URL of a local whisper server
	// (whisper.cpp server or faster-whisper) for the "server" backend.
	ServerURL string `yaml:"server_url"`
	Model     string `yaml:"model"`
	// APIKey authenticates the "openai" backend. May also come from
	// the OPENAI_API_KEY environment variable.
	APIKey string `yaml:"api_key"`
	// TimeoutSeconds bounds a single transcription request. A timeout
	// is reported like any other transcription failure; the audio file
	// is kept on disk either way.
	TimeoutSeconds int  `yaml:"timeout_seconds"`
	HTTP2          bool `yaml:"http2"`
}

// CorrectConfig holds LLM transcript correction settings.
type CorrectConfig struct {
	Enabled bool   `yaml:"enabled"`
	Region  string `yaml:"region"`
	ModelID string `yaml:"model_id"`
	Profile string `yaml:"profile"`
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "dictator")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// DefaultDataDir returns the directory for recordings and metadata.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".dictator", "recordings")
}

// DefaultModelsDir returns the directory where downloaded models live.
func DefaultModelsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "dictator", "models")
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		RecordingsDir: DefaultDataDir(),
		Hotkey: HotkeyConfig{
			Keys: []string{"alt", "space"},
			Mode: "toggle",
		},
		Audio: AudioConfig{
			SampleRate:  16000,
			Channels:    1,
			MinDuration: 0.3,
		},
		Deliver: DeliverConfig{
			Method: "type",
		},
		Transcribe: TranscribeConfig{
			Backend:        "server",
			ServerURL:      "http://127.0.0.1:8080",
			Model:          "base.en",
			TimeoutSeconds: 120,
		},
		Correct: CorrectConfig{
			Enabled: false,
			Region:  "us-east-1",
			ModelID: "anthropic.claude-3-5-haiku-20241022-v1:0",
		},
		LogLevel: "info",
	}
}

// Load reads and parses a YAML config file. Missing fields are filled
// with defaults. Tilde (~) in recordings_dir is expanded to the user's
// home directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.RecordingsDir = expandTilde(cfg.RecordingsDir)

	return cfg, nil
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if c.RecordingsDir == "" {
		return fmt.Errorf("recordings_dir must not be empty")
	}

	if len(c.Hotkey.Keys) == 0 {
		return fmt.Errorf("hotkey.keys must not be empty")
	}

	switch c.Hotkey.Mode {
	case "toggle", "hold":
	default:
		return fmt.Errorf("hotkey.mode must be \"toggle\" or \"hold\", got %q", c.Hotkey.Mode)
	}

	if c.Audio.SampleRate == 0 {
		return fmt.Errorf("audio.sample_rate must be > 0")
	}

	if c.Audio.Channels == 0 {
		return fmt.Errorf("audio.channels must be > 0")
	}

	switch c.Deliver.Method {
	case "type", "paste":
	default:
		return fmt.Errorf("deliver.method must be \"type\" or \"paste\", got %q", c.Deliver.Method)
	}

	switch c.Transcribe.Backend {
	case "server":
		if c.Transcribe.ServerURL == "" {
			return fmt.Errorf("transcribe.server_url must not be empty for the server backend")
		}
	case "openai":
	default:
		return fmt.Errorf("transcribe.backend must be \"server\" or \"openai\", got %q", c.Transcribe.Backend)
	}

	if c.Transcribe.TimeoutSeconds < 0 {
		return fmt.Errorf("transcribe.timeout_seconds must be >= 0")
	}

	if c.Correct.Enabled && c.Correct.ModelID == "" {
		return fmt.Errorf("correct.model_id must not be empty when correction is enabled")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	return nil
}

// ParseLogLevel maps a config log level string to a slog.Level.
// Unknown values default to info.
func ParseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WriteDefault writes a commented default config file to the default
// path if none exists yet. It returns the written path, or "" when a
// config file is already present.
func WriteDefault() (string, error) {
	path := DefaultConfigPath()
	if _, err := os.Stat(path); err == nil {
		return "", nil
	}

	if err := os.MkdirAll(DefaultConfigDir(), 0755); err != nil {
		return "", fmt.Errorf("creating config dir: %w", err)
	}

	body, err := yaml.Marshal(Default())
	if err != nil {
		return "", fmt.Errorf("marshaling default config: %w", err)
	}

	content := "# dictator configuration\n# Remove any field to fall back to its default.\n" + string(body)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("writing default config: %w", err)
	}

	return path, nil
}

// expandTilde replaces a leading ~ with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
