package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ControllerType identifies the kind of controller
type ControllerType string

const (
	ControllerLaunchpadX    ControllerType = "launchpad-x"
	ControllerLaunchpadMini ControllerType = "launchpad-mini"
	ControllerLaunchpadPro  ControllerType = "launchpad-pro"
	ControllerKeyboard      ControllerType = "keyboard"
)

// ControllerConfig defines a saved controller configuration
type ControllerConfig struct {
	PortName    string         `json:"portName"`
	Type        ControllerType `json:"type"`
	AutoConnect bool           `json:"autoConnect"`
	BaseNote    int            `json:"baseNote,omitempty"` // grid bottom-left, launchpads only
}

// MIDIConfig controls port discovery
type MIDIConfig struct {
	ExcludedPorts  []string `json:"excludedPorts,omitempty"`
	PollIntervalMs int      `json:"pollIntervalMs"`
}

// ConversationConfig holds the voice keywords and query policy
type ConversationConfig struct {
	ActivationWords   []string `json:"activationWords"`
	ConfirmationWords []string `json:"confirmationWords"`
	FallbackQuery     string   `json:"fallbackQuery"`
	QueryTimeoutSec   int      `json:"queryTimeoutSec"`
}

// BufferConfig sizes the rolling note history
type BufferConfig struct {
	WindowSec int `json:"windowSec"`
	IdleSec   int `json:"idleSec"`
}

// PlaybackConfig holds timing for answer playback and the composer.
// Hold and step are in bars at Tempo.
type PlaybackConfig struct {
	Tempo           float64 `json:"tempo"`
	HoldUnits       float64 `json:"holdUnits"`
	StepUnits       float64 `json:"stepUnits"`
	PreviewFraction float64 `json:"previewFraction"`
	Velocity        float64 `json:"velocity"`
	DebounceMs      int     `json:"debounceMs"`
	ReleaseOffsetMs int     `json:"releaseOffsetMs"`
	MinDurationMs   int     `json:"minDurationMs"`
	ReadingDelayMs  int     `json:"readingDelayMs"`
}

// AudioConfig selects the sound engine
type AudioConfig struct {
	Enabled    bool   `json:"enabled"`
	SoundFont  string `json:"soundFont,omitempty"`
	SampleRate int    `json:"sampleRate"`
	Program    int    `json:"program"`
}

// AssistantConfig selects the reasoning backend. Keys come from the environment.
type AssistantConfig struct {
	Provider     string `json:"provider"`
	Model        string `json:"model"`
	GeminiAPIKey string `json:"-"`
	OpenAIAPIKey string `json:"-"`
}

// SpeechConfig configures the external recognizer process
type SpeechConfig struct {
	Command        []string `json:"command,omitempty"`
	RestartDelayMs int      `json:"restartDelayMs"`
	RestartBurst   int      `json:"restartBurst"`
}

// RemoteConfig configures the local control API. Empty Listen disables it.
type RemoteConfig struct {
	Listen string `json:"listen,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Controllers  []ControllerConfig `json:"controllers,omitempty"`
	MIDI         MIDIConfig         `json:"midi"`
	Conversation ConversationConfig `json:"conversation"`
	Buffer       BufferConfig       `json:"buffer"`
	Playback     PlaybackConfig     `json:"playback"`
	Audio        AudioConfig        `json:"audio"`
	Assistant    AssistantConfig    `json:"assistant"`
	Speech       SpeechConfig       `json:"speech"`
	Remote       RemoteConfig       `json:"remote"`
	SentryDSN    string             `json:"sentryDsn,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Controllers: []ControllerConfig{
			{
				PortName:    "Launchpad X LPX MIDI",
				Type:        ControllerLaunchpadX,
				AutoConnect: true,
				BaseNote:    48,
			},
		},
		MIDI: MIDIConfig{
			ExcludedPorts:  []string{"Midi Through", "Through Port", "Dummy"},
			PollIntervalMs: 1000,
		},
		Conversation: ConversationConfig{
			ActivationWords:   []string{"lynx", "links", "link"},
			ConfirmationWords: []string{"answer", "answers"},
			FallbackQuery:     "Analyze what I just played.",
			QueryTimeoutSec:   45,
		},
		Buffer: BufferConfig{
			WindowSec: 300,
			IdleSec:   180,
		},
		Playback: PlaybackConfig{
			Tempo:           120,
			HoldUnits:       0.8,
			StepUnits:       1.0,
			PreviewFraction: 0.95,
			Velocity:        0.8,
			DebounceMs:      300,
			ReleaseOffsetMs: 100,
			MinDurationMs:   500,
			ReadingDelayMs:  1500,
		},
		Audio: AudioConfig{
			Enabled:    true,
			SampleRate: 44100,
		},
		Assistant: AssistantConfig{
			Provider: "gemini",
			Model:    "gemini-2.5-flash",
		},
		Speech: SpeechConfig{
			RestartDelayMs: 300,
			RestartBurst:   3,
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "rifflynx"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads a config file at path. Fields missing from the file keep
// their defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to path, creating its directory
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ApplyEnv pulls secrets from the environment. Call after godotenv.Load.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Assistant.GeminiAPIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Assistant.OpenAIAPIKey = v
	}
	if v := os.Getenv("SENTRY_DSN"); v != "" {
		c.SentryDSN = v
	}
}

// FindController finds a controller config by port name
func (c *Config) FindController(portName string) *ControllerConfig {
	for i := range c.Controllers {
		if c.Controllers[i].PortName == portName {
			return &c.Controllers[i]
		}
	}
	return nil
}

// AddController adds or updates a controller config
func (c *Config) AddController(ctrl ControllerConfig) {
	for i := range c.Controllers {
		if c.Controllers[i].PortName == ctrl.PortName {
			c.Controllers[i] = ctrl
			return
		}
	}
	c.Controllers = append(c.Controllers, ctrl)
}

// AutoConnectControllers returns controllers with autoConnect enabled
func (c *Config) AutoConnectControllers() []ControllerConfig {
	var result []ControllerConfig
	for _, ctrl := range c.Controllers {
		if ctrl.AutoConnect {
			result = append(result, ctrl)
		}
	}
	return result
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

// PollInterval is the port scan period
func (m MIDIConfig) PollInterval() time.Duration { return ms(m.PollIntervalMs) }

// QueryTimeout bounds a single reasoning request
func (c ConversationConfig) QueryTimeout() time.Duration {
	return time.Duration(c.QueryTimeoutSec) * time.Second
}

func (b BufferConfig) Window() time.Duration { return time.Duration(b.WindowSec) * time.Second }
func (b BufferConfig) Idle() time.Duration   { return time.Duration(b.IdleSec) * time.Second }

// UnitSeconds is the length of one time unit (a 4/4 bar) at Tempo
func (p PlaybackConfig) UnitSeconds() float64 {
	if p.Tempo <= 0 {
		return 2
	}
	return 4 * 60 / p.Tempo
}

func (p PlaybackConfig) Debounce() time.Duration      { return ms(p.DebounceMs) }
func (p PlaybackConfig) ReleaseOffset() time.Duration { return ms(p.ReleaseOffsetMs) }
func (p PlaybackConfig) MinDuration() time.Duration   { return ms(p.MinDurationMs) }
func (p PlaybackConfig) ReadingDelay() time.Duration  { return ms(p.ReadingDelayMs) }

// RestartDelay is the pause before a recognizer restarts after a benign end
func (s SpeechConfig) RestartDelay() time.Duration { return ms(s.RestartDelayMs) }
