// Package config handles Accountable configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/accountable/config.yaml, /etc/accountable/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "accountable", "config.yaml"))
	}

	paths = append(paths, "/etc/accountable/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all Accountable configuration.
type Config struct {
	Listen        ListenConfig     `yaml:"listen"`
	DataDir       string           `yaml:"data_dir"`
	Database      DatabaseConfig   `yaml:"database"`
	DefaultUserID string           `yaml:"default_user_id"`
	Completion    CompletionConfig `yaml:"completion"`
	Speech        SpeechConfig     `yaml:"speech"`
	MQTT          MQTTConfig       `yaml:"mqtt"`
	LogLevel      string           `yaml:"log_level"`
	LogFormat     string           `yaml:"log_format"` // text (default) or json
}

// ListenConfig defines the API server settings.
type ListenConfig struct {
	Address string `yaml:"address"` // Bind address (default: "" = all interfaces)
	Port    int    `yaml:"port"`
	// AllowedOrigins lists CORS origins for the browser front end.
	// "*" allows any origin.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DatabaseConfig selects the SQLite driver and file name.
type DatabaseConfig struct {
	// Driver is "sqlite3" (mattn, cgo) or "sqlite" (modernc, pure Go).
	Driver string `yaml:"driver"`
	// File is relative to DataDir unless absolute.
	File string `yaml:"file"`
}

// Path returns the database file path resolved against dataDir.
func (d DatabaseConfig) Path(dataDir string) string {
	if filepath.IsAbs(d.File) {
		return d.File
	}
	return filepath.Join(dataDir, d.File)
}

// CompletionConfig defines the OpenAI-compatible chat completion
// provider used for fallback replies.
type CompletionConfig struct {
	BaseURL     string  `yaml:"base_url"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	// RateLimit is the sustained requests per second allowed toward the
	// provider. Burst is the bucket size.
	RateLimit  float64 `yaml:"rate_limit"`
	Burst      int     `yaml:"burst"`
	TimeoutSec int     `yaml:"timeout_sec"`
}

// Configured reports whether the completion provider has credentials.
func (c CompletionConfig) Configured() bool {
	return c.APIKey != ""
}

// SpeechConfig groups the speech provider settings.
type SpeechConfig struct {
	Deepgram DeepgramConfig `yaml:"deepgram"`
	Murf     MurfConfig     `yaml:"murf"`
}

// DeepgramConfig defines the speech-to-text provider.
type DeepgramConfig struct {
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
	Model    string `yaml:"model"`
	Language string `yaml:"language"`
}

// Configured reports whether Deepgram has credentials.
func (c DeepgramConfig) Configured() bool {
	return c.APIKey != ""
}

// MurfConfig defines the text-to-speech provider.
type MurfConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	VoiceID    string `yaml:"voice_id"`
	Format     string `yaml:"format"`
	SampleRate int    `yaml:"sample_rate"`
	Rate       int    `yaml:"rate"`
}

// Configured reports whether Murf has credentials.
func (c MurfConfig) Configured() bool {
	return c.APIKey != ""
}

// MQTTConfig defines the optional broker used to push message and
// reminder notifications to friends' devices.
type MQTTConfig struct {
	Broker      string `yaml:"broker"` // e.g. mqtt://localhost:1883
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	TopicPrefix string `yaml:"topic_prefix"`
	ClientID    string `yaml:"client_id"`
}

// Configured reports whether an MQTT broker is set.
func (c MQTTConfig) Configured() bool {
	return c.Broker != ""
}

// Load reads configuration from a YAML file. Environment variables in
// the form ${VAR} are expanded before parsing, so secrets can stay out
// of the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills zero values. It runs after unmarshal so that
// sections present in the file but missing keys still get defaults.
func (c *Config) applyDefaults() {
	if c.Listen.Port == 0 {
		c.Listen.Port = 5000
	}
	if len(c.Listen.AllowedOrigins) == 0 {
		c.Listen.AllowedOrigins = []string{"*"}
	}
	if c.DataDir == "" {
		c.DataDir = "./data"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite3"
	}
	if c.Database.File == "" {
		c.Database.File = "accountable.db"
	}
	if c.DefaultUserID == "" {
		c.DefaultUserID = "demo123"
	}

	cc := &c.Completion
	if cc.BaseURL == "" {
		cc.BaseURL = "https://api.groq.com/openai/v1"
	}
	if cc.Model == "" {
		cc.Model = "llama-3.1-8b-instant"
	}
	if cc.MaxTokens == 0 {
		cc.MaxTokens = 150
	}
	if cc.Temperature == 0 {
		cc.Temperature = 0.7
	}
	if cc.RateLimit == 0 {
		cc.RateLimit = 2
	}
	if cc.Burst == 0 {
		cc.Burst = 4
	}
	if cc.TimeoutSec == 0 {
		cc.TimeoutSec = 30
	}

	dg := &c.Speech.Deepgram
	if dg.BaseURL == "" {
		dg.BaseURL = "https://api.deepgram.com"
	}
	if dg.Model == "" {
		dg.Model = "nova-2"
	}
	if dg.Language == "" {
		dg.Language = "en-US"
	}

	mf := &c.Speech.Murf
	if mf.BaseURL == "" {
		mf.BaseURL = "https://api.murf.ai"
	}
	if mf.VoiceID == "" {
		mf.VoiceID = "en-US-ken"
	}
	if mf.Format == "" {
		mf.Format = "WAV"
	}
	if mf.SampleRate == 0 {
		mf.SampleRate = 24000
	}
	if mf.Rate == 0 {
		mf.Rate = 10
	}

	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = "accountable"
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "accountable"
	}
}

// Validate checks values that defaults cannot repair.
func (c *Config) Validate() error {
	if c.Listen.Port < 1 || c.Listen.Port > 65535 {
		return fmt.Errorf("listen.port %d out of range", c.Listen.Port)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log_format %q (valid: text, json)", c.LogFormat)
	}
	switch c.Database.Driver {
	case "sqlite3", "sqlite":
	default:
		return fmt.Errorf("unknown database.driver %q (valid: sqlite3, sqlite)", c.Database.Driver)
	}
	if c.Completion.RateLimit < 0 {
		return fmt.Errorf("completion.rate_limit must not be negative")
	}
	return nil
}
