package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the application configuration.
type Config struct {
	// DebounceMS is the inactivity delay before a free-text edit is committed.
	DebounceMS int `yaml:"debounce_ms"`

	Log        LogConfig        `yaml:"log"`
	Vocabulary VocabularyConfig `yaml:"vocabulary"`
	Server     ServerConfig     `yaml:"server"`
}

// LogConfig selects the logger encoder.
type LogConfig struct {
	Mode string `yaml:"mode"`
}

// VocabularyConfig points at the remote vocabulary source. Empty URLs mean
// only the bundled configurations are used.
type VocabularyConfig struct {
	ListURL       string        `yaml:"list_url"`
	RawBaseURL    string        `yaml:"raw_base_url"`
	Timeout       time.Duration `yaml:"timeout"`
	DefaultConfig string        `yaml:"default_config"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	SessionTTL     time.Duration `yaml:"session_ttl"`
}

const (
	DefaultDebounceMS    = 400
	DefaultLogMode       = "development"
	DefaultVocabTimeout  = 10 * time.Second
	DefaultVocabConfig   = "Neurobagel"
	DefaultAddr          = ":8080"
	DefaultSessionTTL    = 2 * time.Hour
	envPrefix            = "ANNOTATOR_"
	envListSeparator     = ","
	defaultAllowedOrigin = "http://localhost:5173"
)

// Load reads the YAML file at path (if path is non-empty), applies defaults
// and then environment overrides.
func Load(path string) (*Config, error) {
	var data []byte

	if path != "" {
		var err error

		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	return cfg, cfg.Validate()
}

// Parse parses YAML data into a Config with defaults applied.
func Parse(data []byte) (*Config, error) {
	var cfg Config

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// Debounce returns the debounce delay as a duration.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// Validate rejects configurations that cannot work.
func (c *Config) Validate() error {
	if c.DebounceMS < 0 {
		return errors.New("debounce_ms must not be negative")
	}

	if (c.Vocabulary.ListURL == "") != (c.Vocabulary.RawBaseURL == "") {
		return errors.New("vocabulary.list_url and vocabulary.raw_base_url must be set together")
	}

	return nil
}

// applyDefaults fills in default values for optional fields.
func applyDefaults(cfg *Config) {
	if cfg.DebounceMS == 0 {
		cfg.DebounceMS = DefaultDebounceMS
	}

	if cfg.Log.Mode == "" {
		cfg.Log.Mode = DefaultLogMode
	}

	if cfg.Vocabulary.Timeout == 0 {
		cfg.Vocabulary.Timeout = DefaultVocabTimeout
	}

	if cfg.Vocabulary.DefaultConfig == "" {
		cfg.Vocabulary.DefaultConfig = DefaultVocabConfig
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultAddr
	}

	if cfg.Server.SessionTTL == 0 {
		cfg.Server.SessionTTL = DefaultSessionTTL
	}

	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{defaultAllowedOrigin}
	}
}

// applyEnv overrides fields from ANNOTATOR_* variables.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(envPrefix + name)
		v = strings.TrimSpace(v)

		return v, ok && v != ""
	}

	if v, ok := get("DEBOUNCE_MS"); ok {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sDEBOUNCE_MS %q: %w", envPrefix, v, err)
		}

		cfg.DebounceMS = ms
	}

	if v, ok := get("LOG_MODE"); ok {
		cfg.Log.Mode = v
	}

	if v, ok := get("VOCAB_LIST_URL"); ok {
		cfg.Vocabulary.ListURL = v
	}

	if v, ok := get("VOCAB_RAW_BASE_URL"); ok {
		cfg.Vocabulary.RawBaseURL = v
	}

	if v, ok := get("VOCAB_DEFAULT_CONFIG"); ok {
		cfg.Vocabulary.DefaultConfig = v
	}

	if v, ok := get("VOCAB_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %sVOCAB_TIMEOUT %q: %w", envPrefix, v, err)
		}

		cfg.Vocabulary.Timeout = d
	}

	if v, ok := get("ADDR"); ok {
		cfg.Server.Addr = v
	}

	if v, ok := get("ALLOWED_ORIGINS"); ok {
		cfg.Server.AllowedOrigins = splitList(v)
	}

	if v, ok := get("SESSION_TTL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %sSESSION_TTL %q: %w", envPrefix, v, err)
		}

		cfg.Server.SessionTTL = d
	}

	return nil
}

func splitList(v string) []string {
	var out []string

	for _, part := range strings.Split(v, envListSeparator) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}
