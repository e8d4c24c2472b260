// Package config loads desktop-intent settings. Later sources override
// earlier ones: built-in defaults, an optional YAML file, a .env file in the
// working directory, DESKTOP_INTENT_* environment variables, then command
// flags (applied by the caller).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "DESKTOP_INTENT_"

// EnvConfigFile names the variable holding the YAML config path.
const EnvConfigFile = EnvPrefix + "CONFIG"

// Transport is the MCP transport used by serve.
type Transport string

const (
	TransportStdio Transport = "stdio"
	TransportHTTP  Transport = "http"
)

// Config holds every tunable. Durations in YAML use Go syntax ("250ms").
type Config struct {
	Backend   string `yaml:"backend"`
	Format    string `yaml:"format"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // console or json

	QueueDepth     int           `yaml:"queue_depth"`
	PollInitial    time.Duration `yaml:"poll_initial"`
	PollMax        time.Duration `yaml:"poll_max"`
	ScrollMaxPages int           `yaml:"scroll_max_pages"`
	ScrollSettle   time.Duration `yaml:"scroll_settle"`
	TextMaxDepth   int           `yaml:"text_max_depth"`
	TextMaxBytes   int           `yaml:"text_max_bytes"`
	CloseTimeout   time.Duration `yaml:"close_timeout"`

	InputRate      float64       `yaml:"input_rate"` // events per second, 0 = unpaced
	TypeChunkSize  int           `yaml:"type_chunk_size"`
	TypeChunkDelay time.Duration `yaml:"type_chunk_delay"`

	Transport      Transport     `yaml:"transport"`
	HTTPAddress    string        `yaml:"http_address"`
	RequestRate    float64       `yaml:"request_rate"` // tool calls per second, 0 = unlimited
	RequestBurst   int           `yaml:"request_burst"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// File is the YAML file the config was read from, if any.
	File string `yaml:"-"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Backend:        "native",
		Format:         "yaml",
		LogLevel:       "info",
		LogFormat:      "console",
		QueueDepth:     64,
		PollInitial:    50 * time.Millisecond,
		PollMax:        time.Second,
		ScrollMaxPages: 200,
		ScrollSettle:   100 * time.Millisecond,
		TextMaxDepth:   8,
		TextMaxBytes:   64 << 10,
		CloseTimeout:   5 * time.Second,
		InputRate:      0,
		TypeChunkSize:  32,
		TypeChunkDelay: 5 * time.Millisecond,
		Transport:      TransportStdio,
		HTTPAddress:    "127.0.0.1:8765",
		RequestRate:    20,
		RequestBurst:   5,
		RequestTimeout: 60 * time.Second,
	}
}

// Load builds the configuration from defaults, the YAML file named by
// DESKTOP_INTENT_CONFIG, ./.env and the environment.
func Load() (*Config, error) {
	return LoadPath("")
}

// LoadPath is Load with an explicit YAML path that wins over
// DESKTOP_INTENT_CONFIG.
func LoadPath(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}
	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	return LoadFile(path)
}

// LoadFile is Load without the .env step. An empty path skips the file.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	c.File = path
	return nil
}

func (c *Config) applyEnv() error {
	var err error
	c.Backend = getEnv("BACKEND", c.Backend)
	c.Format = getEnv("FORMAT", c.Format)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
	c.Transport = Transport(getEnv("TRANSPORT", string(c.Transport)))
	c.HTTPAddress = getEnv("HTTP_ADDRESS", c.HTTPAddress)

	ints := []struct {
		key string
		dst *int
	}{
		{"QUEUE_DEPTH", &c.QueueDepth},
		{"SCROLL_MAX_PAGES", &c.ScrollMaxPages},
		{"TEXT_MAX_DEPTH", &c.TextMaxDepth},
		{"TEXT_MAX_BYTES", &c.TextMaxBytes},
		{"TYPE_CHUNK_SIZE", &c.TypeChunkSize},
		{"REQUEST_BURST", &c.RequestBurst},
	}
	for _, f := range ints {
		if *f.dst, err = getEnvAsInt(f.key, *f.dst); err != nil {
			return err
		}
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"POLL_INITIAL", &c.PollInitial},
		{"POLL_MAX", &c.PollMax},
		{"SCROLL_SETTLE", &c.ScrollSettle},
		{"CLOSE_TIMEOUT", &c.CloseTimeout},
		{"TYPE_CHUNK_DELAY", &c.TypeChunkDelay},
		{"REQUEST_TIMEOUT", &c.RequestTimeout},
	}
	for _, f := range durations {
		if *f.dst, err = getEnvAsDuration(f.key, *f.dst); err != nil {
			return err
		}
	}

	if c.InputRate, err = getEnvAsFloat("INPUT_RATE", c.InputRate); err != nil {
		return err
	}
	if c.RequestRate, err = getEnvAsFloat("REQUEST_RATE", c.RequestRate); err != nil {
		return err
	}
	return nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	switch c.Format {
	case "yaml", "json":
	default:
		return fmt.Errorf("invalid format %q (must be yaml or json)", c.Format)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log_format %q (must be console or json)", c.LogFormat)
	}
	if c.Transport != TransportStdio && c.Transport != TransportHTTP {
		return fmt.Errorf("invalid transport %q (must be stdio or http)", c.Transport)
	}
	if c.QueueDepth < 1 {
		return fmt.Errorf("queue_depth must be at least 1 (got %d)", c.QueueDepth)
	}
	if c.PollInitial <= 0 || c.PollMax < c.PollInitial {
		return fmt.Errorf("poll interval must satisfy 0 < poll_initial <= poll_max (got %s, %s)", c.PollInitial, c.PollMax)
	}
	if c.ScrollMaxPages < 1 {
		return fmt.Errorf("scroll_max_pages must be at least 1 (got %d)", c.ScrollMaxPages)
	}
	if c.TextMaxBytes < 1 || c.TextMaxDepth < 0 {
		return fmt.Errorf("text limits must be positive")
	}
	if c.InputRate < 0 || c.RequestRate < 0 {
		return fmt.Errorf("rates must not be negative")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	value := strings.TrimSpace(os.Getenv(EnvPrefix + key))
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s%s: %q (expected integer)", EnvPrefix, key, value)
	}
	return n, nil
}

func getEnvAsFloat(key string, defaultValue float64) (float64, error) {
	value := strings.TrimSpace(os.Getenv(EnvPrefix + key))
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s%s: %q (expected number)", EnvPrefix, key, value)
	}
	return f, nil
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(EnvPrefix + key))
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s%s: %q (expected duration, e.g., '250ms', '5s')", EnvPrefix, key, value)
	}
	return d, nil
}
