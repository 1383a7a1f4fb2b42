package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds courier's runtime settings. Values come from defaults, then
// the TOML file, then COURIER_* environment variables.
type Config struct {
	APIURL         string        `env:"COURIER_API_URL"`
	EventsURL      string        `env:"COURIER_EVENTS_URL"`
	PollInterval   time.Duration `env:"COURIER_POLL_INTERVAL"`
	ProbeInterval  time.Duration `env:"COURIER_PROBE_INTERVAL"`
	ProbeTimeout   time.Duration `env:"COURIER_PROBE_TIMEOUT"`
	RequestTimeout time.Duration `env:"COURIER_REQUEST_TIMEOUT"`
	LogLevel       string        `env:"COURIER_LOG_LEVEL"`
	LogFormat      string        `env:"COURIER_LOG_FORMAT"`
	LogFile        string        `env:"COURIER_LOG_FILE"`
	DevOTPBypass   string        `env:"COURIER_DEV_OTP_BYPASS"`
}

const (
	defaultConfigPath     = "~/.config/courier/config.toml"
	defaultLogFile        = "~/.local/share/courier/courier.log"
	defaultAPIURL         = "http://127.0.0.1:8080"
	defaultPollInterval   = 15 * time.Second
	defaultProbeInterval  = 12 * time.Second
	defaultProbeTimeout   = 5 * time.Second
	defaultRequestTimeout = 15 * time.Second
	defaultLogLevel       = "info"
	defaultLogFormat      = "text"
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		APIURL:         defaultAPIURL,
		PollInterval:   defaultPollInterval,
		ProbeInterval:  defaultProbeInterval,
		ProbeTimeout:   defaultProbeTimeout,
		RequestTimeout: defaultRequestTimeout,
		LogLevel:       defaultLogLevel,
		LogFormat:      defaultLogFormat,
		LogFile:        mustExpand(defaultLogFile),
	}
}

// Load reads the config file at path (or the default location), falling back
// to defaults when it is missing, then applies environment overrides.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	bytes, err := readFile(resolved)
	if err != nil {
		return Config{}, err
	}
	if bytes != nil {
		if err := applyFile(&cfg, bytes); err != nil {
			return Config{}, err
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readFile(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return bytes, nil
}

func applyFile(cfg *Config, bytes []byte) error {
	var raw struct {
		APIURL         string `toml:"api_url"`
		EventsURL      string `toml:"events_url"`
		PollInterval   string `toml:"poll_interval"`
		ProbeInterval  string `toml:"probe_interval"`
		ProbeTimeout   string `toml:"probe_timeout"`
		RequestTimeout string `toml:"request_timeout"`
		LogLevel       string `toml:"log_level"`
		LogFormat      string `toml:"log_format"`
		LogFile        string `toml:"log_file"`
		DevOTPBypass   string `toml:"dev_otp_bypass"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	setString(&cfg.APIURL, raw.APIURL)
	setString(&cfg.EventsURL, raw.EventsURL)
	setString(&cfg.LogLevel, raw.LogLevel)
	setString(&cfg.LogFormat, raw.LogFormat)
	setString(&cfg.LogFile, raw.LogFile)
	setString(&cfg.DevOTPBypass, raw.DevOTPBypass)

	durations := []struct {
		key   string
		value string
		dest  *time.Duration
	}{
		{"poll_interval", raw.PollInterval, &cfg.PollInterval},
		{"probe_interval", raw.ProbeInterval, &cfg.ProbeInterval},
		{"probe_timeout", raw.ProbeTimeout, &cfg.ProbeTimeout},
		{"request_timeout", raw.RequestTimeout, &cfg.RequestTimeout},
	}
	for _, d := range durations {
		value := strings.TrimSpace(d.value)
		if value == "" {
			continue
		}
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("parse config: %s: %w", d.key, err)
		}
		*d.dest = parsed
	}
	return nil
}

func setString(dest *string, value string) {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		*dest = trimmed
	}
}

func (c *Config) normalize() error {
	defaults := Default()
	c.APIURL = strings.TrimSpace(c.APIURL)
	if c.APIURL == "" {
		c.APIURL = defaults.APIURL
	}
	c.EventsURL = strings.TrimSpace(c.EventsURL)
	c.DevOTPBypass = strings.TrimSpace(c.DevOTPBypass)

	for _, d := range []struct {
		value *time.Duration
		def   time.Duration
	}{
		{&c.PollInterval, defaults.PollInterval},
		{&c.ProbeInterval, defaults.ProbeInterval},
		{&c.ProbeTimeout, defaults.ProbeTimeout},
		{&c.RequestTimeout, defaults.RequestTimeout},
	} {
		if *d.value <= 0 {
			*d.value = d.def
		}
	}

	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	switch c.LogFormat {
	case "":
		c.LogFormat = defaultLogFormat
	case "text", "json":
	default:
		return fmt.Errorf("log_format %q: want text or json", c.LogFormat)
	}

	if strings.TrimSpace(c.LogFile) == "" {
		c.LogFile = defaults.LogFile
	}
	c.LogFile = mustExpand(c.LogFile)
	return nil
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return defaultConfigPath
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
