package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds every setting of the server process. Values loaded from
// the yaml file can be overridden through TRADEPRO_* environment
// variables for operational knobs.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Feed struct {
		StreamURL       string `yaml:"stream_url"`
		RestURL         string `yaml:"rest_url"`
		PollIntervalSec int    `yaml:"poll_interval_sec"`
		ReconnectSec    int    `yaml:"reconnect_sec"`
	} `yaml:"feed"`

	Persist struct {
		FlushIntervalSec int `yaml:"flush_interval_sec"`
	} `yaml:"persist"`

	Server struct {
		Addr        string `yaml:"addr"`
		CertDir     string `yaml:"cert_dir"`
		MaxHandlers int    `yaml:"max_handlers"` // 0 = NumCPU*4
	} `yaml:"server"`

	Hub struct {
		Addr       string `yaml:"addr"`
		BufferSize int    `yaml:"buffer_size"`
	} `yaml:"hub"`

	Storage struct {
		Path string `yaml:"path"` // empty = <workspace>/data/tradepro.db
	} `yaml:"storage"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// DefaultConfig returns a config with every field at its documented default.
// The server must come up with no config file at all.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.App.Name = "TradePro"
	cfg.App.Version = "1.0.0"
	cfg.Feed.StreamURL = "wss://stream.binance.com:9443/stream"
	cfg.Feed.RestURL = "https://api.coingecko.com/api/v3/simple/price"
	cfg.Feed.PollIntervalSec = 30
	cfg.Feed.ReconnectSec = 5
	cfg.Persist.FlushIntervalSec = 5
	cfg.Server.Addr = "127.0.0.1:6000"
	cfg.Hub.Addr = "127.0.0.1:5000"
	cfg.Hub.BufferSize = 64
	cfg.Logging.Level = "info"
	return cfg
}

// LoadConfig reads and validates the yaml config at path. A missing
// file is not an error; defaults plus env overrides apply.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	overrideWithEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.Feed.StreamURL, "ws://") && !strings.HasPrefix(c.Feed.StreamURL, "wss://") {
		return fmt.Errorf("invalid feed stream URL: %s", c.Feed.StreamURL)
	}
	if !strings.HasPrefix(c.Feed.RestURL, "http://") && !strings.HasPrefix(c.Feed.RestURL, "https://") {
		return fmt.Errorf("invalid feed rest URL: %s", c.Feed.RestURL)
	}
	if c.Feed.PollIntervalSec < 15 || c.Feed.PollIntervalSec > 600 {
		return fmt.Errorf("poll interval %ds out of range [15,600]", c.Feed.PollIntervalSec)
	}
	if c.Feed.ReconnectSec <= 0 {
		return fmt.Errorf("reconnect delay must be positive")
	}
	if c.Persist.FlushIntervalSec <= 0 {
		return fmt.Errorf("flush interval must be positive")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server addr is required")
	}
	if c.Server.MaxHandlers < 0 {
		return fmt.Errorf("max handlers cannot be negative")
	}
	if c.Hub.BufferSize <= 0 {
		return fmt.Errorf("hub buffer size must be positive")
	}
	return nil
}

// overrideWithEnv applies TRADEPRO_* environment variables on top of
// the file. Env always wins.
func overrideWithEnv(cfg *Config) {
	if v := os.Getenv("TRADEPRO_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("TRADEPRO_HUB_ADDR"); v != "" {
		cfg.Hub.Addr = v
	}
	if v := os.Getenv("TRADEPRO_DB_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("TRADEPRO_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TRADEPRO_POLL_INTERVAL_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Feed.PollIntervalSec = n
		}
	}
}
