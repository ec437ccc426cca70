package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"BizDesk/internal/route"
)

const (
	DefaultBaseURL          = "http://localhost:3000"
	DefaultAPIPrefix        = "/api"
	DefaultLoginPath        = route.Login
	DefaultUnauthorizedPath = route.Unauthorized
	DefaultToastTTL         = 5 * time.Second

	// EnvBaseURL overrides BaseURL from the environment
	EnvBaseURL = "BIZDESK_BASE_URL"
)

// Config holds application configuration
type Config struct {
	BaseURL          string `yaml:"base_url"`
	APIPrefix        string `yaml:"api_prefix"`
	LoginPath        string `yaml:"login_path"`
	UnauthorizedPath string `yaml:"unauthorized_path"`

	DBPath   string `yaml:"db_path"`
	LogDir   string `yaml:"log_dir"`
	Debug    bool   `yaml:"debug"`
	Timezone string `yaml:"timezone"` // IANA name used for date formatting

	ToastTTL time.Duration `yaml:"toast_ttl"`

	// ConfigPath is the path the config was loaded from (not serialized)
	ConfigPath string `yaml:"-"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		BaseURL:          DefaultBaseURL,
		APIPrefix:        DefaultAPIPrefix,
		LoginPath:        DefaultLoginPath,
		UnauthorizedPath: DefaultUnauthorizedPath,
		DBPath:           "bizdesk.db",
		LogDir:           "logs",
		Timezone:         "Asia/Kolkata",
		ToastTTL:         DefaultToastTTL,
	}
}

// searchPaths are tried in order when no explicit config path is given
var searchPaths = []string{
	"bizdesk.yaml",
	"configs/bizdesk.yaml",
	"/etc/bizdesk/bizdesk.yaml",
}

// Load reads configuration from path. An empty path searches the usual
// locations and falls back to defaults when none exists.
func Load(path string) (*Config, error) {
	cfg := Default()

	var data []byte
	var err error
	if path != "" {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else {
		for _, p := range searchPaths {
			data, err = os.ReadFile(p)
			if err == nil {
				path = p
				break
			}
		}
		if data == nil {
			cfg.applyEnv()
			return cfg, nil
		}
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.ConfigPath = path
	cfg.applyEnv()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.BaseURL = v
	}
}

// Validate checks that required fields are present
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url must not be empty")
	}
	if c.LoginPath == "" {
		return fmt.Errorf("login_path must not be empty")
	}
	if c.ToastTTL <= 0 {
		return fmt.Errorf("toast_ttl must be positive, got %s", c.ToastTTL)
	}
	return nil
}

// Location resolves Timezone, falling back to a fixed IST offset
// when the zone database is unavailable.
func (c *Config) Location() *time.Location {
	if c.Timezone != "" {
		if loc, err := time.LoadLocation(c.Timezone); err == nil {
			return loc
		}
	}
	return time.FixedZone("IST", 5*60*60+30*60)
}

// Save writes the configuration to path
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
