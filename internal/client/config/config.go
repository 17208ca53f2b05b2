// Package config resolves CLI settings: defaults, then a YAML file, then
// ALMOND_* environment variables. Command-line flags are applied last by
// the cli package.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ravey/almond/pkg/poll"
	"github.com/ravey/almond/pkg/qrlogin"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ServerURL string `yaml:"server_url"`

	AppID      string `yaml:"app_id"`
	Page       string `yaml:"page"`
	EnvVersion string `yaml:"env_version"`
	Width      int    `yaml:"width"`

	PollInterval time.Duration `yaml:"poll_interval"`
	LoginTimeout time.Duration `yaml:"login_timeout"`

	// DataDir holds the device store and its sealing key.
	DataDir string `yaml:"data_dir"`

	// CompanionSecret lets `approve` act for any user as a trusted
	// companion backend. Without it approve uses the stored session.
	CompanionSecret string `yaml:"companion_secret"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Defaults returns the settings used when nothing else is configured.
func Defaults() Config {
	return Config{
		ServerURL:    "http://localhost:8080",
		AppID:        qrlogin.DefaultAppID,
		Page:         qrlogin.DefaultPage,
		EnvVersion:   qrlogin.EnvTrial,
		Width:        qrlogin.DefaultWidth,
		PollInterval: poll.DefaultInterval,
		LoginTimeout: poll.DefaultTimeout,
		DataDir:      defaultDataDir(),
		LogLevel:     "warn",
		LogFormat:    "text",
	}
}

// DefaultPath is $XDG_CONFIG_HOME/almond/config.yaml or the platform equivalent.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "almond", "config.yaml")
}

func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".almond"
	}
	return filepath.Join(dir, "almond")
}

// Load resolves the configuration. An explicit path must exist; the
// default path is optional.
func Load(path string) (Config, error) {
	cfg := Defaults()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return Config{}, err
			}
		}
	}

	cfg.mergeEnv()
	return cfg, cfg.Validate()
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	// Zero values in the file keep the current setting.
	var fc Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &fc); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	c.overlay(fc)
	return nil
}

func (c *Config) overlay(o Config) {
	setString(&c.ServerURL, o.ServerURL)
	setString(&c.AppID, o.AppID)
	setString(&c.Page, o.Page)
	setString(&c.EnvVersion, o.EnvVersion)
	setString(&c.DataDir, o.DataDir)
	setString(&c.CompanionSecret, o.CompanionSecret)
	setString(&c.LogLevel, o.LogLevel)
	setString(&c.LogFormat, o.LogFormat)
	if o.Width > 0 {
		c.Width = o.Width
	}
	if o.PollInterval > 0 {
		c.PollInterval = o.PollInterval
	}
	if o.LoginTimeout > 0 {
		c.LoginTimeout = o.LoginTimeout
	}
}

func (c *Config) mergeEnv() {
	var e Config
	e.ServerURL = os.Getenv("ALMOND_SERVER_URL")
	e.AppID = os.Getenv("ALMOND_APP_ID")
	e.Page = os.Getenv("ALMOND_PAGE")
	e.EnvVersion = os.Getenv("ALMOND_ENV_VERSION")
	e.DataDir = os.Getenv("ALMOND_DATA_DIR")
	e.CompanionSecret = os.Getenv("ALMOND_COMPANION_SECRET")
	e.LogLevel = os.Getenv("ALMOND_LOG_LEVEL")
	e.LogFormat = os.Getenv("ALMOND_LOG_FORMAT")
	if v, err := strconv.Atoi(os.Getenv("ALMOND_WIDTH")); err == nil {
		e.Width = v
	}
	if d, err := time.ParseDuration(os.Getenv("ALMOND_POLL_INTERVAL")); err == nil {
		e.PollInterval = d
	}
	if d, err := time.ParseDuration(os.Getenv("ALMOND_LOGIN_TIMEOUT")); err == nil {
		e.LoginTimeout = d
	}
	c.overlay(e)
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

// Validate rejects settings the login flow cannot use.
func (c Config) Validate() error {
	if c.ServerURL == "" {
		return errors.New("config: server_url is required")
	}
	if !qrlogin.ValidEnv(c.EnvVersion) {
		return fmt.Errorf("config: env_version %q must be release, trial or develop", c.EnvVersion)
	}
	if c.PollInterval > c.LoginTimeout {
		return fmt.Errorf("config: poll_interval %s exceeds login_timeout %s", c.PollInterval, c.LoginTimeout)
	}
	return nil
}
