// Package config loads the YAML settings file and the secrets that come from
// the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/julianstephens/weekplan/internal/auth"
	"github.com/julianstephens/weekplan/internal/constants"
	"github.com/julianstephens/weekplan/internal/logger"
	"github.com/julianstephens/weekplan/internal/utils"
)

// OAuthClient is the public half of an OAuth app registration. The secret
// is read from the environment, never from the file.
type OAuthClient struct {
	ClientID string `yaml:"client_id"`
	Secret   string `yaml:"-"`
}

func (c OAuthClient) Enabled() bool {
	return c.ClientID != "" && c.Secret != ""
}

type OAuthConfig struct {
	Google OAuthClient `yaml:"google"`
	Slack  OAuthClient `yaml:"slack"`
}

type Config struct {
	// Listen is the HTTP listen address of `weekplan serve`.
	Listen string `yaml:"listen"`
	// BaseURL is the externally visible server URL, used for OAuth redirects.
	BaseURL  string `yaml:"base_url"`
	Timezone string `yaml:"timezone"`
	Locale   string `yaml:"locale"`
	// SessionTTL is a Go duration such as "168h".
	SessionTTL string `yaml:"session_ttl"`
	// Cleanup is the cron spec for purging expired sessions and OAuth state.
	Cleanup string      `yaml:"cleanup"`
	OAuth   OAuthConfig `yaml:"oauth"`

	// DBConnection comes from WEEKPLAN_DB_CONNECTION.
	DBConnection string `yaml:"-"`
}

func DefaultConfig() *Config {
	return &Config{
		Listen:     constants.DefaultListen,
		BaseURL:    constants.DefaultBaseURL,
		Timezone:   constants.DefaultTimezone,
		Locale:     constants.DefaultLocale,
		SessionTTL: constants.DefaultSessionTTL.String(),
		Cleanup:    constants.DefaultCleanupSpec,
	}
}

// Normalize fills missing or unusable values with defaults.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = constants.DefaultListen
	}
	if c.BaseURL == "" {
		c.BaseURL = constants.DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Timezone == "" || !utils.ValidateTimezone(c.Timezone) {
		c.Timezone = constants.DefaultTimezone
	}
	switch strings.ToLower(c.Locale) {
	case "nl", "en":
		c.Locale = strings.ToLower(c.Locale)
	default:
		c.Locale = constants.DefaultLocale
	}
	if d, err := time.ParseDuration(c.SessionTTL); err != nil || d <= 0 {
		c.SessionTTL = constants.DefaultSessionTTL.String()
	}
	if c.Cleanup == "" {
		c.Cleanup = constants.DefaultCleanupSpec
	}
}

// Location resolves the display timezone.
func (c *Config) Location() *time.Location {
	loc, err := utils.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func (c *Config) TTL() time.Duration {
	d, err := time.ParseDuration(c.SessionTTL)
	if err != nil || d <= 0 {
		return constants.DefaultSessionTTL
	}
	return d
}

// Providers returns the OAuth providers that have both an id and a secret.
func (c *Config) Providers() []auth.Provider {
	var out []auth.Provider
	if c.OAuth.Google.Enabled() {
		out = append(out, auth.GoogleProvider(c.OAuth.Google.ClientID, c.OAuth.Google.Secret))
	}
	if c.OAuth.Slack.Enabled() {
		out = append(out, auth.SlackProvider(c.OAuth.Slack.ClientID, c.OAuth.Slack.Secret))
	}
	return out
}

// ApplyEnv copies secrets from the environment into c.
func (c *Config) ApplyEnv() {
	c.DBConnection = os.Getenv(constants.EnvDBConnection)
	c.OAuth.Google.Secret = os.Getenv(constants.EnvGoogleClientSecret)
	c.OAuth.Slack.Secret = os.Getenv(constants.EnvSlackClientSecret)
}

// LoadEnv reads a .env file from the working directory and then from dir.
// Variables already set in the environment win. Missing files are fine.
func LoadEnv(dir string) {
	for _, path := range []string{".env", filepath.Join(dir, ".env")} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			logger.Warn("Failed to load env file", "path", path, "error", err)
			continue
		}
		logger.Debug("Loaded env file", "path", path)
	}
}

// Load reads the YAML file at path. On first run it writes the defaults there.
// Environment secrets are applied in both cases.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			cfg.ApplyEnv()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.Normalize()
	cfg.ApplyEnv()
	return &cfg, nil
}

// Save writes cfg atomically with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+constants.AppName+"-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// ExpandPath replaces a leading "~" with the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
