// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// FileVariable names the environment variable that points at the
// YAML config file.
const FileVariable = "PASSVAULT_CONFIG"

// Environment is the deployment type.
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

// Duration is a time.Duration that also decodes bare seconds.
type Duration time.Duration

// Decode implements envconfig.Decoder.
func (d *Duration) Decode(value string) error {
	parsed, err := ParseDuration(value)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.Decode(node.Value)
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// ParseDuration parses a Go duration string or an integer count of
// seconds.
func ParseDuration(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if seconds, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: want a Go duration like 10m or a number of seconds", value)
	}
	return parsed, nil
}

// Config is the complete passvault configuration.
type Config struct {
	Environment Environment `yaml:"environment" envconfig:"PASSVAULT_ENVIRONMENT"`

	// Listen is the HTTP listen address.
	Listen string `yaml:"listen" envconfig:"PASSVAULT_LISTEN"`

	// Database is the SQLite file path.
	Database string `yaml:"database" envconfig:"PASSVAULT_DATABASE"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"log_level" envconfig:"LOG_LEVEL"`

	// ShareTokenTTL is how long a share link stays valid.
	ShareTokenTTL Duration `yaml:"share_token_ttl" envconfig:"SHARE_TOKEN_TTL"`

	// SessionTTL is how long an owner login lasts.
	SessionTTL Duration `yaml:"session_ttl" envconfig:"SESSION_TTL"`

	// InsecureCookies drops the Secure cookie attribute. Refused in
	// production.
	InsecureCookies bool `yaml:"insecure_cookies" envconfig:"INSECURE_COOKIES"`

	// OwnerPasswordHash is the bcrypt hash of the owner password.
	OwnerPasswordHash string `yaml:"owner_password_hash" envconfig:"OWNER_PASSWORD_HASH"`

	CipherKey  string `yaml:"-" envconfig:"CIPHER_KEY"`
	SigningKey string `yaml:"-" envconfig:"SIGNING_KEY"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Environment:   Development,
		Listen:        "127.0.0.1:8080",
		Database:      "passvault.db",
		LogLevel:      "info",
		ShareTokenTTL: Duration(10 * time.Minute),
		SessionTTL:    Duration(12 * time.Hour),
	}
}

// Load builds a Config from defaults, the file at path (or at
// $PASSVAULT_CONFIG when path is empty; no file when both are empty)
// and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(FileVariable)
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("config: reading environment: %w", err)
	}

	cfg.Database = expandVars(cfg.Database)
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return nil
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} from the environment.
func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Production {
		errs = append(errs, fmt.Errorf("environment must be %s or %s, got %q", Development, Production, c.Environment))
	}
	if c.Listen == "" {
		errs = append(errs, errors.New("listen address is required"))
	}
	if c.Database == "" {
		errs = append(errs, errors.New("database path is required"))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.ShareTokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("SHARE_TOKEN_TTL must be positive, got %s", c.ShareTokenTTL.Std()))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL.Std()))
	}
	if c.Environment == Production && c.InsecureCookies {
		errs = append(errs, errors.New("INSECURE_COOKIES is not allowed in production"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log level %q: want debug, info, warn or error", c.LogLevel)
	}
	return level, nil
}
