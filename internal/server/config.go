package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/lox/pebbles/internal/auth"
)

// Config represents the complete server configuration file.
type Config struct {
	Server Settings      `hcl:"server,block"`
	Auth   *AuthSettings `hcl:"auth,block"`
}

// AuthSettings enables token authentication against an external service.
type AuthSettings struct {
	URL         string `hcl:"url"`
	AdminSecret string `hcl:"admin_secret,optional"`
	TimeoutMs   int    `hcl:"timeout_ms,optional"`
	FailOpen    bool   `hcl:"fail_open,optional"` // allow connections while the service is down
}

// Settings contains server-level configuration.
type Settings struct {
	Address     string `hcl:"address,optional"`
	Port        int    `hcl:"port,optional"`
	LogLevel    string `hcl:"log_level,optional"`
	IdleTimeout int    `hcl:"idle_timeout,optional"` // seconds without a request before a session is closed
	MaxSessions int    `hcl:"max_sessions,optional"` // 0 means unlimited
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Server: Settings{
			Address:     "localhost",
			Port:        8080,
			LogLevel:    "info",
			IdleTimeout: 300,
		},
	}
}

// LoadConfig loads the configuration from an HCL file. A missing file yields
// the defaults.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return ParseConfig(src, filename)
}

// ParseConfig decodes HCL source and applies defaults for missing values.
func ParseConfig(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	defaults := DefaultConfig()
	if config.Server.Address == "" {
		config.Server.Address = defaults.Server.Address
	}
	if config.Server.Port == 0 {
		config.Server.Port = defaults.Server.Port
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = defaults.Server.LogLevel
	}
	if config.Server.IdleTimeout == 0 {
		config.Server.IdleTimeout = defaults.Server.IdleTimeout
	}

	return &config, nil
}

// Validate validates the server configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Server.IdleTimeout < 0 {
		return fmt.Errorf("idle timeout cannot be negative")
	}
	if c.Server.MaxSessions < 0 {
		return fmt.Errorf("max sessions cannot be negative")
	}

	if c.Auth != nil {
		if c.Auth.URL == "" {
			return fmt.Errorf("auth url is required")
		}
		if c.Auth.TimeoutMs < 0 {
			return fmt.Errorf("auth timeout cannot be negative")
		}
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Server.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.Server.LogLevel)
	}

	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// IdleTimeoutDuration returns the idle timeout.
func (c *Config) IdleTimeoutDuration() time.Duration {
	return time.Duration(c.Server.IdleTimeout) * time.Second
}

// AuthValidator returns the validator for the auth block, or nil when
// authentication is disabled.
func (c *Config) AuthValidator() auth.Validator {
	if c.Auth == nil {
		return nil
	}
	return auth.NewHTTPValidator(c.Auth.URL, c.Auth.AdminSecret, time.Duration(c.Auth.TimeoutMs)*time.Millisecond)
}
