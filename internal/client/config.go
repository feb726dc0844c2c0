package client

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/lox/pebbles/internal/game"
)

// Config represents the complete client configuration
type Config struct {
	Server ServerConnection `hcl:"server,block"`
	Game   GameDefaults     `hcl:"game,block"`
	UI     UISettings       `hcl:"ui,block"`
}

// ServerConnection contains server connection settings
type ServerConnection struct {
	URL            string `hcl:"url,optional"`
	Token          string `hcl:"token,optional"`
	ConnectTimeout int    `hcl:"connect_timeout,optional"`
	RequestTimeout int    `hcl:"request_timeout,optional"`
}

// GameDefaults is the game started on connect.
type GameDefaults struct {
	Difficulty        string `hcl:"difficulty,optional"`
	PebblesCount      int    `hcl:"pebbles,optional"`
	MaxPebblesPerTurn int    `hcl:"max_per_turn,optional"`
}

// UISettings contains user interface settings
type UISettings struct {
	LogLevel string `hcl:"log_level,optional"`
	LogFile  string `hcl:"log_file,optional"`
}

// DefaultConfig returns default client configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConnection{
			URL:            "ws://localhost:8080/ws",
			ConnectTimeout: 10,
			RequestTimeout: 30,
		},
		Game: GameDefaults{
			Difficulty:        "easy",
			PebblesCount:      15,
			MaxPebblesPerTurn: 2,
		},
		UI: UISettings{
			LogLevel: "warn",
			LogFile:  "pebbles-client.log",
		},
	}
}

// LoadConfig loads client configuration from an HCL file. A missing file
// yields the defaults.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	// Apply defaults for missing values
	defaults := DefaultConfig()

	if config.Server.URL == "" {
		config.Server.URL = defaults.Server.URL
	}
	if config.Server.ConnectTimeout == 0 {
		config.Server.ConnectTimeout = defaults.Server.ConnectTimeout
	}
	if config.Server.RequestTimeout == 0 {
		config.Server.RequestTimeout = defaults.Server.RequestTimeout
	}

	if config.Game.Difficulty == "" {
		config.Game.Difficulty = defaults.Game.Difficulty
	}
	if config.Game.PebblesCount == 0 {
		config.Game.PebblesCount = defaults.Game.PebblesCount
	}
	if config.Game.MaxPebblesPerTurn == 0 {
		config.Game.MaxPebblesPerTurn = defaults.Game.MaxPebblesPerTurn
	}

	if config.UI.LogLevel == "" {
		config.UI.LogLevel = defaults.UI.LogLevel
	}
	if config.UI.LogFile == "" {
		config.UI.LogFile = defaults.UI.LogFile
	}

	return &config, nil
}

// Validate validates the client configuration
func (c *Config) Validate() error {
	if _, err := WebSocketURL(c.Server.URL); err != nil {
		return err
	}
	if c.Server.ConnectTimeout <= 0 {
		return fmt.Errorf("connect timeout must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}

	if _, err := c.GameConfig(); err != nil {
		return err
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.UI.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.UI.LogLevel)
	}

	return nil
}

// GameConfig converts the game block into a validated game.Config.
func (c *Config) GameConfig() (game.Config, error) {
	d, err := game.ParseDifficulty(c.Game.Difficulty)
	if err != nil {
		return game.Config{}, fmt.Errorf("%w: %v", game.ErrInvalidConfiguration, err)
	}
	if c.Game.PebblesCount < 0 || c.Game.MaxPebblesPerTurn < 0 {
		return game.Config{}, fmt.Errorf("%w: pebble counts cannot be negative", game.ErrInvalidConfiguration)
	}
	if uint64(c.Game.PebblesCount) > math.MaxUint32 || uint64(c.Game.MaxPebblesPerTurn) > math.MaxUint32 {
		return game.Config{}, fmt.Errorf("%w: pebble counts cannot exceed %d", game.ErrInvalidConfiguration, uint32(math.MaxUint32))
	}

	cfg := game.Config{
		PebblesCount:      uint32(c.Game.PebblesCount),
		MaxPebblesPerTurn: uint32(c.Game.MaxPebblesPerTurn),
		Difficulty:        d,
	}
	return cfg, cfg.Validate()
}

// ConnectTimeoutDuration returns the dial timeout.
func (c *Config) ConnectTimeoutDuration() time.Duration {
	return time.Duration(c.Server.ConnectTimeout) * time.Second
}

// RequestTimeoutDuration returns the per-request timeout.
func (c *Config) RequestTimeoutDuration() time.Duration {
	return time.Duration(c.Server.RequestTimeout) * time.Second
}
