package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"linae/prompt"
	"linae/sequencer"
)

type SystemConfig struct {
	DataDirectory string `toml:"data_directory"`
}

type GatewayConfig struct {
	Provider        string        `toml:"provider"`
	Model           string        `toml:"model"`
	BaseURL         string        `toml:"base_url"`
	Temperature     float32       `toml:"temperature"`
	RequestTimeout  time.Duration `toml:"request_timeout"`
	EnableRetrieval bool          `toml:"enable_retrieval"`
}

type ArchiveConfig struct {
	Enabled bool `toml:"enabled"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type UserConfig struct {
	Gateway GatewayConfig       `toml:"gateway"`
	History prompt.ReplayLimits `toml:"history"`
	Pacing  sequencer.Pacing    `toml:"pacing"`
	Archive ArchiveConfig       `toml:"archive"`
	Server  ServerConfig        `toml:"server"`
}

type Config struct {
	DataDirectory   string
	Provider        string
	Model           string
	BaseURL         string
	Temperature     float32
	RequestTimeout  time.Duration
	EnableRetrieval bool
	Replay          prompt.ReplayLimits
	Pacing          sequencer.Pacing
	ArchiveEnabled  bool
	ServerAddr      string
	Keybindings     *KeyBindingsConfig
}

func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

func (c *Config) applyUserConfig(u *UserConfig) {
	c.Provider = u.Gateway.Provider
	c.Model = u.Gateway.Model
	c.BaseURL = u.Gateway.BaseURL
	c.Temperature = u.Gateway.Temperature
	c.RequestTimeout = u.Gateway.RequestTimeout
	c.EnableRetrieval = u.Gateway.EnableRetrieval
	c.Replay = u.History
	c.Pacing = u.Pacing
	c.ArchiveEnabled = u.Archive.Enabled
	c.ServerAddr = u.Server.Addr
}

func (c *Config) applyEnvOverrides() {
	if dataDir := os.Getenv("LINAE_DATA_DIR"); dataDir != "" {
		c.DataDirectory = dataDir
	}
	if p := strings.ToLower(os.Getenv("LINAE_PROVIDER")); p != "" {
		// A model named in config.toml belongs to the configured provider.
		if p != c.Provider {
			c.Model = ""
		}
		c.Provider = p
	}
	if m := os.Getenv("LINAE_MODEL"); m != "" {
		c.Model = m
	}
}

// PromptOptions returns the request builder settings. The configured
// temperature is always sent, including an explicit 0.
func (c *Config) PromptOptions() prompt.Options {
	temperature := c.Temperature
	return prompt.Options{
		Limits:          c.Replay,
		EnableRetrieval: c.EnableRetrieval,
		Temperature:     &temperature,
	}
}

// fillDefaults repairs zero values left by a partial config.toml.
func (c *Config) fillDefaults() {
	d := DefaultUserConfig()
	if c.Provider == "" {
		c.Provider = d.Gateway.Provider
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = d.Gateway.RequestTimeout
	}
	if c.ServerAddr == "" {
		c.ServerAddr = d.Server.Addr
	}
}

// Default returns the built-in configuration without touching disk.
func Default() *Config {
	cfg := &Config{
		DataDirectory: DefaultSystemConfig().DataDirectory,
		Keybindings:   DefaultKeybindings(),
	}
	cfg.applyUserConfig(DefaultUserConfig())
	return cfg
}

// Load reads settings.toml and <data>/config.toml, creating both from
// templates on first run, then applies LINAE_* overrides.
func Load() (*Config, error) {
	cfg := Default()

	// LINAE_DATA_DIR skips settings.toml entirely.
	if dataDir := os.Getenv("LINAE_DATA_DIR"); dataDir == "" {
		systemCfg, err := LoadSystemConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load system config: %w", err)
		}
		cfg.DataDirectory = systemCfg.DataDirectory
	} else {
		cfg.DataDirectory = dataDir
	}

	dataDir := cfg.DataDir()
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := EnsureDataDirPermissions(dataDir); err != nil {
		return nil, fmt.Errorf("failed to set data directory permissions: %w", err)
	}

	userCfg, err := LoadUserConfig(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}
	cfg.applyUserConfig(userCfg)
	cfg.applyEnvOverrides()
	cfg.fillDefaults()

	kb, err := LoadKeybindings(dataDir)
	if err != nil {
		return nil, err
	}
	cfg.Keybindings = kb

	return cfg, nil
}
