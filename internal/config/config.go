package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full application configuration.
type Config struct {
	Telegram   TelegramConfig   `yaml:"telegram"`
	Auth       AuthConfig       `yaml:"auth"`
	Automation AutomationConfig `yaml:"automation"`
	Ntfy       NtfyConfig       `yaml:"ntfy"`
	Database   DatabaseConfig   `yaml:"database"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type TelegramConfig struct {
	Token string `yaml:"token"`
}

type AuthConfig struct {
	// WeakSecurity disables the OTP gate entirely. Owner binding still
	// applies: the first sender ever seen remains the only accepted sender.
	WeakSecurity bool `yaml:"weak_security"`
	// OTPTimeout is the inactivity window in seconds before re-lock.
	// Clamped to [30, 28800] at load.
	OTPTimeout int `yaml:"otp_timeout"`
}

type AutomationConfig struct {
	// DangerMode lists and connects to any visible window, not just known
	// terminal applications.
	DangerMode bool `yaml:"danger_mode"`
	// KeyDelayMs paces consecutive key injections.
	KeyDelayMs int `yaml:"key_delay_ms"`
	// SubmitDelayMs is the pause before the implied trailing Enter.
	SubmitDelayMs int `yaml:"submit_delay_ms"`
	// RedrawWaitMs is how long the target gets to repaint before capture.
	RedrawWaitMs int `yaml:"redraw_wait_ms"`
}

type NtfyConfig struct {
	Topic  string `yaml:"topic"`
	Token  string `yaml:"token"`
	Events string `yaml:"events"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Auth: AuthConfig{OTPTimeout: 300},
		Automation: AutomationConfig{
			KeyDelayMs:    5,
			SubmitDelayMs: 50,
			RedrawWaitMs:  2000,
		},
		Database: DatabaseConfig{Path: "termbot.sqlite"},
		Logging:  LoggingConfig{Level: "info"},
	}
}

// Load reads the config file at path, falling back to defaults for missing
// fields. A missing file is not an error; env vars still apply.
func Load(path string) (*Config, error) {
	cfg, err := LoadLenient(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadLenient is Load without the final validation; the doctor command
// uses it to report on incomplete configs instead of rejecting them.
func LoadLenient(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// defaults + env only
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if tok := os.Getenv("TELEGRAM_TOKEN"); tok != "" {
		cfg.Telegram.Token = tok
	}
	if db := os.Getenv("TERMBOT_DB"); db != "" {
		cfg.Database.Path = db
	}

	cfg.clamp()
	return cfg, nil
}

func (c *Config) clamp() {
	if c.Auth.OTPTimeout < 30 {
		c.Auth.OTPTimeout = 30
	}
	if c.Auth.OTPTimeout > 28800 {
		c.Auth.OTPTimeout = 28800
	}
	if c.Automation.KeyDelayMs < 0 {
		c.Automation.KeyDelayMs = 0
	}
	if c.Automation.SubmitDelayMs < 0 {
		c.Automation.SubmitDelayMs = 0
	}
	if c.Automation.RedrawWaitMs < 0 {
		c.Automation.RedrawWaitMs = 0
	}
}

// Validate checks that the configuration can actually run a bot.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is required (or set TELEGRAM_TOKEN)")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	return nil
}

// KeyDelay returns the inter-key pacing interval.
func (c *Config) KeyDelay() time.Duration {
	return time.Duration(c.Automation.KeyDelayMs) * time.Millisecond
}

// SubmitDelay returns the pause before the implied trailing Enter.
func (c *Config) SubmitDelay() time.Duration {
	return time.Duration(c.Automation.SubmitDelayMs) * time.Millisecond
}

// RedrawWait returns the post-keystroke repaint wait before capture.
func (c *Config) RedrawWait() time.Duration {
	return time.Duration(c.Automation.RedrawWaitMs) * time.Millisecond
}
