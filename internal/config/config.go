package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Environment variables that override the config file.
const (
	EnvBaseURL = "MINGLE_BASE_URL"
	EnvProfile = "MINGLE_PROFILE"
)

const (
	DefaultBaseURL        = "http://localhost:8080/MyChatApp"
	DefaultRequestTimeout = 10 * time.Second
)

// Config represents ~/.mingle/config.toml.
type Config struct {
	DefaultProfile string     `toml:"default_profile"`
	BaseURL        string     `toml:"base_url"`
	RequestTimeout Duration   `toml:"request_timeout"`
	Poll           PollConfig `toml:"poll"`
}

// PollConfig holds the refresh cadence of each polled screen.
type PollConfig struct {
	DirectChat Duration `toml:"direct_chat"`
	ChatList   Duration `toml:"chat_list"`
	GroupList  Duration `toml:"group_list"`
	GroupChat  Duration `toml:"group_chat"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.fillDefaults()
	return cfg
}

func (c *Config) fillDefaults() {
	if strings.TrimSpace(c.BaseURL) == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = Duration(DefaultRequestTimeout)
	}
	if c.Poll.DirectChat <= 0 {
		c.Poll.DirectChat = Duration(3 * time.Second)
	}
	if c.Poll.ChatList <= 0 {
		c.Poll.ChatList = Duration(10 * time.Second)
	}
	if c.Poll.GroupList <= 0 {
		c.Poll.GroupList = Duration(6 * time.Second)
	}
	if c.Poll.GroupChat <= 0 {
		c.Poll.GroupChat = Duration(3 * time.Second)
	}
}

// Load reads config from the given path. Unset fields get their defaults.
// Returns an error if the file is missing or malformed.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	cfg.fillDefaults()
	return &cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields Default().
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

// LoadEnv loads KEY=VALUE pairs from the given dotenv files (".env" when none
// are given) into the process environment. Missing files are ignored.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides file values with MINGLE_* environment variables.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvBaseURL)); v != "" {
		c.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvProfile)); v != "" {
		c.DefaultProfile = v
	}
}
