package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	App struct {
		ListenAddr string `koanf:"listen"`
		LogLevel   string `koanf:"loglevel"`
		LogFile    string `koanf:"logfile"`
	} `koanf:"app"`

	Backend struct {
		BaseURL  string        `koanf:"url"`
		Token    string        `koanf:"token"`
		Username string        `koanf:"username"`
		Password string        `koanf:"password"`
		Timeout  time.Duration `koanf:"timeout"`
	} `koanf:"backend"`

	Checkout struct {
		PollInterval time.Duration `koanf:"interval"`
		PollDeadline time.Duration `koanf:"deadline"`
	} `koanf:"checkout"`

	Redis struct {
		Addr     string `koanf:"addr"`
		Password string `koanf:"password"`
	} `koanf:"redis"`

	History struct {
		DisplayLimit int `koanf:"limit"`
	} `koanf:"history"`
}

// Load reads the optional yaml file at path and applies POS_* environment
// overrides on top (POS_BACKEND_URL -> backend.url).
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return Config{}, fmt.Errorf("load config file: %w", err)
			}
		}
	}

	if err := k.Load(env.Provider("POS_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "POS_")), "_", ".")
	}), nil); err != nil {
		return Config{}, fmt.Errorf("load env config: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	applyDefaults(&cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.ListenAddr == "" {
		cfg.App.ListenAddr = ":7070"
	}
	if cfg.App.LogLevel == "" {
		cfg.App.LogLevel = "info"
	}
	if cfg.Backend.BaseURL == "" {
		cfg.Backend.BaseURL = "http://localhost:8080"
	}
	if cfg.Backend.Timeout <= 0 {
		cfg.Backend.Timeout = 10 * time.Second
	}
	if cfg.Checkout.PollInterval <= 0 {
		cfg.Checkout.PollInterval = 5 * time.Second
	}
	if cfg.Checkout.PollDeadline <= 0 {
		cfg.Checkout.PollDeadline = 15 * time.Minute
	}
	if cfg.History.DisplayLimit <= 0 {
		cfg.History.DisplayLimit = 10
	}
}
