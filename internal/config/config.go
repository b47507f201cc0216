package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	NATS struct {
		URL           string `yaml:"url"`
		SubjectPrefix string `yaml:"subject_prefix"`
	} `yaml:"nats"`
	Schedule struct {
		TickCron          string `yaml:"tick_cron"`
		MonthlyReportCron string `yaml:"monthly_report_cron"`
	} `yaml:"schedule"`
	Storage struct {
		Driver     string `yaml:"driver"`
		SQLitePath string `yaml:"sqlite_path"`
		StateFile  string `yaml:"state_file"`
	} `yaml:"storage"`
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Household struct {
		ListID string `yaml:"list_id"`
	} `yaml:"household"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	// Set before parsing so an explicit empty addr in the file disables the API.
	cfg.HTTP.Addr = ":8080"

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("CRON_TICK"); v != "" {
		cfg.Schedule.TickCron = v
	}
	if v := os.Getenv("STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v, ok := os.LookupEnv("HTTP_ADDR"); ok {
		cfg.HTTP.Addr = v
	}

	// Defaults
	if cfg.NATS.SubjectPrefix == "" {
		cfg.NATS.SubjectPrefix = "stakehouse.notify"
	}
	if cfg.Schedule.TickCron == "" {
		cfg.Schedule.TickCron = "*/30 * * * * *"
	}
	if cfg.Schedule.MonthlyReportCron == "" {
		cfg.Schedule.MonthlyReportCron = "0 0 9 1 * *"
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite"
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "data/stakehouse.db"
	}
	if cfg.Storage.StateFile == "" {
		cfg.Storage.StateFile = "data/state.json"
	}
	if cfg.Household.ListID == "" {
		cfg.Household.ListID = "household"
	}

	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Schedule.TickCron == "" {
		return fmt.Errorf("schedule.tick_cron is required")
	}
	switch c.Storage.Driver {
	case "sqlite", "json", "none":
	default:
		return fmt.Errorf("storage.driver %q is not one of sqlite, json, none", c.Storage.Driver)
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required when telegram.bot_token is set")
	}
	return nil
}
