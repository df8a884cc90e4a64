package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Logging    LoggingConfig    `yaml:"logging"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Auth       AuthConfig       `yaml:"auth"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Google     GoogleConfig     `yaml:"google"`
	Exports    ExportConfig     `yaml:"exports"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
	Channel  string `yaml:"channel"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type AuthConfig struct {
	Enabled      bool        `yaml:"enabled"`
	HeaderAPIKey string      `yaml:"header_api_key"`
	APIKeys      []ClientKey `yaml:"api_keys"`
}

type ClientKey struct {
	Key         string   `yaml:"key"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type TelegramConfig struct {
	Enabled     bool   `yaml:"enabled"`
	BotToken    string `yaml:"bot_token"`
	StaffChatID int64  `yaml:"staff_chat_id"`
}

type GoogleConfig struct {
	CredentialsFile     string `yaml:"credentials_file"`
	LedgerSpreadsheetID string `yaml:"ledger_spreadsheet_id"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

type SchedulerConfig struct {
	Enabled       bool   `yaml:"enabled"`
	NightlyExport string `yaml:"nightly_export"`
	RetrySweep    string `yaml:"retry_sweep"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; an existing one feeds the ${VAR} substitution
	// below.
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	if c.Auth.Enabled && len(c.Auth.APIKeys) == 0 {
		return errors.New("auth is enabled but no api keys are configured")
	}
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" || c.Telegram.BotToken == "YOUR_BOT_TOKEN_HERE" {
			return errors.New("telegram is enabled but bot token is missing")
		}
		if c.Telegram.StaffChatID == 0 {
			return errors.New("telegram is enabled but staff chat id is missing")
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "innkeep"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Auth.HeaderAPIKey == "" {
		c.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.Redis.Channel == "" {
		c.Redis.Channel = "innkeep:refresh"
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
	if c.Scheduler.NightlyExport == "" {
		c.Scheduler.NightlyExport = "0 0 2 * * *"
	}
	if c.Scheduler.RetrySweep == "" {
		c.Scheduler.RetrySweep = "0 */5 * * * *"
	}
}
