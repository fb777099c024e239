// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token    string  `yaml:"token"`
	Mode     string  `yaml:"mode"` // polling | webhook (future)
	Username string  `yaml:"username"`
	Workers  int     `yaml:"workers"` // polling workers
	AdminIDs []int64 `yaml:"admin_ids"`
}

// ChannelConfig is one required channel: the @username Telegram resolves in
// getChatMember calls plus the public join link shown to users.
type ChannelConfig struct {
	ID  string `yaml:"id"`
	URL string `yaml:"url"`
}

// GateConfig drives the membership gate and the token issuer.
type GateConfig struct {
	Secret    string          `yaml:"secret"`
	Channels  []ChannelConfig `yaml:"channels"`
	SiteURL   string          `yaml:"site_url"`
	OwnerURL  string          `yaml:"owner_url"`
	RateLimit int             `yaml:"rate_limit"` // verification attempts per user per minute
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AdminConfig struct {
	Port      int           `yaml:"port"`
	JWTSecret string        `yaml:"jwt_secret"`
	JWTTTL    time.Duration `yaml:"jwt_ttl"`
	APIKey    string        `yaml:"api_key"` // exchanged for a JWT at /api/v1/login
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type SchedulerConfig struct {
	ChannelAuditInterval time.Duration `yaml:"channel_audit_interval"`
}

type Config struct {
	Bot       BotConfig       `yaml:"bot"`
	Gate      GateConfig      `yaml:"gate"`
	Log       LogConfig       `yaml:"log"`
	Admin     AdminConfig     `yaml:"admin"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Scheduler SchedulerConfig `yaml:"scheduler"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads and validates the YAML config. The returned value is
// treated as immutable for the life of the process: constructed once here,
// passed by reference, never written afterwards.
func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Gate.RateLimit <= 0 {
		cfg.Gate.RateLimit = 20
	}
	if cfg.Admin.JWTTTL <= 0 {
		cfg.Admin.JWTTTL = 30 * time.Minute
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = time.Hour
	}
	if cfg.Scheduler.ChannelAuditInterval <= 0 {
		cfg.Scheduler.ChannelAuditInterval = 15 * time.Minute
	}
}

// validate enforces the startup contract: a partially configured gate must
// refuse to serve rather than run with the check disabled.
func validate(cfg *Config) error {
	if cfg.Bot.Token == "" {
		return errors.New("bot.token is required")
	}
	if cfg.Gate.Secret == "" {
		return errors.New("gate.secret is required")
	}
	if len(cfg.Gate.Channels) == 0 {
		return errors.New("gate.channels must list at least one channel")
	}
	seen := make(map[string]struct{}, len(cfg.Gate.Channels))
	for i, ch := range cfg.Gate.Channels {
		if ch.ID == "" || ch.URL == "" {
			return fmt.Errorf("gate.channels[%d]: id and url are required", i)
		}
		if _, dup := seen[ch.ID]; dup {
			return fmt.Errorf("gate.channels[%d]: duplicate channel %s", i, ch.ID)
		}
		seen[ch.ID] = struct{}{}
	}
	if cfg.Gate.SiteURL == "" {
		return errors.New("gate.site_url is required")
	}
	if cfg.Database.URL == "" {
		return errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return errors.New("redis.url is required")
	}
	return nil
}
