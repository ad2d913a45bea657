// Package config loads server and historian settings from YAML and the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jason-s-yu/kombio/internal/models"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Redis     RedisConfig     `yaml:"redis"`
	Historian HistorianConfig `yaml:"historian"`
	Game      GameConfig      `yaml:"game"`
	Auth      AuthConfig      `yaml:"auth"`
	LogLevel  string          `yaml:"log_level"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StoreConfig selects the record store. The postgres backend also uses Redis
// for change notifications and the action log.
type StoreConfig struct {
	Backend string `yaml:"backend"`
}

type PostgresConfig struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
}

type RedisConfig struct {
	Addr string `yaml:"addr"`
	DB   int    `yaml:"db"`
}

type HistorianConfig struct {
	Queue         string `yaml:"queue"`
	BatchSize     int    `yaml:"batch_size"`
	FlushMs       int    `yaml:"flush_ms"`
	InactivitySec int    `yaml:"inactivity_sec"`
}

type GameConfig struct {
	MaxRounds        int `yaml:"max_rounds"`
	MaxPlayers       int `yaml:"max_players"`
	PenaltyDrawCount int `yaml:"penalty_draw_count"`
	PeekWindowSec    int `yaml:"peek_window_sec"`
	ConflictRetries  int `yaml:"conflict_retries"`
	PollIntervalMs   int `yaml:"poll_interval_ms"`
}

type AuthConfig struct {
	PrivateKeyPath string `yaml:"private_key_path"`
	PublicKeyPath  string `yaml:"public_key_path"`
	TokenExpire    string `yaml:"token_expire"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8080},
		Store:  StoreConfig{Backend: BackendMemory},
		Postgres: PostgresConfig{
			User:     "postgres",
			Host:     "localhost",
			Port:     5432,
			Database: "kombio",
		},
		Redis: RedisConfig{Addr: "localhost:6379"},
		Historian: HistorianConfig{
			Queue:         "kombio_actions",
			BatchSize:     20,
			FlushMs:       500,
			InactivitySec: 600,
		},
		Game: GameConfig{
			MaxRounds:        5,
			MaxPlayers:       4,
			PenaltyDrawCount: 1,
			PeekWindowSec:    10,
			ConflictRetries:  3,
			PollIntervalMs:   2000,
		},
		LogLevel: "info",
	}
}

// Load reads a YAML file. Keys it leaves out keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// FromEnv overlays environment variables onto cfg.
func FromEnv(cfg *Config) error {
	envString("SERVER_HOST", &cfg.Server.Host)
	envString("STORE_BACKEND", &cfg.Store.Backend)
	envString("POSTGRES_USER", &cfg.Postgres.User)
	envString("POSTGRES_PASSWORD", &cfg.Postgres.Password)
	envString("PG_HOST", &cfg.Postgres.Host)
	envString("PG_DATABASE", &cfg.Postgres.Database)
	envString("REDIS_ADDR", &cfg.Redis.Addr)
	envString("HISTORIAN_QUEUE_NAME", &cfg.Historian.Queue)
	envString("LOG_LEVEL", &cfg.LogLevel)
	envString("AUTH_PRIVATE_KEY", &cfg.Auth.PrivateKeyPath)
	envString("AUTH_PUBLIC_KEY", &cfg.Auth.PublicKeyPath)
	envString("TOKEN_EXPIRE_TIME", &cfg.Auth.TokenExpire)

	ints := []struct {
		key string
		dst *int
	}{
		{"PORT", &cfg.Server.Port},
		{"PG_PORT", &cfg.Postgres.Port},
		{"REDIS_DB", &cfg.Redis.DB},
		{"HISTORIAN_BATCH_SIZE", &cfg.Historian.BatchSize},
		{"HISTORIAN_FLUSH_MS", &cfg.Historian.FlushMs},
		{"GAME_INACTIVITY_TIMEOUT_SEC", &cfg.Historian.InactivitySec},
		{"MAX_ROUNDS", &cfg.Game.MaxRounds},
		{"MAX_PLAYERS", &cfg.Game.MaxPlayers},
		{"PENALTY_DRAW_COUNT", &cfg.Game.PenaltyDrawCount},
		{"PEEK_WINDOW_SEC", &cfg.Game.PeekWindowSec},
		{"CONFLICT_RETRIES", &cfg.Game.ConflictRetries},
		{"POLL_INTERVAL_MS", &cfg.Game.PollIntervalMs},
	}
	for _, e := range ints {
		if err := envInt(e.key, e.dst); err != nil {
			return err
		}
	}
	return nil
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	*dst = i
	return nil
}

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendPostgres:
	default:
		return fmt.Errorf("store backend must be %q or %q, got %q", BackendMemory, BackendPostgres, c.Store.Backend)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	if c.Game.MaxRounds < 1 || c.Game.MaxRounds > 10 {
		return fmt.Errorf("max rounds must be 1..10, got %d", c.Game.MaxRounds)
	}
	if err := c.HouseRules().Validate(); err != nil {
		return err
	}
	if c.Game.ConflictRetries < 1 {
		return fmt.Errorf("conflict retries must be at least 1")
	}
	if c.Game.PollIntervalMs <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	if c.Historian.BatchSize <= 0 || c.Historian.FlushMs <= 0 {
		return fmt.Errorf("historian batch size and flush interval must be positive")
	}
	if c.Store.Backend == BackendPostgres && c.Redis.Addr == "" {
		return fmt.Errorf("the postgres backend needs a redis address")
	}
	return nil
}

// Level is the parsed log level; Validate guarantees it parses.
func (c *Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// HouseRules are the rules new games start with.
func (c *Config) HouseRules() models.HouseRules {
	r := models.DefaultHouseRules()
	r.MaxPlayers = c.Game.MaxPlayers
	r.PenaltyDrawCount = c.Game.PenaltyDrawCount
	r.PeekWindowSec = c.Game.PeekWindowSec
	return r
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Game.PollIntervalMs) * time.Millisecond
}

func (c *Config) FlushInterval() time.Duration {
	return time.Duration(c.Historian.FlushMs) * time.Millisecond
}

func (c *Config) Inactivity() time.Duration {
	return time.Duration(c.Historian.InactivitySec) * time.Second
}
