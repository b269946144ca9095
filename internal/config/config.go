// Package config loads server configuration from YAML with environment
// overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration tree.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Game     GameConfig     `mapstructure:"game"`
	Content  ContentConfig  `mapstructure:"content"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig controls the HTTP/WebSocket listener.
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// GameConfig carries the session rule numbers.
type GameConfig struct {
	MaxPlayers     int `mapstructure:"max_players"`
	StartingHealth int `mapstructure:"starting_health"`
	HandLimit      int `mapstructure:"hand_limit"`
	ItemCost       int `mapstructure:"item_cost"`
	CoinsPerTake   int `mapstructure:"coins_per_take"`
	CombatDraw     int `mapstructure:"combat_draw"`
}

// ContentConfig points at the static item/monster catalogue.
type ContentConfig struct {
	Path      string   `mapstructure:"path"`
	AllowList []string `mapstructure:"allow_list"`
}

// DatabaseConfig configures the optional account store. An empty URL
// disables accounts entirely.
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// AuthConfig controls access tokens.
type AuthConfig struct {
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from the given YAML file, applying defaults and
// FSF_* environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("FSF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.address", ":5001")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("game.max_players", 4)
	v.SetDefault("game.starting_health", 4)
	v.SetDefault("game.hand_limit", 5)
	v.SetDefault("game.item_cost", 2)
	v.SetDefault("game.coins_per_take", 2)
	v.SetDefault("game.combat_draw", 3)
	v.SetDefault("content.path", "config/content.yaml")
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Game.MaxPlayers < 2 {
		return nil, fmt.Errorf("game.max_players must be at least 2, got %d", cfg.Game.MaxPlayers)
	}
	if cfg.Game.CombatDraw < 1 {
		return nil, fmt.Errorf("game.combat_draw must be positive, got %d", cfg.Game.CombatDraw)
	}
	return &cfg, nil
}
