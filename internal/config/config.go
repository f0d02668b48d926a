// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Bot         BotConfig         `mapstructure:"bot"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Admin       AdminConfig       `mapstructure:"admin"`
	Whitelist   WhitelistConfig   `mapstructure:"whitelist"`
	Lobby       LobbyConfig       `mapstructure:"lobby"`
	Counting    CountingConfig    `mapstructure:"counting"`
	Competition CompetitionConfig `mapstructure:"competition"`
	Games       GamesConfig       `mapstructure:"games"`
	HTTP        HTTPConfig        `mapstructure:"http"`
}

// BotConfig holds Telegram bot configuration.
type BotConfig struct {
	Token       string        `mapstructure:"token"`
	PollTimeout time.Duration `mapstructure:"poll_timeout"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// RedisConfig holds the Redis connection used for the action history queue.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Queue    string `mapstructure:"queue"`
}

// AdminConfig holds admin user configuration.
type AdminConfig struct {
	IDs []int64 `mapstructure:"ids"`
}

// WhitelistConfig holds chat whitelist configuration.
type WhitelistConfig struct {
	Chats []int64 `mapstructure:"chats"`
}

// LobbyConfig names the chat where games are announced. Zero means the
// chat the command came from.
type LobbyConfig struct {
	ChatID int64 `mapstructure:"chat_id"`
}

// CountingConfig holds counting chat configuration.
type CountingConfig struct {
	ChatID          int64  `mapstructure:"chat_id"`
	LeaderboardSize int    `mapstructure:"leaderboard_size"`
	Timezone        string `mapstructure:"timezone"`
	EmptyReply      string `mapstructure:"empty_reply"`
}

// CompetitionConfig holds the counting competition window, formatted
// "2006-01-02 15:04:05" in the counting timezone.
type CompetitionConfig struct {
	Start string `mapstructure:"start"`
	End   string `mapstructure:"end"`
}

// GamesConfig holds game-specific configuration.
type GamesConfig struct {
	Coup TurnConfig `mapstructure:"coup"`
	Uno  TurnConfig `mapstructure:"uno"`
}

// TurnConfig bounds how long a player may take over one decision.
// Zero waits forever.
type TurnConfig struct {
	DecisionTimeout time.Duration `mapstructure:"decision_timeout"`
}

// HTTPConfig holds the status API listener. An empty address disables it.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables use underscore separator and uppercase
	// e.g., BOT_TOKEN, DATABASE_HOST, COUNTING_CHAT_ID
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file not found is OK - env vars can provide all config
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if _, err := cfg.Location(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Keys need a default for AutomaticEnv to reach them on Unmarshal
	v.SetDefault("bot.token", "")
	v.SetDefault("bot.poll_timeout", "10s")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "gamebot")
	v.SetDefault("database.name", "gamebot")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.queue", "card_game_actions")

	v.SetDefault("lobby.chat_id", 0)
	v.SetDefault("counting.chat_id", 0)
	v.SetDefault("counting.leaderboard_size", 10)
	v.SetDefault("counting.timezone", "America/Toronto")
	v.SetDefault("counting.empty_reply", "Nobody has counted yet!")

	v.SetDefault("competition.start", "")
	v.SetDefault("competition.end", "")

	v.SetDefault("games.coup.decision_timeout", "2m")
	v.SetDefault("games.uno.decision_timeout", "2m")

	v.SetDefault("http.addr", ":8080")
}

// Location returns the counting timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Counting.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Counting.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid counting timezone %q: %w", c.Counting.Timezone, err)
	}
	return loc, nil
}

// IsAdmin checks if a user ID is in the admin list.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Admin.IDs {
		if id == userID {
			return true
		}
	}
	return false
}

// IsChatAllowed checks if a chat ID is in the whitelist.
func (c *Config) IsChatAllowed(chatID int64) bool {
	// Empty whitelist means all chats are allowed
	if len(c.Whitelist.Chats) == 0 {
		return true
	}
	for _, id := range c.Whitelist.Chats {
		if id == chatID {
			return true
		}
	}
	return false
}
