// /internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var ErrMissingToken = errors.New("DISCORD_TOKEN is not set")

type Config struct {
	DiscordToken   string   `env:"DISCORD_TOKEN"`
	CommandPrefix  string   `env:"COMMAND_PREFIX" envDefault:"!"`
	GuildBlacklist []string `env:"DISCORD_GUILD_BLACKLIST" envSeparator:","`

	// InitSlashCommands registers slash commands on ready and on guild join.
	InitSlashCommands bool `env:"INIT_SLASH_COMMANDS" envDefault:"true"`

	// CommandsDir overrides the embedded command declarations when set.
	CommandsDir string `env:"COMMANDS_DIR"`

	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"file"`
	StoragePath    string `env:"STORAGE_PATH" envDefault:"datastore.json"`
	RedisAddr      string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword  string `env:"REDIS_PASSWORD"`
	RedisDB        int    `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix    string `env:"REDIS_PREFIX" envDefault:"tavern:"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`
}

// Load reads .env (when present) into the process environment and parses it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return parse(env.Options{})
}

// FromMap parses a config from an explicit environment, ignoring the process one.
func FromMap(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.normalize()
	return &cfg, nil
}

func (c *Config) normalize() {
	c.CommandPrefix = strings.TrimSpace(c.CommandPrefix)
	c.StorageBackend = strings.ToLower(strings.TrimSpace(c.StorageBackend))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))

	ids := c.GuildBlacklist[:0]
	for _, id := range c.GuildBlacklist {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	c.GuildBlacklist = ids
}

// Validate checks the settings the Discord bot cannot start without.
func (c *Config) Validate() error {
	if c.DiscordToken == "" {
		return ErrMissingToken
	}
	if c.CommandPrefix == "" {
		return errors.New("COMMAND_PREFIX must not be empty")
	}
	switch c.StorageBackend {
	case "file", "redis", "memory":
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	return nil
}

// IsGuildBlacklisted reports whether the bot must leave guildID.
func (c *Config) IsGuildBlacklisted(guildID string) bool {
	for _, id := range c.GuildBlacklist {
		if id == guildID {
			return true
		}
	}
	return false
}
