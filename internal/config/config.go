// Package config loads the starter daemon's settings from an optional YAML file and
// STARTER_* environment variables layered over defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. STARTER_API_PORT
const EnvPrefix = "STARTER"

// Storage backends
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
	StorageSQLite = "sqlite"
)

// Config is the daemon configuration
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Chain   ChainConfig   `mapstructure:"chain"`
	Storage StorageConfig `mapstructure:"storage"`
	Wallet  WalletConfig  `mapstructure:"wallet"`
	Flow    FlowConfig    `mapstructure:"flow"`
	Log     LogConfig     `mapstructure:"log"`
}

// APIConfig configures the local client API
type APIConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// TokenHash is a bcrypt hash of the bearer token; empty disables auth
	TokenHash string `mapstructure:"token_hash"`
}

// ChainConfig points at the game backend
type ChainConfig struct {
	URL       string        `mapstructure:"url"`
	Namespace string        `mapstructure:"namespace"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// StorageConfig selects where the player store is persisted
type StorageConfig struct {
	Type       string `mapstructure:"type"`
	RedisURL   string `mapstructure:"redis_url"`
	SQLitePath string `mapstructure:"sqlite_path"`
	StoreKey   string `mapstructure:"store_key"`
}

// WalletConfig configures the burner account
type WalletConfig struct {
	PrivateKey  string `mapstructure:"private_key"`
	KeyFile     string `mapstructure:"key_file"`
	AutoConnect bool   `mapstructure:"auto_connect"`
}

// FlowConfig holds the initialization and action pacing
type FlowConfig struct {
	SettleDelay     time.Duration `mapstructure:"settle_delay"`
	PacingDelay     time.Duration `mapstructure:"pacing_delay"`
	SettlementDelay time.Duration `mapstructure:"settlement_delay"`
	PollSettlement  bool          `mapstructure:"poll_settlement"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	PollTimeout     time.Duration `mapstructure:"poll_timeout"`
}

// LogConfig configures the logger
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration. An empty path searches for starter.yaml in the working directory;
// a missing file is not an error, an explicit path that cannot be read is.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("starter")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.host", "127.0.0.1")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.token_hash", "")

	v.SetDefault("chain.url", "http://localhost:5050")
	v.SetDefault("chain.namespace", "dojo_starter")
	v.SetDefault("chain.timeout", "30s")

	v.SetDefault("storage.type", StorageMemory)
	v.SetDefault("storage.redis_url", "redis://localhost:6379")
	v.SetDefault("storage.sqlite_path", "starter.db")
	v.SetDefault("storage.store_key", "dojo-starter:player-store")

	v.SetDefault("wallet.private_key", "")
	v.SetDefault("wallet.key_file", "")
	v.SetDefault("wallet.auto_connect", false)

	v.SetDefault("flow.settle_delay", "1s")
	v.SetDefault("flow.pacing_delay", "1s")
	v.SetDefault("flow.settlement_delay", "3.5s")
	v.SetDefault("flow.poll_settlement", false)
	v.SetDefault("flow.poll_interval", "500ms")
	v.SetDefault("flow.poll_timeout", "10s")

	v.SetDefault("log.level", "info")
}

// Validate checks settings that cannot be defaulted
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case StorageMemory, StorageRedis, StorageSQLite:
	default:
		return fmt.Errorf("invalid storage type %q: must be memory, redis or sqlite", c.Storage.Type)
	}
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("invalid api port %d", c.API.Port)
	}
	if c.Chain.URL == "" {
		return errors.New("chain url is required")
	}
	if c.Wallet.PrivateKey != "" && c.Wallet.KeyFile != "" {
		return errors.New("wallet private_key and key_file are mutually exclusive")
	}
	if c.Flow.PollSettlement && c.Flow.PollInterval <= 0 {
		return errors.New("flow poll_interval must be positive when polling")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// ParseLevel converts a level name to a slog level
func ParseLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", level)
	}
	return l, nil
}
