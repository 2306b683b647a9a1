package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"

	sharedConfig "github.com/meridian-ads/meridian/internal/shared/config"
)

type Config struct {
	Server   sharedConfig.ServerConfig   `mapstructure:"server"`
	Database sharedConfig.DatabaseConfig `mapstructure:"database"`
	Logger   sharedConfig.LoggerConfig   `mapstructure:"logger"`
	Redis    sharedConfig.RedisConfig    `mapstructure:"redis"`
	Auth     sharedConfig.AuthConfig     `mapstructure:"auth"`
	Vault    sharedConfig.VaultConfig    `mapstructure:"vault"`
	Meta     sharedConfig.MetaConfig     `mapstructure:"meta"`
	Sync     sharedConfig.SyncConfig     `mapstructure:"sync"`
	Media    sharedConfig.MediaConfig    `mapstructure:"media"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load loads configuration from file and environment variables
func Load(env string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../configs")
	viper.AddConfigPath("../../configs")

	viper.SetEnvPrefix("MERIDIAN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Allow env parameter to override server mode if provided
	if env != "" && env != "default" {
		viper.Set("server.mode", env)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 3306)
	viper.SetDefault("database.username", "root")
	viper.SetDefault("database.password", "password")
	viper.SetDefault("database.database", "meridian_dev")
	viper.SetDefault("database.max_idle_conns", 10)
	viper.SetDefault("database.max_open_conns", 100)
	viper.SetDefault("database.conn_max_lifetime", 60)

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")
	viper.SetDefault("logger.output_path", "stdout")

	// Redis defaults
	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)

	// Auth defaults
	viper.SetDefault("auth.jwt_secret", "change-me-in-production")
	viper.SetDefault("auth.token_expiry_hours", 24)

	// Vault defaults. Plaintext storage requires an explicit opt-in.
	viper.SetDefault("vault.encryption_key", "")
	viper.SetDefault("vault.allow_plaintext", false)

	// Upstream platform defaults
	viper.SetDefault("meta.graph_base_url", "https://graph.facebook.com")
	viper.SetDefault("meta.api_version", "v21.0")
	viper.SetDefault("meta.retry_base_ms", 500)
	viper.SetDefault("meta.max_retries", 3)
	viper.SetDefault("meta.max_pages", 500)
	viper.SetDefault("meta.batch_size", 50)
	viper.SetDefault("meta.inter_batch_ms", 300)
	viper.SetDefault("meta.request_timeout_s", 30)
	viper.SetDefault("meta.tenant_requests_per_minute", 200)
	viper.SetDefault("meta.tenant_requests_per_hour", 4000)
	viper.SetDefault("meta.breaker_failure_threshold", 8)

	// Sync defaults
	viper.SetDefault("sync.backfill_days", 28)
	viper.SetDefault("sync.intraday_interval_min", 60)
	viper.SetDefault("sync.daily_hour_utc", 6)
	viper.SetDefault("sync.schedulers_enabled", false)

	// Media cache defaults
	viper.SetDefault("media.root_dir", "./data/media")
	viper.SetDefault("media.public_base_url", "http://localhost:8080/media")
	viper.SetDefault("media.max_size_bytes", 64<<20)
}
