// Package config holds the typed configuration structs shared across layers.
package config

import "fmt"

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode" validate:"omitempty,oneof=debug release test"`
}

// GetAddr returns the listen address.
func (c *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig configures the MySQL connection.
type DatabaseConfig struct {
	Host            string `mapstructure:"host" validate:"required"`
	Port            int    `mapstructure:"port" validate:"required"`
	Username        string `mapstructure:"username" validate:"required"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database" validate:"required"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // minutes
}

// LoggerConfig configures slog output.
type LoggerConfig struct {
	Level      string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format     string `mapstructure:"format" validate:"omitempty,oneof=console json"`
	OutputPath string `mapstructure:"output_path"`
}

// RedisConfig configures the redis client used for the upstream rate budget.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Enabled  bool   `mapstructure:"enabled"`
}

// AuthConfig configures the service API bearer tokens.
type AuthConfig struct {
	JWTSecret        string `mapstructure:"jwt_secret" validate:"required"`
	TokenExpiryHours int    `mapstructure:"token_expiry_hours"`
}

// VaultConfig configures credential encryption.
type VaultConfig struct {
	// EncryptionKey is a base64-encoded 32-byte key. Empty disables encryption.
	EncryptionKey string `mapstructure:"encryption_key"`
	// AllowPlaintext permits storing tokens unencrypted when no key is
	// configured. The fallback is logged; it is never silent.
	AllowPlaintext bool `mapstructure:"allow_plaintext"`
}

// MetaConfig configures the upstream ads platform integration.
type MetaConfig struct {
	AppID        string `mapstructure:"app_id"`
	AppSecret    string `mapstructure:"app_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
	GraphBaseURL string `mapstructure:"graph_base_url"`
	APIVersion   string `mapstructure:"api_version"`

	RetryBaseMS      int `mapstructure:"retry_base_ms"`
	MaxRetries       int `mapstructure:"max_retries"`
	MaxPages         int `mapstructure:"max_pages"`
	BatchSize        int `mapstructure:"batch_size"`
	InterBatchMS     int `mapstructure:"inter_batch_ms"`
	RequestTimeoutS  int `mapstructure:"request_timeout_s"`
	TenantPerMinute  int `mapstructure:"tenant_requests_per_minute"`
	TenantPerHour    int `mapstructure:"tenant_requests_per_hour"`
	BreakerThreshold int `mapstructure:"breaker_failure_threshold"`
}

// SyncConfig configures the orchestrator and schedulers.
type SyncConfig struct {
	BackfillDays        int  `mapstructure:"backfill_days"`
	IntradayIntervalMin int  `mapstructure:"intraday_interval_min"`
	DailyHourUTC        int  `mapstructure:"daily_hour_utc"`
	SchedulersEnabled   bool `mapstructure:"schedulers_enabled"`
}

// MediaConfig configures the media cache store.
type MediaConfig struct {
	RootDir       string `mapstructure:"root_dir"`
	PublicBaseURL string `mapstructure:"public_base_url"`
	MaxSizeBytes  int64  `mapstructure:"max_size_bytes"`
}
