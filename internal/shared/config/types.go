package config

import "fmt"

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
	// AllowedOrigins lists origins permitted to call the API cross-site.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// PaymentConfig holds the tunables of the payment attribution core.
type PaymentConfig struct {
	// OrderTimeoutMinutes is the business-level expiry applied to new orders.
	OrderTimeoutMinutes int `mapstructure:"order_timeout_minutes"`
	// WebhookSecret is the shared secret for callback signature verification.
	WebhookSecret string `mapstructure:"webhook_secret"`
	// TimestampSkewSeconds is the accepted freshness window for callback timestamps.
	TimestampSkewSeconds int `mapstructure:"timestamp_skew_seconds"`
	// ReceivingAddresses is the fixed set of on-chain receiving addresses.
	ReceivingAddresses []string `mapstructure:"receiving_addresses"`
	// SweepIntervalMinutes is how often the expiry sweeper runs.
	SweepIntervalMinutes int `mapstructure:"sweep_interval_minutes"`
	// WebhookRateLimitPerMinute caps callback submissions per client IP.
	// Zero disables throttling.
	WebhookRateLimitPerMinute int `mapstructure:"webhook_rate_limit_per_minute"`
}
