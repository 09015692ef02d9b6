package config

import (
	"github.com/spf13/viper"

	sharedConfig "settlo/internal/shared/config"
)

// ViperSettings reads payment tunables live from viper on every call, so a
// watched config file reload is visible immediately.
type ViperSettings struct{}

var _ sharedConfig.Settings = (*ViperSettings)(nil)

func NewViperSettings() *ViperSettings {
	return &ViperSettings{}
}

func (s *ViperSettings) OrderTimeoutMinutes() int {
	return viper.GetInt("payment.order_timeout_minutes")
}

func (s *ViperSettings) WebhookSecret() string {
	return viper.GetString("payment.webhook_secret")
}

func (s *ViperSettings) TimestampSkewSeconds() int {
	return viper.GetInt("payment.timestamp_skew_seconds")
}

func (s *ViperSettings) ReceivingAddresses() []string {
	return viper.GetStringSlice("payment.receiving_addresses")
}
