package config

// Settings is the hot-reloadable view of the payment tunables. Use cases
// read through this interface on every call instead of capturing values at
// construction time, so a config reload takes effect without a restart.
type Settings interface {
	OrderTimeoutMinutes() int
	WebhookSecret() string
	TimestampSkewSeconds() int
	ReceivingAddresses() []string
}

// StaticSettings is a fixed-value Settings implementation, used in tests and
// as a fallback when no config file is present.
type StaticSettings struct {
	TimeoutMinutes int
	Secret         string
	SkewSeconds    int
	Addresses      []string
}

func (s StaticSettings) OrderTimeoutMinutes() int  { return s.TimeoutMinutes }
func (s StaticSettings) WebhookSecret() string     { return s.Secret }
func (s StaticSettings) TimestampSkewSeconds() int { return s.SkewSeconds }
func (s StaticSettings) ReceivingAddresses() []string {
	return s.Addresses
}
