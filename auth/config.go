package auth

import "time"

const (
	DefaultPendingTTL      = 60 * time.Second
	DefaultSessionTTL      = 60 * time.Second
	DefaultExchangeTimeout = 10 * time.Second
)

// Config represents the authorization relay settings.
type Config struct {
	// PendingTTL bounds how long an authorization link stays usable.
	PendingTTL time.Duration
	// SessionTTL is how long an obtained access token is reused.
	SessionTTL      time.Duration
	ExchangeTimeout time.Duration
	// AcceptAccessToken allows callbacks carrying an already exchanged access_token.
	AcceptAccessToken bool
}

func (c *Config) init() {
	if c.PendingTTL <= 0 {
		c.PendingTTL = DefaultPendingTTL
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = DefaultSessionTTL
	}
	if c.ExchangeTimeout <= 0 {
		c.ExchangeTimeout = DefaultExchangeTimeout
	}
}
