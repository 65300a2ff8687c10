package config

import "time"

type OAuthConfig interface {
	GetDefaultAccessTokenExpiry() time.Duration
	GetDefaultRefreshTokenExpiry() time.Duration
}

type OAuth struct{}

var _ OAuthConfig = OAuth{}

func (OAuth) GetDefaultAccessTokenExpiry() time.Duration {
	return 24 * time.Hour // 1 day
}

func (OAuth) GetDefaultRefreshTokenExpiry() time.Duration {
	return 7 * 24 * time.Hour // 7 days
}

type Client struct{}

var _ ClientConfig = Client{}

func (Client) GetTokenClientTimeout() time.Duration {
	return 10 * time.Second
}

// GetTokenClientSkew is how long before expiry a cached access token stops
// being handed out.
func (Client) GetTokenClientSkew() time.Duration {
	return 60 * time.Second
}
