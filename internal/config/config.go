package config

import "time"

type Config interface {
	EnvConfig
	OAuthConfig
	SecurityConfig
	ClientConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetJWTSecret() string
	GetCredentials() map[string]string
	GetRemoteTargets() []RemoteTarget
	GetRedisConfig() (RedisConfig, bool)
}

// ClientConfig controls how this process talks to peer token endpoints.
type ClientConfig interface {
	GetTokenClientTimeout() time.Duration
	GetTokenClientSkew() time.Duration
}

type mainConfig struct {
	EnvVars
	OAuth
	Security
	Client
}

func New() Config {
	return mainConfig{}
}
