package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joeshaw/envdecode"
)

const (
	portEnvVar     = "PORT"
	appNameVar     = "APP_NAME"
	envVar         = "ENV"
	logLevelVar    = "LOG_LEVEL"
	jwtSecretVar   = "JWT_SECRET"
	serverUserVar  = "SERVER_AUTH_USER"
	serverPassVar  = "SERVER_AUTH_PASS"
	remotePrefix   = "REMOTE_"
	oauthPrefix    = "OAUTH_"
	DefaultEnvName = "DEV"
)

// DefaultJWTSecret is the signing secret used when JWT_SECRET is unset.
// Tokens signed with it can be forged by anyone who has read this file.
const DefaultJWTSecret = "change-me-in-production"

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	return listenAddr(GetEnv(portEnvVar, "8080"))
}

// listenAddr turns a bare port number into a listen address.
func listenAddr(port string) string {
	if port != "" && !strings.Contains(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Go Service Auth")
}

func (EnvVars) GetEnv() string {
	return GetEnv(envVar, DefaultEnvName)
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelVar, "info")
}

func (EnvVars) GetJWTSecret() string {
	return GetEnv(jwtSecretVar, DefaultJWTSecret)
}

// GetCredentials returns the table of credentials this process accepts at
// its own token endpoint.
func (EnvVars) GetCredentials() map[string]string {
	return DiscoverCredentials(os.Environ())
}

// GetRemoteTargets returns one descriptor per REMOTE_<NAME>_* triple.
func (EnvVars) GetRemoteTargets() []RemoteTarget {
	return DiscoverRemoteTargets(os.Environ())
}

// RedisConfig locates the shared rate-limit store. When RATE_LIMIT_REDIS_ADDR
// is unset the limiter stays in-process.
type RedisConfig struct {
	Addr      string `env:"RATE_LIMIT_REDIS_ADDR"`
	Password  string `env:"RATE_LIMIT_REDIS_PASSWORD"`
	DB        int    `env:"RATE_LIMIT_REDIS_DB,default=0"`
	KeyPrefix string `env:"RATE_LIMIT_REDIS_PREFIX,default=auth:ratelimit:"`
}

func (EnvVars) GetRedisConfig() (RedisConfig, bool) {
	var cfg RedisConfig
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return RedisConfig{}, false
	}
	return cfg, cfg.Addr != ""
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
