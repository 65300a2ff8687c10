package config

import "time"

type SecurityConfig interface {
	GetRateLimitWindow() time.Duration
	GetRateLimitMaxAttempts() int
	GetRateLimitSweepInterval() time.Duration
}

type Security struct{}

var _ SecurityConfig = Security{}

func (Security) GetRateLimitWindow() time.Duration {
	return 60 * time.Second
}

func (Security) GetRateLimitMaxAttempts() int {
	return 10 // per window per caller address
}

func (Security) GetRateLimitSweepInterval() time.Duration {
	return 5 * time.Minute
}
