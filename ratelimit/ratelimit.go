// Package ratelimit provides sliding-window admission control for the token
// endpoint. Each key (normally the caller's address) may make at most N
// attempts in any trailing window of length W.
package ratelimit

import (
	"context"
	"time"
)

// Limiter decides whether an attempt from key is admitted. An admitted
// attempt is recorded; a rejected one is not.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

const (
	DefaultWindow        = 60 * time.Second
	DefaultMaxAttempts   = 10
	DefaultSweepInterval = 5 * time.Minute
)
