package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-service-auth/auth"
	"github.com/jrsteele09/go-service-auth/internal/config"
	"github.com/jrsteele09/go-service-auth/ratelimit"
	"github.com/jrsteele09/go-service-auth/ratelimit/redisstore"
	"github.com/jrsteele09/go-service-auth/remote"
	"github.com/jrsteele09/go-service-auth/server"
	"github.com/jrsteele09/go-service-auth/token"
	"github.com/jrsteele09/go-service-auth/tokenclient"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

func main() {
	var overrides config.Overrides
	pflag.StringVarP(&overrides.Port, "port", "p", "", "listen port or address (overrides PORT)")
	pflag.StringVar(&overrides.LogLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
	pflag.StringVar(&overrides.Env, "env", "", "environment name (overrides ENV)")
	pflag.Parse()

	if err := run(overrides); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
	log.Info().Msg("Server stopped")
}

func run(overrides config.Overrides) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.WithOverrides(config.New(), overrides)
	setupLogging(c)
	displayAppname(c.GetAppName())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	services, cleanup, err := buildServices(ctx, c)
	if err != nil {
		return err
	}
	defer cleanup()

	handler, err := server.New(c, services)
	if err != nil {
		return errors.Wrap(err, "server.New")
	}

	server := &http.Server{Addr: c.GetPort(), Handler: handler}
	go listenAndServe(server)
	waitForStopSignal()
	returnError = shutdown(server)
	return returnError
}

func setupLogging(c config.Config) {
	level, err := zerolog.ParseLevel(c.GetLogLevel())
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if c.GetEnv() == config.DefaultEnvName {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// buildServices wires the issuer, validator, limiter and remote registry from
// configuration. Background work started here stops when ctx is cancelled.
func buildServices(ctx context.Context, c config.Config) (server.Services, func(), error) {
	cleanup := func() {}

	warnDefaultSecret(c)
	codec := token.NewHMACCodec(c.GetJWTSecret())

	credentials := auth.NewCredentials(c.GetCredentials())
	if credentials.Len() == 0 {
		log.Warn().Msg("no client credentials configured; every client_credentials grant will be rejected")
	}

	issuer, err := auth.NewIssuer(credentials, codec,
		auth.WithTokenExpiry(c.GetDefaultAccessTokenExpiry(), c.GetDefaultRefreshTokenExpiry()))
	if err != nil {
		return server.Services{}, cleanup, errors.Wrap(err, "auth.NewIssuer")
	}

	limiter, cleanup, err := buildLimiter(ctx, c)
	if err != nil {
		return server.Services{}, cleanup, err
	}

	registry := remote.New(c.GetRemoteTargets(),
		tokenclient.WithTimeout(c.GetTokenClientTimeout()),
		tokenclient.WithSkew(c.GetTokenClientSkew()),
		tokenclient.WithHTTPClient(&http.Client{Timeout: c.GetTokenClientTimeout()}),
	)
	log.Info().Int("credentials", credentials.Len()).Strs("remotes", registry.Names()).Msg("auth configured")

	return server.Services{
		Issuer:    issuer,
		Validator: auth.NewValidator(codec),
		Limiter:   limiter,
		Registry:  registry,
	}, cleanup, nil
}

// warnDefaultSecret logs a warning when tokens would be signed with the
// built-in secret, and reports whether it did.
func warnDefaultSecret(c config.Config) bool {
	if c.GetJWTSecret() != config.DefaultJWTSecret {
		return false
	}
	log.Warn().Msg("JWT_SECRET is not set; tokens are signed with the built-in default secret")
	return true
}

func buildLimiter(ctx context.Context, c config.Config) (ratelimit.Limiter, func(), error) {
	if redisCfg, ok := c.GetRedisConfig(); ok {
		client := redis.NewClient(&redis.Options{
			Addr:     redisCfg.Addr,
			Password: redisCfg.Password,
			DB:       redisCfg.DB,
		})
		limiter, err := redisstore.New(redisstore.Config{
			Client:      client,
			KeyPrefix:   redisCfg.KeyPrefix,
			Window:      c.GetRateLimitWindow(),
			MaxAttempts: c.GetRateLimitMaxAttempts(),
		})
		if err != nil {
			client.Close()
			return nil, func() {}, errors.Wrap(err, "redisstore.New")
		}
		if err := limiter.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", redisCfg.Addr).Msg("rate limit store unreachable at startup")
		}
		log.Info().Str("addr", redisCfg.Addr).Msg("rate limiting with shared redis store")
		return limiter, func() { client.Close() }, nil
	}

	limiter := ratelimit.NewMemory(
		ratelimit.WithWindow(c.GetRateLimitWindow(), c.GetRateLimitMaxAttempts()),
		ratelimit.WithSweepInterval(c.GetRateLimitSweepInterval()),
	)
	go limiter.Run(ctx)
	log.Info().Msg("rate limiting in process")
	return limiter, func() {}, nil
}

func listenAndServe(server *http.Server) {
	log.Info().Msgf("Server listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server.ListenAndServe")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "server.Shutdown")
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
