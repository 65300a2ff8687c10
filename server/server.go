package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-service-auth/auth"
	"github.com/jrsteele09/go-service-auth/internal/config"
	"github.com/jrsteele09/go-service-auth/ratelimit"
	"github.com/jrsteele09/go-service-auth/remote"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Services are the collaborators the HTTP surface delegates to.
type Services struct {
	Issuer    *auth.Issuer
	Validator *auth.Validator
	Limiter   ratelimit.Limiter
	Registry  *remote.Registry
}

type Server struct {
	env     string // Environment (e.g., "DEV", "PROD")
	mux     *http.ServeMux
	routes  []string
	config  config.Config
	issuer  *auth.Issuer
	auth    *auth.Validator
	limiter ratelimit.Limiter
	remotes *remote.Registry
	nowFunc func() time.Time
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithNowFunc sets the clock used for request timing and the health timestamp.
func WithNowFunc(now func() time.Time) ServerOption {
	return func(s *Server) {
		s.nowFunc = now
	}
}

func New(config config.Config, services Services, options ...ServerOption) (*Server, error) {
	if services.Issuer == nil || services.Validator == nil || services.Limiter == nil {
		return nil, errors.New("[Server New] issuer, validator and limiter are required")
	}
	if services.Registry == nil {
		services.Registry = remote.New(nil)
	}

	s := &Server{
		mux:     http.NewServeMux(),
		config:  config,
		issuer:  services.Issuer,
		auth:    services.Validator,
		limiter: services.Limiter,
		remotes: services.Registry,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	s.env = config.GetEnv()

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != config.DefaultEnvName {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		method, path, ok := strings.Cut(route, " ")
		if !ok {
			method, path = "", route
		}
		log.Info().Msgf("[%s] %s", colourMethod(method), path)
	}
}
