package server

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteHealth, ChainMiddleware(s.Health(), s.APIMiddleware()...))

	// Token endpoint is the only route that accepts passwords, so it is the one that is rate limited
	s.RegisterRouteHandler("POST "+RouteAuthToken, ChainMiddleware(s.Token(), s.APIMiddleware(s.RateLimitMiddleware)...))
	s.RegisterRouteHandler("GET "+RouteAuthValidate, ChainMiddleware(s.Validate(), s.APIMiddleware()...))

	s.RegisterRouteHandler("GET "+RouteAuthRemotes, ChainMiddleware(s.Remotes(), s.APIMiddleware(s.RequireAuth())...))
}
