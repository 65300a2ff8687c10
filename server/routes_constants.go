package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Token issuance and validation
	RouteAuthToken    = "/auth/token"
	RouteAuthValidate = "/auth/validate"

	// Peers this process holds token clients for
	RouteAuthRemotes = "/auth/remotes"

	RouteHealth = "/health"
)
