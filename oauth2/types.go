package oauth2

// GrantType represents the grant type used at the token endpoint.
// Determines what credentials are required to obtain tokens.
type GrantType string

const (
	// ClientCredentialsGrant exchanges a username/password pair from the
	// credential table for an access+refresh pair.
	// Token request includes: grant_type, username, password
	ClientCredentialsGrant GrantType = "client_credentials"

	// RefreshTokenGrant exchanges a refresh token for a new access+refresh pair.
	// Token request includes: grant_type, refresh_token
	// The submitted refresh token is not re-issued; a fresh one is minted (rotation).
	RefreshTokenGrant GrantType = "refresh_token"
)

// TokenType distinguishes what a signed token may be used for. An access
// token is never accepted where a refresh token is required, and vice versa.
type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

// BearerTokenType is the token_type value returned from the token endpoint.
const BearerTokenType = "bearer"

// ScopeAuthenticated is the only scope this system grants.
const ScopeAuthenticated = "authenticated"

// Error codes returned in the "error" field of failed responses.
const (
	ErrorInvalidClient        = "invalid_client"
	ErrorInvalidGrant         = "invalid_grant"
	ErrorInvalidRequest       = "invalid_request"
	ErrorInvalidToken         = "invalid_token"
	ErrorUnsupportedGrantType = "unsupported_grant_type"
	ErrorTooManyRequests      = "too_many_requests"
	ErrorServerError          = "server_error"
)
