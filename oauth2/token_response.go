package oauth2

// TokenResponse represents the response from a successful token request.
// Returned from the /auth/token endpoint for both grant types.
type TokenResponse struct {
	// AccessToken is the signed token used to call protected endpoints.
	// Usage: Include in Authorization header: "Bearer <access_token>"
	// Lifespan: Short-lived (1 day by default)
	AccessToken string `json:"access_token"`

	// RefreshToken is exchanged at the token endpoint for a new pair.
	// Usage: Send to /auth/token with grant_type=refresh_token
	// Lifespan: Long-lived (7 days by default)
	// Security: Rotates on each use
	RefreshToken string `json:"refresh_token"`

	// TokenType is always "bearer".
	TokenType string `json:"token_type"`

	// ExpiresIn is the lifetime in seconds of the access token.
	// Note: This is a hint - actual expiration is in the token's "exp" claim
	ExpiresIn int `json:"expires_in"`
}
