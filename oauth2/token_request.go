package oauth2

// TokenRequest holds parameters for the token request.
// This represents the request body sent to the /auth/token endpoint, either
// JSON or form-encoded. Fields that a grant does not use are ignored, as are
// any extra fields the caller sends.
type TokenRequest struct {
	// GrantType selects the issuance protocol.
	// Required: Yes
	// Example: "client_credentials" or "refresh_token"
	GrantType GrantType `json:"grant_type"`

	// Username identifies the caller in the credential table.
	// Required: Yes (only for client_credentials grant)
	Username string `json:"username,omitempty"`

	// Password is the caller's secret.
	// Required: Yes (only for client_credentials grant)
	// Security: Never log or expose this value
	Password string `json:"password,omitempty"`

	// RefreshToken is exchanged for a new access+refresh pair.
	// Required: Yes (only for refresh_token grant)
	RefreshToken string `json:"refresh_token,omitempty"`
}

// ErrorResponse is the body of every failed auth endpoint response.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}
