package auth

import (
	"strings"
	"time"

	autherrors "github.com/jrsteele09/go-service-auth/internal/errors"
	"github.com/jrsteele09/go-service-auth/oauth2"
	"github.com/jrsteele09/go-service-auth/token"
	"github.com/pkg/errors"
)

// Authorization header errors, reported alongside ErrInvalidToken.
var (
	ErrMissingAuthorization   = errors.New("missing Authorization header")
	ErrMalformedAuthorization = errors.New("malformed Authorization header")
)

// Identity is what a validated access token grants its bearer.
type Identity struct {
	Subject   string
	Scope     string
	ExpiresAt time.Time
}

// Validator checks bearer access tokens on protected endpoints.
type Validator struct {
	codec *token.Codec
}

func NewValidator(codec *token.Codec) *Validator {
	return &Validator{codec: codec}
}

// Validate takes the raw Authorization header value. Every failure wraps
// ErrInvalidToken together with the specific cause (missing header, bad
// signature, expiry, or a refresh token presented as an access token).
func (v *Validator) Validate(authorizationHeader string) (*Identity, error) {
	raw, err := ParseBearer(authorizationHeader)
	if err != nil {
		return nil, errors.Wrap(autherrors.WithCause(autherrors.ErrInvalidToken, err), "[Validator.Validate] ParseBearer")
	}
	payload, err := v.codec.VerifyType(raw, oauth2.AccessToken)
	if err != nil {
		return nil, errors.Wrap(autherrors.WithCause(autherrors.ErrInvalidToken, err), "[Validator.Validate] codec.VerifyType")
	}
	return &Identity{
		Subject:   payload.Subject,
		Scope:     oauth2.ScopeAuthenticated,
		ExpiresAt: payload.ExpiresAt,
	}, nil
}

// ParseBearer extracts the token from a "Bearer <token>" header value.
func ParseBearer(authorizationHeader string) (string, error) {
	if strings.TrimSpace(authorizationHeader) == "" {
		return "", ErrMissingAuthorization
	}
	scheme, raw, ok := strings.Cut(authorizationHeader, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", ErrMalformedAuthorization
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrMalformedAuthorization
	}
	return raw, nil
}
