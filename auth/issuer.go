package auth

import (
	"time"

	autherrors "github.com/jrsteele09/go-service-auth/internal/errors"
	"github.com/jrsteele09/go-service-auth/oauth2"
	"github.com/jrsteele09/go-service-auth/token"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	defaultAccessTokenExpiry  = 24 * time.Hour
	defaultRefreshTokenExpiry = 7 * 24 * time.Hour
)

// Issuer mints access+refresh pairs for the client_credentials and
// refresh_token grants. It keeps no state between calls.
type Issuer struct {
	credentials        *Credentials
	codec              *token.Codec
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
}

// IssuerOption defines a function type to modify the Issuer instance.
type IssuerOption func(*Issuer)

// WithTokenExpiry overrides the default access (1 day) and refresh (7 day) lifetimes.
func WithTokenExpiry(accessTokenExpiry, refreshTokenExpiry time.Duration) IssuerOption {
	return func(is *Issuer) {
		is.accessTokenExpiry = accessTokenExpiry
		is.refreshTokenExpiry = refreshTokenExpiry
	}
}

// NewIssuer initializes a new Issuer with required dependencies.
func NewIssuer(credentials *Credentials, codec *token.Codec, options ...IssuerOption) (*Issuer, error) {
	if credentials == nil {
		return nil, errors.New("[NewIssuer] credentials are required")
	}
	if codec == nil {
		return nil, errors.New("[NewIssuer] codec is required")
	}

	is := &Issuer{
		credentials:        credentials,
		codec:              codec,
		accessTokenExpiry:  defaultAccessTokenExpiry,
		refreshTokenExpiry: defaultRefreshTokenExpiry,
	}
	for _, opt := range options {
		opt(is)
	}

	if is.accessTokenExpiry <= 0 || is.refreshTokenExpiry <= 0 {
		return nil, errors.New("[NewIssuer] token expiry must be positive")
	}
	return is, nil
}

// Issue handles a token request. Failures wrap ErrInvalidClient,
// ErrInvalidGrant or ErrUnsupportedGrantType from internal/errors.
func (is *Issuer) Issue(req oauth2.TokenRequest) (*oauth2.TokenResponse, error) {
	switch req.GrantType {
	case oauth2.ClientCredentialsGrant:
		return is.clientCredentials(req.Username, req.Password)
	case oauth2.RefreshTokenGrant:
		return is.refresh(req.RefreshToken)
	default:
		return nil, errors.Wrapf(autherrors.ErrUnsupportedGrantType, "[Issuer.Issue] %q", req.GrantType)
	}
}

func (is *Issuer) clientCredentials(username, password string) (*oauth2.TokenResponse, error) {
	if !is.credentials.Check(username, password) {
		return nil, errors.Wrap(autherrors.ErrInvalidClient, "[Issuer.clientCredentials]")
	}
	log.Debug().Str("subject", username).Msg("issuing tokens for client_credentials grant")
	return is.tokenPair(username)
}

func (is *Issuer) refresh(rawRefreshToken string) (*oauth2.TokenResponse, error) {
	payload, err := is.codec.VerifyType(rawRefreshToken, oauth2.RefreshToken)
	if err != nil {
		return nil, errors.Wrap(autherrors.WithCause(autherrors.ErrInvalidGrant, err), "[Issuer.refresh] codec.VerifyType")
	}
	log.Debug().Str("subject", payload.Subject).Msg("rotating tokens for refresh_token grant")
	return is.tokenPair(payload.Subject)
}

// tokenPair mints a new access token and a new refresh token for subject.
func (is *Issuer) tokenPair(subject string) (*oauth2.TokenResponse, error) {
	accessToken, err := is.codec.Sign(subject, oauth2.AccessToken, is.accessTokenExpiry)
	if err != nil {
		return nil, errors.Wrap(autherrors.WithCause(autherrors.ErrInternal, err), "[Issuer.tokenPair] access token")
	}
	refreshToken, err := is.codec.Sign(subject, oauth2.RefreshToken, is.refreshTokenExpiry)
	if err != nil {
		return nil, errors.Wrap(autherrors.WithCause(autherrors.ErrInternal, err), "[Issuer.tokenPair] refresh token")
	}

	return &oauth2.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    oauth2.BearerTokenType,
		ExpiresIn:    int(is.accessTokenExpiry.Seconds()),
	}, nil
}
