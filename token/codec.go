package token

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-service-auth/oauth2"
	"github.com/pkg/errors"
)

// Verification failures returned by Verify and VerifyType.
var (
	ErrMalformedToken = errors.New("malformed token")
	ErrBadSignature   = errors.New("bad token signature")
	ErrTokenExpired   = errors.New("token expired")
	ErrWrongTokenType = errors.New("wrong token type")
)

// Claims is the signed body of every token this service mints.
type Claims struct {
	Type oauth2.TokenType `json:"type"`
	jwt.RegisteredClaims
}

// Payload is what a successfully verified token says about its bearer.
type Payload struct {
	ID        string
	Subject   string
	Type      oauth2.TokenType
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Codec signs and verifies bearer tokens. It holds no per-token state: a
// token is valid if and only if its signature checks out and it has not
// expired.
type Codec struct {
	signer  Signer
	nowFunc func() time.Time
}

// CodecOption configures a Codec.
type CodecOption func(*Codec)

// WithNowFunc sets the clock used for issued-at, expiry and verification.
func WithNowFunc(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.nowFunc = now
	}
}

// NewCodec creates a Codec that signs and verifies with signer.
func NewCodec(signer Signer, options ...CodecOption) *Codec {
	c := &Codec{
		signer:  signer,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// NewHMACCodec is shorthand for a Codec over an HS256 shared secret.
func NewHMACCodec(secret string, options ...CodecOption) *Codec {
	return NewCodec(NewHMACSigner(secret), options...)
}

// Sign mints a token for subject that expires ttl from now.
func (c *Codec) Sign(subject string, tokenType oauth2.TokenType, ttl time.Duration) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", errors.New("token subject is required")
	}
	now := c.nowFunc()
	claims := Claims{
		Type: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(), // keeps rotated tokens distinct within the same second
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := c.signer.Sign(claims)
	if err != nil {
		return "", errors.Wrap(err, "[Codec.Sign] signer.Sign")
	}
	return signed, nil
}

// Verify checks the signature and expiry of raw and returns its payload.
// Failures wrap exactly one of ErrMalformedToken, ErrBadSignature or
// ErrTokenExpired.
func (c *Codec) Verify(raw string) (*Payload, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrMalformedToken
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, c.signer.GetVerificationKey,
		jwt.WithValidMethods([]string{c.signer.GetSigningMethod().Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.nowFunc),
	)
	if err != nil {
		return nil, classify(err)
	}
	if !parsed.Valid {
		return nil, ErrMalformedToken
	}

	switch claims.Type {
	case oauth2.AccessToken, oauth2.RefreshToken:
	default:
		return nil, errors.Wrapf(ErrMalformedToken, "unknown token type %q", claims.Type)
	}
	if claims.Subject == "" || claims.IssuedAt == nil {
		return nil, errors.Wrap(ErrMalformedToken, "missing subject or issued-at")
	}

	return &Payload{
		ID:        claims.ID,
		Subject:   claims.Subject,
		Type:      claims.Type,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// VerifyType is Verify plus a check that the token is of the wanted type.
func (c *Codec) VerifyType(raw string, want oauth2.TokenType) (*Payload, error) {
	payload, err := c.Verify(raw)
	if err != nil {
		return nil, err
	}
	if payload.Type != want {
		return nil, errors.Wrapf(ErrWrongTokenType, "got %s, want %s", payload.Type, want)
	}
	return payload, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return errors.Wrapf(ErrBadSignature, "%v", err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return errors.Wrapf(ErrTokenExpired, "%v", err)
	default:
		return errors.Wrapf(ErrMalformedToken, "%v", err)
	}
}
