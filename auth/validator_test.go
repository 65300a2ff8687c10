package auth_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-service-auth/auth"
	autherrors "github.com/jrsteele09/go-service-auth/internal/errors"
	"github.com/jrsteele09/go-service-auth/oauth2"
	"github.com/jrsteele09/go-service-auth/token"
	"github.com/stretchr/testify/require"
)

func TestValidator_Validate(t *testing.T) {
	f := setupTestFixture(t)
	resp := f.issueClientCredentials(t)

	identity, err := f.validator.Validate("Bearer " + resp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, testUsername, identity.Subject)
	require.Equal(t, oauth2.ScopeAuthenticated, identity.Scope)
	require.True(t, identity.ExpiresAt.Equal(f.now.Add(testAccessTTL)))
}

func TestValidator_RejectsRefreshToken(t *testing.T) {
	f := setupTestFixture(t)
	resp := f.issueClientCredentials(t)

	// The refresh token is a perfectly valid token for the codec...
	_, err := f.codec.Verify(resp.RefreshToken)
	require.NoError(t, err)

	// ...but never an access token.
	_, err = f.validator.Validate("Bearer " + resp.RefreshToken)
	require.ErrorIs(t, err, autherrors.ErrInvalidToken)
	require.ErrorIs(t, err, token.ErrWrongTokenType)
}

func TestValidator_RejectsExpired(t *testing.T) {
	f := setupTestFixture(t)
	resp := f.issueClientCredentials(t)

	f.now = f.now.Add(testAccessTTL)
	_, err := f.validator.Validate("Bearer " + resp.AccessToken)
	require.ErrorIs(t, err, autherrors.ErrInvalidToken)
	require.ErrorIs(t, err, token.ErrTokenExpired)
}

func TestValidator_RejectsForeignSignature(t *testing.T) {
	f := setupTestFixture(t)
	foreign := token.NewHMACCodec("not-our-secret", token.WithNowFunc(func() time.Time { return f.now }))
	raw, err := foreign.Sign(testUsername, oauth2.AccessToken, time.Hour)
	require.NoError(t, err)

	_, err = f.validator.Validate("Bearer " + raw)
	require.ErrorIs(t, err, autherrors.ErrInvalidToken)
	require.ErrorIs(t, err, token.ErrBadSignature)
}

func TestValidator_HeaderShape(t *testing.T) {
	f := setupTestFixture(t)
	resp := f.issueClientCredentials(t)

	t.Run("missing", func(t *testing.T) {
		_, err := f.validator.Validate("")
		require.ErrorIs(t, err, autherrors.ErrInvalidToken)
		require.ErrorIs(t, err, auth.ErrMissingAuthorization)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		_, err := f.validator.Validate("Basic " + resp.AccessToken)
		require.ErrorIs(t, err, auth.ErrMalformedAuthorization)
	})

	t.Run("no token", func(t *testing.T) {
		_, err := f.validator.Validate("Bearer ")
		require.ErrorIs(t, err, auth.ErrMalformedAuthorization)
	})

	t.Run("bare token", func(t *testing.T) {
		_, err := f.validator.Validate(resp.AccessToken)
		require.ErrorIs(t, err, auth.ErrMalformedAuthorization)
	})

	t.Run("lowercase scheme", func(t *testing.T) {
		_, err := f.validator.Validate("bearer " + resp.AccessToken)
		require.NoError(t, err)
	})
}
