package token_test

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-service-auth/oauth2"
	"github.com/jrsteele09/go-service-auth/token"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret"

// fakeClock is a settable time source shared by codecs under test.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestCodec(t *testing.T) (*token.Codec, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	return token.NewHMACCodec(testSecret, token.WithNowFunc(clock.Now)), clock
}

func TestCodec_SignVerifyRoundTrip(t *testing.T) {
	codec, clock := newTestCodec(t)

	raw, err := codec.Sign("backend", oauth2.AccessToken, time.Hour)
	require.NoError(t, err)

	payload, err := codec.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, "backend", payload.Subject)
	require.Equal(t, oauth2.AccessToken, payload.Type)
	require.True(t, payload.IssuedAt.Equal(clock.now))
	require.True(t, payload.ExpiresAt.Equal(clock.now.Add(time.Hour)))
	require.NotEmpty(t, payload.ID)
}

func TestCodec_SignRequiresSubject(t *testing.T) {
	codec, _ := newTestCodec(t)
	_, err := codec.Sign("  ", oauth2.AccessToken, time.Hour)
	require.Error(t, err)
}

func TestCodec_TokensAreUniqueWithinSameInstant(t *testing.T) {
	codec, _ := newTestCodec(t)

	first, err := codec.Sign("backend", oauth2.RefreshToken, time.Hour)
	require.NoError(t, err)
	second, err := codec.Sign("backend", oauth2.RefreshToken, time.Hour)
	require.NoError(t, err)

	require.NotEqual(t, first, second)
}

func TestCodec_VerifyExpired(t *testing.T) {
	codec, clock := newTestCodec(t)

	raw, err := codec.Sign("backend", oauth2.AccessToken, time.Hour)
	require.NoError(t, err)

	clock.Advance(time.Hour - time.Second)
	_, err = codec.Verify(raw)
	require.NoError(t, err)

	// Expired exactly at expires_at.
	clock.Advance(time.Second)
	_, err = codec.Verify(raw)
	require.ErrorIs(t, err, token.ErrTokenExpired)
}

func TestCodec_VerifyBadSignature(t *testing.T) {
	codec, clock := newTestCodec(t)

	other := token.NewHMACCodec("some-other-secret", token.WithNowFunc(clock.Now))
	raw, err := other.Sign("backend", oauth2.AccessToken, time.Hour)
	require.NoError(t, err)

	_, err = codec.Verify(raw)
	require.ErrorIs(t, err, token.ErrBadSignature)
}

func TestCodec_VerifyTamperedPayload(t *testing.T) {
	codec, _ := newTestCodec(t)

	raw, err := codec.Sign("backend", oauth2.AccessToken, time.Hour)
	require.NoError(t, err)

	parts := strings.Split(raw, ".")
	require.Len(t, parts, 3)
	body, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	forged := strings.Replace(string(body), `"backend"`, `"admin"`, 1)
	require.NotEqual(t, string(body), forged)
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(forged))

	_, err = codec.Verify(strings.Join(parts, "."))
	require.ErrorIs(t, err, token.ErrBadSignature)
}

func TestCodec_VerifyRejectsNoneAlgorithm(t *testing.T) {
	codec, clock := newTestCodec(t)

	claims := token.Claims{
		Type: oauth2.AccessToken,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "backend",
			IssuedAt:  jwt.NewNumericDate(clock.now),
			ExpiresAt: jwt.NewNumericDate(clock.now.Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = codec.Verify(raw)
	require.ErrorIs(t, err, token.ErrBadSignature)
}

func TestCodec_VerifyMalformed(t *testing.T) {
	codec, _ := newTestCodec(t)

	for _, raw := range []string{"", "not-a-token", "a.b.c", "x.y"} {
		_, err := codec.Verify(raw)
		require.ErrorIs(t, err, token.ErrMalformedToken, "input %q", raw)
	}
}

func TestCodec_VerifyUnknownType(t *testing.T) {
	codec, _ := newTestCodec(t)

	raw, err := codec.Sign("backend", oauth2.TokenType("id"), time.Hour)
	require.NoError(t, err)

	_, err = codec.Verify(raw)
	require.ErrorIs(t, err, token.ErrMalformedToken)
}

func TestCodec_VerifyType(t *testing.T) {
	codec, _ := newTestCodec(t)

	refresh, err := codec.Sign("backend", oauth2.RefreshToken, time.Hour)
	require.NoError(t, err)

	_, err = codec.VerifyType(refresh, oauth2.AccessToken)
	require.ErrorIs(t, err, token.ErrWrongTokenType)

	payload, err := codec.VerifyType(refresh, oauth2.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, oauth2.RefreshToken, payload.Type)
}
