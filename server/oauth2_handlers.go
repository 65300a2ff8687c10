package server

import (
	"encoding/json"
	"net/http"

	"github.com/elnormous/contenttype"
	autherrors "github.com/jrsteele09/go-service-auth/internal/errors"
	"github.com/jrsteele09/go-service-auth/oauth2"
	"github.com/rs/zerolog/log"
)

const (
	contentTypeJSON = "application/json; charset=utf-8"

	maxTokenRequestBytes = 1 << 20
)

var jsonMediaType = contenttype.NewMediaType("application/json")

// Token exchanges client credentials or a refresh token for a new token pair
func (s *Server) Token() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenReq, err := parseTokenRequest(w, r)
		if err != nil {
			writeTokenError(w, autherrors.WithCause(autherrors.ErrInvalidRequest, err))
			return
		}

		tokenResponse, err := s.issuer.Issue(tokenReq)
		if err != nil {
			writeTokenError(w, err)
			return
		}

		w.Header().Set("Content-Type", contentTypeJSON)
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Pragma", "no-cache")
		_ = json.NewEncoder(w).Encode(tokenResponse)
	}
}

// Validate checks the caller's Bearer access token and echoes who it belongs to
func (s *Server) Validate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := s.auth.Validate(r.Header.Get("Authorization"))
		if err != nil {
			log.Debug().Err(err).Msg("token validation failed")
			writeInvalidToken(w)
			return
		}

		w.Header().Set("X-Auth-User", identity.Subject)
		w.Header().Set("X-Auth-Scope", identity.Scope)
		writeJSON(w, http.StatusOK, map[string]string{"status": "valid"})
	}
}

// parseTokenRequest accepts either a JSON body or a form-encoded one.
func parseTokenRequest(w http.ResponseWriter, r *http.Request) (oauth2.TokenRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxTokenRequestBytes)

	var tokenReq oauth2.TokenRequest
	if ctype, err := contenttype.GetMediaType(r); err == nil && ctype.Matches(jsonMediaType) {
		if err := json.NewDecoder(r.Body).Decode(&tokenReq); err != nil {
			return tokenReq, err
		}
		return tokenReq, nil
	}

	if err := r.ParseForm(); err != nil {
		return tokenReq, err
	}
	tokenReq = oauth2.TokenRequest{
		GrantType:    oauth2.GrantType(r.PostFormValue("grant_type")),
		Username:     r.PostFormValue("username"),
		Password:     r.PostFormValue("password"),
		RefreshToken: r.PostFormValue("refresh_token"),
	}
	return tokenReq, nil
}

// writeTokenError maps token endpoint failures to their OAuth error codes.
func writeTokenError(w http.ResponseWriter, err error) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")

	switch {
	case autherrors.Is(err, autherrors.ErrInvalidRequest):
		writeJSONError(w, oauth2.ErrorInvalidRequest, "Malformed token request", http.StatusBadRequest)
	case autherrors.Is(err, autherrors.ErrInvalidClient):
		writeJSONError(w, oauth2.ErrorInvalidClient, "Bad credentials", http.StatusUnauthorized)
	case autherrors.Is(err, autherrors.ErrInvalidGrant):
		writeJSONError(w, oauth2.ErrorInvalidGrant, "Invalid refresh token", http.StatusUnauthorized)
	case autherrors.Is(err, autherrors.ErrUnsupportedGrantType):
		writeJSONError(w, oauth2.ErrorUnsupportedGrantType, "Unsupported grant type", http.StatusBadRequest)
	case autherrors.Is(err, autherrors.ErrRateLimited):
		w.Header().Set("Retry-After", "60")
		writeJSONError(w, oauth2.ErrorTooManyRequests, "Rate limit exceeded", http.StatusTooManyRequests)
	default:
		log.Error().Err(err).Msg("token issuance failed")
		writeJSONError(w, oauth2.ErrorServerError, "Token issuance failed", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	writeJSON(w, statusCode, oauth2.ErrorResponse{
		Error:            errorCode,
		ErrorDescription: description,
	})
}
