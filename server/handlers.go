package server

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Time    string `json:"time"`
}

// RemotesResponse is the body of GET /auth/remotes.
type RemotesResponse struct {
	Remotes []string `json:"remotes"`
}

func (s *Server) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Service: s.config.GetAppName(),
			Time:    s.nowFunc().UTC().Format(time.RFC3339),
		})
	}
}

// Remotes lists the peer services this process can authenticate to.
// Only names are returned, never URLs or credentials.
func (s *Server) Remotes() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subject, _ := SubjectFromContext(r.Context())
		log.Debug().Str("subject", subject).Msg("listing remotes")

		names := s.remotes.Names()
		if names == nil {
			names = []string{}
		}
		writeJSON(w, http.StatusOK, RemotesResponse{Remotes: names})
	}
}
