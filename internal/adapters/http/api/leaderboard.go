package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// handleGetLeaderboard handles GET /leaderboard?limit=N requests.
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	n := defaultLeaderboardLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			s.writeError(w, r, badRequest("invalid limit %q", v))
			return
		}
		n = parsed
	}
	if n > s.maxLimit {
		s.writeError(w, r, badRequest("limit %d exceeds maximum %d", n, s.maxLimit))
		return
	}
	entries, err := s.deps.TopN(r.Context(), n)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, entries)
}

// handleGetRank handles GET /rank/{athlete_id} requests.
func (s *Server) handleGetRank(w http.ResponseWriter, r *http.Request) {
	entry, err := s.deps.Rank(r.Context(), chi.URLParam(r, "athleteID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, entry)
}
