package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/okian/prospect/internal/domain/types"
)

type recomputeResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// handleRecompute serves POST /athletes/{id}/recompute. With sync=true the
// snapshot is computed inline and returned; otherwise the request is queued.
func (s *Server) handleRecompute(w http.ResponseWriter, r *http.Request) {
	athleteID := chi.URLParam(r, "athleteID")
	asOf, err := asOfParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if sync, _ := strconv.ParseBool(r.URL.Query().Get("sync")); sync {
		snap, err := s.deps.Recompute(r.Context(), athleteID, asOf)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, snap)
		return
	}

	status, err := s.deps.RequestRecompute(r.Context(), athleteID, asOf)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	code := http.StatusAccepted
	if status == types.RecomputeDuplicate {
		code = http.StatusOK
	}
	s.writeJSON(w, code, recomputeResponse{Status: string(status), Duplicate: status == types.RecomputeDuplicate})
}

func (s *Server) handleGetMPI(w http.ResponseWriter, r *http.Request) {
	snap, err := s.deps.LatestScore(r.Context(), chi.URLParam(r, "athleteID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeError(w, r, badRequest("invalid limit %q", v))
			return
		}
		limit = n
	}
	history, err := s.deps.ScoreHistory(r.Context(), chi.URLParam(r, "athleteID"), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleGetConsistency(w http.ResponseWriter, r *http.Request) {
	asOf, err := asOfParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.deps.Consistency(r.Context(), chi.URLParam(r, "athleteID"), asOf)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGetStreaks(w http.ResponseWriter, r *http.Request) {
	asOf, err := asOfParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.deps.Streaks(r.Context(), chi.URLParam(r, "athleteID"), asOf)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGetFatigue(w http.ResponseWriter, r *http.Request) {
	asOf, err := asOfParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.deps.Fatigue(r.Context(), chi.URLParam(r, "athleteID"), asOf)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGetHoF(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.HoF(r.Context(), chi.URLParam(r, "athleteID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}
