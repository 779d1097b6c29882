package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/prospect/internal/domain/model"
	"github.com/okian/prospect/internal/domain/scoring"
)

// athleteRequest mirrors the OpenAPI schema for PUT /athletes/{id}.
type athleteRequest struct {
	Name             string `json:"name"`
	Sport            string `json:"sport"`
	BirthDate        string `json:"birth_date"`
	Tier             string `json:"tier"`
	Position         string `json:"position"`
	PrimaryPitchType string `json:"primary_pitch_type"`
}

type dailyLogRequest struct {
	Status       model.DayStatus `json:"status"`
	RestReason   string          `json:"rest_reason"`
	Injury       bool            `json:"injury"`
	Notes        string          `json:"notes"`
	SleepHours   *float64        `json:"sleep_hours"`
	SleepQuality *int            `json:"sleep_quality"`
	StressLevel  *int            `json:"stress_level"`
}

type sessionRequest struct {
	SessionType model.SessionType  `json:"session_type"`
	Date        string             `json:"date"`
	Sport       string             `json:"sport"`
	Blocks      []model.DrillBlock `json:"blocks"`
	Grades      model.Grades       `json:"grades"`
}

type flagRequest struct {
	RuleID  model.Condition `json:"rule_id"`
	Details string          `json:"details"`
}

type resolveRequest struct {
	Action string `json:"action"`
	Notes  string `json:"notes"`
}

type proStatusRequest struct {
	Verified bool           `json:"verified"`
	Seasons  map[string]int `json:"seasons"`
}

func (s *Server) handleGetAthlete(w http.ResponseWriter, r *http.Request) {
	a, err := s.deps.Athlete(r.Context(), chi.URLParam(r, "athleteID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, a)
}

func (s *Server) handlePutAthlete(w http.ResponseWriter, r *http.Request) {
	var req athleteRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	birth, err := parseDay("birth_date", req.BirthDate)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	a, err := s.deps.RegisterAthlete(r.Context(), model.Athlete{
		ID:               chi.URLParam(r, "athleteID"),
		Name:             req.Name,
		Sport:            model.Sport(req.Sport),
		BirthDate:        birth,
		Tier:             req.Tier,
		Position:         req.Position,
		PrimaryPitchType: req.PrimaryPitchType,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, a)
}

func (s *Server) handlePutDailyLog(w http.ResponseWriter, r *http.Request) {
	day, err := parseDay("date", chi.URLParam(r, "date"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req dailyLogRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	e, err := s.deps.LogDay(r.Context(), model.DailyLogEntry{
		AthleteID:    chi.URLParam(r, "athleteID"),
		Date:         day,
		Status:       req.Status,
		RestReason:   req.RestReason,
		Injury:       req.Injury,
		Notes:        req.Notes,
		SleepHours:   req.SleepHours,
		SleepQuality: req.SleepQuality,
		StressLevel:  req.StressLevel,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, e)
}

func (s *Server) handlePostSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	day, err := parseDay("date", req.Date)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.deps.RecordSession(r.Context(), model.PerformanceSession{
		AthleteID: chi.URLParam(r, "athleteID"),
		Sport:     model.ParseSport(req.Sport),
		Type:      req.SessionType,
		Date:      day,
		Blocks:    req.Blocks,
		Grades:    req.Grades,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.DeleteSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetFlags(w http.ResponseWriter, r *http.Request) {
	flags, err := s.deps.Flags(r.Context(), chi.URLParam(r, "athleteID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, flags)
}

func (s *Server) handlePostFlag(w http.ResponseWriter, r *http.Request) {
	var req flagRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	f, err := s.deps.RaiseFlag(r.Context(), chi.URLParam(r, "athleteID"), req.RuleID, req.Details)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, f)
}

func (s *Server) handleResolveFlag(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	f, err := s.deps.ResolveFlag(r.Context(), chi.URLParam(r, "flagID"), req.Action, req.Notes)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, f)
}

func (s *Server) handleGetIntegrityRules(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, scoring.IntegrityRules())
}

func (s *Server) handlePutProStatus(w http.ResponseWriter, r *http.Request) {
	var req proStatusRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.deps.SetProfessionalStatus(r.Context(), model.ProfessionalStatus{
		AthleteID: chi.URLParam(r, "athleteID"),
		Verified:  req.Verified,
		Seasons:   req.Seasons,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}
