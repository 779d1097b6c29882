// Package api exposes the scoring service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/unrolled/render"

	"github.com/okian/prospect/internal/adapters/http/swagger"

	"github.com/okian/prospect/internal/domain/model"
	"github.com/okian/prospect/internal/domain/scoring"
	"github.com/okian/prospect/internal/domain/types"
	"github.com/okian/prospect/pkg/logger"
)

const (
	defaultMaxLeaderboardLimit = 100
	defaultLeaderboardLimit    = 10
	maxBodyBytes               = 1 << 20
	requestTimeout             = 30 * time.Second
)

// Dependencies required by HTTP handlers. *service.Service satisfies it.
type Dependencies interface {
	RegisterAthlete(ctx context.Context, a model.Athlete) (model.Athlete, error)
	Athlete(ctx context.Context, id string) (model.Athlete, error)
	LogDay(ctx context.Context, e model.DailyLogEntry) (model.DailyLogEntry, error)
	RecordSession(ctx context.Context, s model.PerformanceSession) (model.PerformanceSession, error)
	DeleteSession(ctx context.Context, id string) error

	RaiseFlag(ctx context.Context, athleteID string, cond model.Condition, details string) (model.IntegrityFlag, error)
	ResolveFlag(ctx context.Context, id, action, notes string) (model.IntegrityFlag, error)
	Flags(ctx context.Context, athleteID string) ([]model.IntegrityFlag, error)
	SetProfessionalStatus(ctx context.Context, p model.ProfessionalStatus) (model.ProfessionalStatus, error)

	Recompute(ctx context.Context, athleteID string, asOf time.Time) (model.CompositeScoreSnapshot, error)
	RequestRecompute(ctx context.Context, athleteID string, asOf time.Time) (types.RecomputeStatus, error)
	LatestScore(ctx context.Context, athleteID string) (model.CompositeScoreSnapshot, error)
	ScoreHistory(ctx context.Context, athleteID string, limit int) ([]model.CompositeScoreSnapshot, error)
	Consistency(ctx context.Context, athleteID string, asOf time.Time) (scoring.ConsistencyResult, error)
	Streaks(ctx context.Context, athleteID string, asOf time.Time) (scoring.StreakResult, error)
	Fatigue(ctx context.Context, athleteID string, asOf time.Time) (scoring.FatigueResult, error)
	HoF(ctx context.Context, athleteID string) (scoring.HoFResult, error)

	// Read operations expose leaderboard data.
	TopN(ctx context.Context, n int) ([]Entry, error)
	Rank(ctx context.Context, athleteID string) (Entry, error)

	StatsProvider
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	deps     Dependencies
	render   *render.Render
	maxLimit int
	logger   logger.Logger
}

// NewServer creates a new API server.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:     deps,
		render:   render.New(render.Options{UnEscapeHTML: true}),
		maxLimit: defaultMaxLeaderboardLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("http")
	}
	return s
}

// Router builds the full HTTP handler: middleware, API routes and docs.
func (s *Server) Router(ctx context.Context) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(middleware.Timeout(requestTimeout))

	s.Register(ctx, r)
	swagger.Register(ctx, r)
	return r
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	if r == nil {
		panic("router is nil")
	}

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", metricsHandler())
	r.Get("/stats", s.handleStats)

	r.Route("/athletes/{athleteID}", func(r chi.Router) {
		r.Get("/", s.handleGetAthlete)
		r.Put("/", s.handlePutAthlete)
		r.Put("/daily-logs/{date}", s.handlePutDailyLog)
		r.Post("/sessions", s.handlePostSession)

		r.Post("/recompute", s.handleRecompute)
		r.Get("/mpi", s.handleGetMPI)
		r.Get("/mpi/history", s.handleGetHistory)
		r.Get("/consistency", s.handleGetConsistency)
		r.Get("/streaks", s.handleGetStreaks)
		r.Get("/fatigue", s.handleGetFatigue)
		r.Get("/hof", s.handleGetHoF)

		r.Get("/flags", s.handleGetFlags)
		r.Post("/flags", s.handlePostFlag)
		r.Put("/pro-status", s.handlePutProStatus)
	})
	r.Delete("/sessions/{sessionID}", s.handleDeleteSession)
	r.Post("/flags/{flagID}/resolve", s.handleResolveFlag)
	r.Get("/integrity/rules", s.handleGetIntegrityRules)

	r.Get("/leaderboard", s.handleGetLeaderboard)
	r.Get("/rank/{athleteID}", s.handleGetRank)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	if err := s.render.JSON(w, status, v); err != nil {
		s.logger.Warn(context.Background(), "response not written", logger.Error(err))
	}
}

// writeError maps err onto its status code and writes the error body.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Error(err),
		)
	}
	s.writeJSON(w, status, errorResponse{Code: code, Message: err.Error()})
}

// decode reads a JSON body of at most maxBodyBytes into v.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return badRequest("invalid JSON body: %v", err)
	}
	return nil
}

// parseDay parses a YYYY-MM-DD date. Empty input yields the zero time.
func parseDay(name, v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(model.DateLayout, v, time.UTC)
	if err != nil {
		return time.Time{}, badRequest("invalid %s %q; must be YYYY-MM-DD", name, v)
	}
	return t, nil
}

func asOfParam(r *http.Request) (time.Time, error) {
	return parseDay("as_of", r.URL.Query().Get("as_of"))
}
