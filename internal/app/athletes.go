package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/prospect/internal/adapters/storage"
	"github.com/okian/prospect/internal/domain/model"
	"github.com/okian/prospect/internal/domain/scoring"
	"github.com/okian/prospect/pkg/logger"
	"github.com/okian/prospect/pkg/metrics"
)

const maxIDLength = 64

func normalize(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func validID(id string) error {
	switch {
	case strings.TrimSpace(id) == "":
		return invalid("missing id")
	case len(id) > maxIDLength:
		return invalid("id longer than %d characters", maxIDLength)
	}
	return nil
}

func validGrade(name string, g *float64) error {
	if g == nil {
		return nil
	}
	if math.IsNaN(*g) || *g < model.MinGrade || *g > model.MaxGrade {
		return invalid("%s must be between %.0f and %.0f", name, model.MinGrade, model.MaxGrade)
	}
	return nil
}

// notAfterToday rejects dates past the service's current calendar day.
func (s *Service) notAfterToday(what string, t time.Time) error {
	if t.IsZero() {
		return invalid("missing %s", what)
	}
	if model.Day(t).After(model.Day(s.clock.Now())) {
		return invalid("%s is in the future", what)
	}
	return nil
}

// requestAfterWrite schedules a recompute after a write. Failures are logged;
// the periodic sweep or an explicit request catches the athlete up.
func (s *Service) requestAfterWrite(ctx context.Context, athleteID, reason string) {
	if !s.autoRecompute || !s.isStarted() {
		return
	}
	if _, err := s.enqueue(ctx, athleteID, s.clock.Now(), reason); err != nil {
		s.log().Warn(ctx, "recompute not scheduled",
			logger.String("athlete_id", athleteID),
			logger.String("reason", reason),
			logger.Error(err),
		)
	}
}

func (s *Service) log() logger.Logger {
	if s.logger == nil {
		return logger.Get().Named("service")
	}
	return s.logger
}

// RegisterAthlete creates or updates an athlete profile.
func (s *Service) RegisterAthlete(ctx context.Context, a model.Athlete) (model.Athlete, error) {
	if err := validID(a.ID); err != nil {
		return model.Athlete{}, err
	}
	a.Sport = model.ParseSport(string(a.Sport))
	if !a.Sport.Valid() {
		return model.Athlete{}, invalid("unknown sport %q", a.Sport)
	}
	if !a.BirthDate.IsZero() {
		if err := s.notAfterToday("birth_date", a.BirthDate); err != nil {
			return model.Athlete{}, err
		}
		a.BirthDate = model.Day(a.BirthDate)
	}
	a.Name = strings.TrimSpace(a.Name)
	a.Tier = normalize(a.Tier)
	a.Position = normalize(a.Position)
	a.PrimaryPitchType = normalize(a.PrimaryPitchType)

	now := s.clock.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	existing, err := s.store.Athlete(ctx, a.ID)
	switch {
	case err == nil:
		a.CreatedAt = existing.CreatedAt
	case !errors.Is(err, storage.ErrNotFound):
		return model.Athlete{}, translate("register athlete", err)
	}

	if err := s.store.UpsertAthlete(ctx, a); err != nil {
		return model.Athlete{}, translate("register athlete", err)
	}
	s.requestAfterWrite(ctx, a.ID, "profile_updated")
	return a, nil
}

// Athlete returns a registered athlete's profile.
func (s *Service) Athlete(ctx context.Context, id string) (model.Athlete, error) {
	a, err := s.store.Athlete(ctx, id)
	if err != nil {
		return model.Athlete{}, translate("athlete "+id, err)
	}
	return a, nil
}

// LogDay records the athlete's daily status, replacing any entry for that day.
func (s *Service) LogDay(ctx context.Context, e model.DailyLogEntry) (model.DailyLogEntry, error) {
	if _, err := s.Athlete(ctx, e.AthleteID); err != nil {
		return model.DailyLogEntry{}, err
	}
	if !e.Status.Valid() {
		return model.DailyLogEntry{}, invalid("unknown status %q", e.Status)
	}
	if err := s.notAfterToday("date", e.Date); err != nil {
		return model.DailyLogEntry{}, err
	}
	if e.SleepHours != nil && (math.IsNaN(*e.SleepHours) || *e.SleepHours < 0 || *e.SleepHours > 24) {
		return model.DailyLogEntry{}, invalid("sleep_hours must be between 0 and 24")
	}
	if e.SleepQuality != nil && (*e.SleepQuality < 1 || *e.SleepQuality > 5) {
		return model.DailyLogEntry{}, invalid("sleep_quality must be between 1 and 5")
	}
	if e.StressLevel != nil && (*e.StressLevel < 1 || *e.StressLevel > 10) {
		return model.DailyLogEntry{}, invalid("stress_level must be between 1 and 10")
	}

	e.Date = model.Day(e.Date)
	e.UpdatedAt = s.clock.Now().UTC()
	if err := s.store.UpsertDailyLog(ctx, e); err != nil {
		return model.DailyLogEntry{}, translate("log day", err)
	}
	metrics.RecordDailyLog()
	s.requestAfterWrite(ctx, e.AthleteID, "daily_log")
	return e, nil
}

// RecordSession stores a new session with its effective grade resolved.
func (s *Service) RecordSession(ctx context.Context, sess model.PerformanceSession) (model.PerformanceSession, error) {
	a, err := s.Athlete(ctx, sess.AthleteID)
	if err != nil {
		return model.PerformanceSession{}, err
	}
	if !scoring.KnownSessionType(sess.Type) {
		return model.PerformanceSession{}, invalid("unknown session type %q", sess.Type)
	}
	if err := s.notAfterToday("date", sess.Date); err != nil {
		return model.PerformanceSession{}, err
	}
	for i, b := range sess.Blocks {
		if b.Reps < 0 {
			return model.PerformanceSession{}, invalid("block %d: reps must not be negative", i)
		}
		g := b.ExecutionGrade
		if err := validGrade("execution_grade", &g); err != nil {
			return model.PerformanceSession{}, err
		}
		sess.Blocks[i].PitchType = normalize(b.PitchType)
	}
	for name, g := range map[string]*float64{
		"coach_override": sess.Grades.CoachOverride,
		"coach":          sess.Grades.Coach,
		"scout":          sess.Grades.Scout,
		"player":         sess.Grades.Player,
	} {
		if err := validGrade(name+" grade", g); err != nil {
			return model.PerformanceSession{}, err
		}
	}
	if len(sess.Blocks) == 0 && sess.Grades == (model.Grades{}) {
		return model.PerformanceSession{}, invalid("session needs drill blocks or a grade")
	}

	sess.ID = uuid.NewString()
	if sess.Sport == "" {
		sess.Sport = a.Sport
	}
	sess.Date = model.Day(sess.Date)
	sess.GradeSource, sess.EffectiveGrade = model.ResolveGrade(sess.Grades)
	sess.CreatedAt = s.clock.Now().UTC()
	sess.DeletedAt = nil

	if err := s.store.CreateSession(ctx, sess); err != nil {
		return model.PerformanceSession{}, translate("record session", err)
	}
	metrics.RecordSessionRecorded(string(sess.Type))
	s.requestAfterWrite(ctx, sess.AthleteID, "session_recorded")
	return sess, nil
}

// DeleteSession soft-deletes a session. Deleted sessions no longer score.
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	sess, err := s.store.Session(ctx, id)
	if err != nil {
		return translate("session "+id, err)
	}
	if err := s.store.SoftDeleteSession(ctx, id, s.clock.Now()); err != nil {
		return translate("delete session "+id, err)
	}
	s.requestAfterWrite(ctx, sess.AthleteID, "session_deleted")
	return nil
}

// RaiseFlag records an integrity flag using the rule table's severity and deduction.
func (s *Service) RaiseFlag(ctx context.Context, athleteID string, cond model.Condition, details string) (model.IntegrityFlag, error) {
	if _, err := s.Athlete(ctx, athleteID); err != nil {
		return model.IntegrityFlag{}, err
	}
	rule, known := scoring.EvaluateIntegrity(model.Condition(normalize(string(cond))))
	if !known {
		return model.IntegrityFlag{}, invalid("unknown integrity rule %q", cond)
	}

	f := model.IntegrityFlag{
		ID:           uuid.NewString(),
		AthleteID:    athleteID,
		RuleID:       rule.ID,
		Severity:     rule.Severity,
		DeductionPct: rule.DeductionPct,
		Status:       model.FlagActive,
		Details:      strings.TrimSpace(details),
		RaisedAt:     s.clock.Now().UTC(),
	}
	if err := s.store.CreateFlag(ctx, f); err != nil {
		return model.IntegrityFlag{}, translate("raise flag", err)
	}
	metrics.RecordIntegrityFlagRaised(string(f.Severity))
	s.requestAfterWrite(ctx, athleteID, "flag_raised")
	return f, nil
}

// ResolveFlag closes an active flag with the administrator's action and notes.
func (s *Service) ResolveFlag(ctx context.Context, id, action, notes string) (model.IntegrityFlag, error) {
	action = strings.TrimSpace(action)
	if action == "" {
		return model.IntegrityFlag{}, invalid("missing resolution action")
	}
	f, err := s.store.ResolveFlag(ctx, id, action, strings.TrimSpace(notes), s.clock.Now())
	if err != nil {
		return model.IntegrityFlag{}, translate("resolve flag "+id, err)
	}
	metrics.RecordIntegrityFlagResolved()
	s.requestAfterWrite(ctx, f.AthleteID, "flag_resolved")
	return f, nil
}

// Flags lists the athlete's integrity flags, oldest first.
func (s *Service) Flags(ctx context.Context, athleteID string) ([]model.IntegrityFlag, error) {
	if _, err := s.Athlete(ctx, athleteID); err != nil {
		return nil, err
	}
	flags, err := s.store.Flags(ctx, athleteID)
	if err != nil {
		return nil, translate("flags", err)
	}
	return flags, nil
}

// SetProfessionalStatus replaces the athlete's verified-pro status and seasons.
func (s *Service) SetProfessionalStatus(ctx context.Context, p model.ProfessionalStatus) (model.ProfessionalStatus, error) {
	if _, err := s.Athlete(ctx, p.AthleteID); err != nil {
		return model.ProfessionalStatus{}, err
	}
	seasons := make(map[string]int, len(p.Seasons))
	for league, n := range p.Seasons {
		if n < 0 {
			return model.ProfessionalStatus{}, invalid("seasons for %q must not be negative", league)
		}
		if key := normalize(league); key != "" {
			seasons[key] += n
		}
	}
	p.Seasons = seasons
	p.UpdatedAt = s.clock.Now().UTC()

	if err := s.store.UpsertProfessionalStatus(ctx, p); err != nil {
		return model.ProfessionalStatus{}, translate("set professional status", err)
	}
	s.requestAfterWrite(ctx, p.AthleteID, "pro_status")
	return p, nil
}
