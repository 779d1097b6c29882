// Package storage persists athletes, daily logs, sessions, MPI snapshots,
// integrity flags and professional status through gorm.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/okian/prospect/internal/domain/model"
	"github.com/okian/prospect/pkg/logger"
	"github.com/okian/prospect/pkg/metrics"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const defaultSlowThreshold = 500 * time.Millisecond

// Store is the persistence contract used by the application service.
// Dates are calendar days in UTC; range bounds are inclusive.
type Store interface {
	UpsertAthlete(ctx context.Context, a model.Athlete) error
	Athlete(ctx context.Context, id string) (model.Athlete, error)
	AthleteIDs(ctx context.Context) ([]string, error)

	UpsertDailyLog(ctx context.Context, e model.DailyLogEntry) error
	DailyLogs(ctx context.Context, athleteID string, from, to time.Time) ([]model.DailyLogEntry, error)

	CreateSession(ctx context.Context, s model.PerformanceSession) error
	Session(ctx context.Context, id string) (model.PerformanceSession, error)
	SoftDeleteSession(ctx context.Context, id string, at time.Time) error
	Sessions(ctx context.Context, athleteID string, from, to time.Time) ([]model.PerformanceSession, error)

	AppendSnapshot(ctx context.Context, s model.CompositeScoreSnapshot) error
	LatestSnapshot(ctx context.Context, athleteID string) (model.CompositeScoreSnapshot, error)
	SnapshotAtOrBefore(ctx context.Context, athleteID string, at time.Time) (model.CompositeScoreSnapshot, error)
	Snapshots(ctx context.Context, athleteID string, limit int) ([]model.CompositeScoreSnapshot, error)
	LatestScores(ctx context.Context) ([]model.AthleteScore, error)

	CreateFlag(ctx context.Context, f model.IntegrityFlag) error
	ResolveFlag(ctx context.Context, id, action, notes string, at time.Time) (model.IntegrityFlag, error)
	Flags(ctx context.Context, athleteID string) ([]model.IntegrityFlag, error)

	UpsertProfessionalStatus(ctx context.Context, p model.ProfessionalStatus) error
	ProfessionalStatus(ctx context.Context, athleteID string) (model.ProfessionalStatus, error)

	Close() error
}

// GormStore implements Store on sqlite or postgres.
type GormStore struct {
	db            *gorm.DB
	logger        logger.Logger
	slowThreshold time.Duration
}

// Open connects to the database, migrates the schema and returns the store.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*GormStore, error) {
	s := &GormStore{slowThreshold: defaultSlowThreshold}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("storage")
	}

	driver = strings.ToLower(strings.TrimSpace(driver))
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("open %q: %w", driver, ErrUnknownDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger: gormlogger.New(gormWriter{ctx: ctx, l: s.logger}, gormlogger.Config{
			SlowThreshold:             s.slowThreshold,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// sqlite allows one writer; a single connection also keeps :memory: databases shared.
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.WithContext(ctx).AutoMigrate(allRows()...); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	s.db = db
	s.logger.Info(ctx, "storage ready", logger.String("driver", driver))
	return s, nil
}

// Close releases the underlying connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type gormWriter struct {
	ctx context.Context
	l   logger.Logger
}

func (w gormWriter) Printf(format string, args ...any) {
	w.l.Warn(w.ctx, strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func observe(op string, start time.Time) {
	metrics.RecordStorageLatency(op, float64(time.Since(start).Microseconds())/1000)
}

func notFound(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	metrics.RecordErrorByComponent("storage", op)
	return fmt.Errorf("%s: %w", op, err)
}

// UpsertAthlete inserts or updates the athlete's profile. CreatedAt is kept on update.
func (s *GormStore) UpsertAthlete(ctx context.Context, a model.Athlete) error {
	defer observe("upsert_athlete", time.Now())
	row := athleteToRow(a)
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "sport", "birth_date", "tier", "position", "primary_pitch_type", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return notFound("upsert_athlete", err)
	}
	return nil
}

// Athlete returns the athlete's profile or ErrNotFound.
func (s *GormStore) Athlete(ctx context.Context, id string) (model.Athlete, error) {
	defer observe("get_athlete", time.Now())
	var row athleteRow
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return model.Athlete{}, notFound("get_athlete", err)
	}
	return row.toModel(), nil
}

// AthleteIDs returns every registered athlete id in ascending order.
func (s *GormStore) AthleteIDs(ctx context.Context) ([]string, error) {
	defer observe("list_athletes", time.Now())
	var ids []string
	if err := s.db.WithContext(ctx).Model(&athleteRow{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, notFound("list_athletes", err)
	}
	return ids, nil
}

// UpsertDailyLog stores the entry, replacing any entry for the same athlete and day.
func (s *GormStore) UpsertDailyLog(ctx context.Context, e model.DailyLogEntry) error {
	defer observe("upsert_daily_log", time.Now())
	row := dailyLogToRow(e)
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "athlete_id"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"status", "rest_reason", "injury", "notes",
				"sleep_hours", "sleep_quality", "stress_level", "updated_at",
			}),
		}).
		Create(&row).Error
	if err != nil {
		return notFound("upsert_daily_log", err)
	}
	return nil
}

// DailyLogs returns the athlete's entries dated within [from, to], oldest first.
func (s *GormStore) DailyLogs(ctx context.Context, athleteID string, from, to time.Time) ([]model.DailyLogEntry, error) {
	defer observe("list_daily_logs", time.Now())
	var rows []dailyLogRow
	err := s.db.WithContext(ctx).
		Where("athlete_id = ? AND date >= ? AND date <= ?", athleteID, dateOf(from), dateOf(to)).
		Order("date").
		Find(&rows).Error
	if err != nil {
		return nil, notFound("list_daily_logs", err)
	}
	out := make([]model.DailyLogEntry, len(rows))
	for i := range rows {
		out[i] = rows[i].toModel()
	}
	return out, nil
}

// CreateSession inserts a new session.
func (s *GormStore) CreateSession(ctx context.Context, sess model.PerformanceSession) error {
	defer observe("create_session", time.Now())
	row := sessionToRow(sess)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return notFound("create_session", err)
	}
	return nil
}

// Session returns a live session or ErrNotFound, including when it was deleted.
func (s *GormStore) Session(ctx context.Context, id string) (model.PerformanceSession, error) {
	defer observe("get_session", time.Now())
	var row sessionRow
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return model.PerformanceSession{}, notFound("get_session", err)
	}
	return row.toModel(), nil
}

// SoftDeleteSession marks the session deleted at the given instant.
func (s *GormStore) SoftDeleteSession(ctx context.Context, id string, at time.Time) error {
	defer observe("delete_session", time.Now())
	res := s.db.WithContext(ctx).Model(&sessionRow{}).Where("id = ?", id).Update("deleted_at", at.UTC())
	if res.Error != nil {
		return notFound("delete_session", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete_session: %w", ErrNotFound)
	}
	return nil
}

// Sessions returns the athlete's live sessions dated within [from, to], oldest first.
func (s *GormStore) Sessions(ctx context.Context, athleteID string, from, to time.Time) ([]model.PerformanceSession, error) {
	defer observe("list_sessions", time.Now())
	var rows []sessionRow
	err := s.db.WithContext(ctx).
		Where("athlete_id = ? AND date >= ? AND date <= ?", athleteID, dateOf(from), dateOf(to)).
		Order("date").Order("created_at").
		Find(&rows).Error
	if err != nil {
		return nil, notFound("list_sessions", err)
	}
	out := make([]model.PerformanceSession, len(rows))
	for i := range rows {
		out[i] = rows[i].toModel()
	}
	return out, nil
}

// AppendSnapshot inserts a snapshot. Snapshots are never updated.
func (s *GormStore) AppendSnapshot(ctx context.Context, snap model.CompositeScoreSnapshot) error {
	defer observe("append_snapshot", time.Now())
	row := snapshotToRow(snap)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return notFound("append_snapshot", err)
	}
	return nil
}

// LatestSnapshot returns the athlete's most recent snapshot.
func (s *GormStore) LatestSnapshot(ctx context.Context, athleteID string) (model.CompositeScoreSnapshot, error) {
	defer observe("latest_snapshot", time.Now())
	var row snapshotRow
	err := s.db.WithContext(ctx).
		Where("athlete_id = ?", athleteID).
		Order("calculated_at DESC").Order("id DESC").
		First(&row).Error
	if err != nil {
		return model.CompositeScoreSnapshot{}, notFound("latest_snapshot", err)
	}
	return row.toModel(), nil
}

// SnapshotAtOrBefore returns the latest snapshot calculated at or before at.
func (s *GormStore) SnapshotAtOrBefore(ctx context.Context, athleteID string, at time.Time) (model.CompositeScoreSnapshot, error) {
	defer observe("snapshot_at", time.Now())
	var row snapshotRow
	err := s.db.WithContext(ctx).
		Where("athlete_id = ? AND calculated_at <= ?", athleteID, at.UTC()).
		Order("calculated_at DESC").Order("id DESC").
		First(&row).Error
	if err != nil {
		return model.CompositeScoreSnapshot{}, notFound("snapshot_at", err)
	}
	return row.toModel(), nil
}

// Snapshots returns up to limit snapshots, newest first. limit <= 0 returns all.
func (s *GormStore) Snapshots(ctx context.Context, athleteID string, limit int) ([]model.CompositeScoreSnapshot, error) {
	defer observe("list_snapshots", time.Now())
	q := s.db.WithContext(ctx).
		Where("athlete_id = ?", athleteID).
		Order("calculated_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []snapshotRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, notFound("list_snapshots", err)
	}
	out := make([]model.CompositeScoreSnapshot, len(rows))
	for i := range rows {
		out[i] = rows[i].toModel()
	}
	return out, nil
}

// LatestScores returns each athlete's most recent adjusted score.
func (s *GormStore) LatestScores(ctx context.Context) ([]model.AthleteScore, error) {
	defer observe("latest_scores", time.Now())
	latest := s.db.Model(&snapshotRow{}).
		Select("athlete_id, MAX(calculated_at) AS calculated_at").
		Group("athlete_id")

	var rows []snapshotRow
	err := s.db.WithContext(ctx).
		Model(&snapshotRow{}).
		Joins("JOIN (?) AS l ON l.athlete_id = score_snapshots.athlete_id AND l.calculated_at = score_snapshots.calculated_at", latest).
		Select("score_snapshots.athlete_id, score_snapshots.adjusted_global_score, score_snapshots.id").
		Order("score_snapshots.athlete_id").Order("score_snapshots.id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, notFound("latest_scores", err)
	}

	out := make([]model.AthleteScore, 0, len(rows))
	for _, r := range rows {
		if n := len(out); n > 0 && out[n-1].AthleteID == r.AthleteID {
			continue
		}
		out = append(out, model.AthleteScore{AthleteID: r.AthleteID, Score: r.AdjustedGlobalScore})
	}
	return out, nil
}

// CreateFlag inserts a new integrity flag.
func (s *GormStore) CreateFlag(ctx context.Context, f model.IntegrityFlag) error {
	defer observe("create_flag", time.Now())
	row := flagToRow(f)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return notFound("create_flag", err)
	}
	return nil
}

// ResolveFlag moves an active flag to resolved. Resolving twice returns ErrFlagResolved.
func (s *GormStore) ResolveFlag(ctx context.Context, id, action, notes string, at time.Time) (model.IntegrityFlag, error) {
	defer observe("resolve_flag", time.Now())
	var out model.IntegrityFlag
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row flagRow
		if err := tx.Where("id = ?", id).First(&row).Error; err != nil {
			return err
		}
		if row.Status == string(model.FlagResolved) {
			return ErrFlagResolved
		}
		resolvedAt := at.UTC()
		row.Status = string(model.FlagResolved)
		row.ResolvedAt = &resolvedAt
		row.ResolutionAction = action
		row.ResolutionNotes = notes
		if err := tx.Save(&row).Error; err != nil {
			return err
		}
		out = row.toModel()
		return nil
	})
	switch {
	case err == nil:
		return out, nil
	case errors.Is(err, ErrFlagResolved):
		return model.IntegrityFlag{}, fmt.Errorf("resolve_flag %s: %w", id, err)
	default:
		return model.IntegrityFlag{}, notFound("resolve_flag", err)
	}
}

// Flags returns every flag raised against the athlete, oldest first.
func (s *GormStore) Flags(ctx context.Context, athleteID string) ([]model.IntegrityFlag, error) {
	defer observe("list_flags", time.Now())
	var rows []flagRow
	err := s.db.WithContext(ctx).
		Where("athlete_id = ?", athleteID).
		Order("raised_at").Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, notFound("list_flags", err)
	}
	out := make([]model.IntegrityFlag, len(rows))
	for i := range rows {
		out[i] = rows[i].toModel()
	}
	return out, nil
}

// UpsertProfessionalStatus replaces the athlete's professional status.
func (s *GormStore) UpsertProfessionalStatus(ctx context.Context, p model.ProfessionalStatus) error {
	defer observe("upsert_pro_status", time.Now())
	row := proStatusToRow(p)
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "athlete_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"verified", "seasons", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return notFound("upsert_pro_status", err)
	}
	return nil
}

// ProfessionalStatus returns the athlete's status or ErrNotFound when none was recorded.
func (s *GormStore) ProfessionalStatus(ctx context.Context, athleteID string) (model.ProfessionalStatus, error) {
	defer observe("get_pro_status", time.Now())
	var row proStatusRow
	if err := s.db.WithContext(ctx).Where("athlete_id = ?", athleteID).First(&row).Error; err != nil {
		return model.ProfessionalStatus{}, notFound("get_pro_status", err)
	}
	return row.toModel(), nil
}
