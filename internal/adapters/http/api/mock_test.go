package api_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/okian/prospect/internal/domain/model"
	"github.com/okian/prospect/internal/domain/scoring"
	"github.com/okian/prospect/internal/domain/types"
)

type mockDeps struct {
	mock.Mock
}

func (m *mockDeps) RegisterAthlete(ctx context.Context, a model.Athlete) (model.Athlete, error) {
	args := m.Called(ctx, a)
	return args.Get(0).(model.Athlete), args.Error(1)
}

func (m *mockDeps) Athlete(ctx context.Context, id string) (model.Athlete, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Athlete), args.Error(1)
}

func (m *mockDeps) LogDay(ctx context.Context, e model.DailyLogEntry) (model.DailyLogEntry, error) {
	args := m.Called(ctx, e)
	return args.Get(0).(model.DailyLogEntry), args.Error(1)
}

func (m *mockDeps) RecordSession(ctx context.Context, s model.PerformanceSession) (model.PerformanceSession, error) {
	args := m.Called(ctx, s)
	return args.Get(0).(model.PerformanceSession), args.Error(1)
}

func (m *mockDeps) DeleteSession(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockDeps) RaiseFlag(ctx context.Context, athleteID string, cond model.Condition, details string) (model.IntegrityFlag, error) {
	args := m.Called(ctx, athleteID, cond, details)
	return args.Get(0).(model.IntegrityFlag), args.Error(1)
}

func (m *mockDeps) ResolveFlag(ctx context.Context, id, action, notes string) (model.IntegrityFlag, error) {
	args := m.Called(ctx, id, action, notes)
	return args.Get(0).(model.IntegrityFlag), args.Error(1)
}

func (m *mockDeps) Flags(ctx context.Context, athleteID string) ([]model.IntegrityFlag, error) {
	args := m.Called(ctx, athleteID)

	var res []model.IntegrityFlag
	if args.Get(0) != nil {
		res = args.Get(0).([]model.IntegrityFlag)
	}
	return res, args.Error(1)
}

func (m *mockDeps) SetProfessionalStatus(ctx context.Context, p model.ProfessionalStatus) (model.ProfessionalStatus, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(model.ProfessionalStatus), args.Error(1)
}

func (m *mockDeps) Recompute(ctx context.Context, athleteID string, asOf time.Time) (model.CompositeScoreSnapshot, error) {
	args := m.Called(ctx, athleteID, asOf)
	return args.Get(0).(model.CompositeScoreSnapshot), args.Error(1)
}

func (m *mockDeps) RequestRecompute(ctx context.Context, athleteID string, asOf time.Time) (types.RecomputeStatus, error) {
	args := m.Called(ctx, athleteID, asOf)
	return args.Get(0).(types.RecomputeStatus), args.Error(1)
}

func (m *mockDeps) LatestScore(ctx context.Context, athleteID string) (model.CompositeScoreSnapshot, error) {
	args := m.Called(ctx, athleteID)
	return args.Get(0).(model.CompositeScoreSnapshot), args.Error(1)
}

func (m *mockDeps) ScoreHistory(ctx context.Context, athleteID string, limit int) ([]model.CompositeScoreSnapshot, error) {
	args := m.Called(ctx, athleteID, limit)

	var res []model.CompositeScoreSnapshot
	if args.Get(0) != nil {
		res = args.Get(0).([]model.CompositeScoreSnapshot)
	}
	return res, args.Error(1)
}

func (m *mockDeps) Consistency(ctx context.Context, athleteID string, asOf time.Time) (scoring.ConsistencyResult, error) {
	args := m.Called(ctx, athleteID, asOf)
	return args.Get(0).(scoring.ConsistencyResult), args.Error(1)
}

func (m *mockDeps) Streaks(ctx context.Context, athleteID string, asOf time.Time) (scoring.StreakResult, error) {
	args := m.Called(ctx, athleteID, asOf)
	return args.Get(0).(scoring.StreakResult), args.Error(1)
}

func (m *mockDeps) Fatigue(ctx context.Context, athleteID string, asOf time.Time) (scoring.FatigueResult, error) {
	args := m.Called(ctx, athleteID, asOf)
	return args.Get(0).(scoring.FatigueResult), args.Error(1)
}

func (m *mockDeps) HoF(ctx context.Context, athleteID string) (scoring.HoFResult, error) {
	args := m.Called(ctx, athleteID)
	return args.Get(0).(scoring.HoFResult), args.Error(1)
}

func (m *mockDeps) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	args := m.Called(ctx, n)

	var res []types.Entry
	if args.Get(0) != nil {
		res = args.Get(0).([]types.Entry)
	}
	return res, args.Error(1)
}

func (m *mockDeps) Rank(ctx context.Context, athleteID string) (types.Entry, error) {
	args := m.Called(ctx, athleteID)
	return args.Get(0).(types.Entry), args.Error(1)
}

func (m *mockDeps) GetStats() map[string]interface{} {
	args := m.Called()

	var res map[string]interface{}
	if args.Get(0) != nil {
		res = args.Get(0).(map[string]interface{})
	}
	return res
}
