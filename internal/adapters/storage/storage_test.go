package storage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/prospect/internal/domain/model"
	"github.com/okian/prospect/pkg/logger"
)

var day0 = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func fp(v float64) *float64 { return &v }
func ip(v int) *int         { return &v }

func openTestStore(t *testing.T) *GormStore {
	t.Helper()
	_ = logger.InitWithWriter(io.Discard)
	s, err := Open(context.Background(), DriverSQLite, filepath.Join(t.TempDir(), "prospect.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen(t *testing.T) {
	Convey("Given an unknown driver", t, func() {
		_ = logger.InitWithWriter(io.Discard)
		_, err := Open(context.Background(), "oracle", "dsn")

		Convey("Then Open fails with ErrUnknownDriver", func() {
			So(errors.Is(err, ErrUnknownDriver), ShouldBeTrue)
		})
	})
}

func TestAthletes(t *testing.T) {
	Convey("Given a store", t, func() {
		s := openTestStore(t)
		ctx := context.Background()

		a := model.Athlete{
			ID: "a1", Name: "Sam", Sport: model.SportBaseball,
			BirthDate: time.Date(2008, 3, 14, 0, 0, 0, 0, time.UTC),
			Tier:      "high_school", Position: "pitcher",
			CreatedAt: day0, UpdatedAt: day0,
		}
		So(s.UpsertAthlete(ctx, a), ShouldBeNil)

		Convey("When the profile is read back", func() {
			got, err := s.Athlete(ctx, "a1")

			Convey("Then every field round-trips", func() {
				So(err, ShouldBeNil)
				So(got.Name, ShouldEqual, "Sam")
				So(got.BirthDate.Equal(a.BirthDate), ShouldBeTrue)
				So(got.Tier, ShouldEqual, "high_school")
			})
		})

		Convey("When the profile is updated", func() {
			a.Tier = "college_d1"
			a.CreatedAt = day0.AddDate(0, 0, 5)
			a.UpdatedAt = day0.AddDate(0, 0, 5)
			So(s.UpsertAthlete(ctx, a), ShouldBeNil)
			got, _ := s.Athlete(ctx, "a1")

			Convey("Then it changes but keeps its creation time", func() {
				So(got.Tier, ShouldEqual, "college_d1")
				So(got.CreatedAt.Equal(day0), ShouldBeTrue)
				So(got.UpdatedAt.Equal(day0.AddDate(0, 0, 5)), ShouldBeTrue)
			})
		})

		Convey("When an athlete without a birth date is stored", func() {
			So(s.UpsertAthlete(ctx, model.Athlete{ID: "a0", Sport: model.SportSoftball}), ShouldBeNil)
			got, err := s.Athlete(ctx, "a0")
			ids, _ := s.AthleteIDs(ctx)

			Convey("Then the birth date stays unknown", func() {
				So(err, ShouldBeNil)
				So(got.BirthDate.IsZero(), ShouldBeTrue)
				So(ids, ShouldResemble, []string{"a0", "a1"})
			})
		})

		Convey("When a missing athlete is requested", func() {
			_, err := s.Athlete(ctx, "nobody")

			Convey("Then ErrNotFound is returned", func() {
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestDailyLogs(t *testing.T) {
	Convey("Given logged days", t, func() {
		s := openTestStore(t)
		ctx := context.Background()

		for i := 0; i < 5; i++ {
			So(s.UpsertDailyLog(ctx, model.DailyLogEntry{
				AthleteID: "a1", Date: day0.AddDate(0, 0, i).Add(15 * time.Hour),
				Status: model.StatusFullTraining, UpdatedAt: day0,
			}), ShouldBeNil)
		}

		Convey("When a day is logged again", func() {
			So(s.UpsertDailyLog(ctx, model.DailyLogEntry{
				AthleteID: "a1", Date: day0.AddDate(0, 0, 2), Status: model.StatusInjuryHold,
				Injury: true, SleepHours: fp(6.5), StressLevel: ip(7), UpdatedAt: day0.AddDate(0, 0, 2),
			}), ShouldBeNil)
			logs, err := s.DailyLogs(ctx, "a1", day0, day0.AddDate(0, 0, 10))

			Convey("Then the entry for that day is replaced", func() {
				So(err, ShouldBeNil)
				So(len(logs), ShouldEqual, 5)
				So(logs[2].Status, ShouldEqual, model.StatusInjuryHold)
				So(*logs[2].SleepHours, ShouldEqual, 6.5)
				So(*logs[2].StressLevel, ShouldEqual, 7)
				So(logs[2].SleepQuality, ShouldBeNil)
				So(logs[0].Date.Equal(day0), ShouldBeTrue)
			})
		})

		Convey("When a range is requested", func() {
			logs, err := s.DailyLogs(ctx, "a1", day0.AddDate(0, 0, 1), day0.AddDate(0, 0, 3))

			Convey("Then the bounds are inclusive", func() {
				So(err, ShouldBeNil)
				So(len(logs), ShouldEqual, 3)
			})
		})
	})
}

func TestSessions(t *testing.T) {
	Convey("Given stored sessions", t, func() {
		s := openTestStore(t)
		ctx := context.Background()

		sess := model.PerformanceSession{
			ID: "s1", AthleteID: "a1", Sport: model.SportBaseball, Type: model.SessionBullpen,
			Date: day0,
			Blocks: []model.DrillBlock{
				{DrillType: "bullpen", PitchType: "fastball", Reps: 25, ExecutionGrade: 60, OutcomeTags: []string{"strike"}},
			},
			Grades:         model.Grades{Coach: fp(60), Player: fp(70)},
			EffectiveGrade: fp(60),
			GradeSource:    model.GradeCoach,
			CreatedAt:      day0,
		}
		So(s.CreateSession(ctx, sess), ShouldBeNil)
		So(s.CreateSession(ctx, model.PerformanceSession{
			ID: "s2", AthleteID: "a1", Type: model.SessionGame, Date: day0.AddDate(0, 0, 1), CreatedAt: day0,
		}), ShouldBeNil)

		Convey("When they are listed", func() {
			list, err := s.Sessions(ctx, "a1", day0, day0.AddDate(0, 0, 1))

			Convey("Then blocks and grades round-trip", func() {
				So(err, ShouldBeNil)
				So(len(list), ShouldEqual, 2)
				So(list[0].Blocks, ShouldResemble, sess.Blocks)
				So(*list[0].Grades.Coach, ShouldEqual, 60)
				So(list[0].Grades.Scout, ShouldBeNil)
				So(list[0].GradeSource, ShouldEqual, model.GradeCoach)
				So(list[0].Deleted(), ShouldBeFalse)
			})
		})

		Convey("When one is soft-deleted", func() {
			So(s.SoftDeleteSession(ctx, "s1", day0.AddDate(0, 0, 3)), ShouldBeNil)
			list, _ := s.Sessions(ctx, "a1", day0, day0.AddDate(0, 0, 1))
			_, getErr := s.Session(ctx, "s1")
			again := s.SoftDeleteSession(ctx, "s1", day0.AddDate(0, 0, 4))

			Convey("Then it disappears from reads and cannot be deleted twice", func() {
				So(len(list), ShouldEqual, 1)
				So(list[0].ID, ShouldEqual, "s2")
				So(errors.Is(getErr, ErrNotFound), ShouldBeTrue)
				So(errors.Is(again, ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestSnapshots(t *testing.T) {
	Convey("Given appended snapshots for two athletes", t, func() {
		s := openTestStore(t)
		ctx := context.Background()

		for i, score := range []float64{50, 55, 61} {
			So(s.AppendSnapshot(ctx, model.CompositeScoreSnapshot{
				ID: "a1-" + string(rune('a'+i)), AthleteID: "a1",
				CalculatedAt: day0.AddDate(0, 0, 10*i), AdjustedGlobalScore: score, Trend: model.TrendStable,
			}), ShouldBeNil)
		}
		So(s.AppendSnapshot(ctx, model.CompositeScoreSnapshot{
			ID: "a2-a", AthleteID: "a2", CalculatedAt: day0, AdjustedGlobalScore: 70,
		}), ShouldBeNil)

		Convey("Then the latest and history reads are ordered newest first", func() {
			latest, err := s.LatestSnapshot(ctx, "a1")
			So(err, ShouldBeNil)
			So(latest.AdjustedGlobalScore, ShouldEqual, 61)

			history, _ := s.Snapshots(ctx, "a1", 2)
			So(len(history), ShouldEqual, 2)
			So(history[0].AdjustedGlobalScore, ShouldEqual, 61)
			So(history[1].AdjustedGlobalScore, ShouldEqual, 55)

			all, _ := s.Snapshots(ctx, "a1", 0)
			So(len(all), ShouldEqual, 3)
		})

		Convey("Then a point-in-time read returns the snapshot at or before it", func() {
			prev, err := s.SnapshotAtOrBefore(ctx, "a1", day0.AddDate(0, 0, 15))
			So(err, ShouldBeNil)
			So(prev.AdjustedGlobalScore, ShouldEqual, 55)

			_, err = s.SnapshotAtOrBefore(ctx, "a1", day0.AddDate(0, 0, -1))
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
		})

		Convey("Then latest scores hold one entry per athlete", func() {
			scores, err := s.LatestScores(ctx)
			So(err, ShouldBeNil)
			So(scores, ShouldResemble, []model.AthleteScore{
				{AthleteID: "a1", Score: 61},
				{AthleteID: "a2", Score: 70},
			})
		})
	})
}

func TestFlags(t *testing.T) {
	Convey("Given a raised flag", t, func() {
		s := openTestStore(t)
		ctx := context.Background()

		So(s.CreateFlag(ctx, model.IntegrityFlag{
			ID: "f1", AthleteID: "a1", RuleID: model.ConditionVolumeSpike,
			Severity: model.SeverityWarning, DeductionPct: 5, Status: model.FlagActive, RaisedAt: day0,
		}), ShouldBeNil)

		Convey("When it is resolved", func() {
			f, err := s.ResolveFlag(ctx, "f1", "dismissed", "verified by coach", day0.AddDate(0, 0, 1))

			Convey("Then it records the resolution", func() {
				So(err, ShouldBeNil)
				So(f.Active(), ShouldBeFalse)
				So(f.ResolutionAction, ShouldEqual, "dismissed")
				So(f.ResolvedAt.Equal(day0.AddDate(0, 0, 1)), ShouldBeTrue)

				flags, _ := s.Flags(ctx, "a1")
				So(len(flags), ShouldEqual, 1)
				So(flags[0].Status, ShouldEqual, model.FlagResolved)
			})

			Convey("And resolving again fails", func() {
				_, err := s.ResolveFlag(ctx, "f1", "dismissed", "", day0.AddDate(0, 0, 2))
				So(errors.Is(err, ErrFlagResolved), ShouldBeTrue)
			})
		})

		Convey("When a missing flag is resolved", func() {
			_, err := s.ResolveFlag(ctx, "nope", "dismissed", "", day0)

			Convey("Then ErrNotFound is returned", func() {
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestProfessionalStatus(t *testing.T) {
	Convey("Given no recorded status", t, func() {
		s := openTestStore(t)
		ctx := context.Background()

		_, err := s.ProfessionalStatus(ctx, "a1")
		So(errors.Is(err, ErrNotFound), ShouldBeTrue)

		Convey("When a status is upserted twice", func() {
			So(s.UpsertProfessionalStatus(ctx, model.ProfessionalStatus{
				AthleteID: "a1", Seasons: map[string]int{"mlb": 2}, UpdatedAt: day0,
			}), ShouldBeNil)
			So(s.UpsertProfessionalStatus(ctx, model.ProfessionalStatus{
				AthleteID: "a1", Verified: true, Seasons: map[string]int{"mlb": 3, "npb": 2}, UpdatedAt: day0,
			}), ShouldBeNil)
			p, err := s.ProfessionalStatus(ctx, "a1")

			Convey("Then the latest status wins", func() {
				So(err, ShouldBeNil)
				So(p.Verified, ShouldBeTrue)
				So(p.Seasons, ShouldResemble, map[string]int{"mlb": 3, "npb": 2})
			})
		})
	})
}
