package model_test

import (
	"testing"
	"time"

	model "github.com/okian/prospect/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func f(v float64) *float64 { return &v }

func TestResolveGrade(t *testing.T) {
	convey.Convey("Given session grades", t, func() {
		convey.Convey("When every grade is present", func() {
			src, g := model.ResolveGrade(model.Grades{CoachOverride: f(70), Coach: f(60), Scout: f(55), Player: f(80)})

			convey.Convey("Then the coach override wins", func() {
				convey.So(src, convey.ShouldEqual, model.GradeCoachOverride)
				convey.So(*g, convey.ShouldEqual, 70)
			})
		})

		convey.Convey("When only scout and player grades exist", func() {
			src, g := model.ResolveGrade(model.Grades{Scout: f(55), Player: f(80)})

			convey.Convey("Then the scout grade is used and is independent", func() {
				convey.So(src, convey.ShouldEqual, model.GradeScout)
				convey.So(*g, convey.ShouldEqual, 55)
				convey.So(src.Independent(), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When only the player graded", func() {
			src, g := model.ResolveGrade(model.Grades{Player: f(65)})

			convey.Convey("Then the player grade is used but is not independent", func() {
				convey.So(src, convey.ShouldEqual, model.GradePlayer)
				convey.So(*g, convey.ShouldEqual, 65)
				convey.So(src.Independent(), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When no grade exists", func() {
			src, g := model.ResolveGrade(model.Grades{})

			convey.Convey("Then nothing is resolved", func() {
				convey.So(src, convey.ShouldEqual, model.GradeNone)
				convey.So(g, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the resolved grade is modified", func() {
			coach := f(60)
			_, g := model.ResolveGrade(model.Grades{Coach: coach})
			*g = 10

			convey.Convey("Then the source grade is untouched", func() {
				convey.So(*coach, convey.ShouldEqual, 60)
			})
		})
	})
}

func TestAthleteAge(t *testing.T) {
	convey.Convey("Given an athlete born on 2000-06-15", t, func() {
		a := model.Athlete{BirthDate: time.Date(2000, 6, 15, 0, 0, 0, 0, time.UTC)}

		convey.Convey("Then the age changes on the birthday", func() {
			convey.So(a.AgeAt(time.Date(2024, 6, 14, 23, 0, 0, 0, time.UTC)), convey.ShouldEqual, 23)
			convey.So(a.AgeAt(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)), convey.ShouldEqual, 24)
		})

		convey.Convey("Then an as-of before birth is age 0", func() {
			convey.So(a.AgeAt(time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)), convey.ShouldEqual, 0)
		})

		convey.Convey("Then an unknown birth date is age 0", func() {
			convey.So(model.Athlete{}.AgeAt(time.Now()), convey.ShouldEqual, 0)
		})
	})
}

func TestDomainHelpers(t *testing.T) {
	convey.Convey("Given domain helper methods", t, func() {
		convey.Convey("Then sports are normalized and validated", func() {
			convey.So(model.ParseSport("  Softball "), convey.ShouldEqual, model.SportSoftball)
			convey.So(model.SportBaseball.Valid(), convey.ShouldBeTrue)
			convey.So(model.ParseSport("cricket").Valid(), convey.ShouldBeFalse)
		})

		convey.Convey("Then day statuses are validated", func() {
			convey.So(model.StatusMissed.Valid(), convey.ShouldBeTrue)
			convey.So(model.DayStatus("napping").Valid(), convey.ShouldBeFalse)
		})

		convey.Convey("Then injury hold covers the status and the flag", func() {
			convey.So(model.DailyLogEntry{Status: model.StatusInjuryHold}.InjuryHold(), convey.ShouldBeTrue)
			convey.So(model.DailyLogEntry{Status: model.StatusLightWork, Injury: true}.InjuryHold(), convey.ShouldBeTrue)
			convey.So(model.DailyLogEntry{Status: model.StatusLightWork}.InjuryHold(), convey.ShouldBeFalse)
		})

		convey.Convey("Then session reps count each block at least once", func() {
			s := model.PerformanceSession{Blocks: []model.DrillBlock{{Reps: 10}, {Reps: 0}, {Reps: -3}}}
			convey.So(s.TotalReps(), convey.ShouldEqual, 12)
		})

		convey.Convey("Then recompute keys collapse on the calendar day", func() {
			a := model.RecomputeRequest{AthleteID: "a1", AsOf: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)}
			b := model.RecomputeRequest{AthleteID: "a1", AsOf: time.Date(2024, 3, 1, 22, 0, 0, 0, time.UTC)}
			convey.So(a.Key(), convey.ShouldEqual, "a1@2024-03-01")
			convey.So(a.Key(), convey.ShouldEqual, b.Key())
		})

		convey.Convey("Then sessions without a stored source are verified by their grades", func() {
			convey.So(model.PerformanceSession{Grades: model.Grades{Scout: f(55)}}.Verified(), convey.ShouldBeTrue)
			convey.So(model.PerformanceSession{Grades: model.Grades{Coach: f(60), Player: f(70)}}.Verified(), convey.ShouldBeTrue)
			convey.So(model.PerformanceSession{Grades: model.Grades{Player: f(70)}}.Verified(), convey.ShouldBeFalse)
			convey.So(model.PerformanceSession{}.Verified(), convey.ShouldBeFalse)
			convey.So(model.PerformanceSession{GradeSource: model.GradePlayer, Grades: model.Grades{Scout: f(55)}}.Verified(), convey.ShouldBeFalse)
		})

		convey.Convey("Then days are taken in UTC whatever the input zone", func() {
			east := time.FixedZone("UTC+9", 9*60*60)
			west := time.FixedZone("UTC-7", -7*60*60)
			want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
			convey.So(model.Day(time.Date(2024, 3, 2, 1, 30, 0, 0, east)), convey.ShouldEqual, want)
			convey.So(model.Day(time.Date(2024, 3, 1, 20, 0, 0, 0, west)), convey.ShouldEqual, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC))
		})

		convey.Convey("Then flags are active until resolved", func() {
			convey.So(model.IntegrityFlag{Status: model.FlagActive}.Active(), convey.ShouldBeTrue)
			convey.So(model.IntegrityFlag{Status: model.FlagResolved}.Active(), convey.ShouldBeFalse)
		})
	})
}
