package logger

import (
	"bytes"
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given an initialized logger", t, func() {
		So(Init(), ShouldBeNil)
		defer func() { _ = Sync() }()

		Convey("Then Get returns a usable logger", func() {
			So(Get(), ShouldNotBeNil)
			So(func() { Get().Info(context.Background(), "hello", String("k", "v")) }, ShouldNotPanic)
		})
	})
}

func TestLoggerWriter(t *testing.T) {
	Convey("Given a logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(InitWithWriter(&buf), ShouldBeNil)
		ctx := context.Background()

		Convey("When logging with a named child and fields", func() {
			Named("recompute").With(String("athlete", "a-1")).Info(ctx, "snapshot appended", Float64("score", 71.5))

			Convey("Then the record carries the component, fields and source", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, "snapshot appended")
				So(out, ShouldContainSubstring, "component=recompute")
				So(out, ShouldContainSubstring, "athlete=a-1")
				So(out, ShouldContainSubstring, "score=71.5")
				So(out, ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When the level is raised to warn", func() {
			So(SetLevelString("warn"), ShouldBeNil)
			Get().Info(ctx, "quiet")
			Get().Warn(ctx, "loud")

			Convey("Then info records are dropped", func() {
				So(buf.String(), ShouldNotContainSubstring, "quiet")
				So(buf.String(), ShouldContainSubstring, "loud")
			})
		})

		Convey("When an unknown level is given", func() {
			err := SetLevelString("verbose")

			Convey("Then it is rejected", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})

	Convey("Given a nil writer", t, func() {
		Convey("Then initialization fails", func() {
			So(InitWithWriter(nil), ShouldNotBeNil)
		})
	})
}
