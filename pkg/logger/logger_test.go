package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("When initialized for stdout", func() {
			So(Init(), ShouldBeNil)
			defer func() { So(Sync(), ShouldBeNil) }()

			Convey("Then Get returns it", func() {
				So(Get(), ShouldNotBeNil)
			})
		})

		Convey("When initialized with a nil writer", func() {
			Convey("Then an error is returned", func() {
				So(InitWithWriter(nil), ShouldNotBeNil)
			})
		})
	})
}

func TestLoggerWriter(t *testing.T) {
	Convey("Given a logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(InitWithWriter(&buf), ShouldBeNil)
		SetLevel(slog.LevelInfo)
		ctx := context.Background()

		Convey("When logging with fields", func() {
			Named("store").Info(ctx, "catalog loaded",
				Int("simulations", 12),
				Uint64("version", 3),
				Bool("initial", true),
				Duration("took", 5*time.Millisecond),
				Error(errors.New("boom")),
			)
			out := buf.String()

			Convey("Then the line carries the message, component, fields and source", func() {
				So(out, ShouldContainSubstring, `msg="catalog loaded"`)
				So(out, ShouldContainSubstring, "component=store")
				So(out, ShouldContainSubstring, "simulations=12")
				So(out, ShouldContainSubstring, "version=3")
				So(out, ShouldContainSubstring, "initial=true")
				So(out, ShouldContainSubstring, "took=5ms")
				So(out, ShouldContainSubstring, "error=boom")
				So(out, ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When the level is raised above debug", func() {
			Get().Debug(ctx, "hidden")

			Convey("Then debug lines are dropped", func() {
				So(buf.String(), ShouldBeEmpty)
			})
		})

		Convey("When the level is lowered via SetLevelString", func() {
			So(SetLevelString("debug"), ShouldBeNil)
			Get().Debug(ctx, "visible")
			So(SetLevelString("info"), ShouldBeNil)

			Convey("Then debug lines are written", func() {
				So(buf.String(), ShouldContainSubstring, "visible")
			})
		})

		Convey("When a nil context is passed", func() {
			Convey("Then logging does not panic", func() {
				//nolint:staticcheck // nil context on purpose
				So(func() { Get().Warn(nil, "no ctx") }, ShouldNotPanic)
			})
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level names", t, func() {
		for _, lvl := range []string{"debug", "INFO", " warn ", "warning", "error", ""} {
			So(SetLevelString(lvl), ShouldBeNil)
		}
		So(SetLevelString("verbose"), ShouldNotBeNil)
		So(SetLevelString("info"), ShouldBeNil)
	})
}
