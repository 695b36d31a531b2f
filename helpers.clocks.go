package main

import (
	"time"

	"go.uber.org/zap/zapcore"
)

var (
	_ Clocker       = (*Clock)(nil)
	_ zapcore.Clock = loggerClock{}
)

// Clocker reports the current time as seen by the App.
type Clocker interface {
	Now() time.Time
}

// Clock reads the wall clock in a fixed location: UTC in
// production and the host timezone during development.
type Clock struct {
	loc *time.Location
}

func NewClock(isProd bool) *Clock {
	loc := time.Local
	if isProd {
		loc = time.UTC
	}
	return &Clock{loc: loc}
}

func (c *Clock) Now() time.Time {
	return time.Now().In(c.loc)
}

// loggerClock lets zap stamp log entries with the App clock.
type loggerClock struct {
	Clocker
}

// NewLoggerClock adapts a Clocker to the zapcore.Clock interface.
func NewLoggerClock(ck Clocker) zapcore.Clock {
	return loggerClock{ck}
}

func (loggerClock) NewTicker(d time.Duration) *time.Ticker {
	return time.NewTicker(d)
}
