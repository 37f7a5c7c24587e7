package sql

import (
	"context"
	"time"

	"gorm.io/gorm/logger"
)

// NullLogger silences gorm's own logging; the worker logs at the facade level.
type NullLogger struct{}

func (NullLogger) LogMode(logger.LogLevel) logger.Interface {
	return NullLogger{}
}

func (NullLogger) Info(context.Context, string, ...interface{}) {}

func (NullLogger) Warn(context.Context, string, ...interface{}) {}

func (NullLogger) Error(context.Context, string, ...interface{}) {}

func (NullLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
}
