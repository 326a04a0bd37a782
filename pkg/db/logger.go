package db

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormLogrusLogger implements GORM's logger.Interface using logrus
type GormLogrusLogger struct {
	logger        *logrus.Logger
	level         logger.LogLevel
	slowThreshold time.Duration
}

// NewGormLogrusLogger creates a new GORM logger that uses logrus
func NewGormLogrusLogger(baseLogger *logrus.Logger, slowThreshold time.Duration) *GormLogrusLogger {
	if slowThreshold <= 0 {
		slowThreshold = 200 * time.Millisecond
	}
	return &GormLogrusLogger{
		logger:        baseLogger,
		level:         logger.Info,
		slowThreshold: slowThreshold,
	}
}

// LogMode implements logger.Interface
func (l *GormLogrusLogger) LogMode(level logger.LogLevel) logger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

// Info implements logger.Interface
func (l *GormLogrusLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level < logger.Info {
		return
	}
	l.logger.WithContext(ctx).WithFields(logrus.Fields{
		"source": "gorm",
		"type":   "query_info",
	}).Debugf(msg, args...)
}

// Warn implements logger.Interface
func (l *GormLogrusLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level < logger.Warn {
		return
	}
	l.logger.WithContext(ctx).WithFields(logrus.Fields{
		"source": "gorm",
		"type":   "query_warn",
	}).Warnf(msg, args...)
}

// Error implements logger.Interface
func (l *GormLogrusLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level < logger.Error {
		return
	}
	l.logger.WithContext(ctx).WithFields(logrus.Fields{
		"source": "gorm",
		"type":   "query_error",
	}).Errorf(msg, args...)
}

// Trace implements logger.Interface
func (l *GormLogrusLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	fields := logrus.Fields{
		"source":   "gorm",
		"type":     "query_trace",
		"rows":     rows,
		"sql":      sql,
		"duration": elapsed.String(),
	}

	// lookups that miss are an expected outcome, not a failure
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		fields["error"] = err
		l.logger.WithContext(ctx).WithFields(fields).Error("database query failed")
		return
	}

	if elapsed > l.slowThreshold {
		l.logger.WithContext(ctx).WithFields(fields).Warn("slow query detected")
		return
	}

	l.logger.WithContext(ctx).WithFields(fields).Trace("database query executed")
}
