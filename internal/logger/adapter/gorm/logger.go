// Package gorm routes gorm's query log through zerolog.
package gorm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Logger implements gorm's logger.Interface.
type Logger struct {
	level         gormlogger.LogLevel
	slowThreshold time.Duration
	logger        *zerolog.Logger
}

// New returns a gorm logger writing warnings and errors. Queries slower than
// slow are logged as warnings, 0 disables the check.
func New(slow time.Duration) *Logger {
	return &Logger{level: gormlogger.Warn, slowThreshold: slow}
}

// WithLogger writes to l instead of the global zerolog logger.
func (l *Logger) WithLogger(zl zerolog.Logger) *Logger {
	n := *l
	n.logger = &zl

	return &n
}

func (l *Logger) zl() *zerolog.Logger {
	if l.logger != nil {
		return l.logger
	}

	return &log.Logger
}

// LogMode implements logger.Interface.
func (l *Logger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	n := *l
	n.level = level

	return &n
}

// Info implements logger.Interface.
func (l *Logger) Info(_ context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Info {
		l.zl().Info().Str("component", "gorm").Msg(fmt.Sprintf(msg, data...))
	}
}

// Warn implements logger.Interface.
func (l *Logger) Warn(_ context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Warn {
		l.zl().Warn().Str("component", "gorm").Msg(fmt.Sprintf(msg, data...))
	}
}

// Error implements logger.Interface.
func (l *Logger) Error(_ context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Error {
		l.zl().Error().Str("component", "gorm").Msg(fmt.Sprintf(msg, data...))
	}
}

// Trace implements logger.Interface. Record not found is not an error here,
// the controllers translate it.
func (l *Logger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)

	switch {
	case err != nil && l.level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		l.zl().Error().Err(err).Str("component", "gorm").Dur("elapsed", elapsed).
			Int64("rows", rows).Str("sql", sql).Msg("query failed")
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		sql, rows := fc()
		l.zl().Warn().Str("component", "gorm").Dur("elapsed", elapsed).
			Int64("rows", rows).Str("sql", sql).Msg("slow query")
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		l.zl().Debug().Str("component", "gorm").Dur("elapsed", elapsed).
			Int64("rows", rows).Str("sql", sql).Send()
	}
}
