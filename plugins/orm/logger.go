package orm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/slimloans/rigging/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const slowQuery = time.Second

// Logger sends gorm output to the environment logger
type Logger struct {
	logger *logrus.Entry
	level  logger.LogLevel
}

func newLogger(l *logrus.Logger, driver string) *Logger {
	if l == nil {
		l = logrus.StandardLogger()
	}

	return &Logger{
		logger: l.WithField("driver", driver),
		level:  logger.Info,
	}
}

func (l Logger) WithSourceFields() *logrus.Entry {
	return l.logger.WithField("caller", utils.FileWithLineNum())
}

// LogMode returns a copy logging at level
func (l *Logger) LogMode(level logger.LogLevel) logger.Interface {
	cp := *l
	cp.level = level
	return &cp
}

func (l Logger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Info {
		l.WithSourceFields().Infof(msg, data...)
	}
}

func (l Logger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Warn {
		l.WithSourceFields().Warnf(msg, data...)
	}
}

func (l Logger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Error {
		l.WithSourceFields().Errorf(msg, data...)
	}
}

// Trace logs a finished statement: errors (other than record not found) at
// error, slow statements at warn, the rest at debug
func (l Logger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	duration := float64(elapsed.Nanoseconds()) / 1e6

	entry := l.logger.WithFields(logrus.Fields{
		"elapsed":  duration,
		"duration": fmt.Sprintf("%v", elapsed),
		"caller":   utils.FileWithLineNum(),
	})

	sql, rows := fc()
	if rows != -1 {
		entry = entry.WithField("rows", rows)
	}

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= logger.Error:
		entry.Errorf("%s %s", err, sql)
	case elapsed >= slowQuery && l.level >= logger.Warn:
		entry.Warnf("SLOW SQL >= %v (%s)", slowQuery, sql)
	case l.level >= logger.Info:
		entry.Debug(sql)
	}
}
