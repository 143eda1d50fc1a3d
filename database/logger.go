package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/aidetectsai/detector-api/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

type gormLoggerAdapter struct {
	log *logger.Logger
}

func newGormLogger(log *logger.Logger) gormlogger.Interface {
	return &gormLoggerAdapter{log: log.WithComponent("gorm")}
}

func (l *gormLoggerAdapter) LogMode(gormlogger.LogLevel) gormlogger.Interface {
	return l
}

func (l *gormLoggerAdapter) Info(_ context.Context, msg string, data ...interface{}) {
	l.log.Info(fmt.Sprintf(msg, data...))
}

func (l *gormLoggerAdapter) Warn(_ context.Context, msg string, data ...interface{}) {
	l.log.Warn(fmt.Sprintf(msg, data...))
}

func (l *gormLoggerAdapter) Error(_ context.Context, msg string, data ...interface{}) {
	l.log.Error(fmt.Sprintf(msg, data...))
}

func (l *gormLoggerAdapter) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	sql, rows := fc()

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		l.log.Error("query error", map[string]interface{}{
			"sql": sql, "duration": elapsed.String(), "rows": rows, "error": err.Error(),
		})
	case elapsed > slowQueryThreshold:
		l.log.Warn("slow query", map[string]interface{}{
			"sql": sql, "duration": elapsed.String(), "rows": rows,
		})
	}
}
