// Package database provides the GORM persistence layer: connection
// management, the User and Role models, and the stores the auth domain
// depends on.
package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aidetectsai/detector-api/logger"
)

// DB wraps a GORM database connection.
type DB struct {
	GormDB *gorm.DB
	log    *logger.Logger
	cfg    Config
}

// Open connects to the configured database with bounded retries.
func Open(ctx context.Context, cfg Config, log *logger.Logger) (*DB, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log = log.WithComponent("database")

	gormCfg := &gorm.Config{
		// Drivers translate unique-constraint violations into
		// gorm.ErrDuplicatedKey, which the stores map to ErrDuplicate.
		TranslateError: true,
		Logger:         newGormLogger(log),
	}

	var db *gorm.DB
	var err error
	for attempt := 1; attempt <= cfg.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("database connection canceled: %w", ctx.Err())
		}

		db, err = gorm.Open(sqlite.Open(cfg.DSN), gormCfg)
		if err == nil {
			break
		}
		log.Warn("database connection failed", map[string]interface{}{
			"attempt": attempt,
			"error":   err.Error(),
		})
		time.Sleep(time.Duration(attempt) * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	if lifetime, parseErr := time.ParseDuration(cfg.ConnMaxLifetime); parseErr == nil {
		sqlDB.SetConnMaxLifetime(lifetime)
	}
	if pingErr := sqlDB.PingContext(ctx); pingErr != nil {
		return nil, fmt.Errorf("ping database: %w", pingErr)
	}

	log.Info("database connection established")
	return &DB{GormDB: db, log: log, cfg: cfg}, nil
}

// Migrate runs auto-migration for all models when enabled.
func (d *DB) Migrate() error {
	if !d.cfg.AutoMigrate {
		return nil
	}
	if err := d.GormDB.AutoMigrate(&Role{}, &User{}); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	d.log.Info("database schema migrated")
	return nil
}

// Ping verifies the connection is alive.
func (d *DB) Ping(ctx context.Context) error {
	sqlDB, err := d.GormDB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the underlying connection pool.
func (d *DB) Close() error {
	sqlDB, err := d.GormDB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
