package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/spec-kit/identity-service/internal/config"
)

// Database wraps the GORM handle and, for postgres, the underlying pgx pool.
type Database struct {
	DB   *gorm.DB
	pool *pgxpool.Pool
}

// Open connects to the configured driver.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Database, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return NewPostgres(ctx, cfg, logger)
	case config.DriverSQLite:
		db, err := NewSQLite(cfg.SQLitePath, cfg.LogQueries)
		if err != nil {
			return nil, err
		}
		logger.Info("opened sqlite database", zap.String("path", cfg.SQLitePath))
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Ping verifies database connectivity.
func (d *Database) Ping(ctx context.Context) error {
	if d == nil || d.DB == nil {
		return errors.New("database not configured")
	}
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases database resources.
func (d *Database) Close() {
	if d == nil || d.DB == nil {
		return
	}
	if sqlDB, err := d.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	if d.pool != nil {
		d.pool.Close()
	}
}

func gormLogger(logQueries bool) gormlogger.Interface {
	if logQueries {
		return gormlogger.Default.LogMode(gormlogger.Info)
	}
	return gormlogger.Default.LogMode(gormlogger.Silent)
}
