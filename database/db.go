package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"link_shortener/config"
	"link_shortener/models"
)

const retryDelay = 3 * time.Second

// Connect opens the configured database, retrying while it comes up, and
// brings the schema up to date.
func Connect(ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	retries := cfg.DBConnectRetries
	if retries <= 0 {
		retries = 1
	}

	var (
		db  *gorm.DB
		err error
	)
	for i := 0; i < retries; i++ {
		db, err = Open(cfg.DBDriver, cfg.DBDSN)
		if err == nil {
			err = ping(ctx, db)
		}
		if err == nil {
			break
		}
		slog.Warn("failed to connect to database", "attempt", i+1, "max", retries, "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect to database after %d attempts: %w", retries, err)
	}
	slog.Info("connected to database", "driver", cfg.DBDriver)

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

// Open returns a gorm handle for driver ("postgres" or "sqlite").
func Open(driver, dsn string) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}

	switch driver {
	case "postgres":
		return gorm.Open(postgres.Open(dsn), gcfg)
	case "sqlite":
		db, err := gorm.Open(sqlite.Open(dsn), gcfg)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// SQLite allows one writer; a single connection also keeps
		// shared in-memory databases alive for the handle's lifetime.
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
}

// Migrate applies the embedded SQL migrations on postgres. Other dialects
// are migrated from the gorm models.
func Migrate(db *gorm.DB) error {
	if db.Dialector.Name() == "postgres" {
		return runMigrations(db)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Link{}, &models.Visit{}); err != nil {
		return err
	}
	slog.Info("database schema migrated from models")
	return nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}
