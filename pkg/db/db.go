package db

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/lisanmuaddib/twitoff/pkg/db/models"
)

// SetupDatabase opens the connection, runs migrations and syncs the schema
func SetupDatabase(config *DBConfig) (*gorm.DB, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database config: %w", err)
	}
	logger := config.Logger

	logger.WithField("dialect", config.Dialect).Debug("Starting database setup")

	if config.RunMigrations && config.Dialect == DialectPostgres {
		if err := RunMigrations(logger, config.URL); err != nil {
			return nil, err
		}
	}

	var dialector gorm.Dialector
	switch config.Dialect {
	case DialectPostgres:
		dialector = postgres.Open(config.DSN())
	case DialectSQLite:
		dialector = sqlite.Open(config.DSN())
	default:
		return nil, fmt.Errorf("unsupported database dialect %q", config.Dialect)
	}

	logger.Debug("Establishing GORM database connection")

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: NewGormLogrusLogger(logger, config.SlowThreshold),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying *sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)

	if config.Dialect == DialectSQLite {
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, fmt.Errorf("failed to enable sqlite foreign keys: %w", err)
		}
	}

	if err := db.AutoMigrate(models.All()...); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database schema: %w", err)
	}

	logger.WithField("dialect", config.Dialect).Info("Database setup completed successfully")
	return db, nil
}

// ResetSchema drops every table and recreates it empty
func ResetSchema(ctx context.Context, db *gorm.DB) error {
	all := models.All()

	// children first so foreign keys never dangle
	for i := len(all) - 1; i >= 0; i-- {
		if err := db.WithContext(ctx).Migrator().DropTable(all[i]); err != nil {
			return fmt.Errorf("failed to drop table: %w", err)
		}
	}

	if err := db.WithContext(ctx).AutoMigrate(all...); err != nil {
		return fmt.Errorf("failed to recreate schema: %w", err)
	}
	return nil
}

// Ping checks the connection is alive
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the underlying connection pool
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// OpenInMemory opens an in-memory sqlite database with the schema applied
func OpenInMemory(logger *logrus.Logger) (*gorm.DB, error) {
	return SetupDatabase(&DBConfig{
		URL:     ":memory:",
		Dialect: DialectSQLite,
		Logger:  logger,
	})
}
