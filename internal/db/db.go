package db

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const sqlitePrefix = "sqlite:"

type PoolSettings struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// Open connects to Postgres, or to a SQLite file when dsn starts with "sqlite:".
func Open(dsn string, logSQL bool) (*gorm.DB, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}
	cfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	}
	if logSQL {
		cfg.Logger = logger.Default.LogMode(logger.Info)
	}
	if path, ok := strings.CutPrefix(dsn, sqlitePrefix); ok {
		return OpenSQLite(path, cfg)
	}
	return gorm.Open(postgres.Open(dsn), cfg)
}

// OpenSQLite opens a SQLite database file through the pure Go driver.
// SQLite allows a single writer, so the pool is pinned to one connection.
func OpenSQLite(path string, cfg *gorm.Config) (*gorm.DB, error) {
	if path == "" {
		return nil, errors.New("sqlite path is empty")
	}
	if cfg == nil {
		cfg = &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Silent),
			TranslateError: true,
		}
	}
	conn, err := gorm.Open(sqlite.Open(path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"), cfg)
	if err != nil {
		return nil, err
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return conn, nil
}

func IsSQLite(conn *gorm.DB) bool {
	return conn != nil && conn.Dialector.Name() == "sqlite"
}

// ConfigurePool applies connection pool limits. SQLite connections are left pinned.
func ConfigurePool(conn *gorm.DB, settings PoolSettings) error {
	if conn == nil {
		return errors.New("db connection is nil")
	}
	if IsSQLite(conn) {
		return nil
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	if settings.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(settings.MaxOpenConns)
	}
	if settings.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(settings.MaxIdleConns)
	}
	if settings.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(settings.ConnMaxLifetime)
	}
	if settings.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(settings.ConnMaxIdleTime)
	}
	return nil
}

// Migrate runs GORM auto-migrations for the core tables.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return errors.New("db connection is nil")
	}
	if err := conn.AutoMigrate(
		&Song{},
		&Session{},
		&Round{},
		&Player{},
		&Guess{},
		&Event{},
	); err != nil {
		return err
	}
	log.Println("database migration complete")
	return nil
}
