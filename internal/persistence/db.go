// Package persistence implements C8: durable storage for sessions and
// the request/response audit trail, via gorm over SQLite with
// goose-managed migrations — the same pairing the teacher uses
// (gorm for queries, a dedicated migration runner for schema),
// adapted from internal/infrastructure/persistence in the teacher.
package persistence

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/chriscoletech/qwen-gateway/internal/config"
	"github.com/chriscoletech/qwen-gateway/internal/persistence/migrations"
)

// walPoolSize bounds the connection pool once WAL is enabled: readers no
// longer block behind the single writer, so a handful of connections can
// be open at once without risking SQLITE_BUSY from multiple writers.
const walPoolSize = 4

// Open connects to the configured SQLite file in WAL mode, runs pending
// goose migrations, and returns a ready gorm handle.
func Open(cfg config.PersistenceConfig) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(walDSN(cfg.Path)), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap sql.DB: %w", err)
	}
	// WAL lets readers proceed without blocking behind the writer, so a
	// small pool is safe; SQLite itself still serializes actual writes.
	sqlDB.SetMaxOpenConns(walPoolSize)

	if err := migrate(sqlDB); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

// walDSN appends the journal-mode, busy-timeout and foreign-key query
// parameters mattn/go-sqlite3 reads at connection time, preserving any
// query string the caller already supplied (e.g. the in-memory test
// DSN's "?cache=shared").
func walDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=1"
}

func migrate(sqlDB *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.Up(sqlDB, ".")
}
