package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"ufcstats-scraper/fightertools/internal/database/migrations"
)

// ErrDBNotSetup is returned when the links database lacks the expected schema.
var ErrDBNotSetup = errors.New("links database is not set up")

// fighterColumns are the columns the 'fighter' table must have, no more and no less.
var fighterColumns = []string{"id", "created_at", "updated_at", "link", "name", "scraped", "success"}

// DB represents the database connection
type DB struct {
	*sqlx.DB
}

// NewDB opens the links database and, unless read-only, applies pending migrations
func NewDB(cfg *Config) (*DB, error) {
	dir := filepath.Dir(cfg.DBPath)
	if dir != "." && !cfg.ReadOnly {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory for database: %w", err)
		}
	}

	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = defaultMaxIdleConns
	}
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = defaultMaxOpenConns
	}

	// Immediate transactions take the write lock up front so read-then-update
	// sequences cannot interleave with another writer.
	dsn := fmt.Sprintf("file:%s?_journal=WAL&_synchronous=NORMAL&_busy_timeout=%d&_txlock=immediate",
		cfg.DBPath, cfg.BusyTimeoutMS)

	if cfg.ReadOnly {
		dsn += "&mode=ro"
		log.Debug().Str("path", cfg.DBPath).Msg("Opening database in read-only mode")
	} else {
		log.Debug().Str("path", cfg.DBPath).Msg("Opening database in read-write mode")
	}

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	// Journal/Sync/Timeout set via DSN
	pragmas := []string{
		fmt.Sprintf("PRAGMA cache_size = %d;", cfg.CacheSizeKB),
		"PRAGMA temp_store = MEMORY;",
	}
	if cfg.ReadOnly {
		pragmas = append(pragmas, "PRAGMA query_only = ON;")
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			log.Warn().Err(err).Str("pragma", pragma).Str("mode", modeStr(cfg.ReadOnly)).Msg("Failed to set PRAGMA")
		}
	}

	if !cfg.ReadOnly {
		if err := Migrate(db); err != nil {
			db.Close()
			return nil, err
		}
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err = db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping db (%s): %w", modeStr(cfg.ReadOnly), err)
	}

	log.Debug().Str("mode", modeStr(cfg.ReadOnly)).Msg("Database connection successful")
	return &DB{db}, nil
}

// Migrate applies every embedded migration not yet recorded in the database.
func Migrate(db *sqlx.DB) error {
	migrationFiles, err := migrations.Embedded()
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	if err := migrations.RunMigrations(db.DB, migrationFiles); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Reset rolls back every applied migration, dropping the 'fighter' table.
func (db *DB) Reset() error {
	migrationFiles, err := migrations.Embedded()
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	if err := migrations.RollbackMigrations(db.DB.DB, migrationFiles, len(migrationFiles)); err != nil {
		return fmt.Errorf("failed to reset database: %w", err)
	}
	return nil
}

// IsSetup reports whether the 'fighter' table exists with exactly the expected columns.
func (db *DB) IsSetup(ctx context.Context) (bool, error) {
	var columns []string
	err := db.SelectContext(ctx, &columns, "SELECT name FROM pragma_table_info('fighter')")
	if err != nil {
		return false, fmt.Errorf("failed to read fighter columns: %w", err)
	}

	if len(columns) != len(fighterColumns) {
		log.Debug().Strs("columns", columns).Msg("Fighter table missing or has unexpected columns")
		return false, nil
	}

	have := make(map[string]bool, len(columns))
	for _, c := range columns {
		have[c] = true
	}
	for _, c := range fighterColumns {
		if !have[c] {
			log.Debug().Str("column", c).Msg("Fighter table missing column")
			return false, nil
		}
	}
	return true, nil
}

// EnsureSetup returns ErrDBNotSetup when IsSetup reports false.
func (db *DB) EnsureSetup(ctx context.Context) error {
	ok, err := db.IsSetup(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return ErrDBNotSetup
	}
	return nil
}

// Helper for logging
func modeStr(readOnly bool) string {
	if readOnly {
		return "read-only"
	}
	return "read-write"
}
