package migrations

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"slices"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

//go:embed *.sql
var sqlFiles embed.FS

// Migration represents a database migration
type Migration struct {
	Version int
	Up      string
	Down    string
}

// Embedded loads the migrations compiled into the binary.
func Embedded() ([]Migration, error) {
	return LoadMigrations(sqlFiles)
}

// LoadMigrations loads all migration files from the root of fsys
func LoadMigrations(fsys fs.FS) ([]Migration, error) {
	var migrations []Migration
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	// Group files by version
	versionFiles := make(map[int]struct {
		up   string
		down string
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !strings.HasSuffix(name, ".sql") {
			continue
		}

		var version int
		var direction string
		_, err := fmt.Sscanf(name, "%d_%s", &version, &direction)
		if err != nil {
			log.Warn().Err(err).Str("file", name).Msg("Skipping invalid migration file")
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", name, err)
		}

		v := versionFiles[version]
		if strings.HasSuffix(direction, ".up.sql") {
			v.up = string(content)
		} else if strings.HasSuffix(direction, ".down.sql") {
			v.down = string(content)
		}
		versionFiles[version] = v
	}

	for version, f := range versionFiles {
		migrations = append(migrations, Migration{
			Version: version,
			Up:      f.up,
			Down:    f.down,
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	log.Debug().
		Int("count", len(migrations)).
		Msg("Loaded migrations")

	return migrations, nil
}

// RunMigrations executes all pending migrations
func RunMigrations(db *sql.DB, migrations []Migration) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := appliedVersions(db, "SELECT version FROM migrations")
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if slices.Contains(applied, m.Version) {
			continue
		}
		err := applyInTx(db, m.Version, m.Up, "INSERT INTO migrations (version) VALUES (?)")
		if err != nil {
			return fmt.Errorf("migration %d: %w", m.Version, err)
		}
		log.Info().Int("version", m.Version).Msg("Applied migration")
	}

	return nil
}

// RollbackMigrations rolls back the last n applied migrations, newest first.
// Versions without a down script are skipped.
func RollbackMigrations(db *sql.DB, migrations []Migration, n int) error {
	versions, err := appliedVersions(db, "SELECT version FROM migrations ORDER BY version DESC LIMIT ?", n)
	if err != nil {
		return err
	}

	byVersion := make(map[int]Migration, len(migrations))
	for _, m := range migrations {
		byVersion[m.Version] = m
	}

	for _, version := range versions {
		down := byVersion[version].Down
		if down == "" {
			log.Warn().Int("version", version).Msg("No down migration found, skipping")
			continue
		}
		err := applyInTx(db, version, down, "DELETE FROM migrations WHERE version = ?")
		if err != nil {
			return fmt.Errorf("rollback of migration %d: %w", version, err)
		}
		log.Info().Int("version", version).Msg("Rolled back migration")
	}

	return nil
}

// appliedVersions reads the versions returned by query. The rows are fully
// consumed before returning so the connection is free for the next
// transaction.
func appliedVersions(db *sql.DB, query string, args ...any) ([]int, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		versions = append(versions, version)
	}
	return versions, rows.Err()
}

// applyInTx runs script and the bookkeeping statement for version in one
// transaction.
func applyInTx(db *sql.DB, version int, script, bookkeeping string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.Exec(script); err != nil {
		tx.Rollback()
		return err
	}
	if _, err := tx.Exec(bookkeeping, version); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to update migrations table: %w", err)
	}
	return tx.Commit()
}
