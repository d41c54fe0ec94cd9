package database

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Migration is one schema change with its rollback.
type Migration struct {
	Version     int
	Description string
	Up          string
	Down        string
}

// Migrator applies schema migrations in version order.
type Migrator struct {
	db         *DB
	migrations []Migration
}

// NewMigrator creates a migrator with all known migrations registered.
func NewMigrator(db *DB) *Migrator {
	m := &Migrator{
		db:         db,
		migrations: make([]Migration, 0),
	}
	m.registerMigrations()
	return m
}

func (m *Migrator) registerMigrations() {
	m.Register(Migration{
		Version:     1,
		Description: "Create schema_version table",
		Up: `
			CREATE TABLE IF NOT EXISTS schema_version (
				version INTEGER PRIMARY KEY,
				description TEXT NOT NULL,
				applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)
		`,
		Down: `DROP TABLE IF EXISTS schema_version`,
	})

	m.Register(Migration{
		Version:     2,
		Description: "Create games table",
		Up: `
			CREATE TABLE IF NOT EXISTS games (
				game_key TEXT PRIMARY KEY,
				league TEXT NOT NULL,
				game_date TEXT NOT NULL,
				tipoff TEXT,
				venue TEXT,
				home_team TEXT NOT NULL,
				away_team TEXT NOT NULL,
				home_canon TEXT NOT NULL,
				away_canon TEXT NOT NULL,
				players TEXT,
				position INTEGER NOT NULL,
				updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)
		`,
		Down: `DROP TABLE IF EXISTS games`,
	})

	m.Register(Migration{
		Version:     3,
		Description: "Create notes table",
		Up: `
			CREATE TABLE IF NOT EXISTS notes (
				id TEXT PRIMARY KEY,
				author TEXT NOT NULL,
				subject TEXT NOT NULL,
				body TEXT NOT NULL,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_notes_subject ON notes(subject)
		`,
		Down: `DROP TABLE IF EXISTS notes`,
	})

	m.Register(Migration{
		Version:     4,
		Description: "Create friends table",
		Up: `
			CREATE TABLE IF NOT EXISTS friends (
				id TEXT PRIMARY KEY,
				requester TEXT NOT NULL,
				addressee TEXT NOT NULL,
				status TEXT NOT NULL DEFAULT 'pending',
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				UNIQUE(requester, addressee)
			)
		`,
		Down: `DROP TABLE IF EXISTS friends`,
	})

	m.Register(Migration{
		Version:     5,
		Description: "Create scheduler_state table",
		Up: `
			CREATE TABLE IF NOT EXISTS scheduler_state (
				task_id TEXT PRIMARY KEY,
				last_run DATETIME,
				last_error TEXT,
				run_count INTEGER DEFAULT 0
			)
		`,
		Down: `DROP TABLE IF EXISTS scheduler_state`,
	})

	sort.Slice(m.migrations, func(i, j int) bool {
		return m.migrations[i].Version < m.migrations[j].Version
	})
}

// Register adds a migration.
func (m *Migrator) Register(migration Migration) {
	m.migrations = append(m.migrations, migration)
}

// Migrate runs all pending migrations.
func (m *Migrator) Migrate(ctx context.Context) error {
	currentVersion, err := m.getCurrentVersion(ctx)
	if err != nil {
		// Schema version table might not exist yet.
		if _, err := m.db.Exec(ctx, m.migrations[0].Up); err != nil {
			return fmt.Errorf("failed to create schema_version table: %w", err)
		}
		currentVersion = 1
	}

	for _, migration := range m.migrations {
		if migration.Version <= currentVersion {
			continue
		}
		if err := m.applyMigration(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}
	}
	return nil
}

func (m *Migrator) getCurrentVersion(ctx context.Context) (int, error) {
	row := m.db.QueryRow(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
	var version int
	if err := row.Scan(&version); err != nil {
		return 0, err
	}
	return version, nil
}

func (m *Migrator) applyMigration(ctx context.Context, migration Migration) error {
	tx, err := m.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, migration.Up); err != nil {
		return fmt.Errorf("failed to execute migration: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_version (version, description, applied_at) VALUES (?, ?, ?)",
		migration.Version, migration.Description, time.Now()); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}
	return tx.Commit()
}

// Rollback rolls back the most recent migration.
func (m *Migrator) Rollback(ctx context.Context) error {
	currentVersion, err := m.getCurrentVersion(ctx)
	if err != nil {
		return err
	}
	if currentVersion == 0 {
		return fmt.Errorf("no migrations to rollback")
	}

	for i := len(m.migrations) - 1; i >= 0; i-- {
		if m.migrations[i].Version == currentVersion {
			return m.rollbackMigration(ctx, m.migrations[i])
		}
	}
	return fmt.Errorf("migration %d not found", currentVersion)
}

func (m *Migrator) rollbackMigration(ctx context.Context, migration Migration) error {
	tx, err := m.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, migration.Down); err != nil {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM schema_version WHERE version = ?", migration.Version); err != nil {
		return fmt.Errorf("failed to remove migration record: %w", err)
	}
	return tx.Commit()
}

// GetVersion returns the current schema version.
func (m *Migrator) GetVersion(ctx context.Context) (int, error) {
	return m.getCurrentVersion(ctx)
}
