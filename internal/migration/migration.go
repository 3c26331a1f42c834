// Package migration applies the embedded NNN_name.sql files to a database
// and tracks the applied version in a single-row schema_version table.
package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrSchemaTooNew is returned when the database was migrated by a newer build.
var ErrSchemaTooNew = errors.New("database schema is newer than this build supports")

// Dialect selects the bind-parameter style of the target database
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

func (d Dialect) bind(n int) string {
	if d == DialectPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Migration is one parsed migration file
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Plan describes where the database stands relative to the embedded files.
type Plan struct {
	Current int
	Latest  int
	Pending []Migration
}

// UpToDate reports whether nothing is left to apply.
func (p Plan) UpToDate() bool { return len(p.Pending) == 0 }

// Runner applies migrations from an fs.FS to a database
type Runner struct {
	db      *sql.DB
	fs      fs.FS
	dialect Dialect
}

// NewRunner creates a runner using SQLite placeholders
func NewRunner(db *sql.DB, migrationFS fs.FS) *Runner {
	return &Runner{db: db, fs: migrationFS}
}

// WithDialect sets the placeholder style used when recording versions
func (r *Runner) WithDialect(d Dialect) *Runner {
	r.dialect = d
	return r
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func (r *Runner) ensureTable() error {
	if _, err := r.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)`); err != nil {
		return fmt.Errorf("failed to ensure schema_version table: %w", err)
	}
	return nil
}

func (r *Runner) recordVersion(ex execer, version int) error {
	if _, err := ex.Exec("DELETE FROM schema_version"); err != nil {
		return fmt.Errorf("failed to clear schema version: %w", err)
	}
	insert := "INSERT INTO schema_version (version) VALUES (" + r.dialect.bind(1) + ")"
	if _, err := ex.Exec(insert, version); err != nil {
		return fmt.Errorf("failed to record schema version %d: %w", version, err)
	}
	return nil
}

// GetCurrentVersion returns the applied version, 0 for a fresh database
func (r *Runner) GetCurrentVersion() (int, error) {
	if err := r.ensureTable(); err != nil {
		return 0, err
	}
	var version int
	err := r.db.QueryRow("SELECT version FROM schema_version").Scan(&version)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

// SetVersion overwrites the recorded version
func (r *Runner) SetVersion(version int) error {
	if err := r.ensureTable(); err != nil {
		return err
	}
	return r.recordVersion(r.db, version)
}

func parseFileName(name string) (int, string, error) {
	stem := strings.TrimSuffix(name, path.Ext(name))
	num, label, ok := strings.Cut(stem, "_")
	if !ok || label == "" {
		return 0, "", fmt.Errorf("invalid migration filename %s (expected NNN_name.sql)", name)
	}
	version, err := strconv.Atoi(num)
	if err != nil {
		return 0, "", fmt.Errorf("invalid version number in filename %s: %w", name, err)
	}
	if version < 1 {
		return 0, "", fmt.Errorf("invalid version number in filename %s: must be at least 1", name)
	}
	return version, label, nil
}

// ReadMigrationFiles parses every .sql file, sorted by version. Duplicate
// versions are an error.
func (r *Runner) ReadMigrationFiles() ([]Migration, error) {
	entries, err := fs.ReadDir(r.fs, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var out []Migration
	seen := make(map[int]string)
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".sql" {
			continue
		}
		version, label, err := parseFileName(e.Name())
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("duplicate migration version %d (%s and %s)", version, prev, e.Name())
		}
		seen[version] = e.Name()

		body, err := fs.ReadFile(r.fs, e.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", e.Name(), err)
		}
		out = append(out, Migration{Version: version, Name: label, SQL: string(body)})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// GetLatestVersion returns the highest embedded version, 0 when there are none
func (r *Runner) GetLatestVersion() (int, error) {
	all, err := r.ReadMigrationFiles()
	if err != nil || len(all) == 0 {
		return 0, err
	}
	return all[len(all)-1].Version, nil
}

// Plan compares the database version with the embedded files. A database
// ahead of the files yields ErrSchemaTooNew.
func (r *Runner) Plan() (Plan, error) {
	current, err := r.GetCurrentVersion()
	if err != nil {
		return Plan{}, err
	}
	all, err := r.ReadMigrationFiles()
	if err != nil {
		return Plan{}, err
	}

	p := Plan{Current: current}
	if len(all) > 0 {
		p.Latest = all[len(all)-1].Version
	}
	if current > p.Latest {
		return p, fmt.Errorf("%w: database at version %d, build supports %d", ErrSchemaTooNew, current, p.Latest)
	}
	for _, m := range all {
		if m.Version > current {
			p.Pending = append(p.Pending, m)
		}
	}
	return p, nil
}

func (r *Runner) apply(m Migration) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin migration %d: %w", m.Version, err)
	}
	if _, err := tx.Exec(m.SQL); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to apply migration %d (%s): %w", m.Version, m.Name, err)
	}
	// The version moves in the same transaction as the schema change
	if err := r.recordVersion(tx, m.Version); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
	}
	return nil
}

// ApplyMigrations applies every pending migration in order and returns how
// many were applied. logFn receives progress lines and may be nil.
func (r *Runner) ApplyMigrations(logFn func(string)) (int, error) {
	if logFn == nil {
		logFn = func(string) {}
	}

	plan, err := r.Plan()
	if err != nil {
		return 0, err
	}
	if plan.UpToDate() {
		logFn(fmt.Sprintf("Schema up to date (version %d)", plan.Current))
		return 0, nil
	}

	logFn(fmt.Sprintf("Migrating schema %d -> %d", plan.Current, plan.Latest))
	started := time.Now()
	for i, m := range plan.Pending {
		if err := r.apply(m); err != nil {
			return i, err
		}
		logFn(fmt.Sprintf("  applied %03d_%s", m.Version, m.Name))
	}
	logFn(fmt.Sprintf("Applied %d migration(s) in %v", len(plan.Pending), time.Since(started).Round(time.Millisecond)))
	return len(plan.Pending), nil
}

// ValidateVersion fails when the database is ahead of this build
func (r *Runner) ValidateVersion() error {
	_, err := r.Plan()
	return err
}

// PendingCount returns how many migrations have not been applied yet
func (r *Runner) PendingCount() (int, error) {
	plan, err := r.Plan()
	if err != nil {
		return 0, err
	}
	return len(plan.Pending), nil
}
