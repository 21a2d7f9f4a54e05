package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Migration files live in migration/{driver}/. LATEST.sql is the full schema
// used for fresh databases; NN__description.sql files upgrade existing ones.
// The applied patch number is kept in the setting table.

//go:embed migration
var migrationFS embed.FS

//go:embed seed
var seedFS embed.FS

const (
	// MigrateFileNameSplit separates the patch number from the description, e.g. "1__create_table.sql".
	MigrateFileNameSplit = "__"
	// LatestSchemaFileName is the full schema applied to fresh installations.
	LatestSchemaFileName = "LATEST.sql"

	modeDemo = "demo"
)

// validateMigrationFileName checks the "NN__description.sql" convention.
func validateMigrationFileName(filename string) error {
	parts := strings.SplitN(filename, MigrateFileNameSplit, 2)
	if len(parts) < 2 {
		return errors.Errorf("invalid migration filename format (missing %s): %s", MigrateFileNameSplit, filename)
	}
	if _, err := strconv.Atoi(parts[0]); err != nil {
		return errors.Errorf("migration filename must start with a number: %s", filename)
	}
	return nil
}

// Migrate brings the schema to the latest version and seeds demo data in demo mode.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.preMigrate(ctx); err != nil {
		return errors.Wrap(err, "failed to pre-migrate")
	}

	current, err := s.schemaVersion(ctx)
	if err != nil {
		return err
	}
	target, err := s.LatestSchemaVersion()
	if err != nil {
		return err
	}
	if current > target {
		slog.Error("cannot downgrade schema version",
			slog.Int("databaseVersion", current),
			slog.Int("currentVersion", target))
		return errors.Errorf("cannot downgrade schema version from %d to %d", current, target)
	}
	if current < target {
		if err := s.applyMigrations(ctx, current, target); err != nil {
			return errors.Wrap(err, "failed to apply migrations")
		}
	}

	if s.profile.Mode == modeDemo {
		if err := s.seed(ctx); err != nil {
			return errors.Wrap(err, "failed to seed")
		}
	}
	return nil
}

// migrationFiles returns the incremental migration files for the driver, sorted by patch number.
func (s *Store) migrationFiles() ([]string, error) {
	filePaths, err := fs.Glob(migrationFS, s.getMigrationBasePath()+"*"+MigrateFileNameSplit+"*.sql")
	if err != nil {
		return nil, errors.Wrap(err, "failed to read migration files")
	}
	sort.Slice(filePaths, func(i, j int) bool {
		pi, _ := patchOf(filePaths[i])
		pj, _ := patchOf(filePaths[j])
		return pi < pj
	})
	return filePaths, nil
}

// LatestSchemaVersion returns the highest patch number shipped for the driver.
func (s *Store) LatestSchemaVersion() (int, error) {
	files, err := s.migrationFiles()
	if err != nil {
		return 0, err
	}
	if len(files) == 0 {
		return 0, nil
	}
	return patchOf(files[len(files)-1])
}

func patchOf(filePath string) (int, error) {
	raw := strings.SplitN(filepath.Base(filePath), MigrateFileNameSplit, 2)[0]
	patch, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to convert patch version to int: %s", raw)
	}
	return patch, nil
}

// applyMigrations runs every file in (current, target] in a single transaction.
func (s *Store) applyMigrations(ctx context.Context, current, target int) error {
	files, err := s.migrationFiles()
	if err != nil {
		return err
	}

	tx, err := s.driver.GetDB().BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}
	defer tx.Rollback()

	slog.Info("start migration",
		slog.Int("currentSchemaVersion", current),
		slog.Int("targetSchemaVersion", target))

	applied := 0
	for _, filePath := range files {
		if err := validateMigrationFileName(filepath.Base(filePath)); err != nil {
			return err
		}
		patch, err := patchOf(filePath)
		if err != nil {
			return err
		}
		if patch <= current || patch > target {
			continue
		}

		slog.Info("applying migration", slog.String("file", filePath), slog.Int("version", patch))
		bytes, err := migrationFS.ReadFile(filePath)
		if err != nil {
			return errors.Wrapf(err, "failed to read migration file: %s", filePath)
		}
		if err := s.execute(ctx, tx, string(bytes)); err != nil {
			return errors.Wrapf(err, "failed to execute migration %s", filePath)
		}
		applied++
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit migration transaction")
	}
	slog.Info("migration completed", slog.Int("migrationsApplied", applied))
	return s.Set(ctx, SettingSchemaVersion, strconv.Itoa(target))
}

// preMigrate applies the latest schema to an uninitialized database.
func (s *Store) preMigrate(ctx context.Context) error {
	initialized, err := s.driver.IsInitialized(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to check if database is initialized")
	}
	if initialized {
		return nil
	}

	filePath := s.getMigrationBasePath() + LatestSchemaFileName
	bytes, err := migrationFS.ReadFile(filePath)
	if err != nil {
		return errors.Errorf("failed to read latest schema file: %s", err)
	}
	tx, err := s.driver.GetDB().BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}
	defer tx.Rollback()

	slog.Info("initializing new database with latest schema", slog.String("file", filePath))
	if err := s.execute(ctx, tx, string(bytes)); err != nil {
		return errors.Errorf("failed to execute SQL file %s, err %s", filePath, err)
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}

	latest, err := s.LatestSchemaVersion()
	if err != nil {
		return err
	}
	slog.Info("database initialized successfully", slog.Int("schemaVersion", latest))
	return s.Set(ctx, SettingSchemaVersion, strconv.Itoa(latest))
}

// schemaVersion returns the applied patch number, 0 when unset.
func (s *Store) schemaVersion(ctx context.Context) (int, error) {
	value, ok, err := s.Get(ctx, SettingSchemaVersion)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get schema version")
	}
	if !ok || value == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid schema version %q", value)
	}
	return v, nil
}

func (s *Store) getMigrationBasePath() string {
	return fmt.Sprintf("migration/%s/", s.profile.Driver)
}

// seed loads the demo favorites. Only SQLite ships seed data.
func (s *Store) seed(ctx context.Context) error {
	if s.profile.Driver != "sqlite" {
		slog.Warn("seed is only supported for SQLite, skipping for other databases")
		return nil
	}
	filenames, err := fs.Glob(seedFS, "seed/sqlite/*.sql")
	if err != nil {
		return errors.Wrap(err, "failed to read seed files")
	}
	sort.Strings(filenames)

	tx, err := s.driver.GetDB().BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}
	defer tx.Rollback()
	for _, filename := range filenames {
		bytes, err := seedFS.ReadFile(filename)
		if err != nil {
			return errors.Wrapf(err, "failed to read seed file, filename=%s", filename)
		}
		if err := s.execute(ctx, tx, string(bytes)); err != nil {
			return errors.Wrapf(err, "seed error: %s", filename)
		}
	}
	return tx.Commit()
}

// execute runs a SQL script statement by statement.
func (s *Store) execute(ctx context.Context, tx *sql.Tx, script string) error {
	for i, stmt := range splitSQL(script) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "failed to execute statement %d: %s", i+1, stmt)
		}
	}
	return nil
}

// splitSQL splits a script on semicolons outside single-quoted strings,
// dropping "--" comments.
func splitSQL(script string) []string {
	var (
		statements []string
		current    strings.Builder
		inQuote    bool
	)
	for _, line := range strings.Split(script, "\n") {
		for i := 0; i < len(line); i++ {
			ch := line[i]
			if !inQuote && ch == '-' && i+1 < len(line) && line[i+1] == '-' {
				break
			}
			if ch == '\'' {
				inQuote = !inQuote
			}
			if ch == ';' && !inQuote {
				if stmt := strings.TrimSpace(current.String()); stmt != "" {
					statements = append(statements, stmt)
				}
				current.Reset()
				continue
			}
			current.WriteByte(ch)
		}
		current.WriteByte('\n')
	}
	if stmt := strings.TrimSpace(current.String()); stmt != "" {
		statements = append(statements, stmt)
	}
	return statements
}
