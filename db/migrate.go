package db

import (
	"database/sql"
	"embed"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/storygraph/errors"
)

//go:embed sqlite/migrations/*.sql
var migrationFS embed.FS

const migrationDir = "sqlite/migrations"

// Migrate brings the schema up to date. Each .sql file under
// sqlite/migrations applies at most once, in lexical filename order,
// inside its own transaction. The version prefix before the first
// underscore keys the schema_migrations ledger.
func Migrate(db *sql.DB, log *zap.SugaredLogger) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return errors.Wrap(err, "creating schema_migrations")
	}

	applied, err := appliedVersions(db)
	if err != nil {
		return err
	}

	names, err := migrationNames()
	if err != nil {
		return err
	}

	ran := 0
	for _, name := range names {
		version := strings.SplitN(name, "_", 2)[0]
		if applied[version] {
			continue
		}
		if log != nil {
			log.Infow("Applying migration", "migration", name, "version", version)
		}
		if err := applyMigration(db, name, version); err != nil {
			return err
		}
		ran++
	}

	if log != nil && ran > 0 {
		log.Infow("Migrations complete", "applied", ran, "total", len(names))
	}
	return nil
}

func migrationNames() ([]string, error) {
	entries, err := migrationFS.ReadDir(migrationDir)
	if err != nil {
		return nil, errors.Wrap(err, "reading migration directory")
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func appliedVersions(db *sql.DB) (map[string]bool, error) {
	rows, err := db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, errors.Wrap(err, "reading applied migrations")
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, errors.Wrap(err, "scanning migration version")
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func applyMigration(db *sql.DB, name, version string) error {
	script, err := migrationFS.ReadFile(path.Join(migrationDir, name))
	if err != nil {
		return errors.Wrapf(err, "reading %s", name)
	}

	tx, err := db.Begin()
	if err != nil {
		return errors.Wrapf(err, "beginning %s", name)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(string(script)); err != nil {
		return errors.Wrapf(err, "applying %s", name)
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return errors.Wrapf(err, "recording %s", name)
	}
	return errors.Wrapf(tx.Commit(), "committing %s", name)
}
