package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"underwriting-lab/internal/storage/postgres"
	"underwriting-lab/internal/storage/sqlite"
)

// RunPostgresMigrations applies all embedded SQL files in lexical order.
// Migrations are expected to be idempotent.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) error {
	return apply(PostgresFS, "postgres", func(file, sql string) error {
		_, err := pool.Exec(ctx, sql)
		return err
	})
}

// RunSQLiteMigrations applies all embedded SQLite files in lexical order.
func RunSQLiteMigrations(ctx context.Context, db *sqlite.DB) error {
	return apply(SQLiteFS, "sqlite", func(file, sql string) error {
		_, err := db.ExecContext(ctx, sql)
		return err
	})
}

// apply runs every non-empty .sql file under dir through exec.
func apply(fsys fs.FS, dir string, exec func(file, sql string) error) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("read embedded %s migrations: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	for _, file := range files {
		data, err := fs.ReadFile(fsys, dir+"/"+file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			continue
		}
		if err := exec(file, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", file, err)
		}
	}

	return nil
}
