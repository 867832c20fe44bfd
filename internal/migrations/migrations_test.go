package migrations

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

func TestMigrationsEmbedded(t *testing.T) {
	for _, dir := range []string{"postgres", "sqlite"} {
		entries, err := embedMigrations.ReadDir(dir)
		if err != nil {
			t.Fatalf("Failed to read embedded migrations in %s: %v", dir, err)
		}

		foundSQL := 0
		for _, entry := range entries {
			if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
				foundSQL++
				t.Logf("Found migration: %s/%s", dir, entry.Name())
			}
		}

		if foundSQL == 0 {
			t.Errorf("No .sql migration files found in %s", dir)
		}
	}
}

func TestDialectsShareMigrationVersions(t *testing.T) {
	pg, _ := embedMigrations.ReadDir("postgres")
	lite, _ := embedMigrations.ReadDir("sqlite")
	if len(pg) != len(lite) {
		t.Fatalf("postgres has %d migrations, sqlite has %d", len(pg), len(lite))
	}
	for i := range pg {
		if pg[i].Name() != lite[i].Name() {
			t.Errorf("migration %d: %s != %s", i, pg[i].Name(), lite[i].Name())
		}
	}
}

func TestRunWithInvalidDB(t *testing.T) {
	// Тест с невалидным подключением
	db, err := sql.Open("pgx", "invalid://connection")
	if err != nil {
		t.Skipf("Cannot create test DB connection: %v", err)
	}
	defer db.Close()

	// Run должен вернуть ошибку для невалидного подключения
	err = Run(db, DialectPostgres)
	if err == nil {
		t.Error("Expected error for invalid DB connection, got nil")
	}
}

func TestRunUnknownDialect(t *testing.T) {
	if err := Run(nil, Dialect("oracle")); err == nil {
		t.Error("Expected error for unsupported dialect, got nil")
	}
}

func TestRunSQLite(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "cafetrack.db"))
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}
	defer db.Close()

	if err := Run(db, DialectSQLite); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	version, err := Version(db, DialectSQLite)
	if err != nil {
		t.Fatalf("Version() error = %v", err)
	}
	if version != 2 {
		t.Errorf("version = %d, want 2", version)
	}
}
