package migrations

import (
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestUp_FreshDatabase(t *testing.T) {
	db := openTestDB(t)

	if err := Up(db); err != nil {
		t.Fatalf("Up() error = %v", err)
	}

	for _, table := range []string{"kv", "operations", "schema_migrations"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s was not created: %v", table, err)
		}
	}
}

func TestCheck_FreshDatabase(t *testing.T) {
	db := openTestDB(t)

	err := Check(db)
	if !errors.Is(err, ErrNotMigrated) {
		t.Errorf("Check() error = %v, want ErrNotMigrated", err)
	}
}

func TestCheck_AfterUp(t *testing.T) {
	db := openTestDB(t)
	if err := Up(db); err != nil {
		t.Fatalf("Up() error = %v", err)
	}

	if err := Check(db); err != nil {
		t.Errorf("Check() after Up() error = %v", err)
	}

	v, dirty, err := Version(db)
	if err != nil {
		t.Fatalf("Version() error = %v", err)
	}
	latest, err := Latest()
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if v != latest || dirty {
		t.Errorf("Version() = %d, %v; want %d, false", v, dirty, latest)
	}
}

func TestUp_Idempotent(t *testing.T) {
	db := openTestDB(t)

	if err := Up(db); err != nil {
		t.Fatalf("first Up() error = %v", err)
	}
	if err := Up(db); err != nil {
		t.Errorf("second Up() error = %v", err)
	}
	if err := Check(db); err != nil {
		t.Errorf("Check() after double Up() error = %v", err)
	}
}

func TestSchema_KVKeyIsUnique(t *testing.T) {
	db := openTestDB(t)
	if err := Up(db); err != nil {
		t.Fatalf("Up() error = %v", err)
	}

	if _, err := db.Exec("INSERT INTO kv (key, value, updated_at) VALUES ('user', x'00', datetime('now'))"); err != nil {
		t.Fatalf("first insert error = %v", err)
	}
	if _, err := db.Exec("INSERT INTO kv (key, value, updated_at) VALUES ('user', x'01', datetime('now'))"); err == nil {
		t.Error("duplicate kv key was accepted")
	}
}

func TestSchema_OperationDefaults(t *testing.T) {
	db := openTestDB(t)
	if err := Up(db); err != nil {
		t.Fatalf("Up() error = %v", err)
	}

	if _, err := db.Exec("INSERT INTO operations (operation, started_at) VALUES ('login', datetime('now'))"); err != nil {
		t.Fatalf("insert error = %v", err)
	}

	var status, params string
	if err := db.QueryRow("SELECT status, parameters FROM operations").Scan(&status, &params); err != nil {
		t.Fatalf("select error = %v", err)
	}
	if status != "running" || params != "" {
		t.Errorf("defaults = (%q, %q), want (running, \"\")", status, params)
	}
}

// openTestDB opens an in-memory SQLite database that is closed with the test.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	// Each pooled connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}
