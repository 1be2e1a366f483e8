package database

import (
	"path/filepath"
	"testing"

	"nauczsie/internal/config"
)

// TestDatabaseIntegration tests the SQLite lifecycle end to end
func TestDatabaseIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	dbPath := filepath.Join(t.TempDir(), "integration.db")

	db, err := Initialize(dbPath)
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	var name string
	err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", "local_storage").Scan(&name)
	if err != nil {
		t.Fatalf("Table local_storage not found: %v", err)
	}

	upsert := db.Dialect.UpsertLocalStorage()
	if _, err := db.Exec(upsert, "auth_token", "first"); err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}
	if _, err := db.Exec(upsert, "auth_token", "second"); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	var value string
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM local_storage").Scan(&count); err != nil {
		t.Fatalf("Failed to count rows: %v", err)
	}
	if err := db.QueryRow("SELECT storage_value FROM local_storage WHERE storage_key = ?", "auth_token").Scan(&value); err != nil {
		t.Fatalf("Failed to read value: %v", err)
	}
	if count != 1 || value != "second" {
		t.Errorf("got count=%d value=%q, want 1 row with %q", count, value, "second")
	}
}

// TestMigrationsRunOnce reopens a database and checks migrations are not reapplied
func TestMigrationsRunOnce(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	cfg := &config.Config{DatabaseType: "sqlite", DatabasePath: filepath.Join(t.TempDir(), "reopen.db")}

	for i := 0; i < 2; i++ {
		db, err := InitializeWithConfig(cfg)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM migrations").Scan(&count); err != nil {
			t.Fatalf("Failed to count migrations: %v", err)
		}
		if count != 1 {
			t.Errorf("open %d: migrations recorded = %d, want 1", i, count)
		}
		db.Close()
	}
}

func TestInitializeWithConfigUnsupported(t *testing.T) {
	_, err := InitializeWithConfig(&config.Config{DatabaseType: "oracle"})
	if err == nil {
		t.Fatal("expected error for unsupported database type")
	}
}

func TestTransactionRollback(t *testing.T) {
	db, err := Initialize(filepath.Join(t.TempDir(), "tx.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if _, err := tx.Exec(tx.GetDialect().UpsertLocalStorage(), "user_data", "{}"); err != nil {
		t.Fatalf("Exec in transaction failed: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM local_storage WHERE storage_key = ?", "user_data").Scan(&count); err != nil {
		t.Fatalf("Failed to count rows: %v", err)
	}
	if count != 0 {
		t.Errorf("rolled back row is visible, count = %d", count)
	}
}
