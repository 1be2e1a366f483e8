package repository

import (
	"path/filepath"
	"testing"

	"nauczsie/internal/database"
	"nauczsie/internal/security"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "storage.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLocalStorageRepository(t *testing.T) {
	sealer, err := security.NewSealer("test-secret")
	if err != nil {
		t.Fatalf("NewSealer() error = %v", err)
	}

	tests := []struct {
		name   string
		sealer Sealer
	}{
		{name: "plain", sealer: nil},
		{name: "sealed", sealer: sealer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewLocalStorageRepository(newTestDB(t), tt.sealer)

			if _, ok, err := repo.GetItem("auth_token"); err != nil || ok {
				t.Fatalf("GetItem() on empty store = ok %v, err %v", ok, err)
			}

			if err := repo.SetItem("auth_token", "tok-1"); err != nil {
				t.Fatalf("SetItem() error = %v", err)
			}
			if err := repo.SetItem("auth_token", "tok-2"); err != nil {
				t.Fatalf("SetItem() overwrite error = %v", err)
			}

			value, ok, err := repo.GetItem("auth_token")
			if err != nil || !ok || value != "tok-2" {
				t.Fatalf("GetItem() = %q, %v, %v; want tok-2", value, ok, err)
			}

			if err := repo.RemoveItem("auth_token"); err != nil {
				t.Fatalf("RemoveItem() error = %v", err)
			}
			if err := repo.RemoveItem("auth_token"); err != nil {
				t.Fatalf("RemoveItem() of absent key error = %v", err)
			}
			if _, ok, _ := repo.GetItem("auth_token"); ok {
				t.Error("key should be gone after RemoveItem")
			}
		})
	}
}

func TestLocalStorageRepositorySealsAtRest(t *testing.T) {
	db := newTestDB(t)
	sealer, _ := security.NewSealer("test-secret")
	repo := NewLocalStorageRepository(db, sealer)

	if err := repo.SetItem("openai_key", "sk-test"); err != nil {
		t.Fatalf("SetItem() error = %v", err)
	}

	var raw string
	if err := db.QueryRow("SELECT storage_value FROM local_storage WHERE storage_key = ?", "openai_key").Scan(&raw); err != nil {
		t.Fatalf("raw read error = %v", err)
	}
	if raw == "sk-test" {
		t.Error("value stored in plaintext")
	}

	// A repository with a different secret cannot read the value.
	other, _ := security.NewSealer("other-secret")
	if _, _, err := NewLocalStorageRepository(db, other).GetItem("openai_key"); err == nil {
		t.Error("expected error opening value sealed with another secret")
	}
}
