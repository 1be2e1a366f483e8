package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"nauczsie/internal/database"
)

// Sealer encrypts stored values at rest
type Sealer interface {
	Seal(plaintext string) (string, error)
	Open(sealed string) (string, error)
}

// LocalStorageRepository is a durable string key-value store. Values are
// sealed before they are written when a Sealer is configured.
type LocalStorageRepository struct {
	db     database.DBTX
	sealer Sealer
}

// NewLocalStorageRepository creates a repository. sealer may be nil.
func NewLocalStorageRepository(db database.DBTX, sealer Sealer) *LocalStorageRepository {
	return &LocalStorageRepository{db: db, sealer: sealer}
}

// GetItem retrieves a value by key. ok is false when the key is absent.
func (r *LocalStorageRepository) GetItem(key string) (string, bool, error) {
	var value string
	query := `SELECT storage_value FROM local_storage WHERE storage_key = ?`
	err := r.db.QueryRow(query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}

	if r.sealer != nil {
		value, err = r.sealer.Open(value)
		if err != nil {
			return "", false, fmt.Errorf("failed to open %s: %w", key, err)
		}
	}
	return value, true, nil
}

// SetItem inserts or replaces a value
func (r *LocalStorageRepository) SetItem(key, value string) error {
	if r.sealer != nil {
		sealed, err := r.sealer.Seal(value)
		if err != nil {
			return fmt.Errorf("failed to seal %s: %w", key, err)
		}
		value = sealed
	}

	if _, err := r.db.Exec(r.db.GetDialect().UpsertLocalStorage(), key, value); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// RemoveItem deletes a value. Removing an absent key is not an error.
func (r *LocalStorageRepository) RemoveItem(key string) error {
	if _, err := r.db.Exec(`DELETE FROM local_storage WHERE storage_key = ?`, key); err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}
