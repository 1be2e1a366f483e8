package service

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"nauczsie/internal/database"
)

const backupVersion = "1.0"

// BackupData is the exported content of local storage. Values are copied
// as stored, so sealed values stay sealed.
type BackupData struct {
	Version    string        `json:"version"`
	ExportedAt time.Time     `json:"exported_at"`
	Items      []StorageItem `json:"items"`
}

// StorageItem is one local storage row
type StorageItem struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// BackupService exports and imports local storage
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// ExportToWriter writes every stored item as indented JSON
func (s *BackupService) ExportToWriter(w io.Writer) (int, error) {
	backup := &BackupData{
		Version:    backupVersion,
		ExportedAt: time.Now().UTC(),
		Items:      []StorageItem{},
	}

	rows, err := s.db.Query(`SELECT storage_key, storage_value FROM local_storage ORDER BY storage_key`)
	if err != nil {
		return 0, fmt.Errorf("failed to query local storage: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item StorageItem
		if err := rows.Scan(&item.Key, &item.Value); err != nil {
			return 0, fmt.Errorf("failed to scan local storage row: %w", err)
		}
		backup.Items = append(backup.Items, item)
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to read local storage: %w", err)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return 0, fmt.Errorf("failed to encode backup: %w", err)
	}
	return len(backup.Items), nil
}

// ImportFromReader restores items from a backup in one transaction.
// With replace set, existing items are deleted first.
func (s *BackupService) ImportFromReader(r io.Reader, replace bool) (int, error) {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return 0, fmt.Errorf("failed to decode backup: %w", err)
	}
	if backup.Version != backupVersion {
		return 0, fmt.Errorf("unsupported backup version %q", backup.Version)
	}

	log.Printf("Backup version: %s, exported at: %s", backup.Version, backup.ExportedAt)

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if replace {
		if _, err := tx.Exec(`DELETE FROM local_storage`); err != nil {
			return 0, fmt.Errorf("failed to clear local storage: %w", err)
		}
	}

	upsert := tx.GetDialect().UpsertLocalStorage()
	for _, item := range backup.Items {
		if item.Key == "" {
			return 0, fmt.Errorf("backup contains an item without a key")
		}
		if _, err := tx.Exec(upsert, item.Key, item.Value); err != nil {
			return 0, fmt.Errorf("failed to import %s: %w", item.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit import: %w", err)
	}
	return len(backup.Items), nil
}

// ClearSession removes the stored session so the next start is logged out
func (s *BackupService) ClearSession(extraKeys ...string) error {
	keys := append([]string{TokenStorageKey, UserStorageKey, SourceStorageKey}, extraKeys...)
	for _, key := range keys {
		if _, err := s.db.Exec(`DELETE FROM local_storage WHERE storage_key = ?`, key); err != nil {
			return fmt.Errorf("failed to remove %s: %w", key, err)
		}
	}
	return nil
}
