package database

import (
	"fmt"
	"time"
)

const settingDefaultWalletID = "default_wallet_id"

// InitAppSettingsTable creates the app_settings key/value table
func (sqlm *SQLiteManager) InitAppSettingsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS app_settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`

	if _, err := sqlm.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create app_settings table: %w", err)
	}
	return nil
}

// GetSetting returns "" when the key is not set.
func (sqlm *SQLiteManager) GetSetting(key string) (string, error) {
	value, err := QueryRowSingle(sqlm.db, "SELECT value FROM app_settings WHERE key = ?",
		func(row rowScanner) (*string, error) {
			var v string
			return &v, row.Scan(&v)
		},
		sqlm.logger, "database", key)
	if err != nil {
		return "", fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	if value == nil {
		return "", nil
	}
	return *value, nil
}

// SetSetting inserts or replaces a setting.
func (sqlm *SQLiteManager) SetSetting(key string, value string) error {
	query := `
	INSERT INTO app_settings (key, value, updated_at)
	VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET
		value = excluded.value,
		updated_at = excluded.updated_at
	`

	if _, err := ExecWithLogging(sqlm.db, query, sqlm.logger, "database", key, value, time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}

func (sqlm *SQLiteManager) DeleteSetting(key string) error {
	if _, err := ExecWithLogging(sqlm.db, "DELETE FROM app_settings WHERE key = ?", sqlm.logger, "database", key); err != nil {
		return fmt.Errorf("failed to delete setting %s: %w", key, err)
	}
	return nil
}

// GetDefaultWalletID returns the wallet chosen with `wallet use`, or "".
func (sqlm *SQLiteManager) GetDefaultWalletID() (string, error) {
	return sqlm.GetSetting(settingDefaultWalletID)
}

func (sqlm *SQLiteManager) SetDefaultWalletID(walletID string) error {
	return sqlm.SetSetting(settingDefaultWalletID, walletID)
}

func (sqlm *SQLiteManager) ClearDefaultWalletID() error {
	return sqlm.DeleteSetting(settingDefaultWalletID)
}
