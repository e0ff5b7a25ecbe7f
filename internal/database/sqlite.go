package database

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"runtime"

	_ "modernc.org/sqlite"

	"github.com/Trustflow-Network-Labs/farepay/internal/utils"
)

// SQLiteManager owns the local database
type SQLiteManager struct {
	dir    string
	cm     *utils.ConfigManager
	db     *sql.DB
	logger utils.Logger
}

// NewSQLiteManager opens `database_file` under the app data dir and
// initializes all tables.
func NewSQLiteManager(cm *utils.ConfigManager, logger utils.Logger) (*SQLiteManager, error) {
	if logger == nil {
		logger = utils.NopLogger{}
	}

	paths := utils.GetAppPaths("")
	sqlm := &SQLiteManager{
		dir:    paths.DataDir,
		cm:     cm,
		logger: logger,
	}

	db, err := sqlm.CreateConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}
	sqlm.db = db

	if err := sqlm.initTables(); err != nil {
		db.Close()
		return nil, err
	}

	return sqlm, nil
}

// NewSQLiteManagerWithDB wraps an already open connection, e.g. ":memory:".
func NewSQLiteManagerWithDB(db *sql.DB, logger utils.Logger) (*SQLiteManager, error) {
	if logger == nil {
		logger = utils.NopLogger{}
	}

	sqlm := &SQLiteManager{
		db:     db,
		logger: logger,
	}
	if err := sqlm.initTables(); err != nil {
		return nil, err
	}

	return sqlm, nil
}

func (sqlm *SQLiteManager) initTables() error {
	if err := sqlm.InitLedgerTransactionsTable(); err != nil {
		return fmt.Errorf("failed to init ledger_transactions table: %w", err)
	}
	if err := sqlm.InitAppSettingsTable(); err != nil {
		return err
	}

	sqlm.logger.Debug("Database tables initialized", "database")
	return nil
}

// CreateConnection creates and configures the database connection
func (sqlm *SQLiteManager) CreateConnection() (*sql.DB, error) {
	// Make sure we have os specific path separator since we are adding this path to host's path
	dbFileName := sqlm.cm.GetConfigWithDefault("database_file", "farepay.db")
	switch runtime.GOOS {
	case "windows":
		dbFileName = filepath.FromSlash(dbFileName)
	default:
		dbFileName = filepath.ToSlash(dbFileName)
	}

	path := dbFileName
	if !filepath.IsAbs(path) {
		path = filepath.Join(sqlm.dir, dbFileName)
	}

	db, err := sql.Open("sqlite",
		fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", path))
	if err != nil {
		sqlm.logger.Error(fmt.Sprintf("Can not create database connection. (%s)", err.Error()), "database")
		return nil, err
	}

	// A single writer keeps ledger appends ordered.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		sqlm.logger.Warn(fmt.Sprintf("Failed to enable WAL mode: %s", err.Error()), "database")
	}

	sqlm.logger.Debug(fmt.Sprintf("Opened database %s", path), "database")
	return db, nil
}

// GetDB returns the database connection for direct access if needed
func (sqlm *SQLiteManager) GetDB() *sql.DB {
	return sqlm.db
}

func (sqlm *SQLiteManager) Close() error {
	if sqlm.db != nil {
		return sqlm.db.Close()
	}
	return nil
}
