package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var ErrLedgerTransactionNotFound = errors.New("ledger transaction not found")

// LedgerTransaction is one row of the payment ledger
type LedgerTransaction struct {
	Seq              int64     `json:"-"`
	TxID             string    `json:"id"`
	Amount           string    `json:"amount"`
	CurrencyID       string    `json:"currency_id"`
	CurrencySymbol   string    `json:"currency_symbol"`
	CurrencyContract string    `json:"currency_contract"`
	Sender           string    `json:"sender"`
	Recipient        string    `json:"recipient"`
	Status           string    `json:"status"`
	Description      string    `json:"description"`
	TxHash           string    `json:"tx_hash,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// InitLedgerTransactionsTable creates the ledger_transactions table
func (sqlm *SQLiteManager) InitLedgerTransactionsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS ledger_transactions (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		tx_id TEXT NOT NULL UNIQUE,
		amount TEXT NOT NULL,
		currency_id TEXT NOT NULL,
		currency_symbol TEXT NOT NULL,
		currency_contract TEXT NOT NULL,
		sender TEXT NOT NULL DEFAULT '',
		recipient TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		tx_hash TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_ledger_status ON ledger_transactions(status);
	CREATE INDEX IF NOT EXISTS idx_ledger_tx_hash ON ledger_transactions(tx_hash);
	`

	_, err := sqlm.db.Exec(query)
	return err
}

// InsertLedgerTransaction appends a row. Seq is set from the insert.
func (sqlm *SQLiteManager) InsertLedgerTransaction(tx *LedgerTransaction) error {
	query := `
	INSERT INTO ledger_transactions (
		tx_id, amount, currency_id, currency_symbol, currency_contract,
		sender, recipient, status, description, tx_hash, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	tx.UpdatedAt = tx.CreatedAt

	result, err := ExecWithLogging(sqlm.db, query, sqlm.logger, "database",
		tx.TxID,
		tx.Amount,
		tx.CurrencyID,
		tx.CurrencySymbol,
		tx.CurrencyContract,
		tx.Sender,
		tx.Recipient,
		tx.Status,
		tx.Description,
		nullString(tx.TxHash),
		tx.CreatedAt.UnixMilli(),
		tx.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert ledger transaction %s: %w", tx.TxID, err)
	}

	tx.Seq, _ = result.LastInsertId()
	return nil
}

// UpdateLedgerTransaction overwrites status, description and tx hash.
// An empty txHash keeps the stored one.
func (sqlm *SQLiteManager) UpdateLedgerTransaction(txID, status, description, txHash string) error {
	query := `
	UPDATE ledger_transactions
	SET status = ?, description = ?, tx_hash = COALESCE(?, tx_hash), updated_at = ?
	WHERE tx_id = ?
	`

	_, err := ExecWithAffectedRowsCheck(sqlm.db, query, sqlm.logger, "database",
		status, description, nullString(txHash), time.Now().UnixMilli(), txID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrLedgerTransactionNotFound, txID)
	}
	if err != nil {
		return fmt.Errorf("failed to update ledger transaction %s: %w", txID, err)
	}

	return nil
}

const ledgerColumns = `seq, tx_id, amount, currency_id, currency_symbol, currency_contract,
		   sender, recipient, status, description, tx_hash, created_at, updated_at`

// GetLedgerTransaction retrieves a row by transaction id
func (sqlm *SQLiteManager) GetLedgerTransaction(txID string) (*LedgerTransaction, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger_transactions WHERE tx_id = ?`

	tx, err := QueryRowSingle(sqlm.db, query, scanLedgerTransaction, sqlm.logger, "database", txID)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, fmt.Errorf("%w: %s", ErrLedgerTransactionNotFound, txID)
	}
	return tx, nil
}

// ListLedgerTransactions returns rows newest first. A limit <= 0 returns all.
func (sqlm *SQLiteManager) ListLedgerTransactions(limit, offset int) ([]*LedgerTransaction, error) {
	query := `SELECT ` + ledgerColumns + `
	FROM ledger_transactions
	ORDER BY seq DESC
	LIMIT ? OFFSET ?
	`

	if limit <= 0 {
		limit = -1
	}
	if offset < 0 {
		offset = 0
	}

	txs, err := QueryRows(sqlm.db, query, scanLedgerTransaction, sqlm.logger, "database", limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger transactions: %w", err)
	}
	return txs, nil
}

// CountLedgerTransactions returns the number of rows, optionally by status.
func (sqlm *SQLiteManager) CountLedgerTransactions(status string) (int, error) {
	query := `SELECT COUNT(*) FROM ledger_transactions WHERE (? = '' OR status = ?)`

	var count int
	if err := sqlm.db.QueryRow(query, status, status).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func scanLedgerTransaction(row rowScanner) (*LedgerTransaction, error) {
	tx := &LedgerTransaction{}
	var txHash sql.NullString
	var createdAt, updatedAt int64

	err := row.Scan(
		&tx.Seq,
		&tx.TxID,
		&tx.Amount,
		&tx.CurrencyID,
		&tx.CurrencySymbol,
		&tx.CurrencyContract,
		&tx.Sender,
		&tx.Recipient,
		&tx.Status,
		&tx.Description,
		&txHash,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	tx.TxHash = ScanNullableString(txHash)
	tx.CreatedAt = time.UnixMilli(createdAt)
	tx.UpdatedAt = time.UnixMilli(updatedAt)

	return tx, nil
}
