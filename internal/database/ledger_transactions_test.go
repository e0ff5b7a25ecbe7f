package database

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func setupTestLedgerDB(t *testing.T) *SQLiteManager {
	t.Helper()

	// Create in-memory database
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	sqlm, err := NewSQLiteManagerWithDB(db, nil)
	if err != nil {
		t.Fatalf("Failed to create SQLiteManager: %v", err)
	}
	return sqlm
}

func testLedgerTransaction(id string) *LedgerTransaction {
	return &LedgerTransaction{
		TxID:             id,
		Amount:           "40",
		CurrencyID:       "cusd",
		CurrencySymbol:   "cUSD",
		CurrencyContract: "0x765DE816845861e75A25fCA122bb6898B8B1282a",
		Sender:           "0x1111111111111111111111111111111111111111",
		Recipient:        "0x2222222222222222222222222222222222222222",
		Status:           "pending",
		CreatedAt:        time.UnixMilli(1700000000123),
	}
}

func TestInsertAndGetLedgerTransaction(t *testing.T) {
	sqlm := setupTestLedgerDB(t)

	tx := testLedgerTransaction("tx-1")
	if err := sqlm.InsertLedgerTransaction(tx); err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}
	if tx.Seq == 0 {
		t.Error("Expected seq to be set")
	}

	got, err := sqlm.GetLedgerTransaction("tx-1")
	if err != nil {
		t.Fatalf("Failed to get: %v", err)
	}
	if got.Amount != "40" || got.CurrencySymbol != "cUSD" || got.Status != "pending" {
		t.Errorf("Unexpected row: %+v", got)
	}
	if got.TxHash != "" {
		t.Errorf("Expected empty tx hash, got %q", got.TxHash)
	}
	if !got.CreatedAt.Equal(tx.CreatedAt) {
		t.Errorf("Expected created_at %v, got %v", tx.CreatedAt, got.CreatedAt)
	}

	if err := sqlm.InsertLedgerTransaction(testLedgerTransaction("tx-1")); err == nil {
		t.Error("Expected duplicate tx id to fail")
	}
	if _, err := sqlm.GetLedgerTransaction("missing"); !errors.Is(err, ErrLedgerTransactionNotFound) {
		t.Errorf("Expected ErrLedgerTransactionNotFound, got %v", err)
	}
}

func TestUpdateLedgerTransaction(t *testing.T) {
	sqlm := setupTestLedgerDB(t)

	tx := testLedgerTransaction("tx-1")
	tx.TxHash = "0xabc"
	if err := sqlm.InsertLedgerTransaction(tx); err != nil {
		t.Fatal(err)
	}

	if err := sqlm.UpdateLedgerTransaction("tx-1", "completed", "Payment sent", ""); err != nil {
		t.Fatalf("Failed to update: %v", err)
	}

	got, err := sqlm.GetLedgerTransaction("tx-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != "completed" || got.Description != "Payment sent" {
		t.Errorf("Unexpected row after update: %+v", got)
	}
	if got.TxHash != "0xabc" {
		t.Errorf("Empty hash should keep the stored one, got %q", got.TxHash)
	}

	if err := sqlm.UpdateLedgerTransaction("missing", "failed", "x", ""); !errors.Is(err, ErrLedgerTransactionNotFound) {
		t.Errorf("Expected ErrLedgerTransactionNotFound, got %v", err)
	}
}

func TestListLedgerTransactionsNewestFirst(t *testing.T) {
	sqlm := setupTestLedgerDB(t)

	for i := 1; i <= 5; i++ {
		tx := testLedgerTransaction(fmt.Sprintf("tx-%d", i))
		if i%2 == 0 {
			tx.Status = "failed"
		}
		if err := sqlm.InsertLedgerTransaction(tx); err != nil {
			t.Fatal(err)
		}
	}

	all, err := sqlm.ListLedgerTransactions(0, 0)
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("Expected 5 rows, got %d", len(all))
	}
	for i, tx := range all {
		if want := fmt.Sprintf("tx-%d", 5-i); tx.TxID != want {
			t.Errorf("Row %d: expected %s, got %s", i, want, tx.TxID)
		}
	}

	page, err := sqlm.ListLedgerTransactions(2, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 2 || page[0].TxID != "tx-4" || page[1].TxID != "tx-3" {
		t.Errorf("Unexpected page: %v", page)
	}

	total, err := sqlm.CountLedgerTransactions("")
	if err != nil || total != 5 {
		t.Errorf("Expected 5 rows, got %d (%v)", total, err)
	}
	failed, err := sqlm.CountLedgerTransactions("failed")
	if err != nil || failed != 2 {
		t.Errorf("Expected 2 failed rows, got %d (%v)", failed, err)
	}
}
