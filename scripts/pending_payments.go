package main

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/Trustflow-Network-Labs/farepay/internal/chain"
	"github.com/Trustflow-Network-Labs/farepay/internal/utils"
	_ "modernc.org/sqlite"
)

func RunPendingPayments(args []string) {
	dbFile := "farepay.db"
	if cm, err := utils.NewConfigManager(""); err == nil {
		dbFile = cm.GetConfigWithDefault("database_file", dbFile)
	}
	dbPath := utils.GetAppPaths("").GetDataPath(dbFile)
	if len(args) > 0 {
		dbPath = args[0]
	}

	if _, err := os.Stat(dbPath); err != nil {
		fmt.Printf("Database not found at %s: %v\n", dbPath, err)
		os.Exit(1)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		fmt.Printf("Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	rows, err := db.Query(`
		SELECT tx_id, amount, currency_symbol, recipient, COALESCE(tx_hash, ''), created_at
		FROM ledger_transactions
		WHERE status = 'pending'
		ORDER BY seq DESC
	`)
	if err != nil {
		fmt.Printf("Failed to query ledger: %v\n", err)
		os.Exit(1)
	}
	defer rows.Close()

	fmt.Println("=== Pending Payments ===")
	count := 0
	for rows.Next() {
		var id, amount, symbol, recipient, txHash string
		var createdAt int64
		if err := rows.Scan(&id, &amount, &symbol, &recipient, &txHash, &createdAt); err != nil {
			fmt.Printf("Failed to read row: %v\n", err)
			os.Exit(1)
		}
		count++

		fmt.Printf("ID: %s\n", id)
		fmt.Printf("Created: %s\n", time.UnixMilli(createdAt).Format(time.RFC3339))
		fmt.Printf("Amount: %s %s\n", amount, symbol)
		fmt.Printf("Recipient: %s\n", recipient)
		if txHash != "" {
			fmt.Printf("Explorer: %s\n", chain.TxURL(txHash))
			fmt.Printf("Check: go run ./scripts decode-tx %s\n", txHash)
		}
		fmt.Println()
	}
	if err := rows.Err(); err != nil {
		fmt.Printf("Failed to read ledger: %v\n", err)
		os.Exit(1)
	}

	if count == 0 {
		fmt.Println("No pending payments")
		return
	}
	fmt.Printf("%d pending payment(s). They stay pending until a send is retried and confirmed.\n", count)
}
