package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/Trustflow-Network-Labs/farepay/internal/chain"
	"github.com/Trustflow-Network-Labs/farepay/internal/currency"
)

func RunDecodeTx(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: go run ./scripts decode-tx <tx_hash>")
		os.Exit(1)
	}

	txHash := common.HexToHash(args[0])

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := ethclient.DialContext(ctx, chain.RPCURL)
	if err != nil {
		fmt.Printf("Failed to connect to %s: %v\n", chain.RPCURL, err)
		os.Exit(1)
	}
	defer client.Close()

	tx, isPending, err := client.TransactionByHash(ctx, txHash)
	if err != nil {
		fmt.Printf("Failed to fetch transaction: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("=== Transaction ===")
	fmt.Printf("Hash: %s\n", tx.Hash().Hex())
	fmt.Printf("Explorer: %s\n", chain.TxURL(tx.Hash().Hex()))
	if tx.To() != nil {
		fmt.Printf("To: %s\n", tx.To().Hex())
	}
	fmt.Printf("Nonce: %d\n", tx.Nonce())
	fmt.Printf("Gas: %d\n", tx.Gas())
	fmt.Println()

	fmt.Println("=== Transfer ===")
	coin, known := findCoin(tx.To())
	recipient, value, err := chain.DecodeTransfer(tx.Data())
	switch {
	case err != nil:
		fmt.Printf("Not an ERC20 transfer: %v\n", err)
	case !known:
		fmt.Printf("Recipient: %s\n", recipient.Hex())
		fmt.Printf("Value: %s (unknown token)\n", value)
	default:
		fmt.Printf("Recipient: %s\n", recipient.Hex())
		fmt.Printf("Amount: %s %s\n", currency.Format(currency.FromSmallestUnit(value)), coin.Symbol)
	}
	fmt.Println()

	fmt.Println("=== Receipt ===")
	if isPending {
		fmt.Println("Status: pending (not yet mined)")
		return
	}
	receipt, err := client.TransactionReceipt(ctx, txHash)
	if errors.Is(err, ethereum.NotFound) {
		fmt.Println("Status: pending (no receipt)")
		return
	}
	if err != nil {
		fmt.Printf("Failed to fetch receipt: %v\n", err)
		os.Exit(1)
	}
	status := "failed"
	if receipt.Status == 1 {
		status = "success"
	}
	fmt.Printf("Status: %s\n", status)
	fmt.Printf("Block: %s\n", receipt.BlockNumber)
	fmt.Printf("Gas Used: %d\n", receipt.GasUsed)
}

func findCoin(contract *common.Address) (currency.Stablecoin, bool) {
	if contract == nil {
		return currency.Stablecoin{}, false
	}
	for _, c := range currency.Catalog() {
		if c.Contract == *contract {
			return c, true
		}
	}
	return currency.Stablecoin{}, false
}
