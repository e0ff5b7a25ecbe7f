package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "pending-payments":
		RunPendingPayments(args)
	case "decode-tx":
		RunDecodeTx(args)
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: go run ./scripts <command> [args...]")
	fmt.Println("")
	fmt.Println("Available commands:")
	fmt.Println("  pending-payments [db_path]")
	fmt.Println("    List ledger entries still awaiting confirmation")
	fmt.Println("    Example: go run ./scripts pending-payments")
	fmt.Println("")
	fmt.Println("  decode-tx <tx_hash>")
	fmt.Println("    Fetch a transaction from Celo Alfajores and decode its ERC20 transfer")
	fmt.Println("    Example: go run ./scripts decode-tx 0xabc...")
}
