package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var balanceCurrency string

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Connect the wallet and show its stablecoin balance",
	Long: `Connect the wallet, make sure it is on Celo Alfajores and read the
balance of the selected stablecoin.

Example:
  farepay balance --currency ceur`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		session, err := connectSession(ctx, balanceCurrency)
		if err != nil {
			return err
		}
		defer session.Close()

		fmt.Println()
		fmt.Println("✓ Wallet connected")
		fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		printState(session.State())
		return nil
	},
}

func init() {
	balanceCmd.Flags().StringVar(&balanceCurrency, "currency", "", "stablecoin id (default from config)")
	rootCmd.AddCommand(balanceCmd)
}
