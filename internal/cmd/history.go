package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Trustflow-Network-Labs/farepay/internal/ledger"
)

var (
	historyFormat string
	historyLimit  int
	historyOffset int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the payment ledger, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := ledger.ParseFormat(historyFormat)
		if err != nil {
			return err
		}
		if !config.GetConfigBool("ledger_persist", true) {
			fmt.Println("Ledger persistence is disabled (ledger_persist = false).")
			return nil
		}

		l, err := openLedger()
		if err != nil {
			return err
		}
		defer l.Close()

		txs := l.Page(historyOffset, historyLimit)
		if format == ledger.FormatTable && len(txs) == 0 {
			fmt.Println("No transactions yet.")
			return nil
		}
		if err := ledger.Export(os.Stdout, txs, format); err != nil {
			return err
		}
		if format == ledger.FormatTable {
			fmt.Printf("\nShowing %d of %d transactions\n", len(txs), l.Len())
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().StringVarP(&historyFormat, "format", "f", "table", "output format: table, json, yaml")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum entries to show (0 for all)")
	historyCmd.Flags().IntVar(&historyOffset, "offset", 0, "entries to skip")
	rootCmd.AddCommand(historyCmd)
}
