package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Trustflow-Network-Labs/farepay/internal/chain"
	"github.com/Trustflow-Network-Labs/farepay/internal/currency"
)

var currenciesFormat string

var currenciesCmd = &cobra.Command{
	Use:   "currencies",
	Short: "List supported stablecoins",
	RunE: func(cmd *cobra.Command, args []string) error {
		coins := currency.Catalog()

		switch strings.ToLower(currenciesFormat) {
		case "json":
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(coins)
		case "yaml":
			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			if err := enc.Encode(coins); err != nil {
				return err
			}
			return enc.Close()
		case "", "table":
		default:
			return fmt.Errorf("unknown format %q (table, json, yaml)", currenciesFormat)
		}

		fmt.Printf("Stablecoins on %s (%d)\n", chain.Name, chain.ChainIDValue)
		fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		defaultID := config.GetConfigWithDefault("default_currency", currency.Default().ID)

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSYMBOL\tNAME\tCOUNTRIES\tCONTRACT\t")
		for _, c := range coins {
			id := c.ID
			if strings.EqualFold(c.ID, defaultID) {
				id += "*"
			}
			fmt.Fprintf(tw, "%s\t%s %s\t%s\t%s\t%s\t\n", id, c.Icon, c.Symbol, c.Name, strings.Join(c.Countries, ", "), c.Contract.Hex())
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Println()
		fmt.Println("* default currency")
		return nil
	},
}

func init() {
	currenciesCmd.Flags().StringVarP(&currenciesFormat, "format", "f", "table", "output format: table, json, yaml")
	rootCmd.AddCommand(currenciesCmd)
}
