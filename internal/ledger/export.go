package ledger

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q (table, json, yaml)", s)
}

// Export writes txs to w in the given format.
func Export(w io.Writer, txs []Transaction, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(txs)

	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(txs); err != nil {
			return err
		}
		return enc.Close()

	case FormatTable, "":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "TIME\tSTATUS\tAMOUNT\tTO\tDESCRIPTION\tID")
		for _, tx := range txs {
			fmt.Fprintf(tw, "%s\t%s\t%s %s\t%s\t%s\t%s\n",
				tx.Timestamp.Format("2006-01-02 15:04:05"),
				tx.Status,
				tx.Amount,
				tx.Currency.Symbol,
				shortAddress(tx.Recipient),
				tx.Description,
				tx.ID,
			)
		}
		return tw.Flush()
	}

	return fmt.Errorf("unknown format %q", format)
}

func shortAddress(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}
