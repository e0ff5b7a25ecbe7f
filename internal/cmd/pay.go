package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Trustflow-Network-Labs/farepay/internal/chain"
	"github.com/Trustflow-Network-Labs/farepay/internal/payment"
	"github.com/Trustflow-Network-Labs/farepay/internal/utils"
)

var (
	payTo          string
	payAmount      string
	payDescription string
	payCurrency    string
	payRequest     string
)

func readRequest(path string) (payment.Request, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		if err := utils.ValidateRegularFile(path); err != nil {
			return payment.Request{}, err
		}
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return payment.Request{}, fmt.Errorf("failed to read payment request: %w", err)
	}
	return payment.ParseRequest(data)
}

var payCmd = &cobra.Command{
	Use:   "pay",
	Short: "Pay a fare as a passenger",
	Long: `Send a stablecoin payment on Celo Alfajores and wait for confirmation.

Pay a driver's request (file or - for stdin):
  farepay pay --request fare.json

Or pay an address directly:
  farepay pay --to 0x... --amount 12.50 --currency cusd`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			req    payment.Request
			hasReq bool
		)
		if payRequest != "" {
			r, err := readRequest(payRequest)
			if err != nil {
				return err
			}
			if r.Amount == "" && payAmount == "" {
				return errors.New("the request has no amount, pass --amount")
			}
			req, hasReq = r, true
		} else if payTo == "" || payAmount == "" {
			return errors.New("either --request or both --to and --amount are required")
		}

		ctx, stop := signalContext()
		defer stop()

		session, err := connectSession(ctx, payCurrency)
		if err != nil {
			return err
		}
		defer session.Close()
		session.SetRole(payment.RolePassenger)

		before := len(session.Transactions())
		if hasReq {
			_, err = session.PayRequest(ctx, req, payAmount)
		} else {
			_, err = session.SendPayment(ctx, payTo, payAmount, payDescription)
		}

		latest := session.TransactionsPage(0, 1)
		if err != nil {
			if len(session.Transactions()) > before && latest[0].TxHash != "" {
				fmt.Printf("Transaction: %s\n", chain.TxURL(latest[0].TxHash))
			}
			return err
		}

		tx := latest[0]
		fmt.Println()
		fmt.Println("✓ Payment confirmed")
		fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		fmt.Printf("Amount:      %s %s\n", tx.Amount, tx.Currency.Symbol)
		fmt.Printf("Recipient:   %s\n", tx.Recipient)
		fmt.Printf("Description: %s\n", tx.Description)
		fmt.Printf("Transaction: %s\n", chain.TxURL(tx.TxHash))
		fmt.Printf("Balance:     %s %s\n", session.State().Balance, session.State().Currency.Symbol)
		return nil
	},
}

func init() {
	payCmd.Flags().StringVar(&payTo, "to", "", "recipient address")
	payCmd.Flags().StringVar(&payAmount, "amount", "", "amount to pay (overrides the request amount)")
	payCmd.Flags().StringVar(&payDescription, "description", "", "payment description")
	payCmd.Flags().StringVar(&payCurrency, "currency", "", "stablecoin id (default from config)")
	payCmd.Flags().StringVar(&payRequest, "request", "", "payment request file, - for stdin")
	payCmd.MarkFlagsMutuallyExclusive("request", "to")
	rootCmd.AddCommand(payCmd)
}
