package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Trustflow-Network-Labs/farepay/internal/payment"
)

var (
	requestAmount      string
	requestDescription string
	requestCurrency    string
	requestFormat      string
	requestOutput      string
)

var requestCmd = &cobra.Command{
	Use:   "request",
	Short: "Create a payment request as a driver",
	Long: `Connect the driver's wallet and print a payment request addressed to it.

The passenger pays it with ` + "`farepay pay --request <file>`" + `. Leave --amount empty
to let the passenger enter the fare.

Example:
  farepay request --amount 12.50 --currency cusd -o fare.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		session, err := connectSession(ctx, requestCurrency)
		if err != nil {
			return err
		}
		defer session.Close()
		session.SetRole(payment.RoleDriver)

		req, err := session.PaymentRequest(requestAmount, requestDescription)
		if err != nil {
			return err
		}

		out := os.Stdout
		if requestOutput != "" && requestOutput != "-" {
			f, err := os.Create(requestOutput)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", requestOutput, err)
			}
			defer f.Close()
			out = f
		}

		if err := req.Encode(out, requestFormat); err != nil {
			return err
		}
		if out != os.Stdout {
			fmt.Printf("✓ Payment request for %s written to %s\n", req.Address, requestOutput)
		}
		return nil
	},
}

func init() {
	requestCmd.Flags().StringVar(&requestAmount, "amount", "", "fare amount (empty lets the passenger choose)")
	requestCmd.Flags().StringVar(&requestDescription, "description", payment.DefaultFareDescription, "fare description")
	requestCmd.Flags().StringVar(&requestCurrency, "currency", "", "stablecoin id (default from config)")
	requestCmd.Flags().StringVarP(&requestFormat, "format", "f", "json", "request format: json, yaml")
	requestCmd.Flags().StringVarP(&requestOutput, "output", "o", "", "write the request to a file instead of stdout")
	rootCmd.AddCommand(requestCmd)
}
