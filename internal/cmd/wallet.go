package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Trustflow-Network-Labs/farepay/internal/database"
	"github.com/Trustflow-Network-Labs/farepay/internal/wallet"
)

var (
	walletPrivateKey string
	walletID         string
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage the local wallet keystore",
	Long: `Manage the EVM keys farepay pays and gets paid with.

Keys are encrypted with a passphrase (scrypt + AES-256-GCM) and stored in
the farepay data directory. The passphrase can come from the
FAREPAY_WALLET_PASSPHRASE environment variable, the wallet_passphrase config
key, the OS keyring (wallet_use_keyring = true) or a terminal prompt.`,
}

// newPassphrase prompts twice, unless the environment supplies one.
func newPassphrase() (string, error) {
	if p, err := wallet.EnvPassphrase(""); err == nil {
		return p, nil
	}

	passphrase, err := wallet.PromptPassphrase("Enter passphrase to encrypt wallet: ")
	if err != nil {
		return "", err
	}
	confirmed, err := wallet.PromptPassphrase("Confirm passphrase: ")
	if err != nil {
		return "", err
	}
	if passphrase != confirmed {
		return "", fmt.Errorf("passphrases do not match")
	}
	return passphrase, nil
}

func printWallet(w *wallet.Wallet) {
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("Wallet ID:  %s\n", w.ID)
	fmt.Printf("Address:    %s\n", w.Address.Hex())
	fmt.Println()
	fmt.Println("To make this the default wallet:")
	fmt.Printf("  farepay wallet use --wallet-id %s\n", w.ID)
	fmt.Println()
}

var walletCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new wallet",
	RunE: func(cmd *cobra.Command, args []string) error {
		ks, err := openKeystore()
		if err != nil {
			return err
		}

		passphrase, err := newPassphrase()
		if err != nil {
			return err
		}

		w, err := ks.Create(passphrase)
		if err != nil {
			return fmt.Errorf("failed to create wallet: %w", err)
		}

		fmt.Println()
		fmt.Println("✓ Wallet created successfully")
		printWallet(w)
		return nil
	},
}

var walletImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import an existing private key",
	Long: `Import an existing hex-encoded secp256k1 private key.

Example:
  farepay wallet import --private-key 0x...`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if walletPrivateKey == "" {
			key, err := wallet.PromptPassphrase("Enter private key (hex): ")
			if err != nil {
				return err
			}
			walletPrivateKey = key
		}

		ks, err := openKeystore()
		if err != nil {
			return err
		}

		passphrase, err := newPassphrase()
		if err != nil {
			return err
		}

		w, err := ks.Import(walletPrivateKey, passphrase)
		if err != nil {
			return fmt.Errorf("failed to import wallet: %w", err)
		}

		fmt.Println()
		fmt.Println("✓ Wallet imported successfully")
		printWallet(w)
		return nil
	},
}

var walletListCmd = &cobra.Command{
	Use:   "list",
	Short: "List wallets",
	RunE: func(cmd *cobra.Command, args []string) error {
		ks, err := openKeystore()
		if err != nil {
			return err
		}

		wallets := ks.List()
		if len(wallets) == 0 {
			fmt.Println("No wallets found.")
			fmt.Println()
			fmt.Println("Create a new wallet:")
			fmt.Println("  farepay wallet create")
			return nil
		}

		defaultID := wallets[0].ID
		if w, err := ks.Default(defaultWalletID("")); err == nil {
			defaultID = w.ID
		}

		fmt.Println("Wallets")
		fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		fmt.Println()
		for _, w := range wallets {
			marker := ""
			if w.ID == defaultID {
				marker = " (default)"
			}
			fmt.Printf("Wallet ID:  %s%s\n", w.ID, marker)
			fmt.Printf("Address:    %s\n", w.Address.Hex())
			fmt.Printf("Created:    %s\n", time.Unix(w.CreatedAt, 0).Format(time.RFC3339))
			fmt.Println()
		}
		return nil
	},
}

var walletDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a wallet",
	Long: `Delete a wallet from the keystore.

This is irreversible. Back up the private key first.

Example:
  farepay wallet delete --wallet-id <id>`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ks, id, err := resolveWallet()
		if err != nil {
			return err
		}

		passphrase, err := wallet.PromptPassphrase("Enter wallet passphrase: ")
		if err != nil {
			return err
		}
		if err := ks.Delete(id, passphrase); err != nil {
			return fmt.Errorf("failed to delete wallet: %w", err)
		}
		if err := wallet.ForgetPassphrase(id); err != nil {
			logger.Warn(fmt.Sprintf("Failed to clear keyring entry for %s: %v", id, err), "cli")
		}
		clearDefaultWallet(id)

		fmt.Printf("✓ Wallet %s deleted\n", id)
		return nil
	},
}

var walletUseCmd = &cobra.Command{
	Use:   "use",
	Short: "Set the default wallet",
	Long: `Set the wallet used for payments when wallet_id is not set in the config.

Example:
  farepay wallet use --wallet-id <id>`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if walletID == "" {
			return fmt.Errorf("--wallet-id is required")
		}
		ks, err := openKeystore()
		if err != nil {
			return err
		}
		w, err := ks.Default(walletID)
		if err != nil {
			return err
		}

		db, err := database.NewSQLiteManager(config, logger)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.SetDefaultWalletID(w.ID); err != nil {
			return err
		}

		fmt.Printf("✓ Default wallet set to %s (%s)\n", w.ID, w.Address.Hex())
		if id := config.GetConfigWithDefault("wallet_id", ""); id != "" && id != w.ID {
			fmt.Printf("  Note: wallet_id = %s in your config takes precedence.\n", id)
		}
		return nil
	},
}

var walletRememberCmd = &cobra.Command{
	Use:   "remember",
	Short: "Store a wallet passphrase in the OS keyring",
	Long: `Verify the passphrase and cache it in the OS keyring so payments can
unlock the wallet without a prompt. Requires wallet_use_keyring = true to
take effect.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ks, id, err := resolveWallet()
		if err != nil {
			return err
		}

		passphrase, err := wallet.PromptPassphrase("Enter wallet passphrase: ")
		if err != nil {
			return err
		}
		if _, err := ks.Unlock(id, passphrase); err != nil {
			return err
		}
		if err := wallet.RememberPassphrase(id, passphrase); err != nil {
			return fmt.Errorf("failed to store passphrase in keyring: %w", err)
		}

		fmt.Printf("✓ Passphrase for %s stored in the OS keyring\n", id)
		if !config.GetConfigBool("wallet_use_keyring", false) {
			fmt.Println("  Set wallet_use_keyring = true in your config to use it.")
		}
		return nil
	},
}

var walletForgetCmd = &cobra.Command{
	Use:   "forget",
	Short: "Remove a wallet passphrase from the OS keyring",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, id, err := resolveWallet()
		if err != nil {
			return err
		}
		if err := wallet.ForgetPassphrase(id); err != nil {
			return fmt.Errorf("failed to remove passphrase from keyring: %w", err)
		}
		fmt.Printf("✓ Passphrase for %s removed from the OS keyring\n", id)
		return nil
	},
}

// resolveWallet picks --wallet-id, then the configured default wallet.
func resolveWallet() (*wallet.Keystore, string, error) {
	ks, err := openKeystore()
	if err != nil {
		return nil, "", err
	}

	w, err := ks.Default(defaultWalletID(walletID))
	if err != nil {
		return nil, "", err
	}
	return ks, w.ID, nil
}

func clearDefaultWallet(id string) {
	db, err := database.NewSQLiteManager(config, logger)
	if err != nil {
		return
	}
	defer db.Close()
	if current, _ := db.GetDefaultWalletID(); current == id {
		if err := db.ClearDefaultWalletID(); err != nil {
			logger.Warn(fmt.Sprintf("Failed to clear default wallet: %v", err), "cli")
		}
	}
}

func init() {
	walletImportCmd.Flags().StringVar(&walletPrivateKey, "private-key", "", "hex private key (prompted when omitted)")
	for _, c := range []*cobra.Command{walletDeleteCmd, walletUseCmd, walletRememberCmd, walletForgetCmd} {
		c.Flags().StringVar(&walletID, "wallet-id", "", "wallet id or address (default wallet when omitted)")
	}

	walletCmd.AddCommand(walletCreateCmd)
	walletCmd.AddCommand(walletImportCmd)
	walletCmd.AddCommand(walletListCmd)
	walletCmd.AddCommand(walletDeleteCmd)
	walletCmd.AddCommand(walletUseCmd)
	walletCmd.AddCommand(walletRememberCmd)
	walletCmd.AddCommand(walletForgetCmd)
	rootCmd.AddCommand(walletCmd)
}
