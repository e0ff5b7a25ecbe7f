package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Trustflow-Network-Labs/farepay/internal/chain"
	"github.com/Trustflow-Network-Labs/farepay/internal/currency"
	"github.com/Trustflow-Network-Labs/farepay/internal/database"
	"github.com/Trustflow-Network-Labs/farepay/internal/ledger"
	"github.com/Trustflow-Network-Labs/farepay/internal/payment"
	"github.com/Trustflow-Network-Labs/farepay/internal/wallet"
)

// signalContext is cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func openKeystore() (*wallet.Keystore, error) {
	ks, err := wallet.OpenKeystore(wallet.DefaultKeystoreDir(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open keystore: %w", err)
	}
	return ks, nil
}

// openLedger returns the sqlite-backed ledger, or an in-memory one when
// `ledger_persist` is off.
func openLedger() (*ledger.Ledger, error) {
	if !config.GetConfigBool("ledger_persist", true) {
		return ledger.New(nil, logger)
	}

	db, err := database.NewSQLiteManager(config, logger)
	if err != nil {
		return nil, err
	}
	l, err := ledger.New(ledger.NewSQLiteStore(db), logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

// defaultWalletID resolves the wallet to use: explicit id, then the
// `wallet_id` config key, then the one chosen with `wallet use`. An empty
// result means the oldest wallet.
func defaultWalletID(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if id := config.GetConfigWithDefault("wallet_id", ""); id != "" {
		return id
	}

	db, err := database.NewSQLiteManager(config, logger)
	if err != nil {
		logger.Warn(fmt.Sprintf("Failed to open settings: %v", err), "cli")
		return ""
	}
	defer db.Close()

	id, err := db.GetDefaultWalletID()
	if err != nil {
		logger.Warn(fmt.Sprintf("Failed to read default wallet: %v", err), "cli")
	}
	return id
}

// openProvider returns nil when the keystore holds no wallets.
func openProvider() (wallet.Provider, error) {
	ks, err := openKeystore()
	if err != nil {
		return nil, err
	}
	if len(ks.List()) == 0 {
		logger.Warn("Keystore is empty, no wallet provider available", "cli")
		return nil, nil
	}

	var approver wallet.Approver = wallet.NewTerminalApprover(os.Stdin, os.Stderr)
	if autoApprove {
		approver = wallet.AutoApprove
	}

	return wallet.NewLocalProvider(wallet.LocalProviderConfig{
		Keystore:    ks,
		WalletID:    defaultWalletID(""),
		Passphrase:  wallet.DefaultPassphraseSource(config),
		Approver:    approver,
		KnownChains: wallet.KnownChainsFromConfig(config, logger),
		Logger:      logger,
	})
}

// openSession wires keystore, gateway and ledger into a session.
func openSession(ctx context.Context) (*payment.Session, error) {
	provider, err := openProvider()
	if err != nil {
		return nil, err
	}

	pollInterval := config.GetConfigDuration("confirmation_poll_interval", chain.DefaultPollInterval)
	gateway, err := chain.Dial(ctx, chain.RPCURL, pollInterval, logger)
	if err != nil {
		return nil, err
	}

	l, err := openLedger()
	if err != nil {
		gateway.Close()
		return nil, err
	}

	session, err := payment.NewSession(provider, gateway, l, logger, payment.OptionsFromConfig(config))
	if err != nil {
		gateway.Close()
		l.Close()
		return nil, err
	}
	return session, nil
}

// connectSession opens a session, optionally selects a currency, and
// connects the wallet.
func connectSession(ctx context.Context, currencyID string) (*payment.Session, error) {
	session, err := openSession(ctx)
	if err != nil {
		return nil, err
	}

	if currencyID != "" {
		coin, ok := currency.ByID(currencyID)
		if !ok {
			session.Close()
			return nil, fmt.Errorf("unknown currency %q, see `farepay currencies`", currencyID)
		}
		session.SetSelectedCurrency(ctx, coin)
	}

	if err := session.Connect(ctx); err != nil {
		session.Close()
		return nil, err
	}
	return session, nil
}

func printState(state payment.State) {
	fmt.Printf("Account:   %s\n", state.Address.Hex())
	fmt.Printf("Network:   %s (%d)\n", chain.Name, chain.ChainIDValue)
	fmt.Printf("Role:      %s\n", state.Role)
	fmt.Printf("Balance:   %s %s\n", state.Balance, state.Currency.Symbol)
}
