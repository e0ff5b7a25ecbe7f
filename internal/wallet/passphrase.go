package wallet

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/zalando/go-keyring"
	"golang.org/x/term"

	"github.com/Trustflow-Network-Labs/farepay/internal/utils"
)

const (
	PassphraseEnv  = "FAREPAY_WALLET_PASSPHRASE"
	keyringService = "farepay"
)

var ErrNoPassphrase = errors.New("no wallet passphrase available")

// PassphraseSource returns the passphrase for walletID, or ErrNoPassphrase
// when it has none to offer.
type PassphraseSource func(walletID string) (string, error)

// EnvPassphrase reads FAREPAY_WALLET_PASSPHRASE.
func EnvPassphrase(walletID string) (string, error) {
	if p := os.Getenv(PassphraseEnv); p != "" {
		return p, nil
	}
	return "", ErrNoPassphrase
}

// ConfigPassphrase reads `wallet_passphrase`.
func ConfigPassphrase(cm *utils.ConfigManager) PassphraseSource {
	return func(string) (string, error) {
		if cm == nil {
			return "", ErrNoPassphrase
		}
		if p, ok := cm.GetConfig("wallet_passphrase"); ok && p != "" {
			return p, nil
		}
		return "", ErrNoPassphrase
	}
}

// KeyringPassphrase reads a passphrase cached in the OS keyring.
func KeyringPassphrase(walletID string) (string, error) {
	p, err := keyring.Get(keyringService, walletID)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNoPassphrase
		}
		return "", fmt.Errorf("keyring lookup failed: %w", err)
	}
	return p, nil
}

// RememberPassphrase caches the passphrase in the OS keyring.
func RememberPassphrase(walletID, passphrase string) error {
	return keyring.Set(keyringService, walletID, passphrase)
}

// ForgetPassphrase removes a cached passphrase. Missing entries are ignored.
func ForgetPassphrase(walletID string) error {
	if err := keyring.Delete(keyringService, walletID); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	return nil
}

// PromptPassphrase reads a passphrase from the terminal without echo.
func PromptPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	passphrase, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read passphrase: %w", err)
	}

	if len(passphrase) == 0 {
		return "", fmt.Errorf("passphrase cannot be empty")
	}

	return string(passphrase), nil
}

// TerminalPassphrase prompts only when stdin is a terminal.
func TerminalPassphrase(walletID string) (string, error) {
	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", ErrNoPassphrase
	}
	return PromptPassphrase(fmt.Sprintf("Enter passphrase for wallet %s: ", walletID))
}

// ChainPassphrase tries each source in order and returns the first hit.
func ChainPassphrase(sources ...PassphraseSource) PassphraseSource {
	return func(walletID string) (string, error) {
		for _, source := range sources {
			p, err := source(walletID)
			if err == nil {
				return p, nil
			}
			if !errors.Is(err, ErrNoPassphrase) {
				return "", err
			}
		}
		return "", ErrNoPassphrase
	}
}

// DefaultPassphraseSource is env, then config, then keyring (if
// `wallet_use_keyring`), then the terminal.
func DefaultPassphraseSource(cm *utils.ConfigManager) PassphraseSource {
	sources := []PassphraseSource{EnvPassphrase, ConfigPassphrase(cm)}
	if cm != nil && cm.GetConfigBool("wallet_use_keyring", false) {
		sources = append(sources, KeyringPassphrase)
	}
	sources = append(sources, TerminalPassphrase)
	return ChainPassphrase(sources...)
}
