// Package payment is the payment orchestration session: wallet connection,
// chain enforcement, balance sync, ERC20 sends and the ledger.
package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/Trustflow-Network-Labs/farepay/internal/chain"
	"github.com/Trustflow-Network-Labs/farepay/internal/currency"
	"github.com/Trustflow-Network-Labs/farepay/internal/ledger"
	"github.com/Trustflow-Network-Labs/farepay/internal/utils"
	"github.com/Trustflow-Network-Labs/farepay/internal/wallet"
)

const (
	DefaultDescription = "Payment sent"
	pendingDescription = "Awaiting confirmation"
)

type Role string

const (
	RolePassenger Role = "passenger"
	RoleDriver    Role = "driver"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RolePassenger, RoleDriver:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q (passenger, driver)", s)
}

// Options tune a Session. Zero timeouts mean unbounded.
type Options struct {
	RequestTimeout      time.Duration
	ConfirmationTimeout time.Duration
	DefaultCurrency     currency.Stablecoin
}

// OptionsFromConfig reads the session keys from cm.
func OptionsFromConfig(cm *utils.ConfigManager) Options {
	opts := Options{
		RequestTimeout:      cm.GetConfigDuration("wallet_request_timeout", 0),
		ConfirmationTimeout: cm.GetConfigDuration("confirmation_timeout", 0),
		DefaultCurrency:     currency.Default(),
	}
	if c, ok := currency.ByID(cm.GetConfigWithDefault("default_currency", currency.Default().ID)); ok {
		opts.DefaultCurrency = c
	}
	return opts
}

// State is a snapshot for presentation.
type State struct {
	Connected bool                `json:"connected" yaml:"connected"`
	Address   common.Address      `json:"address" yaml:"address"`
	Balance   string              `json:"balance" yaml:"balance"`
	Currency  currency.Stablecoin `json:"currency" yaml:"currency"`
	Role      Role                `json:"role" yaml:"role"`
}

// Session owns one wallet connection. High-level operations are not guarded
// against re-entrancy; callers run one at a time. State reads are safe from
// any goroutine.
type Session struct {
	provider wallet.Provider
	gateway  chain.Gateway
	ledger   *ledger.Ledger
	logger   utils.Logger
	opts     Options

	mu        sync.RWMutex
	connected bool
	address   common.Address
	balance   decimal.Decimal
	selected  currency.Stablecoin
	role      Role
}

// NewSession wires a session. A nil provider means no wallet is available;
// pass an untyped nil, not a nil pointer. A nil ledger is in-memory only.
func NewSession(provider wallet.Provider, gateway chain.Gateway, l *ledger.Ledger, logger utils.Logger, opts Options) (*Session, error) {
	if gateway == nil {
		return nil, errors.New("payment session requires a chain gateway")
	}
	if logger == nil {
		logger = utils.NopLogger{}
	}
	if l == nil {
		var err error
		if l, err = ledger.New(nil, logger); err != nil {
			return nil, err
		}
	}
	if opts.DefaultCurrency.ID == "" {
		opts.DefaultCurrency = currency.Default()
	}

	return &Session{
		provider: provider,
		gateway:  gateway,
		ledger:   l,
		logger:   logger,
		opts:     opts,
		balance:  decimal.Zero,
		selected: opts.DefaultCurrency,
		role:     RolePassenger,
	}, nil
}

func (s *Session) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.RequestTimeout > 0 {
		return context.WithTimeout(ctx, s.opts.RequestTimeout)
	}
	return context.WithCancel(ctx)
}

func (s *Session) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	s.address = common.Address{}
	s.balance = decimal.Zero
}

// Connect requests account access, pins the wallet to the required chain
// and syncs the balance. Any failure leaves the session disconnected.
func (s *Session) Connect(ctx context.Context) error {
	address, err := s.connect(ctx)
	if err != nil {
		s.reset()
		s.logger.Warn(fmt.Sprintf("Connect failed: %v", err), "session")
		return err
	}

	s.mu.Lock()
	s.connected = true
	s.address = address
	s.mu.Unlock()

	s.logger.Info(fmt.Sprintf("Connected %s on %s", address.Hex(), chain.Name), "session")
	s.UpdateBalance(ctx)

	return nil
}

func (s *Session) connect(ctx context.Context) (common.Address, error) {
	if s.provider == nil {
		return common.Address{}, newError(ErrProviderUnavailable, ReasonNoProvider, nil)
	}

	rctx, cancel := s.requestContext(ctx)
	accounts, err := s.provider.RequestAccounts(rctx)
	cancel()
	if err != nil {
		if wallet.IsRejected(err) {
			return common.Address{}, newError(ErrUserRejected, ReasonConnectRejected, nil)
		}
		return common.Address{}, newError(ErrProviderError, "account request failed", err)
	}
	if len(accounts) == 0 {
		return common.Address{}, newError(ErrProviderError, "wallet returned no accounts", nil)
	}

	if err := s.ensureChain(ctx); err != nil {
		return common.Address{}, err
	}

	return accounts[0], nil
}

// ensureChain switches the wallet to the required chain, adding it when the
// wallet does not know it.
func (s *Session) ensureChain(ctx context.Context) error {
	rctx, cancel := s.requestContext(ctx)
	err := s.provider.SwitchChain(rctx, chain.ChainID)
	cancel()
	if err == nil {
		return nil
	}

	switch wallet.KindOf(err) {
	case wallet.KindRejected:
		return newError(ErrUserRejected, ReasonSwitchRejected, nil)

	case wallet.KindUnknownChain:
		s.logger.Info("Wallet does not know the network, requesting to add it", "session")

		rctx, cancel := s.requestContext(ctx)
		addErr := s.provider.AddChain(rctx, chain.Alfajores())
		cancel()
		switch {
		case addErr == nil:
			return nil
		case wallet.IsRejected(addErr):
			return newError(ErrUserRejected, ReasonAddChainRejected, nil)
		default:
			return newError(ErrProviderError, "failed to add network", addErr)
		}

	default:
		return newError(ErrProviderError, "failed to switch network", err)
	}
}

// Disconnect forgets the account and zeroes the balance. It never fails.
func (s *Session) Disconnect() {
	s.reset()
	s.logger.Info("Disconnected", "session")
}

// UpdateBalance re-reads the selected currency's balance. Failures are
// logged and leave a zero balance. No-op when disconnected.
func (s *Session) UpdateBalance(ctx context.Context) {
	s.mu.RLock()
	connected, address, coin := s.connected, s.address, s.selected
	s.mu.RUnlock()

	if !connected {
		return
	}

	balance := decimal.Zero
	raw, err := s.gateway.ReadTokenBalance(ctx, coin.Contract, address)
	if err != nil {
		s.logger.Warn(fmt.Sprintf("Failed to read %s balance of %s: %v", coin.Symbol, address.Hex(), err), "session")
	} else {
		balance = currency.FromSmallestUnit(raw)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Drop the result if the account or currency changed while reading.
	if s.connected && s.address == address && s.selected.ID == coin.ID {
		s.balance = balance
	}
}

// SetSelectedCurrency switches the currency and resyncs the balance once.
func (s *Session) SetSelectedCurrency(ctx context.Context, c currency.Stablecoin) {
	s.mu.Lock()
	s.selected = c
	s.balance = decimal.Zero
	s.mu.Unlock()

	s.logger.Debug(fmt.Sprintf("Selected currency %s", c.Symbol), "session")
	s.UpdateBalance(ctx)
}

func (s *Session) SetRole(role Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.role = role
}

// SendPayment transfers amount (display units) of the selected currency to
// recipient and waits for confirmation. Every attempt that gets past the
// participant check leaves exactly one terminal ledger entry.
func (s *Session) SendPayment(ctx context.Context, recipient, amount, description string) (bool, error) {
	s.mu.RLock()
	connected, sender, coin := s.connected, s.address, s.selected
	s.mu.RUnlock()

	recipient = strings.TrimSpace(recipient)
	if !connected || recipient == "" {
		return false, newError(ErrInvalidParticipants, ReasonInvalidParticipants, nil)
	}

	attempt := ledger.Transaction{
		Amount:    strings.TrimSpace(amount),
		Currency:  coin,
		Sender:    sender.Hex(),
		Recipient: recipient,
	}

	pendingID, err := s.submit(ctx, &attempt)
	return s.finish(ctx, attempt, pendingID, description, err)
}

// submit sends the transfer and waits for it. Once the wallet returns a hash
// a pending entry exists and its id is returned, even on error.
func (s *Session) submit(ctx context.Context, attempt *ledger.Transaction) (string, error) {
	value, err := currency.ToSmallestUnit(attempt.Amount)
	if err != nil {
		return "", newError(ErrTransactionError, "invalid amount", err)
	}
	if !common.IsHexAddress(attempt.Recipient) {
		return "", newError(ErrTransactionError, fmt.Sprintf("invalid recipient address %q", attempt.Recipient), nil)
	}

	data, err := chain.EncodeTransfer(common.HexToAddress(attempt.Recipient), value)
	if err != nil {
		return "", newError(ErrTransactionError, "failed to encode transfer", err)
	}

	if s.provider == nil {
		return "", newError(ErrProviderUnavailable, ReasonNoProvider, nil)
	}

	rctx, cancel := s.requestContext(ctx)
	hash, err := s.provider.SendTransaction(rctx, wallet.TxRequest{
		From: common.HexToAddress(attempt.Sender),
		To:   attempt.Currency.Contract,
		Data: data,
	})
	cancel()
	if err != nil {
		if wallet.IsRejected(err) {
			return "", newError(ErrUserRejected, ReasonTransactionCanceled, nil)
		}
		return "", newError(ErrTransactionError, "failed to submit transaction", err)
	}

	attempt.TxHash = hash.Hex()
	pending := *attempt
	pending.Status = ledger.StatusPending
	pending.Description = pendingDescription
	pendingID := s.ledger.Add(pending).ID

	s.logger.Info(fmt.Sprintf("Submitted %s %s to %s as %s", attempt.Amount, attempt.Currency.Symbol, attempt.Recipient, attempt.TxHash), "session")

	cctx, cancel := ctx, context.CancelFunc(func() {})
	if s.opts.ConfirmationTimeout > 0 {
		cctx, cancel = context.WithTimeout(ctx, s.opts.ConfirmationTimeout)
	}
	defer cancel()

	if _, err := s.gateway.WaitForConfirmation(cctx, hash); err != nil {
		return pendingID, newError(ErrTransactionError, fmt.Sprintf("transaction %s was not confirmed", attempt.TxHash), err)
	}

	return pendingID, nil
}

// finish is the single place that decides the terminal ledger entry.
func (s *Session) finish(ctx context.Context, attempt ledger.Transaction, pendingID, description string, err error) (bool, error) {
	if err == nil {
		if description == "" {
			description = DefaultDescription
		}
		s.settle(attempt, pendingID, ledger.StatusCompleted, description)
		s.logger.Info(fmt.Sprintf("Payment %s confirmed", attempt.TxHash), "session")
		s.UpdateBalance(ctx)
		return true, nil
	}

	s.settle(attempt, pendingID, ledger.StatusFailed, err.Error())
	s.logger.Error(fmt.Sprintf("Payment failed: %v", err), "session")
	return false, err
}

func (s *Session) settle(attempt ledger.Transaction, pendingID string, status ledger.Status, description string) {
	if pendingID == "" {
		attempt.Status = status
		attempt.Description = description
		s.ledger.Add(attempt)
		return
	}

	if _, err := s.ledger.Promote(pendingID, status, description); err != nil {
		s.logger.Error(fmt.Sprintf("Failed to settle ledger entry %s: %v", pendingID, err), "session")
	}
}

// AddTransaction appends partial to the ledger with a fresh id and timestamp.
func (s *Session) AddTransaction(partial ledger.Transaction) ledger.Transaction {
	return s.ledger.Add(partial)
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return State{
		Connected: s.connected,
		Address:   s.address,
		Balance:   currency.Format(s.balance),
		Currency:  s.selected,
		Role:      s.role,
	}
}

// Transactions returns the ledger newest first.
func (s *Session) Transactions() []ledger.Transaction {
	return s.ledger.List()
}

func (s *Session) TransactionsPage(offset, limit int) []ledger.Transaction {
	return s.ledger.Page(offset, limit)
}

// Close disconnects and releases the ledger store, the gateway and the
// provider.
func (s *Session) Close() error {
	s.Disconnect()

	var errs []error
	if err := s.ledger.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close ledger: %w", err))
	}
	if c, ok := s.gateway.(interface{ Close() }); ok {
		c.Close()
	}
	if c, ok := s.provider.(interface{ Close() }); ok {
		c.Close()
	}

	return errors.Join(errs...)
}
