package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/Trustflow-Network-Labs/farepay/internal/chain"
	"github.com/Trustflow-Network-Labs/farepay/internal/currency"
	"github.com/Trustflow-Network-Labs/farepay/internal/utils"
)

const codeInvalidParams = -32602

// TxBackend is the subset of ethclient.Client the provider signs and
// broadcasts through.
type TxBackend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// Dialer opens a TxBackend for an RPC endpoint.
type Dialer func(ctx context.Context, rpcURL string) (TxBackend, error)

// DialRPC is the ethclient Dialer.
func DialRPC(ctx context.Context, rpcURL string) (TxBackend, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	return client, nil
}

type LocalProviderConfig struct {
	Keystore    *Keystore
	WalletID    string // empty picks the oldest wallet
	Passphrase  PassphraseSource
	Approver    Approver
	Dialer      Dialer
	KnownChains []chain.Descriptor
	Logger      utils.Logger
}

// LocalProvider is a Provider backed by the local keystore. Requests are
// served one at a time and each privileged one goes through the Approver.
type LocalProvider struct {
	keystore   *Keystore
	walletID   string
	passphrase PassphraseSource
	approver   Approver
	dial       Dialer
	logger     utils.Logger

	mu      sync.Mutex
	chains  map[string]chain.Descriptor // chain id (decimal) -> descriptor
	active  *big.Int
	backend TxBackend
	account *Wallet
}

var _ Provider = (*LocalProvider)(nil)

func NewLocalProvider(cfg LocalProviderConfig) (*LocalProvider, error) {
	if cfg.Keystore == nil {
		return nil, errors.New("local provider requires a keystore")
	}
	if cfg.Approver == nil {
		return nil, errors.New("local provider requires an approver")
	}
	if cfg.Passphrase == nil {
		cfg.Passphrase = ChainPassphrase(EnvPassphrase, TerminalPassphrase)
	}
	if cfg.Dialer == nil {
		cfg.Dialer = DialRPC
	}
	if cfg.Logger == nil {
		cfg.Logger = utils.NopLogger{}
	}

	lp := &LocalProvider{
		keystore:   cfg.Keystore,
		walletID:   cfg.WalletID,
		passphrase: cfg.Passphrase,
		approver:   cfg.Approver,
		dial:       cfg.Dialer,
		logger:     cfg.Logger,
		chains:     make(map[string]chain.Descriptor),
	}
	for _, d := range cfg.KnownChains {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		lp.chains[d.ChainID.String()] = d
	}

	return lp, nil
}

// KnownChainsFromConfig maps `wallet_known_chains` ids to the descriptors
// this build ships. Unrecognized ids are skipped with a warning.
func KnownChainsFromConfig(cm *utils.ConfigManager, logger utils.Logger) []chain.Descriptor {
	if logger == nil {
		logger = utils.NopLogger{}
	}

	var known []chain.Descriptor
	for _, raw := range cm.GetConfigSlice("wallet_known_chains", nil) {
		id, err := strconv.ParseInt(raw, 0, 64)
		if err != nil || id != chain.ChainIDValue {
			logger.Warn(fmt.Sprintf("Ignoring unknown chain id %q in wallet_known_chains", raw), "wallet")
			continue
		}
		known = append(known, chain.Alfajores())
	}
	return known
}

func (lp *LocalProvider) approve(ctx context.Context, req ApprovalRequest, declined string) error {
	ok, err := lp.approver.Approve(ctx, req)
	if err != nil {
		return other(CodeInternal, "approval interrupted", err)
	}
	if !ok {
		lp.logger.Info(fmt.Sprintf("Request %s declined", req.Action), "wallet")
		return rejected(declined)
	}
	return nil
}

func (lp *LocalProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	if lp.account != nil {
		return []common.Address{lp.account.Address}, nil
	}

	w, err := lp.keystore.Default(lp.walletID)
	if err != nil {
		return nil, other(CodeUnauthorized, "no usable wallet", err)
	}

	req := ApprovalRequest{
		Action:  ActionConnect,
		Summary: fmt.Sprintf("Connect account %s", w.Address.Hex()),
		Details: []string{"Wallet: " + w.ID},
	}
	if err := lp.approve(ctx, req, "user rejected the account access request"); err != nil {
		return nil, err
	}

	passphrase, err := lp.passphrase(w.ID)
	if err != nil {
		return nil, other(CodeUnauthorized, "wallet passphrase unavailable", err)
	}

	unlocked, err := lp.keystore.Unlock(w.ID, passphrase)
	if err != nil {
		return nil, other(CodeUnauthorized, "failed to unlock wallet", err)
	}

	lp.account = unlocked
	lp.logger.Info(fmt.Sprintf("Account %s authorized", unlocked.Address.Hex()), "wallet")

	return []common.Address{unlocked.Address}, nil
}

func (lp *LocalProvider) SwitchChain(ctx context.Context, chainID *big.Int) error {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	if chainID == nil {
		return other(codeInvalidParams, "missing chain id", nil)
	}

	descriptor, ok := lp.chains[chainID.String()]
	if !ok {
		return unknownChain(fmt.Sprintf("unrecognized chain id 0x%x", chainID))
	}

	if lp.active != nil && lp.active.Cmp(chainID) == 0 && lp.backend != nil {
		return nil
	}

	req := ApprovalRequest{
		Action:  ActionSwitchChain,
		Summary: fmt.Sprintf("Switch to %s (%s)", descriptor.ChainName, descriptor.HexChainID()),
		Details: []string{"RPC: " + descriptor.RPCURLs[0]},
	}
	if err := lp.approve(ctx, req, "user rejected the chain switch"); err != nil {
		return err
	}

	return lp.activate(ctx, descriptor)
}

func (lp *LocalProvider) AddChain(ctx context.Context, descriptor chain.Descriptor) error {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	if err := descriptor.Validate(); err != nil {
		return other(codeInvalidParams, "invalid chain descriptor", err)
	}

	details := []string{
		"Chain ID: " + descriptor.HexChainID(),
		"RPC: " + descriptor.RPCURLs[0],
		fmt.Sprintf("Currency: %s (%s)", descriptor.NativeCurrency.Name, descriptor.NativeCurrency.Symbol),
	}
	if len(descriptor.BlockExplorerURLs) > 0 {
		details = append(details, "Explorer: "+descriptor.BlockExplorerURLs[0])
	}

	req := ApprovalRequest{
		Action:  ActionAddChain,
		Summary: fmt.Sprintf("Add network %s and switch to it", descriptor.ChainName),
		Details: details,
	}
	if err := lp.approve(ctx, req, "user rejected adding the network"); err != nil {
		return err
	}

	if err := lp.activate(ctx, descriptor); err != nil {
		return err
	}
	lp.chains[descriptor.ChainID.String()] = descriptor

	return nil
}

// activate dials the descriptor's RPC and makes it the signing chain.
// Caller holds lp.mu.
func (lp *LocalProvider) activate(ctx context.Context, descriptor chain.Descriptor) error {
	backend, err := lp.dial(ctx, descriptor.RPCURLs[0])
	if err != nil {
		return other(CodeInternal, "failed to reach network RPC", err)
	}

	id, err := backend.ChainID(ctx)
	if err != nil {
		closeBackend(backend)
		return other(CodeInternal, "failed to query chain id", err)
	}
	if id.Cmp(descriptor.ChainID) != 0 {
		closeBackend(backend)
		return other(CodeInternal, fmt.Sprintf("RPC serves chain %s, expected %s", id, descriptor.ChainID), chain.ErrWrongChain)
	}

	closeBackend(lp.backend)
	lp.backend = backend
	lp.active = new(big.Int).Set(descriptor.ChainID)
	lp.logger.Info(fmt.Sprintf("Active chain is now %s (%s)", descriptor.ChainName, descriptor.HexChainID()), "wallet")

	return nil
}

func (lp *LocalProvider) SendTransaction(ctx context.Context, req TxRequest) (common.Hash, error) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	if lp.account == nil {
		return common.Hash{}, other(CodeUnauthorized, "account not connected", ErrNotAuthorized)
	}
	if lp.backend == nil || lp.active == nil {
		return common.Hash{}, other(CodeInternal, "no active chain", ErrNoActiveChain)
	}
	if req.From != lp.account.Address {
		return common.Hash{}, other(CodeUnauthorized, fmt.Sprintf("from address %s is not authorized", req.From.Hex()), ErrNotAuthorized)
	}

	tx, err := lp.buildTx(ctx, req)
	if err != nil {
		return common.Hash{}, err
	}

	approval := ApprovalRequest{
		Action:  ActionSign,
		Summary: describeCall(req),
		Details: []string{
			"From: " + req.From.Hex(),
			"Contract: " + req.To.Hex(),
			fmt.Sprintf("Gas limit: %d", tx.Gas()),
			fmt.Sprintf("Max fee per gas: %s wei", tx.GasFeeCap()),
		},
	}
	if err := lp.approve(ctx, approval, "user denied transaction signature"); err != nil {
		return common.Hash{}, err
	}

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(lp.active), lp.account.PrivateKey)
	if err != nil {
		return common.Hash{}, other(CodeInternal, "failed to sign transaction", err)
	}

	if err := lp.backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, other(CodeInternal, "failed to broadcast transaction", err)
	}

	lp.logger.Info(fmt.Sprintf("Broadcast transaction %s (nonce %d)", signed.Hash().Hex(), signed.Nonce()), "wallet")
	return signed.Hash(), nil
}

// buildTx fills nonce, gas and fees. Chains without a base fee get a legacy
// transaction.
func (lp *LocalProvider) buildTx(ctx context.Context, req TxRequest) (*types.Transaction, error) {
	value := req.Value
	if value == nil {
		value = new(big.Int)
	}
	to := req.To

	nonce, err := lp.backend.PendingNonceAt(ctx, req.From)
	if err != nil {
		return nil, other(CodeInternal, "failed to get nonce", err)
	}

	gas, err := lp.backend.EstimateGas(ctx, ethereum.CallMsg{
		From:  req.From,
		To:    &to,
		Value: value,
		Data:  req.Data,
	})
	if err != nil {
		return nil, other(CodeInternal, "gas estimation failed", err)
	}

	header, err := lp.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, other(CodeInternal, "failed to read latest block", err)
	}

	if header.BaseFee == nil {
		gasPrice, err := lp.backend.SuggestGasPrice(ctx)
		if err != nil {
			return nil, other(CodeInternal, "failed to suggest gas price", err)
		}
		return types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			To:       &to,
			Value:    value,
			Gas:      gas,
			GasPrice: gasPrice,
			Data:     req.Data,
		}), nil
	}

	tip, err := lp.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, other(CodeInternal, "failed to suggest gas tip", err)
	}
	feeCap := new(big.Int).Add(tip, new(big.Int).Mul(header.BaseFee, big.NewInt(2)))

	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   new(big.Int).Set(lp.active),
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        &to,
		Value:     value,
		Data:      req.Data,
	}), nil
}

// describeCall renders ERC20 transfers in display units.
func describeCall(req TxRequest) string {
	recipient, amount, err := chain.DecodeTransfer(req.Data)
	if err != nil {
		return fmt.Sprintf("Call contract %s", req.To.Hex())
	}

	symbol := req.To.Hex()
	for _, c := range currency.Catalog() {
		if c.Contract == req.To {
			symbol = c.Symbol
			break
		}
	}

	return fmt.Sprintf("Send %s %s to %s", currency.Format(currency.FromSmallestUnit(amount)), symbol, recipient.Hex())
}

// Close locks the account and drops the RPC connection.
func (lp *LocalProvider) Close() {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	closeBackend(lp.backend)
	lp.backend = nil
	lp.active = nil
	lp.account = nil
}

func closeBackend(backend TxBackend) {
	if c, ok := backend.(interface{ Close() }); ok {
		c.Close()
	}
}
