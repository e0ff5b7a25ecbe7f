package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/Trustflow-Network-Labs/farepay/internal/utils"
)

const DefaultPollInterval = 2 * time.Second

var (
	ErrWrongChain         = errors.New("rpc endpoint serves a different chain")
	ErrTransactionFailed  = errors.New("transaction reverted")
	ErrConfirmationClosed = errors.New("gateway closed while waiting for confirmation")
)

// Gateway is the read-only view of the chain the session needs.
type Gateway interface {
	ReadTokenBalance(ctx context.Context, contract, account common.Address) (*big.Int, error)
	WaitForConfirmation(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Backend is the subset of ethclient.Client used by EVMGateway.
type Backend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// EVMGateway reads ERC20 balances and polls for receipts over JSON-RPC.
type EVMGateway struct {
	backend      Backend
	client       *ethclient.Client
	pollInterval time.Duration
	logger       utils.Logger
	done         chan struct{}
}

var _ Gateway = (*EVMGateway)(nil)

// Dial connects to rpcURL and checks that it serves the required chain.
func Dial(ctx context.Context, rpcURL string, pollInterval time.Duration, logger utils.Logger) (*EVMGateway, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC %s: %w", rpcURL, err)
	}

	id, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to query chain id: %w", err)
	}
	if id.Cmp(ChainID) != 0 {
		client.Close()
		return nil, fmt.Errorf("%w: got %s, want %s", ErrWrongChain, id, ChainID)
	}

	gw := NewEVMGateway(client, pollInterval, logger)
	gw.client = client
	return gw, nil
}

// NewEVMGateway wraps an existing backend.
func NewEVMGateway(backend Backend, pollInterval time.Duration, logger utils.Logger) *EVMGateway {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	if logger == nil {
		logger = utils.NopLogger{}
	}
	return &EVMGateway{
		backend:      backend,
		pollInterval: pollInterval,
		logger:       logger,
		done:         make(chan struct{}),
	}
}

// ReadTokenBalance calls balanceOf(account) on contract at the latest block.
func (g *EVMGateway) ReadTokenBalance(ctx context.Context, contract, account common.Address) (*big.Int, error) {
	data, err := encodeBalanceOf(account)
	if err != nil {
		return nil, err
	}

	result, err := g.backend.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("balanceOf call failed: %w", err)
	}

	return decodeBalanceOf(result)
}

// WaitForConfirmation polls until txHash has a receipt. A receipt with a
// failed status is returned together with ErrTransactionFailed.
func (g *EVMGateway) WaitForConfirmation(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(g.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := g.backend.TransactionReceipt(ctx, txHash)
		switch {
		case errors.Is(err, ethereum.NotFound), err == nil && receipt == nil:
			g.logger.Debug(fmt.Sprintf("Transaction %s not mined yet", txHash.Hex()), "chain")
		case err == nil:
			if receipt.Status != types.ReceiptStatusSuccessful {
				return receipt, fmt.Errorf("%w: %s in block %s", ErrTransactionFailed, txHash.Hex(), receipt.BlockNumber)
			}
			g.logger.Debug(fmt.Sprintf("Transaction %s confirmed in block %s", txHash.Hex(), receipt.BlockNumber), "chain")
			return receipt, nil
		default:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("failed to fetch receipt for %s: %w", txHash.Hex(), err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-g.done:
			return nil, ErrConfirmationClosed
		case <-ticker.C:
		}
	}
}

// Close stops pending waits and releases the RPC connection.
func (g *EVMGateway) Close() {
	select {
	case <-g.done:
		return
	default:
		close(g.done)
	}
	if g.client != nil {
		g.client.Close()
	}
}
