package wallet

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Trustflow-Network-Labs/farepay/internal/chain"
)

// TxRequest is an unsigned call the provider fills in (nonce, gas, fees),
// signs and broadcasts.
type TxRequest struct {
	From  common.Address
	To    common.Address
	Data  []byte
	Value *big.Int
}

// Provider is the human-gated wallet capability. Every method may fail with
// a *ProviderError, including when the human declines.
type Provider interface {
	RequestAccounts(ctx context.Context) ([]common.Address, error)
	SwitchChain(ctx context.Context, chainID *big.Int) error
	AddChain(ctx context.Context, descriptor chain.Descriptor) error
	SendTransaction(ctx context.Context, tx TxRequest) (common.Hash, error)
}
