// Package chain is the read-only gateway to the single network the client is
// pinned to.
package chain

import (
	"fmt"
	"math/big"
)

const (
	ChainIDValue = 44787
	Name         = "Celo Alfajores Testnet"
	RPCURL       = "https://alfajores-forno.celo-testnet.org"
	ExplorerURL  = "https://alfajores.celoscan.io"
)

// ChainID is the required network id.
var ChainID = big.NewInt(ChainIDValue)

// NativeCurrency describes a network's gas token.
type NativeCurrency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// Descriptor is what a wallet needs to add a network it does not know.
type Descriptor struct {
	ChainID           *big.Int       `json:"chainId"`
	ChainName         string         `json:"chainName"`
	NativeCurrency    NativeCurrency `json:"nativeCurrency"`
	RPCURLs           []string       `json:"rpcUrls"`
	BlockExplorerURLs []string       `json:"blockExplorerUrls"`
}

// HexChainID renders the id the way wallets exchange it ("0xaef3").
func (d Descriptor) HexChainID() string {
	if d.ChainID == nil {
		return "0x0"
	}
	return fmt.Sprintf("0x%x", d.ChainID)
}

// Validate reports descriptors a wallet could not act on.
func (d Descriptor) Validate() error {
	switch {
	case d.ChainID == nil || d.ChainID.Sign() <= 0:
		return fmt.Errorf("chain descriptor: invalid chain id")
	case d.ChainName == "":
		return fmt.Errorf("chain descriptor: missing chain name")
	case len(d.RPCURLs) == 0 || d.RPCURLs[0] == "":
		return fmt.Errorf("chain descriptor: missing rpc url")
	case d.NativeCurrency.Symbol == "" || d.NativeCurrency.Decimals <= 0:
		return fmt.Errorf("chain descriptor: invalid native currency")
	}
	return nil
}

// Alfajores returns the descriptor of the required network.
func Alfajores() Descriptor {
	return Descriptor{
		ChainID:   new(big.Int).Set(ChainID),
		ChainName: Name,
		NativeCurrency: NativeCurrency{
			Name:     "Alfajores Celo",
			Symbol:   "A-CELO",
			Decimals: 18,
		},
		RPCURLs:           []string{RPCURL},
		BlockExplorerURLs: []string{ExplorerURL},
	}
}

// TxURL links a transaction on the network explorer.
func TxURL(txHash string) string {
	return ExplorerURL + "/tx/" + txHash
}
