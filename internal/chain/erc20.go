package chain

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const erc20ABIJSON = `[
	{"name":"balanceOf","type":"function","stateMutability":"view",
	 "inputs":[{"name":"account","type":"address"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"name":"transfer","type":"function","stateMutability":"nonpayable",
	 "inputs":[{"name":"recipient","type":"address"},{"name":"amount","type":"uint256"}],
	 "outputs":[{"name":"","type":"bool"}]}
]`

var erc20ABI = mustParseABI(erc20ABIJSON)

var ErrEmptyResult = errors.New("contract returned no data")

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("invalid erc20 abi: %v", err))
	}
	return parsed
}

// EncodeTransfer packs transfer(recipient, amount).
func EncodeTransfer(recipient common.Address, amount *big.Int) ([]byte, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("transfer amount must be positive")
	}
	return erc20ABI.Pack("transfer", recipient, amount)
}

// DecodeTransfer unpacks transfer calldata produced by EncodeTransfer.
func DecodeTransfer(data []byte) (common.Address, *big.Int, error) {
	method, err := erc20ABI.MethodById(data)
	if err != nil {
		return common.Address{}, nil, err
	}
	if method.Name != "transfer" {
		return common.Address{}, nil, fmt.Errorf("unexpected method %s", method.Name)
	}

	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return common.Address{}, nil, fmt.Errorf("failed to unpack transfer: %w", err)
	}
	recipient, ok := args[0].(common.Address)
	if !ok {
		return common.Address{}, nil, fmt.Errorf("malformed transfer recipient")
	}
	amount, ok := args[1].(*big.Int)
	if !ok {
		return common.Address{}, nil, fmt.Errorf("malformed transfer amount")
	}
	return recipient, amount, nil
}

func encodeBalanceOf(account common.Address) ([]byte, error) {
	return erc20ABI.Pack("balanceOf", account)
}

func decodeBalanceOf(result []byte) (*big.Int, error) {
	if len(result) == 0 {
		return nil, ErrEmptyResult
	}

	out, err := erc20ABI.Unpack("balanceOf", result)
	if err != nil {
		return nil, fmt.Errorf("malformed balanceOf result: %w", err)
	}
	balance, ok := out[0].(*big.Int)
	if !ok || balance == nil {
		return nil, fmt.Errorf("malformed balanceOf result")
	}
	return balance, nil
}
