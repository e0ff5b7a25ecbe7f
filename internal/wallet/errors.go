package wallet

import (
	"errors"
	"fmt"
)

var (
	ErrWalletNotFound    = errors.New("wallet not found")
	ErrInvalidPassphrase = errors.New("invalid wallet passphrase")
	ErrNoWallets         = errors.New("no wallets in keystore")
	ErrNotAuthorized     = errors.New("account access has not been granted")
	ErrNoActiveChain     = errors.New("no active chain selected")
)

// ErrorKind is the closed set of outcomes a provider call can fail with.
type ErrorKind int

const (
	// KindOther is any failure that is not a human decision.
	KindOther ErrorKind = iota
	// KindRejected means the human declined the request.
	KindRejected
	// KindUnknownChain means the wallet has no descriptor for the requested chain.
	KindUnknownChain
)

// EIP-1193 / EIP-3085 provider codes.
const (
	CodeUserRejected = 4001
	CodeUnauthorized = 4100
	CodeUnknownChain = 4902
	CodeInternal     = -32603
)

func (k ErrorKind) String() string {
	switch k {
	case KindRejected:
		return "rejected"
	case KindUnknownChain:
		return "unknown_chain"
	default:
		return "other"
	}
}

// ProviderError is returned by every Provider method.
type ProviderError struct {
	Kind   ErrorKind
	Code   int
	Detail string
	Err    error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("wallet provider error %d (%s): %s", e.Code, e.Kind, e.Detail)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func rejected(detail string) *ProviderError {
	return &ProviderError{Kind: KindRejected, Code: CodeUserRejected, Detail: detail}
}

func unknownChain(detail string) *ProviderError {
	return &ProviderError{Kind: KindUnknownChain, Code: CodeUnknownChain, Detail: detail}
}

func other(code int, detail string, err error) *ProviderError {
	return &ProviderError{Kind: KindOther, Code: code, Detail: detail, Err: err}
}

// KindOf classifies err. Errors that are not ProviderErrors are KindOther.
func KindOf(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindOther
}

func IsRejected(err error) bool {
	return err != nil && KindOf(err) == KindRejected
}

func IsUnknownChain(err error) bool {
	return err != nil && KindOf(err) == KindUnknownChain
}
