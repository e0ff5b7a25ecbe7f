package payment

import "errors"

var (
	ErrProviderUnavailable = errors.New("wallet provider unavailable")
	ErrUserRejected        = errors.New("rejected by user")
	ErrProviderError       = errors.New("wallet provider error")
	ErrTransactionError    = errors.New("transaction error")
	ErrInvalidParticipants = errors.New("invalid payment participants")
)

// Messages shown to the user.
const (
	ReasonNoProvider          = "No wallet available. Create or import one with `farepay wallet create`"
	ReasonConnectRejected     = "Please connect your wallet to continue"
	ReasonSwitchRejected      = "Please switch to the Celo Alfajores network to continue"
	ReasonAddChainRejected    = "Please add and switch to the Celo Alfajores network to continue"
	ReasonTransactionCanceled = "Transaction was cancelled"
	ReasonInvalidParticipants = "Invalid sender or recipient address"
)

// Error is returned by every Session operation that can fail. Kind is one of
// the sentinels above, so errors.Is(err, ErrUserRejected) works.
type Error struct {
	Kind   error
	Reason string
	Err    error
}

func newError(kind error, reason string, cause error) *Error {
	return &Error{Kind: kind, Reason: reason, Err: cause}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Reason + ": " + e.Err.Error()
	}
	return e.Reason
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}
