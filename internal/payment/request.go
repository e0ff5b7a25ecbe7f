package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	"github.com/Trustflow-Network-Labs/farepay/internal/currency"
)

const DefaultFareDescription = "Transport fare"

// Request is what a driver shows a passenger to get paid. Amount may be
// empty, in which case the passenger chooses it.
type Request struct {
	Address     string    `json:"address" yaml:"address"`
	Amount      string    `json:"amount" yaml:"amount"`
	Currency    string    `json:"currency" yaml:"currency"`
	Description string    `json:"description" yaml:"description"`
	Timestamp   time.Time `json:"timestamp" yaml:"timestamp"`
}

// UnmarshalJSON accepts the amount as a JSON number or string.
func (r *Request) UnmarshalJSON(data []byte) error {
	type alias Request
	aux := struct {
		*alias
		Amount any `json:"amount"`
	}{alias: (*alias)(r)}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&aux); err != nil {
		return err
	}

	switch v := aux.Amount.(type) {
	case nil:
		r.Amount = ""
	case string:
		r.Amount = v
	case json.Number:
		r.Amount = v.String()
	default:
		return fmt.Errorf("amount must be a number or string, got %T", v)
	}
	return nil
}

// NewRequest builds a request for address in coin. A non-empty amount is
// validated and normalized.
func NewRequest(address common.Address, amount string, coin currency.Stablecoin, description string) (Request, error) {
	amount = strings.TrimSpace(amount)
	if amount != "" {
		normalized, err := currency.Normalize(amount)
		if err != nil {
			return Request{}, err
		}
		amount = normalized
	}
	if description == "" {
		description = DefaultFareDescription
	}

	return Request{
		Address:     address.Hex(),
		Amount:      amount,
		Currency:    coin.Symbol,
		Description: description,
		Timestamp:   time.Now().UTC(),
	}, nil
}

// Validate checks that the request can be paid.
func (r Request) Validate() error {
	if !common.IsHexAddress(r.Address) {
		return fmt.Errorf("request address %q is not a valid address", r.Address)
	}
	if r.Currency != "" {
		if _, ok := currency.ByID(r.Currency); !ok {
			return fmt.Errorf("request currency %q is not supported", r.Currency)
		}
	}
	if r.Amount != "" {
		if _, err := currency.ToSmallestUnit(r.Amount); err != nil {
			return fmt.Errorf("request amount: %w", err)
		}
	}
	return nil
}

// Encode writes the request as "json" or "yaml".
func (r Request) Encode(w io.Writer, format string) error {
	switch strings.ToLower(format) {
	case "", "json":
		return json.NewEncoder(w).Encode(r)
	case "yaml":
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown request format %q (json, yaml)", format)
}

// ParseRequest decodes a JSON or YAML request and validates it.
func ParseRequest(data []byte) (Request, error) {
	var r Request

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Request{}, fmt.Errorf("empty payment request")
	}

	var err error
	if trimmed[0] == '{' {
		err = json.Unmarshal(trimmed, &r)
	} else {
		err = yaml.Unmarshal(trimmed, &r)
	}
	if err != nil {
		return Request{}, fmt.Errorf("failed to decode payment request: %w", err)
	}

	if err := r.Validate(); err != nil {
		return Request{}, err
	}
	return r, nil
}

// PaymentRequest builds a request addressed to the connected account in the
// selected currency.
func (s *Session) PaymentRequest(amount, description string) (Request, error) {
	state := s.State()
	if !state.Connected {
		return Request{}, newError(ErrInvalidParticipants, ReasonInvalidParticipants, nil)
	}
	return NewRequest(state.Address, amount, state.Currency, description)
}

// PayRequest pays req, switching to its currency first when it differs from
// the selection. A non-empty amount overrides the requested one.
func (s *Session) PayRequest(ctx context.Context, req Request, amount string) (bool, error) {
	if req.Currency != "" {
		if coin, ok := currency.ByID(req.Currency); ok && coin.ID != s.State().Currency.ID {
			s.SetSelectedCurrency(ctx, coin)
		}
	}

	if strings.TrimSpace(amount) == "" {
		amount = req.Amount
	}
	return s.SendPayment(ctx, req.Address, amount, req.Description)
}
