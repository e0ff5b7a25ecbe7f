package currency

import (
	"errors"
	"math/big"
	"testing"
)

func TestToSmallestUnit(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"40", "40000000000000000000"},
		{"0.25", "250000000000000000"},
		{" 1.5 ", "1500000000000000000"},
		{"0.000000000000000001", "1"},
		{"100.000", "100000000000000000000"},
	}

	for _, tt := range tests {
		got, err := ToSmallestUnit(tt.amount)
		if err != nil {
			t.Fatalf("ToSmallestUnit(%q) failed: %v", tt.amount, err)
		}
		if got.String() != tt.want {
			t.Errorf("ToSmallestUnit(%q) = %s, want %s", tt.amount, got, tt.want)
		}
	}
}

func TestToSmallestUnitRejectsBadAmounts(t *testing.T) {
	tests := []struct {
		amount string
		want   error
	}{
		{"", ErrInvalidAmount},
		{"forty", ErrInvalidAmount},
		{"0", ErrNonPositiveAmount},
		{"-3", ErrNonPositiveAmount},
		{"0.0000000000000000001", ErrAmountPrecision},
	}

	for _, tt := range tests {
		if _, err := ToSmallestUnit(tt.amount); !errors.Is(err, tt.want) {
			t.Errorf("ToSmallestUnit(%q) error = %v, want %v", tt.amount, err, tt.want)
		}
	}
}

func TestAmountRoundTrip(t *testing.T) {
	for _, amount := range []string{"40", "0.5", "123.456789", "0.000000000000000001", "99999999"} {
		value, err := ToSmallestUnit(amount)
		if err != nil {
			t.Fatalf("ToSmallestUnit(%q) failed: %v", amount, err)
		}
		if got := Format(FromSmallestUnit(value)); got != amount {
			t.Errorf("round trip of %q gave %q", amount, got)
		}
	}
}

func TestNormalize(t *testing.T) {
	got, err := Normalize("40.00")
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if got != "40" {
		t.Errorf("Normalize(40.00) = %q, want 40", got)
	}
}

func TestFromSmallestUnitNil(t *testing.T) {
	if got := FromSmallestUnit(nil); !got.IsZero() {
		t.Errorf("FromSmallestUnit(nil) = %s, want 0", got)
	}
	if got := Format(FromSmallestUnit(big.NewInt(0))); got != "0" {
		t.Errorf("Format(0) = %q, want 0", got)
	}
}

func TestCatalog(t *testing.T) {
	coins := Catalog()
	if len(coins) != 3 {
		t.Fatalf("expected 3 catalog entries, got %d", len(coins))
	}
	if Default().ID != coins[0].ID {
		t.Errorf("default %s is not the first catalog entry %s", Default().ID, coins[0].ID)
	}
	for _, c := range coins {
		if c.Decimals != Decimals {
			t.Errorf("%s has %d decimals, want %d", c.ID, c.Decimals, Decimals)
		}
	}

	coin, ok := ByID("cEUR")
	if !ok || coin.ID != "ceur" {
		t.Errorf("ByID(cEUR) = %+v, %v", coin, ok)
	}
	if _, ok := ByID("usdt"); ok {
		t.Error("ByID(usdt) should not be found")
	}
}
