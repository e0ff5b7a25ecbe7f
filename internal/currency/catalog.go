// Package currency holds the static stablecoin catalog and the conversions
// between display amounts and on-chain smallest units.
package currency

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Decimals is the fixed precision of every catalog token.
const Decimals int32 = 18

// Stablecoin is an immutable catalog entry.
type Stablecoin struct {
	ID        string         `json:"id" yaml:"id"`
	Name      string         `json:"name" yaml:"name"`
	Symbol    string         `json:"symbol" yaml:"symbol"`
	Icon      string         `json:"icon" yaml:"icon"`
	Color     string         `json:"color" yaml:"color"`
	Countries []string       `json:"countries" yaml:"countries"`
	Contract  common.Address `json:"address" yaml:"address"`
	Decimals  int32          `json:"decimals" yaml:"decimals"`
}

var catalog = []Stablecoin{
	{
		ID:        "cusd",
		Name:      "Celo Dollar",
		Symbol:    "cUSD",
		Icon:      "🇺🇸",
		Color:     "#10B981",
		Countries: []string{"USA", "Global"},
		Contract:  common.HexToAddress("0x765DE816845861e75A25fCA122bb6898B8B1282a"),
		Decimals:  Decimals,
	},
	{
		ID:        "ceur",
		Name:      "Celo Euro",
		Symbol:    "cEUR",
		Icon:      "🇪🇺",
		Color:     "#3B82F6",
		Countries: []string{"European Union"},
		Contract:  common.HexToAddress("0x10c892A6EC43a53E45D0B916B4b7D383B1b78C0F"),
		Decimals:  Decimals,
	},
	{
		ID:        "creal",
		Name:      "Celo Brazilian Real",
		Symbol:    "cREAL",
		Icon:      "🇧🇷",
		Color:     "#F59E0B",
		Countries: []string{"Brazil"},
		Contract:  common.HexToAddress("0xE4D517785D091D3c54818832dB6094bcc2744545"),
		Decimals:  Decimals,
	},
}

// Catalog returns the ordered catalog. The slice is a copy.
func Catalog() []Stablecoin {
	out := make([]Stablecoin, len(catalog))
	copy(out, catalog)
	return out
}

// Default is the first catalog entry.
func Default() Stablecoin {
	return catalog[0]
}

// ByID looks up a catalog entry by id or symbol, case-insensitively.
func ByID(id string) (Stablecoin, bool) {
	for _, coin := range catalog {
		if strings.EqualFold(coin.ID, id) || strings.EqualFold(coin.Symbol, id) {
			return coin, true
		}
	}
	return Stablecoin{}, false
}
