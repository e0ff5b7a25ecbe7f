package ledger

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/Trustflow-Network-Labs/farepay/internal/currency"
	"github.com/Trustflow-Network-Labs/farepay/internal/database"
)

// SQLiteStore keeps the ledger in the ledger_transactions table.
type SQLiteStore struct {
	db *database.SQLiteManager
}

var _ Store = (*SQLiteStore)(nil)

func NewSQLiteStore(db *database.SQLiteManager) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Append(tx Transaction) error {
	return s.db.InsertLedgerTransaction(toRow(tx))
}

func (s *SQLiteStore) Update(tx Transaction) error {
	return s.db.UpdateLedgerTransaction(tx.ID, string(tx.Status), tx.Description, tx.TxHash)
}

func (s *SQLiteStore) Load() ([]Transaction, error) {
	rows, err := s.db.ListLedgerTransactions(0, 0)
	if err != nil {
		return nil, err
	}

	txs := make([]Transaction, 0, len(rows))
	for _, row := range rows {
		txs = append(txs, fromRow(row))
	}
	return txs, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func toRow(tx Transaction) *database.LedgerTransaction {
	return &database.LedgerTransaction{
		TxID:             tx.ID,
		Amount:           tx.Amount,
		CurrencyID:       tx.Currency.ID,
		CurrencySymbol:   tx.Currency.Symbol,
		CurrencyContract: tx.Currency.Contract.Hex(),
		Sender:           tx.Sender,
		Recipient:        tx.Recipient,
		Status:           string(tx.Status),
		Description:      tx.Description,
		TxHash:           tx.TxHash,
		CreatedAt:        tx.Timestamp,
	}
}

// fromRow resolves the currency against the catalog; ids the catalog no
// longer carries keep what was stored.
func fromRow(row *database.LedgerTransaction) Transaction {
	coin, ok := currency.ByID(row.CurrencyID)
	if !ok {
		coin = currency.Stablecoin{
			ID:       row.CurrencyID,
			Symbol:   row.CurrencySymbol,
			Contract: common.HexToAddress(row.CurrencyContract),
			Decimals: currency.Decimals,
		}
	}

	return Transaction{
		ID:          row.TxID,
		Timestamp:   row.CreatedAt,
		Amount:      row.Amount,
		Currency:    coin,
		Sender:      row.Sender,
		Recipient:   row.Recipient,
		Status:      Status(row.Status),
		Description: row.Description,
		TxHash:      row.TxHash,
	}
}
