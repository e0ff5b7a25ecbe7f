// Package ledger records attempted payments, newest first. Entries are only
// ever appended or moved out of pending; nothing is removed or reordered.
package ledger

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Trustflow-Network-Labs/farepay/internal/currency"
	"github.com/Trustflow-Network-Labs/farepay/internal/utils"
)

type Status string

const (
	StatusCompleted Status = "completed"
	StatusPending   Status = "pending"
	StatusFailed    Status = "failed"
)

var (
	ErrNotFound          = errors.New("ledger transaction not found")
	ErrInvalidTransition = errors.New("invalid ledger status transition")
)

// Transaction is one ledger entry. Sender and Recipient are kept as given,
// so failed attempts can record malformed input.
type Transaction struct {
	ID          string              `json:"id" yaml:"id"`
	Timestamp   time.Time           `json:"timestamp" yaml:"timestamp"`
	Amount      string              `json:"amount" yaml:"amount"`
	Currency    currency.Stablecoin `json:"currency" yaml:"currency"`
	Sender      string              `json:"sender" yaml:"sender"`
	Recipient   string              `json:"recipient" yaml:"recipient"`
	Status      Status              `json:"status" yaml:"status"`
	Description string              `json:"description" yaml:"description"`
	TxHash      string              `json:"tx_hash,omitempty" yaml:"tx_hash,omitempty"`
}

// Store persists entries. Load returns them newest first.
type Store interface {
	Append(tx Transaction) error
	Update(tx Transaction) error
	Load() ([]Transaction, error)
	Close() error
}

type Ledger struct {
	mu      sync.RWMutex
	entries []Transaction  // oldest first
	index   map[string]int // id -> position in entries
	store   Store
	logger  utils.Logger
	now     func() time.Time
}

// New builds a ledger, seeded from store when one is given.
func New(store Store, logger utils.Logger) (*Ledger, error) {
	if logger == nil {
		logger = utils.NopLogger{}
	}

	l := &Ledger{
		index:  make(map[string]int),
		store:  store,
		logger: logger,
		now:    time.Now,
	}

	if store == nil {
		return l, nil
	}

	stored, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}
	for i := len(stored) - 1; i >= 0; i-- {
		l.index[stored[i].ID] = len(l.entries)
		l.entries = append(l.entries, stored[i])
	}
	logger.Debug(fmt.Sprintf("Loaded %d ledger transactions", len(stored)), "ledger")

	return l, nil
}

func newID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:7]
	return fmt.Sprintf("tx-%d-%s", now.UnixMilli(), suffix)
}

// Add stamps partial with a fresh id and timestamp and prepends it. It never
// fails; a store error is logged and the entry is kept in memory.
func (l *Ledger) Add(partial Transaction) Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()

	tx := partial
	tx.Timestamp = l.now()
	tx.ID = newID(tx.Timestamp)
	for {
		if _, taken := l.index[tx.ID]; !taken {
			break
		}
		tx.ID = newID(tx.Timestamp)
	}

	l.index[tx.ID] = len(l.entries)
	l.entries = append(l.entries, tx)

	if l.store != nil {
		if err := l.store.Append(tx); err != nil {
			l.logger.Error(fmt.Sprintf("Failed to persist transaction %s: %v", tx.ID, err), "ledger")
		}
	}

	return tx
}

// Promote moves a pending entry to completed or failed. An empty
// description keeps the current one.
func (l *Ledger) Promote(id string, status Status, description string) (Transaction, error) {
	if status != StatusCompleted && status != StatusFailed {
		return Transaction{}, fmt.Errorf("%w: to %q", ErrInvalidTransition, status)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	pos, ok := l.index[id]
	if !ok {
		return Transaction{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	tx := l.entries[pos]
	if tx.Status != StatusPending {
		return Transaction{}, fmt.Errorf("%w: %s is %s", ErrInvalidTransition, id, tx.Status)
	}

	tx.Status = status
	if description != "" {
		tx.Description = description
	}
	l.entries[pos] = tx

	if l.store != nil {
		if err := l.store.Update(tx); err != nil {
			l.logger.Error(fmt.Sprintf("Failed to persist status of %s: %v", tx.ID, err), "ledger")
		}
	}

	return tx, nil
}

// Get returns the entry with id.
func (l *Ledger) Get(id string) (Transaction, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	pos, ok := l.index[id]
	if !ok {
		return Transaction{}, false
	}
	return l.entries[pos], true
}

// List returns a newest-first copy of every entry.
func (l *Ledger) List() []Transaction {
	return l.Page(0, 0)
}

// Page returns up to limit entries of the newest-first view starting at
// offset. A limit <= 0 means no limit.
func (l *Ledger) Page(offset, limit int) []Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()

	total := len(l.entries)
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []Transaction{}
	}
	n := total - offset
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]Transaction, 0, n)
	for i := total - 1 - offset; i >= 0 && len(out) < n; i-- {
		out = append(out, l.entries[i])
	}
	return out
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Close closes the backing store, if any.
func (l *Ledger) Close() error {
	if l.store == nil {
		return nil
	}
	return l.store.Close()
}
