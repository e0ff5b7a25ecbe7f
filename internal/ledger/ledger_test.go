package ledger

import (
	"bytes"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"

	"github.com/Trustflow-Network-Labs/farepay/internal/currency"
	"github.com/Trustflow-Network-Labs/farepay/internal/database"
)

var idPattern = regexp.MustCompile(`^tx-\d+-[0-9a-f]{7}$`)

func partial(amount string, status Status) Transaction {
	return Transaction{
		Amount:    amount,
		Currency:  currency.Default(),
		Sender:    "0x1111111111111111111111111111111111111111",
		Recipient: "0x2222222222222222222222222222222222222222",
		Status:    status,
	}
}

func TestAddPrependsWithFreshIDs(t *testing.T) {
	l, err := New(nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	first := l.Add(partial("1", StatusCompleted))
	second := l.Add(partial("2", StatusFailed))

	if !idPattern.MatchString(first.ID) {
		t.Errorf("id %q does not match tx-<millis>-<7 chars>", first.ID)
	}
	if first.ID == second.ID {
		t.Error("ids must be unique")
	}
	if first.Timestamp.IsZero() {
		t.Error("timestamp must be set")
	}

	list := l.List()
	if len(list) != 2 || list[0].ID != second.ID || list[1].ID != first.ID {
		t.Fatalf("List is not newest first: %+v", list)
	}
}

func TestAddDoesNotDeduplicate(t *testing.T) {
	l, _ := New(nil, nil)
	tx := partial("5", StatusCompleted)
	tx.ID = "caller-id"

	a := l.Add(tx)
	b := l.Add(tx)
	if a.ID == "caller-id" || a.ID == b.ID {
		t.Errorf("Add must generate its own ids, got %q and %q", a.ID, b.ID)
	}
	if l.Len() != 2 {
		t.Errorf("Len = %d, want 2", l.Len())
	}
}

func TestPromote(t *testing.T) {
	l, _ := New(nil, nil)
	pending := l.Add(partial("3", StatusPending))

	done, err := l.Promote(pending.ID, StatusCompleted, "Payment sent")
	if err != nil {
		t.Fatalf("Promote failed: %v", err)
	}
	if done.Status != StatusCompleted || done.Description != "Payment sent" {
		t.Errorf("promoted entry = %+v", done)
	}

	if _, err := l.Promote(pending.ID, StatusFailed, "late"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("completed -> failed: got %v, want ErrInvalidTransition", err)
	}
	if _, err := l.Promote("nope", StatusFailed, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown id: got %v, want ErrNotFound", err)
	}

	other := l.Add(partial("4", StatusPending))
	if _, err := l.Promote(other.ID, StatusPending, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("pending -> pending: got %v, want ErrInvalidTransition", err)
	}

	got, ok := l.Get(pending.ID)
	if !ok || got.Status != StatusCompleted {
		t.Errorf("Get after promote = %+v, %v", got, ok)
	}
	if l.List()[1].ID != pending.ID {
		t.Error("Promote must not reorder entries")
	}
}

func TestPage(t *testing.T) {
	l, _ := New(nil, nil)
	var ids []string
	for _, a := range []string{"1", "2", "3", "4", "5"} {
		ids = append(ids, l.Add(partial(a, StatusCompleted)).ID)
	}

	tests := []struct {
		offset, limit int
		want          []string
	}{
		{0, 2, []string{ids[4], ids[3]}},
		{2, 2, []string{ids[2], ids[1]}},
		{4, 10, []string{ids[0]}},
		{5, 1, nil},
		{-1, 0, []string{ids[4], ids[3], ids[2], ids[1], ids[0]}},
	}

	for _, tt := range tests {
		page := l.Page(tt.offset, tt.limit)
		if len(page) != len(tt.want) {
			t.Errorf("Page(%d, %d) returned %d entries, want %d", tt.offset, tt.limit, len(page), len(tt.want))
			continue
		}
		for i := range page {
			if page[i].ID != tt.want[i] {
				t.Errorf("Page(%d, %d)[%d] = %s, want %s", tt.offset, tt.limit, i, page[i].ID, tt.want[i])
			}
		}
	}
}

func TestListIsACopy(t *testing.T) {
	l, _ := New(nil, nil)
	l.Add(partial("1", StatusCompleted))

	list := l.List()
	list[0].Amount = "999"
	if l.List()[0].Amount != "1" {
		t.Error("mutating List result changed the ledger")
	}
}

type failingStore struct{}

func (failingStore) Append(Transaction) error     { return errors.New("disk full") }
func (failingStore) Update(Transaction) error     { return errors.New("disk full") }
func (failingStore) Load() ([]Transaction, error) { return nil, nil }
func (failingStore) Close() error                 { return nil }

func TestStoreFailureKeepsEntry(t *testing.T) {
	l, err := New(failingStore{}, nil)
	if err != nil {
		t.Fatal(err)
	}

	tx := l.Add(partial("1", StatusPending))
	if _, err := l.Promote(tx.ID, StatusFailed, "boom"); err != nil {
		t.Fatalf("Promote should not surface store errors: %v", err)
	}
	if l.Len() != 1 || l.List()[0].Status != StatusFailed {
		t.Errorf("entry lost after store failure: %+v", l.List())
	}
}

func openTestStore(t *testing.T) (*database.SQLiteManager, *SQLiteStore) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	sqlm, err := database.NewSQLiteManagerWithDB(db, nil)
	if err != nil {
		t.Fatal(err)
	}
	return sqlm, NewSQLiteStore(sqlm)
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	_, store := openTestStore(t)

	l, err := New(store, nil)
	if err != nil {
		t.Fatal(err)
	}
	euro, _ := currency.ByID("ceur")

	first := partial("10", StatusPending)
	first.Currency = euro
	a := l.Add(first)
	if _, err := l.Promote(a.ID, StatusCompleted, "Ride home"); err != nil {
		t.Fatal(err)
	}
	b := l.Add(partial("2.5", StatusFailed))

	reloaded, err := New(store, nil)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	list := reloaded.List()
	if len(list) != 2 {
		t.Fatalf("reloaded %d entries, want 2", len(list))
	}
	if list[0].ID != b.ID || list[1].ID != a.ID {
		t.Errorf("reloaded order %s, %s; want %s, %s", list[0].ID, list[1].ID, b.ID, a.ID)
	}
	if list[1].Status != StatusCompleted || list[1].Description != "Ride home" || list[1].Currency.ID != "ceur" {
		t.Errorf("reloaded entry = %+v", list[1])
	}
	if list[1].Timestamp.UnixMilli() != a.Timestamp.UnixMilli() {
		t.Errorf("timestamp %v, want %v", list[1].Timestamp, a.Timestamp)
	}

	c := reloaded.Add(partial("1", StatusCompleted))
	if reloaded.List()[0].ID != c.ID {
		t.Error("new entries must go in front of loaded ones")
	}
}

func TestExport(t *testing.T) {
	l, _ := New(nil, nil)
	tx := partial("40", StatusCompleted)
	tx.Description = "Payment sent"
	l.Add(tx)

	var table bytes.Buffer
	if err := Export(&table, l.List(), FormatTable); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(table.String(), "40 cUSD") || !strings.Contains(table.String(), "0x2222...2222") {
		t.Errorf("table output = %q", table.String())
	}

	var out bytes.Buffer
	if err := Export(&out, l.List(), FormatYAML); err != nil {
		t.Fatal(err)
	}
	var decoded []map[string]any
	if err := yaml.Unmarshal(out.Bytes(), &decoded); err != nil {
		t.Fatalf("yaml output does not parse: %v", err)
	}
	if len(decoded) != 1 || decoded[0]["status"] != "completed" || decoded[0]["amount"] != "40" {
		t.Errorf("decoded yaml = %v", decoded)
	}

	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat should reject unknown formats")
	}
}
