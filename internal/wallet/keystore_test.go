package wallet

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

const (
	testKeyHex     = "b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291"
	testPassphrase = "correct horse battery staple"
)

var testKeyAddress = common.HexToAddress("0x71562b71999873DB5b286dF957af199Ec94617F7")

func newTestKeystore(t *testing.T, dir string) *Keystore {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	ks, err := OpenKeystore(dir, nil)
	if err != nil {
		t.Fatalf("OpenKeystore failed: %v", err)
	}
	ks.scryptN = 1 << 4
	return ks
}

func TestKeystoreCreateAndUnlock(t *testing.T) {
	ks := newTestKeystore(t, "")

	w, err := ks.Create(testPassphrase)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if w.PrivateKey == nil {
		t.Fatal("Create should return the key")
	}

	unlocked, err := ks.Unlock(w.ID, testPassphrase)
	if err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}
	if unlocked.Address != w.Address {
		t.Errorf("Unlock address = %s, want %s", unlocked.Address.Hex(), w.Address.Hex())
	}

	if _, err := ks.Unlock(w.ID, "wrong"); !errors.Is(err, ErrInvalidPassphrase) {
		t.Errorf("Unlock with wrong passphrase: got %v, want ErrInvalidPassphrase", err)
	}
	if _, err := ks.Unlock("missing", testPassphrase); !errors.Is(err, ErrWalletNotFound) {
		t.Errorf("Unlock missing wallet: got %v, want ErrWalletNotFound", err)
	}
}

func TestKeystoreImport(t *testing.T) {
	ks := newTestKeystore(t, "")

	w, err := ks.Import("0x"+testKeyHex, testPassphrase)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if w.Address != testKeyAddress {
		t.Errorf("Import address = %s, want %s", w.Address.Hex(), testKeyAddress.Hex())
	}

	if _, err := ks.Import(testKeyHex, testPassphrase); err == nil {
		t.Error("importing the same key twice should fail")
	}
	if _, err := ks.Import("not-a-key", testPassphrase); err == nil {
		t.Error("importing garbage should fail")
	}
	if _, err := ks.Create(""); err == nil {
		t.Error("empty passphrase should be rejected")
	}
}

func TestKeystorePersistsMetadata(t *testing.T) {
	dir := t.TempDir()
	ks := newTestKeystore(t, dir)

	w, err := ks.Import(testKeyHex, testPassphrase)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	// A stray file must not break loading.
	if err := os.WriteFile(filepath.Join(dir, "junk.json"), []byte("{"), 0600); err != nil {
		t.Fatal(err)
	}

	reopened := newTestKeystore(t, dir)
	wallets := reopened.List()
	if len(wallets) != 1 {
		t.Fatalf("List returned %d wallets, want 1", len(wallets))
	}
	if wallets[0].PrivateKey != nil {
		t.Error("List must not expose private keys")
	}

	id, err := reopened.Find(testKeyAddress.Hex())
	if err != nil || id != w.ID {
		t.Errorf("Find by address = %q, %v; want %q", id, err, w.ID)
	}

	def, err := reopened.Default("")
	if err != nil || def.ID != w.ID {
		t.Errorf("Default = %v, %v; want %q", def, err, w.ID)
	}

	if _, err := reopened.Unlock(w.ID, testPassphrase); err != nil {
		t.Errorf("Unlock after reopen failed: %v", err)
	}
}

func TestKeystoreDefaultEmpty(t *testing.T) {
	ks := newTestKeystore(t, "")
	if _, err := ks.Default(""); !errors.Is(err, ErrNoWallets) {
		t.Errorf("Default on empty keystore: got %v, want ErrNoWallets", err)
	}
	if _, err := ks.Default("nope"); !errors.Is(err, ErrWalletNotFound) {
		t.Errorf("Default with unknown id: got %v, want ErrWalletNotFound", err)
	}
}

func TestKeystoreDelete(t *testing.T) {
	ks := newTestKeystore(t, "")
	w, err := ks.Create(testPassphrase)
	if err != nil {
		t.Fatal(err)
	}

	if err := ks.Delete(w.ID, "wrong"); !errors.Is(err, ErrInvalidPassphrase) {
		t.Fatalf("Delete with wrong passphrase: got %v", err)
	}
	if err := ks.Delete(w.ID, testPassphrase); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if len(ks.List()) != 0 {
		t.Error("wallet still listed after Delete")
	}
}
