package database

import "testing"

func TestAppSettings(t *testing.T) {
	sqlm := setupTestLedgerDB(t)

	got, err := sqlm.GetSetting("missing")
	if err != nil || got != "" {
		t.Fatalf("GetSetting(missing) = %q, %v", got, err)
	}

	if err := sqlm.SetSetting("theme", "dark"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}
	if err := sqlm.SetSetting("theme", "light"); err != nil {
		t.Fatalf("SetSetting overwrite failed: %v", err)
	}
	if got, _ := sqlm.GetSetting("theme"); got != "light" {
		t.Errorf("theme = %q, want light", got)
	}

	if err := sqlm.DeleteSetting("theme"); err != nil {
		t.Fatalf("DeleteSetting failed: %v", err)
	}
	if got, _ := sqlm.GetSetting("theme"); got != "" {
		t.Errorf("theme after delete = %q", got)
	}
}

func TestDefaultWalletID(t *testing.T) {
	sqlm := setupTestLedgerDB(t)

	if id, err := sqlm.GetDefaultWalletID(); err != nil || id != "" {
		t.Fatalf("initial default = %q, %v", id, err)
	}
	if err := sqlm.SetDefaultWalletID("71562b71-1a2b3c4d"); err != nil {
		t.Fatal(err)
	}
	if id, _ := sqlm.GetDefaultWalletID(); id != "71562b71-1a2b3c4d" {
		t.Errorf("default = %q", id)
	}
	if err := sqlm.ClearDefaultWalletID(); err != nil {
		t.Fatal(err)
	}
	if id, _ := sqlm.GetDefaultWalletID(); id != "" {
		t.Errorf("default after clear = %q", id)
	}
}
