package utils

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestValidateRegularFile(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("regular file", func(t *testing.T) {
		path := filepath.Join(tmpDir, "fare.json")
		if err := os.WriteFile(path, []byte("{}"), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
		if err := ValidateRegularFile(path); err != nil {
			t.Errorf("ValidateRegularFile() failed for regular file: %v", err)
		}
	})

	t.Run("directory", func(t *testing.T) {
		if err := ValidateRegularFile(tmpDir); err == nil {
			t.Error("ValidateRegularFile() should fail for a directory")
		}
	})

	t.Run("missing", func(t *testing.T) {
		if err := ValidateRegularFile(filepath.Join(tmpDir, "missing")); err == nil {
			t.Error("ValidateRegularFile() should fail for a missing file")
		}
	})
}

func TestFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "exists")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}

	if ok, err := FileExists(path); !ok || err != nil {
		t.Errorf("FileExists(existing) = %v, %v", ok, err)
	}
	if ok, err := FileExists(filepath.Join(tmpDir, "nope")); ok || err != nil {
		t.Errorf("FileExists(missing) = %v, %v", ok, err)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "wallet.json")

	if err := WriteFileAtomic(path, []byte("first"), 0600); err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}
	if err := WriteFileAtomic(path, []byte("second"), 0600); err != nil {
		t.Fatalf("WriteFileAtomic overwrite failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "second" {
		t.Errorf("content = %q, want second", data)
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm() != 0600 {
			t.Errorf("mode = %v, want 0600", info.Mode().Perm())
		}
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}
