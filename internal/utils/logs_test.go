package utils

import (
	"bufio"
	"bytes"
	"encoding/json"
	"testing"
)

func TestWriterLogsManager(t *testing.T) {
	var buf bytes.Buffer
	lm := NewWriterLogsManager(NewConfigManagerFromValues(Config{"log_level": "warn"}), &buf)

	lm.Info("dropped", "session")
	lm.Warn("balance read failed", "session")
	lm.Error("send failed", "wallet")

	var entries []map[string]any
	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		var entry map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("log line is not JSON: %q", scanner.Text())
		}
		entries = append(entries, entry)
	}

	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2: %v", len(entries), entries)
	}
	if entries[0]["msg"] != "balance read failed" || entries[0]["category"] != "session" || entries[0]["level"] != "warning" {
		t.Errorf("first entry = %v", entries[0])
	}
	if entries[1]["category"] != "wallet" {
		t.Errorf("second entry = %v", entries[1])
	}
	if file, _ := entries[1]["file"].(string); file == "" {
		t.Error("entry should carry the caller")
	}
}

func TestSetLogLevel(t *testing.T) {
	var buf bytes.Buffer
	lm := NewWriterLogsManager(nil, &buf)

	lm.Debug("hidden", "cli")
	if buf.Len() != 0 {
		t.Fatalf("debug logged at info level: %s", buf.String())
	}

	if err := lm.SetLogLevel("debug"); err != nil {
		t.Fatalf("SetLogLevel failed: %v", err)
	}
	lm.Debug("shown", "cli")
	if !bytes.Contains(buf.Bytes(), []byte(`"shown"`)) {
		t.Errorf("debug entry missing: %s", buf.String())
	}

	if err := lm.SetLogLevel("loud"); err == nil {
		t.Error("SetLogLevel should reject unknown levels")
	}
}

func TestNopLoggerSatisfiesLogger(t *testing.T) {
	var l Logger = NopLogger{}
	l.Info("ignored", "test")
}
