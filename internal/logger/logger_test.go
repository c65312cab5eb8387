package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewRejectsBadLevel(t *testing.T) {
	if _, err := New(Config{Level: "loud"}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestNewWritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.log")
	log, err := New(Config{Level: "debug", Format: "console", File: path, MaxSizeMB: 1, MaxBackups: 1})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	log.Info("engagement transition")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"message":"engagement transition"`) {
		t.Errorf("log file = %s", data)
	}
}

func TestMustFallsBack(t *testing.T) {
	if Must(Config{Level: "loud"}) == nil {
		t.Fatalf("Must returned nil")
	}
}
