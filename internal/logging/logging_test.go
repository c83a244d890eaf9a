package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestDir(t *testing.T) {
	t.Setenv("LOGS_FOLDER", "")
	if got := Dir("/opt/triage"); got != filepath.Join("/opt/triage", "logs") {
		t.Errorf("Expected logs next to the binary, got %s", got)
	}
	if got := Dir(""); got != "logs" {
		t.Errorf("Expected ./logs without a binary directory, got %s", got)
	}
	t.Setenv("LOGS_FOLDER", "/var/log/triage")
	if got := Dir("/opt/triage"); got != "/var/log/triage" {
		t.Errorf("Expected LOGS_FOLDER to win, got %s", got)
	}
}

func TestEnsureWritable(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	if err := ensureWritable(dir); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ".write-test")); !os.IsNotExist(err) {
		t.Error("Expected the probe file to be removed")
	}
}

func TestNew_FileSinkIsJSON(t *testing.T) {
	console, err := os.CreateTemp(t.TempDir(), "console")
	if err != nil {
		t.Fatal(err)
	}
	defer console.Close()

	var file bytes.Buffer
	logger := New(console, &file)
	logger.Info().Str("patient", "p1").Msg("Unit complete")

	var entry map[string]any
	if err := json.Unmarshal(file.Bytes(), &entry); err != nil {
		t.Fatalf("Expected a JSON line, got %q: %v", file.String(), err)
	}
	if entry["patient"] != "p1" || entry["message"] != "Unit complete" {
		t.Errorf("Unexpected entry %v", entry)
	}
}
