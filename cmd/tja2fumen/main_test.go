package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// TestCLIHelp tests the help display functionality
func TestCLIHelp(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping go run in short mode")
	}

	cmd := exec.Command("go", "run", ".", "--help")
	cmd.Dir = "."
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("expected exit code 0, got %v\n%s", err, output)
	}

	outputStr := string(output)
	if !strings.Contains(outputStr, "tja2fumen - TJA to fumen chart converter") {
		t.Error("Help output should contain title")
	}
	if !strings.Contains(outputStr, "Usage:") {
		t.Error("Help output should contain Usage section")
	}
}

// TestCLIConvert tests the exit status of a conversion run
func TestCLIConvert(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping go run in short mode")
	}

	dir := t.TempDir()
	good := filepath.Join(dir, "song.tja")
	if err := os.WriteFile(good, []byte("BPM:120\nCOURSE:Oni\n#START\n1,\n#END\n"), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	cmd := exec.Command("go", "run", ".", "-l", "error", good)
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("conversion failed: %v\n%s", err, output)
	}
	if _, err := os.Stat(filepath.Join(dir, "song_m.bin")); err != nil {
		t.Errorf("output missing: %v", err)
	}

	cmd = exec.Command("go", "run", ".", filepath.Join(dir, "missing.tja"))
	output, err := cmd.CombinedOutput()
	if err == nil {
		t.Error("expected non-zero exit code for a missing input")
	}
	if !strings.Contains(string(output), "Error:") {
		t.Errorf("expected error message, got %s", output)
	}
}
