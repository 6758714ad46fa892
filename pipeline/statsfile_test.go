package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAppendStatsLineFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.csv")

	if err := appendStatsLine(path, 4, 100, 1.5, 0.25, 123456, 999000); err != nil {
		t.Fatalf("appendStatsLine: %v", err)
	}
	if err := appendStatsLine(path, 4, 200, 2.0, 0.5, 200000, 1500000); err != nil {
		t.Fatalf("appendStatsLine (second): %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), string(data))
	}
	if lines[0] != "4,100,1.500000,0.250000,123456,999000" {
		t.Errorf("line 1 = %q", lines[0])
	}
	if lines[1] != "4,200,2.000000,0.500000,200000,1500000" {
		t.Errorf("line 2 = %q", lines[1])
	}
}
