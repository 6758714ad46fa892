package config

import "testing"

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]string{"--map", "/tmp/map.sqlite", "--out", "/tmp/out.sqlite"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Driver != "sqlite" {
		t.Errorf("default driver = %q, want sqlite", cfg.Driver)
	}
	if cfg.Threads != 0 {
		t.Errorf("default threads = %d, want 0", cfg.Threads)
	}
	if cfg.MaxLoadAvg <= 0 {
		t.Errorf("default max_load_avg = %v, want > 0", cfg.MaxLoadAvg)
	}
}

func TestParsePosShorthand(t *testing.T) {
	cfg, err := Parse([]string{"--map", "m", "--out", "o", "--pos", "1,2,3"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Min.X != 1 || cfg.Min.Y != 2 || cfg.Min.Z != 3 {
		t.Errorf("min = %v", cfg.Min)
	}
	if cfg.Max.X != 2 || cfg.Max.Y != 3 || cfg.Max.Z != 4 {
		t.Errorf("max = %v", cfg.Max)
	}
}

func TestParsePosConflictsWithMinMax(t *testing.T) {
	_, err := Parse([]string{"--map", "m", "--out", "o", "--pos", "1,2,3", "--min", "0,0,0"})
	if err == nil {
		t.Fatal("expected error combining --pos and --min")
	}
}

func TestParseRejectsUnknownDriver(t *testing.T) {
	_, err := Parse([]string{"--map", "m", "--out", "o", "--driver", "mongodb"})
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestParseRejectsMalformedTriple(t *testing.T) {
	_, err := Parse([]string{"--map", "m", "--out", "o", "--min", "1,2"})
	if err == nil {
		t.Fatal("expected error for malformed --min")
	}
}

func TestParseRejectsNegativeRadius(t *testing.T) {
	_, err := Parse([]string{"--map", "m", "--out", "o", "--radius", "-1"})
	if err == nil {
		t.Fatal("expected error for negative --radius")
	}
}

func TestParseRequiresMapAndOut(t *testing.T) {
	if _, err := Parse([]string{}); err == nil {
		t.Fatal("expected error for missing required flags")
	}
}
