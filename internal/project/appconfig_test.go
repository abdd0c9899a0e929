package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/TakeoffPro/internal/model"
)

func TestSaveAndLoadAppConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	cfg := model.DefaultAppConfig()
	cfg.DefaultOverheadPercent = 15
	cfg.DefaultTaxPercent = 8.25
	cfg.DefaultScale = 48
	cfg.AnalyzerURL = "http://analyzer.internal/api/analyze-document"
	cfg.RecentSessions = []string{"/tmp/a.takeoff", "/tmp/b.takeoff"}

	if err := SaveAppConfig(path, cfg); err != nil {
		t.Fatalf("SaveAppConfig failed: %v", err)
	}

	loaded, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("LoadAppConfig failed: %v", err)
	}

	if loaded.DefaultOverheadPercent != 15 {
		t.Errorf("expected DefaultOverheadPercent=15, got %f", loaded.DefaultOverheadPercent)
	}
	if loaded.DefaultTaxPercent != 8.25 {
		t.Errorf("expected DefaultTaxPercent=8.25, got %f", loaded.DefaultTaxPercent)
	}
	if loaded.DefaultScale != 48 {
		t.Errorf("expected DefaultScale=48, got %v", loaded.DefaultScale)
	}
	if loaded.AnalyzerURL != cfg.AnalyzerURL {
		t.Errorf("expected AnalyzerURL=%s, got %s", cfg.AnalyzerURL, loaded.AnalyzerURL)
	}
	if len(loaded.RecentSessions) != 2 {
		t.Errorf("expected 2 recent sessions, got %d", len(loaded.RecentSessions))
	}
}

func TestLoadAppConfigMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonexistent", "config.json")

	cfg, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}

	defaults := model.DefaultAppConfig()
	if cfg.DefaultTaxPercent != defaults.DefaultTaxPercent {
		t.Errorf("expected default tax %f, got %f", defaults.DefaultTaxPercent, cfg.DefaultTaxPercent)
	}
	if cfg.KArea != model.DefaultKArea {
		t.Errorf("expected KArea=%f, got %f", model.DefaultKArea, cfg.KArea)
	}
}

func TestLoadAppConfigInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	if err := os.WriteFile(path, []byte("not valid json{{{"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadAppConfig(path); err == nil {
		t.Fatal("expected error for invalid JSON, got nil")
	}
}

func TestSaveAppConfigCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "dir", "config.json")

	if err := SaveAppConfig(path, model.DefaultAppConfig()); err != nil {
		t.Fatalf("SaveAppConfig should create parent dirs: %v", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatal("config file was not created")
	}
}

func TestLoadAppConfigFillsMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	// An older file without the normalization constants.
	data := []byte(`{"default_overhead_percent":25,"default_scale":-4,"recent_sessions":null}`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("LoadAppConfig failed: %v", err)
	}
	if cfg.RecentSessions == nil {
		t.Error("RecentSessions should not be nil after loading")
	}
	if cfg.DefaultOverheadPercent != 25 {
		t.Errorf("expected overhead 25, got %f", cfg.DefaultOverheadPercent)
	}
	if cfg.DefaultTaxPercent != model.DefaultTaxPercent {
		t.Errorf("expected default tax, got %f", cfg.DefaultTaxPercent)
	}
	if cfg.KLength != model.DefaultKLength {
		t.Errorf("expected default KLength, got %f", cfg.KLength)
	}
	if cfg.DefaultScale != 1 {
		t.Errorf("expected invalid scale replaced by 1, got %v", cfg.DefaultScale)
	}
}
