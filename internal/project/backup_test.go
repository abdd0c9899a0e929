package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/TakeoffPro/internal/model"
)

func TestExportAndImportAllData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.json")

	cfg := model.DefaultAppConfig()
	cfg.DefaultOverheadPercent = 18

	c := model.DefaultCatalog()
	c.AddCustom(model.NewCustomPriceListItem("Electrical", "EV Charger Install", "EA", 1200))

	if err := ExportAllData(path, cfg, c); err != nil {
		t.Fatalf("ExportAllData failed: %v", err)
	}

	backup, err := ImportAllData(path)
	if err != nil {
		t.Fatalf("ImportAllData failed: %v", err)
	}

	if backup.Version != "1.0.0" {
		t.Errorf("expected version 1.0.0, got %s", backup.Version)
	}
	if backup.CreatedAt == "" {
		t.Error("expected non-empty CreatedAt")
	}
	if backup.Config.DefaultOverheadPercent != 18 {
		t.Errorf("expected overhead 18, got %f", backup.Config.DefaultOverheadPercent)
	}
	if len(backup.CustomItems) != 1 || backup.CustomItems[0].Name != "EV Charger Install" {
		t.Fatalf("expected the custom item to be backed up, got %+v", backup.CustomItems)
	}

	fresh := model.DefaultCatalog()
	if n := backup.RestoreCustomItems(&fresh); n != 1 {
		t.Errorf("expected 1 restored item, got %d", n)
	}
	if n := backup.RestoreCustomItems(&fresh); n != 0 {
		t.Errorf("expected restore to skip existing IDs, got %d", n)
	}
}

func TestImportAllDataMissingFile(t *testing.T) {
	if _, err := ImportAllData(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestImportAllDataInvalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{{{"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ImportAllData(bad); err == nil {
		t.Error("expected error for invalid JSON")
	}

	noVersion := filepath.Join(dir, "noversion.json")
	if err := os.WriteFile(noVersion, []byte(`{"config":{}}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ImportAllData(noVersion); err == nil {
		t.Error("expected error for missing version")
	}
}

func TestImportAllDataNilSlices(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.json")
	if err := os.WriteFile(path, []byte(`{"version":"1.0.0","config":{"recent_sessions":null}}`), 0644); err != nil {
		t.Fatal(err)
	}

	backup, err := ImportAllData(path)
	if err != nil {
		t.Fatalf("ImportAllData failed: %v", err)
	}
	if backup.Config.RecentSessions == nil || backup.CustomItems == nil {
		t.Error("expected nil slices to be replaced with empty ones")
	}
}
