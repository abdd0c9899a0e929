package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/piwi3910/TakeoffPro/internal/model"
)

// BackupData is the top-level structure for import/export of all application data.
type BackupData struct {
	Version     string                `json:"version"`
	CreatedAt   string                `json:"created_at"`
	Config      model.AppConfig       `json:"config"`
	CustomItems []model.PriceListItem `json:"custom_items"`
}

// ExportAllData writes the config and the company's custom price list entries
// to a single JSON file at the specified path.
func ExportAllData(exportPath string, config model.AppConfig, catalog model.Catalog) error {
	backup := BackupData{
		Version:     "1.0.0",
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		Config:      config,
		CustomItems: append([]model.PriceListItem{}, catalog.Custom...),
	}
	data, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal backup data: %w", err)
	}

	dir := filepath.Dir(exportPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	if err := os.WriteFile(exportPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write backup file: %w", err)
	}
	return nil
}

// ImportAllData reads a backup JSON file and returns the contained data.
// The caller is responsible for applying the imported config.
func ImportAllData(importPath string) (BackupData, error) {
	data, err := os.ReadFile(importPath)
	if err != nil {
		return BackupData{}, fmt.Errorf("failed to read backup file: %w", err)
	}
	var backup BackupData
	if err := json.Unmarshal(data, &backup); err != nil {
		return BackupData{}, fmt.Errorf("failed to parse backup file: %w", err)
	}
	if backup.Version == "" {
		return BackupData{}, fmt.Errorf("invalid backup file: missing version field")
	}
	if backup.Config.RecentSessions == nil {
		backup.Config.RecentSessions = []string{}
	}
	if backup.CustomItems == nil {
		backup.CustomItems = []model.PriceListItem{}
	}
	return backup, nil
}

// RestoreCustomItems adds the backed-up custom entries to a catalog.
// Entries whose ID is already present are skipped; the number added is returned.
func (b BackupData) RestoreCustomItems(c *model.Catalog) int {
	added := 0
	for _, it := range b.CustomItems {
		if c.AddCustom(it) {
			added++
		}
	}
	return added
}
