package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/piwi3910/TakeoffPro/internal/importer"
	"github.com/piwi3910/TakeoffPro/internal/model"
)

// DefaultCatalogPath returns the default file path for the price list.
// This is located at ~/.takeoffpro/catalog.json.
func DefaultCatalogPath() string {
	return filepath.Join(DefaultConfigDir(), "catalog.json")
}

// SaveCatalog writes the catalog to the specified JSON file.
// It creates parent directories if they do not exist.
func SaveCatalog(path string, c model.Catalog) error {
	return writeJSON(path, c)
}

// LoadCatalog reads the catalog from the specified JSON file.
// If the file does not exist, it returns the bundled catalog and saves it.
func LoadCatalog(path string) (model.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			c := model.DefaultCatalog()
			if saveErr := SaveCatalog(path, c); saveErr != nil {
				return c, saveErr
			}
			return c, nil
		}
		return model.Catalog{}, err
	}
	var c model.Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return model.Catalog{}, err
	}
	if c.Items == nil {
		c.Items = []model.PriceListItem{}
	}
	if c.Custom == nil {
		c.Custom = []model.PriceListItem{}
	}
	for i := range c.Custom {
		c.Custom[i].Custom = true
	}
	return c, nil
}

// LoadOrCreateCatalog loads the catalog from the default path.
// If the file does not exist, it creates one with the bundled entries.
func LoadOrCreateCatalog() (model.Catalog, string, error) {
	path := DefaultCatalogPath()
	c, err := LoadCatalog(path)
	return c, path, err
}

// MergeCatalog adds the entries of imported to existing. Base entries go to
// the base list and custom entries to the custom list; duplicate IDs are skipped.
func MergeCatalog(existing, imported model.Catalog) model.Catalog {
	ids := make(map[string]bool, len(existing.Items)+len(existing.Custom))
	for _, it := range existing.All() {
		ids[it.ID] = true
	}

	for _, it := range imported.Items {
		if !ids[it.ID] {
			existing.Items = append(existing.Items, it)
			ids[it.ID] = true
		}
	}
	for _, it := range imported.Custom {
		if !ids[it.ID] {
			it.Custom = true
			existing.Custom = append(existing.Custom, it)
			ids[it.ID] = true
		}
	}
	return existing
}

// ImportCatalog imports a catalog from a user-specified JSON file,
// merging it with the existing catalog. Duplicate IDs are skipped.
func ImportCatalog(path string, existing model.Catalog) (model.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return existing, err
	}
	var imported model.Catalog
	if err := json.Unmarshal(data, &imported); err != nil {
		return existing, err
	}
	return MergeCatalog(existing, imported), nil
}

// OpenCatalog loads a catalog from a JSON catalog file or a CSV/XLSX price
// list, chosen by extension. Spreadsheet rows that could not be read are
// returned as warnings rather than failing the load.
func OpenCatalog(path string) (model.Catalog, []string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt", ".xlsx", ".xlsm":
		result := importer.ImportFile(path)
		warnings := append(append([]string{}, result.Errors...), result.Warnings...)
		if len(result.Items) == 0 {
			return model.Catalog{}, warnings, fmt.Errorf("no price list items in %s", path)
		}
		return result.ToCatalog(), warnings, nil
	default:
		c, err := LoadCatalog(path)
		return c, nil, err
	}
}
