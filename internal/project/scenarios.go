package project

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/piwi3910/TakeoffPro/internal/engine"
)

// DefaultScenariosPath returns the default file path for saved what-if scenarios.
func DefaultScenariosPath() string {
	return filepath.Join(DefaultConfigDir(), "scenarios.json")
}

// SaveScenarios writes comparison scenarios to a JSON file.
func SaveScenarios(path string, scenarios []engine.ComparisonScenario) error {
	return writeJSON(path, scenarios)
}

// LoadScenarios reads comparison scenarios from a JSON file.
// If the file does not exist, it returns an empty list.
func LoadScenarios(path string) ([]engine.ComparisonScenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []engine.ComparisonScenario{}, nil
		}
		return nil, err
	}
	var scenarios []engine.ComparisonScenario
	if err := json.Unmarshal(data, &scenarios); err != nil {
		return nil, err
	}
	if scenarios == nil {
		scenarios = []engine.ComparisonScenario{}
	}
	return scenarios, nil
}
