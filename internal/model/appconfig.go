package model

// Default estimating values used for new sessions.
const (
	DefaultOverheadPercent = 20.0
	DefaultTaxPercent      = 10.5

	// DefaultKLength converts a normalized-image distance to linear units at 1:1.
	DefaultKLength = 1000.0
	// DefaultKArea converts a normalized-image area to square units at 1:1.
	DefaultKArea = 1000000.0
)

// AppConfig holds application-wide preferences and estimating defaults.
type AppConfig struct {
	// Defaults applied to new takeoff sessions
	DefaultOverheadPercent float64 `json:"default_overhead_percent"`
	DefaultTaxPercent      float64 `json:"default_tax_percent"`
	DefaultScale           Scale   `json:"default_scale"`

	// Quantity normalization constants (tunable, not derived at runtime)
	KLength float64 `json:"k_length"`
	KArea   float64 `json:"k_area"`

	// Document-analysis service
	AnalyzerURL            string `json:"analyzer_url"`
	AnalyzerTimeoutSeconds int    `json:"analyzer_timeout_seconds"`

	// Application preferences
	CatalogPath    string   `json:"catalog_path"` // empty = bundled catalog
	RecentSessions []string `json:"recent_sessions"`
}

// DefaultAppConfig returns an AppConfig populated with sensible defaults.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		DefaultOverheadPercent: DefaultOverheadPercent,
		DefaultTaxPercent:      DefaultTaxPercent,
		DefaultScale:           1,
		KLength:                DefaultKLength,
		KArea:                  DefaultKArea,
		AnalyzerURL:            "http://localhost:8081/api/analyze-document",
		AnalyzerTimeoutSeconds: 120,
		RecentSessions:         []string{},
	}
}

// ApplyToSession copies the default percentages into a new session.
func (c AppConfig) ApplyToSession(s *Session) {
	s.OverheadPercent = c.DefaultOverheadPercent
	s.TaxPercent = c.DefaultTaxPercent
}

// AddRecentSession moves path to the front of the recent list, keeping at most max entries.
func (c *AppConfig) AddRecentSession(path string, max int) {
	recent := []string{path}
	for _, p := range c.RecentSessions {
		if p != path {
			recent = append(recent, p)
		}
	}
	if max > 0 && len(recent) > max {
		recent = recent[:max]
	}
	c.RecentSessions = recent
}
