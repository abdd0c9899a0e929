package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "ENV", "READ_TIMEOUT", "WRITE_TIMEOUT", "TAKEOFF_DB_PATH", "ANALYZER_URL", "ANALYZER_TIMEOUT", "CATALOG_PATH", "SESSIONS_DIR"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 10, cfg.ReadTimeout)
	assert.Equal(t, 10, cfg.WriteTimeout)
	assert.Equal(t, "data/db/takeoff.db", cfg.DBPath)
	assert.Empty(t, cfg.AnalyzerURL)
	assert.Equal(t, time.Minute, cfg.AnalyzerTimeoutDuration())
	assert.False(t, cfg.IsProduction())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("ENV", "production")
	t.Setenv("READ_TIMEOUT", "30")
	t.Setenv("WRITE_TIMEOUT", "not-a-number")
	t.Setenv("TAKEOFF_DB_PATH", "/var/lib/takeoff.db")
	t.Setenv("ANALYZER_URL", "http://analyzer:9000/analyze")
	t.Setenv("ANALYZER_TIMEOUT", "5")

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 30, cfg.ReadTimeout)
	assert.Equal(t, 10, cfg.WriteTimeout, "unparseable values fall back to the default")
	assert.Equal(t, "/var/lib/takeoff.db", cfg.DBPath)
	assert.Equal(t, "http://analyzer:9000/analyze", cfg.AnalyzerURL)
	assert.Equal(t, 5*time.Second, cfg.AnalyzerTimeoutDuration())
}
