package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Graph.URI != "bolt://localhost:7687" {
		t.Errorf("Expected default graph URI bolt://localhost:7687, got %s", cfg.Graph.URI)
	}
	if cfg.Vector.Dimensions != 256 {
		t.Errorf("Expected default dimensions 256, got %d", cfg.Vector.Dimensions)
	}
	if !cfg.Inference.EnableMock {
		t.Error("Expected mock strategy enabled by default")
	}
	if cfg.Analytics.HighSeverityLength != 3 {
		t.Errorf("Expected high severity length 3, got %d", cfg.Analytics.HighSeverityLength)
	}
	if cfg.Analytics.HotspotPercentile != 0.90 {
		t.Errorf("Expected hotspot percentile 0.90, got %v", cfg.Analytics.HotspotPercentile)
	}
	if cfg.Indexer.Workers <= 0 {
		t.Errorf("Expected positive worker count, got %d", cfg.Indexer.Workers)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	envVars := map[string]string{
		"NEO4J_URI":                  "bolt://graph.internal:7687",
		"NEO4J_USER":                 "scope",
		"NEO4J_PASSWORD":             "secret",
		"POSTGRES_DSN":               "postgres://scope@db/vectors",
		"OPENAI_API_KEY":             "sk-test-override",
		"GEMINI_API_KEY":             "gm-test-override",
		"INDEX_WORKERS":              "4",
		"CYCLE_HIGH_SEVERITY_LENGTH": "5",
		"HOTSPOT_PERCENTILE":         "0.75",
		"REDIS_ADDR":                 "cache.internal:6379",
	}
	for k, v := range envVars {
		os.Setenv(k, v)
	}
	defer func() {
		for k := range envVars {
			os.Unsetenv(k)
		}
	}()

	cfg := Default()
	applyEnvOverrides(cfg)

	if cfg.Graph.URI != "bolt://graph.internal:7687" {
		t.Errorf("NEO4J_URI override not applied, got %s", cfg.Graph.URI)
	}
	if cfg.Graph.Username != "scope" {
		t.Errorf("NEO4J_USER override not applied, got %s", cfg.Graph.Username)
	}
	if cfg.Graph.Password != "secret" {
		t.Errorf("NEO4J_PASSWORD override not applied")
	}
	if cfg.Vector.PostgresDSN != "postgres://scope@db/vectors" {
		t.Errorf("POSTGRES_DSN override not applied, got %s", cfg.Vector.PostgresDSN)
	}
	if cfg.Inference.OpenAIKey != "sk-test-override" {
		t.Errorf("OPENAI_API_KEY override not applied")
	}
	if cfg.Inference.GeminiKey != "gm-test-override" {
		t.Errorf("GEMINI_API_KEY override not applied")
	}
	if cfg.Indexer.Workers != 4 {
		t.Errorf("INDEX_WORKERS override not applied, got %d", cfg.Indexer.Workers)
	}
	if cfg.Analytics.HighSeverityLength != 5 {
		t.Errorf("CYCLE_HIGH_SEVERITY_LENGTH override not applied, got %d", cfg.Analytics.HighSeverityLength)
	}
	if cfg.Analytics.HotspotPercentile != 0.75 {
		t.Errorf("HOTSPOT_PERCENTILE override not applied, got %v", cfg.Analytics.HotspotPercentile)
	}
	if cfg.Cache.Addr != "cache.internal:6379" {
		t.Errorf("REDIS_ADDR override not applied, got %s", cfg.Cache.Addr)
	}
}

func TestApplyEnvOverrides_InvalidValuesIgnored(t *testing.T) {
	envVars := map[string]string{
		"INDEX_WORKERS":              "not-a-number",
		"CYCLE_HIGH_SEVERITY_LENGTH": "1",
		"HOTSPOT_PERCENTILE":         "1.5",
	}
	for k, v := range envVars {
		os.Setenv(k, v)
	}
	defer func() {
		for k := range envVars {
			os.Unsetenv(k)
		}
	}()

	cfg := Default()
	applyEnvOverrides(cfg)

	if cfg.Indexer.Workers != Default().Indexer.Workers {
		t.Errorf("Invalid INDEX_WORKERS should keep the default, got %d", cfg.Indexer.Workers)
	}
	if cfg.Analytics.HighSeverityLength != 3 {
		t.Errorf("Severity length below 2 should keep the default, got %d", cfg.Analytics.HighSeverityLength)
	}
	if cfg.Analytics.HotspotPercentile != 0.90 {
		t.Errorf("Percentile above 1 should keep the default, got %v", cfg.Analytics.HotspotPercentile)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := Default()
	cfg.Graph.URI = "bolt://example:7687"
	cfg.Analytics.TopHotspots = 25
	cfg.Cache.TTL = 5 * time.Minute

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Env overrides may replace the URI on a configured machine; only
	// check when nothing is set.
	if os.Getenv("NEO4J_URI") == "" && loaded.Graph.URI != "bolt://example:7687" {
		t.Errorf("Expected saved URI to round-trip, got %s", loaded.Graph.URI)
	}
	if loaded.Analytics.TopHotspots != 25 {
		t.Errorf("Expected top_hotspots 25, got %d", loaded.Analytics.TopHotspots)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope", "config.yaml"))
	if err == nil {
		// Some viper versions report missing explicit files as not-found;
		// in that case defaults must still be intact.
		if cfg.Analytics.HighSeverityLength != Default().Analytics.HighSeverityLength {
			t.Errorf("Expected defaults when config file missing")
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		ctx     ValidationContext
		wantErr bool
	}{
		{
			name:    "defaults pass index validation",
			mutate:  func(c *Config) {},
			ctx:     ValidationContextIndex,
			wantErr: false,
		},
		{
			name:    "bad graph scheme fails",
			mutate:  func(c *Config) { c.Graph.URI = "http://localhost:7474" },
			ctx:     ValidationContextIndex,
			wantErr: true,
		},
		{
			name:    "zero workers fails",
			mutate:  func(c *Config) { c.Indexer.Workers = 0 },
			ctx:     ValidationContextIndex,
			wantErr: true,
		},
		{
			name:    "percentile out of range fails",
			mutate:  func(c *Config) { c.Analytics.HotspotPercentile = 2.0 },
			ctx:     ValidationContextAll,
			wantErr: true,
		},
		{
			name:    "severity length below 2 fails",
			mutate:  func(c *Config) { c.Analytics.HighSeverityLength = 1 },
			ctx:     ValidationContextAll,
			wantErr: true,
		},
		{
			name:    "cache enabled without addr fails",
			mutate:  func(c *Config) { c.Cache.Addr = "" },
			ctx:     ValidationContextAll,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			result := cfg.ValidateWithMode(tt.ctx, ModeDevelopment)
			if result.HasErrors() != tt.wantErr {
				t.Errorf("HasErrors() = %v, want %v (errors: %v)", result.HasErrors(), tt.wantErr, result.Errors)
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		input    string
		expected string
	}{
		{"~/data/snap.db", filepath.Join(home, "data/snap.db")},
		{"/abs/path", "/abs/path"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := expandPath(tt.input); got != tt.expected {
			t.Errorf("expandPath(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
