package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration settings
type Config struct {
	// Deployment mode: "development", "packaged", "ci"
	Mode string `yaml:"mode"`

	// Graph backend (Neo4j)
	Graph GraphConfig `yaml:"graph"`

	// Vector backend (Postgres + pgvector, memory fallback)
	Vector VectorConfig `yaml:"vector"`

	// Inference strategies
	Inference InferenceConfig `yaml:"inference"`

	// Project indexing
	Indexer IndexerConfig `yaml:"indexer"`

	// Graph analytics thresholds
	Analytics AnalyticsConfig `yaml:"analytics"`

	// Result cache (Redis)
	Cache CacheConfig `yaml:"cache"`
}

type GraphConfig struct {
	URI            string        `yaml:"uri"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	Database       string        `yaml:"database"`
	MaxConnections int           `yaml:"max_connections"`
	ConnTimeout    time.Duration `yaml:"conn_timeout"`
	QueryTimeout   time.Duration `yaml:"query_timeout"`
}

type VectorConfig struct {
	PostgresDSN   string `yaml:"postgres_dsn"`
	Dimensions    int    `yaml:"dimensions"`
	MaxEmbedChars int    `yaml:"max_embed_chars"`
	Model         string `yaml:"model"`
	EmbeddingURL  string `yaml:"embedding_url"` // custom OpenAI-compatible endpoint
	EmbeddingKey  string `yaml:"embedding_key"`
}

type InferenceConfig struct {
	OpenAIKey       string        `yaml:"openai_key"`
	OpenAIModel     string        `yaml:"openai_model"`
	GeminiKey       string        `yaml:"gemini_key"`
	GeminiModel     string        `yaml:"gemini_model"`
	EnableMock      bool          `yaml:"enable_mock"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	MaxOutputTokens int           `yaml:"max_output_tokens"`
	RequestsPerSec  float64       `yaml:"requests_per_sec"`
}

type IndexerConfig struct {
	Workers         int      `yaml:"workers"`
	ExcludeDirs     []string `yaml:"exclude_dirs"`
	ExcludePatterns []string `yaml:"exclude_patterns"`
	MaxFileSize     int64    `yaml:"max_file_size"`
	SnapshotPath    string   `yaml:"snapshot_path"`
	UseGitignore    bool     `yaml:"use_gitignore"`
}

type AnalyticsConfig struct {
	MaxTraversalDepth  int     `yaml:"max_traversal_depth"`
	HighSeverityLength int     `yaml:"high_severity_length"`
	HotspotPercentile  float64 `yaml:"hotspot_percentile"`
	TopHotspots        int     `yaml:"top_hotspots"`
}

type CacheConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// Default returns default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Mode: string(DetectMode()),
		Graph: GraphConfig{
			URI:            "bolt://localhost:7687",
			Username:       "neo4j",
			Database:       "neo4j",
			MaxConnections: 50,
			ConnTimeout:    10 * time.Second,
			QueryTimeout:   30 * time.Second,
		},
		Vector: VectorConfig{
			Dimensions:    256,
			MaxEmbedChars: 8000,
			Model:         "text-embedding-3-small",
		},
		Inference: InferenceConfig{
			OpenAIModel:     "gpt-4o-mini",
			GeminiModel:     "gemini-2.0-flash",
			EnableMock:      true,
			RequestTimeout:  30 * time.Second,
			MaxOutputTokens: 1024,
			RequestsPerSec:  5,
		},
		Indexer: IndexerConfig{
			Workers:      8,
			MaxFileSize:  2 * 1024 * 1024,
			SnapshotPath: filepath.Join(homeDir, ".codescope", "snapshots.db"),
			UseGitignore: true,
		},
		Analytics: AnalyticsConfig{
			MaxTraversalDepth:  5,
			HighSeverityLength: 3,
			HotspotPercentile:  0.90,
			TopHotspots:        10,
		},
		Cache: CacheConfig{
			Enabled: true,
			Addr:    "localhost:6379",
			TTL:     15 * time.Minute,
		},
	}
}

// Load loads configuration from file
func Load(path string) (*Config, error) {
	// Load .env files first (in order of precedence)
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	// Set defaults
	cfg := Default()
	v.SetDefault("mode", cfg.Mode)
	v.SetDefault("graph", cfg.Graph)
	v.SetDefault("vector", cfg.Vector)
	v.SetDefault("inference", cfg.Inference)
	v.SetDefault("indexer", cfg.Indexer)
	v.SetDefault("analytics", cfg.Analytics)
	v.SetDefault("cache", cfg.Cache)

	// Load from environment variables
	v.SetEnvPrefix("CODESCOPE")
	v.AutomaticEnv()

	// Try to find config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		// Search for config in standard locations
		v.SetConfigName("config")
		v.AddConfigPath(".codescope")
		v.AddConfigPath(".")
		homeDir, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(homeDir, ".codescope"))
	}

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	// Unmarshal into struct
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	return cfg, nil
}

// loadEnvFiles loads .env files in order of precedence
func loadEnvFiles() {
	envFiles := []string{
		".env.local", // Local overrides (highest precedence)
		".env",       // Main environment file
	}

	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			godotenv.Load(file)
		}
	}

	// Also try loading from home directory
	homeDir, _ := os.UserHomeDir()
	homeEnvFile := filepath.Join(homeDir, ".codescope", ".env")
	if _, err := os.Stat(homeEnvFile); err == nil {
		godotenv.Load(homeEnvFile)
	}
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(cfg *Config) {
	// Graph configuration
	if uri := os.Getenv("NEO4J_URI"); uri != "" {
		cfg.Graph.URI = uri
	}
	if user := os.Getenv("NEO4J_USER"); user != "" {
		cfg.Graph.Username = user
	}
	if user := os.Getenv("NEO4J_USERNAME"); user != "" {
		cfg.Graph.Username = user
	}
	if password := os.Getenv("NEO4J_PASSWORD"); password != "" {
		cfg.Graph.Password = password
	}
	if db := os.Getenv("NEO4J_DATABASE"); db != "" {
		cfg.Graph.Database = db
	}

	// Vector configuration
	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		cfg.Vector.PostgresDSN = dsn
	}
	if dims := os.Getenv("EMBEDDING_DIMENSIONS"); dims != "" {
		if n, err := strconv.Atoi(dims); err == nil && n > 0 {
			cfg.Vector.Dimensions = n
		}
	}
	if model := os.Getenv("EMBEDDING_MODEL"); model != "" {
		cfg.Vector.Model = model
	}
	if url := os.Getenv("CUSTOM_EMBEDDING_URL"); url != "" {
		cfg.Vector.EmbeddingURL = url
	}
	if key := os.Getenv("CUSTOM_EMBEDDING_KEY"); key != "" {
		cfg.Vector.EmbeddingKey = key
	}

	// Inference configuration
	// Precedence: 1. Env var (highest) 2. Keychain 3. Config file (lowest)
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.Inference.OpenAIKey = key
	} else if cfg.Inference.OpenAIKey == "" {
		km := NewKeyringManager()
		if km.IsAvailable() {
			if keychainKey, err := km.GetAPIKey(); err == nil && keychainKey != "" {
				cfg.Inference.OpenAIKey = keychainKey
			}
		}
	}
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		cfg.Inference.OpenAIModel = model
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		cfg.Inference.GeminiKey = key
	} else if cfg.Inference.GeminiKey == "" {
		km := NewKeyringManager()
		if km.IsAvailable() {
			if keychainKey, err := km.GetGeminiKey(); err == nil && keychainKey != "" {
				cfg.Inference.GeminiKey = keychainKey
			}
		}
	}
	if model := os.Getenv("GEMINI_MODEL"); model != "" {
		cfg.Inference.GeminiModel = model
	}
	if mock := os.Getenv("CODESCOPE_ENABLE_MOCK"); mock != "" {
		cfg.Inference.EnableMock = mock == "true"
	}

	// Indexer configuration
	if workers := os.Getenv("INDEX_WORKERS"); workers != "" {
		if n, err := strconv.Atoi(workers); err == nil && n > 0 {
			cfg.Indexer.Workers = n
		}
	}
	if path := os.Getenv("SNAPSHOT_PATH"); path != "" {
		cfg.Indexer.SnapshotPath = expandPath(path)
	}

	// Analytics configuration
	if length := os.Getenv("CYCLE_HIGH_SEVERITY_LENGTH"); length != "" {
		if n, err := strconv.Atoi(length); err == nil && n >= 2 {
			cfg.Analytics.HighSeverityLength = n
		}
	}
	if pct := os.Getenv("HOTSPOT_PERCENTILE"); pct != "" {
		if f, err := strconv.ParseFloat(pct, 64); err == nil && f > 0 && f <= 1 {
			cfg.Analytics.HotspotPercentile = f
		}
	}

	// Cache configuration
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Cache.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Cache.Password = password
	}
	if enabled := os.Getenv("CACHE_ENABLED"); enabled != "" {
		cfg.Cache.Enabled = enabled == "true"
	}

	// Mode configuration
	if mode := os.Getenv("CODESCOPE_MODE"); mode != "" {
		cfg.Mode = mode
	}
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}

// Save saves configuration to file
func (c *Config) Save(path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	v.Set("mode", c.Mode)
	v.Set("graph", c.Graph)
	v.Set("vector", c.Vector)
	v.Set("inference", c.Inference)
	v.Set("indexer", c.Indexer)
	v.Set("analytics", c.Analytics)
	v.Set("cache", c.Cache)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
