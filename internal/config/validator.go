package config

import (
	"fmt"
	"os"
	"strings"
)

// ValidationContext specifies what configuration is required
type ValidationContext string

const (
	// ValidationContextIndex - indexing needs a sane indexer section; backends optional
	ValidationContextIndex ValidationContext = "index"
	// ValidationContextServe - the MCP server wants every backend reachable in CI
	ValidationContextServe ValidationContext = "serve"
	// ValidationContextComplete - completion requests need at least one strategy
	ValidationContextComplete ValidationContext = "complete"
	// ValidationContextAll - validate all configuration
	ValidationContextAll ValidationContext = "all"
)

// ValidationResult holds validation results
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// AddError adds an error to the validation result
func (vr *ValidationResult) AddError(format string, args ...interface{}) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, fmt.Sprintf(format, args...))
}

// AddWarning adds a warning to the validation result
func (vr *ValidationResult) AddWarning(format string, args ...interface{}) {
	vr.Warnings = append(vr.Warnings, fmt.Sprintf(format, args...))
}

// HasErrors returns true if there are any errors
func (vr *ValidationResult) HasErrors() bool {
	return !vr.Valid || len(vr.Errors) > 0
}

// Error returns a formatted error message
func (vr *ValidationResult) Error() string {
	if !vr.HasErrors() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Configuration validation failed:\n")
	for _, err := range vr.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err))
	}

	if len(vr.Warnings) > 0 {
		sb.WriteString("\nWarnings:\n")
		for _, warn := range vr.Warnings {
			sb.WriteString(fmt.Sprintf("  ! %s\n", warn))
		}
	}

	return sb.String()
}

// Validate validates configuration for the given context with auto-detected mode
func (c *Config) Validate(ctx ValidationContext) *ValidationResult {
	mode := DetectMode()
	return c.ValidateWithMode(ctx, mode)
}

// ValidateWithMode validates configuration for the given context and deployment mode
func (c *Config) ValidateWithMode(ctx ValidationContext, mode DeploymentMode) *ValidationResult {
	result := &ValidationResult{Valid: true}

	switch ctx {
	case ValidationContextIndex:
		c.validateIndexer(result)
		c.validateGraph(result, mode.RequiresStrictValidation())
	case ValidationContextServe:
		c.validateIndexer(result)
		c.validateGraph(result, mode.RequiresStrictValidation())
		c.validateInference(result)
		c.validateAnalytics(result)
	case ValidationContextComplete:
		c.validateInference(result)
	case ValidationContextAll:
		c.validateIndexer(result)
		c.validateGraph(result, mode.RequiresStrictValidation())
		c.validateVector(result)
		c.validateInference(result)
		c.validateAnalytics(result)
		c.validateCache(result)
	}

	return result
}

// ValidateOrFatal validates configuration and exits if invalid
func (c *Config) ValidateOrFatal(ctx ValidationContext) {
	result := c.Validate(ctx)
	if result.HasErrors() {
		fmt.Fprintln(os.Stderr, result.Error())
		os.Exit(1)
	}
	for _, warn := range result.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", warn)
	}
}

func (c *Config) validateGraph(result *ValidationResult, strict bool) {
	uri := c.Graph.URI
	if uri == "" {
		if strict {
			result.AddError("graph.uri is required (NEO4J_URI)")
		} else {
			result.AddWarning("graph.uri not set; graph features run disconnected")
		}
		return
	}

	validScheme := false
	for _, scheme := range []string{"bolt://", "bolt+s://", "neo4j://", "neo4j+s://"} {
		if strings.HasPrefix(uri, scheme) {
			validScheme = true
			break
		}
	}
	if !validScheme {
		result.AddError("graph.uri must use a bolt:// or neo4j:// scheme, got %q", uri)
	}

	if c.Graph.Password == "" {
		if strict {
			result.AddError("graph.password is required (NEO4J_PASSWORD)")
		} else {
			result.AddWarning("graph.password not set; connection will likely be refused")
		}
	}

	if c.Graph.MaxConnections <= 0 {
		result.AddError("graph.max_connections must be positive, got %d", c.Graph.MaxConnections)
	}
}

func (c *Config) validateVector(result *ValidationResult) {
	if c.Vector.Dimensions <= 0 {
		result.AddError("vector.dimensions must be positive, got %d", c.Vector.Dimensions)
	}
	if c.Vector.MaxEmbedChars <= 0 {
		result.AddError("vector.max_embed_chars must be positive, got %d", c.Vector.MaxEmbedChars)
	}
	if c.Vector.PostgresDSN == "" {
		result.AddWarning("vector.postgres_dsn not set; embeddings use the in-memory store")
	}
}

func (c *Config) validateInference(result *ValidationResult) {
	hasRemote := c.Inference.OpenAIKey != "" || c.Inference.GeminiKey != ""
	if !hasRemote && !c.Inference.EnableMock {
		result.AddWarning("no inference credentials and mock disabled; only the static fallback will answer")
	}
	if c.Inference.RequestTimeout <= 0 {
		result.AddError("inference.request_timeout must be positive")
	}
	if c.Inference.RequestsPerSec <= 0 {
		result.AddError("inference.requests_per_sec must be positive, got %v", c.Inference.RequestsPerSec)
	}
}

func (c *Config) validateIndexer(result *ValidationResult) {
	if c.Indexer.Workers <= 0 {
		result.AddError("indexer.workers must be positive, got %d", c.Indexer.Workers)
	}
	if c.Indexer.MaxFileSize <= 0 {
		result.AddError("indexer.max_file_size must be positive, got %d", c.Indexer.MaxFileSize)
	}
}

func (c *Config) validateAnalytics(result *ValidationResult) {
	if c.Analytics.HighSeverityLength < 2 {
		result.AddError("analytics.high_severity_length must be at least 2, got %d", c.Analytics.HighSeverityLength)
	}
	if c.Analytics.HotspotPercentile <= 0 || c.Analytics.HotspotPercentile > 1 {
		result.AddError("analytics.hotspot_percentile must be in (0, 1], got %v", c.Analytics.HotspotPercentile)
	}
	if c.Analytics.MaxTraversalDepth <= 0 {
		result.AddError("analytics.max_traversal_depth must be positive, got %d", c.Analytics.MaxTraversalDepth)
	}
}

func (c *Config) validateCache(result *ValidationResult) {
	if c.Cache.Enabled && c.Cache.Addr == "" {
		result.AddError("cache.addr is required when cache.enabled is true")
	}
	if c.Cache.TTL < 0 {
		result.AddError("cache.ttl cannot be negative")
	}
}
