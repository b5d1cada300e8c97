package am

import (
	"fmt"

	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.path", "storygraph.db")

	// Pipeline defaults
	v.SetDefault("pipeline.max_rounds", 3)
	v.SetDefault("pipeline.quality_threshold", 0.7)
	v.SetDefault("pipeline.confidence_floor", 0.75)
	v.SetDefault("pipeline.auto_fix_confidence", 0.8)
	v.SetDefault("pipeline.daily_budget_usd", 3.0)    // Default $3/day limit
	v.SetDefault("pipeline.monthly_budget_usd", 15.0) // Default $15/month limit

	// Local Inference (Ollama) defaults
	v.SetDefault("local_inference.enabled", false)
	v.SetDefault("local_inference.base_url", "http://localhost:11434")
	v.SetDefault("local_inference.model", "llama3.2:3b")
	v.SetDefault("local_inference.context_size", 16384)
	v.SetDefault("local_inference.timeout_seconds", 3600)

	// OpenRouter defaults
	v.SetDefault("openrouter.model", "openai/gpt-4o-mini") // Cost-effective default
	v.SetDefault("openrouter.temperature", 0.2)            // Deterministic
	v.SetDefault("openrouter.max_tokens", 4000)            // Token limit
	v.SetDefault("openrouter.requests_per_minute", 10)     // Polite client-side rate limit

	// Log defaults
	v.SetDefault("log.theme", "everforest")
	v.SetDefault("log.json", false)
}

// BindSensitiveEnvVars explicitly binds sensitive configuration to environment variables
func BindSensitiveEnvVars(v *viper.Viper) {
	// API keys
	v.BindEnv("openrouter.api_key", "STORYGRAPH_OPENROUTER_API_KEY", "OPENROUTER_API_KEY")

	// Database path
	v.BindEnv("database.path", "STORYGRAPH_DATABASE_PATH")

	// Local inference configuration
	v.BindEnv("local_inference.enabled", "STORYGRAPH_LOCAL_INFERENCE_ENABLED")
	v.BindEnv("local_inference.base_url", "STORYGRAPH_LOCAL_INFERENCE_BASE_URL")
	v.BindEnv("local_inference.model", "STORYGRAPH_LOCAL_INFERENCE_MODEL")
}

// GetDatabasePath returns the configured database path
func (c *Config) GetDatabasePath() string {
	if c.Database.Path == "" {
		return "storygraph.db" // Fallback default
	}
	return c.Database.Path
}

// GetLogTheme returns the log theme (default: everforest)
func (c *Config) GetLogTheme() string {
	if c.Log.Theme == "" {
		return "everforest"
	}
	return c.Log.Theme
}

// GetPipelineConfig returns the pipeline configuration with defaults applied
func (c *Config) GetPipelineConfig() PipelineConfig {
	cfg := c.Pipeline

	// Apply defaults for zero values
	if cfg.MaxRounds == 0 {
		cfg.MaxRounds = 3
	}
	if cfg.QualityThreshold == 0 {
		cfg.QualityThreshold = 0.7
	}
	if cfg.ConfidenceFloor == 0 {
		cfg.ConfidenceFloor = 0.75
	}
	if cfg.AutoFixConfidence == 0 {
		cfg.AutoFixConfidence = 0.8
	}

	return cfg
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{Database: %s, Pipeline: {MaxRounds: %d, QualityThreshold: %.2f}, OpenRouter: {Model: %s}}",
		c.Database.Path, c.Pipeline.MaxRounds, c.Pipeline.QualityThreshold, c.OpenRouter.Model)
}
