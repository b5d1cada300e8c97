package am

// Config represents the core storygraph configuration
type Config struct {
	Database       DatabaseConfig       `mapstructure:"database"`
	Pipeline       PipelineConfig       `mapstructure:"pipeline"`
	LocalInference LocalInferenceConfig `mapstructure:"local_inference"`
	OpenRouter     OpenRouterConfig     `mapstructure:"openrouter"`
	Log            LogConfig            `mapstructure:"log"`
}

// DatabaseConfig configures the SQLite usage database
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// PipelineConfig configures the generation pipeline
type PipelineConfig struct {
	// Refinement bounds
	MaxRounds         int     `mapstructure:"max_rounds"`          // Maximum refinement rounds (default: 3)
	QualityThreshold  float64 `mapstructure:"quality_threshold"`   // Minimum acceptable judge score (default: 0.7)
	ConfidenceFloor   float64 `mapstructure:"confidence_floor"`    // Minimum relationship confidence to merge (default: 0.75)
	AutoFixConfidence float64 `mapstructure:"auto_fix_confidence"` // Consistency fixes must exceed this to auto-apply (default: 0.8)

	// Budget tracking (enforced locally against the usage database)
	DailyBudgetUSD   float64 `mapstructure:"daily_budget_usd"`   // Daily spending limit in USD
	MonthlyBudgetUSD float64 `mapstructure:"monthly_budget_usd"` // Monthly spending limit in USD
}

// LocalInferenceConfig configures local model inference (Ollama, LocalAI, etc.)
type LocalInferenceConfig struct {
	Enabled        bool   `mapstructure:"enabled"`         // Enable local inference instead of cloud APIs
	BaseURL        string `mapstructure:"base_url"`        // e.g., "http://localhost:11434" for Ollama
	Model          string `mapstructure:"model"`           // e.g., "mistral", "qwen2.5-coder:7b"
	TimeoutSeconds int    `mapstructure:"timeout_seconds"` // Request timeout in seconds
	ContextSize    *int   `mapstructure:"context_size"`    // Context window size (nil = model default, e.g., 16384, 32768)
}

// OpenRouterConfig configures OpenRouter.ai API access
type OpenRouterConfig struct {
	APIKey            string   `mapstructure:"api_key"`             // OpenRouter API key
	Model             string   `mapstructure:"model"`               // Default model (e.g., "openai/gpt-4o-mini")
	Temperature       *float64 `mapstructure:"temperature"`         // Sampling temperature (nil = default 0.2)
	MaxTokens         *int     `mapstructure:"max_tokens"`          // Maximum tokens per request (nil = default 4000)
	RequestsPerMinute int      `mapstructure:"requests_per_minute"` // Client-side rate limit (0 = unlimited)
}

// LogConfig configures log output
type LogConfig struct {
	Theme string `mapstructure:"theme"` // Color theme: gruvbox, everforest
	JSON  bool   `mapstructure:"json"`  // JSON structured output instead of console
}

// File system constants
const (
	DefaultDirPermissions  = 0755 // Standard directory permissions (rwxr-xr-x)
	DefaultFilePermissions = 0644 // Standard file permissions (rw-r--r--)
)
