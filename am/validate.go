package am

import "github.com/teranos/storygraph/errors"

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	// Database path is optional - empty defaults to "storygraph.db" per defaults.go

	// Pipeline bounds: 0 = use default, negative = invalid
	if c.Pipeline.MaxRounds < 0 {
		return errors.Newf("pipeline.max_rounds must be >= 0, got %d", c.Pipeline.MaxRounds)
	}
	if c.Pipeline.QualityThreshold < 0 || c.Pipeline.QualityThreshold > 1 {
		return errors.Newf("pipeline.quality_threshold must be in [0,1], got %f", c.Pipeline.QualityThreshold)
	}
	if c.Pipeline.ConfidenceFloor < 0 || c.Pipeline.ConfidenceFloor > 1 {
		return errors.Newf("pipeline.confidence_floor must be in [0,1], got %f", c.Pipeline.ConfidenceFloor)
	}
	if c.Pipeline.AutoFixConfidence < 0 || c.Pipeline.AutoFixConfidence > 1 {
		return errors.Newf("pipeline.auto_fix_confidence must be in [0,1], got %f", c.Pipeline.AutoFixConfidence)
	}

	// Budget values: 0 = no budget (valid per "zero means zero"), negative = invalid
	if c.Pipeline.DailyBudgetUSD < 0 {
		return errors.Newf("pipeline.daily_budget_usd must be >= 0, got %f", c.Pipeline.DailyBudgetUSD)
	}
	if c.Pipeline.MonthlyBudgetUSD < 0 {
		return errors.Newf("pipeline.monthly_budget_usd must be >= 0, got %f", c.Pipeline.MonthlyBudgetUSD)
	}

	// Validate local inference configuration only when enabled
	if c.LocalInference.Enabled {
		if c.LocalInference.BaseURL == "" {
			return errors.New("local_inference.base_url cannot be empty when enabled")
		}
		if c.LocalInference.Model == "" {
			return errors.New("local_inference.model cannot be empty when enabled")
		}
		if c.LocalInference.TimeoutSeconds <= 0 {
			return errors.Newf("local_inference.timeout_seconds must be > 0, got %d", c.LocalInference.TimeoutSeconds)
		}
	}

	// OpenRouter rate limit: 0 = unlimited, negative = invalid
	if c.OpenRouter.RequestsPerMinute < 0 {
		return errors.Newf("openrouter.requests_per_minute must be >= 0, got %d", c.OpenRouter.RequestsPerMinute)
	}

	// Token limits: nil = default, 0 is invalid (omit for default)
	if c.OpenRouter.MaxTokens != nil && *c.OpenRouter.MaxTokens <= 0 {
		return errors.Newf("openrouter.max_tokens must be > 0, got %d (omit for default)", *c.OpenRouter.MaxTokens)
	}

	return nil
}
