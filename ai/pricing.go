package ai

// pricePerMillion is per-token pricing for models reachable through the
// OpenRouter gateway, in USD per million tokens.
type pricePerMillion struct {
	Prompt     float64
	Completion float64
}

// Static table for the models storygraph runs against.
// TODO: pull live pricing from the OpenRouter models API instead.
var modelPrices = map[string]pricePerMillion{
	"openai/gpt-4o":        {Prompt: 2.50, Completion: 10.00},
	"openai/gpt-4o-mini":   {Prompt: 0.15, Completion: 0.60},
	"openai/gpt-4-turbo":   {Prompt: 10.00, Completion: 30.00},
	"openai/gpt-3.5-turbo": {Prompt: 0.50, Completion: 1.50},

	"anthropic/claude-3.5-sonnet": {Prompt: 3.00, Completion: 15.00},
	"anthropic/claude-3-opus":     {Prompt: 15.00, Completion: 75.00},
	"anthropic/claude-3-sonnet":   {Prompt: 3.00, Completion: 15.00},
	"anthropic/claude-3-haiku":    {Prompt: 0.25, Completion: 1.25},

	"google/gemini-pro-1.5":   {Prompt: 1.25, Completion: 5.00},
	"google/gemini-flash-1.5": {Prompt: 0.075, Completion: 0.30},

	"meta-llama/llama-3.1-405b-instruct": {Prompt: 2.70, Completion: 2.70},
	"meta-llama/llama-3.1-70b-instruct":  {Prompt: 0.52, Completion: 0.75},
	"meta-llama/llama-3.1-8b-instruct":   {Prompt: 0.055, Completion: 0.055},
}

// UnknownModelCost is charged per request when a model is missing from
// the table. Overestimating keeps the budget gate conservative.
const UnknownModelCost = 0.01

// CalculateCost returns the USD cost of one completion.
func CalculateCost(model string, promptTokens, completionTokens int) float64 {
	price, ok := modelPrices[model]
	if !ok {
		return UnknownModelCost
	}
	return float64(promptTokens)/1e6*price.Prompt + float64(completionTokens)/1e6*price.Completion
}

// KnownModel reports whether the pricing table covers the model.
func KnownModel(model string) bool {
	_, ok := modelPrices[model]
	return ok
}
