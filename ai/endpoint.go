// Package ai is the chat surface the pipeline collaborator speaks
// through. One client covers every server storygraph can use: the
// OpenRouter gateway and OpenAI-compatible local servers (Ollama,
// LocalAI) share the /chat/completions wire shape, so provider choice
// reduces to picking an endpoint.
package ai

import (
	"strings"

	"github.com/teranos/storygraph/am"
	"github.com/teranos/storygraph/errors"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// Endpoint identifies one chat-completions server.
type Endpoint struct {
	// Provider labels usage-tracking rows: "openrouter" or "local"
	Provider string
	BaseURL  string
	APIKey   string // empty for local servers
}

// Local reports whether the endpoint is a local inference server.
// Local servers need no API key, cost nothing, and sit on private
// addresses the public-dial guard would refuse.
func (e Endpoint) Local() bool {
	return e.Provider == "local"
}

// OpenRouterEndpoint points at the OpenRouter gateway.
func OpenRouterEndpoint(apiKey string) Endpoint {
	return Endpoint{Provider: "openrouter", BaseURL: openRouterBaseURL, APIKey: apiKey}
}

// LocalEndpoint points at an OpenAI-compatible local server. Ollama and
// LocalAI both serve chat completions under /v1.
func LocalEndpoint(baseURL string) Endpoint {
	base := strings.TrimRight(baseURL, "/")
	if !strings.HasSuffix(base, "/v1") {
		base += "/v1"
	}
	return Endpoint{Provider: "local", BaseURL: base}
}

// SelectEndpoint resolves a provider name (the --provider flag) against
// the config. "auto" or empty prefers the local server when enabled and
// falls back to OpenRouter.
func SelectEndpoint(name string, cfg *am.Config) (Endpoint, error) {
	switch name {
	case "local", "ollama", "localai":
		return LocalEndpoint(cfg.LocalInference.BaseURL), nil
	case "openrouter", "or":
		return OpenRouterEndpoint(cfg.OpenRouter.APIKey), nil
	case "auto", "":
		if cfg.LocalInference.Enabled {
			return LocalEndpoint(cfg.LocalInference.BaseURL), nil
		}
		return OpenRouterEndpoint(cfg.OpenRouter.APIKey), nil
	default:
		return Endpoint{}, errors.Newf("unknown provider %q (valid: local, openrouter, auto)", name)
	}
}
