package ai

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"encoding/json"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/teranos/storygraph/ai/tracker"
	"github.com/teranos/storygraph/am"
	"github.com/teranos/storygraph/db"
	"github.com/teranos/storygraph/errors"
	"github.com/teranos/storygraph/internal/httpclient"
	"github.com/teranos/storygraph/version"
)

const (
	// DefaultModel matches the openrouter.model default in am/defaults.go
	DefaultModel = "openai/gpt-4o-mini"

	defaultTemperature = 0.2
	defaultMaxTokens   = 4000
	defaultTimeout     = 120 * time.Second
	maxAttempts        = 3
)

// Request is one collaborator call.
type Request struct {
	// Operation names the call shape: discovery, generation, judgment,
	// rewrite, cross-reference, or consistency. It labels the usage
	// tracking row and the OpenRouter dashboard title for the call.
	Operation string

	System string
	User   string

	// Attachments carry multimodal parts alongside the user prompt
	Attachments []ContentPart

	// Per-request overrides; zero values fall back to client defaults
	Model       string
	Temperature *float64
	MaxTokens   *int
}

// Response is the trimmed completion text plus token accounting.
type Response struct {
	Content string
	Usage   Usage
}

// Options tunes a Client beyond its endpoint. Zero values select the
// package defaults.
type Options struct {
	Model             string
	Temperature       *float64
	MaxTokens         *int
	RequestsPerMinute int // client-side rate limit, 0 = unlimited
	Timeout           time.Duration

	DB         *sql.DB // enables cost/usage tracking when set
	Verbosity  int
	EntityType string // tracking context, e.g. "pipeline_run"
	EntityID   string

	Logger *zap.SugaredLogger
}

type doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client speaks the OpenAI-compatible chat-completions protocol against
// a single endpoint. Remote endpoints go through the public-address
// dial guard; local servers get a plain timeout client, since they live
// on exactly the addresses the guard refuses.
type Client struct {
	endpoint    Endpoint
	model       string
	temperature float64
	maxTokens   int

	http       doer
	limiter    *rate.Limiter
	usage      *tracker.UsageTracker
	entityType string
	entityID   string
	logger     *zap.SugaredLogger
}

// NewClient builds a client for the endpoint.
func NewClient(endpoint Endpoint, opts Options) *Client {
	model := opts.Model
	if model == "" {
		model = DefaultModel
	}
	temperature := defaultTemperature
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}
	maxTokens := defaultMaxTokens
	if opts.MaxTokens != nil {
		maxTokens = *opts.MaxTokens
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	var limiter *rate.Limiter
	if opts.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 1)
	}

	var usage *tracker.UsageTracker
	if opts.DB != nil {
		usage = tracker.NewUsageTracker(opts.DB, opts.Verbosity)
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	var transport doer
	if endpoint.Local() {
		transport = &http.Client{Timeout: timeout}
	} else {
		transport = httpclient.New(timeout)
	}

	return &Client{
		endpoint:    endpoint,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		http:        transport,
		limiter:     limiter,
		usage:       usage,
		entityType:  opts.EntityType,
		entityID:    opts.EntityID,
		logger:      log.Named("ai"),
	}
}

// NewClientFromConfig selects the endpoint for the named provider and
// fills Options from the matching config section.
func NewClientFromConfig(cfg *am.Config, providerName string, opts Options) (*Client, error) {
	endpoint, err := SelectEndpoint(providerName, cfg)
	if err != nil {
		return nil, err
	}
	if endpoint.Local() {
		if opts.Model == "" {
			opts.Model = cfg.LocalInference.Model
		}
		if opts.Timeout <= 0 && cfg.LocalInference.TimeoutSeconds > 0 {
			opts.Timeout = time.Duration(cfg.LocalInference.TimeoutSeconds) * time.Second
		}
	} else {
		if opts.Model == "" {
			opts.Model = cfg.OpenRouter.Model
		}
		if opts.Temperature == nil {
			opts.Temperature = cfg.OpenRouter.Temperature
		}
		if opts.MaxTokens == nil {
			opts.MaxTokens = cfg.OpenRouter.MaxTokens
		}
		if opts.RequestsPerMinute == 0 {
			opts.RequestsPerMinute = cfg.OpenRouter.RequestsPerMinute
		}
	}
	return NewClient(endpoint, opts), nil
}

// Configured reports whether the client can reach its endpoint. Local
// servers need no key; remote ones do.
func (c *Client) Configured() bool {
	return c.endpoint.Local() || c.endpoint.APIKey != ""
}

// Chat sends one request and returns the completion. Transient network
// failures are retried with linear backoff; every outcome, success or
// failure, lands in the usage tracker when tracking is enabled.
func (c *Client) Chat(ctx context.Context, req Request) (*Response, error) {
	if !c.Configured() {
		return nil, errors.Newf("%s API key not configured", c.endpoint.Provider)
	}

	model := req.Model
	if model == "" {
		model = c.model
	}
	temperature := c.temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	maxTokens := c.maxTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}

	payload := chatPayload{Model: model, Temperature: temperature, MaxTokens: maxTokens}
	if req.System != "" {
		payload.Messages = append(payload.Messages, textMessage("system", req.System))
	}
	if len(req.Attachments) > 0 {
		payload.Messages = append(payload.Messages, multimodalMessage("user", req.User, req.Attachments))
	} else {
		payload.Messages = append(payload.Messages, textMessage("user", req.User))
	}

	c.logger.Debugw("chat request",
		"operation", req.Operation,
		"endpoint", c.endpoint.Provider,
		"model", model,
		"temperature", temperature,
		"max_tokens", maxTokens,
	)

	started := time.Now()
	completion, err := c.send(ctx, req.Operation, payload)
	if err != nil {
		c.record(req.Operation, model, temperature, maxTokens, started, nil, err)
		return nil, err
	}
	if len(completion.Choices) == 0 {
		return nil, errors.Newf("no response choices from %s", c.endpoint.Provider)
	}

	content := completion.Choices[0].Message.Text()
	c.logger.Debugw("chat response",
		"operation", req.Operation,
		"content_length", len(content),
		"total_tokens", completion.Usage.TotalTokens,
	)

	c.record(req.Operation, model, temperature, maxTokens, started, completion, nil)
	return &Response{
		Content: strings.TrimSpace(content),
		Usage:   completion.Usage,
	}, nil
}

// send posts the payload, retrying transient network failures. Backoff
// is linear and context-aware, so Ctrl+C interrupts a waiting retry.
func (c *Client) send(ctx context.Context, operation string, payload chatPayload) (*chatCompletion, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			delay := time.Duration(attempt-1) * time.Second
			c.logger.Debugw("retrying chat request",
				"operation", operation, "attempt", attempt, "delay", delay)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		completion, err := c.post(ctx, operation, payload)
		if err == nil {
			if attempt > 1 {
				c.logger.Infow("chat request succeeded after retry",
					"operation", operation, "attempts", attempt)
			}
			return completion, nil
		}

		lastErr = err
		if !transientNetworkError(err) {
			return nil, errors.Wrapf(err, "%s request", c.endpoint.Provider)
		}
		c.logger.Warnw("transient chat failure",
			"operation", operation, "attempt", attempt, "error", err)
	}
	return nil, errors.Wrapf(lastErr, "%s request failed after %d attempts", c.endpoint.Provider, maxAttempts)
}

func (c *Client) post(ctx context.Context, operation string, payload chatPayload) (*chatCompletion, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errors.Wrap(err, "rate limit wait")
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "encoding chat payload")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "building chat request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", version.UserAgent())
	if c.endpoint.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.endpoint.APIKey)
	}
	title := "storygraph"
	if operation != "" {
		title += "/" + operation
	}
	httpReq.Header.Set("X-Title", title)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		// Returned raw so the retry loop can classify it
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading chat response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("chat request returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var completion chatCompletion
	if err := json.Unmarshal(raw, &completion); err != nil {
		return nil, errors.Wrap(err, "decoding chat response")
	}
	return &completion, nil
}

// record writes one usage row. Tracking failures are logged loudly:
// budget enforcement reads these rows.
func (c *Client) record(operation, model string, temperature float64, maxTokens int, started time.Time, completion *chatCompletion, callErr error) {
	if c.usage == nil {
		return
	}
	finished := time.Now()

	row := &tracker.ModelUsage{
		OperationType:     operation,
		EntityType:        c.entityType,
		EntityID:          c.entityID,
		ModelName:         model,
		ModelProvider:     c.endpoint.Provider,
		ModelConfig:       tracker.NewModelConfig(&temperature, &maxTokens),
		RequestTimestamp:  started,
		ResponseTimestamp: &finished,
		Success:           callErr == nil,
	}
	switch {
	case callErr != nil:
		msg := callErr.Error()
		row.ErrorMessage = &msg
	case completion != nil:
		tokens := completion.Usage.TotalTokens
		row.TokensUsed = &tokens
		var cost float64
		if !c.endpoint.Local() {
			cost = CalculateCost(model, completion.Usage.PromptTokens, completion.Usage.CompletionTokens)
		}
		row.Cost = &cost
	}

	if err := c.usage.TrackUsage(row); err != nil {
		if db.IsDatabaseClosed(err) {
			// Shutdown race: the deferred Close beat the final row
			c.logger.Debugw("usage row dropped during shutdown", "operation", operation)
			return
		}
		c.logger.Warnw("usage tracking failed",
			"operation", operation, "model", model, "error", err)
	}
}

// transientNetworkError reports whether err is worth retrying. HTTP
// status errors never are; only network-level failures qualify.
func transientNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		var errno syscall.Errno
		if errors.As(opErr.Err, &errno) {
			switch errno {
			case syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ETIMEDOUT:
				return true
			}
		}
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"connection reset",
		"connection refused",
		"network is unreachable",
		"temporary failure",
		"timeout",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
