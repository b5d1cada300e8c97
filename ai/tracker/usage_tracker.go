// Package tracker records every AI model call in SQLite. The rows feed
// the usage command and the budget gate, so a call that fails still
// gets a row.
package tracker

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/teranos/storygraph/errors"
)

// ModelUsage is one row of the ai_model_usage table
type ModelUsage struct {
	ID                int        `json:"id" db:"id"`
	OperationType     string     `json:"operation_type" db:"operation_type"`
	EntityType        string     `json:"entity_type" db:"entity_type"`
	EntityID          string     `json:"entity_id" db:"entity_id"`
	ModelName         string     `json:"model_name" db:"model_name"`
	ModelProvider     string     `json:"model_provider" db:"model_provider"`
	ModelConfig       *string    `json:"model_config,omitempty" db:"model_config"`
	RequestTimestamp  time.Time  `json:"request_timestamp" db:"request_timestamp"`
	ResponseTimestamp *time.Time `json:"response_timestamp,omitempty" db:"response_timestamp"`
	TokensUsed        *int       `json:"tokens_used,omitempty" db:"tokens_used"`
	Cost              *float64   `json:"cost,omitempty" db:"cost"`
	Success           bool       `json:"success" db:"success"`
	ErrorMessage      *string    `json:"error_message,omitempty" db:"error_message"`
	Metadata          *string    `json:"metadata,omitempty" db:"metadata"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
}

// UsageStats aggregates a time window of calls
type UsageStats struct {
	TotalRequests      int     `json:"total_requests"`
	SuccessfulRequests int     `json:"successful_requests"`
	SuccessRate        float64 `json:"success_rate"`
	TotalTokens        int     `json:"total_tokens"`
	TotalCost          float64 `json:"total_cost"`
	UniqueModels       int     `json:"unique_models"`
}

// ModelBreakdown aggregates successful calls for one model
type ModelBreakdown struct {
	ModelName         string   `json:"model_name"`
	ModelProvider     string   `json:"model_provider"`
	RequestCount      int      `json:"request_count"`
	TotalTokens       int      `json:"total_tokens"`
	TotalCost         float64  `json:"total_cost"`
	AvgResponseTimeMs *float64 `json:"avg_response_time_ms,omitempty"`
}

// TimeSeriesPoint is one day of aggregated spend
type TimeSeriesPoint struct {
	Date     string  `json:"date"`
	Requests int     `json:"requests"`
	Cost     float64 `json:"cost"`
}

// UsageTracker reads and writes the ai_model_usage table. The schema
// comes from the db package migrations.
type UsageTracker struct {
	db        *sql.DB
	verbosity int
}

func NewUsageTracker(db *sql.DB, verbosity int) *UsageTracker {
	return &UsageTracker{db: db, verbosity: verbosity}
}

// TrackUsage inserts one usage row
func (t *UsageTracker) TrackUsage(usage *ModelUsage) error {
	_, err := t.db.Exec(`
		INSERT INTO ai_model_usage (
			operation_type, entity_type, entity_id, model_name, model_provider,
			model_config, request_timestamp, response_timestamp, tokens_used,
			cost, success, error_message, metadata
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		usage.OperationType, usage.EntityType, usage.EntityID,
		usage.ModelName, usage.ModelProvider, usage.ModelConfig,
		usage.RequestTimestamp, usage.ResponseTimestamp, usage.TokensUsed,
		usage.Cost, usage.Success, usage.ErrorMessage, usage.Metadata,
	)
	return err
}

// SpentSince totals the cost of all calls since the given time. The
// budget gate reads this before a run and again each refinement round.
func (t *UsageTracker) SpentSince(since time.Time) (float64, error) {
	var total float64
	err := t.db.QueryRow(
		`SELECT COALESCE(SUM(COALESCE(cost, 0)), 0) FROM ai_model_usage WHERE request_timestamp >= ?`,
		since,
	).Scan(&total)
	return total, err
}

// GetUsageStats aggregates all calls since the given time
func (t *UsageTracker) GetUsageStats(since time.Time) (*UsageStats, error) {
	var stats UsageStats
	err := t.db.QueryRow(`
		SELECT
			COUNT(*),
			COUNT(CASE WHEN success = 1 THEN 1 END),
			COALESCE(SUM(COALESCE(tokens_used, 0)), 0),
			COALESCE(SUM(COALESCE(cost, 0)), 0),
			COUNT(DISTINCT model_name)
		FROM ai_model_usage
		WHERE request_timestamp >= ?`, since,
	).Scan(
		&stats.TotalRequests, &stats.SuccessfulRequests,
		&stats.TotalTokens, &stats.TotalCost, &stats.UniqueModels,
	)
	if err != nil {
		return nil, errors.Wrap(err, "aggregating usage")
	}

	if stats.TotalRequests > 0 {
		stats.SuccessRate = float64(stats.SuccessfulRequests) / float64(stats.TotalRequests)
	}
	return &stats, nil
}

// GetModelBreakdown aggregates successful calls per model, most
// expensive model first.
func (t *UsageTracker) GetModelBreakdown(since time.Time) ([]ModelBreakdown, error) {
	rows, err := t.db.Query(`
		SELECT
			model_name,
			model_provider,
			COUNT(*),
			SUM(COALESCE(tokens_used, 0)),
			SUM(COALESCE(cost, 0)),
			AVG(CASE WHEN response_timestamp IS NOT NULL THEN
				(julianday(response_timestamp) - julianday(request_timestamp)) * 86400000
				ELSE NULL END)
		FROM ai_model_usage
		WHERE request_timestamp >= ? AND success = 1
		GROUP BY model_name, model_provider
		ORDER BY SUM(COALESCE(cost, 0)) DESC`, since)
	if err != nil {
		return nil, errors.Wrap(err, "querying model breakdown")
	}
	defer rows.Close()

	var breakdown []ModelBreakdown
	for rows.Next() {
		var mb ModelBreakdown
		if err := rows.Scan(&mb.ModelName, &mb.ModelProvider, &mb.RequestCount,
			&mb.TotalTokens, &mb.TotalCost, &mb.AvgResponseTimeMs); err != nil {
			return nil, errors.Wrap(err, "scanning model breakdown")
		}
		breakdown = append(breakdown, mb)
	}
	return breakdown, rows.Err()
}

// GetTimeSeriesData aggregates daily request counts and cost for the
// trailing number of days.
func (t *UsageTracker) GetTimeSeriesData(days int) ([]TimeSeriesPoint, error) {
	rows, err := t.db.Query(`
		SELECT
			DATE(request_timestamp),
			COUNT(*),
			COALESCE(SUM(COALESCE(cost, 0)), 0)
		FROM ai_model_usage
		WHERE request_timestamp >= datetime('now', '-' || ? || ' days')
		GROUP BY DATE(request_timestamp)
		ORDER BY DATE(request_timestamp) ASC`, days)
	if err != nil {
		return nil, errors.Wrap(err, "querying time series")
	}
	defer rows.Close()

	var points []TimeSeriesPoint
	for rows.Next() {
		var p TimeSeriesPoint
		if err := rows.Scan(&p.Date, &p.Requests, &p.Cost); err != nil {
			return nil, errors.Wrap(err, "scanning time series")
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// ModelConfig serializes the sampling parameters a call ran with
type ModelConfig struct {
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
	TopK        *int     `json:"top_k,omitempty"`
}

// NewModelConfig builds the model_config JSON column value, or nil when
// there is nothing to record.
func NewModelConfig(temperature *float64, maxTokens *int) *string {
	if temperature == nil && maxTokens == nil {
		return nil
	}
	data, err := json.Marshal(ModelConfig{Temperature: temperature, MaxTokens: maxTokens})
	if err != nil {
		return nil
	}
	s := string(data)
	return &s
}

// UsageMetadata carries optional context for a usage row
type UsageMetadata struct {
	UserAgent       string `json:"user_agent,omitempty"`
	SessionID       string `json:"session_id,omitempty"`
	OperationDetail string `json:"operation_detail,omitempty"`
	InputLength     *int   `json:"input_length,omitempty"`
	OutputLength    *int   `json:"output_length,omitempty"`
}

// NewUsageMetadata builds the metadata JSON column value
func NewUsageMetadata(metadata UsageMetadata) *string {
	data, err := json.Marshal(metadata)
	if err != nil {
		return nil
	}
	s := string(data)
	return &s
}
