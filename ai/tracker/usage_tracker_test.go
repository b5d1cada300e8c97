package tracker

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/storygraph/db"
)

// trackerDB migrates a throwaway SQLite database so the tests exercise
// the real schema rather than a hand-built copy of it.
func trackerDB(t *testing.T) *UsageTracker {
	t.Helper()
	conn, err := db.OpenWithMigrations(t.TempDir()+"/usage.db", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewUsageTracker(conn, 0)
}

func recordCall(t *testing.T, tr *UsageTracker, operation, model string, at time.Time, cost float64, tokens int) {
	t.Helper()
	finished := at.Add(2 * time.Second)
	require.NoError(t, tr.TrackUsage(&ModelUsage{
		OperationType:     operation,
		EntityType:        "pipeline_run",
		EntityID:          "run-1",
		ModelName:         model,
		ModelProvider:     "openrouter",
		RequestTimestamp:  at,
		ResponseTimestamp: &finished,
		TokensUsed:        &tokens,
		Cost:              &cost,
		Success:           true,
	}))
}

func TestTrackUsageRoundTrip(t *testing.T) {
	tr := trackerDB(t)
	now := time.Now()

	recordCall(t, tr, "generation", "openai/gpt-4o-mini", now, 0.002, 1400)
	recordCall(t, tr, "judgment", "openai/gpt-4o-mini", now, 0.001, 900)

	errMsg := "chat request returned 500: upstream overloaded"
	require.NoError(t, tr.TrackUsage(&ModelUsage{
		OperationType:    "rewrite",
		EntityType:       "pipeline_run",
		EntityID:         "run-1",
		ModelName:        "openai/gpt-4o-mini",
		ModelProvider:    "openrouter",
		RequestTimestamp: now,
		Success:          false,
		ErrorMessage:     &errMsg,
	}))

	stats, err := tr.GetUsageStats(now.Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalRequests)
	assert.Equal(t, 2, stats.SuccessfulRequests)
	assert.InDelta(t, 2.0/3.0, stats.SuccessRate, 1e-9)
	assert.Equal(t, 2300, stats.TotalTokens)
	assert.InDelta(t, 0.003, stats.TotalCost, 1e-9)
	assert.Equal(t, 1, stats.UniqueModels)
}

func TestSpentSinceWindowsByTimestamp(t *testing.T) {
	tr := trackerDB(t)
	now := time.Now()

	recordCall(t, tr, "generation", "openai/gpt-4o-mini", now.Add(-48*time.Hour), 1.00, 5000)
	recordCall(t, tr, "generation", "openai/gpt-4o-mini", now, 0.25, 2000)
	recordCall(t, tr, "consistency", "anthropic/claude-3.5-sonnet", now, 0.50, 9000)

	today, err := tr.SpentSince(now.Add(-time.Hour))
	require.NoError(t, err)
	assert.InDelta(t, 0.75, today, 1e-9)

	all, err := tr.SpentSince(now.Add(-72 * time.Hour))
	require.NoError(t, err)
	assert.InDelta(t, 1.75, all, 1e-9)
}

func TestGetModelBreakdown(t *testing.T) {
	tr := trackerDB(t)
	now := time.Now()

	recordCall(t, tr, "generation", "openai/gpt-4o-mini", now, 0.10, 1000)
	recordCall(t, tr, "generation", "openai/gpt-4o-mini", now, 0.10, 1000)
	recordCall(t, tr, "consistency", "anthropic/claude-3.5-sonnet", now, 0.90, 12000)

	// Failed calls stay out of the breakdown
	require.NoError(t, tr.TrackUsage(&ModelUsage{
		OperationType:    "judgment",
		ModelName:        "openai/gpt-4o-mini",
		ModelProvider:    "openrouter",
		RequestTimestamp: now,
		Success:          false,
	}))

	breakdown, err := tr.GetModelBreakdown(now.Add(-time.Minute))
	require.NoError(t, err)
	require.Len(t, breakdown, 2)

	// Ordered by spend, most expensive first
	assert.Equal(t, "anthropic/claude-3.5-sonnet", breakdown[0].ModelName)
	assert.InDelta(t, 0.90, breakdown[0].TotalCost, 1e-9)
	assert.Equal(t, 1, breakdown[0].RequestCount)

	assert.Equal(t, "openai/gpt-4o-mini", breakdown[1].ModelName)
	assert.Equal(t, 2, breakdown[1].RequestCount)
	assert.Equal(t, 2000, breakdown[1].TotalTokens)
	if assert.NotNil(t, breakdown[1].AvgResponseTimeMs) {
		assert.InDelta(t, 2000, *breakdown[1].AvgResponseTimeMs, 100)
	}
}

func TestGetTimeSeriesData(t *testing.T) {
	tr := trackerDB(t)
	now := time.Now().UTC()

	recordCall(t, tr, "generation", "openai/gpt-4o-mini", now, 0.05, 500)
	recordCall(t, tr, "judgment", "openai/gpt-4o-mini", now, 0.03, 300)

	points, err := tr.GetTimeSeriesData(7)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, now.Format("2006-01-02"), points[0].Date)
	assert.Equal(t, 2, points[0].Requests)
	assert.InDelta(t, 0.08, points[0].Cost, 1e-9)
}

func TestNewModelConfig(t *testing.T) {
	assert.Nil(t, NewModelConfig(nil, nil))

	temp := 0.2
	tokens := 4000
	cfg := NewModelConfig(&temp, &tokens)
	require.NotNil(t, cfg)
	assert.JSONEq(t, `{"temperature":0.2,"max_tokens":4000}`, *cfg)

	tempOnly := NewModelConfig(&temp, nil)
	require.NotNil(t, tempOnly)
	assert.JSONEq(t, `{"temperature":0.2}`, *tempOnly)
}

func TestNewUsageMetadata(t *testing.T) {
	in := 1200
	meta := NewUsageMetadata(UsageMetadata{
		SessionID:       "run-7",
		OperationDetail: "round 2",
		InputLength:     &in,
	})
	require.NotNil(t, meta)
	assert.JSONEq(t, `{"session_id":"run-7","operation_detail":"round 2","input_length":1200}`, *meta)
}

// The sqlmock tests pin the failure paths a live database will not
// produce on demand.

func TestTrackUsagePropagatesExecError(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectExec("INSERT INTO ai_model_usage").
		WillReturnError(sql.ErrConnDone)

	tr := NewUsageTracker(conn, 0)
	err = tr.TrackUsage(&ModelUsage{
		OperationType:    "generation",
		ModelName:        "openai/gpt-4o-mini",
		ModelProvider:    "openrouter",
		RequestTimestamp: time.Now(),
	})
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUsageStatsPropagatesQueryError(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectQuery("SELECT").WillReturnError(sql.ErrConnDone)

	tr := NewUsageTracker(conn, 0)
	_, err = tr.GetUsageStats(time.Now().Add(-time.Hour))
	assert.ErrorIs(t, err, sql.ErrConnDone)
}
