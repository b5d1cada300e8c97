package logger

import (
	"context"

	"go.uber.org/zap"
)

// Standard field names for consistent structured logging across storygraph.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Identity and context
	FieldRunID   = "run_id"
	FieldStoryID = "story_id"
	FieldActorID = "actor_id"

	// Components
	FieldComponent = "component"
	FieldProvider  = "provider"
	FieldModel     = "model"

	// Operations
	FieldOperation = "operation"
	FieldRound     = "round"
	FieldPath      = "path"

	// Graph
	FieldEntityID    = "entity_id"
	FieldEntityType  = "entity_type"
	FieldGraphDigest = "graph_digest"
	FieldNodes       = "nodes"
	FieldEdges       = "edges"

	// Quality
	FieldScore      = "score"
	FieldConfidence = "confidence"

	// Timing
	FieldDurationMS = "duration_ms"
	FieldStartTime  = "start_time"
	FieldEndTime    = "end_time"

	// Errors
	FieldError     = "error"
	FieldErrorType = "error_type"

	// Counts and sizes
	FieldCount      = "count"
	FieldSize       = "size"
	FieldTotalCount = "total_count"

	// Status
	FieldStatus = "status"
	FieldState  = "state"

	// Files and paths
	FieldFile = "file"
	FieldLine = "line"
)

// Context keys for propagating logging context
type contextKey string

const (
	runIDKey     contextKey = "logger_run_id"
	storyIDKey   contextKey = "logger_story_id"
	componentKey contextKey = "logger_component"
)

// WithRunID adds a pipeline run ID to the context for logging
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// WithStoryID adds a story ID to the context for logging
func WithStoryID(ctx context.Context, storyID string) context.Context {
	return context.WithValue(ctx, storyIDKey, storyID)
}

// WithComponent adds a component name to the context for logging
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

// FieldsFromContext extracts logging fields from context.
// Returns key-value pairs suitable for use with Infow/Errorw/etc.
func FieldsFromContext(ctx context.Context) []interface{} {
	var fields []interface{}

	if runID, ok := ctx.Value(runIDKey).(string); ok && runID != "" {
		fields = append(fields, FieldRunID, runID)
	}
	if storyID, ok := ctx.Value(storyIDKey).(string); ok && storyID != "" {
		fields = append(fields, FieldStoryID, storyID)
	}
	if component, ok := ctx.Value(componentKey).(string); ok && component != "" {
		fields = append(fields, FieldComponent, component)
	}

	return fields
}

// LoggerFromContext returns a logger with fields extracted from context.
// Use this to get a logger that automatically includes run_id, story_id, etc.
func LoggerFromContext(ctx context.Context) *zap.SugaredLogger {
	fields := FieldsFromContext(ctx)
	if len(fields) == 0 {
		return Logger
	}
	return Logger.With(fields...)
}

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection.
//
// Example:
//
//	type Gate struct {
//	    logger *zap.SugaredLogger
//	}
//
//	func NewGate() *Gate {
//	    return &Gate{
//	        logger: logger.ComponentLogger("pipeline.gate"),
//	    }
//	}
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}

// ChildLogger creates a child logger with additional context.
// Use for sub-operations that need extra context fields.
//
// Example:
//
//	storyLogger := logger.ChildLogger(baseLogger, "story_id", state.ID)
func ChildLogger(parent *zap.SugaredLogger, keysAndValues ...interface{}) *zap.SugaredLogger {
	return parent.With(keysAndValues...)
}
