package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestInitializeJSON(t *testing.T) {
	defer func() { Cleanup() }()

	err := Initialize(true)
	require.NoError(t, err)
	require.NotNil(t, Logger)
	assert.True(t, JSONOutput)
}

func TestInitializeConsole(t *testing.T) {
	defer func() { Cleanup() }()

	err := Initialize(false)
	require.NoError(t, err)
	require.NotNil(t, Logger)
	assert.False(t, JSONOutput)
}

func TestInitializeWithLevel(t *testing.T) {
	defer func() { Cleanup() }()

	require.NoError(t, InitializeWithLevel(false, zapcore.DebugLevel))
	require.NotNil(t, Logger)
	assert.True(t, Logger.Desugar().Core().Enabled(zapcore.DebugLevel))
}

func TestThemeFromEnvironment(t *testing.T) {
	t.Setenv("STORYGRAPH_LOG_THEME", "gruvbox")
	defer SetTheme("everforest")

	require.NoError(t, Initialize(false))
	assert.Equal(t, "gruvbox", currentTheme)
}

func TestSetThemeRejectsUnknown(t *testing.T) {
	SetTheme("everforest")
	SetTheme("solarized")
	assert.Equal(t, "everforest", currentTheme)
}

func TestLoggingFunctionsSafeBeforeInitialize(t *testing.T) {
	// Package wrappers never panic, even against the init-time nop logger
	Info("info")
	Infof("info %d", 1)
	Infow("info", FieldCount, 1)
	Warn("warn")
	Warnf("warn %d", 1)
	Warnw("warn", FieldCount, 1)
	Error("error")
	Errorf("error %d", 1)
	Errorw("error", FieldCount, 1)
	Debug("debug")
	Debugf("debug %d", 1)
	Debugw("debug", FieldCount, 1)
	Cleanup()
}

func TestFieldsFromContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, FieldsFromContext(ctx))

	ctx = WithRunID(ctx, "run-1")
	ctx = WithStoryID(ctx, "story-001")
	ctx = WithComponent(ctx, "pipeline")

	fields := FieldsFromContext(ctx)
	assert.Equal(t, []interface{}{
		FieldRunID, "run-1",
		FieldStoryID, "story-001",
		FieldComponent, "pipeline",
	}, fields)
}

func TestVerbosityToLevel(t *testing.T) {
	assert.Equal(t, zapcore.WarnLevel, VerbosityToLevel(VerbosityUser))
	assert.Equal(t, zapcore.InfoLevel, VerbosityToLevel(VerbosityInfo))
	assert.Equal(t, zapcore.DebugLevel, VerbosityToLevel(VerbosityDebug))
	assert.Equal(t, zapcore.DebugLevel, VerbosityToLevel(VerbosityTrace))
	assert.Equal(t, zapcore.DebugLevel, VerbosityToLevel(99))
}

func TestShouldOutput(t *testing.T) {
	// Level 0 shows user-facing categories only
	assert.True(t, ShouldOutput(VerbosityUser, OutputErrors))
	assert.False(t, ShouldOutput(VerbosityUser, OutputProgress))

	// -v adds progress and round summaries
	assert.True(t, ShouldOutput(VerbosityInfo, OutputRoundSummary))
	assert.False(t, ShouldOutput(VerbosityInfo, OutputModelCalls))

	// -vv adds model call details
	assert.True(t, ShouldOutput(VerbosityDebug, OutputModelCalls))
	assert.False(t, ShouldOutput(VerbosityDebug, OutputMergeDecisions))

	// -vvv adds merge and patch decisions
	assert.True(t, ShouldOutput(VerbosityTrace, OutputMergeDecisions))
	assert.False(t, ShouldOutput(VerbosityTrace, OutputResponseBody))

	// -vvvv shows everything
	assert.True(t, ShouldOutput(VerbosityAll, OutputResponseBody))

	// Unknown categories require maximum verbosity
	assert.False(t, ShouldOutput(VerbosityTrace, OutputCategory(999)))
	assert.True(t, ShouldOutput(VerbosityAll, OutputCategory(999)))
}

func TestCategoryName(t *testing.T) {
	assert.Equal(t, "merge-decisions", CategoryName(OutputMergeDecisions))
	assert.Equal(t, "unknown", CategoryName(OutputCategory(999)))
}
