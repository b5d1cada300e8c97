package logger

import "go.uber.org/zap/zapcore"

// Verbosity counts -v flags on the CLI. A level gates both the zap
// severity and the output categories in output.go: severity says how
// loud a line is, the category says whether that kind of line belongs
// at this verbosity at all.
const (
	VerbosityUser  = 0 // results and errors only
	VerbosityInfo  = 1 // -v: + progress, startup, round summaries
	VerbosityDebug = 2 // -vv: + model calls, timing, config details
	VerbosityTrace = 3 // -vvv: + merge and patch decisions, SQL
	VerbosityAll   = 4 // -vvvv: + full request/response bodies
)

// VerbosityToLevel maps -v counts onto zap levels. zap has nothing
// finer than Debug, so everything past -vv is gated by category
// rather than severity.
func VerbosityToLevel(verbosity int) zapcore.Level {
	switch {
	case verbosity <= VerbosityUser:
		return zapcore.WarnLevel
	case verbosity == VerbosityInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

// LevelName names a verbosity level for the startup banner
func LevelName(verbosity int) string {
	switch verbosity {
	case VerbosityUser:
		return "User"
	case VerbosityInfo:
		return "Info (-v)"
	case VerbosityDebug:
		return "Debug (-vv)"
	case VerbosityTrace:
		return "Trace (-vvv)"
	case VerbosityAll:
		return "All (-vvvv)"
	}
	if verbosity > VerbosityAll {
		return "All (-vvvv+)"
	}
	return "Unknown"
}
