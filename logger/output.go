package logger

// OutputCategory names one kind of output a command can emit. Checking
// a category before printing keeps the default run quiet without
// burying detail behind severity alone.
type OutputCategory int

const (
	OutputResults OutputCategory = iota
	OutputErrors
	OutputUserStatus

	OutputProgress
	OutputStartup
	OutputRoundSummary
	OutputOperationInfo

	OutputModelCalls
	OutputTiming
	OutputConfig
	OutputHTTPCalls
	OutputDBStats

	OutputPatchDecisions
	OutputMergeDecisions
	OutputSQLQueries
	OutputInternalOp

	OutputRequestBody
	OutputResponseBody
	OutputDataDump
)

// categories pairs each category with its display name and the lowest
// verbosity that shows it.
var categories = map[OutputCategory]struct {
	name string
	min  int
}{
	OutputResults:    {"results", VerbosityUser},
	OutputErrors:     {"errors", VerbosityUser},
	OutputUserStatus: {"status", VerbosityUser},

	OutputProgress:      {"progress", VerbosityInfo},
	OutputStartup:       {"startup", VerbosityInfo},
	OutputRoundSummary:  {"round-summary", VerbosityInfo},
	OutputOperationInfo: {"operation-info", VerbosityInfo},

	OutputModelCalls: {"model-calls", VerbosityDebug},
	OutputTiming:     {"timing", VerbosityDebug},
	OutputConfig:     {"config", VerbosityDebug},
	OutputHTTPCalls:  {"http", VerbosityDebug},
	OutputDBStats:    {"db-stats", VerbosityDebug},

	OutputPatchDecisions: {"patch-decisions", VerbosityTrace},
	OutputMergeDecisions: {"merge-decisions", VerbosityTrace},
	OutputSQLQueries:     {"sql", VerbosityTrace},
	OutputInternalOp:     {"internal", VerbosityTrace},

	OutputRequestBody:  {"request-body", VerbosityAll},
	OutputResponseBody: {"response-body", VerbosityAll},
	OutputDataDump:     {"data-dump", VerbosityAll},
}

// ShouldOutput reports whether a category belongs at this verbosity.
// Unknown categories only show at maximum verbosity.
func ShouldOutput(verbosity int, category OutputCategory) bool {
	c, ok := categories[category]
	if !ok {
		return verbosity >= VerbosityAll
	}
	return verbosity >= c.min
}

// CategoryName returns the display name of a category
func CategoryName(category OutputCategory) string {
	if c, ok := categories[category]; ok {
		return c.name
	}
	return "unknown"
}
