package commands

import (
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/storygraph/ai/tracker"
	"github.com/teranos/storygraph/am"
	"github.com/teranos/storygraph/db"
	"github.com/teranos/storygraph/display"
	"github.com/teranos/storygraph/errors"
	"github.com/teranos/storygraph/logger"
)

var usageDays int

// UsageCmd shows AI model usage and cost statistics
var UsageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show AI model usage and cost statistics",
	Long: `Display aggregated AI model usage: request counts, tokens, cost,
and a per-model breakdown, over the last N days.

Examples:
  storygraph usage              # Last 30 days
  storygraph usage --days 7     # Last week
  storygraph usage --json       # Machine-readable output`,
	RunE: runUsage,
}

func init() {
	UsageCmd.Flags().IntVar(&usageDays, "days", 30, "Number of days to include")
	UsageCmd.Flags().Bool("json", false, "Output statistics as JSON")
}

// usageReport bundles everything the usage command displays
type usageReport struct {
	Since     time.Time                 `json:"since"`
	Days      int                       `json:"days"`
	Stats     *tracker.UsageStats       `json:"stats"`
	Breakdown []tracker.ModelBreakdown  `json:"breakdown,omitempty"`
	Daily     []tracker.TimeSeriesPoint `json:"daily,omitempty"`
}

func runUsage(cmd *cobra.Command, args []string) error {
	dbPath, err := am.GetDatabasePath()
	if err != nil {
		return errors.Wrap(err, "resolving database path")
	}
	database, err := db.OpenWithMigrations(dbPath, logger.Logger)
	if err != nil {
		return errors.Wrap(err, "opening usage database")
	}
	defer database.Close()

	verbosity, _ := cmd.Flags().GetCount("verbose")
	t := tracker.NewUsageTracker(database, verbosity)
	since := time.Now().AddDate(0, 0, -usageDays)

	stats, err := t.GetUsageStats(since)
	if err != nil {
		return errors.Wrap(err, "reading usage stats")
	}
	breakdown, err := t.GetModelBreakdown(since)
	if err != nil {
		return errors.Wrap(err, "reading model breakdown")
	}
	daily, err := t.GetTimeSeriesData(usageDays)
	if err != nil {
		return errors.Wrap(err, "reading daily usage")
	}

	report := &usageReport{
		Since:     since,
		Days:      usageDays,
		Stats:     stats,
		Breakdown: breakdown,
		Daily:     daily,
	}

	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(report)
	}

	printUsageReport(report)
	return nil
}

func printUsageReport(report *usageReport) {
	pterm.Printf("%s (last %d days)\n\n", pterm.LightCyan("AI model usage"), report.Days)

	pterm.Printf("  Requests:  %d (%.0f%% successful)\n",
		report.Stats.TotalRequests, report.Stats.SuccessRate*100)
	pterm.Printf("  Tokens:    %d\n", report.Stats.TotalTokens)
	pterm.Printf("  Cost:      %s\n", pterm.Green(fmt.Sprintf("$%.4f", report.Stats.TotalCost)))
	pterm.Printf("  Models:    %d\n", report.Stats.UniqueModels)

	if len(report.Breakdown) > 0 {
		pterm.Printf("\n%s\n", pterm.LightCyan("By model"))
		for _, mb := range report.Breakdown {
			pterm.Printf("  %s (%s): %d requests, %d tokens, %s\n",
				pterm.Yellow(mb.ModelName), mb.ModelProvider,
				mb.RequestCount, mb.TotalTokens,
				pterm.Green(fmt.Sprintf("$%.4f", mb.TotalCost)))
		}
	}
}
