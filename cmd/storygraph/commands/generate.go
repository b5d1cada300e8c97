package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teranos/storygraph/ai"
	"github.com/teranos/storygraph/ai/tracker"
	"github.com/teranos/storygraph/am"
	"github.com/teranos/storygraph/db"
	"github.com/teranos/storygraph/display"
	"github.com/teranos/storygraph/errors"
	"github.com/teranos/storygraph/logger"
	"github.com/teranos/storygraph/pipeline"
	"github.com/teranos/storygraph/story"
)

var (
	generateOutDir   string
	generateProvider string
	generateRefs     []string
	generateRounds   int
	generateNoBanner bool
)

// GenerateCmd runs the full pipeline over a set of unit descriptions
var GenerateCmd = &cobra.Command{
	Use:   "generate <file-or-dir>...",
	Short: "Generate stories and a knowledge graph from unit descriptions",
	Long: `Run the full pipeline: discover graph entities from the descriptions,
generate one story per description through the quality gate, refine the
graph across rounds, cross-reference stories, and run the global
consistency pass.

Each argument is a text file holding one description, or a directory
whose .txt/.md files each hold one description.

Examples:
  storygraph generate descriptions/
  storygraph generate -o out/ login.txt checkout.txt
  storygraph generate --provider local descriptions/`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

func init() {
	GenerateCmd.Flags().StringVarP(&generateOutDir, "out", "o", "", "Directory for generated artifacts (default: print summary only)")
	GenerateCmd.Flags().StringVar(&generateProvider, "provider", "", "AI provider: local, openrouter, auto (default from config)")
	GenerateCmd.Flags().StringSliceVar(&generateRefs, "ref", nil, "Reference document name the collaborator may cite (repeatable)")
	GenerateCmd.Flags().IntVar(&generateRounds, "max-rounds", 0, "Override refinement round cap")
	GenerateCmd.Flags().BoolVar(&generateNoBanner, "no-banner", false, "Suppress the startup banner")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	descriptions, sources, err := collectDescriptions(args)
	if err != nil {
		return err
	}
	if len(descriptions) == 0 {
		return errors.Wrap(errors.ErrInvalidRequest, "no descriptions found in the given paths")
	}

	verbosity, _ := cmd.Flags().GetCount("verbose")
	jsonOutput := display.ShouldOutputJSON(cmd)

	dbPath, err := am.GetDatabasePath()
	if err != nil {
		return errors.Wrap(err, "resolving database path")
	}
	database, err := db.OpenWithMigrations(dbPath, logger.Logger)
	if err != nil {
		return errors.Wrap(err, "opening usage database")
	}
	defer database.Close()

	if !generateNoBanner && !jsonOutput {
		printStartupBanner(verbosity, dbPath)
	}

	usageTracker := tracker.NewUsageTracker(database, verbosity)

	// Budget limits stay live for the whole run: a watcher follows the
	// user config file, and every refinement round re-checks spend
	// against the latest limits before more tokens are bought.
	var limits atomic.Pointer[am.PipelineConfig]
	limits.Store(&cfg.Pipeline)
	if path := am.GetUserConfigPath(); path != "" {
		if _, statErr := os.Stat(path); statErr == nil {
			watcher, werr := am.Watch(path, func(fresh *am.Config) {
				pc := fresh.Pipeline
				limits.Store(&pc)
				logger.Infow("budget limits updated from config edit",
					"daily_budget_usd", pc.DailyBudgetUSD,
					"monthly_budget_usd", pc.MonthlyBudgetUSD)
			})
			if werr != nil {
				logger.Warnw("config watcher unavailable", "error", werr)
			} else {
				defer watcher.Close()
			}
		}
	}

	if err := checkBudget(usageTracker, cfg.Pipeline); err != nil {
		return err
	}

	client, err := ai.NewClientFromConfig(cfg, generateProvider, ai.Options{
		DB:         database,
		Verbosity:  verbosity,
		EntityType: "pipeline_run",
		Logger:     logger.Logger,
	})
	if err != nil {
		return err
	}

	pipeCfg := cfg.GetPipelineConfig()
	opts := pipeline.Options{
		MaxRounds:         pipeCfg.MaxRounds,
		QualityThreshold:  pipeCfg.QualityThreshold,
		ConfidenceFloor:   pipeCfg.ConfidenceFloor,
		AutoFixConfidence: pipeCfg.AutoFixConfidence,
		BeforeRound: func(int) error {
			return checkBudget(usageTracker, *limits.Load())
		},
	}
	if generateRounds > 0 {
		opts.MaxRounds = generateRounds
	}

	collab := pipeline.NewLLMCollaborator(client, logger.Logger)
	p := pipeline.New(collab, opts, logger.Logger)
	if jsonOutput {
		p.SetProgress(newJSONProgress())
	} else {
		p.SetProgress(newCLIProgress(verbosity))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := p.Run(ctx, pipeline.DiscoveryInput{
		Descriptions:  descriptions,
		ReferenceDocs: generateRefs,
	})
	if err != nil {
		return errors.Wrap(err, "pipeline run failed")
	}

	if generateOutDir != "" {
		if err := writeArtifacts(generateOutDir, result, sources); err != nil {
			return err
		}
	}

	if jsonOutput {
		return display.OutputJSON(result)
	}
	printRunSummary(result, sources)
	return nil
}

// collectDescriptions expands files and directories into one description
// per file, ordered by source path for deterministic story IDs.
func collectDescriptions(paths []string) ([]string, []string, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "reading %s", path)
		}
		if info.IsDir() {
			entries, err := os.ReadDir(path)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "listing %s", path)
			}
			for _, entry := range entries {
				if entry.IsDir() {
					continue
				}
				ext := filepath.Ext(entry.Name())
				if ext == ".txt" || ext == ".md" {
					files = append(files, filepath.Join(path, entry.Name()))
				}
			}
		} else {
			files = append(files, path)
		}
	}
	sort.Strings(files)

	var descriptions, sources []string
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "reading %s", file)
		}
		text := strings.TrimSpace(string(data))
		if text == "" {
			continue
		}
		descriptions = append(descriptions, text)
		sources = append(sources, file)
	}
	return descriptions, sources, nil
}

// checkBudget refuses to spend once the daily or monthly limit is
// reached. Limits of zero disable the check. Called before the run and
// again ahead of every refinement round with the latest limits.
func checkBudget(t *tracker.UsageTracker, limits am.PipelineConfig) error {
	now := time.Now()

	if daily := limits.DailyBudgetUSD; daily > 0 {
		startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		spent, err := t.SpentSince(startOfDay)
		if err != nil {
			return errors.Wrap(err, "reading daily spend")
		}
		if spent >= daily {
			return errors.Newf("daily budget exhausted: $%.2f spent of $%.2f limit", spent, daily)
		}
	}

	if monthly := limits.MonthlyBudgetUSD; monthly > 0 {
		startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		spent, err := t.SpentSince(startOfMonth)
		if err != nil {
			return errors.Wrap(err, "reading monthly spend")
		}
		if spent >= monthly {
			return errors.Newf("monthly budget exhausted: $%.2f spent of $%.2f limit", spent, monthly)
		}
	}

	return nil
}

// writeArtifacts writes one markdown file per story plus the full run
// result as JSON into dir.
func writeArtifacts(dir string, result *pipeline.Result, sources []string) error {
	if err := os.MkdirAll(dir, am.DefaultDirPermissions); err != nil {
		return errors.Wrapf(err, "creating %s", dir)
	}

	for _, state := range result.Stories {
		if state.Document == nil {
			continue
		}
		path := filepath.Join(dir, state.ID+".md")
		rendering := story.RenderMarkdown(state.Document)
		if err := os.WriteFile(path, []byte(rendering), am.DefaultFilePermissions); err != nil {
			return errors.Wrapf(err, "writing %s", path)
		}
	}

	data, err := display.MarshalJSON(result)
	if err != nil {
		return errors.Wrap(err, "marshaling run result")
	}
	resultPath := filepath.Join(dir, "run.json")
	if err := os.WriteFile(resultPath, data, am.DefaultFilePermissions); err != nil {
		return errors.Wrapf(err, "writing %s", resultPath)
	}
	return nil
}

func printRunSummary(result *pipeline.Result, sources []string) {
	fmt.Println()
	fmt.Printf("Run %s: %d stories, %d rounds, converged=%v\n",
		result.RunID, len(result.Stories), result.Rounds, result.Converged)
	fmt.Printf("Graph: %d nodes, %d edges\n",
		result.Graph.NodeCount(), result.Graph.EdgeCount())

	flagged := 0
	for i, state := range result.Stories {
		source := ""
		if i < len(sources) {
			source = " (" + filepath.Base(sources[i]) + ")"
		}
		status := "accepted"
		score := 0.0
		if state.Outcome != nil {
			status = string(state.Outcome.Status)
			score = state.Outcome.Score
		}
		if status != "accepted" {
			flagged++
		}
		fmt.Printf("  %s%s: %s (score %.2f)\n", state.ID, source, status, score)
	}
	if flagged > 0 {
		fmt.Printf("%d stories need manual review\n", flagged)
	}
	if result.Consistency != nil {
		fmt.Printf("Consistency: %d fixes applied, %d flagged for review\n",
			len(result.Consistency.Applied), len(result.Consistency.Flagged))
	}
}
